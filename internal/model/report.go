package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// SectionTitle is one of the canonical report headings
type SectionTitle string

const (
	SectionNumerology   SectionTitle = "NUMEROLOGY WITH DATE OF BIRTH"
	SectionArchetype    SectionTitle = "ETERNAL ARCHETYPE PROFILE"
	SectionFrequency    SectionTitle = "VIBRATIONAL FREQUENCY DASHBOARD"
	SectionAuraChakra   SectionTitle = "AURA AND CHAKRA HEALTH"
	SectionRelationship SectionTitle = "RELATIONSHIP RESONANCE MAP"
	SectionMental       SectionTitle = "MENTAL EMOTIONAL HEALTH"
	SectionSpiritual    SectionTitle = "SPIRITUAL ALIGNMENT SCORE"
	SectionPalm         SectionTitle = "PALM READINGS"
	SectionHealth       SectionTitle = "HEALTH INSIGHTS"
)

// CanonicalSections is the fixed report order. Every report carries all of them.
var CanonicalSections = []SectionTitle{
	SectionNumerology,
	SectionArchetype,
	SectionFrequency,
	SectionAuraChakra,
	SectionRelationship,
	SectionMental,
	SectionSpiritual,
	SectionPalm,
	SectionHealth,
}

// SectionIndex returns the canonical position of a title, or -1
func SectionIndex(title SectionTitle) int {
	for i, t := range CanonicalSections {
		if t == title {
			return i
		}
	}
	return -1
}

var defaultDescriptions = map[SectionTitle]string{
	SectionNumerology:   "Your birth date carries a distinct numerical signature. Your life path number points to natural leadership, creative expression and a steady drive toward growth.",
	SectionArchetype:    "Your answers reflect a balanced archetypal pattern that blends intuition with practical wisdom. You move between nurturing others and pursuing your own path with quiet determination.",
	SectionFrequency:    "Your overall vibrational frequency sits in a healthy range. Daily habits and emotional patterns show room to raise your energy through consistent rest and mindful routines.",
	SectionAuraChakra:   "Your aura shows a mix of warm and calming tones. The heart and throat chakras appear open, while the root chakra would benefit from grounding practices.",
	SectionRelationship: "Your relationships show a capacity for deep connection. Clear communication and healthy boundaries will strengthen the bonds that matter most to you.",
	SectionMental:       "Your mental and emotional landscape is generally resilient. Regular reflection and stress release will help you keep clarity during demanding periods.",
	SectionSpiritual:    "You show a growing alignment between your values and daily actions. Continued practice of stillness and gratitude will deepen your sense of purpose.",
	SectionPalm:         "Palm reading requires a clear image of your palm. Upload a photo of your left palm if you are male or your right palm if you are female to receive this analysis.",
	SectionHealth:       "Your lifestyle shows a sound foundation for wellbeing. Attention to sleep, hydration and regular movement will support long-term vitality.",
}

// DefaultSectionDescription is the canned text used when a section could not be produced
func DefaultSectionDescription(title SectionTitle) string {
	return defaultDescriptions[title]
}

// ReportSection is one scored block of the report
type ReportSection struct {
	Title       SectionTitle `json:"title" bson:"title"`
	Description string       `json:"description" bson:"description"`
	Score       int          `json:"score" bson:"score"`
}

// SectionMap is an ordered title -> section mapping.
// Sections are always kept in canonical order and unknown titles are refused.
type SectionMap struct {
	sections []ReportSection
}

// Set inserts or replaces a section, returning false for a non-canonical title
func (m *SectionMap) Set(section ReportSection) bool {
	idx := SectionIndex(section.Title)
	if idx < 0 {
		return false
	}
	for i := range m.sections {
		if m.sections[i].Title == section.Title {
			m.sections[i] = section
			return true
		}
	}
	pos := len(m.sections)
	for i, s := range m.sections {
		if SectionIndex(s.Title) > idx {
			pos = i
			break
		}
	}
	m.sections = append(m.sections, ReportSection{})
	copy(m.sections[pos+1:], m.sections[pos:])
	m.sections[pos] = section
	return true
}

// Get looks up a section by title
func (m SectionMap) Get(title SectionTitle) (ReportSection, bool) {
	for _, s := range m.sections {
		if s.Title == title {
			return s, true
		}
	}
	return ReportSection{}, false
}

// Len returns the number of sections present
func (m SectionMap) Len() int {
	return len(m.sections)
}

// PlaceholderScore is the fixed score in [70,100) given to a section that is
// missing from a stored report. Palm Readings gets 0: a missing palm section
// never carries a reading.
func PlaceholderScore(title SectionTitle) int {
	i := SectionIndex(title)
	if i < 0 || title == SectionPalm {
		return 0
	}
	return 70 + (i*11)%30
}

// FillMissing adds every absent canonical section with its default description
func (m *SectionMap) FillMissing() {
	for _, title := range CanonicalSections {
		if _, ok := m.Get(title); !ok {
			m.Set(ReportSection{Title: title, Description: DefaultSectionDescription(title), Score: PlaceholderScore(title)})
		}
	}
}

// Titles returns the present titles in canonical order
func (m SectionMap) Titles() []SectionTitle {
	titles := make([]SectionTitle, len(m.sections))
	for i, s := range m.sections {
		titles[i] = s.Title
	}
	return titles
}

// All returns a copy of the sections in canonical order
func (m SectionMap) All() []ReportSection {
	out := make([]ReportSection, len(m.sections))
	copy(out, m.sections)
	return out
}

// MarshalJSON writes the sections as an object keyed by title, in canonical order
func (m SectionMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range m.sections {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(s.Title))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keyed by title; unknown titles are skipped
func (m *SectionMap) UnmarshalJSON(data []byte) error {
	var raw map[string]ReportSection
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode sections: %w", err)
	}
	m.sections = nil
	for key, s := range raw {
		s.Title = SectionTitle(key)
		m.Set(s)
	}
	m.FillMissing()
	return nil
}

// MarshalBSON stores the sections as an ordered sub-document keyed by title
func (m SectionMap) MarshalBSON() ([]byte, error) {
	doc := make(bson.D, 0, len(m.sections))
	for _, s := range m.sections {
		doc = append(doc, bson.E{Key: string(s.Title), Value: s})
	}
	return bson.Marshal(doc)
}

// UnmarshalBSON restores sections written by MarshalBSON
func (m *SectionMap) UnmarshalBSON(data []byte) error {
	elems, err := bson.Raw(data).Elements()
	if err != nil {
		return fmt.Errorf("decode sections: %w", err)
	}
	m.sections = nil
	for _, elem := range elems {
		var s ReportSection
		if err := elem.Value().Unmarshal(&s); err != nil {
			return fmt.Errorf("decode section %q: %w", elem.Key(), err)
		}
		s.Title = SectionTitle(elem.Key())
		m.Set(s)
	}
	m.FillMissing()
	return nil
}

// ReportSource records which synthesis path produced the report
type ReportSource string

const (
	ReportSourceGenerated ReportSource = "generated"
	ReportSourceFallback  ReportSource = "fallback"
)

// Report is the finished, immutable result of one interview
type Report struct {
	OwnerID        string       `json:"ownerId" bson:"ownerId"`
	Sections       SectionMap   `json:"sections" bson:"sections"`
	RawAnswers     []string     `json:"rawAnswers" bson:"rawAnswers"`
	ImageValidated bool         `json:"imageValidated" bson:"imageValidated"`
	ImageURL       string       `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	DerivedGender  Gender       `json:"derivedGender" bson:"derivedGender"`
	Source         ReportSource `json:"source" bson:"source"`
	GeneratedText  string       `json:"generatedText,omitempty" bson:"generatedText,omitempty"`
	GeneratedAt    time.Time    `json:"generatedAt" bson:"generatedAt"`
}

// OverallScore is the rounded mean of all section scores
func (r *Report) OverallScore() int {
	if r.Sections.Len() == 0 {
		return 0
	}
	total := 0
	for _, s := range r.Sections.All() {
		total += s.Score
	}
	n := r.Sections.Len()
	return (total + n/2) / n
}

// ScoreLabel is the display band used by the report view
func ScoreLabel(score int) string {
	switch {
	case score >= 85:
		return "Excellent"
	case score >= 75:
		return "Very Good"
	case score >= 65:
		return "Good"
	case score >= 50:
		return "Fair"
	default:
		return "Needs Attention"
	}
}
