package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"eternal/internal/model"
)

const minDescriptionLen = 20

// SynthesisInput is everything the report depends on
type SynthesisInput struct {
	OwnerID        string
	Answers        []string
	ImageValidated bool
	Gender         model.Gender
	ImageURL       string
}

// ReportSynthesizer builds the nine-section report. It asks the text
// generator first and falls back to a seeded local generator, so it never
// fails.
type ReportSynthesizer struct {
	generator TextGenerator
	now       func() time.Time
}

// NewReportSynthesizer creates a synthesizer; generator may be nil
func NewReportSynthesizer(generator TextGenerator) *ReportSynthesizer {
	return &ReportSynthesizer{
		generator: generator,
		now:       time.Now,
	}
}

// Synthesize produces a complete report with exactly nine sections
func (s *ReportSynthesizer) Synthesize(ctx context.Context, in SynthesisInput) *model.Report {
	if in.Gender == "" || in.Gender == model.GenderUnknown {
		in.Gender = DeriveGenderFromAnswers(in.Answers)
	}

	at := s.now()
	seed := DeriveSeed(in.Answers, at)
	rng := rand.New(rand.NewSource(seed))

	report := &model.Report{
		OwnerID:        in.OwnerID,
		RawAnswers:     append([]string(nil), in.Answers...),
		ImageValidated: in.ImageValidated,
		ImageURL:       in.ImageURL,
		DerivedGender:  in.Gender,
		GeneratedAt:    at,
	}

	if s.generator != nil {
		text, err := s.generator.SynthesizeReport(ctx, in.Answers, in.ImageValidated, in.Gender)
		switch {
		case err != nil:
			log.Printf("[Report] Generation unavailable for %s, using local synthesis: %v", in.OwnerID, err)
		case strings.TrimSpace(text) == "":
			log.Printf("[Report] Generator returned empty text for %s, using local synthesis", in.OwnerID)
		default:
			report.Sections = extractSections(text, in, rng)
			report.Source = model.ReportSourceGenerated
			report.GeneratedText = text
			return report
		}
	}

	report.Sections = fallbackSections(in, seed, rng)
	report.Source = model.ReportSourceFallback
	return report
}

// headingMatcher finds one section heading in free text
type headingMatcher struct {
	anchored *regexp.Regexp
	loose    *regexp.Regexp
}

var (
	headingMatchers = buildHeadingMatchers()

	labeledScore = regexp.MustCompile(`(?i)\b(?:score|rating)\b[\s:*_=\-]*(\d{1,3})(?:\s*(?:/\s*100|%))?`)
	bareScore    = regexp.MustCompile(`\b(\d{1,3})\s*/\s*100\b`)
	emptyParens  = regexp.MustCompile(`\(\s*[,;:]?\s*\)|\[\s*\]`)
	bulletPrefix = regexp.MustCompile(`(?m)^\s*(?:[-•*+]|\d+[.)])\s+`)
	markdownMark = regexp.MustCompile("\\*\\*|__|#+|`")
	spaceRun     = regexp.MustCompile(`\s+`)
	// left behind when a score is cut out of a sentence: "wisdom. ." or "7, , which"
	punctRun = regexp.MustCompile(`\s*([.,;:!?])(?:\s*[.,;:])*`)
)

const (
	// words inside a heading may be split by spaces, hyphens, slashes or an ampersand
	headingSep    = `(?:\s*(?:&|\band\b|[-_/,+])\s*|\s+)`
	headingLead   = `(?im)^[ \t>#*_"'\d.)\-]*`
	headingTrail  = `\b[ \t*_"']*:?[ \t*_"']*`
	looseModifier = `(?i)`
)

func titleRegexp(title string) string {
	var words []string
	for _, w := range strings.Fields(strings.ToUpper(title)) {
		if w == "AND" || w == "&" {
			continue
		}
		q := regexp.QuoteMeta(w)
		if len(w) > 3 && strings.HasSuffix(w, "S") {
			q = regexp.QuoteMeta(w[:len(w)-1]) + "S?"
		}
		words = append(words, q)
	}
	return strings.Join(words, headingSep)
}

func buildHeadingMatchers() []headingMatcher {
	matchers := make([]headingMatcher, len(sectionSchema))
	for i, spec := range sectionSchema {
		names := append([]string{string(spec.title)}, spec.aliases...)
		// longest first so the full heading is consumed
		sort.SliceStable(names, func(a, b int) bool { return len(names[a]) > len(names[b]) })
		alts := make([]string, len(names))
		for j, n := range names {
			alts[j] = titleRegexp(n)
		}
		group := "(?:" + strings.Join(alts, "|") + ")"
		matchers[i] = headingMatcher{
			anchored: regexp.MustCompile(headingLead + group + headingTrail),
			loose:    regexp.MustCompile(looseModifier + `\b` + group + headingTrail),
		}
	}
	return matchers
}

// find returns the absolute [start, end) of the heading at or after from.
// A heading at the start of a line wins; an inline one is used only when the
// title never opens a line.
func (h headingMatcher) find(text string, from int) []int {
	for _, re := range []*regexp.Regexp{h.anchored, h.loose} {
		if loc := re.FindStringIndex(text[from:]); loc != nil {
			return []int{from + loc[0], from + loc[1]}
		}
	}
	return nil
}

// extractSections walks the canonical titles once, keeping a cursor into the
// text. A section's body ends at the earliest later heading found.
func extractSections(text string, in SynthesisInput, rng *rand.Rand) model.SectionMap {
	var sections model.SectionMap
	cursor := 0
	for i, spec := range sectionSchema {
		section := model.ReportSection{Title: spec.title}

		loc := headingMatchers[i].find(text, cursor)
		if loc == nil {
			section.Description = defaultDescription(spec.title, in)
			section.Score = seededScore(rng)
		} else {
			bodyStart, bodyEnd := loc[1], len(text)
			for j := i + 1; j < len(headingMatchers); j++ {
				if next := headingMatchers[j].find(text, bodyStart); next != nil && next[0] < bodyEnd {
					bodyEnd = next[0]
				}
			}
			cursor = bodyEnd

			body := text[bodyStart:bodyEnd]
			score, ok := extractScore(body)
			if !ok {
				score = seededScore(rng)
			}
			section.Score = clampScore(score)
			section.Description = cleanDescription(body)
			if len(section.Description) < minDescriptionLen {
				section.Description = defaultDescription(spec.title, in)
			}
		}

		if spec.title == model.SectionPalm && !in.ImageValidated {
			section.Score = 0
		}
		sections.Set(section)
	}
	return sections
}

// seededScore is the stand-in score for sections the generator left out
func seededScore(rng *rand.Rand) int {
	return 70 + rng.Intn(30)
}

func extractScore(body string) (int, bool) {
	m := labeledScore.FindStringSubmatch(body)
	if m == nil {
		m = bareScore.FindStringSubmatch(body)
	}
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func cleanDescription(body string) string {
	s := labeledScore.ReplaceAllString(body, "")
	s = bareScore.ReplaceAllString(s, "")
	s = emptyParens.ReplaceAllString(s, "")
	s = bulletPrefix.ReplaceAllString(s, "")
	s = markdownMark.ReplaceAllString(s, "")
	s = spaceRun.ReplaceAllString(s, " ")
	s = punctRun.ReplaceAllString(s, "$1")
	s = strings.TrimLeft(s, " .,;:")
	return strings.Trim(s, " :-–—*\"'")
}

func defaultDescription(title model.SectionTitle, in SynthesisInput) string {
	if title == model.SectionPalm {
		return palmDescription(in, 0)
	}
	return model.DefaultSectionDescription(title)
}

func palmDescription(in SynthesisInput, seed int64) string {
	if !in.ImageValidated {
		if side, ok := PalmSide(in.Gender); ok {
			return fmt.Sprintf("Palm reading requires a clear image of your %s palm. Upload a photo of your %s palm to unlock insights about your heart, head and life lines.", side, side)
		}
		return model.DefaultSectionDescription(model.SectionPalm)
	}
	side := "palm"
	if s, ok := PalmSide(in.Gender); ok {
		side = s + " palm"
	}
	return fmt.Sprintf("Your %s shows a clear heart line that curves toward the fingers, a sign of warmth in close bonds. The head line runs long and steady, and a strong mount of %s points to %s.",
		side, pick([]string{"Jupiter", "Venus", "Apollo", "Mercury"}, seed, 11),
		pick([]string{"natural leadership", "deep compassion", "creative talent", "quick insight"}, seed, 12))
}

// fallbackSections builds all nine sections locally from the seed and the
// lifestyle signals in the answers.
func fallbackSections(in SynthesisInput, seed int64, rng *rand.Rand) model.SectionMap {
	signals := detectSignals(in.Answers)

	var sections model.SectionMap
	for _, spec := range sectionSchema {
		score := spec.min + rng.Intn(spec.max-spec.min)
		for sig, w := range spec.weights {
			if signals[sig] {
				score += w
			}
		}
		score = clampScore(score)
		if spec.title == model.SectionPalm && !in.ImageValidated {
			score = 0
		}
		sections.Set(model.ReportSection{
			Title:       spec.title,
			Description: describe(spec.title, in, seed, signals),
			Score:       score,
		})
	}
	return sections
}

func describe(title model.SectionTitle, in SynthesisInput, seed int64, signals map[signal]bool) string {
	switch title {
	case model.SectionNumerology:
		n, ok := lifePathNumber(in.Answers)
		if !ok {
			return model.DefaultSectionDescription(title)
		}
		return fmt.Sprintf("Your Life Path Number is %d. %s", n, lifePathMeaning(n))
	case model.SectionArchetype:
		return fmt.Sprintf("Your dominant archetype is %s. Your answers show %s, and this archetype thrives when you trust your inner guidance.",
			pick(archetypes, seed, 1), choose(signals[signalPurpose], "a clear sense of purpose", "a search for deeper purpose"))
	case model.SectionFrequency:
		return fmt.Sprintf("Your energy resonates closest to %s. %s %s",
			pick(frequencies, seed, 2),
			choose(signals[signalStress], "Stress is pulling your vibration down, so short daily breaks will help.", "Your baseline energy is steady."),
			choose(signals[signalGoodSleep], "Restful sleep is keeping your frequency high.", "More consistent rest will lift it further."))
	case model.SectionAuraChakra:
		return fmt.Sprintf("Your aura carries a %s glow. The %s chakra appears the most open, while the %s chakra asks for attention. Working with %s can support balance.",
			pick(auraColors, seed, 3), pick(chakras, seed, 4), pick(chakras, seed, 5), pick(crystals, seed, 6))
	case model.SectionRelationship:
		return choose(signals[signalSupport],
			"You feel supported by the people around you. Your bonds resonate with trust, and sharing your needs openly keeps that resonance strong.",
			"Your relationships have room to grow deeper. Reaching out to the people you value and expressing your needs will strengthen your connections.")
	case model.SectionMental:
		return fmt.Sprintf("%s %s",
			choose(signals[signalStress], "Your answers point to a heavy stress load that is affecting your emotional balance.", "Your emotional state appears balanced and resilient."),
			choose(signals[signalMeditation], "Your meditation practice is a real anchor, keep it consistent.", "A few minutes of daily breathwork or meditation would support your clarity."))
	case model.SectionSpiritual:
		return fmt.Sprintf("%s Carrying %s can help you stay centered.",
			choose(signals[signalMeditation] || signals[signalPurpose],
				"Your spiritual practice and sense of purpose are well aligned with your daily life.",
				"You are at the start of a spiritual opening. Small rituals of stillness will help your values and actions align."),
			pick(crystals, seed, 7))
	case model.SectionPalm:
		return palmDescription(in, seed)
	case model.SectionHealth:
		return fmt.Sprintf("%s %s %s",
			choose(signals[signalExercise], "Regular movement is a strong foundation for your vitality.", "Adding regular movement, even daily walks, would lift your vitality."),
			choose(signals[signalPoorSleep], "Improving sleep quality should be your first priority.", "Your sleep pattern supports recovery."),
			choose(signals[signalSubstances], "Reducing smoking or alcohol would bring a noticeable gain in energy.", "Keep up your hydration and balanced meals."))
	}
	return model.DefaultSectionDescription(title)
}

func choose(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}

func lifePathMeaning(n int) string {
	switch n {
	case 1:
		return "You are a natural pioneer with strong independence and drive."
	case 2:
		return "You are a peacemaker who brings harmony and sensitivity to every bond."
	case 3:
		return "You are a creative communicator with a joyful, expressive spirit."
	case 4:
		return "You build steady foundations through discipline and loyalty."
	case 5:
		return "You thrive on freedom, change and new experiences."
	case 6:
		return "You are a nurturer devoted to family, care and responsibility."
	case 7:
		return "You are a seeker of truth with deep intuition and inner wisdom."
	case 8:
		return "You carry strong ambition and a gift for material mastery."
	case 9:
		return "You are a compassionate humanitarian with a generous heart."
	case 11:
		return "Master number 11 marks you as an intuitive guide and source of inspiration."
	case 22:
		return "Master number 22 marks you as a master builder who turns vision into form."
	case 33:
		return "Master number 33 marks you as a master teacher of compassion."
	}
	return "Your numbers point to a path of steady growth."
}
