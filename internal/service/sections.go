package service

import (
	"regexp"
	"strconv"
	"strings"

	"eternal/internal/model"
)

// signal is a lifestyle trait detected in the answers
type signal int

const (
	signalMeditation signal = iota
	signalStress
	signalExercise
	signalGoodSleep
	signalPoorSleep
	signalSupport
	signalSubstances
	signalPurpose
)

// signalRule lists the phrases that raise a signal. The last word of a
// phrase matches as a prefix so "meditat" covers meditate and meditation.
type signalRule struct {
	phrases  []string
	negators []string
}

var commonNegators = []string{"no", "not", "never", "don't", "dont", "didn't", "rarely", "without"}

var signalRules = map[signal]signalRule{
	signalMeditation: {phrases: []string{"meditat", "yoga", "pray", "breathwork", "mindful"}},
	signalStress: {
		phrases:  []string{"stress", "anxi", "overwhelm", "burnout", "tense"},
		negators: []string{"low", "little", "minimal", "less"},
	},
	signalExercise:  {phrases: []string{"exercis", "gym", "workout", "walk", "run", "jog", "swim", "cycling", "bike", "sport", "hik"}},
	signalGoodSleep: {phrases: []string{"sleep well", "deep sleep", "good sleep", "sleep deeply", "restful", "sound sleep"}},
	signalPoorSleep: {phrases: []string{"insomnia", "poor sleep", "bad sleep", "trouble sleeping", "restless", "wake up often", "irregular sleep"}},
	signalSupport:   {phrases: []string{"support", "loving", "loved", "close friends", "family"}},
	signalSubstances: {
		phrases: []string{"smok", "cigarette", "alcohol", "drink alcohol", "vape"},
	},
	signalPurpose: {phrases: []string{"purpose", "connected", "fulfil", "aligned", "meaning"}},
}

var wordPattern = regexp.MustCompile(`[a-z0-9']+`)

// detectSignals tokenizes the answers and checks each signal phrase, skipping
// occurrences preceded within two words by a negator ("I don't smoke").
func detectSignals(answers []string) map[signal]bool {
	found := make(map[signal]bool)
	for _, answer := range answers {
		words := wordPattern.FindAllString(strings.ToLower(answer), -1)
		for sig, rule := range signalRules {
			if found[sig] {
				continue
			}
			for _, phrase := range rule.phrases {
				if matchPhrase(words, strings.Fields(phrase), rule.negators) {
					found[sig] = true
					break
				}
			}
		}
	}
	return found
}

func matchPhrase(words, phrase, extraNegators []string) bool {
	for i := 0; i+len(phrase) <= len(words); i++ {
		ok := true
		for j, p := range phrase {
			w := words[i+j]
			if j == len(phrase)-1 {
				ok = strings.HasPrefix(w, p)
			} else {
				ok = w == p
			}
			if !ok {
				break
			}
		}
		if ok && !negated(words, i, extraNegators) {
			return true
		}
	}
	return false
}

func negated(words []string, at int, extra []string) bool {
	for k := at - 1; k >= 0 && k >= at-2; k-- {
		for _, n := range commonNegators {
			if words[k] == n {
				return true
			}
		}
		for _, n := range extra {
			if words[k] == n {
				return true
			}
		}
	}
	return false
}

// sectionSpec is the per-section scoring and matching table
type sectionSpec struct {
	title   model.SectionTitle
	aliases []string // alternate headings the generator is known to use
	min     int
	max     int // exclusive
	weights map[signal]int
}

var sectionSchema = []sectionSpec{
	{
		title:   model.SectionNumerology,
		aliases: []string{"NUMEROLOGY PROFILE", "NUMEROLOGY"},
		min:     75, max: 95,
	},
	{
		title:   model.SectionArchetype,
		aliases: []string{"ARCHETYPE PROFILE"},
		min:     72, max: 92,
		weights: map[signal]int{signalMeditation: 4, signalPurpose: 3},
	},
	{
		title:   model.SectionFrequency,
		aliases: []string{"VIBRATIONAL FREQUENCY"},
		min:     65, max: 90,
		weights: map[signal]int{signalMeditation: 5, signalStress: -6, signalGoodSleep: 4, signalPoorSleep: -4},
	},
	{
		title:   model.SectionAuraChakra,
		aliases: []string{"AURA AND CHAKRA ANALYSIS", "AURA AND CHAKRA"},
		min:     68, max: 92,
		weights: map[signal]int{signalMeditation: 4, signalStress: -5, signalSubstances: -4},
	},
	{
		title:   model.SectionRelationship,
		aliases: []string{"RELATIONSHIP RESONANCE"},
		min:     60, max: 90,
		weights: map[signal]int{signalSupport: 8, signalStress: -3},
	},
	{
		title:   model.SectionMental,
		aliases: []string{"MENTAL AND EMOTIONAL HEALTH", "MENTAL EMOTIONAL WELLBEING"},
		min:     55, max: 88,
		weights: map[signal]int{signalStress: -10, signalMeditation: 6, signalGoodSleep: 5, signalPoorSleep: -5, signalExercise: 3},
	},
	{
		title:   model.SectionSpiritual,
		aliases: []string{"SPIRITUAL ALIGNMENT"},
		min:     70, max: 96,
		weights: map[signal]int{signalMeditation: 8, signalPurpose: 6},
	},
	{
		title:   model.SectionPalm,
		aliases: []string{"PALM READING ANALYSIS", "PALM READING"},
		min:     78, max: 95,
	},
	{
		title:   model.SectionHealth,
		aliases: []string{"HEALTH INSIGHT"},
		min:     58, max: 90,
		weights: map[signal]int{signalExercise: 7, signalGoodSleep: 5, signalPoorSleep: -6, signalSubstances: -8},
	},
}

// Pools the fallback descriptions are drawn from
var (
	auraColors  = []string{"violet", "indigo", "emerald green", "golden yellow", "sky blue", "rose pink", "silver white"}
	frequencies = []string{"432 Hz", "528 Hz", "639 Hz", "741 Hz", "852 Hz", "963 Hz"}
	archetypes  = []string{"The Sage", "The Healer", "The Visionary", "The Guardian", "The Creator", "The Seeker", "The Mystic"}
	crystals    = []string{"amethyst", "rose quartz", "clear quartz", "citrine", "black tourmaline", "lapis lazuli", "moonstone"}
	chakras     = []string{"root", "sacral", "solar plexus", "heart", "throat", "third eye", "crown"}
)

func pick(pool []string, seed int64, salt int) string {
	return pool[(int(seed)+salt*7919)%len(pool)]
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4}|\d{2})\b`),
	regexp.MustCompile(`\b(\d{4})[/.\-](\d{1,2})[/.\-](\d{1,2})\b`),
}

// lifePathNumber reduces the digits of the first date found in the answers,
// keeping the master numbers 11, 22 and 33.
func lifePathNumber(answers []string) (int, bool) {
	for _, answer := range answers {
		for _, re := range datePatterns {
			m := re.FindStringSubmatch(answer)
			if m == nil {
				continue
			}
			sum := 0
			for _, part := range m[1:] {
				for _, d := range part {
					sum += int(d - '0')
				}
			}
			return reduceDigits(sum), true
		}
	}
	return 0, false
}

func reduceDigits(n int) int {
	for n > 9 && n != 11 && n != 22 && n != 33 {
		s := 0
		for _, d := range strconv.Itoa(n) {
			s += int(d - '0')
		}
		n = s
	}
	return n
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
