package service

import (
	"regexp"
	"strings"

	"eternal/internal/model"
)

// The predicates below are the contract between the interviewer prompt and
// the state machine: phase changes happen only when the generated reply
// contains these words. They are plain substring checks, case-insensitive,
// and must stay that loose because the reply is free text.

// RequestsImage reports whether an assistant reply asks for the palm upload
func RequestsImage(reply string) bool {
	r := strings.ToLower(reply)
	return strings.Contains(r, "palm") &&
		(strings.Contains(r, "upload") || strings.Contains(r, "image"))
}

// OffersReport reports whether an assistant reply offers to generate the report
func OffersReport(reply string) bool {
	r := strings.ToLower(reply)
	return strings.Contains(r, "generate") &&
		strings.Contains(r, "report") &&
		strings.Contains(r, "would you like")
}

// WantsExistingReport detects the "show me my report" command
func WantsExistingReport(text string) bool {
	return containsAny(strings.ToLower(text), "view", "existing", "see")
}

// WantsRetake detects the "start over" command
func WantsRetake(text string) bool {
	return containsAny(strings.ToLower(text), "retake", "new", "fresh")
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

var (
	femaleWords = regexp.MustCompile(`(?i)\b(female|woman|girl|lady)\b`)
	maleWords   = regexp.MustCompile(`(?i)\b(male|man|boy|gentleman)\b`)
)

// DeriveGender scans one message for gendered keywords.
// Female words are checked first; whole-word matching keeps "woman" and
// "female" from reading as male.
func DeriveGender(text string) model.Gender {
	switch {
	case femaleWords.MatchString(text):
		return model.GenderFemale
	case maleWords.MatchString(text):
		return model.GenderMale
	}
	return model.GenderUnknown
}

// DeriveGenderFromAnswers returns the first gender found in answer order
func DeriveGenderFromAnswers(answers []string) model.Gender {
	for _, a := range answers {
		if g := DeriveGender(a); g != model.GenderUnknown {
			return g
		}
	}
	return model.GenderUnknown
}

// palmSideByGender is the traditional-palmistry convention used throughout
// the interview: men show the left palm, women the right.
var palmSideByGender = map[model.Gender]string{
	model.GenderMale:   "left",
	model.GenderFemale: "right",
}

// PalmSide returns the palm to photograph; ok is false for unknown gender
func PalmSide(g model.Gender) (side string, ok bool) {
	side, ok = palmSideByGender[g]
	return side, ok
}

// palmSideHint names the side for a message, e.g. "left palm" or the generic rule
func palmSideHint(g model.Gender) string {
	if side, ok := PalmSide(g); ok {
		return side + " palm"
	}
	return "correct palm (left for males, right for females)"
}
