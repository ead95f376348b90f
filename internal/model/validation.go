package model

import (
	"fmt"
	"strings"
)

// ValidationOutcome is the closed set of palm image classification results
type ValidationOutcome int

const (
	OutcomeSubjectAbsent ValidationOutcome = iota // zero value is the conservative rejection
	OutcomeValid
	OutcomeUnclear
	OutcomeWrongOrientation
	OutcomePartialSubject
	OutcomeCapabilityError
)

// Tokens the classifier is instructed to answer with
const (
	TokenValidPalm   = "VALID_PALM"
	TokenNotPalm     = "NOT_PALM"
	TokenUnclearPalm = "UNCLEAR_PALM"
	TokenWrongSide   = "WRONG_SIDE"
	TokenPartialHand = "PARTIAL_HAND"
)

var outcomeByToken = map[string]ValidationOutcome{
	TokenValidPalm:   OutcomeValid,
	TokenNotPalm:     OutcomeSubjectAbsent,
	TokenUnclearPalm: OutcomeUnclear,
	TokenWrongSide:   OutcomeWrongOrientation,
	TokenPartialHand: OutcomePartialSubject,
}

// ParseValidationToken maps a classifier reply to an outcome.
// Anything that is not exactly one known token becomes OutcomeSubjectAbsent.
func ParseValidationToken(reply string) ValidationOutcome {
	token := strings.ToUpper(strings.Trim(strings.TrimSpace(reply), "\"'`.* "))
	if outcome, ok := outcomeByToken[token]; ok {
		return outcome
	}
	return OutcomeSubjectAbsent
}

// String returns the wire name of the outcome
func (o ValidationOutcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeSubjectAbsent:
		return "subject_absent"
	case OutcomeUnclear:
		return "unclear"
	case OutcomeWrongOrientation:
		return "wrong_orientation"
	case OutcomePartialSubject:
		return "partial_subject"
	case OutcomeCapabilityError:
		return "capability_error"
	}
	return "unknown"
}

// MarshalText lets outcomes travel as strings in JSON
func (o ValidationOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText accepts the names written by MarshalText
func (o *ValidationOutcome) UnmarshalText(text []byte) error {
	for v := OutcomeSubjectAbsent; v <= OutcomeCapabilityError; v++ {
		if v.String() == string(text) {
			*o = v
			return nil
		}
	}
	return fmt.Errorf("unknown validation outcome %q", text)
}

// ValidationResult is returned to the caller after an upload
type ValidationResult struct {
	Outcome  ValidationOutcome `json:"outcome"`
	Accepted bool              `json:"accepted"`
	Attempts int               `json:"attempts"`
	Message  Message           `json:"message"`
	ImageURL string            `json:"imageUrl,omitempty"`
}
