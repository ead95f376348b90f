package service

import (
	"fmt"

	"eternal/internal/model"
)

// interviewQuestions mirrors the default system prompt so the scripted
// interviewer walks the same path as the hosted model.
var interviewQuestions = []string{
	"What is your full name?",
	"What is your date of birth? (DD-MM-YYYY or YYYY-MM-DD)",
	"What is your blood group? (A+, B-, O+, AB- ...)",
	"What time were you born? (for example 03:30 PM)",
	"What is your gender? This helps me know which palm to read later.",
	"What is your current profession?",
	"What is your favorite color?",
	"What is your height? (cm or feet+inches)",
	"What is your weight? (kg or pounds)",
	"What is your usual sleep schedule like?",
	"How active are you physically?",
	"Do you drink alcohol? (Yes/No/Sometimes)",
	"Do you smoke? (Yes/No/Occasionally)",
	"How would you describe your typical daily diet?",
	"How much water do you drink per day?",
	"How would you rate your current stress levels? (Low, Medium, High)",
	"Do you feel supported by the people in your life?",
	"Do you feel connected to your life's purpose?",
}

var acknowledgements = []string{
	"Thank you for sharing.",
	"Beautiful, I've noted that.",
	"Wonderful.",
	"I appreciate your openness.",
}

// mockInterviewReply is the offline interviewer: the n-th user message gets
// the n-th question, then the palm request.
func mockInterviewReply(history []model.Message) string {
	answered := 0
	var texts []string
	for _, m := range history {
		if m.Role == model.RoleUser {
			answered++
			texts = append(texts, m.Content)
		}
	}

	if answered == 0 {
		return "Welcome! Let's begin. " + interviewQuestions[0]
	}
	if answered <= len(interviewQuestions) {
		q := interviewQuestions[answered-1]
		if answered == 1 {
			return "Let's begin your journey. " + q
		}
		return acknowledgements[answered%len(acknowledgements)] + " " + q
	}

	return fmt.Sprintf("Thank you for sharing all this sacred information. To complete your spiritual profile, I need to analyze your palm. "+
		"Please upload a clear image of your %s.", palmSideHint(DeriveGenderFromAnswers(texts)))
}
