package model

import "time"

// Gender is derived from the user's answers and decides which palm to photograph
type Gender string

const (
	GenderUnknown Gender = "unknown"
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
)

// Phase is the interview state machine position
type Phase string

const (
	PhaseIntake          Phase = "intake"
	PhaseAwaitingImage   Phase = "awaiting_image"
	PhaseReadyToGenerate Phase = "ready_to_generate"
	PhaseGenerating      Phase = "generating"
	PhaseDone            Phase = "done"
)

// ConversationState is the whole interview for one owner.
// Only the conversation engine and the image gate mutate it.
type ConversationState struct {
	OwnerID            string    `json:"ownerId" bson:"ownerId"`
	Messages           []Message `json:"messages" bson:"messages"`
	SystemPrompt       string    `json:"-" bson:"systemPrompt"`
	DerivedGender      Gender    `json:"derivedGender" bson:"derivedGender"`
	IntakeComplete     bool      `json:"intakeComplete" bson:"intakeComplete"`
	AwaitingImage      bool      `json:"awaitingImage" bson:"awaitingImage"`
	ImageValidated     bool      `json:"imageValidated" bson:"imageValidated"`
	ValidationAttempts int       `json:"validationAttempts" bson:"validationAttempts"`
	Phase              Phase     `json:"phase" bson:"phase"`
	HasExistingReport  bool      `json:"hasExistingReport" bson:"hasExistingReport"`
	ImageURL           string    `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	CreatedAt          time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt" bson:"updatedAt"`
}

// UserAnswers returns the content of every user message in order
func (s *ConversationState) UserAnswers() []string {
	answers := make([]string, 0, len(s.Messages))
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			answers = append(answers, m.Content)
		}
	}
	return answers
}

// LastMessage returns the most recent message, or nil for an empty transcript
func (s *ConversationState) LastMessage() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return &s.Messages[len(s.Messages)-1]
}

// ReadyForImage reports whether the upload control should be shown
func (s *ConversationState) ReadyForImage() bool {
	return s.Phase == PhaseAwaitingImage
}

// ReadyForReport reports whether report generation may be triggered
func (s *ConversationState) ReadyForReport() bool {
	return s.Phase == PhaseReadyToGenerate
}
