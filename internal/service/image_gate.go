package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"eternal/internal/model"
)

var (
	ErrNotAwaitingImage = errors.New("conversation is not waiting for a palm image")
	ErrEmptyImage       = errors.New("image is empty")
)

// tipsThreshold is the number of earlier rejections after which the photo
// tips are appended to the rejection message.
const tipsThreshold = 2

const photoTips = `

Tips for a good palm photo:
- Use bright, even lighting, natural daylight works best
- Hold the camera directly above your open palm
- Spread your fingers slightly and keep the whole hand in frame
- Keep the camera steady so the lines are sharp`

// ImageValidationGate classifies uploaded palm photos and decides whether
// the interview can move on to the report.
type ImageValidationGate struct {
	classifier  ImageClassifier
	blobs       BlobStore
	instruction string
	now         func() time.Time
}

// NewImageValidationGate creates a gate; blobs may be nil
func NewImageValidationGate(classifier ImageClassifier, blobs BlobStore, instruction string) *ImageValidationGate {
	return &ImageValidationGate{
		classifier:  classifier,
		blobs:       blobs,
		instruction: instruction,
		now:         time.Now,
	}
}

// Validate runs one upload through the classifier and applies the result to state
func (g *ImageValidationGate) Validate(ctx context.Context, state *model.ConversationState, image []byte, contentType string) (*model.ValidationResult, error) {
	if !state.ReadyForImage() {
		return nil, ErrNotAwaitingImage
	}
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}

	outcome := model.OutcomeCapabilityError
	reply, err := g.classifier.Classify(ctx, image, contentType, g.instruction)
	if err != nil {
		log.Printf("[ImageGate] Classification failed for %s: %v", state.OwnerID, err)
	} else {
		outcome = model.ParseValidationToken(reply)
	}

	if outcome == model.OutcomeValid {
		return g.accept(ctx, state, image, contentType), nil
	}
	return g.reject(state, outcome), nil
}

func (g *ImageValidationGate) accept(ctx context.Context, state *model.ConversationState, image []byte, contentType string) *model.ValidationResult {
	imageURL := ""
	if g.blobs != nil {
		url, err := g.blobs.Store(ctx, state.OwnerID, image, contentType)
		if err != nil {
			log.Printf("[ImageGate] Failed to store palm image for %s: %v", state.OwnerID, err)
		} else {
			imageURL = url
		}
	}

	sideLabel := "palm"
	if side, ok := PalmSide(state.DerivedGender); ok {
		sideLabel = side + " palm"
	}

	now := g.now()
	state.Messages = append(state.Messages, model.Message{
		ID:        uuid.NewString(),
		Role:      model.RoleUser,
		Content:   fmt.Sprintf("Palm image uploaded (%s)", sideLabel),
		Timestamp: now,
		ImageRef:  imageURL,
	})
	confirmation := model.Message{
		ID:   uuid.NewString(),
		Role: model.RoleAssistant,
		Content: fmt.Sprintf("Perfect! I can see your %s clearly. The lines and mounts are well-defined for an accurate reading. "+
			"I now have everything I need to generate your comprehensive spiritual wellness report including detailed palmistry insights. "+
			"Would you like me to create your personalized report now?", sideLabel),
		Timestamp: now,
	}
	state.Messages = append(state.Messages, confirmation)

	state.ImageValidated = true
	state.ImageURL = imageURL
	state.ValidationAttempts = 0
	state.AwaitingImage = false
	state.IntakeComplete = true
	state.Phase = model.PhaseReadyToGenerate
	state.UpdatedAt = now

	return &model.ValidationResult{
		Outcome:  model.OutcomeValid,
		Accepted: true,
		Attempts: 0,
		Message:  confirmation,
		ImageURL: imageURL,
	}
}

func (g *ImageValidationGate) reject(state *model.ConversationState, outcome model.ValidationOutcome) *model.ValidationResult {
	previous := state.ValidationAttempts
	state.ValidationAttempts++

	problem, suggestion := remediation(outcome)
	content := fmt.Sprintf("%s\n\n%s\n\nRemember: I need your **%s** for an accurate traditional palmistry reading.",
		problem, suggestion, palmSideHint(state.DerivedGender))
	if previous >= tipsThreshold {
		content += photoTips
	}

	now := g.now()
	msg := model.Message{
		ID:        uuid.NewString(),
		Role:      model.RoleAssistant,
		Content:   content,
		Timestamp: now,
	}
	state.Messages = append(state.Messages, msg)
	state.UpdatedAt = now

	return &model.ValidationResult{
		Outcome:  outcome,
		Accepted: false,
		Attempts: state.ValidationAttempts,
		Message:  msg,
	}
}

// remediation explains a rejected upload and what to do about it
func remediation(outcome model.ValidationOutcome) (problem, suggestion string) {
	switch outcome {
	case model.OutcomeSubjectAbsent:
		return "This doesn't appear to be a palm image.",
			"Please upload a clear photo of your open palm facing the camera."
	case model.OutcomeUnclear:
		return "The image is too blurry or dark to read the palm lines.",
			"Please take the photo in good lighting and hold the camera steady."
	case model.OutcomeWrongOrientation:
		return "It looks like this shows the back of your hand.",
			"Please turn your hand over so the palm faces the camera."
	case model.OutcomePartialSubject:
		return "Only part of your palm is visible.",
			"Please make sure your entire palm and fingers are in the frame."
	case model.OutcomeCapabilityError:
		return "I couldn't analyze your image right now.",
			"Please try uploading it again in a moment."
	case model.OutcomeValid:
		return "", ""
	}
	return "I couldn't verify this image.", "Please upload a clear photo of your palm."
}
