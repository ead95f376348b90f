package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"eternal/internal/config"
	"eternal/internal/model"
)

var (
	ErrEmptyMessage       = errors.New("message is empty")
	ErrNotReadyToGenerate = errors.New("conversation is not ready to generate a report")
)

// TurnResult describes what one user message did to the conversation
type TurnResult struct {
	Appended     []model.Message `json:"appended"`
	ShowReport   bool            `json:"showReport"`
	PhaseChanged bool            `json:"phaseChanged"`
	// Retake is set when the user asked for a fresh assessment; the previous
	// report is no longer theirs to view.
	Retake bool `json:"retake"`
	// Reset is set when the transcript was replaced rather than appended to
	Reset bool `json:"-"`
}

// ConversationEngine drives the interview state machine:
// intake -> awaiting_image -> ready_to_generate -> generating -> done.
type ConversationEngine struct {
	generator   TextGenerator
	synthesizer *ReportSynthesizer
	reports     ReportStore
	prompts     *config.Prompts
	now         func() time.Time
}

// NewConversationEngine creates the engine
func NewConversationEngine(generator TextGenerator, synthesizer *ReportSynthesizer, reports ReportStore, prompts *config.Prompts) *ConversationEngine {
	if prompts == nil {
		prompts = config.DefaultPrompts()
	}
	return &ConversationEngine{
		generator:   generator,
		synthesizer: synthesizer,
		reports:     reports,
		prompts:     prompts,
		now:         time.Now,
	}
}

// Start opens a fresh interview with the welcome message
func (e *ConversationEngine) Start(ownerID string, hasExistingReport bool) *model.ConversationState {
	now := e.now()
	welcome := e.prompts.Welcome
	if hasExistingReport {
		welcome = e.prompts.WelcomeReturn
	}
	return &model.ConversationState{
		OwnerID:           ownerID,
		Messages:          []model.Message{e.message(model.RoleAssistant, welcome, now)},
		SystemPrompt:      e.prompts.SystemPrompt,
		DerivedGender:     model.GenderUnknown,
		Phase:             model.PhaseIntake,
		HasExistingReport: hasExistingReport,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Retake discards the conversation and starts over
func (e *ConversationEngine) Retake(ownerID string) *model.ConversationState {
	return e.Start(ownerID, false)
}

// SubmitUserMessage handles one user turn
func (e *ConversationEngine) SubmitUserMessage(ctx context.Context, state *model.ConversationState, text string) (*TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	if state.HasExistingReport {
		if WantsExistingReport(text) {
			return &TurnResult{ShowReport: true}, nil
		}
		if WantsRetake(text) {
			return e.retakeInChat(state, text), nil
		}
	}

	now := e.now()
	user := e.message(model.RoleUser, text, now)
	state.Messages = append(state.Messages, user)
	if state.DerivedGender == "" || state.DerivedGender == model.GenderUnknown {
		state.DerivedGender = DeriveGender(text)
	}

	result := &TurnResult{Appended: []model.Message{user}}

	reply, err := e.generator.Generate(ctx, e.systemPrompt(state), state.Messages)
	if err != nil || strings.TrimSpace(reply) == "" {
		if err != nil {
			log.Printf("[Conversation] Text generation failed for %s: %v", state.OwnerID, err)
		}
		apology := e.message(model.RoleAssistant, e.prompts.Apology, e.now())
		state.Messages = append(state.Messages, apology)
		state.UpdatedAt = apology.Timestamp
		result.Appended = append(result.Appended, apology)
		return result, nil
	}

	assistant := e.message(model.RoleAssistant, reply, e.now())
	state.Messages = append(state.Messages, assistant)
	state.UpdatedAt = assistant.Timestamp
	result.Appended = append(result.Appended, assistant)

	before := state.Phase
	applyReplyTriggers(state, reply)
	result.PhaseChanged = state.Phase != before
	return result, nil
}

// retakeInChat starts the assessment over from the chat box. A finished or
// half-finished interview is replaced by a fresh one.
func (e *ConversationEngine) retakeInChat(state *model.ConversationState, text string) *TurnResult {
	result := &TurnResult{Retake: true}
	if state.Phase != model.PhaseIntake {
		*state = *e.Start(state.OwnerID, false)
		result.Reset = true
		result.PhaseChanged = true
	}

	now := e.now()
	state.HasExistingReport = false
	user := e.message(model.RoleUser, text, now)
	ack := e.message(model.RoleAssistant, e.prompts.RetakeAck, now)
	state.Messages = append(state.Messages, user, ack)
	state.UpdatedAt = now
	result.Appended = []model.Message{user, ack}
	return result
}

// applyReplyTriggers moves the state machine based on what the assistant said
func applyReplyTriggers(state *model.ConversationState, reply string) {
	if state.Phase == model.PhaseIntake && RequestsImage(reply) {
		state.AwaitingImage = true
		state.ValidationAttempts = 0
		state.Phase = model.PhaseAwaitingImage
	}
	if OffersReport(reply) {
		state.IntakeComplete = true
		// only reachable without an image request; the gate decides otherwise
		if state.Phase == model.PhaseIntake {
			state.Phase = model.PhaseReadyToGenerate
		}
	}
}

// GenerateReport synthesizes, stores and returns the report
func (e *ConversationEngine) GenerateReport(ctx context.Context, state *model.ConversationState) (*model.Report, error) {
	if !state.ReadyForReport() {
		return nil, ErrNotReadyToGenerate
	}
	state.Phase = model.PhaseGenerating

	report := e.synthesizer.Synthesize(ctx, SynthesisInput{
		OwnerID:        state.OwnerID,
		Answers:        state.UserAnswers(),
		ImageValidated: state.ImageValidated,
		Gender:         state.DerivedGender,
		ImageURL:       state.ImageURL,
	})

	state.Phase = model.PhaseDone
	state.HasExistingReport = true
	state.UpdatedAt = e.now()

	if e.reports != nil {
		if err := e.reports.Save(ctx, report); err != nil {
			log.Printf("[Conversation] Failed to save report for %s: %v", state.OwnerID, err)
		}
	}
	return report, nil
}

func (e *ConversationEngine) systemPrompt(state *model.ConversationState) string {
	if state.SystemPrompt != "" {
		return state.SystemPrompt
	}
	return e.prompts.SystemPrompt
}

func (e *ConversationEngine) message(role model.Role, content string, at time.Time) model.Message {
	return model.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: at,
	}
}
