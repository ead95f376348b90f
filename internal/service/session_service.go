package service

import (
	"context"
	"errors"
	"log"
	"sync"

	"eternal/internal/cache"
	"eternal/internal/model"
	"eternal/internal/repository"
)

var (
	ErrNoConversation = errors.New("no conversation started")
	ErrReportNotFound = errors.New("report not found")
)

// SessionService loads and saves interview state around each event.
// Events for one owner run one at a time, so each sees the previous one complete.
type SessionService struct {
	engine      *ConversationEngine
	gate        *ImageValidationGate
	sessions    cache.ConversationCache
	archive     repository.ConversationRepo
	reports     ReportStore
	broadcaster Broadcaster
	locks       *ownerLocks
}

// NewSessionService creates the service; archive may be nil
func NewSessionService(engine *ConversationEngine, gate *ImageValidationGate, sessions cache.ConversationCache, archive repository.ConversationRepo, reports ReportStore) *SessionService {
	return &SessionService{
		engine:   engine,
		gate:     gate,
		sessions: sessions,
		archive:  archive,
		reports:  reports,
		locks:    newOwnerLocks(),
	}
}

// SetBroadcaster sets the WebSocket broadcaster
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Start resumes an unfinished interview or opens a new one
func (s *SessionService) Start(ctx context.Context, ownerID string) (*model.ConversationState, error) {
	unlock := s.locks.lock(ownerID)
	defer unlock()

	state, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if state != nil && state.Phase != model.PhaseDone {
		return state, nil
	}

	hasReport := false
	report, err := s.reports.Load(ctx, ownerID)
	if err != nil {
		log.Printf("[Session] Failed to check existing report for %s: %v", ownerID, err)
	} else {
		hasReport = report != nil
	}

	state = s.engine.Start(ownerID, hasReport)
	if err := s.save(ctx, state); err != nil {
		return nil, err
	}
	s.broadcastMessages(state, 0)
	return state, nil
}

// Get returns the current state
func (s *SessionService) Get(ctx context.Context, ownerID string) (*model.ConversationState, error) {
	state, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrNoConversation
	}
	return state, nil
}

// SendMessage runs one user turn
func (s *SessionService) SendMessage(ctx context.Context, ownerID, text string) (*model.ConversationState, *TurnResult, error) {
	unlock := s.locks.lock(ownerID)
	defer unlock()

	state, err := s.mustLoad(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}

	before, phase := len(state.Messages), state.Phase
	result, err := s.engine.SubmitUserMessage(ctx, state, text)
	if err != nil {
		return nil, nil, err
	}
	if result.ShowReport {
		return state, result, nil
	}
	if result.Retake {
		s.discardReport(ctx, ownerID)
	}
	if result.Reset {
		before = 0
	}
	if err := s.save(ctx, state); err != nil {
		return nil, nil, err
	}
	s.broadcastMessages(state, before)
	s.broadcastPhase(state, phase)
	return state, result, nil
}

// UploadImage validates a palm photo
func (s *SessionService) UploadImage(ctx context.Context, ownerID string, data []byte, contentType string) (*model.ValidationResult, *model.ConversationState, error) {
	unlock := s.locks.lock(ownerID)
	defer unlock()

	state, err := s.mustLoad(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}

	before, phase := len(state.Messages), state.Phase
	result, err := s.gate.Validate(ctx, state, data, contentType)
	if err != nil {
		return nil, nil, err
	}
	if err := s.save(ctx, state); err != nil {
		return nil, nil, err
	}
	s.broadcastMessages(state, before)
	s.broadcastPhase(state, phase)
	return result, state, nil
}

// GenerateReport synthesizes and stores the report
func (s *SessionService) GenerateReport(ctx context.Context, ownerID string) (*model.Report, *model.ConversationState, error) {
	unlock := s.locks.lock(ownerID)
	defer unlock()

	state, err := s.mustLoad(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}

	phase := state.Phase
	report, err := s.engine.GenerateReport(ctx, state)
	if err != nil {
		return nil, nil, err
	}
	if err := s.save(ctx, state); err != nil {
		return nil, nil, err
	}
	s.broadcastPhase(state, phase)
	if s.broadcaster != nil {
		s.broadcaster.SendToUser(ownerID, EventReportReady, report)
	}
	return report, state, nil
}

// Retake throws the current interview away and starts a new one
func (s *SessionService) Retake(ctx context.Context, ownerID string) (*model.ConversationState, error) {
	unlock := s.locks.lock(ownerID)
	defer unlock()

	if err := s.sessions.Delete(ctx, ownerID); err != nil {
		log.Printf("[Session] Failed to drop cached conversation for %s: %v", ownerID, err)
	}
	if s.archive != nil {
		if err := s.archive.Delete(ctx, ownerID); err != nil {
			log.Printf("[Session] Failed to drop archived conversation for %s: %v", ownerID, err)
		}
	}
	s.discardReport(ctx, ownerID)

	state := s.engine.Retake(ownerID)
	if err := s.save(ctx, state); err != nil {
		return nil, err
	}
	s.broadcastPhase(state, "")
	s.broadcastMessages(state, 0)
	return state, nil
}

// Report returns the owner's saved report
func (s *SessionService) Report(ctx context.Context, ownerID string) (*model.Report, error) {
	report, err := s.reports.Load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, ErrReportNotFound
	}
	return report, nil
}

// discardReport removes the owner's report; a retake starts from nothing
func (s *SessionService) discardReport(ctx context.Context, ownerID string) {
	if err := s.reports.Delete(ctx, ownerID); err != nil {
		log.Printf("[Session] Failed to discard report for %s: %v", ownerID, err)
	}
}

func (s *SessionService) load(ctx context.Context, ownerID string) (*model.ConversationState, error) {
	state, err := s.sessions.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if state != nil || s.archive == nil {
		return state, nil
	}

	state, err = s.archive.GetByOwner(ctx, ownerID)
	if err != nil {
		log.Printf("[Session] Archive read failed for %s: %v", ownerID, err)
		return nil, nil
	}
	if state != nil {
		if err := s.sessions.Set(ctx, state); err != nil {
			log.Printf("[Session] Failed to re-cache conversation for %s: %v", ownerID, err)
		}
	}
	return state, nil
}

func (s *SessionService) mustLoad(ctx context.Context, ownerID string) (*model.ConversationState, error) {
	state, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrNoConversation
	}
	return state, nil
}

func (s *SessionService) save(ctx context.Context, state *model.ConversationState) error {
	if err := s.sessions.Set(ctx, state); err != nil {
		return err
	}
	if s.archive != nil {
		if err := s.archive.Save(ctx, state); err != nil {
			log.Printf("[Session] Failed to archive conversation for %s: %v", state.OwnerID, err)
		}
	}
	return nil
}

func (s *SessionService) broadcastMessages(state *model.ConversationState, from int) {
	if s.broadcaster == nil {
		return
	}
	for _, m := range state.Messages[from:] {
		s.broadcaster.SendToUser(state.OwnerID, EventMessageAppended, m)
	}
}

func (s *SessionService) broadcastPhase(state *model.ConversationState, previous model.Phase) {
	if s.broadcaster == nil || state.Phase == previous {
		return
	}
	s.broadcaster.SendToUser(state.OwnerID, EventPhaseChanged, map[string]interface{}{
		"phase":          state.Phase,
		"awaitingImage":  state.AwaitingImage,
		"imageValidated": state.ImageValidated,
		"intakeComplete": state.IntakeComplete,
	})
}

// ownerLocks is a keyed mutex; entries are dropped once nobody holds or waits on them
type ownerLocks struct {
	mu    sync.Mutex
	locks map[string]*ownerLock
}

type ownerLock struct {
	mu   sync.Mutex
	refs int
}

func newOwnerLocks() *ownerLocks {
	return &ownerLocks{locks: make(map[string]*ownerLock)}
}

func (l *ownerLocks) lock(ownerID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[ownerID]
	if !ok {
		entry = &ownerLock{}
		l.locks[ownerID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, ownerID)
		}
		l.mu.Unlock()
	}
}
