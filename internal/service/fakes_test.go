package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"eternal/internal/model"
)

var errUnavailable = errors.New("capability unavailable")

// frozen is the fixed clock used across tests
var frozen = time.Date(2026, 3, 24, 10, 0, 0, 0, time.UTC)

func frozenNow() time.Time { return frozen }

type fakeGenerator struct {
	replies    []string
	err        error
	reportText string
	reportErr  error

	calls       int
	reportCalls int
	lastPrompt  string
	lastHistory []model.Message
}

func (f *fakeGenerator) Generate(ctx context.Context, systemPrompt string, history []model.Message) (string, error) {
	f.calls++
	f.lastPrompt = systemPrompt
	f.lastHistory = append([]model.Message(nil), history...)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "Thank you. What is your date of birth?", nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func (f *fakeGenerator) SynthesizeReport(ctx context.Context, answers []string, imageValidated bool, gender model.Gender) (string, error) {
	f.reportCalls++
	if f.reportErr != nil {
		return "", f.reportErr
	}
	return f.reportText, nil
}

type fakeClassifier struct {
	reply string
	err   error
	calls int
}

func (f *fakeClassifier) Classify(ctx context.Context, image []byte, contentType, instruction string) (string, error) {
	f.calls++
	return f.reply, f.err
}

type fakeBlobs struct {
	url   string
	err   error
	calls int
}

func (f *fakeBlobs) Store(ctx context.Context, ownerID string, data []byte, contentType string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

type fakeReports struct {
	saved     []*model.Report
	saveErr   error
	stored    map[string]*model.Report
	deleted   []string
	deleteErr error
}

func (f *fakeReports) Save(ctx context.Context, report *model.Report) error {
	f.saved = append(f.saved, report)
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.stored == nil {
		f.stored = make(map[string]*model.Report)
	}
	f.stored[report.OwnerID] = report
	return nil
}

func (f *fakeReports) Load(ctx context.Context, ownerID string) (*model.Report, error) {
	return f.stored[ownerID], nil
}

func (f *fakeReports) Delete(ctx context.Context, ownerID string) error {
	f.deleted = append(f.deleted, ownerID)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.stored, ownerID)
	return nil
}

// memoryConversations stands in for the Redis conversation cache
type memoryConversations struct {
	mu      sync.Mutex
	states  map[string]*model.ConversationState
	deletes int
}

func newMemoryConversations() *memoryConversations {
	return &memoryConversations{states: make(map[string]*model.ConversationState)}
}

func (m *memoryConversations) Set(ctx context.Context, state *model.ConversationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *state
	cp.Messages = append([]model.Message(nil), state.Messages...)
	m.states[state.OwnerID] = &cp
	return nil
}

func (m *memoryConversations) Get(ctx context.Context, ownerID string) (*model.ConversationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[ownerID]
	if !ok {
		return nil, nil
	}
	cp := *s
	cp.Messages = append([]model.Message(nil), s.Messages...)
	return &cp, nil
}

func (m *memoryConversations) Delete(ctx context.Context, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	delete(m.states, ownerID)
	return nil
}

// Save and GetByOwner let the same store act as the Mongo archive
func (m *memoryConversations) Save(ctx context.Context, state *model.ConversationState) error {
	return m.Set(ctx, state)
}

func (m *memoryConversations) GetByOwner(ctx context.Context, ownerID string) (*model.ConversationState, error) {
	return m.Get(ctx, ownerID)
}

type sentEvent struct {
	userID  string
	msgType string
	payload interface{}
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []sentEvent
}

func (b *recordingBroadcaster) SendToUser(userID string, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, sentEvent{userID, msgType, payload})
}

func (b *recordingBroadcaster) count(msgType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.msgType == msgType {
			n++
		}
	}
	return n
}
