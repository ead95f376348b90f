package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"eternal/internal/config"
	"eternal/internal/model"
)

type sessionFixture struct {
	svc         *SessionService
	gen         *fakeGenerator
	classifier  *fakeClassifier
	reports     *fakeReports
	sessions    *memoryConversations
	archive     *memoryConversations
	broadcaster *recordingBroadcaster
}

func newSessionFixture(replies ...string) *sessionFixture {
	f := &sessionFixture{
		gen:         &fakeGenerator{replies: replies, reportErr: errUnavailable},
		classifier:  &fakeClassifier{reply: "VALID_PALM"},
		reports:     &fakeReports{},
		sessions:    newMemoryConversations(),
		archive:     newMemoryConversations(),
		broadcaster: &recordingBroadcaster{},
	}
	engine := newTestEngine(f.gen, f.reports)
	gate := newTestGate(f.classifier, &fakeBlobs{url: "/v1/images/img1"})
	f.svc = NewSessionService(engine, gate, f.sessions, f.archive, f.reports)
	f.svc.SetBroadcaster(f.broadcaster)
	return f
}

func TestSessionService_FullFlow(t *testing.T) {
	f := newSessionFixture("What is your full name?", "Thank you. Please upload an image of your left palm.")
	ctx := context.Background()

	state, err := f.svc.Start(ctx, "u1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if state.Phase != model.PhaseIntake {
		t.Fatalf("phase = %s", state.Phase)
	}

	if _, _, err := f.svc.SendMessage(ctx, "u1", "ready"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	state, _, err = f.svc.SendMessage(ctx, "u1", "I am male")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if state.Phase != model.PhaseAwaitingImage {
		t.Fatalf("phase = %s", state.Phase)
	}

	res, state, err := f.svc.UploadImage(ctx, "u1", testImage, "image/jpeg")
	if err != nil || !res.Accepted {
		t.Fatalf("UploadImage = %+v, %v", res, err)
	}

	report, state, err := f.svc.GenerateReport(ctx, "u1")
	if err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	if state.Phase != model.PhaseDone || report.ImageURL != "/v1/images/img1" {
		t.Errorf("state = %s, imageURL = %q", state.Phase, report.ImageURL)
	}

	saved, err := f.svc.Report(ctx, "u1")
	if err != nil || saved != report {
		t.Errorf("Report = %v, %v", saved, err)
	}
	if f.broadcaster.count(EventReportReady) != 1 {
		t.Errorf("report_ready sent %d times", f.broadcaster.count(EventReportReady))
	}
	if f.broadcaster.count(EventPhaseChanged) != 3 {
		t.Errorf("phase_changed sent %d times, want 3", f.broadcaster.count(EventPhaseChanged))
	}
	// welcome + 2 turns of 2 + upload and confirmation
	if n := f.broadcaster.count(EventMessageAppended); n != 7 {
		t.Errorf("message_appended sent %d times, want 7", n)
	}
}

func TestSessionService_StartResumesOrRestarts(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	first, _ := f.svc.Start(ctx, "u1")
	f.svc.SendMessage(ctx, "u1", "hello")
	resumed, _ := f.svc.Start(ctx, "u1")
	if len(resumed.Messages) != len(first.Messages)+2 {
		t.Errorf("Start did not resume: %d messages", len(resumed.Messages))
	}

	f.reports.stored = map[string]*model.Report{"u2": {OwnerID: "u2"}}
	returning, _ := f.svc.Start(ctx, "u2")
	if !returning.HasExistingReport || returning.Messages[0].Content != config.DefaultPrompts().WelcomeReturn {
		t.Errorf("returning user state = %+v", returning)
	}
}

func TestSessionService_Errors(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	if _, _, err := f.svc.SendMessage(ctx, "ghost", "hi"); !errors.Is(err, ErrNoConversation) {
		t.Errorf("SendMessage err = %v", err)
	}
	if _, err := f.svc.Get(ctx, "ghost"); !errors.Is(err, ErrNoConversation) {
		t.Errorf("Get err = %v", err)
	}
	if _, err := f.svc.Report(ctx, "ghost"); !errors.Is(err, ErrReportNotFound) {
		t.Errorf("Report err = %v", err)
	}

	f.svc.Start(ctx, "u1")
	if _, _, err := f.svc.UploadImage(ctx, "u1", testImage, "image/jpeg"); !errors.Is(err, ErrNotAwaitingImage) {
		t.Errorf("UploadImage err = %v", err)
	}
	if _, _, err := f.svc.GenerateReport(ctx, "u1"); !errors.Is(err, ErrNotReadyToGenerate) {
		t.Errorf("GenerateReport err = %v", err)
	}
}

func TestSessionService_ShowReportDoesNotPersist(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	f.reports.stored = map[string]*model.Report{"u1": {OwnerID: "u1"}}

	f.svc.Start(ctx, "u1")
	state, res, err := f.svc.SendMessage(ctx, "u1", "view my existing report")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if !res.ShowReport || len(state.Messages) != 1 {
		t.Errorf("result = %+v, messages = %d", res, len(state.Messages))
	}
}

func TestSessionService_Retake(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	f.svc.Start(ctx, "u1")
	f.svc.SendMessage(ctx, "u1", "hello")
	state, err := f.svc.Retake(ctx, "u1")
	if err != nil {
		t.Fatalf("Retake: %v", err)
	}
	if len(state.Messages) != 1 || state.Phase != model.PhaseIntake || state.HasExistingReport {
		t.Errorf("state = %+v", state)
	}
	stored, _ := f.sessions.Get(ctx, "u1")
	if len(stored.Messages) != 1 {
		t.Errorf("stored messages = %d", len(stored.Messages))
	}
}

func TestSessionService_RetakeDiscardsReport(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	f.reports.stored = map[string]*model.Report{"u1": {OwnerID: "u1"}}

	f.svc.Start(ctx, "u1")
	if _, err := f.svc.Retake(ctx, "u1"); err != nil {
		t.Fatalf("Retake: %v", err)
	}
	if _, err := f.svc.Report(ctx, "u1"); !errors.Is(err, ErrReportNotFound) {
		t.Errorf("Report err = %v, want ErrReportNotFound", err)
	}
	if f.sessions.deletes != 1 || f.archive.deletes != 1 {
		t.Errorf("deletes: cache %d, archive %d", f.sessions.deletes, f.archive.deletes)
	}
	archived, _ := f.archive.GetByOwner(ctx, "u1")
	if archived == nil || len(archived.Messages) != 1 {
		t.Errorf("archive holds %+v, want the fresh interview", archived)
	}
}

func TestSessionService_RetakeSurvivesDeleteFailure(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	f.reports.deleteErr = errUnavailable

	f.svc.Start(ctx, "u1")
	state, err := f.svc.Retake(ctx, "u1")
	if err != nil || state.Phase != model.PhaseIntake {
		t.Fatalf("Retake = %+v, %v", state, err)
	}
}

func TestSessionService_InChatRetakeAfterReport(t *testing.T) {
	f := newSessionFixture("Please upload an image of your left palm.", "Please upload an image of your left palm.")
	ctx := context.Background()

	f.svc.Start(ctx, "u1")
	f.svc.SendMessage(ctx, "u1", "I am male")
	f.svc.UploadImage(ctx, "u1", testImage, "image/jpeg")
	if _, _, err := f.svc.GenerateReport(ctx, "u1"); err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}

	appendedBefore := f.broadcaster.count(EventMessageAppended)
	state, res, err := f.svc.SendMessage(ctx, "u1", "I want to retake")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if !res.Retake || state.Phase != model.PhaseIntake {
		t.Fatalf("result = %+v, phase = %s", res, state.Phase)
	}
	if _, err := f.svc.Report(ctx, "u1"); !errors.Is(err, ErrReportNotFound) {
		t.Errorf("Report err = %v, want ErrReportNotFound", err)
	}
	// the fresh transcript is welcome + retake + acknowledgement
	if n := f.broadcaster.count(EventMessageAppended) - appendedBefore; n != 3 {
		t.Errorf("message_appended after retake = %d, want 3", n)
	}

	state, _, _ = f.svc.SendMessage(ctx, "u1", "I am male")
	if state.Phase != model.PhaseAwaitingImage {
		t.Fatalf("phase = %s", state.Phase)
	}
	if res, _, err := f.svc.UploadImage(ctx, "u1", testImage, "image/jpeg"); err != nil || !res.Accepted {
		t.Fatalf("UploadImage = %+v, %v", res, err)
	}
	if _, _, err := f.svc.GenerateReport(ctx, "u1"); err != nil {
		t.Fatalf("second GenerateReport: %v", err)
	}
}

func TestSessionService_SerializesPerOwner(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	f.svc.Start(ctx, "u1")

	// the fake generator is not safe for concurrent use; the owner lock keeps it serial
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.svc.SendMessage(ctx, "u1", "answer")
		}()
	}
	wg.Wait()

	state, _ := f.svc.Get(ctx, "u1")
	if len(state.Messages) != 1+2*20 {
		t.Errorf("messages = %d, want %d", len(state.Messages), 1+2*20)
	}
	if len(f.svc.locks.locks) != 0 {
		t.Errorf("%d owner locks left behind", len(f.svc.locks.locks))
	}
}
