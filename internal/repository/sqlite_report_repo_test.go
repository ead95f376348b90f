package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"eternal/internal/model"
)

func newTestRepo(t *testing.T) *SQLiteReportRepo {
	t.Helper()
	repo, err := NewSQLiteReportRepo(filepath.Join(t.TempDir(), "data", "reports.db"))
	if err != nil {
		t.Fatalf("NewSQLiteReportRepo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testReport(owner string, palm int) *model.Report {
	r := &model.Report{
		OwnerID:       owner,
		RawAnswers:    []string{"I am female"},
		DerivedGender: model.GenderFemale,
		Source:        model.ReportSourceFallback,
		GeneratedAt:   time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	for _, title := range model.CanonicalSections {
		r.Sections.Set(model.ReportSection{Title: title, Description: "text for " + string(title), Score: 80})
	}
	r.Sections.Set(model.ReportSection{Title: model.SectionPalm, Description: "palm", Score: palm})
	return r
}

func TestSQLiteReportRepo_MissingIsNil(t *testing.T) {
	repo := newTestRepo(t)
	got, err := repo.GetByOwner(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetByOwner: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestSQLiteReportRepo_SaveReplaces(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Save(ctx, testReport("u1", 0)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Save(ctx, testReport("u1", 88)); err != nil {
		t.Fatalf("Save again: %v", err)
	}

	got, err := repo.GetByOwner(ctx, "u1")
	if err != nil || got == nil {
		t.Fatalf("GetByOwner = %v, %v", got, err)
	}
	if got.Sections.Len() != len(model.CanonicalSections) {
		t.Errorf("sections = %d", got.Sections.Len())
	}
	if s, _ := got.Sections.Get(model.SectionPalm); s.Score != 88 {
		t.Errorf("palm score = %d, want 88", s.Score)
	}
	if !got.GeneratedAt.Equal(testReport("u1", 0).GeneratedAt) {
		t.Errorf("generatedAt = %v", got.GeneratedAt)
	}

	if err := repo.Delete(ctx, "u1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := repo.GetByOwner(ctx, "u1"); got != nil {
		t.Error("report still present after Delete")
	}
}
