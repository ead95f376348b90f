package service

import (
	"context"

	"eternal/internal/model"
)

// TextGenerator is the external text-generation capability
type TextGenerator interface {
	// Generate continues the interview given the system prompt and transcript
	Generate(ctx context.Context, systemPrompt string, history []model.Message) (string, error)
	// SynthesizeReport returns free text containing the nine report sections
	SynthesizeReport(ctx context.Context, answers []string, imageValidated bool, gender model.Gender) (string, error)
}

// ImageClassifier is the external image classification capability.
// It answers with one token from the instruction; callers must not trust it further.
type ImageClassifier interface {
	Classify(ctx context.Context, image []byte, contentType, instruction string) (string, error)
}

// BlobStore keeps uploaded images. Storage is best-effort for callers.
type BlobStore interface {
	Store(ctx context.Context, ownerID string, data []byte, contentType string) (string, error)
}

// ReportStore persists finished reports; Load returns nil, nil when absent
type ReportStore interface {
	Save(ctx context.Context, report *model.Report) error
	Load(ctx context.Context, ownerID string) (*model.Report, error)
	Delete(ctx context.Context, ownerID string) error
}
