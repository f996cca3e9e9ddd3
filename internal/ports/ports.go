package ports

import (
	"context"
	"time"

	"github.com/davsubmarine/airesearch/internal/domain"
)

// PaperSource pulls the published papers for one calendar date.
type PaperSource interface {
	FetchDate(ctx context.Context, day time.Time) ([]domain.Paper, error)
}

// PaperRepository persists canonical papers and their summaries.
type PaperRepository interface {
	// UpsertPapers writes one batch keyed on paper ID; re-submitting an ID
	// replaces mutable fields instead of erroring.
	UpsertPapers(ctx context.Context, papers []domain.Paper) error
	PaperByID(ctx context.Context, id string) (*domain.Paper, error)
	PapersWithoutSummary(ctx context.Context, newestFirst bool, limit int) ([]domain.Paper, error)
	// MostRecentDate reports the newest stored publication date; the bool is
	// false when the store holds no papers yet.
	MostRecentDate(ctx context.Context) (time.Time, bool, error)
	SetHasSummary(ctx context.Context, paperID string, has bool) error
	InsertSummary(ctx context.Context, summary domain.Summary) error
	// SummaryByPaper returns the latest summary for a paper, or nil when none exists.
	SummaryByPaper(ctx context.Context, paperID string) (*domain.Summary, error)
}

// SummaryGenerator produces a structurally valid summary for one paper.
// It fails only when the underlying generation call fails, never on imperfect
// model formatting.
type SummaryGenerator interface {
	Generate(ctx context.Context, paper domain.Paper) (domain.Summary, error)
}

// ChatClient sends one prompt to a text-generation API and returns the raw
// assistant text.
type ChatClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// SummaryCache optionally short-circuits repeat generation for the same paper.
type SummaryCache interface {
	Get(ctx context.Context, paperID string) (*domain.Summary, error)
	Set(ctx context.Context, summary domain.Summary) error
}

// Notifier streams run digests to an outbound channel (Telegram, etc.).
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when recurring ingestion runs start.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
