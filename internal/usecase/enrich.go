package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/davsubmarine/airesearch/internal/domain"
	"github.com/davsubmarine/airesearch/internal/ports"
)

// ErrPaperNotFound means the requested paper does not exist in the store.
var ErrPaperNotFound = errors.New("paper not found")

// EnrichService attaches summaries to papers that lack one. Work proceeds in
// fixed-size batches with inter-item and inter-batch delays to respect the
// generation API's rate limits; one paper's failure never aborts the pass.
type EnrichService struct {
	repo      ports.PaperRepository
	generator ports.SummaryGenerator
	logger    *slog.Logger

	batchSize  int
	itemDelay  time.Duration
	batchDelay time.Duration
}

// NewEnrichService constructs the runner with production pacing.
func NewEnrichService(repo ports.PaperRepository, generator ports.SummaryGenerator, logger *slog.Logger) *EnrichService {
	return &EnrichService{
		repo:      repo,
		generator: generator,
		logger:    logger,

		batchSize:  5,
		itemDelay:  time.Second,
		batchDelay: 5 * time.Second,
	}
}

// Run processes every stored paper still lacking a summary and returns the
// aggregate synchronously. limit <= 0 means no limit.
func (s *EnrichService) Run(ctx context.Context, newestFirst bool, limit int) (domain.EnrichmentReport, error) {
	papers, err := s.repo.PapersWithoutSummary(ctx, newestFirst, limit)
	if err != nil {
		return domain.EnrichmentReport{}, fmt.Errorf("select papers without summary: %w", err)
	}

	report := domain.EnrichmentReport{Total: len(papers)}
	for i, paper := range papers {
		if i > 0 {
			if i%s.batchSize == 0 {
				sleepCtx(ctx, s.batchDelay)
			} else {
				sleepCtx(ctx, s.itemDelay)
			}
		}

		report.Processed++
		if err := s.enrichOne(ctx, paper); err != nil {
			report.Failed++
			report.Failures = append(report.Failures, domain.EnrichmentFailure{
				PaperID: paper.ID,
				Error:   err.Error(),
			})
			s.warn("enrichment failed", "paper", paper.ID, "error", err)
			continue
		}
		report.Succeeded++
	}

	return report, nil
}

// enrichOne generates and persists one summary, flipping the paper's flag
// only after the summary row is durable. Any failure leaves the flag false so
// a later pass retries the paper.
func (s *EnrichService) enrichOne(ctx context.Context, paper domain.Paper) error {
	summary, err := s.generator.Generate(ctx, paper)
	if err != nil {
		_ = s.repo.SetHasSummary(ctx, paper.ID, false)
		return err
	}

	if err := s.repo.InsertSummary(ctx, summary); err != nil {
		_ = s.repo.SetHasSummary(ctx, paper.ID, false)
		return fmt.Errorf("persist summary: %w", err)
	}

	if err := s.repo.SetHasSummary(ctx, paper.ID, true); err != nil {
		return fmt.Errorf("mark paper summarized: %w", err)
	}
	return nil
}

// SummarizeOne generates (or returns the already stored) summary for a single
// paper. The bool reports whether an existing summary was reused.
func (s *EnrichService) SummarizeOne(ctx context.Context, paperID string) (domain.Summary, bool, error) {
	paper, err := s.repo.PaperByID(ctx, paperID)
	if err != nil {
		return domain.Summary{}, false, fmt.Errorf("load paper %s: %w", paperID, err)
	}
	if paper == nil {
		return domain.Summary{}, false, ErrPaperNotFound
	}

	if existing, err := s.repo.SummaryByPaper(ctx, paperID); err == nil && existing != nil {
		if !paper.HasSummary {
			_ = s.repo.SetHasSummary(ctx, paperID, true)
		}
		return *existing, true, nil
	}

	summary, err := s.generator.Generate(ctx, *paper)
	if err != nil {
		return domain.Summary{}, false, err
	}
	if err := s.repo.InsertSummary(ctx, summary); err != nil {
		return domain.Summary{}, false, fmt.Errorf("persist summary: %w", err)
	}
	if err := s.repo.SetHasSummary(ctx, paperID, true); err != nil {
		return domain.Summary{}, false, fmt.Errorf("mark paper summarized: %w", err)
	}
	return summary, false, nil
}

func (s *EnrichService) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
