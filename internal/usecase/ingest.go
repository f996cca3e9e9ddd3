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

var (
	// ErrRunActive means a start request arrived while a run was in flight.
	ErrRunActive = errors.New("ingestion run already in progress")
	// ErrInvalidDays rejects non-positive day counts before any state change.
	ErrInvalidDays = errors.New("days must be a positive number")
	// ErrInvalidMode rejects modes outside the closed set.
	ErrInvalidMode = errors.New("invalid mode, use fixed-days or since-last")
)

const (
	upsertBatchSize = 20
	dateFormat      = "2006-01-02"
)

// IngestDeps wires all collaborators into the ingestion orchestrator.
type IngestDeps struct {
	Source   ports.PaperSource
	Repo     ports.PaperRepository
	Tracker  *Tracker
	Window   *Window
	Notifier ports.Notifier
	Logger   *slog.Logger
}

// IngestService drives the full fetch/normalize/persist pipeline across a
// date window. The actual run executes detached from the trigger; callers
// poll the tracker for completion.
type IngestService struct {
	source   ports.PaperSource
	repo     ports.PaperRepository
	tracker  *Tracker
	window   *Window
	notifier ports.Notifier
	logger   *slog.Logger

	interBatchDelay time.Duration
	interDayDelay   time.Duration
}

// NewIngestService constructs the orchestrator with production delays.
func NewIngestService(deps IngestDeps) *IngestService {
	return &IngestService{
		source:   deps.Source,
		repo:     deps.Repo,
		tracker:  deps.Tracker,
		window:   deps.Window,
		notifier: deps.Notifier,
		logger:   deps.Logger,

		interBatchDelay: 500 * time.Millisecond,
		interDayDelay:   time.Second,
	}
}

// Start validates the request, claims the running gate, and launches the run
// in the background. It returns immediately with the acknowledging snapshot.
// A request while another run is active returns that run's snapshot together
// with ErrRunActive and starts nothing.
func (s *IngestService) Start(_ context.Context, mode domain.IngestMode, days int) (domain.JobSnapshot, error) {
	switch mode {
	case domain.ModeFixedDays:
		if days < 1 {
			return domain.JobSnapshot{}, ErrInvalidDays
		}
	case domain.ModeSinceLast:
		days = 0
	default:
		return domain.JobSnapshot{}, ErrInvalidMode
	}

	clampedFrom := 0
	if mode == domain.ModeFixedDays && days > maxWindowDays {
		clampedFrom = days
		days = maxWindowDays
	}

	snap, ok := s.tracker.TryStart(mode, days)
	if !ok {
		return snap, ErrRunActive
	}

	if clampedFrom > 0 {
		s.tracker.Log("limiting requested days from %d to %d (maximum allowed)", clampedFrom, maxWindowDays)
	}

	// The run owns its own lifetime; it must not die with the trigger request.
	go s.run(context.Background(), mode, days)

	return s.tracker.Snapshot(), nil
}

// run executes the whole date window. The deferred guard makes sure any
// uncaught fault still returns the tracker to idle with the error recorded,
// so a run can never be left permanently "running".
func (s *IngestService) run(ctx context.Context, mode domain.IngestMode, requestedDays int) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("ingestion run panicked: %v", r)
			s.warn("ingestion run panicked", "panic", r)
			s.tracker.Log("fatal: %v", err)
			s.tracker.Fail(err)
		}
	}()

	days, err := s.window.Days(ctx, mode, requestedDays)
	if err != nil {
		s.warn("cannot resolve date window", "error", err)
		s.tracker.Log("error resolving date window: %v", err)
		s.tracker.Fail(err)
		return
	}
	if days > maxWindowDays {
		s.tracker.Log("limiting resolved days from %d to %d (maximum allowed)", days, maxWindowDays)
		days = maxWindowDays
	}
	s.tracker.SetDaysRequested(days)

	dates := s.window.Dates(days)
	s.tracker.Update(ProgressUpdate{TotalDays: intPtr(days), PapersSoFar: intPtr(0)})
	s.tracker.Log("starting ingestion for the last %d days", days)

	var totalPapers, daysWithPapers int
	for i, day := range dates {
		dateStr := day.Format(dateFormat)
		s.tracker.Update(ProgressUpdate{CurrentDay: intPtr(i + 1), CurrentDate: strPtr(dateStr)})
		s.tracker.Log("processing day %d/%d: %s", i+1, days, dateStr)

		papers, fetchErr := s.source.FetchDate(ctx, day)
		switch {
		case fetchErr != nil:
			// One bad day never loses the others.
			s.warn("fetch failed", "date", dateStr, "error", fetchErr)
			s.tracker.Log("error fetching papers for %s: %v", dateStr, fetchErr)
		case len(papers) == 0:
			s.tracker.Log("no papers found for %s", dateStr)
		default:
			daysWithPapers++
			s.tracker.Log("found %d papers for %s", len(papers), dateStr)
			totalPapers += s.persistDay(ctx, dateStr, papers)
			s.tracker.Update(ProgressUpdate{PapersSoFar: intPtr(totalPapers)})
			s.tracker.Log("day %d/%d complete, total papers so far: %d", i+1, days, totalPapers)
		}

		if i < len(dates)-1 {
			sleepCtx(ctx, s.interDayDelay)
		}
	}

	result := domain.IngestResult{TotalPapers: totalPapers, DaysProcessed: daysWithPapers}
	s.tracker.Log("completed ingestion: %d papers across %d days with results", result.TotalPapers, result.DaysProcessed)
	s.tracker.Finish(result)
	s.publishDigest(ctx, result)
}

// persistDay upserts one day's papers in fixed-size batches. A failing batch
// is logged and skipped; remaining batches still run. Returns the number of
// papers attempted.
func (s *IngestService) persistDay(ctx context.Context, dateStr string, papers []domain.Paper) int {
	totalBatches := (len(papers) + upsertBatchSize - 1) / upsertBatchSize
	for i := 0; i < totalBatches; i++ {
		start := i * upsertBatchSize
		end := start + upsertBatchSize
		if end > len(papers) {
			end = len(papers)
		}
		batch := papers[start:end]

		s.tracker.Update(ProgressUpdate{CurrentBatch: intPtr(i + 1), TotalBatches: intPtr(totalBatches)})
		s.tracker.Log("saving batch %d/%d (%d papers) for %s", i+1, totalBatches, len(batch), dateStr)

		if err := s.repo.UpsertPapers(ctx, batch); err != nil {
			s.warn("batch upsert failed", "date", dateStr, "batch", i+1, "error", err)
			s.tracker.Log("error saving batch %d/%d for %s: %v", i+1, totalBatches, dateStr, err)
		}

		if i < totalBatches-1 {
			sleepCtx(ctx, s.interBatchDelay)
		}
	}
	return len(papers)
}

// publishDigest sends a best-effort completion note; a notifier failure never
// affects the run outcome.
func (s *IngestService) publishDigest(ctx context.Context, result domain.IngestResult) {
	if s.notifier == nil {
		return
	}
	digest := fmt.Sprintf("Ingestion complete: %d papers across %d days.", result.TotalPapers, result.DaysProcessed)
	if err := s.notifier.PublishDigest(ctx, digest); err != nil {
		s.warn("digest notification failed", "error", err)
	}
}

func (s *IngestService) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
