package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/davsubmarine/airesearch/internal/domain"
	"github.com/davsubmarine/airesearch/internal/ports"
)

const (
	// maxWindowDays is the hard ceiling on any requested window.
	maxWindowDays = 365
	// defaultSinceLastWindow applies when the store holds no papers yet.
	defaultSinceLastWindow = 7
)

// Window plans the calendar dates an ingestion run walks, most recent first.
type Window struct {
	repo ports.PaperRepository
	now  func() time.Time
}

// NewWindow wires the store lookup needed by since-last mode.
func NewWindow(repo ports.PaperRepository) *Window {
	return &Window{repo: repo, now: time.Now}
}

// Days resolves how many days the run should cover, before clamping.
// Fixed-days mode passes the request through; since-last asks the store for
// the most recent stored date and covers the gap up to today, at least one
// day so today is always re-checked.
func (w *Window) Days(ctx context.Context, mode domain.IngestMode, requested int) (int, error) {
	switch mode {
	case domain.ModeFixedDays:
		return requested, nil
	case domain.ModeSinceLast:
		mostRecent, ok, err := w.repo.MostRecentDate(ctx)
		if err != nil {
			return 0, fmt.Errorf("query most recent date: %w", err)
		}
		if !ok {
			return defaultSinceLastWindow, nil
		}
		today := truncateDay(w.now().UTC())
		diff := int(today.Sub(truncateDay(mostRecent.UTC())).Hours() / 24)
		if diff < 1 {
			diff = 1
		}
		return diff, nil
	default:
		return 0, fmt.Errorf("unknown ingestion mode %q", mode)
	}
}

// Dates produces n consecutive calendar dates ending at today, most recent
// first.
func (w *Window) Dates(n int) []time.Time {
	today := truncateDay(w.now().UTC())
	dates := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		dates = append(dates, today.AddDate(0, 0, -i))
	}
	return dates
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
