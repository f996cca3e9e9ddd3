package usecase

import (
	"fmt"
	"sync"
	"time"

	"github.com/davsubmarine/airesearch/internal/domain"
)

// maxLogEntries caps the rolling progress log; oldest entries drop first.
const maxLogEntries = 500

// ProgressUpdate is a partial merge into the active run's progress: only
// non-nil fields replace prior values.
type ProgressUpdate struct {
	CurrentDay   *int
	TotalDays    *int
	CurrentBatch *int
	TotalBatches *int
	PapersSoFar  *int
	CurrentDate  *string
}

// Tracker is the process-wide ingestion job state machine. It has two
// states, idle and running, and guards the transition between them so at
// most one run is ever active. All reads and writes go through one mutex;
// pollers get deep-copied snapshots and never observe a torn update.
type Tracker struct {
	mu     sync.Mutex
	status domain.JobSnapshot
	now    func() time.Time
}

// NewTracker returns an idle tracker.
func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// TryStart atomically transitions idle -> running. When a run is already
// active it reports false and returns that run's snapshot unchanged.
func (t *Tracker) TryStart(mode domain.IngestMode, daysRequested int) (domain.JobSnapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status.IsRunning {
		return t.snapshotLocked(), false
	}

	start := t.now().UTC()
	t.status = domain.JobSnapshot{
		IsRunning:     true,
		StartTime:     &start,
		Mode:          mode,
		DaysRequested: daysRequested,
		Progress:      &domain.IngestProgress{Logs: []string{}},
	}
	return t.snapshotLocked(), true
}

// SetDaysRequested records the resolved window size once since-last mode
// has asked the store.
func (t *Tracker) SetDaysRequested(days int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.DaysRequested = days
}

// Update merges the supplied progress fields; unset fields keep prior values.
func (t *Tracker) Update(update ProgressUpdate) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status.Progress == nil {
		t.status.Progress = &domain.IngestProgress{Logs: []string{}}
	}
	p := t.status.Progress
	if update.CurrentDay != nil {
		p.CurrentDay = *update.CurrentDay
	}
	if update.TotalDays != nil {
		p.TotalDays = *update.TotalDays
	}
	if update.CurrentBatch != nil {
		p.CurrentBatch = *update.CurrentBatch
	}
	if update.TotalBatches != nil {
		p.TotalBatches = *update.TotalBatches
	}
	if update.PapersSoFar != nil {
		p.PapersSoFar = *update.PapersSoFar
	}
	if update.CurrentDate != nil {
		p.CurrentDate = *update.CurrentDate
	}
}

// Log appends one timestamped entry to the rolling log, evicting the oldest
// entries beyond the cap.
func (t *Tracker) Log(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status.Progress == nil {
		t.status.Progress = &domain.IngestProgress{Logs: []string{}}
	}
	entry := fmt.Sprintf("%s %s", t.now().UTC().Format(time.RFC3339), fmt.Sprintf(format, args...))
	logs := append(t.status.Progress.Logs, entry)
	if len(logs) > maxLogEntries {
		logs = logs[len(logs)-maxLogEntries:]
	}
	t.status.Progress.Logs = logs
}

// Finish transitions running -> idle with a successful result.
func (t *Tracker) Finish(result domain.IngestResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	end := t.now().UTC()
	t.status.IsRunning = false
	t.status.EndTime = &end
	t.status.LastError = ""
	res := result
	t.status.LastResult = &res
}

// Fail transitions running -> idle recording the fatal error.
func (t *Tracker) Fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	end := t.now().UTC()
	t.status.IsRunning = false
	t.status.EndTime = &end
	if err != nil {
		t.status.LastError = err.Error()
	}
}

// Snapshot returns a consistent deep copy of the current state.
func (t *Tracker) Snapshot() domain.JobSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() domain.JobSnapshot {
	snap := t.status

	if t.status.StartTime != nil {
		start := *t.status.StartTime
		snap.StartTime = &start
	}
	if t.status.EndTime != nil {
		end := *t.status.EndTime
		snap.EndTime = &end
	}
	if t.status.LastResult != nil {
		result := *t.status.LastResult
		snap.LastResult = &result
	}
	if t.status.Progress != nil {
		progress := *t.status.Progress
		progress.Logs = append([]string(nil), t.status.Progress.Logs...)
		snap.Progress = &progress
	}
	return snap
}
