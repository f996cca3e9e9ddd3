package domain

import "time"

// IngestMode selects how the date window for a run is computed.
type IngestMode string

const (
	// ModeFixedDays walks back a caller-supplied number of days from today.
	ModeFixedDays IngestMode = "fixed-days"
	// ModeSinceLast walks back to the most recent date already stored.
	ModeSinceLast IngestMode = "since-last"
)

// IngestResult is the final outcome of a completed ingestion run.
// DaysProcessed counts only dates that yielded at least one paper.
type IngestResult struct {
	TotalPapers   int `json:"totalPapers"`
	DaysProcessed int `json:"daysProcessed"`
}

// IngestProgress is the live progress of the active run, including a bounded
// rolling log of human-readable entries.
type IngestProgress struct {
	CurrentDay   int      `json:"currentDay"`
	TotalDays    int      `json:"totalDays"`
	CurrentBatch int      `json:"currentBatch"`
	TotalBatches int      `json:"totalBatches"`
	PapersSoFar  int      `json:"papersSoFar"`
	CurrentDate  string   `json:"currentDate,omitempty"`
	Logs         []string `json:"logs"`
}

// JobSnapshot is a consistent copy of the shared ingestion job state,
// safe to hand to pollers while a run mutates the original.
type JobSnapshot struct {
	IsRunning     bool            `json:"isRunning"`
	StartTime     *time.Time      `json:"startTime"`
	EndTime       *time.Time      `json:"endTime"`
	LastError     string          `json:"lastError,omitempty"`
	Mode          IngestMode      `json:"mode,omitempty"`
	DaysRequested int             `json:"daysRequested,omitempty"`
	LastResult    *IngestResult   `json:"lastResult,omitempty"`
	Progress      *IngestProgress `json:"progress,omitempty"`
}

// EnrichmentFailure records one paper whose summary generation failed.
type EnrichmentFailure struct {
	PaperID string `json:"paperId"`
	Error   string `json:"error"`
}

// EnrichmentReport aggregates the outcome of one enrichment pass.
type EnrichmentReport struct {
	Total     int                 `json:"total"`
	Processed int                 `json:"processed"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
	Failures  []EnrichmentFailure `json:"errors"`
}
