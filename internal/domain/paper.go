package domain

import "time"

// Paper is the canonical record for one published item. The ID comes from the
// source and is stable across repeated ingestion of the same item, so upserts
// keyed on it never duplicate rows.
type Paper struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Abstract   string    `json:"abstract"`
	Date       time.Time `json:"date"`
	URL        string    `json:"url"`
	Upvotes    int       `json:"upvotes"`
	HasSummary bool      `json:"has_summary"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Summary is one generated structured summary. A paper may accumulate several
// summary rows over time; only the most recent one is surfaced.
type Summary struct {
	ID                    string            `json:"id"`
	PaperID               string            `json:"paper_id"`
	TLDR                  []string          `json:"tldr"`
	KeyInnovation         []string          `json:"key_innovation"`
	PracticalApplications []string          `json:"practical_applications"`
	LimitationsFutureWork []string          `json:"limitations_future_work"`
	KeyTerms              map[string]string `json:"key_terms"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}
