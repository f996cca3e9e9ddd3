package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/davsubmarine/airesearch/internal/domain"
)

// fakeRepo is an in-memory PaperRepository used across the usecase tests.
type fakeRepo struct {
	mu         sync.Mutex
	papers     map[string]domain.Paper
	summaries  []domain.Summary
	mostRecent time.Time
	hasRecent  bool

	upsertCalls  int
	failBatch    int // 1-based upsert call that fails; 0 = never
	upsertErr    error
	selectErr    error
	insertErr    error
	setFlagCalls []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{papers: map[string]domain.Paper{}}
}

func (r *fakeRepo) UpsertPapers(_ context.Context, papers []domain.Paper) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upsertCalls++
	if r.failBatch != 0 && r.upsertCalls == r.failBatch {
		return r.upsertErr
	}
	for _, p := range papers {
		if existing, ok := r.papers[p.ID]; ok {
			p.HasSummary = existing.HasSummary
			p.CreatedAt = existing.CreatedAt
		}
		r.papers[p.ID] = p
	}
	return nil
}

func (r *fakeRepo) PaperByID(_ context.Context, id string) (*domain.Paper, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.papers[id]; ok {
		copied := p
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeRepo) PapersWithoutSummary(_ context.Context, newestFirst bool, limit int) ([]domain.Paper, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.selectErr != nil {
		return nil, r.selectErr
	}
	var out []domain.Paper
	for _, p := range r.papers {
		if !p.HasSummary {
			out = append(out, p)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeRepo) MostRecentDate(_ context.Context) (time.Time, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mostRecent, r.hasRecent, nil
}

func (r *fakeRepo) SetHasSummary(_ context.Context, paperID string, has bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setFlagCalls = append(r.setFlagCalls, paperID)
	if p, ok := r.papers[paperID]; ok {
		p.HasSummary = has
		r.papers[paperID] = p
	}
	return nil
}

func (r *fakeRepo) InsertSummary(_ context.Context, summary domain.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.summaries = append(r.summaries, summary)
	return nil
}

func (r *fakeRepo) SummaryByPaper(_ context.Context, paperID string) (*domain.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.summaries) - 1; i >= 0; i-- {
		if r.summaries[i].PaperID == paperID {
			copied := r.summaries[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) paperCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.papers)
}

func (r *fakeRepo) summaryCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.summaries)
}

func (r *fakeRepo) paper(id string) (domain.Paper, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.papers[id]
	return p, ok
}

// fakeSource serves canned papers (or errors) per date.
type fakeSource struct {
	mu      sync.Mutex
	perDate func(day time.Time) ([]domain.Paper, error)
	dates   []string
}

func (s *fakeSource) FetchDate(_ context.Context, day time.Time) ([]domain.Paper, error) {
	s.mu.Lock()
	s.dates = append(s.dates, day.Format("2006-01-02"))
	s.mu.Unlock()
	if s.perDate == nil {
		return nil, nil
	}
	return s.perDate(day)
}

func (s *fakeSource) fetchedDates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.dates...)
}

func testPapers(day time.Time, ids ...string) []domain.Paper {
	papers := make([]domain.Paper, 0, len(ids))
	for _, id := range ids {
		papers = append(papers, domain.Paper{
			ID:    id,
			Title: "Paper " + id,
			Date:  day,
			URL:   "https://huggingface.co/papers/" + id,
		})
	}
	return papers
}
