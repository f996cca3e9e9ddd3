package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/davsubmarine/airesearch/internal/domain"
)

type fakeGenerator struct {
	failFor map[string]error
	calls   int
}

func (g *fakeGenerator) Generate(_ context.Context, paper domain.Paper) (domain.Summary, error) {
	g.calls++
	if err, ok := g.failFor[paper.ID]; ok {
		return domain.Summary{}, err
	}
	return domain.Summary{
		ID:      "summary-" + paper.ID,
		PaperID: paper.ID,
		TLDR:    []string{"a", "b", "c"},
	}, nil
}

func newTestEnrich(repo *fakeRepo, gen *fakeGenerator) *EnrichService {
	svc := NewEnrichService(repo, gen, nil)
	svc.itemDelay = 0
	svc.batchDelay = 0
	return svc
}

func seedPapers(repo *fakeRepo, ids ...string) {
	day := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	for _, p := range testPapers(day, ids...) {
		repo.papers[p.ID] = p
	}
}

func TestRunIsolatesSingleFailure(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	seedPapers(repo, "p1", "p2", "p3", "p4", "p5")
	gen := &fakeGenerator{failFor: map[string]error{"p3": errors.New("rate limited")}}

	report, err := newTestEnrich(repo, gen).Run(context.Background(), true, 0)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if report.Total != 5 || report.Processed != 5 {
		t.Fatalf("expected all 5 papers processed, got %+v", report)
	}
	if report.Succeeded != 4 || report.Failed != 1 {
		t.Fatalf("expected 4 succeeded / 1 failed, got %+v", report)
	}
	if len(report.Failures) != 1 || report.Failures[0].PaperID != "p3" {
		t.Fatalf("unexpected failure list: %+v", report.Failures)
	}
	if report.Failures[0].Error != "rate limited" {
		t.Fatalf("failure message missing: %+v", report.Failures[0])
	}

	if repo.summaryCount() != 4 {
		t.Fatalf("expected 4 persisted summaries, got %d", repo.summaryCount())
	}
	if p, _ := repo.paper("p3"); p.HasSummary {
		t.Fatal("failed paper must keep has_summary=false")
	}
	for _, id := range []string{"p1", "p2", "p4", "p5"} {
		if p, _ := repo.paper(id); !p.HasSummary {
			t.Fatalf("paper %s should be flagged summarized", id)
		}
	}
}

func TestRunFlagStaysFalseWhenPersistenceFails(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	seedPapers(repo, "p1")
	repo.insertErr = errors.New("summaries table unavailable")

	report, err := newTestEnrich(repo, &fakeGenerator{}).Run(context.Background(), true, 0)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Failed != 1 {
		t.Fatalf("expected persistence failure to count as failed, got %+v", report)
	}
	if p, _ := repo.paper("p1"); p.HasSummary {
		t.Fatal("flag must stay false when the summary row is not durable")
	}
}

func TestRunWithNoPendingPapers(t *testing.T) {
	t.Parallel()

	report, err := newTestEnrich(newFakeRepo(), &fakeGenerator{}).Run(context.Background(), true, 0)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Total != 0 || report.Processed != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

func TestSummarizeOneReturnsExisting(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	seedPapers(repo, "p1")
	repo.summaries = append(repo.summaries, domain.Summary{ID: "summary-p1-old", PaperID: "p1"})
	gen := &fakeGenerator{}

	summary, existing, err := newTestEnrich(repo, gen).SummarizeOne(context.Background(), "p1")
	if err != nil {
		t.Fatalf("SummarizeOne returned error: %v", err)
	}
	if !existing {
		t.Fatal("expected the stored summary to be reused")
	}
	if summary.ID != "summary-p1-old" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if gen.calls != 0 {
		t.Fatal("no generation call expected when a summary exists")
	}
	if p, _ := repo.paper("p1"); !p.HasSummary {
		t.Fatal("flag should be repaired when an orphan summary exists")
	}
}

func TestSummarizeOneGeneratesAndPersists(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	seedPapers(repo, "p1")

	summary, existing, err := newTestEnrich(repo, &fakeGenerator{}).SummarizeOne(context.Background(), "p1")
	if err != nil {
		t.Fatalf("SummarizeOne returned error: %v", err)
	}
	if existing {
		t.Fatal("expected a fresh generation")
	}
	if summary.PaperID != "p1" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if repo.summaryCount() != 1 {
		t.Fatalf("expected 1 persisted summary, got %d", repo.summaryCount())
	}
	if p, _ := repo.paper("p1"); !p.HasSummary {
		t.Fatal("paper should be flagged summarized")
	}
}

func TestSummarizeOneUnknownPaper(t *testing.T) {
	t.Parallel()

	_, _, err := newTestEnrich(newFakeRepo(), &fakeGenerator{}).SummarizeOne(context.Background(), "missing")
	if !errors.Is(err, ErrPaperNotFound) {
		t.Fatalf("expected ErrPaperNotFound, got %v", err)
	}
}
