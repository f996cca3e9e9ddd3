package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davsubmarine/airesearch/internal/domain"
	"github.com/davsubmarine/airesearch/internal/ports"
)

const (
	papersTable    = "papers"
	summariesTable = "summaries"
)

// PostgresRepository persists papers and summaries into Postgres.
type PostgresRepository struct {
	pool    *pgxpool.Pool
	builder sq.StatementBuilderType
}

var _ ports.PaperRepository = (*PostgresRepository)(nil)

// NewPostgresRepository opens a pgx pool and verifies connectivity.
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pg pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pg: %w", err)
	}
	return &PostgresRepository{
		pool:    pool,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

// Close releases the connection pool.
func (r *PostgresRepository) Close() {
	r.pool.Close()
}

// UpsertPapers writes one batch keyed on id. Conflicting ids replace mutable
// fields and refresh updated_at; has_summary and created_at are left alone so
// re-ingestion never loses enrichment state.
func (r *PostgresRepository) UpsertPapers(ctx context.Context, papers []domain.Paper) error {
	if len(papers) == 0 {
		return nil
	}

	query, args, err := buildPaperUpsert(r.builder, papers)
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %d papers: %w", len(papers), err)
	}
	return nil
}

func buildPaperUpsert(builder sq.StatementBuilderType, papers []domain.Paper) (string, []any, error) {
	insert := builder.Insert(papersTable).
		Columns("id", "title", "abstract", "published_on", "url", "upvotes", "has_summary", "created_at", "updated_at")

	for _, p := range papers {
		insert = insert.Values(p.ID, p.Title, p.Abstract, p.Date, p.URL, p.Upvotes, p.HasSummary, p.CreatedAt, p.UpdatedAt)
	}

	insert = insert.Suffix(`ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title,
		    abstract = EXCLUDED.abstract,
		    published_on = EXCLUDED.published_on,
		    url = EXCLUDED.url,
		    upvotes = EXCLUDED.upvotes,
		    updated_at = NOW()`)

	return insert.ToSql()
}

// PaperByID loads one paper, or nil when it does not exist.
func (r *PostgresRepository) PaperByID(ctx context.Context, id string) (*domain.Paper, error) {
	query, args, err := r.builder.
		Select("id", "title", "abstract", "published_on", "url", "upvotes", "has_summary", "created_at", "updated_at").
		From(papersTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var p domain.Paper
	row := r.pool.QueryRow(ctx, query, args...)
	if err := row.Scan(&p.ID, &p.Title, &p.Abstract, &p.Date, &p.URL, &p.Upvotes, &p.HasSummary, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select paper %s: %w", id, err)
	}
	return &p, nil
}

// PapersWithoutSummary lists papers still lacking a summary, ordered by
// publication date. limit <= 0 means no limit.
func (r *PostgresRepository) PapersWithoutSummary(ctx context.Context, newestFirst bool, limit int) ([]domain.Paper, error) {
	order := "published_on ASC"
	if newestFirst {
		order = "published_on DESC"
	}

	selectBuilder := r.builder.
		Select("id", "title", "abstract", "published_on", "url", "upvotes", "has_summary", "created_at", "updated_at").
		From(papersTable).
		Where(sq.Eq{"has_summary": false}).
		OrderBy(order)
	if limit > 0 {
		selectBuilder = selectBuilder.Limit(uint64(limit))
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select papers without summary: %w", err)
	}
	defer rows.Close()

	var papers []domain.Paper
	for rows.Next() {
		var p domain.Paper
		if err := rows.Scan(&p.ID, &p.Title, &p.Abstract, &p.Date, &p.URL, &p.Upvotes, &p.HasSummary, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan paper: %w", err)
		}
		papers = append(papers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return papers, nil
}

// MostRecentDate reports the newest stored publication date.
func (r *PostgresRepository) MostRecentDate(ctx context.Context) (time.Time, bool, error) {
	query, args, err := r.builder.
		Select("MAX(published_on)").
		From(papersTable).
		ToSql()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("build select: %w", err)
	}

	var mostRecent *time.Time
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&mostRecent); err != nil {
		return time.Time{}, false, fmt.Errorf("select most recent date: %w", err)
	}
	if mostRecent == nil {
		return time.Time{}, false, nil
	}
	return *mostRecent, true, nil
}

// SetHasSummary flips the enrichment flag for one paper.
func (r *PostgresRepository) SetHasSummary(ctx context.Context, paperID string, has bool) error {
	query, args, err := r.builder.
		Update(papersTable).
		Set("has_summary", has).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": paperID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update has_summary for %s: %w", paperID, err)
	}
	return nil
}

// InsertSummary stores one generated summary row.
func (r *PostgresRepository) InsertSummary(ctx context.Context, summary domain.Summary) error {
	query, args, err := r.builder.
		Insert(summariesTable).
		Columns("id", "paper_id", "tldr", "key_innovation", "practical_applications", "limitations_future_work", "key_terms", "created_at", "updated_at").
		Values(
			summary.ID,
			summary.PaperID,
			summary.TLDR,
			summary.KeyInnovation,
			summary.PracticalApplications,
			summary.LimitationsFutureWork,
			summary.KeyTerms,
			summary.CreatedAt,
			summary.UpdatedAt,
		).
		Suffix(`ON CONFLICT (id) DO UPDATE
			SET tldr = EXCLUDED.tldr,
			    key_innovation = EXCLUDED.key_innovation,
			    practical_applications = EXCLUDED.practical_applications,
			    limitations_future_work = EXCLUDED.limitations_future_work,
			    key_terms = EXCLUDED.key_terms,
			    updated_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert summary %s: %w", summary.ID, err)
	}
	return nil
}

// SummaryByPaper loads the latest summary for a paper, or nil when none exists.
func (r *PostgresRepository) SummaryByPaper(ctx context.Context, paperID string) (*domain.Summary, error) {
	query, args, err := r.builder.
		Select("id", "paper_id", "tldr", "key_innovation", "practical_applications", "limitations_future_work", "key_terms", "created_at", "updated_at").
		From(summariesTable).
		Where(sq.Eq{"paper_id": paperID}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var s domain.Summary
	row := r.pool.QueryRow(ctx, query, args...)
	if err := row.Scan(&s.ID, &s.PaperID, &s.TLDR, &s.KeyInnovation, &s.PracticalApplications, &s.LimitationsFutureWork, &s.KeyTerms, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select summary for %s: %w", paperID, err)
	}
	return &s, nil
}
