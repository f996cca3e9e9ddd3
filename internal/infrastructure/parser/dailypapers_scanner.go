package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/davsubmarine/airesearch/internal/domain"
	"github.com/davsubmarine/airesearch/internal/scanner"
)

const (
	defaultBaseURL = "https://huggingface.co"
	listingPath    = "/papers/date/"
	paperBasePath  = "/papers/"

	// The listing embeds its whole payload as JSON on one hydration anchor.
	payloadAnchor    = `.SVELTE_HYDRATER[data-target="DailyPapers"]`
	payloadAttribute = "data-props"

	// The source rejects default client identities.
	browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

type dailyPapersPayload struct {
	DailyPapers []dailyPaperItem `json:"dailyPapers"`
}

type dailyPaperItem struct {
	Paper struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Summary string `json:"summary"`
		Upvotes int    `json:"upvotes"`
	} `json:"paper"`
}

// DailyPapersScanner fetches one dated listing page and extracts the embedded
// JSON payload. Requests are paced so consecutive dates are never fetched
// faster than the limiter allows.
type DailyPapersScanner struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
	logger  *slog.Logger
	now     func() time.Time
}

// NewDailyPapersScanner wires an HTTP client; the default client carries a
// 30s timeout.
func NewDailyPapersScanner(client *http.Client, logger *slog.Logger) *DailyPapersScanner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &DailyPapersScanner{
		client:  client,
		baseURL: defaultBaseURL,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		logger:  logger,
		now:     time.Now,
	}
}

// Name identifies the strategy inside the registry.
func (s *DailyPapersScanner) Name() string {
	return "dailypapers"
}

// Scan fetches the listing for req.Day and returns its normalized papers.
// An absent payload, an out-of-range date redirected to the generic listing,
// and an empty paper list all yield an empty result, not an error.
func (s *DailyPapersScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Paper, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for request slot: %w", err)
	}

	base := s.baseURL
	if override := req.Options["baseUrl"]; override != "" {
		base = override
	}

	day := req.Day.UTC().Truncate(24 * time.Hour)
	dateStr := day.Format("2006-01-02")
	pageURL := strings.TrimSuffix(base, "/") + listingPath + dateStr

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", browserUserAgent)
	httpReq.Header.Set("Accept", "text/html")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request listing for %s: %w", dateStr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing for %s returned %s", dateStr, resp.Status)
	}

	// resp.Request points at the final request after any redirects. The
	// source redirects out-of-range dates either to the nearest valid date
	// or to the generic listing; the latter means "no data for this date".
	if final := resp.Request.URL; final != nil && final.String() != pageURL {
		if !strings.Contains(final.Path, listingPath) {
			s.debug("redirected to generic listing, treating as empty day", "date", dateStr, "final_url", final.String())
			return nil, nil
		}
		s.debug("redirected to nearest valid date", "date", dateStr, "final_url", final.String())
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse listing for %s: %w", dateStr, err)
	}

	anchor := doc.Find(payloadAnchor).First()
	if anchor.Length() == 0 {
		s.debug("payload anchor not found", "date", dateStr)
		return nil, nil
	}

	props, ok := anchor.Attr(payloadAttribute)
	if !ok || strings.TrimSpace(props) == "" {
		s.debug("payload attribute missing", "date", dateStr)
		return nil, nil
	}

	var payload dailyPapersPayload
	if err := json.Unmarshal([]byte(props), &payload); err != nil {
		return nil, fmt.Errorf("decode payload for %s: %w", dateStr, err)
	}

	return s.normalize(payload.DailyPapers, day, base), nil
}

// normalize maps raw payload items onto canonical papers, dropping entries
// that carry no identifier or title.
func (s *DailyPapersScanner) normalize(items []dailyPaperItem, day time.Time, base string) []domain.Paper {
	now := s.now().UTC()
	papers := make([]domain.Paper, 0, len(items))
	for _, item := range items {
		raw := item.Paper
		if raw.ID == "" || raw.Title == "" {
			continue
		}
		upvotes := raw.Upvotes
		if upvotes < 0 {
			upvotes = 0
		}
		papers = append(papers, domain.Paper{
			ID:         raw.ID,
			Title:      raw.Title,
			Abstract:   raw.Summary,
			Date:       day,
			URL:        strings.TrimSuffix(base, "/") + paperBasePath + raw.ID,
			Upvotes:    upvotes,
			HasSummary: false,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return papers
}

func (s *DailyPapersScanner) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
