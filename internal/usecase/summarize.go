package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/davsubmarine/airesearch/internal/domain"
	"github.com/davsubmarine/airesearch/internal/ports"
)

// ErrGeneratorUnavailable means no text-generation client is configured.
var ErrGeneratorUnavailable = errors.New("text-generation client is not configured")

const (
	bulletsPerSection = 3
	keyTermCount      = 3

	sectionTLDR         = "TL;DR"
	sectionInnovation   = "Key Innovation"
	sectionApplications = "Practical Applications"
	sectionLimitations  = "Limitations & Future Work"
	sectionKeyTerms     = "Key Terms"
)

// defaultKeyTerms fill remaining key-term slots when the model supplies fewer
// than three usable pairs.
var defaultKeyTerms = []struct{ Term, Definition string }{
	{"Multimodal Learning", "AI system that can process multiple types of input like text and images."},
	{"Neural Networks", "Computer systems inspired by human brain connections to process information."},
	{"Deep Learning", "Advanced AI that learns patterns from large amounts of data."},
}

const summarySystemPrompt = "You are an expert at summarizing complex AI research for non-technical audiences. " +
	"You MUST follow the exact formatting rules provided and generate exactly 3 points for each section."

// SummaryService turns one paper into a structured summary. Model output is
// parsed tolerantly: missing bullets are padded with placeholders and excess
// bullets truncated, so the returned summary is always structurally valid.
// Only a failing generation call surfaces as an error.
type SummaryService struct {
	chat  ports.ChatClient
	cache ports.SummaryCache
	now   func() time.Time
}

var _ ports.SummaryGenerator = (*SummaryService)(nil)

// NewSummaryService wires the generation client and the optional cache.
func NewSummaryService(chat ports.ChatClient, cache ports.SummaryCache) *SummaryService {
	return &SummaryService{chat: chat, cache: cache, now: time.Now}
}

// Generate requests and parses one structured summary.
func (s *SummaryService) Generate(ctx context.Context, paper domain.Paper) (domain.Summary, error) {
	if s.chat == nil {
		return domain.Summary{}, ErrGeneratorUnavailable
	}

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, paper.ID); err == nil && cached != nil {
			return *cached, nil
		}
	}

	content, err := s.chat.Complete(ctx, summarySystemPrompt, buildSummaryPrompt(paper))
	if err != nil {
		return domain.Summary{}, fmt.Errorf("generate summary for %s: %w", paper.ID, err)
	}

	now := s.now().UTC()
	summary := domain.Summary{
		ID:                    newSummaryID(paper.ID, now),
		PaperID:               paper.ID,
		TLDR:                  parseBullets(content, sectionTLDR),
		KeyInnovation:         parseBullets(content, sectionInnovation),
		PracticalApplications: parseBullets(content, sectionApplications),
		LimitationsFutureWork: parseBullets(content, sectionLimitations),
		KeyTerms:              parseKeyTerms(content),
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, summary)
	}
	return summary, nil
}

// newSummaryID is unique per generation, not per paper: a paper accumulates
// one row per generation.
func newSummaryID(paperID string, now time.Time) string {
	return fmt.Sprintf("summary-%s-%d-%s", paperID, now.UnixMilli(), uuid.NewString())
}

func buildSummaryPrompt(paper domain.Paper) string {
	abstract := paper.Abstract
	if abstract == "" {
		abstract = "Not provided"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Please analyze the following AI research paper and create a structured summary for non-technical people:\n\n")
	fmt.Fprintf(&b, "Title: %s\nAbstract: %s\nLink: %s\n\n", paper.Title, abstract, paper.URL)
	b.WriteString(`Your summary MUST follow this EXACT structure and formatting:

1. TL;DR (exactly 3 points):
- [Problem] Clear statement of the problem being solved (max 30 words)
- [Solution] Clear explanation of the proposed solution (max 30 words)
- [Impact] Clear statement of why this matters (max 30 words)

2. Key Innovation (exactly 3 points):
- [Novel Approach] What specific thing was done differently (max 30 words)
- [Improvement] How this improves upon existing methods (max 30 words)
- [Technical] The main technical achievement in simple terms (max 30 words)

3. Practical Applications (exactly 3 points):
- First real-world use case with concrete example (max 30 words)
- Second real-world use case with concrete example (max 30 words)
- Third real-world use case with concrete example (max 30 words)

4. Limitations & Future Work (exactly 3 points):
- First major limitation or challenge (max 30 words)
- Second major limitation or challenge (max 30 words)
- Potential future improvement or research direction (max 30 words)

5. Key Terms (exactly 3 terms):
Term Name - Simple business-friendly definition (max 20 words)
Term Name - Simple business-friendly definition (max 20 words)
Term Name - Simple business-friendly definition (max 20 words)

IMPORTANT FORMATTING RULES:
1. Use EXACTLY 3 bullet points for each section
2. Start each bullet point with a single dash (-)
3. No line breaks within bullet points
4. Use simple, everyday language
5. Be specific and concrete, avoid vague statements
6. Each bullet point must be a complete, grammatically correct sentence`)
	return b.String()
}

// nextSectionExpr matches the start of the following numbered section header.
var nextSectionExpr = regexp.MustCompile(`(?m)^\s*\d+\.`)

// sectionBody returns the text between the named header and the next
// numbered header.
func sectionBody(content, section string) (string, bool) {
	idx := strings.Index(content, section)
	if idx < 0 {
		return "", false
	}
	rest := content[idx+len(section):]
	if loc := nextSectionExpr.FindStringIndex(rest); loc != nil {
		rest = rest[:loc[0]]
	}
	return rest, true
}

// parseBullets extracts dash-prefixed lines from one section, padding with a
// recognizable placeholder below three entries and truncating above.
func parseBullets(content, section string) []string {
	body, found := sectionBody(content, section)
	if !found {
		points := make([]string, 0, bulletsPerSection)
		for len(points) < bulletsPerSection {
			points = append(points, fmt.Sprintf("Default %s point - needs review.", section))
		}
		return points
	}

	var points []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "-") {
			continue
		}
		point := strings.TrimSpace(strings.TrimPrefix(line, "-"))
		if point != "" {
			points = append(points, point)
		}
	}

	for len(points) < bulletsPerSection {
		points = append(points, fmt.Sprintf("Additional %s point - needs review.", section))
	}
	return points[:bulletsPerSection]
}

// parseKeyTerms splits each line of the key-terms section on its first dash
// into a term/definition pair, then fills any remaining slots from the
// built-in defaults without duplicating a term already present.
func parseKeyTerms(content string) map[string]string {
	type pair struct{ term, def string }
	var collected []pair
	seen := map[string]bool{}

	if body, found := sectionBody(content, sectionKeyTerms); found {
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || !strings.Contains(line, "-") {
				continue
			}
			term, def, _ := strings.Cut(line, "-")
			term = strings.TrimSpace(term)
			def = strings.TrimSpace(def)
			if term == "" || def == "" || seen[term] {
				continue
			}
			seen[term] = true
			collected = append(collected, pair{term: term, def: def})
		}
	}

	for _, fallback := range defaultKeyTerms {
		if len(collected) >= keyTermCount {
			break
		}
		if seen[fallback.Term] {
			continue
		}
		seen[fallback.Term] = true
		collected = append(collected, pair{term: fallback.Term, def: fallback.Definition})
	}

	if len(collected) > keyTermCount {
		collected = collected[:keyTermCount]
	}

	terms := make(map[string]string, keyTermCount)
	for _, p := range collected {
		terms[p.term] = p.def
	}
	return terms
}
