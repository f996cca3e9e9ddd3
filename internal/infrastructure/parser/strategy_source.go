package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/davsubmarine/airesearch/internal/config"
	"github.com/davsubmarine/airesearch/internal/domain"
	"github.com/davsubmarine/airesearch/internal/ports"
	"github.com/davsubmarine/airesearch/internal/scanner"
)

// StrategySource implements PaperSource via the registered scanner strategy
// named in configuration.
type StrategySource struct {
	registry *scanner.Registry
	source   config.SourceConfig
	logger   *slog.Logger
}

var _ ports.PaperSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with the configured source.
func NewStrategySource(reg *scanner.Registry, source config.SourceConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		source:   source,
		logger:   log,
	}
}

// FetchDate resolves the configured strategy and scans one calendar date.
func (s *StrategySource) FetchDate(ctx context.Context, day time.Time) ([]domain.Paper, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	strategy, err := s.registry.Resolve(s.source.Scanner)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", s.source.Scanner, err)
	}

	options := map[string]string{}
	for k, v := range s.source.Options {
		options[k] = v
	}
	if s.source.BaseURL != "" {
		options["baseUrl"] = s.source.BaseURL
	}

	papers, err := strategy.Scan(ctx, scanner.Request{Day: day, Options: options})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", day.Format("2006-01-02"), err)
	}

	if s.logger != nil {
		s.logger.Debug("source scan complete", "day", day.Format("2006-01-02"), "papers", len(papers))
	}
	return papers, nil
}
