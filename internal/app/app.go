package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/davsubmarine/airesearch/internal/config"
	"github.com/davsubmarine/airesearch/internal/domain"
	"github.com/davsubmarine/airesearch/internal/infrastructure/cache"
	"github.com/davsubmarine/airesearch/internal/infrastructure/httpapi"
	"github.com/davsubmarine/airesearch/internal/infrastructure/llm"
	"github.com/davsubmarine/airesearch/internal/infrastructure/parser"
	"github.com/davsubmarine/airesearch/internal/infrastructure/scheduler"
	"github.com/davsubmarine/airesearch/internal/infrastructure/storage"
	"github.com/davsubmarine/airesearch/internal/infrastructure/telegram"
	"github.com/davsubmarine/airesearch/internal/logging"
	"github.com/davsubmarine/airesearch/internal/ports"
	"github.com/davsubmarine/airesearch/internal/scanner"
	"github.com/davsubmarine/airesearch/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	repo      *storage.PostgresRepository
	ingest    *usecase.IngestService
	scheduler ports.Scheduler
	server    *http.Server
}

// New builds a runnable application instance.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	repo, err := storage.NewPostgresRepository(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	registry := scanner.NewRegistry()
	registry.Register(parser.NewDailyPapersScanner(nil, baseLogger.With("component", "scanner.dailypapers")))
	source := parser.NewStrategySource(registry, cfg.Source, baseLogger.With("component", "source"))

	var chatClient ports.ChatClient
	if cfg.ChatGPT.APIKey != "" {
		chatClient = llm.NewChatGPTClient(cfg.ChatGPT)
	}

	var summaryCache ports.SummaryCache
	if cfg.Cache.RedisAddr != "" {
		summaryCache = cache.NewRedisSummaryCache(cfg.Cache)
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram)
	}

	tracker := usecase.NewTracker()
	window := usecase.NewWindow(repo)
	ingest := usecase.NewIngestService(usecase.IngestDeps{
		Source:   source,
		Repo:     repo,
		Tracker:  tracker,
		Window:   window,
		Notifier: notifier,
		Logger:   baseLogger.With("component", "ingest"),
	})
	generator := usecase.NewSummaryService(chatClient, summaryCache)
	enrich := usecase.NewEnrichService(repo, generator, baseLogger.With("component", "enrich"))

	handler := httpapi.NewHandler(httpapi.Deps{
		Ingest:  ingest,
		Enrich:  enrich,
		Tracker: tracker,
		Logger:  baseLogger.With("component", "http"),
	})

	application := &Application{
		cfg:    cfg,
		logger: baseLogger,
		repo:   repo,
		ingest: ingest,
		server: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	if cfg.Scheduler.Enabled {
		application.scheduler = scheduler.NewIntervalScheduler(cfg.Scheduler.Interval())
	}

	return application, nil
}

// Run serves the HTTP API until ctx is cancelled, optionally keeping the
// store current with a recurring since-last ingestion.
func (a *Application) Run(ctx context.Context) error {
	defer a.repo.Close()

	if a.scheduler != nil {
		err := a.scheduler.Start(ctx, func(time.Time) {
			if _, err := a.ingest.Start(ctx, domain.ModeSinceLast, 0); err != nil {
				a.logger.Warn("scheduled ingestion not started", "error", err)
			}
		})
		if err != nil {
			return err
		}
		defer func() { _ = a.scheduler.Stop(context.Background()) }()
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.server.Shutdown(shutdownCtx)
}
