package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/davsubmarine/airesearch/internal/usecase"
)

// Deps wires the use-case services behind the HTTP surface.
type Deps struct {
	Ingest  *usecase.IngestService
	Enrich  *usecase.EnrichService
	Tracker *usecase.Tracker
	Logger  *slog.Logger
}

// NewHandler builds the route table. Status polling stays responsive while a
// run executes: nothing here blocks on the background work.
func NewHandler(deps Deps) http.Handler {
	api := &API{
		ingest:  deps.Ingest,
		enrich:  deps.Enrich,
		tracker: deps.Tracker,
		logger:  deps.Logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", api.Health)
	mux.HandleFunc("/v1/ingest", api.StartIngest)
	mux.HandleFunc("/v1/ingest/status", api.IngestStatus)
	mux.HandleFunc("/v1/enrich", api.RunEnrichment)
	mux.HandleFunc("/v1/summaries", api.GenerateSummary)
	return mux
}
