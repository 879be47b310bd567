package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/webhook-simulator/delivery"
	"github.com/marcelsud/webhook-simulator/metrics"
	"github.com/marcelsud/webhook-simulator/receiver"
	"github.com/marcelsud/webhook-simulator/replay"
)

// Deps holds the simulator components the operator API reads and drives
type Deps struct {
	Attempts *delivery.AttemptLog
	Receiver *receiver.Server
	Alerts   *metrics.AlertManager
	Replay   *replay.Manager
	Metrics  http.Handler // Prometheus-format metrics endpoint
}

// Handlers sets up the operator API routes
func Handlers(ctx context.Context, deps Deps) *chi.Mux {
	logger := httplog.NewLogger("simulator-api", httplog.Options{
		JSON: true,
	})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	// Simulator API routes
	r.Route("/v1", func(r chi.Router) {
		r.Get("/attempts", getAttempts(deps.Attempts).ServeHTTP)
		r.Get("/attempts/failed", getFailedAttempts(deps.Attempts).ServeHTTP)
		r.Get("/received", getReceived(deps.Receiver).ServeHTTP)
		r.Get("/alerts", getAlerts(deps.Alerts).ServeHTTP)
		r.Post("/replay/failed", postReplayFailed(deps.Replay).ServeHTTP)
		r.Post("/replay/{event_id}", postReplay(deps.Replay).ServeHTTP)
	})

	return r
}
