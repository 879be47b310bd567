package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/marcelsud/webhook-simulator/delivery"
	"github.com/marcelsud/webhook-simulator/metrics"
	"github.com/marcelsud/webhook-simulator/receiver"
	"github.com/marcelsud/webhook-simulator/replay"
)

/* HTTP layer DTOs for the operator API
 * Separate from domain entities to avoid leaking internal structure
 */

// attemptResponse represents a delivery attempt in the API
type attemptResponse struct {
	AttemptID      string  `json:"attempt_id"`
	EventID        string  `json:"event_id"`
	URL            string  `json:"url"`
	StatusCode     *int    `json:"status_code"`
	Timestamp      string  `json:"timestamp"`
	ResponseTimeMS float64 `json:"response_time_ms"`
	Error          string  `json:"error,omitempty"`
}

// replayRequest represents the body of a replay trigger
type replayRequest struct {
	URL string `json:"url"`
}

// replayResponse represents the result of replaying one event
type replayResponse struct {
	EventID  string            `json:"event_id"`
	Outcome  string            `json:"outcome"`
	Attempts []attemptResponse `json:"attempts"`
}

func toAttemptResponses(attempts []delivery.Attempt) []attemptResponse {
	out := make([]attemptResponse, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, attemptResponse{
			AttemptID:      a.ID,
			EventID:        a.EventID,
			URL:            a.URL,
			StatusCode:     a.StatusCode,
			Timestamp:      a.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
			ResponseTimeMS: float64(a.ResponseTime.Microseconds()) / 1000,
			Error:          a.Error,
		})
	}
	return out
}

// getAttempts handles GET /v1/attempts?event_id=...
func getAttempts(log *delivery.AttemptLog) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var attempts []delivery.Attempt
		if eventID := r.URL.Query().Get("event_id"); eventID != "" {
			attempts = log.ByEvent(eventID)
		} else {
			attempts = log.All()
		}

		writeResponse(w, toAttemptResponses(attempts))
	})
}

// getFailedAttempts handles GET /v1/attempts/failed
func getFailedAttempts(log *delivery.AttemptLog) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, toAttemptResponses(log.Failed()))
	})
}

// getReceived handles GET /v1/received
func getReceived(rcv *receiver.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, rcv.ReceivedEvents())
	})
}

// getAlerts handles GET /v1/alerts
func getAlerts(alerts *metrics.AlertManager) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, alerts.Alerts())
	})
}

// postReplay handles POST /v1/replay/{event_id}
func postReplay(mgr *replay.Manager) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "event_id")
		if eventID == "" {
			http.Error(w, "event_id is required", http.StatusBadRequest)
			return
		}

		var req replayRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
			http.Error(w, "url is required", http.StatusBadRequest)
			return
		}

		attempts, err := mgr.ReplayEvent(r.Context(), eventID, req.URL)
		if err != nil {
			if errors.Is(err, replay.ErrNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeResponse(w, replayResponse{
			EventID:  eventID,
			Outcome:  delivery.Outcome(attempts).String(),
			Attempts: toAttemptResponses(attempts),
		})
	})
}

// postReplayFailed handles POST /v1/replay/failed
func postReplayFailed(mgr *replay.Manager) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req replayRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
			http.Error(w, "url is required", http.StatusBadRequest)
			return
		}

		results, err := mgr.ReplayFailed(r.Context(), req.URL)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		responses := make([]replayResponse, 0, len(results))
		for eventID, attempts := range results {
			responses = append(responses, replayResponse{
				EventID:  eventID,
				Outcome:  delivery.Outcome(attempts).String(),
				Attempts: toAttemptResponses(attempts),
			})
		}

		writeResponse(w, responses)
	})
}

func writeResponse(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
