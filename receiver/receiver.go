package receiver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/webhook-simulator/event"
	"github.com/marcelsud/webhook-simulator/signature"
)

/* Record is one webhook accepted by the merchant endpoint
 * At most one record exists per event id when idempotency is enabled
 */
type Record struct {
	EventID string            `json:"event_id"`
	Payload map[string]any    `json:"payload"`
	Headers map[string]string `json:"headers"`
}

/* Server simulates a configurable merchant webhook receiver
 * All shared state (received history, processed-id set, runtime settings)
 * lives on the server and is guarded by one mutex; handlers get the server
 * injected, there is no ambient global state
 */
type Server struct {
	mu            sync.Mutex
	received      []Record
	processed     map[string]struct{}
	responseCode  int
	responseDelay time.Duration
	secret        string
	idempotency   bool

	addr string
	ln   net.Listener
	srv  *http.Server
}

// NewServer creates a stopped receiver. An empty addr binds 127.0.0.1 on an
// ephemeral port.
func NewServer(addr string) *Server {
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	return &Server{
		processed:    make(map[string]struct{}),
		responseCode: http.StatusOK,
		addr:         addr,
	}
}

// SetResponseCode overrides the status code returned for accepted webhooks
func (s *Server) SetResponseCode(code int) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responseCode = code
	return s
}

// SetResponseDelay adds an artificial delay before any request processing,
// simulating a slow merchant
func (s *Server) SetResponseDelay(d time.Duration) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responseDelay = d
	return s
}

// EnableSignatureVerification requires a valid payload signature on every
// request. An empty secret disables verification.
func (s *Server) EnableSignatureVerification(secret string) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret = secret
	return s
}

// EnableIdempotency turns on duplicate suppression keyed by the event id header
func (s *Server) EnableIdempotency() *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idempotency = true
	return s
}

// Router builds the receiver's HTTP routes
func (s *Server) Router() *chi.Mux {
	logger := httplog.NewLogger("merchant-receiver", httplog.Options{
		JSON: true,
	})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})
	r.Post("/webhook", s.handleWebhook)

	return r
}

// Start binds the listener and serves in a background goroutine
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go s.srv.Serve(ln)
	return nil
}

// Stop gracefully shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down receiver: %w", err)
	}
	return nil
}

// URL returns the webhook endpoint URL of a started server
func (s *Server) URL() string {
	return fmt.Sprintf("http://%s/webhook", s.ln.Addr().String())
}

// HealthURL returns the health endpoint URL of a started server
func (s *Server) HealthURL() string {
	return fmt.Sprintf("http://%s/health", s.ln.Addr().String())
}

// ReceivedEvents returns a snapshot of the accepted webhooks in arrival order
func (s *Server) ReceivedEvents() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.received))
	copy(out, s.received)
	return out
}

// ProcessedCount returns the number of accepted webhooks
func (s *Server) ProcessedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.received)
}

// WasProcessed reports whether an event id has been accepted
func (s *Server) WasProcessed(eventID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.processed[eventID]
	return ok
}

// ClearEvents drops the received history and the processed-id set
func (s *Server) ClearEvents() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = nil
	s.processed = make(map[string]struct{})
}

// handleWebhook runs the validation pipeline; each step may short-circuit
// with an HTTP error response
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	responseCode := s.responseCode
	responseDelay := s.responseDelay
	secret := s.secret
	idempotency := s.idempotency
	s.mu.Unlock()

	if responseDelay > 0 {
		time.Sleep(responseDelay)
	}

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON"})
		return
	}

	if missing := event.MissingFields(payload); len(missing) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": fmt.Sprintf("missing fields: %v", missing)})
		return
	}

	if !validAmount(payload["amount"]) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid amount"})
		return
	}

	if secret != "" {
		sig := r.Header.Get(event.HeaderSignature)
		if sig == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "missing signature"})
			return
		}
		valid, err := signature.New(secret).Verify(payload, sig)
		if err != nil || !valid {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid signature"})
			return
		}
	}

	eventID := r.Header.Get(event.HeaderEventID)
	headers := make(map[string]string)
	for key, values := range r.Header {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	// Duplicate check and insert form a single critical section so two
	// concurrent identical deliveries cannot both pass the check
	s.mu.Lock()
	if idempotency && eventID != "" {
		if _, done := s.processed[eventID]; done {
			s.mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]any{"status": "already_processed"})
			return
		}
	}
	s.received = append(s.received, Record{
		EventID: eventID,
		Payload: payload,
		Headers: headers,
	})
	if eventID != "" {
		s.processed[eventID] = struct{}{}
	}
	s.mu.Unlock()

	if responseCode >= 200 && responseCode < 300 {
		writeJSON(w, responseCode, map[string]any{"status": "ok"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(responseCode)
}

// validAmount accepts a JSON number or a string coercible to one
func validAmount(v any) bool {
	switch amount := v.(type) {
	case float64:
		return true
	case json.Number:
		_, err := amount.Float64()
		return err == nil
	case string:
		_, err := strconv.ParseFloat(amount, 64)
		return err == nil
	default:
		return false
	}
}

func writeJSON(w http.ResponseWriter, code int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
