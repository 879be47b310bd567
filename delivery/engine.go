package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/marcelsud/webhook-simulator/event"
	"github.com/marcelsud/webhook-simulator/signature"
)

// Recorder receives per-attempt delivery outcomes. A 2xx response counts as
// a success, everything else as a failure.
type Recorder interface {
	RecordSuccess()
	RecordFailure()
}

/* Engine delivers webhook events to merchant endpoints with retry support
 * Holds no mutable per-call state, so concurrent deliveries for different
 * events do not interfere; each DeliverWithRetry occupies its goroutine
 * for its full duration including backoff waits
 */
type Engine struct {
	signer *signature.Signer
	retry  *RetryManager
	log    *AttemptLog
	client *http.Client

	// Metrics is fed one outcome per attempt when set
	Metrics Recorder
}

// NewEngine creates an Engine with a bounded per-attempt timeout
func NewEngine(signer *signature.Signer, retry *RetryManager, log *AttemptLog, timeout time.Duration) *Engine {
	return &Engine{
		signer: signer,
		retry:  retry,
		log:    log,
		client: &http.Client{Timeout: timeout},
	}
}

// Deliver issues a single signed HTTP POST for the event and returns the
// logged attempt. Transport failure is represented as data on the attempt
// (nil status code plus a classified error string), not as an error; the
// error return covers request construction only.
func (e *Engine) Deliver(ctx context.Context, ev event.Event, targetURL string) (Attempt, error) {
	sig, err := e.signer.Sign(ev.Payload)
	if err != nil {
		return Attempt{}, fmt.Errorf("signing payload: %w", err)
	}

	body, err := json.Marshal(ev.Payload)
	if err != nil {
		return Attempt{}, fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewReader(body))
	if err != nil {
		return Attempt{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(event.HeaderSignature, sig)
	req.Header.Set(event.HeaderEventID, ev.ID)
	req.Header.Set(event.HeaderEventType, ev.Type.String())

	var statusCode *int
	var errStr string

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		errStr = classifyTransportError(err)
	} else {
		code := resp.StatusCode
		statusCode = &code
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}

	attempt := Attempt{
		ID:           "att_" + uuid.New().String(),
		EventID:      ev.ID,
		URL:          targetURL,
		StatusCode:   statusCode,
		Timestamp:    time.Now().UTC(),
		ResponseTime: time.Since(start),
		Error:        errStr,
	}
	e.log.Log(attempt)

	if e.Metrics != nil {
		if attempt.IsSuccess() {
			e.Metrics.RecordSuccess()
		} else {
			e.Metrics.RecordFailure()
		}
	}

	return attempt, nil
}

// DeliverWithRetry delivers the event, retrying failures according to the
// retry policy. Backoff delays are multiplied by delayFactor; a factor of 0
// skips the waits entirely, which replay and tests rely on for determinism.
// The returned sequence always has at least one attempt and its last
// element decides the overall outcome. Cancelling the context during a
// backoff wait stops the loop and returns the attempts made so far.
func (e *Engine) DeliverWithRetry(ctx context.Context, ev event.Event, targetURL string, delayFactor float64) ([]Attempt, error) {
	var attempts []Attempt
	retryCount := 0

	for {
		attempt, err := e.Deliver(ctx, ev, targetURL)
		if err != nil {
			return attempts, err
		}
		attempts = append(attempts, attempt)

		if attempt.IsSuccess() {
			break
		}
		if !e.retry.ShouldRetry(attempt.StatusCode) {
			break
		}
		if !e.retry.HasAttemptsRemaining(retryCount) {
			break
		}

		delay := time.Duration(float64(e.retry.NextDelay(retryCount)) * delayFactor)
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return attempts, ctx.Err()
			}
		}

		retryCount++
	}

	return attempts, nil
}

// classifyTransportError maps a transport failure to its classified error
// string: "timeout", "connection_error", or the raw error text
func classifyTransportError(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return ErrorTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return ErrorConnectionError
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrorConnectionError
	}
	return err.Error()
}
