package replay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/marcelsud/webhook-simulator/delivery"
	"github.com/marcelsud/webhook-simulator/event"
)

// ErrNotFound is returned when replaying an event id that was never registered
var ErrNotFound = errors.New("event not registered for replay")

// ReplayMarker is the payload key added to every replayed delivery
const ReplayMarker = "_replay"

// Deliverer redelivers events; implemented by delivery.Engine
type Deliverer interface {
	DeliverWithRetry(ctx context.Context, ev event.Event, url string, delayFactor float64) ([]delivery.Attempt, error)
}

/* Manager re-sends previously registered webhook events
 * Registered events are kept in an in-memory map keyed by event id,
 * last registration wins
 */
type Manager struct {
	mu     sync.Mutex
	engine Deliverer
	log    *delivery.AttemptLog
	events map[string]event.Event
}

// NewManager creates a replay manager over the engine and its attempt log
func NewManager(engine Deliverer, log *delivery.AttemptLog) *Manager {
	return &Manager{
		engine: engine,
		log:    log,
		events: make(map[string]event.Event),
	}
}

// Register stores an event for potential replay, overwriting any previous
// registration for the same id
func (m *Manager) Register(ev event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[ev.ID] = ev
}

// ReplayEvent redelivers a registered event to the given URL. The replayed
// payload is a copy carrying the replay marker; the original event is never
// mutated. Backoff waits are disabled so replay stays synchronous and fast.
func (m *Manager) ReplayEvent(ctx context.Context, eventID, url string) ([]delivery.Attempt, error) {
	m.mu.Lock()
	ev, ok := m.events[eventID]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("replaying event %s: %w", eventID, ErrNotFound)
	}

	payload := make(map[string]any, len(ev.Payload)+1)
	for key, value := range ev.Payload {
		payload[key] = value
	}
	payload[ReplayMarker] = true

	replayEvent := event.Event{
		ID:        ev.ID,
		PaymentID: ev.PaymentID,
		Type:      ev.Type,
		Timestamp: ev.Timestamp,
		Payload:   payload,
	}

	return m.engine.DeliverWithRetry(ctx, replayEvent, url, 0)
}

// ReplayFailed redelivers every registered event that has at least one
// failed attempt in the log, each exactly once. Failed events that were
// never registered are silently skipped.
func (m *Manager) ReplayFailed(ctx context.Context, url string) (map[string][]delivery.Attempt, error) {
	failedIDs := make(map[string]struct{})
	for _, attempt := range m.log.Failed() {
		failedIDs[attempt.EventID] = struct{}{}
	}

	results := make(map[string][]delivery.Attempt)
	for eventID := range failedIDs {
		m.mu.Lock()
		_, registered := m.events[eventID]
		m.mu.Unlock()
		if !registered {
			continue
		}

		attempts, err := m.ReplayEvent(ctx, eventID, url)
		if err != nil {
			return results, fmt.Errorf("replaying failed event %s: %w", eventID, err)
		}
		results[eventID] = attempts
	}

	return results, nil
}

// RegisteredEvents returns a snapshot of the registered events by id
func (m *Manager) RegisteredEvents() map[string]event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]event.Event, len(m.events))
	for id, ev := range m.events {
		out[id] = ev
	}
	return out
}
