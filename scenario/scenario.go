package scenario

import (
	"fmt"
	"time"

	"github.com/marcelsud/webhook-simulator/event"
)

/* Scenario describes one simulation run: how the simulated merchant
 * behaves and which events the delivery engine drives at it
 */
type Scenario struct {
	Name         string
	DelayFactor  float64 // multiplier on retry backoff; 0 skips waits
	ReplayFailed bool    // replay failed deliveries after the run
	Receiver     Receiver
	Steps        []Step
}

// Receiver holds the simulated merchant settings for a scenario
type Receiver struct {
	ResponseCode  int // Default: 200
	ResponseDelay time.Duration
	Secret        string // empty disables signature verification
	Idempotency   bool
}

// Step is one batch of generated events of a single type
type Step struct {
	Type      event.Type
	PaymentID string // empty generates a fresh payment id per event
	Amount    string
	Currency  string
	Count     int // Default: 1
}

// Validate checks if the scenario configuration is valid
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if s.DelayFactor < 0 {
		return fmt.Errorf("delay_factor cannot be negative for scenario %s", s.Name)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario %s has no steps", s.Name)
	}
	if s.Receiver.ResponseCode < 200 || s.Receiver.ResponseCode > 599 {
		return fmt.Errorf("response_code must be between 200 and 599 for scenario %s (got %d)", s.Name, s.Receiver.ResponseCode)
	}
	if s.Receiver.ResponseDelay < 0 {
		return fmt.Errorf("response_delay_ms cannot be negative for scenario %s", s.Name)
	}
	for i, step := range s.Steps {
		if err := step.Type.Validate(); err != nil {
			return fmt.Errorf("invalid event_type in step %d of scenario %s: %w", i+1, s.Name, err)
		}
		if step.Count < 1 {
			return fmt.Errorf("count must be at least 1 in step %d of scenario %s (got %d)", i+1, s.Name, step.Count)
		}
	}
	return nil
}
