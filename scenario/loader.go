package scenario

import (
	"fmt"
	"os"
	"time"

	"github.com/marcelsud/webhook-simulator/event"
	"gopkg.in/yaml.v3"
)

/* Loader manages scenario configuration from a YAML file
 * Provides in-memory lookup for fast access
 */

// Config represents the structure of the scenarios file
type Config struct {
	Scenarios []ScenarioConfig `yaml:"scenarios"`
}

// ScenarioConfig represents a single scenario in the YAML file
type ScenarioConfig struct {
	Name         string         `yaml:"name"`
	DelayFactor  float64        `yaml:"delay_factor"`
	ReplayFailed bool           `yaml:"replay_failed"`
	Receiver     ReceiverConfig `yaml:"receiver"`
	Steps        []StepConfig   `yaml:"steps"`
}

// ReceiverConfig represents the simulated merchant settings in the YAML file
type ReceiverConfig struct {
	ResponseCode    int    `yaml:"response_code"`     // Default: 200
	ResponseDelayMS int    `yaml:"response_delay_ms"` // Optional: artificial slowness
	Secret          string `yaml:"secret"`            // Optional: enables signature verification
	Idempotency     bool   `yaml:"idempotency"`
}

// StepConfig represents one event batch in the YAML file
type StepConfig struct {
	EventType string `yaml:"event_type"`
	PaymentID string `yaml:"payment_id"`
	Amount    string `yaml:"amount"`
	Currency  string `yaml:"currency"`
	Count     int    `yaml:"count"` // Default: 1
}

// Loader holds the loaded scenarios
type Loader struct {
	scenarios map[string]*Scenario
	order     []string
}

// NewLoader creates a new scenario loader
func NewLoader() *Loader {
	return &Loader{
		scenarios: make(map[string]*Scenario),
	}
}

// Load reads and parses the scenarios YAML file
func (l *Loader) Load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading scenarios file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("parsing scenarios YAML: %w", err)
	}

	// Convert and validate scenarios
	for _, sc := range config.Scenarios {
		// Set default response code to 200 if not specified
		responseCode := sc.Receiver.ResponseCode
		if responseCode == 0 {
			responseCode = 200
		}

		steps := make([]Step, 0, len(sc.Steps))
		for _, step := range sc.Steps {
			count := step.Count
			if count == 0 {
				count = 1
			}
			steps = append(steps, Step{
				Type:      event.NewType(step.EventType),
				PaymentID: step.PaymentID,
				Amount:    step.Amount,
				Currency:  step.Currency,
				Count:     count,
			})
		}

		scenario := &Scenario{
			Name:         sc.Name,
			DelayFactor:  sc.DelayFactor,
			ReplayFailed: sc.ReplayFailed,
			Receiver: Receiver{
				ResponseCode:  responseCode,
				ResponseDelay: time.Duration(sc.Receiver.ResponseDelayMS) * time.Millisecond,
				Secret:        sc.Receiver.Secret,
				Idempotency:   sc.Receiver.Idempotency,
			},
			Steps: steps,
		}

		if err := scenario.Validate(); err != nil {
			return fmt.Errorf("validating scenario: %w", err)
		}

		if _, exists := l.scenarios[scenario.Name]; !exists {
			l.order = append(l.order, scenario.Name)
		}
		l.scenarios[scenario.Name] = scenario
	}

	return nil
}

// Get retrieves a scenario by its name
func (l *Loader) Get(name string) (*Scenario, error) {
	scenario, exists := l.scenarios[name]
	if !exists {
		return nil, fmt.Errorf("scenario not found: %s", name)
	}
	return scenario, nil
}

// List returns all loaded scenarios in file order
func (l *Loader) List() []*Scenario {
	scenarios := make([]*Scenario, 0, len(l.scenarios))
	for _, name := range l.order {
		scenarios = append(scenarios, l.scenarios[name])
	}
	return scenarios
}

// Exists checks if a scenario name exists
func (l *Loader) Exists(name string) bool {
	_, exists := l.scenarios[name]
	return exists
}
