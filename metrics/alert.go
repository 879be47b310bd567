package metrics

import (
	"fmt"
	"sync"
)

// AlertTypeFailureRate identifies alerts raised for failure-rate breaches
const AlertTypeFailureRate = "webhook_failure_rate"

// Alert describes one threshold breach. Alerts are surfaced via return
// value and notifier only, never persisted.
type Alert struct {
	Type             string  `json:"type"`
	FailureRate      float64 `json:"failure_rate"`
	Threshold        float64 `json:"threshold"`
	TotalDeliveries  int     `json:"total_deliveries"`
	FailedDeliveries int     `json:"failed_deliveries"`
	Message          string  `json:"message"`
}

// Notifier observes alerts synchronously as they fire
type Notifier func(Alert)

/* AlertManager watches a Collector and fires threshold alerts
 * A fire-once latch: one alert per continuous breach period, re-armed only
 * after the rate drops back to or under the threshold
 */
type AlertManager struct {
	mu        sync.Mutex
	collector *Collector
	threshold float64
	notifier  Notifier
	fired     bool
	alerts    []Alert
}

// NewAlertManager creates an alert manager over the collector. A nil
// notifier is replaced with a no-op.
func NewAlertManager(collector *Collector, threshold float64, notifier Notifier) *AlertManager {
	if notifier == nil {
		notifier = func(Alert) {}
	}
	return &AlertManager{
		collector: collector,
		threshold: threshold,
		notifier:  notifier,
	}
}

// Check reads the current window and returns a new alert when the failure
// rate breaches the threshold for the first time in this breach period,
// nil otherwise. An empty window never alerts.
func (am *AlertManager) Check() *Alert {
	stats := am.collector.Snapshot()

	am.mu.Lock()
	defer am.mu.Unlock()

	if stats.Total == 0 {
		return nil
	}

	if stats.FailureRate <= am.threshold {
		// Rate is back at or under the threshold, re-arm the latch
		am.fired = false
		return nil
	}

	if am.fired {
		return nil
	}

	alert := Alert{
		Type:             AlertTypeFailureRate,
		FailureRate:      stats.FailureRate,
		Threshold:        am.threshold,
		TotalDeliveries:  stats.Total,
		FailedDeliveries: stats.Failures,
		Message: fmt.Sprintf(
			"webhook failure rate %.1f%% exceeds threshold %.1f%% (%d/%d deliveries failed)",
			stats.FailureRate*100, am.threshold*100, stats.Failures, stats.Total,
		),
	}
	am.fired = true
	am.alerts = append(am.alerts, alert)
	am.notifier(alert)
	return &alert
}

// Alerts returns a snapshot of the alert history
func (am *AlertManager) Alerts() []Alert {
	am.mu.Lock()
	defer am.mu.Unlock()
	out := make([]Alert, len(am.alerts))
	copy(out, am.alerts)
	return out
}

// Reset clears the latch and the alert history
func (am *AlertManager) Reset() {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.fired = false
	am.alerts = nil
}
