package metrics

import (
	"sync"
	"time"
)

// DefaultWindow is the rolling window width used when none is configured
const DefaultWindow = 5 * time.Minute

// WindowStats is a consistent snapshot of the rolling window
type WindowStats struct {
	Successes   int
	Failures    int
	Total       int
	FailureRate float64
}

/* Collector keeps rolling time-window counters of delivery outcomes
 * Two ordered timestamp sequences, pruned lazily against "now" at read
 * time; no background scheduling. All access goes through one mutex.
 */
type Collector struct {
	mu        sync.Mutex
	window    time.Duration
	successes []time.Time
	failures  []time.Time

	now func() time.Time // overridable in tests
}

// NewCollector creates a collector with the given rolling window width
func NewCollector(window time.Duration) *Collector {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Collector{
		window: window,
		now:    time.Now,
	}
}

// RecordSuccess records one successful delivery at the current time
func (c *Collector) RecordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.successes = append(c.successes, c.now())
}

// RecordFailure records one failed delivery at the current time
func (c *Collector) RecordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, c.now())
}

// Snapshot prunes both sequences and returns consistent window counts
func (c *Collector) Snapshot() WindowStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prune()

	stats := WindowStats{
		Successes: len(c.successes),
		Failures:  len(c.failures),
	}
	stats.Total = stats.Successes + stats.Failures
	if stats.Total > 0 {
		stats.FailureRate = float64(stats.Failures) / float64(stats.Total)
	}
	return stats
}

// FailureRate returns failures/total within the window, or 0.0 when the
// window is empty
func (c *Collector) FailureRate() float64 {
	return c.Snapshot().FailureRate
}

// TotalInWindow returns the number of outcomes within the window
func (c *Collector) TotalInWindow() int {
	return c.Snapshot().Total
}

// FailureCountInWindow returns the number of failures within the window
func (c *Collector) FailureCountInWindow() int {
	return c.Snapshot().Failures
}

// SuccessCountInWindow returns the number of successes within the window
func (c *Collector) SuccessCountInWindow() int {
	return c.Snapshot().Successes
}

// Reset clears both sequences
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.successes = nil
	c.failures = nil
}

// prune drops timestamps older than the window. Caller holds the lock.
func (c *Collector) prune() {
	cutoff := c.now().Add(-c.window)
	c.successes = pruneBefore(c.successes, cutoff)
	c.failures = pruneBefore(c.failures, cutoff)
}

// pruneBefore keeps the suffix of an ordered timestamp sequence at or after
// cutoff
func pruneBefore(ts []time.Time, cutoff time.Time) []time.Time {
	for i, t := range ts {
		if !t.Before(cutoff) {
			return ts[i:]
		}
	}
	return nil
}
