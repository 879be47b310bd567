package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock lets tests advance time without sleeping
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCollector(window time.Duration) (*Collector, *fakeClock) {
	clock := newFakeClock()
	c := NewCollector(window)
	c.now = clock.Now
	return c, clock
}

func TestCollector(t *testing.T) {
	t.Run("empty window reports zero rate", func(t *testing.T) {
		c, _ := newTestCollector(5 * time.Minute)

		assert.Equal(t, 0.0, c.FailureRate())
		assert.Equal(t, 0, c.TotalInWindow())
	})

	t.Run("counts successes and failures", func(t *testing.T) {
		c, _ := newTestCollector(5 * time.Minute)
		c.RecordSuccess()
		c.RecordSuccess()
		c.RecordFailure()

		stats := c.Snapshot()
		assert.Equal(t, 2, stats.Successes)
		assert.Equal(t, 1, stats.Failures)
		assert.Equal(t, 3, stats.Total)
		assert.InDelta(t, 1.0/3.0, stats.FailureRate, 0.0001)

		assert.Equal(t, 2, c.SuccessCountInWindow())
		assert.Equal(t, 1, c.FailureCountInWindow())
	})

	t.Run("outcomes age out of the window", func(t *testing.T) {
		c, clock := newTestCollector(5 * time.Minute)

		c.RecordFailure()
		clock.Advance(3 * time.Minute)
		c.RecordFailure()
		c.RecordSuccess()

		assert.Equal(t, 3, c.TotalInWindow())

		// Past the first failure's expiry, inside the later outcomes' window
		clock.Advance(3 * time.Minute)
		stats := c.Snapshot()
		assert.Equal(t, 2, stats.Total)
		assert.Equal(t, 1, stats.Failures)
		assert.InDelta(t, 0.5, stats.FailureRate, 0.0001)

		clock.Advance(10 * time.Minute)
		assert.Equal(t, 0, c.TotalInWindow())
		assert.Equal(t, 0.0, c.FailureRate())
	})

	t.Run("timestamp exactly at the cutoff is kept", func(t *testing.T) {
		c, clock := newTestCollector(5 * time.Minute)

		c.RecordSuccess()
		clock.Advance(5 * time.Minute)

		assert.Equal(t, 1, c.TotalInWindow())
	})

	t.Run("non-positive window falls back to the default", func(t *testing.T) {
		c := NewCollector(0)
		assert.Equal(t, DefaultWindow, c.window)
	})

	t.Run("reset clears both sequences", func(t *testing.T) {
		c, _ := newTestCollector(5 * time.Minute)
		c.RecordSuccess()
		c.RecordFailure()

		c.Reset()
		assert.Equal(t, 0, c.TotalInWindow())
	})

	t.Run("safe under concurrent recording", func(t *testing.T) {
		c := NewCollector(5 * time.Minute)

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				if n%2 == 0 {
					c.RecordSuccess()
				} else {
					c.RecordFailure()
				}
			}(i)
		}
		wg.Wait()

		stats := c.Snapshot()
		assert.Equal(t, 50, stats.Total)
		assert.Equal(t, 25, stats.Failures)
	})
}
