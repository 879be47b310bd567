package delivery

import "time"

// DefaultSchedule is the backoff delay before each retry: 30s, 5m, 30m, 2h
var DefaultSchedule = []time.Duration{
	30 * time.Second,
	5 * time.Minute,
	30 * time.Minute,
	2 * time.Hour,
}

// noRetryCodes are 4xx codes that never trigger a retry. Every other
// non-5xx, non-2xx code (including 429) does not retry either; only nil
// status and 5xx do.
var noRetryCodes = map[int]struct{}{
	400: {},
	401: {},
	404: {},
	422: {},
}

/* RetryManager holds the retry decision and backoff scheduling policy
 * Pure and deterministic: no side effects, safe for concurrent use
 */
type RetryManager struct {
	Schedule   []time.Duration
	MaxRetries int
}

// NewRetryManager creates a RetryManager with the default schedule and a
// retry budget equal to the schedule length
func NewRetryManager() *RetryManager {
	return &RetryManager{
		Schedule:   DefaultSchedule,
		MaxRetries: len(DefaultSchedule),
	}
}

// ShouldRetry reports whether a delivery with the given status code should
// be retried. A nil status code means a transport failure and always
// retries; 5xx retries; 2xx and the no-retry 4xx set never do.
func (rm *RetryManager) ShouldRetry(statusCode *int) bool {
	if statusCode == nil {
		return true
	}
	code := *statusCode
	if code >= 200 && code < 300 {
		return false
	}
	if _, ok := noRetryCodes[code]; ok {
		return false
	}
	return code >= 500
}

// NextDelay returns the backoff delay before retry number attempt
// (0-indexed), clamping to the last schedule entry past the end
func (rm *RetryManager) NextDelay(attempt int) time.Duration {
	if len(rm.Schedule) == 0 {
		return 0
	}
	if attempt >= len(rm.Schedule) {
		return rm.Schedule[len(rm.Schedule)-1]
	}
	return rm.Schedule[attempt]
}

// HasAttemptsRemaining reports whether retry number attempt (0-indexed) is
// still within the retry budget
func (rm *RetryManager) HasAttemptsRemaining(attempt int) bool {
	return attempt < rm.MaxRetries
}
