package delivery

import "sync"

/* AttemptLog is a thread-safe append-only store of delivery attempts
 * All mutation and iteration happen under one mutex; no method calls
 * another while holding the lock, so there is no deadlock risk
 * Query methods return snapshot copies, never live views
 */
type AttemptLog struct {
	mu       sync.Mutex
	attempts []Attempt
}

// NewAttemptLog creates an empty attempt log
func NewAttemptLog() *AttemptLog {
	return &AttemptLog{}
}

// Log appends an attempt to the history
func (l *AttemptLog) Log(attempt Attempt) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts = append(l.attempts, attempt)
}

// All returns every logged attempt in insertion order
func (l *AttemptLog) All() []Attempt {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Attempt, len(l.attempts))
	copy(out, l.attempts)
	return out
}

// ByEvent returns the attempts for one event id in insertion order
func (l *AttemptLog) ByEvent(eventID string) []Attempt {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Attempt
	for _, a := range l.attempts {
		if a.EventID == eventID {
			out = append(out, a)
		}
	}
	return out
}

// Failed returns every attempt that got no response or a >=400 response
func (l *AttemptLog) Failed() []Attempt {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Attempt
	for _, a := range l.attempts {
		if a.IsFailure() {
			out = append(out, a)
		}
	}
	return out
}

// Clear removes all logged attempts
func (l *AttemptLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts = nil
}
