package delivery

import "time"

// Transport failure classifications recorded on attempts without a status code
const (
	ErrorTimeout         = "timeout"
	ErrorConnectionError = "connection_error"
)

/* Attempt records one HTTP call transmitting an event to a destination URL
 * Uses value semantics as it represents data, not behavior
 * Created once per HTTP call and never mutated afterwards
 */
type Attempt struct {
	ID           string
	EventID      string
	URL          string
	StatusCode   *int // nil when the call failed before an HTTP response
	Timestamp    time.Time
	ResponseTime time.Duration
	Error        string // classified transport error, empty when a response arrived
}

// IsSuccess returns true when the attempt got a 2xx response
func (a Attempt) IsSuccess() bool {
	return a.StatusCode != nil && *a.StatusCode >= 200 && *a.StatusCode < 300
}

// IsFailure returns true when the attempt got no response or a >=400 response
func (a Attempt) IsFailure() bool {
	return a.StatusCode == nil || *a.StatusCode >= 400
}
