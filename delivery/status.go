package delivery

import "fmt"

/* Status represents the current state of a webhook delivery
 * Follows the lifecycle: Pending -> Retrying -> Delivered/Failed
 */
type Status int

const (
	Pending Status = iota + 1
	Delivered
	Failed
	Retrying
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Delivered:
		return "delivered"
	case Failed:
		return "failed"
	case Retrying:
		return "retrying"
	default:
		return "unknown"
	}
}

// Validate checks if the status is valid
func (s Status) Validate() error {
	if s < Pending || s > Retrying {
		return fmt.Errorf("invalid status: %d", s)
	}
	return nil
}

// IsFinal returns true if the status is a terminal state
func (s Status) IsFinal() bool {
	return s == Delivered || s == Failed
}

// Outcome maps an ordered attempt sequence to its overall delivery status:
// the last attempt decides
func Outcome(attempts []Attempt) Status {
	if len(attempts) == 0 {
		return Pending
	}
	if attempts[len(attempts)-1].IsSuccess() {
		return Delivered
	}
	return Failed
}
