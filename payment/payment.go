package payment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

/* Status represents the lifecycle state of a payment
 * Follows the lifecycle: Authorized -> Captured -> Settled, or Declined/Chargeback
 */
type Status int

const (
	Authorized Status = iota + 1
	Captured
	Declined
	Settled
	Chargeback
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case Authorized:
		return "AUTHORIZED"
	case Captured:
		return "CAPTURED"
	case Declined:
		return "DECLINED"
	case Settled:
		return "SETTLED"
	case Chargeback:
		return "CHARGEBACK"
	default:
		return "UNKNOWN"
	}
}

// NewStatus creates a Status from a string
func NewStatus(str string) Status {
	switch str {
	case "AUTHORIZED":
		return Authorized
	case "CAPTURED":
		return Captured
	case "DECLINED":
		return Declined
	case "SETTLED":
		return Settled
	case "CHARGEBACK":
		return Chargeback
	default:
		return Authorized
	}
}

// Validate checks if the status is valid
func (s Status) Validate() error {
	if s < Authorized || s > Chargeback {
		return fmt.Errorf("invalid payment status: %d", s)
	}
	return nil
}

/* Payment represents a payment record the webhook notifications describe
 * Uses value semantics as it represents data, not behavior
 * Amount is kept as a decimal string to avoid float rounding on the wire
 */
type Payment struct {
	ID         string
	Amount     string
	Currency   string
	Status     Status
	MerchantID string
	CreatedAt  time.Time
	Metadata   map[string]string
}

// New creates a Payment with simulation defaults for any zero field
func New(overrides Payment) Payment {
	p := overrides
	if p.ID == "" {
		p.ID = "pay_" + uuid.New().String()
	}
	if p.Amount == "" {
		p.Amount = "100.00"
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}
	if p.Status == 0 {
		p.Status = Authorized
	}
	if p.MerchantID == "" {
		p.MerchantID = "merch_" + uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Metadata == nil {
		p.Metadata = map[string]string{}
	}
	return p
}
