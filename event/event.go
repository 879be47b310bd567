package event

import (
	"fmt"
	"time"

	"github.com/marcelsud/webhook-simulator/payment"
)

// HTTP headers carried by every webhook delivery
const (
	HeaderSignature = "X-Webhook-Signature"
	HeaderEventID   = "X-Event-ID"
	HeaderEventType = "X-Event-Type"
)

// RequiredFields are the payload keys every webhook notification must carry
var RequiredFields = []string{"payment_id", "event_type", "amount", "currency", "timestamp", "status"}

/* Type represents the kind of payment notification an event carries
 * A closed set: each type shapes its own payload fields
 */
type Type int

const (
	Authorized Type = iota + 1
	Captured
	Declined
	Settled
	Chargeback
)

// String returns the wire representation of the event type
func (t Type) String() string {
	switch t {
	case Authorized:
		return "payment.authorized"
	case Captured:
		return "payment.captured"
	case Declined:
		return "payment.declined"
	case Settled:
		return "payment.settled"
	case Chargeback:
		return "payment.chargeback"
	default:
		return "unknown"
	}
}

// NewType creates a Type from its wire representation
func NewType(s string) Type {
	switch s {
	case "payment.authorized":
		return Authorized
	case "payment.captured":
		return Captured
	case "payment.declined":
		return Declined
	case "payment.settled":
		return Settled
	case "payment.chargeback":
		return Chargeback
	default:
		return Type(0)
	}
}

// Validate checks if the event type is valid
func (t Type) Validate() error {
	if t < Authorized || t > Chargeback {
		return fmt.Errorf("invalid event type: %d", t)
	}
	return nil
}

// PaymentStatus returns the payment lifecycle state the event type reports
func (t Type) PaymentStatus() payment.Status {
	switch t {
	case Authorized:
		return payment.Authorized
	case Captured:
		return payment.Captured
	case Declined:
		return payment.Declined
	case Settled:
		return payment.Settled
	case Chargeback:
		return payment.Chargeback
	default:
		return payment.Status(0)
	}
}

/* Event represents one payment-lifecycle notification
 * Uses value semantics as it represents data, not behavior
 * Immutable once created: replay derives a copy, never mutates the original
 */
type Event struct {
	ID        string
	PaymentID string
	Type      Type
	Timestamp time.Time
	Payload   map[string]any
	Signature string
}

// MissingFields returns the required payload keys absent from payload, in
// RequiredFields order
func MissingFields(payload map[string]any) []string {
	var missing []string
	for _, field := range RequiredFields {
		if _, ok := payload[field]; !ok {
			missing = append(missing, field)
		}
	}
	return missing
}
