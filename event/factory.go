package event

import (
	"time"

	"github.com/google/uuid"
)

/* Params customizes a generated event
 * Zero fields fall back to simulation defaults, Extra is merged last and
 * wins over generated keys
 */
type Params struct {
	PaymentID         string
	Amount            string
	Currency          string
	Timestamp         time.Time
	AuthorizationCode string
	CapturedAmount    string
	DeclineCode       string
	DeclineMessage    string
	SoftDecline       *bool
	SettlementDate    string
	SettlementAmount  string
	PayoutCurrency    string
	Extra             map[string]any
}

// New creates an Event of the given type with a payload shaped for that type
func New(t Type, p Params) Event {
	if p.PaymentID == "" {
		p.PaymentID = "pay_" + uuid.New().String()
	}
	if p.Amount == "" {
		p.Amount = "100.00"
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now().UTC()
	}

	return Event{
		ID:        "evt_" + uuid.New().String(),
		PaymentID: p.PaymentID,
		Type:      t,
		Timestamp: p.Timestamp,
		Payload:   buildPayload(t, p),
	}
}

// buildPayload assembles the wire payload for an event type, starting from
// the base fields every notification carries
func buildPayload(t Type, p Params) map[string]any {
	payload := map[string]any{
		"payment_id": p.PaymentID,
		"status":     t.PaymentStatus().String(),
		"amount":     p.Amount,
		"currency":   p.Currency,
		"timestamp":  p.Timestamp.Format(time.RFC3339),
		"event_type": t.String(),
	}

	switch t {
	case Authorized:
		payload["authorization_code"] = defaultString(p.AuthorizationCode, "AUTH123456")
	case Captured:
		payload["captured_amount"] = defaultString(p.CapturedAmount, p.Amount)
	case Declined:
		payload["decline_code"] = defaultString(p.DeclineCode, "insufficient_funds")
		payload["decline_message"] = defaultString(p.DeclineMessage, "Insufficient funds")
		soft := true
		if p.SoftDecline != nil {
			soft = *p.SoftDecline
		}
		payload["is_soft_decline"] = soft
	case Settled:
		payload["settlement_date"] = defaultString(p.SettlementDate, p.Timestamp.Format("2006-01-02"))
		payload["settlement_amount"] = defaultString(p.SettlementAmount, p.Amount)
		payload["payout_currency"] = defaultString(p.PayoutCurrency, p.Currency)
	case Chargeback:
		payload["decline_code"] = defaultString(p.DeclineCode, "chargeback")
		payload["decline_message"] = defaultString(p.DeclineMessage, "Chargeback initiated by cardholder")
	}

	for key, value := range p.Extra {
		payload[key] = value
	}

	return payload
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
