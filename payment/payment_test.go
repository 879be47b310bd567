package payment_test

import (
	"testing"
	"time"

	"github.com/marcelsud/webhook-simulator/payment"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	t.Run("fills defaults for zero fields", func(t *testing.T) {
		p := payment.New(payment.Payment{})

		assert.Contains(t, p.ID, "pay_")
		assert.Contains(t, p.MerchantID, "merch_")
		assert.Equal(t, "100.00", p.Amount)
		assert.Equal(t, "USD", p.Currency)
		assert.Equal(t, payment.Authorized, p.Status)
		assert.False(t, p.CreatedAt.IsZero())
		assert.NotNil(t, p.Metadata)
	})

	t.Run("keeps explicit overrides", func(t *testing.T) {
		created := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		p := payment.New(payment.Payment{
			ID:        "pay_custom",
			Amount:    "9.99",
			Currency:  "BRL",
			Status:    payment.Settled,
			CreatedAt: created,
			Metadata:  map[string]string{"order": "ord_1"},
		})

		assert.Equal(t, "pay_custom", p.ID)
		assert.Equal(t, "9.99", p.Amount)
		assert.Equal(t, "BRL", p.Currency)
		assert.Equal(t, payment.Settled, p.Status)
		assert.Equal(t, created, p.CreatedAt)
		assert.Equal(t, "ord_1", p.Metadata["order"])
	})
}

func TestStatus(t *testing.T) {
	t.Run("string representations round trip", func(t *testing.T) {
		statuses := []payment.Status{
			payment.Authorized,
			payment.Captured,
			payment.Declined,
			payment.Settled,
			payment.Chargeback,
		}
		for _, s := range statuses {
			assert.Equal(t, s, payment.NewStatus(s.String()))
		}
	})

	t.Run("unknown string falls back to authorized", func(t *testing.T) {
		assert.Equal(t, payment.Authorized, payment.NewStatus("REFUNDED"))
	})

	t.Run("validate rejects out-of-range values", func(t *testing.T) {
		assert.NoError(t, payment.Captured.Validate())
		assert.Error(t, payment.Status(0).Validate())
		assert.Error(t, payment.Status(42).Validate())
	})
}
