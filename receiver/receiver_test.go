package receiver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/marcelsud/webhook-simulator/event"
	"github.com/marcelsud/webhook-simulator/receiver"
	"github.com/marcelsud/webhook-simulator/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPayload() map[string]any {
	return map[string]any{
		"payment_id": "pay_123",
		"event_type": "payment.authorized",
		"amount":     "100.00",
		"currency":   "USD",
		"timestamp":  "2024-01-01T12:00:00Z",
		"status":     "AUTHORIZED",
	}
}

func postWebhook(t *testing.T, url string, payload map[string]any, headers map[string]string) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHandleWebhook(t *testing.T) {
	t.Run("success - accepts a valid payload", func(t *testing.T) {
		s := receiver.NewServer("")
		ts := httptest.NewServer(s.Router())
		defer ts.Close()

		resp := postWebhook(t, ts.URL+"/webhook", validPayload(), map[string]string{
			event.HeaderEventID:   "evt_1",
			event.HeaderEventType: "payment.authorized",
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ok", decodeBody(t, resp)["status"])

		records := s.ReceivedEvents()
		require.Len(t, records, 1)
		assert.Equal(t, "evt_1", records[0].EventID)
		assert.Equal(t, "pay_123", records[0].Payload["payment_id"])
		assert.Equal(t, "payment.authorized", records[0].Headers[event.HeaderEventType])
		assert.True(t, s.WasProcessed("evt_1"))
		assert.Equal(t, 1, s.ProcessedCount())
	})

	t.Run("error - malformed JSON body", func(t *testing.T) {
		s := receiver.NewServer("")
		ts := httptest.NewServer(s.Router())
		defer ts.Close()

		resp, err := http.Post(ts.URL+"/webhook", "application/json", bytes.NewBufferString("{not json"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "invalid JSON", decodeBody(t, resp)["error"])
		assert.Empty(t, s.ReceivedEvents())
	})

	t.Run("error - missing required fields", func(t *testing.T) {
		s := receiver.NewServer("")
		ts := httptest.NewServer(s.Router())
		defer ts.Close()

		payload := validPayload()
		delete(payload, "currency")
		delete(payload, "status")

		resp := postWebhook(t, ts.URL+"/webhook", payload, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Contains(t, body["error"], "missing fields")
		assert.Contains(t, body["error"], "currency")
		assert.Empty(t, s.ReceivedEvents())
	})

	t.Run("error - amount not coercible to a number", func(t *testing.T) {
		s := receiver.NewServer("")
		ts := httptest.NewServer(s.Router())
		defer ts.Close()

		payload := validPayload()
		payload["amount"] = "a-lot"

		resp := postWebhook(t, ts.URL+"/webhook", payload, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "invalid amount", decodeBody(t, resp)["error"])
	})

	t.Run("numeric amounts are accepted", func(t *testing.T) {
		s := receiver.NewServer("")
		ts := httptest.NewServer(s.Router())
		defer ts.Close()

		payload := validPayload()
		payload["amount"] = 100.5

		resp := postWebhook(t, ts.URL+"/webhook", payload, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestSignatureVerification(t *testing.T) {
	const secret = "merchant-secret"

	newSignedServer := func() (*receiver.Server, *httptest.Server) {
		s := receiver.NewServer("").EnableSignatureVerification(secret)
		return s, httptest.NewServer(s.Router())
	}

	t.Run("success - valid signature", func(t *testing.T) {
		s, ts := newSignedServer()
		defer ts.Close()

		payload := validPayload()
		sig, err := signature.New(secret).Sign(payload)
		require.NoError(t, err)

		resp := postWebhook(t, ts.URL+"/webhook", payload, map[string]string{
			event.HeaderSignature: sig,
			event.HeaderEventID:   "evt_signed",
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
		assert.Equal(t, 1, s.ProcessedCount())
	})

	t.Run("error - signature header absent", func(t *testing.T) {
		s, ts := newSignedServer()
		defer ts.Close()

		resp := postWebhook(t, ts.URL+"/webhook", validPayload(), nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "missing signature", decodeBody(t, resp)["error"])
		assert.Empty(t, s.ReceivedEvents())
	})

	t.Run("error - signature does not match payload", func(t *testing.T) {
		s, ts := newSignedServer()
		defer ts.Close()

		payload := validPayload()
		sig, err := signature.New(secret).Sign(payload)
		require.NoError(t, err)
		payload["amount"] = "999.99"

		resp := postWebhook(t, ts.URL+"/webhook", payload, map[string]string{
			event.HeaderSignature: sig,
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "invalid signature", decodeBody(t, resp)["error"])
		assert.Empty(t, s.ReceivedEvents())
	})

	t.Run("error - signed with a different secret", func(t *testing.T) {
		_, ts := newSignedServer()
		defer ts.Close()

		payload := validPayload()
		sig, err := signature.New("other-secret").Sign(payload)
		require.NoError(t, err)

		resp := postWebhook(t, ts.URL+"/webhook", payload, map[string]string{
			event.HeaderSignature: sig,
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestIdempotency(t *testing.T) {
	t.Run("duplicate event id is processed once", func(t *testing.T) {
		s := receiver.NewServer("").EnableIdempotency()
		ts := httptest.NewServer(s.Router())
		defer ts.Close()

		headers := map[string]string{event.HeaderEventID: "evt_dup"}

		resp := postWebhook(t, ts.URL+"/webhook", validPayload(), headers)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ok", decodeBody(t, resp)["status"])

		for i := 0; i < 3; i++ {
			resp := postWebhook(t, ts.URL+"/webhook", validPayload(), headers)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "already_processed", decodeBody(t, resp)["status"])
		}

		assert.Equal(t, 1, s.ProcessedCount())
	})

	t.Run("same payment under distinct event ids is not a duplicate", func(t *testing.T) {
		s := receiver.NewServer("").EnableIdempotency()
		ts := httptest.NewServer(s.Router())
		defer ts.Close()

		for _, id := range []string{"evt_a", "evt_b"} {
			resp := postWebhook(t, ts.URL+"/webhook", validPayload(), map[string]string{
				event.HeaderEventID: id,
			})
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			resp.Body.Close()
		}

		assert.Equal(t, 2, s.ProcessedCount())
		assert.True(t, s.WasProcessed("evt_a"))
		assert.True(t, s.WasProcessed("evt_b"))
	})

	t.Run("disabled by default", func(t *testing.T) {
		s := receiver.NewServer("")
		ts := httptest.NewServer(s.Router())
		defer ts.Close()

		headers := map[string]string{event.HeaderEventID: "evt_dup"}
		for i := 0; i < 2; i++ {
			resp := postWebhook(t, ts.URL+"/webhook", validPayload(), headers)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			resp.Body.Close()
		}

		assert.Equal(t, 2, s.ProcessedCount())
	})

	t.Run("concurrent duplicates yield exactly one record", func(t *testing.T) {
		s := receiver.NewServer("").EnableIdempotency()
		ts := httptest.NewServer(s.Router())
		defer ts.Close()

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				resp := postWebhook(t, ts.URL+"/webhook", validPayload(), map[string]string{
					event.HeaderEventID: "evt_race",
				})
				resp.Body.Close()
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, s.ProcessedCount())
	})
}

func TestReceiverBehaviors(t *testing.T) {
	t.Run("configured failure code is returned without a body", func(t *testing.T) {
		s := receiver.NewServer("").SetResponseCode(http.StatusInternalServerError)
		ts := httptest.NewServer(s.Router())
		defer ts.Close()

		resp := postWebhook(t, ts.URL+"/webhook", validPayload(), map[string]string{
			event.HeaderEventID: "evt_1",
		})
		defer resp.Body.Close()

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Empty(t, body)

		// Validation passed, so the webhook is still recorded
		assert.Equal(t, 1, s.ProcessedCount())
	})

	t.Run("response delay slows the handler", func(t *testing.T) {
		s := receiver.NewServer("").SetResponseDelay(100 * time.Millisecond)
		ts := httptest.NewServer(s.Router())
		defer ts.Close()

		start := time.Now()
		resp := postWebhook(t, ts.URL+"/webhook", validPayload(), nil)
		resp.Body.Close()

		assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	})

	t.Run("records keep arrival order", func(t *testing.T) {
		s := receiver.NewServer("")
		ts := httptest.NewServer(s.Router())
		defer ts.Close()

		for i := 0; i < 3; i++ {
			resp := postWebhook(t, ts.URL+"/webhook", validPayload(), map[string]string{
				event.HeaderEventID: fmt.Sprintf("evt_%d", i),
			})
			resp.Body.Close()
		}

		records := s.ReceivedEvents()
		require.Len(t, records, 3)
		for i, rec := range records {
			assert.Equal(t, fmt.Sprintf("evt_%d", i), rec.EventID)
		}
	})

	t.Run("clear resets history and processed ids", func(t *testing.T) {
		s := receiver.NewServer("").EnableIdempotency()
		ts := httptest.NewServer(s.Router())
		defer ts.Close()

		resp := postWebhook(t, ts.URL+"/webhook", validPayload(), map[string]string{
			event.HeaderEventID: "evt_1",
		})
		resp.Body.Close()
		require.Equal(t, 1, s.ProcessedCount())

		s.ClearEvents()
		assert.Equal(t, 0, s.ProcessedCount())
		assert.False(t, s.WasProcessed("evt_1"))
	})
}

func TestServerLifecycle(t *testing.T) {
	t.Run("start serves health and webhook on an ephemeral port", func(t *testing.T) {
		s := receiver.NewServer("")
		require.NoError(t, s.Start())
		defer s.Stop(context.Background())

		resp, err := http.Get(s.HealthURL())
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "healthy", decodeBody(t, resp)["status"])

		resp = postWebhook(t, s.URL(), validPayload(), nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		require.NoError(t, s.Stop(context.Background()))
	})
}
