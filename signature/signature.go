package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

/* Signer produces and verifies HMAC-SHA256 signatures over webhook payloads
 * Sender and receiver must compute identical digests, so the payload is
 * canonicalized first: encoding/json sorts map keys at every nesting level,
 * which makes the serialization independent of map iteration order
 */
type Signer struct {
	secret []byte
}

// New creates a Signer for the given shared secret
func New(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Canonicalize returns the canonical serialization of a payload: JSON with
// keys sorted at every level
func Canonicalize(payload map[string]any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("canonicalizing payload: %w", err)
	}
	return data, nil
}

// Sign returns the hex-encoded HMAC-SHA256 signature of the payload
func (s *Signer) Sign(payload map[string]any) (string, error) {
	message, err := Canonicalize(payload)
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify recomputes the payload signature and compares it to sig using a
// constant-time comparison to prevent timing attacks
func (s *Signer) Verify(payload map[string]any, sig string) (bool, error) {
	expected, err := s.Sign(payload)
	if err != nil {
		return false, err
	}
	return hmac.Equal([]byte(expected), []byte(sig)), nil
}
