package webhook

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// ComputeHMAC signs a delivery body the way Dispatcher.deliver does: the
// receiving endpoint verifies the X-Flagship-Signature header against its
// own copy of the endpoint secret before trusting a mutation event.
func ComputeHMAC(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a delivery's signature against secret. Provided
// for endpoint implementations (and this module's own delivery tests) to
// validate inbound payloads; Dispatcher itself only ever signs, never
// verifies, since it's the sender.
func VerifySignature(payload []byte, signature string, secret string) bool {
	expected := ComputeHMAC(payload, secret)
	return hmac.Equal([]byte(signature), []byte(expected))
}

// GenerateSecret produces a new endpoint secret for Endpoint.Secret,
// surfaced through "flagctl webhook generate-secret" so an operator wiring
// up a new endpoint doesn't have to hand-roll one.
func GenerateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random secret: %w", err)
	}
	return "whsec_" + base64.URLEncoding.EncodeToString(buf), nil
}
