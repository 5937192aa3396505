package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign computes the hex HMAC-SHA256 signature of payload under secret,
// as carried in the X-Webhook-Signature header.
func Sign(secret string, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifySignature checks a signature in constant time. Receivers use this
// to authenticate inbound deliveries.
func VerifySignature(payload []byte, signature, secret string) bool {
	expected := Sign(secret, payload)
	return hmac.Equal([]byte(signature), []byte(expected))
}
