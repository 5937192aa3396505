package webhooks

import "testing"

func TestSign(t *testing.T) {
	secret := "secret"
	payload := []byte("payload")

	// Calculated using: echo -n "payload" | openssl dgst -sha256 -hmac "secret"
	expected := "b82fcb791acec57859b989b430a826488ce2e479fdf92326bd0a2e8375a42ba4"

	got := Sign(secret, payload)

	if got != expected {
		t.Errorf("Sign() = %v, want %v", got, expected)
	}
}

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"event":"item.created","data":{"item":{"id":"x"}}}`)
	signature := Sign(secret, payload)

	if !VerifySignature(payload, signature, secret) {
		t.Error("valid signature should verify")
	}

	// Any single byte mutation must flip the result
	mutated := make([]byte, len(payload))
	copy(mutated, payload)
	mutated[10] ^= 0x01
	if VerifySignature(mutated, signature, secret) {
		t.Error("mutated payload should not verify")
	}

	if VerifySignature(payload, signature, "whsec_other") {
		t.Error("wrong secret should not verify")
	}

	if VerifySignature(payload, signature[:len(signature)-2], secret) {
		t.Error("truncated signature should not verify")
	}
}
