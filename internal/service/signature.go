package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureVerifier checks the Linear-Signature header against an
// HMAC-SHA256 of the raw request body.
//
// SECURITY: a verifier built with an empty secret accepts every request.
// This keeps local development and replays simple, and must never be the
// configuration of an exposed deployment.
type SignatureVerifier struct {
	secret []byte
}

func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(secret)}
}

// Enabled reports whether signatures are checked at all.
func (v *SignatureVerifier) Enabled() bool {
	return len(v.secret) > 0
}

// Verify reports whether signature is the hex HMAC-SHA256 of body. An empty
// signature means the header was absent.
func (v *SignatureVerifier) Verify(body []byte, signature string) bool {
	if !v.Enabled() {
		return true
	}
	if signature == "" {
		return false
	}

	expected, err := v.sign(body)
	if err != nil {
		return false
	}
	return constantTimeEqual(expected, signature)
}

// Sign returns the signature Linear would send for body. It returns the
// empty string when verification is disabled.
func (v *SignatureVerifier) Sign(body []byte) string {
	if !v.Enabled() {
		return ""
	}
	sig, err := v.sign(body)
	if err != nil {
		return ""
	}
	return sig
}

func (v *SignatureVerifier) sign(body []byte) (string, error) {
	mac := hmac.New(sha256.New, v.secret)
	if _, err := mac.Write(body); err != nil {
		return "", err
	}
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// constantTimeEqual compares a and b without short-circuiting on the first
// differing byte. Only the lengths leak.
func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}

	var diff byte
	for i := 0; i < len(a); i++ {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}
