package service_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/coplie/internal/service"
)

func hmacHex(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

var _ = Describe("SignatureVerifier", func() {
	body := []byte(`{"action":"create","type":"Issue"}`)

	Context("without a secret", func() {
		v := service.NewSignatureVerifier("")

		It("accepts any signature, including none", func() {
			Expect(v.Enabled()).To(BeFalse())
			Expect(v.Verify(body, "")).To(BeTrue())
			Expect(v.Verify(body, "garbage")).To(BeTrue())
			Expect(v.Sign(body)).To(BeEmpty())
		})
	})

	Context("with a secret", func() {
		v := service.NewSignatureVerifier("test-secret")

		It("accepts the HMAC-SHA256 hex digest of the body", func() {
			Expect(v.Verify(body, hmacHex("test-secret", body))).To(BeTrue())
			Expect(v.Sign(body)).To(Equal(hmacHex("test-secret", body)))
		})

		It("rejects a missing signature", func() {
			Expect(v.Verify(body, "")).To(BeFalse())
		})

		It("rejects a digest made with another secret", func() {
			Expect(v.Verify(body, hmacHex("other-secret", body))).To(BeFalse())
		})

		It("rejects a digest of a different body", func() {
			Expect(v.Verify([]byte(`{"tampered":true}`), hmacHex("test-secret", body))).To(BeFalse())
		})

		It("rejects signatures of the wrong length", func() {
			sig := hmacHex("test-secret", body)
			Expect(v.Verify(body, sig[:len(sig)-1])).To(BeFalse())
			Expect(v.Verify(body, sig+"0")).To(BeFalse())
		})

		It("rejects a same-length signature differing in the last byte", func() {
			sig := []byte(hmacHex("test-secret", body))
			if sig[len(sig)-1] == '0' {
				sig[len(sig)-1] = '1'
			} else {
				sig[len(sig)-1] = '0'
			}
			Expect(v.Verify(body, string(sig))).To(BeFalse())
		})
	})
})
