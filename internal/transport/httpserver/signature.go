package httpserver

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signaturePrefix = "sha256="

// VerifySignature checks the webhook payload against the provider's
// X-Hub-Signature-256 header using constant-time comparison.
func VerifySignature(secret string, payload []byte, header string) bool {
	if secret == "" || header == "" {
		return false
	}
	provided, ok := strings.CutPrefix(header, signaturePrefix)
	if !ok {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(provided))
}
