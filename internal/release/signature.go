package release

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureHeader carries the webhook signature on incoming requests.
const SignatureHeader = "X-Pressroom-Signature"

const signaturePrefix = "sha256="

// VerifySignature checks an HMAC-SHA256 signature computed over the raw
// request body. The header value may carry an optional "sha256=" prefix and
// is hex encoded. When no secret is configured every payload is accepted; an
// empty signature against a configured secret is always rejected. Comparison
// is constant time.
func VerifySignature(body []byte, signature, secret string) bool {
	if secret == "" {
		return true
	}
	if signature == "" {
		return false
	}

	signature = strings.TrimPrefix(signature, signaturePrefix)
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	return hmac.Equal(provided, expected)
}

// Sign computes the hex-encoded HMAC-SHA256 signature for a payload. Used by
// outbound calls and tests to produce valid signatures.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
