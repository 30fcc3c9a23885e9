package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// SignatureHeader carries the hex HMAC-SHA512 of the raw webhook body, keyed
// with the account's secret key.
const SignatureHeader = "X-Paystack-Signature"

// Sign computes the hex HMAC-SHA512 of body under key.
func Sign(body, key []byte) string {
	mac := hmac.New(sha512.New, key)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature recomputes the body's signature and compares it against the
// supplied header value in constant time.
func (c *Client) VerifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	expected := Sign(body, []byte(c.secretKey))
	return hmac.Equal([]byte(expected), []byte(signature))
}
