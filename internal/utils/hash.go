package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// HashToken computes the SHA-256 hash of a raw token value. Only the hash is
// ever written to the credential store, never the raw token.
func HashToken(raw string) string {
	hasher := sha256.New()
	hasher.Write([]byte(raw))
	return base64.URLEncoding.EncodeToString(hasher.Sum(nil))
}

// SignMessage computes an HMAC-SHA256 tag over msg with the shared secret.
// Used for the identity envelope the gateway attaches to forwarded requests.
func SignMessage(secret []byte, msg string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(msg))
	return base64.URLEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyMessage checks an HMAC-SHA256 tag produced by SignMessage.
func VerifyMessage(secret []byte, msg, tag string) bool {
	expected, err := base64.URLEncoding.DecodeString(tag)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(msg))
	return hmac.Equal(mac.Sum(nil), expected)
}
