package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homematch/credential-platform/internal/utils"
)

func TestHashTokenIsDeterministic(t *testing.T) {
	a := utils.HashToken("some-refresh-token")
	b := utils.HashToken("some-refresh-token")
	assert.Equal(t, a, b)
	assert.NotEmpty(t, a)
}

func TestHashTokenDiffersPerInput(t *testing.T) {
	a := utils.HashToken("token-one")
	b := utils.HashToken("token-two")
	assert.NotEqual(t, a, b)
}

func TestHashTokenNeverEchoesInput(t *testing.T) {
	raw := "super-secret-refresh-value"
	assert.NotContains(t, utils.HashToken(raw), raw)
}

func TestSignAndVerifyMessage(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	msg := "subject\nDisplay Name\nadmin,tenant"

	tag := utils.SignMessage(secret, msg)
	require.NotEmpty(t, tag)

	assert.True(t, utils.VerifyMessage(secret, msg, tag))
	assert.False(t, utils.VerifyMessage(secret, msg+"x", tag))
	assert.False(t, utils.VerifyMessage([]byte("another-secret-another-secret-ok"), msg, tag))
	assert.False(t, utils.VerifyMessage(secret, msg, "not-a-valid-tag"))
}

func TestSecureTokenLengthAndCharset(t *testing.T) {
	token := utils.SecureToken(64)
	require.Len(t, token, 64)
	for _, ch := range token {
		isAlnum := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
		assert.True(t, isAlnum, "unexpected character %q", ch)
	}
}

func TestSecureTokenIsUnique(t *testing.T) {
	assert.NotEqual(t, utils.SecureToken(64), utils.SecureToken(64))
}
