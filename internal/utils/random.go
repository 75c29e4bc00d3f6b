package utils

import (
	"crypto/rand"
	"math/big"
)

const tokenCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// SecureToken returns a random string of the given length drawn from
// crypto/rand. Used for opaque refresh-token values.
func SecureToken(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = tokenCharset[secureRandomInt(len(tokenCharset))]
	}
	return string(b)
}

func secureRandomInt(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		panic(err)
	}
	return int(n.Int64())
}
