package model

import (
	"crypto/rand"
	"math/big"

	"github.com/m-mizutani/goerr/v2"
)

const (
	APIKeyLength   = 32
	apiKeyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// NewAPIKey returns a random alphanumeric key drawn from crypto/rand
func NewAPIKey() (string, error) {
	limit := big.NewInt(int64(len(apiKeyAlphabet)))
	buf := make([]byte, APIKeyLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", goerr.Wrap(err, "failed to read random source")
		}
		buf[i] = apiKeyAlphabet[n.Int64()]
	}
	return string(buf), nil
}
