package employee

import (
	"crypto/rand"
	"math/big"
)

const (
	initialPasswordLength   = 12
	initialPasswordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*()"
)

// GenerateInitialPassword returns the password a new employee is created with when the
// admin does not pick one.
func GenerateInitialPassword() (string, error) {
	max := big.NewInt(int64(len(initialPasswordAlphabet)))
	b := make([]byte, initialPasswordLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = initialPasswordAlphabet[n.Int64()]
	}
	return string(b), nil
}
