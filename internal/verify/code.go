package verify

import (
	"crypto/rand"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const codeDigits = 6

// NewCode returns a random six digit code, zero padded.
func NewCode() (string, error) {
	buf := make([]byte, codeDigits)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + n.Int64())
	}
	return string(buf), nil
}

// HashCode hashes a code for storage.
func HashCode(code string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckCode reports whether code matches the stored hash.
func CheckCode(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
