// Package otp issues one-time verification codes: it generates a code that is unique among the
// currently active codes, stores its digest and hands the plain code to mail delivery.
package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
)

// CodeDigits is the fixed length of a verification code.
const CodeDigits = 6

var codeSpace = big.NewInt(1_000_000)

// GenerateCode returns a 6-digit numeric code (e.g. "042917"), uniformly drawn with crypto/rand.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	s := n.String()
	for len(s) < CodeDigits {
		s = "0" + s
	}
	return s, nil
}

// HashCode returns the hex-encoded SHA-256 digest of code. Only digests are persisted.
func HashCode(code string) string {
	h := sha256.Sum256([]byte(code))
	return hex.EncodeToString(h[:])
}

// CodeEqual reports whether the submitted code matches the stored digest in constant time.
func CodeEqual(submitted, storedHash string) bool {
	return subtle.ConstantTimeCompare([]byte(HashCode(submitted)), []byte(storedHash)) == 1
}
