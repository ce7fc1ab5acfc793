package app

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// generateSessionToken returns a 128-bit random token, hex encoded.
func generateSessionToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// generateOTP returns a 6-digit numeric one-time code drawn from crypto/rand.
func generateOTP() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint64(b[:]) % 1000000
	return fmt.Sprintf("%06d", n), nil
}
