// Package credentials derives and verifies password digests. The parameters
// are fixed so digests stay comparable across every deployment that shares a
// credential store.
package credentials

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	Iterations = 100_000
	KeyLength  = 32
	SaltLength = 16
)

// Hash derives a digest for password with a fresh random salt. Both values are
// lowercase hex.
func Hash(password string) (digest, salt string, err error) {
	raw := make([]byte, SaltLength)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}
	return hex.EncodeToString(derive(password, raw)), hex.EncodeToString(raw), nil
}

// Verify reports whether password re-derives to digest under salt. Malformed
// hex never verifies.
func Verify(password, digest, salt string) bool {
	rawSalt, err := hex.DecodeString(salt)
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(digest)
	if err != nil || len(want) != KeyLength {
		return false
	}
	return subtle.ConstantTimeCompare(derive(password, rawSalt), want) == 1
}

func derive(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, Iterations, KeyLength, sha256.New)
}
