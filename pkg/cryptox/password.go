package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"

	"golang.org/x/crypto/pbkdf2"
)

// Configuration for PBKDF2-HMAC-SHA256 hashing. Changing any of these
// invalidates every stored record, the record format carries no parameters.
const (
	iterations = 100_000 // Iteration count
	keyLength  = 32      // Length of the derived digest
	saltLength = 32      // Length of the salt
)

// HashPassword derives a password record of the form
// base64(salt || digest) using a fresh random salt.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	digest := derive(password, salt)

	record := make([]byte, 0, saltLength+keyLength)
	record = append(record, salt...)
	record = append(record, digest...)

	return base64.StdEncoding.EncodeToString(record), nil
}

// VerifyPassword reports whether candidate matches the password the record
// was derived from. Malformed records and mismatches are indistinguishable
// to the caller, both yield false.
func VerifyPassword(record, candidate string) bool {
	decoded, err := base64.StdEncoding.DecodeString(record)
	if err != nil {
		slog.Debug("password record decode failed", slog.Any("err", err))
		return false
	}
	if len(decoded) <= saltLength {
		return false
	}

	salt := decoded[:saltLength]
	expected := decoded[saltLength:]
	if len(expected) != keyLength {
		return false
	}

	computed := derive(candidate, salt)
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

func derive(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, iterations, keyLength, sha256.New)
}
