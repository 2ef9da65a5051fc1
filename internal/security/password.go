package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// Scrypt parameters. Hashes are stored as "salt:derived" in hex, so the
// parameters are fixed for the life of the stored format.
const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64
	saltBytes    = 16
)

// HashPassword derives a scrypt hash, returning "salt:derived" in hex.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	saltHex := hex.EncodeToString(salt)

	derived, err := scrypt.Key([]byte(password), []byte(saltHex), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("failed to derive password hash: %w", err)
	}
	return saltHex + ":" + hex.EncodeToString(derived), nil
}

// VerifyPassword checks a password against a stored "salt:derived" hash in
// constant time. Malformed stored hashes verify false, never error: login
// must treat them like a wrong password.
func VerifyPassword(password, storedHash string) bool {
	saltHex, storedHex, ok := strings.Cut(storedHash, ":")
	if !ok || saltHex == "" || storedHex == "" {
		return false
	}
	stored, err := hex.DecodeString(storedHex)
	if err != nil {
		return false
	}

	derived, err := scrypt.Key([]byte(password), []byte(saltHex), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return false
	}
	if len(stored) != len(derived) {
		return false
	}
	return subtle.ConstantTimeCompare(stored, derived) == 1
}
