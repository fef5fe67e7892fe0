package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// ================================================================================
// API Credential Helpers
// ================================================================================

// GenerateAPIKey produces a tenant API key: "rk_" plus 24 random hex bytes.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return "rk_" + hex.EncodeToString(buf), nil
}

// GenerateAPISecret produces a tenant API secret: "rs_" plus 32 random hex bytes.
// The clear secret is returned exactly once at provisioning; only its hash is stored.
func GenerateAPISecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api secret: %w", err)
	}
	return "rs_" + hex.EncodeToString(buf), nil
}

// HashSecret returns the hex-encoded SHA-256 digest of a secret.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// SecretMatchesHash compares a clear secret against a stored hash in constant time.
func SecretMatchesHash(secret, storedHash string) bool {
	computed := HashSecret(secret)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
