package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// tokenPrefix identifies Clubhouse session tokens
	tokenPrefix = "chs_"
	// tokenBytes is the number of random bytes per token (256 bits)
	tokenBytes = 32
)

// GenerateToken creates a new opaque session token and the SHA256 hash
// stored in its place. Format: chs_<base64url(32 random bytes)>. Only
// the hash ever touches the database.
func GenerateToken() (token, tokenHash string, err error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	token = tokenPrefix + base64.RawURLEncoding.EncodeToString(raw)
	return token, HashToken(token), nil
}

// HashToken computes the SHA256 hash of a token for storage and lookup
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ValidateTokenFormat checks the shape of a presented token before any
// database lookup happens
func ValidateTokenFormat(token string) error {
	if !strings.HasPrefix(token, tokenPrefix) {
		return fmt.Errorf("token must start with %q", tokenPrefix)
	}
	encoded := strings.TrimPrefix(token, tokenPrefix)
	if encoded == "" {
		return fmt.Errorf("token is too short")
	}
	if _, err := base64.RawURLEncoding.DecodeString(encoded); err != nil {
		return fmt.Errorf("invalid token encoding: %w", err)
	}
	return nil
}
