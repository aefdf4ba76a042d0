package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the hashing cost used when none is configured.
const DefaultBcryptCost = 10

// maxSecretBytes is the longest input bcrypt reads. Longer secrets are
// hashed and verified on their first maxSecretBytes bytes.
const maxSecretBytes = 72

// CredentialCodec hashes secrets for storage and verifies them later.
type CredentialCodec struct {
	cost int
}

// NewCredentialCodec creates a CredentialCodec with the given bcrypt cost.
// Costs outside bcrypt's accepted range fall back to DefaultBcryptCost.
func NewCredentialCodec(cost int) *CredentialCodec {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &CredentialCodec{cost: cost}
}

// Hash derives a salted hash of secret. Hashing the same secret twice
// yields different results.
func (c *CredentialCodec) Hash(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(secretBytes(secret), c.cost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether secret produced hash. A mismatch or a malformed
// hash is reported as false.
func (c *CredentialCodec) Verify(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), secretBytes(secret)) == nil
}

func secretBytes(secret string) []byte {
	b := []byte(secret)
	if len(b) > maxSecretBytes {
		b = b[:maxSecretBytes]
	}
	return b
}
