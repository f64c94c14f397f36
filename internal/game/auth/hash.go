package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/cory-johannsen/verbmud/internal/config"
)

// Hasher turns a secret into its stored form and checks a presented secret
// against a stored hash.
type Hasher interface {
	// Hash returns the stored form of secret.
	Hash(secret string) (string, error)
	// Verify reports whether proof hashes to stored.
	Verify(stored, proof string) bool
}

// SHA256Hasher stores the unsalted hex SHA-256 digest of the secret.
// This is the historical account_hash format; prefer BcryptHasher for new deployments.
type SHA256Hasher struct{}

// Hash returns the lowercase hex SHA-256 digest of secret.
func (SHA256Hasher) Hash(secret string) (string, error) {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:]), nil
}

// Verify compares the digest of proof to stored in constant time.
func (h SHA256Hasher) Verify(stored, proof string) bool {
	digest, _ := h.Hash(proof)
	return subtle.ConstantTimeCompare([]byte(digest), []byte(stored)) == 1
}

// BcryptHasher stores salted bcrypt hashes.
type BcryptHasher struct {
	Cost int
}

// Hash creates a bcrypt hash of secret.
//
// Precondition: secret must be at most 72 bytes.
// Postcondition: Returns a bcrypt hash string.
func (h BcryptHasher) Hash(secret string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether proof matches the bcrypt hash stored.
func (BcryptHasher) Verify(stored, proof string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(proof)) == nil
}

// NewHasher returns the Hasher for a configured scheme name.
//
// Postcondition: Returns a non-nil Hasher or an error for unknown schemes.
func NewHasher(scheme string) (Hasher, error) {
	switch scheme {
	case config.SchemeSHA256:
		return SHA256Hasher{}, nil
	case config.SchemeBcrypt:
		return BcryptHasher{}, nil
	default:
		return nil, fmt.Errorf("unknown hash scheme %q", scheme)
	}
}
