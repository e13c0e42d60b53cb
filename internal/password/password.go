// Package password provides one-way hashing and verification for
// user credentials.
package password

import "golang.org/x/crypto/bcrypt"

// BcryptCost is the cost factor for bcrypt hashing
const BcryptCost = 12

// Hasher hashes and verifies passwords with bcrypt
type Hasher struct{}

// NewHasher creates a Hasher
func NewHasher() *Hasher {
	return &Hasher{}
}

// Hash creates a bcrypt hash of the password
func (h *Hasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify compares a password with its hash. Returns nil when they match.
func (h *Hasher) Verify(plain, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
