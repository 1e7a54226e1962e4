package security

import (
	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies directory passwords using bcrypt. Registration
// payloads carry generated placeholder passwords, but they are hashed like
// real credentials so nothing recoverable is ever stored.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher with the given bcrypt cost, clamped to the
// valid bcrypt range. Zero or negative cost selects the bcrypt default.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// Hash produces a bcrypt hash of password suitable for storage.
func (h *Hasher) Hash(password []byte) (string, error) {
	b, err := bcrypt.GenerateFromPassword(password, h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare verifies password against the stored hash in constant time.
// Returns nil on match; an error (including bcrypt.ErrMismatchedHashAndPassword) otherwise.
func (h *Hasher) Compare(hash string, password []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), password)
}
