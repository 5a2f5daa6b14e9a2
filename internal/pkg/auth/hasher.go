package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// KeyHasher hashes and checks secret keys.
type KeyHasher interface {
	Hash(key string) (string, error)
	Compare(hash string, key string) error
}

// BcryptHasher implements KeyHasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates BcryptHasher; zero cost means bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns the bcrypt hash for key. Keys longer than 72 bytes are rejected by bcrypt.
func (h *BcryptHasher) Hash(key string) (string, error) {
	encoded, err := bcrypt.GenerateFromPassword([]byte(key), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash key: %w", err)
	}
	return string(encoded), nil
}

func (h *BcryptHasher) Compare(hash string, key string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key))
}
