package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidOperatorKey = errors.New("invalid operator key")
	ErrOperatorDisabled   = errors.New("operator access is not configured")
)

// OperatorAuthenticator checks bearer keys of back-office operators against a bcrypt hash.
type OperatorAuthenticator struct {
	hash   string
	hasher KeyHasher
}

// NewOperatorAuthenticator validates hash and builds the authenticator. An empty hash
// yields a disabled authenticator.
func NewOperatorAuthenticator(hash string, hasher KeyHasher) (*OperatorAuthenticator, error) {
	hash = strings.TrimSpace(hash)
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("operator key hash: %w", err)
		}
	}
	return &OperatorAuthenticator{hash: hash, hasher: hasher}, nil
}

// Enabled reports whether operator routes should be served.
func (a *OperatorAuthenticator) Enabled() bool {
	return a.hash != ""
}

// Authenticate returns nil when key matches the configured hash.
func (a *OperatorAuthenticator) Authenticate(key string) error {
	if !a.Enabled() {
		return ErrOperatorDisabled
	}
	if key == "" {
		return ErrInvalidOperatorKey
	}
	if err := a.hasher.Compare(a.hash, key); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidOperatorKey
		}
		return err
	}
	return nil
}
