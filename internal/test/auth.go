package test

import (
	pkgAuth "github.com/polkiloo/storefront/internal/pkg/auth"
)

// OperatorAuthenticatorStub accepts a single fixed key.
type OperatorAuthenticatorStub struct {
	Key string
	Err error
}

// Authenticate returns Err when set, otherwise compares against Key.
func (s OperatorAuthenticatorStub) Authenticate(key string) error {
	if s.Err != nil {
		return s.Err
	}
	if key != s.Key {
		return pkgAuth.ErrInvalidOperatorKey
	}
	return nil
}

// KeyHasherStub provides deterministic hashing for tests.
type KeyHasherStub struct{}

// Hash returns a predictable hash for the supplied key.
func (KeyHasherStub) Hash(key string) (string, error) {
	return "hash:" + key, nil
}

// Compare validates key against stored hash.
func (KeyHasherStub) Compare(hash string, key string) error {
	if hash != "hash:"+key {
		return pkgAuth.ErrInvalidOperatorKey
	}
	return nil
}

var _ pkgAuth.KeyHasher = KeyHasherStub{}
