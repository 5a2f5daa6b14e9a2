package auth

import (
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
)

// Module provides authentication primitives via fx.
var Module = fx.Options(
	fx.Provide(newKeyHasher),
	fx.Provide(newOperatorAuthenticator),
)

func newKeyHasher() KeyHasher {
	return NewBcryptHasher(0)
}

type operatorParams struct {
	fx.In

	Config *config.Config
	Hasher KeyHasher
}

func newOperatorAuthenticator(p operatorParams) (*OperatorAuthenticator, error) {
	return NewOperatorAuthenticator(p.Config.OperatorKeyHash, p.Hasher)
}
