package payu

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
)

// Module exposes the gateway verify client to fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (Client, error) {
	if p.Config.VerifyURL == "" {
		return disabledClient{}, nil
	}
	return NewHTTPClient(p.Config.VerifyURL, Credentials{Key: p.Config.MerchantKey, Salt: p.Config.MerchantSalt}, p.Logger)
}
