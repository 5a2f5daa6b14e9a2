package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/adapter/payu"
	"github.com/polkiloo/storefront/internal/app"
	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/logger"
	"github.com/polkiloo/storefront/internal/pkg/auth"
	"github.com/polkiloo/storefront/internal/server/http/handlers"
	"github.com/polkiloo/storefront/internal/server/http/router"
	"github.com/polkiloo/storefront/internal/storage/postgres"
	"github.com/polkiloo/storefront/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		payu.Module,
		usecase.Module,
		fx.Provide(
			func(c payu.Client) usecase.TransactionVerifier { return c },
			func(s *postgres.Storage) app.HealthChecker { return s },
			func(f *app.PaymentFacade) handlers.PaymentFacade { return f },
		),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
