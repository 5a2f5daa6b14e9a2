package postgres

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// Module opens the order store and exposes its repositories.
var Module = fx.Options(
	fx.Provide(
		newStorage,
		func(s *Storage) repository.Factory { return s },
		func(f repository.Factory) repository.OrderRepository { return f.Orders() },
		func(f repository.Factory) repository.CallbackRepository { return f.Callbacks() },
	),
	fx.Invoke(registerStoreHooks),
)

type storageParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

func newStorage(p storageParams) (*Storage, error) {
	return New(p.Ctx, p.Config.DatabaseURI, p.Logger)
}

func registerStoreHooks(lc fx.Lifecycle, storage *Storage) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := storage.ensureSchema(ctx); err != nil {
				storage.Logger().Warn("order store not ready at startup, schema is created on first use", slog.Any("error", err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			storage.Logger().Info("closing order store")
			storage.Close()
			return nil
		},
	})
}
