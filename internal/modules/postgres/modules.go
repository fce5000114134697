package postgres

import (
	"context"
	"fmt"

	"stoploss_tracker/internal/modules/config"
	"stoploss_tracker/pkg/db"

	"go.uber.org/fx"
)

// Module отдаёт *db.PgTxManager. Без DSN отдаёт nil: postgres тогда просто
// не участвует в выборе бэкенда.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(lc fx.Lifecycle, ctx context.Context, cfg *config.Config) (*db.PgTxManager, error) {
				if cfg.Store.DB == "" {
					return nil, nil
				}
				pool, err := db.NewPool(ctx, db.PoolConfig{
					DSN: cfg.Store.DB,
					// одна строка состояния, много соединений не нужно
					MaxConns: 2,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to create pool: %w", err)
				}

				m := db.NewPgTxManager(pool)
				lc.Append(fx.StopHook(m.Close))
				return m, nil
			},
		),
	)
}
