package ratchet_store

import (
	"context"

	"stoploss_tracker/internal/modules/config"
	"stoploss_tracker/internal/modules/ratchet_store/service"
	"stoploss_tracker/internal/modules/ratchet_store/service/file"
	"stoploss_tracker/internal/modules/ratchet_store/service/pg"
	redisstate "stoploss_tracker/internal/modules/ratchet_store/service/redis"
	"stoploss_tracker/pkg/db"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type backendParams struct {
	fx.In

	Lc  fx.Lifecycle
	Ctx context.Context
	Cfg *config.Config
	Log *zap.Logger
	PG  *db.PgTxManager `optional:"true"`
}

// NewBackend опрашивает бэкенды в порядке из конфига и выбирает первый живой.
// file в конце списка есть всегда.
func NewBackend(p backendParams) (service.Backend, error) {
	var candidates []service.Backend
	hasFile := false

	for _, name := range p.Cfg.Store.Backends {
		switch name {
		case "redis":
			if p.Cfg.Store.RedisAddr == "" {
				continue
			}
			client := goredis.NewClient(&goredis.Options{Addr: p.Cfg.Store.RedisAddr})
			p.Lc.Append(fx.StopHook(client.Close))
			candidates = append(candidates, redisstate.NewState(client, p.Cfg.Store.RedisKey))
		case "postgres":
			if p.PG == nil {
				continue
			}
			candidates = append(candidates, pg.NewState(p.PG, p.Cfg.Store.DBKey))
		case "file":
			hasFile = true
			candidates = append(candidates, file.NewState(p.Cfg.Store.FilePath))
		}
	}
	if !hasFile {
		candidates = append(candidates, file.NewState(p.Cfg.Store.FilePath))
	}

	return service.SelectBackend(p.Ctx, candidates, p.Log)
}

func Module() fx.Option {
	return fx.Module("ratchet_store",
		fx.Provide(
			NewBackend,
			service.NewStore,
		),
		// состояние читается один раз при старте
		fx.Invoke(func(lc fx.Lifecycle, s *service.Store) {
			lc.Append(fx.Hook{
				OnStart: s.Load,
			})
		}),
	)
}
