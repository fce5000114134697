package runner

import (
	bingx "stoploss_tracker/internal/modules/bingx_client/service"
	"stoploss_tracker/internal/modules/config"
	"stoploss_tracker/internal/modules/ratchet_store/service"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type trackerParams struct {
	fx.In

	Cfg      *config.Config
	Gateway  *bingx.Client
	Store    *service.Store
	Log      *zap.Logger
	Notifier Notifier              `optional:"true"`
	Observer Observer              `optional:"true"`
	Reg      prometheus.Registerer `optional:"true"`
}

func newTracker(p trackerParams) *Tracker {
	return NewTracker(p.Gateway, p.Store, p.Log.Named("tracker"), Options{
		Formula:     RatchetFormula(p.Cfg.Tracker.RatchetFormula),
		OrdersLimit: p.Cfg.Exchange.OrdersLimit,
		Notifier:    p.Notifier,
		Observer:    p.Observer,
		Metrics:     NewMetrics(p.Reg),
	})
}

// Module собирает трекер; запуск цикла (once/loop) решает точка входа.
func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			newTracker, // *Tracker
		),
	)
}
