package bingx_client

import (
	"stoploss_tracker/internal/modules/bingx_client/service"

	"go.uber.org/fx"
)

// Module поднимает подписанный REST-клиент BingX.
func Module() fx.Option {
	return fx.Module("bingx_client",
		fx.Provide(
			service.NewClient,
		),
	)
}
