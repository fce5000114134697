package telegram

import (
	"context"

	"stoploss_tracker/internal/modules/config"
	"stoploss_tracker/internal/modules/ratchet_store/service"
	"stoploss_tracker/internal/notify"
	"stoploss_tracker/internal/runner"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewNotifier: Telegram, если заданы токен и чат, иначе лог.
func NewNotifier(lc fx.Lifecycle, cfg *config.Config, store *service.Store, log *zap.Logger) (notify.Notifier, error) {
	if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == 0 {
		log.Info("telegram disabled, notifications go to log")
		return notify.NewLog(log), nil
	}

	bot, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}
	t := notify.NewTelegram(bot, cfg.Telegram.ChatID, store, log)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// ctx хука живёт только на время старта
			t.Start(context.WithoutCancel(ctx))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			t.Stop()
			return nil
		},
	})
	return t, nil
}

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			NewNotifier,
		),
		// Адаптер: notify.Notifier -> runner.Notifier
		fx.Provide(
			func(n notify.Notifier) runner.Notifier {
				return n
			},
		),
	)
}
