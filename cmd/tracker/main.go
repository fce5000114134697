package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"stoploss_tracker/internal/modules/bingx_client"
	"stoploss_tracker/internal/modules/config"
	"stoploss_tracker/internal/modules/health"
	"stoploss_tracker/internal/modules/postgres"
	"stoploss_tracker/internal/modules/ratchet_store"
	telegram "stoploss_tracker/internal/modules/telegram_bot"
	"stoploss_tracker/internal/runner"
	"stoploss_tracker/pkg/logger"
	"stoploss_tracker/pkg/tracing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const serviceName = "stoploss_tracker"

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger.SetServiceName(serviceName)
	return logger.New(cfg.LogLevel)
}

func initTracing(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) error {
	conf := tracing.Config{Host: cfg.Tracing.Host, Port: cfg.Tracing.Port}
	if !conf.Enabled() {
		return nil
	}
	tracing.SetServiceName(serviceName)
	_, closer, err := tracing.InitTracer(conf, log)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	lc.Append(fx.StopHook(closer))
	return nil
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// common: всё, что нужно трекеру в обоих режимах.
func common(ctx context.Context) fx.Option {
	return fx.Options(
		fx.Provide(
			func() context.Context {
				return ctx
			},
			newLogger,
			newRegistry,
			func(r *prometheus.Registry) prometheus.Registerer { return r },
			func(r *prometheus.Registry) prometheus.Gatherer { return r },
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Invoke(initTracing),
		config.Module(),
		postgres.Module(),
		ratchet_store.Module(),
		bingx_client.Module(),
		telegram.Module(),
		runner.Module(),
	)
}

func reRaiseFlag(cmd *cobra.Command, cfg *config.Config) bool {
	if cmd.Flags().Changed("re-raise") {
		v, _ := cmd.Flags().GetBool("re-raise")
		return v
	}
	return cfg.Tracker.ReRaise
}

func runOnce(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	var (
		tr  *runner.Tracker
		cfg *config.Config
	)
	app := fx.New(common(ctx), fx.Populate(&tr, &cfg))
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		// ctx команды мог быть уже отменён сигналом
		_ = app.Stop(context.WithoutCancel(ctx))
	}()

	return tr.RunOnce(ctx, reRaiseFlag(cmd, cfg))
}

func runLoop(cmd *cobra.Command, _ []string) error {
	app := fx.New(
		common(cmd.Context()),
		health.Module(),
		fx.Invoke(func(lc fx.Lifecycle, tr *runner.Tracker, cfg *config.Config, log *zap.Logger) {
			loopCtx, cancel := context.WithCancel(context.WithoutCancel(cmd.Context()))
			var wg sync.WaitGroup

			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					log.Info("tracker loop started", zap.Duration("interval", cfg.Tracker.Interval))
					wg.Add(1)
					go func() {
						defer wg.Done()
						tr.Loop(loopCtx, cfg.Tracker.Interval)
					}()
					return nil
				},
				OnStop: func(context.Context) error {
					// текущий цикл прекращает обход позиций и делает flush
					cancel()
					wg.Wait()
					return nil
				},
			})
		}),
	)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tracker",
		Short:         "Подтягивает стоп-лоссы открытых позиций BingX",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runOnce,
	}
	root.PersistentFlags().Bool("re-raise", false, "завершаться с ошибкой, если цикл упал (по умолчанию RE_RAISE)")

	root.AddCommand(
		&cobra.Command{
			Use:   "once",
			Short: "Один проход по позициям",
			Args:  cobra.NoArgs,
			RunE:  runOnce,
		},
		&cobra.Command{
			Use:   "loop",
			Short: "Проход каждые SLEEP_INTERVAL секунд, с health-сервером",
			Args:  cobra.NoArgs,
			RunE:  runLoop,
		},
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
