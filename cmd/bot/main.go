package main

import (
	"context"
	"log"

	"signal_bot/internal/modules/api"
	"signal_bot/internal/modules/config"
	"signal_bot/internal/modules/extractor"
	"signal_bot/internal/modules/health"
	"signal_bot/internal/modules/journal"
	"signal_bot/internal/modules/mt5_bridge"
	"signal_bot/internal/modules/postgres"
	"signal_bot/internal/modules/telegram"
	"signal_bot/internal/runner"
	"signal_bot/pkg/logger"
	"signal_bot/pkg/tracing"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

const serviceName = "signal_bot"

func main() {
	_ = godotenv.Load()

	logger.SetServiceName(serviceName)
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	tracing.SetServiceName(serviceName)

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		postgres.Module(),
		health.Module(),
		mt5_bridge.Module(),
		extractor.Module(),
		journal.Module(),
		runner.Module(),
		telegram.Module(),
		api.Module(),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) error {
			_, closeTracer, err := tracing.InitTracer(tracing.Config{
				Host: cfg.Jaeger.Host,
				Port: cfg.Jaeger.Port,
			})
			if err != nil {
				return err
			}
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					closeTracer()
					return nil
				},
			})
			return nil
		}),
	)
	if err := app.Start(context.Background()); err != nil {
		log.Fatal(err)
	}

	<-app.Done()

	if err := app.Stop(context.Background()); err != nil {
		log.Fatal(err)
	}
}
