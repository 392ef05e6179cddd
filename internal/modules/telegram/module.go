package telegram

import (
	"context"

	"go.uber.org/fx"

	"signal_bot/internal/modules/telegram/service"
	"signal_bot/internal/runner"
)

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			service.NewTelegram, // func(*config.Config, chan models.RawSignal) (*service.Telegram, error)

			// адаптер: *service.Telegram -> runner.Notifier
			func(t *service.Telegram) runner.Notifier {
				return t
			},
		),
		// Запуск основного цикла через Lifecycle
		fx.Invoke(
			func(lc fx.Lifecycle, t *service.Telegram, ctx context.Context) {
				lc.Append(fx.Hook{
					OnStart: func(_ context.Context) error {
						t.Start(ctx)
						return nil
					},
					OnStop: func(_ context.Context) error {
						t.Stop()
						return nil
					},
				})
			},
		),
	)
}
