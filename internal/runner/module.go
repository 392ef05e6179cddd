package runner

import (
	"context"

	"go.uber.org/fx"

	"signal_bot/internal/models"
	"signal_bot/internal/modules/config"
	healthsvc "signal_bot/internal/modules/health/service"
)

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			New, // *Runner
			func() chan models.RawSignal {
				// буфер на случай пачки сообщений из каналов
				return make(chan models.RawSignal, 64)
			},
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			r *Runner,
			sigs chan models.RawSignal,
			state *healthsvc.State,
			cfg *config.Config,
			ctx context.Context,
		) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go func() {
						for {
							select {
							case <-ctx.Done():
								return
							case sig := <-sigs:
								r.OnSignal(ctx, sig)
							}
						}
					}()
					state.SetReady(true)
					return nil
				},
				OnStop: func(_ context.Context) error {
					state.SetReady(false)
					return nil
				},
			})
		}),
	)
}
