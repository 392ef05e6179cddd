package mt5_bridge

import (
	"context"

	"go.uber.org/fx"

	"signal_bot/internal/modules/config"
	healthsvc "signal_bot/internal/modules/health/service"
	"signal_bot/internal/modules/mt5_bridge/service"
	"signal_bot/internal/runner"
)

// Module поднимает клиента шлюза MT5 и фоновый стрим котировок.
func Module() fx.Option {
	return fx.Module("mt5_bridge",
		fx.Provide(
			func(cfg *config.Config) *service.Client {
				return service.NewClient(cfg.Bridge.BaseURL, cfg.Bridge.WSURL)
			},
			// адаптер: *service.Client -> runner.Terminal
			func(c *service.Client) runner.Terminal {
				return c
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, c *service.Client, state *healthsvc.State, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go c.StreamQuotes(ctx, state)
					return nil
				},
			})
		}),
	)
}
