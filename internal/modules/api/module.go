package api

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/fx"

	"signal_bot/internal/modules/api/service"
	"signal_bot/internal/modules/config"
)

func Module() fx.Option {
	return fx.Module("api",
		fx.Provide(
			service.NewServer,
		),
		fx.Invoke(func(lc fx.Lifecycle, s *service.Server, cfg *config.Config) {
			var srv *http.Server
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					addr := fmt.Sprintf("%s:%d", cfg.Service.Host, cfg.Service.PublicPort)
					srv = s.Run(addr)
					return nil
				},
				OnStop: func(ctx context.Context) error {
					if srv == nil {
						return nil
					}
					return srv.Shutdown(ctx)
				},
			})
		}),
	)
}
