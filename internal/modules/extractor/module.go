package extractor

import (
	"signal_bot/internal/modules/config"
	"signal_bot/internal/modules/extractor/service"
	"signal_bot/internal/runner"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("extractor",
		fx.Provide(
			func(cfg *config.Config) *service.Client {
				return service.NewClient(cfg.GPTKey, cfg.GPTModel, cfg.ExtractionTimeout)
			},
			// адаптер: *service.Client -> runner.Extractor
			func(c *service.Client) runner.Extractor {
				return c
			},
		),
	)
}
