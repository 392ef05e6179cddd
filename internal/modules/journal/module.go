package journal

import (
	"go.uber.org/fx"

	"signal_bot/internal/modules/journal/pg"
	"signal_bot/internal/runner"
)

func Module() fx.Option {
	return fx.Module("journal",
		fx.Provide(
			pg.NewOutcomes, // *pg.Outcomes
			// адаптер: *pg.Outcomes -> runner.Journal
			func(o *pg.Outcomes) runner.Journal {
				return o
			},
		),
	)
}
