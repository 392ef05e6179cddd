package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"signal_bot/internal/models"
	"signal_bot/internal/risk"
	"signal_bot/internal/signal"
)

// Прогон библиотеки законсервированных сигналов через оффлайн-часть конвейера:
// нормализация, валидация, расчёт лота. Без терминала и без LLM.
//
//	go run ./cmd/replay [replay.yaml]

const defaultReplayFile = "replay"

type replayCase struct {
	Name    string    `mapstructure:"name"`
	Dialect int       `mapstructure:"dialect"`
	Symbol  string    `mapstructure:"symbol"`
	Sens    string    `mapstructure:"sens"`
	SL      float64   `mapstructure:"sl"`
	Entries []float64 `mapstructure:"entries"`
	Range   string    `mapstructure:"range"`
	TPs     []any     `mapstructure:"tps"`
}

func loadSpec() models.InstrumentSpec {
	return models.InstrumentSpec{
		PipSize:        viper.GetFloat64("instrument.pip_size"),
		PipValuePerLot: viper.GetFloat64("instrument.pip_value_per_lot"),
		MinLot:         viper.GetFloat64("instrument.min_lot"),
		MaxLot:         viper.GetFloat64("instrument.max_lot"),
		LotStep:        viper.GetFloat64("instrument.lot_step"),
		PriceDigits:    viper.GetInt("instrument.price_digits"),
	}
}

func runCase(c replayCase, spec models.InstrumentSpec, perPosition float64) error {
	ex := &models.ExtractedSignal{
		Symbol:      c.Symbol,
		Sens:        models.Direction(c.Sens),
		SL:          c.SL,
		EntryPrices: c.Entries,
		EntryRange:  c.Range,
		TPs:         c.TPs,
	}

	intents, err := signal.Normalize(ex, models.Dialect(c.Dialect), spec.PipSize)
	if err != nil {
		return errors.Wrap(err, "normalize")
	}
	if err = signal.Validate(intents); err != nil {
		return errors.Wrap(err, "validate")
	}
	sized, err := risk.SizeLots(intents, spec, perPosition)
	if err != nil {
		return errors.Wrap(err, "size")
	}

	for _, s := range sized {
		flag := ""
		if s.MinLotOverrun {
			flag = " (min-lot overrun)"
		}
		fmt.Printf("  #%d %s %s entry=%.5g sl=%.5g tp=%.5g lot=%.2f risk=%.2f%s\n",
			s.Intent.OrderIndex, s.Intent.Direction, s.Intent.Symbol,
			s.Intent.EntryPrice, s.Intent.StopLoss, s.Intent.TakeProfit,
			s.Lot, s.RealizedRisk, flag)
	}
	return nil
}

func main() {
	name := defaultReplayFile
	if len(os.Args) > 1 {
		name = os.Args[1]
	}
	viper.SetConfigName(name)
	viper.SetConfigType("yaml")
	viper.AddConfigPath("configs")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error replay file: %w", err))
	}

	spec := loadSpec()
	budget := models.RiskBudget{
		TotalPerSignal: viper.GetFloat64("budget.total_per_signal"),
		MaxAccountPct:  viper.GetFloat64("budget.max_account_pct"),
	}

	var cases []replayCase
	if err := viper.UnmarshalKey("cases", &cases); err != nil {
		panic(fmt.Errorf("decode cases: %w", err))
	}
	if len(cases) == 0 {
		panic("has no cases in replay file")
	}

	failed := 0
	for _, c := range cases {
		fmt.Printf("%s:\n", c.Name)
		if err := runCase(c, spec, budget.PerPosition()); err != nil {
			failed++
			fmt.Printf("  rejected: %v\n", err)
		}
	}
	if failed > 0 {
		fmt.Printf("%d of %d cases rejected\n", failed, len(cases))
		os.Exit(1)
	}
	fmt.Println("done")
}
