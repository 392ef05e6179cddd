package service

import (
	"context"
	"fmt"
	"math"
	"net/url"

	"signal_bot/internal/models"
)

// SymbolInfo тянет метаданные инструмента. Не кэшируется между сигналами:
// спецификации у брокера могут меняться.
func (c *Client) SymbolInfo(ctx context.Context, symbol string) (models.InstrumentSpec, error) {
	var data struct {
		Symbol         string  `json:"symbol"`
		Point          float64 `json:"point"`
		TickValue      float64 `json:"tick_value"`
		VolumeMin      float64 `json:"volume_min"`
		VolumeMax      float64 `json:"volume_max"`
		VolumeStep     float64 `json:"volume_step"`
		Digits         int     `json:"digits"`
		TradeAllowedFl bool    `json:"trade_allowed"`
	}
	if err := c.get(ctx, "/api/symbols/"+url.PathEscape(symbol), &data); err != nil {
		return models.InstrumentSpec{}, fmt.Errorf("symbol info %s: %w", symbol, err)
	}

	if !data.TradeAllowedFl {
		return models.InstrumentSpec{}, fmt.Errorf("symbol %s: trading disabled", symbol)
	}
	if data.Point <= 0 || data.TickValue <= 0 {
		return models.InstrumentSpec{}, fmt.Errorf("symbol %s: bad meta point=%.8f tickValue=%.8f",
			symbol, data.Point, data.TickValue)
	}
	if data.VolumeStep <= 0 {
		data.VolumeStep = 0.01
	}
	if data.VolumeMin <= 0 {
		data.VolumeMin = data.VolumeStep
	}
	if data.Digits <= 0 {
		data.Digits = int(math.Round(-math.Log10(data.Point)))
	}

	return models.InstrumentSpec{
		Symbol:         symbol,
		PipSize:        data.Point,
		PipValuePerLot: data.TickValue,
		MinLot:         data.VolumeMin,
		MaxLot:         data.VolumeMax,
		LotStep:        data.VolumeStep,
		PriceDigits:    data.Digits,
	}, nil
}
