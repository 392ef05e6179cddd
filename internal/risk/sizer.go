package risk

import (
	"fmt"
	"math"

	"signal_bot/internal/models"
)

// SizedIntent — интент с посчитанным лотом.
type SizedIntent struct {
	Intent models.OrderIntent
	Lot    float64
	// RealizedRisk — фактический риск после округления/клампа лота.
	RealizedRisk float64
	// MinLotOverrun — true, если подъём до minLot выбил риск за бюджет.
	// Это допустимый пол, а не ошибка: логируем и торгуем.
	MinLotOverrun bool
}

// SizeLots считает лот для каждого из трёх интентов под бюджет riskPerPosition.
// Лот округляется только ВНИЗ к шагу lotStep: риск не должен превысить бюджет.
func SizeLots(intents []models.OrderIntent, spec models.InstrumentSpec, riskPerPosition float64) ([]SizedIntent, error) {
	if riskPerPosition <= 0 {
		return nil, fmt.Errorf("riskPerPosition <= 0")
	}
	if spec.PipSize <= 0 || spec.PipValuePerLot <= 0 {
		return nil, fmt.Errorf("%s: bad instrument meta: pipSize=%.6f pipValue=%.6f",
			spec.Symbol, spec.PipSize, spec.PipValuePerLot)
	}
	lotStep := spec.LotStep
	if lotStep <= 0 {
		lotStep = 0.01
	}
	minLot := spec.MinLot
	if minLot <= 0 {
		minLot = lotStep
	}

	out := make([]SizedIntent, 0, len(intents))
	for _, it := range intents {
		// 1. Дистанция до стопа в шагах цены, не в сырых ценовых единицах
		pips := math.Abs(it.EntryPrice-it.StopLoss) / spec.PipSize
		if pips <= 0 {
			return nil, fmt.Errorf("intent %d: zero stop distance", it.OrderIndex)
		}

		// 2. Сырой лот из бюджета
		rawLot := riskPerPosition / (pips * spec.PipValuePerLot)
		if rawLot <= 0 || math.IsNaN(rawLot) || math.IsInf(rawLot, 0) {
			return nil, fmt.Errorf("intent %d: rawLot invalid: %.10f", it.OrderIndex, rawLot)
		}

		// 3. Вниз к шагу лота
		steps := math.Floor(rawLot/lotStep + 1e-9)
		lot := steps * lotStep

		// 4. Кламп в [minLot, maxLot]
		if lot < minLot {
			lot = minLot
		}
		if spec.MaxLot > 0 && lot > spec.MaxLot {
			lot = spec.MaxLot
		}

		realized := pips * spec.PipValuePerLot * lot
		out = append(out, SizedIntent{
			Intent:        it,
			Lot:           lot,
			RealizedRisk:  realized,
			MinLotOverrun: lot == minLot && realized > riskPerPosition,
		})
	}
	return out, nil
}
