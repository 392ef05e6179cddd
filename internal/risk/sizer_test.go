package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_bot/internal/models"
)

func goldSpec() models.InstrumentSpec {
	return models.InstrumentSpec{
		Symbol:         "XAUUSD",
		PipSize:        0.01,
		PipValuePerLot: 1.0,
		MinLot:         0.01,
		MaxLot:         100,
		LotStep:        0.01,
		PriceDigits:    2,
	}
}

func buyIntent(entry, sl float64) models.OrderIntent {
	return models.OrderIntent{
		Symbol:     "XAUUSD",
		Direction:  models.Buy,
		EntryPrice: entry,
		StopLoss:   sl,
		TakeProfit: entry + 10,
		OrderIndex: 1,
	}
}

func TestSizeLotsNeverOverspends(t *testing.T) {
	spec := goldSpec()
	const budget = 100.0

	// стоп 14.89 → 1489 пипсов, rawLot = 100/1489 = 0.0671..., пол → 0.06
	sized, err := SizeLots([]models.OrderIntent{buyIntent(2329.80, 2314.91)}, spec, budget)
	require.NoError(t, err)
	require.Len(t, sized, 1)

	assert.InDelta(t, 0.06, sized[0].Lot, 1e-9)
	assert.False(t, sized[0].MinLotOverrun)
	assert.LessOrEqual(t, sized[0].RealizedRisk, budget)
}

func TestSizeLotsExactStepNotFloored(t *testing.T) {
	spec := goldSpec()
	// стоп 10.00 → 1000 пипсов, rawLot = 100/1000 = 0.10 ровно:
	// эпсилон в полу не должен съесть целый шаг
	sized, err := SizeLots([]models.OrderIntent{buyIntent(2330.00, 2320.00)}, spec, 100)
	require.NoError(t, err)
	assert.InDelta(t, 0.10, sized[0].Lot, 1e-9)
	assert.InDelta(t, 100.0, sized[0].RealizedRisk, 1e-6)
}

func TestSizeLotsMinLotOverrun(t *testing.T) {
	spec := goldSpec()
	spec.MinLot = 0.10

	// rawLot 0.0671 < minLot 0.10 → поднимаем до пола и флагуем перебор
	sized, err := SizeLots([]models.OrderIntent{buyIntent(2329.80, 2314.91)}, spec, 100)
	require.NoError(t, err)
	assert.InDelta(t, 0.10, sized[0].Lot, 1e-9)
	assert.True(t, sized[0].MinLotOverrun)
	assert.Greater(t, sized[0].RealizedRisk, 100.0)
}

func TestSizeLotsMaxLotClamp(t *testing.T) {
	spec := goldSpec()
	spec.MaxLot = 0.05

	sized, err := SizeLots([]models.OrderIntent{buyIntent(2330.00, 2329.00)}, spec, 100)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, sized[0].Lot, 1e-9)
}

func TestSizeLotsThreeIntents(t *testing.T) {
	spec := goldSpec()
	intents := []models.OrderIntent{
		buyIntent(3349.01, 3344.00),
		buyIntent(3350.51, 3344.00),
		buyIntent(3352.01, 3344.00),
	}
	sized, err := SizeLots(intents, spec, 100)
	require.NoError(t, err)
	require.Len(t, sized, 3)
	for _, s := range sized {
		assert.LessOrEqual(t, s.RealizedRisk, 100.0+1e-9)
	}
}

func TestSizeLotsRejects(t *testing.T) {
	spec := goldSpec()

	_, err := SizeLots([]models.OrderIntent{buyIntent(2330, 2320)}, spec, 0)
	assert.Error(t, err)

	bad := spec
	bad.PipSize = 0
	_, err = SizeLots([]models.OrderIntent{buyIntent(2330, 2320)}, bad, 100)
	assert.Error(t, err)

	// нулевая дистанция до стопа
	_, err = SizeLots([]models.OrderIntent{buyIntent(2330, 2330)}, spec, 100)
	assert.Error(t, err)
}
