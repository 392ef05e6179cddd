package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundToDigits(t *testing.T) {
	assert.InDelta(t, 2329.80, RoundToDigits(2329.7999999999997, 2), 1e-12)
	assert.InDelta(t, 2420.21, RoundToDigits(2420.2099999999991, 2), 1e-12)
	assert.InDelta(t, 1.23457, RoundToDigits(1.2345678, 5), 1e-12)
	assert.InDelta(t, 3354.5, RoundToDigits(3354.5, 1), 1e-12)
	// отрицательная точность — без изменений
	assert.InDelta(t, 12.34, RoundToDigits(12.34, -1), 1e-12)
}

func TestRoundDownToTick(t *testing.T) {
	assert.InDelta(t, 2329.75, RoundDownToTick(2329.79, 0.25), 1e-9)
	assert.InDelta(t, 2329.75, RoundDownToTick(2329.75, 0.25), 1e-9)
	assert.InDelta(t, 5.0, RoundDownToTick(5.0, 0), 1e-9)
}

func TestRoundUpToTick(t *testing.T) {
	assert.InDelta(t, 2330.00, RoundUpToTick(2329.79, 0.25), 1e-9)
	assert.InDelta(t, 2329.75, RoundUpToTick(2329.75, 0.25), 1e-9)
}
