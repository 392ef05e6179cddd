package helper

import "math"

// RoundToDigits приводит цену к точности инструмента перед отправкой:
// терминал отбивает цены с лишними знаками.
func RoundToDigits(px float64, digits int) float64 {
	if digits < 0 {
		return px
	}
	scale := math.Pow(10, float64(digits))
	return math.Round(px*scale) / scale
}

func RoundDownToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	steps := math.Floor(px/tick + 1e-12)
	return steps * tick
}

func RoundUpToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	steps := math.Ceil(px/tick - 1e-12)
	return steps * tick
}
