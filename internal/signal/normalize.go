package signal

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"signal_bot/internal/models"
)

// Фиксированные RR-мультипликаторы для трёх входов канала-вилки,
// от консервативного к агрессивному.
var rangeRiskRatios = [3]float64{2.5, 4.0, 6.0}

// Normalize превращает извлечённый сигнал в ровно 3 интента.
// point — минимальный шаг цены инструмента: каждый вход сдвигается на +1 шаг,
// потому что ордер ровно по цене из алерта брокер иногда отбивает.
func Normalize(ex *models.ExtractedSignal, dialect models.Dialect, point float64) ([]models.OrderIntent, error) {
	if ex == nil {
		return nil, fmt.Errorf("nil extracted signal")
	}
	if ex.Symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}
	if ex.Sens != models.Buy && ex.Sens != models.Sell {
		return nil, fmt.Errorf("unknown direction %q", ex.Sens)
	}
	if point <= 0 {
		return nil, fmt.Errorf("point <= 0")
	}

	switch dialect {
	case models.DialectStandard:
		return normalizeStandard(ex, point)
	case models.DialectRange:
		return normalizeRange(ex, point)
	default:
		return nil, fmt.Errorf("unsupported dialect %v", dialect)
	}
}

// normalizeStandard: один вход, один SL, три разных тейка.
// Третий тейк "open" — удвоенная дистанция вход→TP2, спроецированная от входа
// по направлению сделки.
func normalizeStandard(ex *models.ExtractedSignal, point float64) ([]models.OrderIntent, error) {
	entry, err := singleEntry(ex.EntryPrices)
	if err != nil {
		return nil, err
	}
	if ex.SL <= 0 {
		return nil, fmt.Errorf("sl <= 0")
	}
	if len(ex.TPs) != 3 {
		return nil, fmt.Errorf("standard: want 3 tps, got %d", len(ex.TPs))
	}

	tps := make([]float64, 3)
	for i, raw := range ex.TPs {
		v, open, err := tpValue(raw)
		if err != nil {
			return nil, fmt.Errorf("tp%d: %w", i+1, err)
		}
		if open {
			// "open" допустим только третьим
			if i != 2 {
				return nil, fmt.Errorf("tp%d: %q only allowed as tp3", i+1, models.TPOpen)
			}
			// TP2 авторитетен: tp3 = entry + sign*2*|tp2 - entry|
			tps[2] = entry + ex.Sens.Sign()*2*math.Abs(tps[1]-entry)
			continue
		}
		tps[i] = v
	}

	entry += point // nudge

	out := make([]models.OrderIntent, 0, 3)
	for i := 0; i < 3; i++ {
		out = append(out, models.OrderIntent{
			Symbol:     ex.Symbol,
			Direction:  ex.Sens,
			EntryPrice: entry,
			StopLoss:   ex.SL,
			TakeProfit: tps[i],
			OrderIndex: i + 1,
		})
	}
	return out, nil
}

// normalizeRange: вход-вилка "3349-52" → три входа [низ, середина, верх],
// сокращённый SL достраивается до полной цены, тейки выводятся из RR.
func normalizeRange(ex *models.ExtractedSignal, point float64) ([]models.OrderIntent, error) {
	low, high, fragLen, err := ParseRange(ex.EntryRange)
	if err != nil {
		return nil, err
	}

	sl, err := ResolveAbbrevSL(ex.SL, low, fragLen)
	if err != nil {
		return nil, err
	}

	entries := [3]float64{low, (low + high) / 2, high}

	out := make([]models.OrderIntent, 0, 3)
	for i, e := range entries {
		e += point // nudge
		rr := rangeRiskRatios[i]
		tp := e + ex.Sens.Sign()*rr*math.Abs(e-sl)
		out = append(out, models.OrderIntent{
			Symbol:     ex.Symbol,
			Direction:  ex.Sens,
			EntryPrice: e,
			StopLoss:   sl,
			TakeProfit: tp,
			OrderIndex: i + 1,
			RiskRatio:  rr,
		})
	}
	return out, nil
}

// ParseRange разбирает токен "AAAA-BB": низ = AAAA, верх = AAAA с последними
// len(BB) цифрами, заменёнными на BB. "3349-52" → 3349, 3352.
// Возвращает также длину хвоста BB — она нужна для достройки сокращённого SL.
func ParseRange(token string) (low, high float64, fragLen int, err error) {
	token = strings.TrimSpace(token)
	i := strings.IndexByte(token, '-')
	if i <= 0 || i >= len(token)-1 {
		return 0, 0, 0, fmt.Errorf("bad range token %q", token)
	}
	lowStr, frag := token[:i], token[i+1:]

	low, err = strconv.ParseFloat(lowStr, 64)
	if err != nil || low <= 0 {
		return 0, 0, 0, fmt.Errorf("bad range low %q", lowStr)
	}
	if strings.ContainsAny(lowStr, ".,") || strings.ContainsAny(frag, ".,") {
		return 0, 0, 0, fmt.Errorf("range token with fractions not supported: %q", token)
	}
	if len(frag) >= len(lowStr) {
		return 0, 0, 0, fmt.Errorf("range tail %q not shorter than base %q", frag, lowStr)
	}

	high, err = strconv.ParseFloat(lowStr[:len(lowStr)-len(frag)]+frag, 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("bad range high from %q", token)
	}
	if high <= low {
		return 0, 0, 0, fmt.Errorf("range high %.2f <= low %.2f", high, low)
	}
	return low, high, len(frag), nil
}

// ResolveAbbrevSL достраивает сокращённый стоп канала-вилки.
// База — старшие цифры низа вилки (всё, кроме последних fragLen цифр);
// фрагмент меньше 100 приклеивается к базе, иначе значение берётся как есть.
// Вилка "3349-52", sl 54.5 → 33*100 + 54.5 = 3354.5.
func ResolveAbbrevSL(sl, rangeLow float64, fragLen int) (float64, error) {
	if sl <= 0 {
		return 0, fmt.Errorf("sl <= 0")
	}
	if sl >= 100 {
		return sl, nil
	}
	scale := math.Pow(10, float64(fragLen))
	base := math.Trunc(rangeLow / scale)
	if base <= 0 {
		return 0, fmt.Errorf("abbrev sl: zero base from low %.2f", rangeLow)
	}
	return base*scale + sl, nil
}

func singleEntry(prices []float64) (float64, error) {
	switch len(prices) {
	case 1:
		// ok
	case 3:
		// LLM по промпту дублирует один вход трижды
		if prices[0] != prices[1] || prices[1] != prices[2] {
			return 0, fmt.Errorf("standard: 3 distinct entries %v", prices)
		}
	default:
		return 0, fmt.Errorf("standard: want 1 or 3 entries, got %d", len(prices))
	}
	if prices[0] <= 0 {
		return 0, fmt.Errorf("entry <= 0")
	}
	return prices[0], nil
}

// tpValue разбирает один элемент tps: число (как float64 после json-декода,
// строка с числом) или сентинель "open".
func tpValue(raw any) (v float64, open bool, err error) {
	switch t := raw.(type) {
	case float64:
		if t <= 0 {
			return 0, false, fmt.Errorf("tp <= 0")
		}
		return t, false, nil
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		if s == models.TPOpen {
			return 0, true, nil
		}
		f, perr := strconv.ParseFloat(s, 64)
		if perr != nil || f <= 0 {
			return 0, false, fmt.Errorf("bad tp %q", t)
		}
		return f, false, nil
	default:
		return 0, false, fmt.Errorf("bad tp type %T", raw)
	}
}
