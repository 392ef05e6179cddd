package signal

import "regexp"

// Дешёвый фильтр перед LLM: похоже ли сообщение на торговый сигнал.
// Ложный пропуск — ок (сообщение молча игнорируется), ложное срабатывание
// дёшево: экстракция дальше сама отвалится на валидации.
var (
	reStopLoss   = regexp.MustCompile(`(?i)\b(sl|stop\s*loss|stop)\b`)
	reTakeProfit = regexp.MustCompile(`(?i)\b(tp\d?|take\s*profit|target)\b`)
)

// IsSignal — true, если в тексте есть и маркер стопа, и маркер тейка.
func IsSignal(text string) bool {
	return reStopLoss.MatchString(text) && reTakeProfit.MatchString(text)
}
