package service

import (
	"fmt"

	"signal_bot/internal/models"
)

// Промпты возвращают поля КАК В СООБЩЕНИИ: вся арифметика (вилка, сокращённый
// SL, "open"-тейк) делается у нас в нормализаторе, а не в модели.

const standardPrompt = `Analyse this trading alert and return ONLY a valid JSON object, no extra text.

Required structure:
{
  "symbol": "UPPERCASE_SYMBOL",
  "sens": "BUY" or "SELL",
  "sl": number,
  "entry_prices": [price],
  "tps": [tp1, tp2, tp3]
}

Rules:
- "long"/"achat" -> "BUY"; "short"/"vente" -> "SELL"
- Symbols: "XAU/USD" -> "XAUUSD", "BTC/USDT" -> "BTCUSDT"
- Exactly 3 take profits; if the third one is "open", keep the string "open" as is
- Copy prices verbatim, do not compute anything

Alert:
"%s"`

const rangePrompt = `Analyse this trading alert and return ONLY a valid JSON object, no extra text.

Required structure:
{
  "symbol": "UPPERCASE_SYMBOL",
  "sens": "BUY" or "SELL",
  "sl": number,
  "entry_range": "RANGE_TOKEN",
  "tps": [tp]
}

Rules:
- "go sell"/"sell" -> "SELL"; "go buy"/"buy" -> "BUY"
- entry_range is the range token copied VERBATIM from the alert, e.g. "3349-52"
- sl is the number as written in the alert, even if abbreviated (e.g. 54.5)
- Do not expand the range and do not rebuild the stop loss, copy values as is

Alert:
"%s"`

func promptFor(dialect models.Dialect, text string) string {
	if dialect == models.DialectRange {
		return fmt.Sprintf(rangePrompt, text)
	}
	return fmt.Sprintf(standardPrompt, text)
}
