package models

import "time"

type Dialect int

const (
	DialectStandard Dialect = 1 // один вход, три разных TP
	DialectRange    Dialect = 2 // вход-вилка "3349-52", один TP, сокращённый SL
)

func (d Dialect) String() string {
	switch d {
	case DialectStandard:
		return "standard"
	case DialectRange:
		return "range"
	default:
		return "unknown"
	}
}

type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

// Sign — +1 для BUY, -1 для SELL. Используется при проекции TP по направлению.
func (d Direction) Sign() float64 {
	if d == Sell {
		return -1
	}
	return 1
}

// RawSignal — сообщение из канала, ещё не распознанное.
type RawSignal struct {
	MessageID int64
	ChannelID int64
	Dialect   Dialect
	Text      string
	Author    string
	At        time.Time
}

// TPOpen — сентинель "open" в третьем тейке стандартного канала.
const TPOpen = "open"

// ExtractedSignal — ответ LLM-экстрактора. Может быть структурно битым,
// проверяется нормализатором.
type ExtractedSignal struct {
	Symbol      string    `json:"symbol"`
	Sens        Direction `json:"sens"`
	SL          float64   `json:"sl"`           // у канала-вилки может быть сокращённым
	EntryPrices []float64 `json:"entry_prices"` // standard: 1 вход (или он же трижды)
	EntryRange  string    `json:"entry_range"`  // range: токен "3349-52" как в сообщении
	// tps несёт числа и, возможно, строку "open" — поэтому raw.
	TPs []any `json:"tps"`
}

// OrderIntent — полностью посчитанный, но ещё не отправленный ордер.
// После создания не мутируется: исправленный интент — это новый интент.
type OrderIntent struct {
	Symbol     string
	Direction  Direction
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	OrderIndex int     // 1..3
	RiskRatio  float64 // 0 для standard-канала
}

type OrderStatus string

const (
	StatusFilled   OrderStatus = "FILLED"
	StatusPending  OrderStatus = "PENDING"
	StatusRejected OrderStatus = "REJECTED"
)

type OrderResult struct {
	OrderIndex     int
	BrokerOrderID  string
	ExecutionPrice float64
	LotSize        float64
	Status         OrderStatus
	At             time.Time
}

// Причины терминального исхода без ордеров.
type AbortReason string

const (
	ReasonNone              AbortReason = ""
	ReasonExtractionFailed  AbortReason = "extraction_failed"
	ReasonValidationFailed  AbortReason = "validation_failed"
	ReasonSizingFailed      AbortReason = "sizing_failed"
	ReasonRiskCeiling       AbortReason = "risk_ceiling"
	ReasonAccountIdentity   AbortReason = "account_identity"
	ReasonAttemptsExhausted AbortReason = "attempts_exhausted"
)

// SignalOutcome — единица журнала: один обработанный сигнал.
type SignalOutcome struct {
	ID           string // ULID
	Dialect      Dialect
	Symbol       string
	AttemptsUsed int
	Reason       AbortReason
	Results      []OrderResult
	FinishedAt   time.Time
}
