package models

import "time"

// InstrumentSpec — метаданные символа из терминала. Запрашиваются на каждый
// сигнал заново: спецификации и цены у брокера могут меняться.
type InstrumentSpec struct {
	Symbol         string
	PipSize        float64 // минимальный значащий шаг цены
	PipValuePerLot float64 // стоимость одного пипса за 1.00 лот, в валюте счёта
	MinLot         float64
	MaxLot         float64
	LotStep        float64
	PriceDigits    int
}

type Quote struct {
	Symbol string
	Bid    float64
	Ask    float64
	At     time.Time
}

type AccountSnapshot struct {
	Login    int64
	Balance  float64
	Equity   float64
	Currency string
	IsDemo   bool
	Server   string
}

type Position struct {
	Ticket    string
	ChannelID int64
	Symbol    string
	Direction Direction
	Volume    float64
	Entry     float64
	SL        float64
	TP        float64
	Status    string // OPEN/PENDING
	PnL       float64
	OpenedAt  time.Time
}

// ClosedDeal — закрытая сделка из истории терминала, сырьё для статистики.
type ClosedDeal struct {
	Ticket    string
	ChannelID int64
	Symbol    string
	Direction Direction
	Volume    float64
	Entry     float64
	Exit      float64
	PnL       float64
	Duration  time.Duration
	ClosedAt  time.Time
}

// RiskBudget — процессная конфигурация риска. Читается на старте, в рантайме
// не мутируется.
type RiskBudget struct {
	TotalPerSignal float64 // EUR на группу из 3 позиций
	MaxAccountPct  float64 // потолок просадки счёта, %
}

// PerPosition — фиксированная треть бюджета сигнала.
func (b RiskBudget) PerPosition() float64 { return b.TotalPerSignal / 3 }
