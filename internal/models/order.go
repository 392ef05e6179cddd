package models

// OrderKind — способ входа: по рынку либо отложенный (stop/limit).
type OrderKind string

const (
	OrderMarket OrderKind = "market"
	OrderStop   OrderKind = "stop"
	OrderLimit  OrderKind = "limit"
)

// Коды возврата шлюза MT5.
const (
	RetCodeDone   = 10009 // исполнен
	RetCodePlaced = 10008 // отложенный принят
)

// OrderRequest — запрос к терминалу на один ордер.
type OrderRequest struct {
	Symbol    string    `json:"symbol"`
	Direction Direction `json:"direction"`
	Kind      OrderKind `json:"kind"`
	Volume    float64   `json:"volume"`
	Price     float64   `json:"price"` // 0 для market
	SL        float64   `json:"sl"`
	TP        float64   `json:"tp"`
	Digits    int       `json:"digits"`
	Comment   string    `json:"comment"` // атрибуция канала для статистики
}

type OrderAck struct {
	Ticket  string  `json:"ticket"`
	RetCode int     `json:"retcode"`
	Price   float64 `json:"price"` // фактическая цена исполнения/постановки
	Comment string  `json:"comment"`
}

// Accepted — ордер принят терминалом (исполнен либо поставлен отложенным).
func (a OrderAck) Accepted() bool {
	return a.RetCode == RetCodeDone || a.RetCode == RetCodePlaced
}
