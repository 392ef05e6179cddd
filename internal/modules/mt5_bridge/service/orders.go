package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"

	"signal_bot/internal/models"
)

// SubmitOrder отправляет один ордер в терминал. Отказ шлюза по коду —
// ошибка уровня этого ордера; соседние ордера сигнала она не трогает.
func (c *Client) SubmitOrder(ctx context.Context, r models.OrderRequest) (models.OrderAck, error) {
	if r.Volume <= 0 {
		return models.OrderAck{}, fmt.Errorf("submit: volume <= 0")
	}
	if r.Kind != models.OrderMarket && r.Price <= 0 {
		return models.OrderAck{}, fmt.Errorf("submit: pending order without price")
	}

	payload, err := sonic.Marshal(r)
	if err != nil {
		return models.OrderAck{}, fmt.Errorf("submit marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/orders", bytes.NewReader(payload))
	if err != nil {
		return models.OrderAck{}, fmt.Errorf("submit new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return models.OrderAck{}, fmt.Errorf("submit do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return models.OrderAck{}, fmt.Errorf("submit http %d: %s", resp.StatusCode, string(data))
	}

	var out struct {
		Code string          `json:"code"`
		Msg  string          `json:"msg"`
		Data models.OrderAck `json:"data"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return models.OrderAck{}, fmt.Errorf("submit decode: %w; body=%s", err, string(data))
	}
	if out.Code != "0" {
		return models.OrderAck{}, fmt.Errorf("submit error: code=%s msg=%s", out.Code, out.Msg)
	}
	if !out.Data.Accepted() {
		return out.Data, fmt.Errorf("order rejected: retcode=%d comment=%s", out.Data.RetCode, out.Data.Comment)
	}
	return out.Data, nil
}

type bridgePosition struct {
	Ticket    int64   `json:"ticket"`
	Symbol    string  `json:"symbol"`
	Type      string  `json:"type"` // BUY/SELL
	Volume    float64 `json:"volume"`
	PriceOpen float64 `json:"price_open"`
	SL        float64 `json:"sl"`
	TP        float64 `json:"tp"`
	Profit    float64 `json:"profit"`
	Comment   string  `json:"comment"`
	Pending   bool    `json:"pending"`
	TimeUnix  int64   `json:"time"`
}

// OpenPositions — открытые позиции плюс отложенные ордера.
func (c *Client) OpenPositions(ctx context.Context) ([]models.Position, error) {
	var data []bridgePosition
	if err := c.get(ctx, "/api/positions", &data); err != nil {
		return nil, fmt.Errorf("open positions: %w", err)
	}

	out := make([]models.Position, 0, len(data))
	for _, p := range data {
		status := "OPEN"
		if p.Pending {
			status = "PENDING"
		}
		out = append(out, models.Position{
			Ticket:    strconv.FormatInt(p.Ticket, 10),
			ChannelID: channelFromComment(p.Comment),
			Symbol:    p.Symbol,
			Direction: models.Direction(p.Type),
			Volume:    p.Volume,
			Entry:     p.PriceOpen,
			SL:        p.SL,
			TP:        p.TP,
			Status:    status,
			PnL:       p.Profit,
			OpenedAt:  time.Unix(p.TimeUnix, 0),
		})
	}
	return out, nil
}

type bridgeDeal struct {
	Ticket     int64   `json:"ticket"`
	Symbol     string  `json:"symbol"`
	Type       string  `json:"type"`
	Volume     float64 `json:"volume"`
	PriceOpen  float64 `json:"price_open"`
	PriceClose float64 `json:"price_close"`
	Profit     float64 `json:"profit"`
	Comment    string  `json:"comment"`
	OpenUnix   int64   `json:"open_time"`
	CloseUnix  int64   `json:"close_time"`
}

// HistoryDeals — закрытые сделки за N дней, уже сгруппированные шлюзом по
// позициям (вход+выход).
func (c *Client) HistoryDeals(ctx context.Context, days int) ([]models.ClosedDeal, error) {
	if days <= 0 {
		days = 7
	}
	var data []bridgeDeal
	if err := c.get(ctx, "/api/history?days="+strconv.Itoa(days), &data); err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	out := make([]models.ClosedDeal, 0, len(data))
	for _, d := range data {
		out = append(out, models.ClosedDeal{
			Ticket:    strconv.FormatInt(d.Ticket, 10),
			ChannelID: channelFromComment(d.Comment),
			Symbol:    d.Symbol,
			Direction: models.Direction(d.Type),
			Volume:    d.Volume,
			Entry:     d.PriceOpen,
			Exit:      d.PriceClose,
			PnL:       d.Profit,
			Duration:  time.Duration(d.CloseUnix-d.OpenUnix) * time.Second,
			ClosedAt:  time.Unix(d.CloseUnix, 0),
		})
	}
	return out, nil
}

// Ордера помечаются комментом "ch:<id>" — так история атрибутируется каналу.
func channelFromComment(comment string) int64 {
	const prefix = "ch:"
	if len(comment) <= len(prefix) || comment[:len(prefix)] != prefix {
		return 0
	}
	n, err := strconv.ParseInt(comment[len(prefix):], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
