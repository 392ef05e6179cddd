package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"signal_bot/pkg/logger"

	"signal_bot/internal/models"
)

// staleQuote — старше этого кэш котировки не считается живым.
const staleQuote = 2 * time.Second

type HealthSink interface {
	SetWSConnected(v bool)
	TouchQuote(t time.Time)
}

type noopHealth struct{}

func (noopHealth) SetWSConnected(bool)  {}
func (noopHealth) TouchQuote(time.Time) {}

// StreamQuotes держит одно WS-подключение к шлюзу и наполняет кэш последних
// котировок. Рвётся — переподключаемся с паузой.
func (c *Client) StreamQuotes(ctx context.Context, health HealthSink) {
	if health == nil {
		health = noopHealth{}
	}

	var tick struct {
		Symbol string  `json:"symbol"`
		Bid    float64 `json:"bid"`
		Ask    float64 `json:"ask"`
		Time   int64   `json:"time"`
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		logger.Info("[WS] quotes connect %s", c.wsURL)
		conn, _, err := c.wsDialer.Dial(c.wsURL, nil)
		if err != nil {
			logger.Error("[WS] quotes dial: %v", err)
			time.Sleep(time.Second)
			continue
		}
		health.SetWSConnected(true)

		// закрываем сокет по отмене контекста, иначе ReadMessage висит
		done := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				_ = conn.Close()
			case <-done:
			}
		}()

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				logger.Error("[WS] quotes read: %v", err)
				break
			}
			if err := json.Unmarshal(raw, &tick); err != nil || tick.Symbol == "" {
				continue
			}
			q := models.Quote{
				Symbol: tick.Symbol,
				Bid:    tick.Bid,
				Ask:    tick.Ask,
				At:     time.Now(),
			}
			c.quoteMu.Lock()
			c.quotes[tick.Symbol] = q
			c.quoteMu.Unlock()
			health.TouchQuote(q.At)
		}

		close(done)
		_ = conn.Close()
		health.SetWSConnected(false)

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

// Quote отдаёт свежую котировку из WS-кэша, при протухшем кэше — REST.
func (c *Client) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	c.quoteMu.RLock()
	q, ok := c.quotes[symbol]
	c.quoteMu.RUnlock()
	if ok && time.Since(q.At) < staleQuote {
		return q, nil
	}

	var data struct {
		Bid float64 `json:"bid"`
		Ask float64 `json:"ask"`
	}
	if err := c.get(ctx, "/api/quote/"+url.PathEscape(symbol), &data); err != nil {
		return models.Quote{}, fmt.Errorf("quote %s: %w", symbol, err)
	}
	if data.Bid <= 0 || data.Ask <= 0 {
		return models.Quote{}, fmt.Errorf("quote %s: bad bid/ask %.5f/%.5f", symbol, data.Bid, data.Ask)
	}
	return models.Quote{Symbol: symbol, Bid: data.Bid, Ask: data.Ask, At: time.Now()}, nil
}
