package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"signal_bot/internal/models"
)

// Client — клиент локального REST/WS шлюза терминала MT5.
// Сессия одна на процесс: логин и отправка ордеров сериализуются через
// sessionMu, чтобы сверка счёта одного сигнала не переплеталась с отправкой
// ордеров другого.
type Client struct {
	http     *http.Client
	wsDialer *websocket.Dialer
	baseURL  string
	wsURL    string

	sessionMu sync.Mutex

	quoteMu sync.RWMutex
	quotes  map[string]models.Quote
}

func NewClient(baseURL, wsURL string) *Client {
	return &Client{
		http:     &http.Client{Timeout: 10 * time.Second},
		wsDialer: &websocket.Dialer{},
		baseURL:  baseURL,
		wsURL:    wsURL,
		quotes:   make(map[string]models.Quote),
	}
}

// LockSession берёт сессию терминала под один сигнал целиком:
// сверка счёта + три ордера как единая критическая секция.
func (c *Client) LockSession() func() {
	c.sessionMu.Lock()
	return c.sessionMu.Unlock
}

// get — общий GET к шлюзу с декодом конверта {code, msg, data}.
func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(b))
	}

	var envelope struct {
		Code string          `json:"code"`
		Msg  string          `json:"msg"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if envelope.Code != "0" {
		return fmt.Errorf("bridge error %s: %s", envelope.Code, envelope.Msg)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
