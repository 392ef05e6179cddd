package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"

	"signal_bot/internal/models"
)

// Login переподключает сессию терминала на указанный счёт.
func (c *Client) Login(ctx context.Context, login int64, password, server string) error {
	body := map[string]any{
		"login":    login,
		"password": password,
		"server":   server,
	}
	payload, err := sonic.Marshal(body)
	if err != nil {
		return fmt.Errorf("login marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/login", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("login new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("login do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("login http %d: %s", resp.StatusCode, string(data))
	}

	var r struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
		Data struct {
			Authorized bool `json:"authorized"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("login decode: %w; body=%s", err, string(data))
	}
	if r.Code != "0" || !r.Data.Authorized {
		return fmt.Errorf("login rejected: code=%s msg=%s", r.Code, r.Msg)
	}
	return nil
}

// AccountInfo — снапшот текущего счёта сессии.
func (c *Client) AccountInfo(ctx context.Context) (models.AccountSnapshot, error) {
	var data struct {
		Login    int64   `json:"login"`
		Balance  float64 `json:"balance"`
		Equity   float64 `json:"equity"`
		Currency string  `json:"currency"`
		IsDemo   bool    `json:"is_demo"`
		Server   string  `json:"server"`
	}
	if err := c.get(ctx, "/api/account", &data); err != nil {
		return models.AccountSnapshot{}, fmt.Errorf("account info: %w", err)
	}
	if data.Login == 0 {
		return models.AccountSnapshot{}, fmt.Errorf("account info: empty login")
	}
	return models.AccountSnapshot{
		Login:    data.Login,
		Balance:  data.Balance,
		Equity:   data.Equity,
		Currency: data.Currency,
		IsDemo:   data.IsDemo,
		Server:   data.Server,
	}, nil
}
