package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/bytedance/sonic"
	"github.com/opentracing/opentracing-go"

	"signal_bot/internal/models"
)

const completionsURL = "https://api.openai.com/v1/chat/completions"

// Client — адаптер LLM-экстракции. Недетерминированный: два вызова на одном
// тексте могут дать разный результат, поэтому ретраев внутри нет — цикл
// попыток живёт выше, в контроллере исполнения.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration
}

func NewClient(apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: completionsURL,
		apiKey:  apiKey,
		model:   model,
		timeout: timeout,
	}
}

// SetBaseURL — для тестов против httptest-сервера.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// Extract отправляет текст алерта с диалектным промптом и разбирает JSON из
// ответа. Любой сбой (таймаут, не-JSON, битые поля) — ошибка без ретрая.
func (c *Client) Extract(ctx context.Context, text string, dialect models.Dialect) (*models.ExtractedSignal, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "extractor.extract")
	defer span.Finish()
	span.SetTag("dialect", dialect.String())

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": promptFor(dialect, text)},
		},
	}
	payload, err := sonic.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("extract marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("extract new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extract do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("extract http %d: %s", resp.StatusCode, string(data))
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("extract decode: %w", err)
	}
	if len(r.Choices) == 0 {
		return nil, fmt.Errorf("extract: empty choices")
	}

	sig, err := CleanSignal(r.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	if err := checkArity(sig, dialect); err != nil {
		return nil, err
	}
	return sig, nil
}

// Модель любит оборачивать JSON текстом/код-блоками — вырезаем первый объект.
var reJSONObject = regexp.MustCompile(`(?s)\{.*\}`)

// CleanSignal выдёргивает JSON-объект из текста ответа модели.
func CleanSignal(content string) (*models.ExtractedSignal, error) {
	raw := reJSONObject.FindString(content)
	if raw == "" {
		return nil, fmt.Errorf("no json object in completion")
	}
	var sig models.ExtractedSignal
	if err := json.Unmarshal([]byte(raw), &sig); err != nil {
		return nil, fmt.Errorf("clean signal: %w", err)
	}
	return &sig, nil
}

// checkArity — структурная проверка до нормализации: недостающие поля и кривая
// арность схлопываются в отказ экстракции.
func checkArity(sig *models.ExtractedSignal, dialect models.Dialect) error {
	if sig.Symbol == "" {
		return fmt.Errorf("missing symbol")
	}
	if sig.Sens != models.Buy && sig.Sens != models.Sell {
		return fmt.Errorf("bad sens %q", sig.Sens)
	}
	if sig.SL <= 0 {
		return fmt.Errorf("missing sl")
	}
	switch dialect {
	case models.DialectStandard:
		if n := len(sig.EntryPrices); n != 1 && n != 3 {
			return fmt.Errorf("standard: want 1 or 3 entries, got %d", n)
		}
		if len(sig.TPs) != 3 {
			return fmt.Errorf("standard: want 3 tps, got %d", len(sig.TPs))
		}
	case models.DialectRange:
		if sig.EntryRange == "" {
			return fmt.Errorf("range: missing entry_range")
		}
		if n := len(sig.TPs); n != 1 && n != 3 {
			return fmt.Errorf("range: want 1 or 3 tps, got %d", n)
		}
	default:
		return fmt.Errorf("unsupported dialect %v", dialect)
	}
	return nil
}
