package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_bot/internal/models"
)

func TestCleanSignal(t *testing.T) {
	t.Run("bare json", func(t *testing.T) {
		sig, err := CleanSignal(`{"symbol":"XAUUSD","sens":"BUY","sl":2314.9,"entry_prices":[2329.79],"tps":[2350,2375,"open"]}`)
		require.NoError(t, err)
		assert.Equal(t, "XAUUSD", sig.Symbol)
		assert.Equal(t, models.Buy, sig.Sens)
		assert.InDelta(t, 2314.9, sig.SL, 1e-9)
		require.Len(t, sig.TPs, 3)
		assert.Equal(t, "open", sig.TPs[2])
	})

	t.Run("json wrapped in prose and code fence", func(t *testing.T) {
		content := "Here is the extraction:\n```json\n{\"symbol\":\"XAUUSD\",\"sens\":\"SELL\",\"sl\":54.5,\"entry_range\":\"3349-52\",\"tps\":[3340]}\n```\nDone."
		sig, err := CleanSignal(content)
		require.NoError(t, err)
		assert.Equal(t, "3349-52", sig.EntryRange)
		assert.Equal(t, models.Sell, sig.Sens)
	})

	t.Run("multiline json", func(t *testing.T) {
		content := "{\n  \"symbol\": \"XAUUSD\",\n  \"sens\": \"BUY\",\n  \"sl\": 2314.9,\n  \"entry_prices\": [2329.79],\n  \"tps\": [2350, 2375, 2400]\n}"
		sig, err := CleanSignal(content)
		require.NoError(t, err)
		assert.Len(t, sig.EntryPrices, 1)
	})

	t.Run("no object", func(t *testing.T) {
		_, err := CleanSignal("sorry, this is not a trading signal")
		assert.Error(t, err)
	})

	t.Run("broken object", func(t *testing.T) {
		_, err := CleanSignal(`{"symbol": "XAUUSD", "sl": }`)
		assert.Error(t, err)
	})
}

func TestCheckArity(t *testing.T) {
	std := func() *models.ExtractedSignal {
		return &models.ExtractedSignal{
			Symbol:      "XAUUSD",
			Sens:        models.Buy,
			SL:          2314.9,
			EntryPrices: []float64{2329.79},
			TPs:         []any{2350.0, 2375.0, "open"},
		}
	}

	assert.NoError(t, checkArity(std(), models.DialectStandard))

	s := std()
	s.EntryPrices = []float64{1, 2}
	assert.Error(t, checkArity(s, models.DialectStandard))

	s = std()
	s.TPs = s.TPs[:2]
	assert.Error(t, checkArity(s, models.DialectStandard))

	s = std()
	s.Symbol = ""
	assert.Error(t, checkArity(s, models.DialectStandard))

	s = std()
	s.Sens = "HOLD"
	assert.Error(t, checkArity(s, models.DialectStandard))

	s = std()
	s.SL = 0
	assert.Error(t, checkArity(s, models.DialectStandard))

	rng := &models.ExtractedSignal{
		Symbol:     "XAUUSD",
		Sens:       models.Sell,
		SL:         54.5,
		EntryRange: "3349-52",
		TPs:        []any{3340.0},
	}
	assert.NoError(t, checkArity(rng, models.DialectRange))

	rng.EntryRange = ""
	assert.Error(t, checkArity(rng, models.DialectRange))
}

func completionsStub(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, content)
	}))
}

func TestExtract(t *testing.T) {
	srv := completionsStub(t, `{"symbol":"XAUUSD","sens":"BUY","sl":2314.9,"entry_prices":[2329.79],"tps":[2350,2375,"open"]}`)
	defer srv.Close()

	c := NewClient("test-key", "gpt-4-turbo", 5*time.Second)
	c.SetBaseURL(srv.URL)

	sig, err := c.Extract(context.Background(), "GOLD BUY ...", models.DialectStandard)
	require.NoError(t, err)
	assert.Equal(t, "XAUUSD", sig.Symbol)
	require.Len(t, sig.EntryPrices, 1)
	assert.InDelta(t, 2329.79, sig.EntryPrices[0], 1e-9)
}

func TestExtractArityMismatch(t *testing.T) {
	// range-ответ на standard-диалект
	srv := completionsStub(t, `{"symbol":"XAUUSD","sens":"SELL","sl":54.5,"entry_range":"3349-52","tps":[3340]}`)
	defer srv.Close()

	c := NewClient("test-key", "gpt-4-turbo", 5*time.Second)
	c.SetBaseURL(srv.URL)

	_, err := c.Extract(context.Background(), "...", models.DialectStandard)
	assert.Error(t, err)
}

func TestExtractHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("test-key", "gpt-4-turbo", 5*time.Second)
	c.SetBaseURL(srv.URL)

	_, err := c.Extract(context.Background(), "...", models.DialectStandard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestExtractEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	c := NewClient("test-key", "gpt-4-turbo", 5*time.Second)
	c.SetBaseURL(srv.URL)

	_, err := c.Extract(context.Background(), "...", models.DialectStandard)
	assert.Error(t, err)
}
