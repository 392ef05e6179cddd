package runner

import (
	"context"
	"fmt"
	"math"
	"time"

	"signal_bot/internal/helper"
	"signal_bot/internal/models"
	"signal_bot/internal/risk"
	"signal_bot/pkg/logger"
)

// submit шлёт три ордера по очереди под одной блокировкой сессии.
// Отказ по одному ордеру изолирован: логируем, пропускаем, шлём остальные.
// Отдельный ордер не ретраится — упавший интент просто выпадает из исхода.
func (r *Runner) submit(
	ctx context.Context,
	raw models.RawSignal,
	spec models.InstrumentSpec,
	sized []risk.SizedIntent,
) []models.OrderResult {
	unlock := r.term.LockSession()
	defer unlock()

	results := make([]models.OrderResult, 0, len(sized))
	for _, s := range sized {
		// пауза между ордерами: лимиты венью
		if err := r.limiter.Wait(ctx); err != nil {
			break
		}

		req, err := r.buildRequest(ctx, raw, spec, s)
		if err != nil {
			logger.Error("order %d/%d %s: %v", s.Intent.OrderIndex, len(sized), s.Intent.Symbol, err)
			continue
		}

		ack, err := r.term.SubmitOrder(ctx, req)
		if err != nil {
			logger.Error("order %d/%d %s rejected: %v", s.Intent.OrderIndex, len(sized), s.Intent.Symbol, err)
			continue
		}

		status := models.StatusPending
		if req.Kind == models.OrderMarket && ack.RetCode == models.RetCodeDone {
			status = models.StatusFilled
		}
		price := ack.Price
		if price <= 0 {
			price = s.Intent.EntryPrice
		}
		results = append(results, models.OrderResult{
			OrderIndex:     s.Intent.OrderIndex,
			BrokerOrderID:  ack.Ticket,
			ExecutionPrice: price,
			LotSize:        s.Lot,
			Status:         status,
			At:             time.Now(),
		})
		logger.Info("order %d/%d %s %s %s lot=%.2f @ %.5f ticket=%s",
			s.Intent.OrderIndex, len(sized), s.Intent.Symbol, s.Intent.Direction, req.Kind, s.Lot, price, ack.Ticket)
	}
	return results
}

func (r *Runner) buildRequest(
	ctx context.Context,
	raw models.RawSignal,
	spec models.InstrumentSpec,
	s risk.SizedIntent,
) (models.OrderRequest, error) {
	q, err := r.term.Quote(ctx, s.Intent.Symbol)
	if err != nil {
		return models.OrderRequest{}, fmt.Errorf("quote: %w", err)
	}

	kind, price := chooseOrderKind(s.Intent, q, r.cfg.MarketTolerancePoints*spec.PipSize)
	return models.OrderRequest{
		Symbol:    s.Intent.Symbol,
		Direction: s.Intent.Direction,
		Kind:      kind,
		Volume:    s.Lot,
		Price:     helper.RoundToDigits(price, spec.PriceDigits),
		SL:        helper.RoundToDigits(s.Intent.StopLoss, spec.PriceDigits),
		TP:        helper.RoundToDigits(s.Intent.TakeProfit, spec.PriceDigits),
		Digits:    spec.PriceDigits,
		Comment:   fmt.Sprintf("ch:%d", raw.ChannelID),
	}, nil
}

// chooseOrderKind: вход в пределах допуска от рынка — market; дальше —
// отложенный, stop или limit по положению входа относительно текущей цены
// и направлению. BUY сверяется с ask, SELL — с bid.
func chooseOrderKind(it models.OrderIntent, q models.Quote, tolerance float64) (models.OrderKind, float64) {
	ref := q.Ask
	if it.Direction == models.Sell {
		ref = q.Bid
	}

	if math.Abs(it.EntryPrice-ref) <= tolerance {
		return models.OrderMarket, 0
	}

	above := it.EntryPrice > ref
	if it.Direction == models.Buy {
		if above {
			return models.OrderStop, it.EntryPrice // buy stop: вход выше рынка
		}
		return models.OrderLimit, it.EntryPrice // buy limit: вход ниже рынка
	}
	if above {
		return models.OrderLimit, it.EntryPrice // sell limit: вход выше рынка
	}
	return models.OrderStop, it.EntryPrice // sell stop: вход ниже рынка
}
