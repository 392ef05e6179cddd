package runner

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"

	"signal_bot/internal/models"
	"signal_bot/internal/risk"
	"signal_bot/internal/signal"
	"signal_bot/pkg/logger"
)

// Process — машина состояний одного сигнала:
// AccountVerify → (Extract → Normalize → Validate → RiskGuard → Size → Submit)*N.
// Экстракция недетерминирована, поэтому ретраится ВЕСЬ пред-сабмитный хвост,
// а не отдельный шаг. Частичный успех (1-2 из 3 ордеров) — терминальное
// состояние, не повод для ретрая.
func (r *Runner) Process(ctx context.Context, raw models.RawSignal) models.SignalOutcome {
	span, ctx := opentracing.StartSpanFromContext(ctx, "runner.process")
	defer span.Finish()
	span.SetTag("dialect", raw.Dialect.String())

	out := models.SignalOutcome{
		ID:      r.newOutcomeID(),
		Dialect: raw.Dialect,
	}

	// сверка счёта — до любых ордеров; провал фатален, попытки не тратим
	if err := r.verifyAccount(ctx); err != nil {
		logger.Error("signal %s: account verify: %v", out.ID, err)
		out.Reason = models.ReasonAccountIdentity
		out.FinishedAt = time.Now()
		return out
	}

	maxAttempts := r.cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	lastReason := models.ReasonExtractionFailed
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		out.AttemptsUsed = attempt
		if attempt > 1 {
			select {
			case <-ctx.Done():
				out.Reason = lastReason
				out.FinishedAt = time.Now()
				return out
			case <-time.After(r.cfg.RetryDelay):
			}
		}

		results, reason := r.attempt(ctx, raw, &out)
		if reason != models.ReasonNone {
			lastReason = reason
			logger.Info("signal %s: attempt %d/%d failed: %s", out.ID, attempt, maxAttempts, reason)
			continue
		}
		if len(results) == 0 {
			// все три отправки отбиты — единственный пост-сабмитный ретрай
			lastReason = models.ReasonAttemptsExhausted
			logger.Error("signal %s: attempt %d/%d: all submissions rejected", out.ID, attempt, maxAttempts)
			continue
		}

		out.Results = results
		out.Reason = models.ReasonNone
		out.FinishedAt = time.Now()
		return out
	}

	out.Reason = lastReason
	out.FinishedAt = time.Now()
	return out
}

// attempt прогоняет один полный заход extract→…→submit.
// Пустой reason + пустые results означает: конвейер дошёл до отправки,
// но все три ордера отбиты.
func (r *Runner) attempt(ctx context.Context, raw models.RawSignal, out *models.SignalOutcome) ([]models.OrderResult, models.AbortReason) {
	// 1. Экстракция: внешний LLM, без внутреннего ретрая
	ex, err := r.ex.Extract(ctx, raw.Text, raw.Dialect)
	if err != nil {
		logger.Info("extract: %v", err)
		return nil, models.ReasonExtractionFailed
	}
	out.Symbol = ex.Symbol

	// 2. Метаданные инструмента — каждый раз заново, спеки меняются
	spec, err := r.term.SymbolInfo(ctx, ex.Symbol)
	if err != nil {
		logger.Info("symbol info: %v", err)
		return nil, models.ReasonSizingFailed
	}

	// 3. Нормализация в ровно 3 интента + направленная валидация
	intents, err := signal.Normalize(ex, raw.Dialect, spec.PipSize)
	if err != nil {
		logger.Info("normalize: %v", err)
		return nil, models.ReasonValidationFailed
	}
	if err := signal.Validate(intents); err != nil {
		logger.Info("validate: %v", err)
		return nil, models.ReasonValidationFailed
	}

	// 4. Потолок риска по счёту — один раз на сигнал, до сайзинга
	acc, err := r.term.AccountInfo(ctx)
	if err != nil {
		logger.Error("account info: %v", err)
		return nil, models.ReasonSizingFailed
	}
	budget := r.cfg.RiskBudget()
	if err := risk.CheckAccount(acc, budget); err != nil {
		logger.Info("risk guard: %v", err)
		return nil, models.ReasonRiskCeiling
	}

	// 5. Сайзинг под треть бюджета на позицию
	sized, err := risk.SizeLots(intents, spec, budget.PerPosition())
	if err != nil {
		logger.Info("size: %v", err)
		return nil, models.ReasonSizingFailed
	}
	for _, s := range sized {
		if s.MinLotOverrun {
			// неизбежный пол minLot: риск выше бюджета, логируем и торгуем
			logger.Error("signal %s: intent %d clamped to minLot %.2f, realized risk %.2f > %.2f",
				out.ID, s.Intent.OrderIndex, s.Lot, s.RealizedRisk, budget.PerPosition())
		}
	}

	// 6. Отправка трёх ордеров с изоляцией отказов
	return r.submit(ctx, raw, spec, sized), models.ReasonNone
}
