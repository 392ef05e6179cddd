package runner

import (
	"context"
	"fmt"

	"signal_bot/internal/models"
	"signal_bot/pkg/logger"
)

// verifyAccount сверяет живую сессию терминала с настроенным счётом:
// логин должен совпасть, и при политике require_demo счёт обязан быть демо.
// На рассинхрон — ровно одно принудительное переподключение по сохранённым
// реквизитам; повторный рассинхрон фатален для сигнала.
func (r *Runner) verifyAccount(ctx context.Context) error {
	creds, err := r.cfg.TradingCreds()
	if err != nil {
		return err
	}

	unlock := r.term.LockSession()
	defer unlock()

	check := func() error {
		acc, err := r.term.AccountInfo(ctx)
		if err != nil {
			return fmt.Errorf("account info: %w", err)
		}
		return matchAccount(acc, creds.Login, r.cfg.RequireDemo)
	}

	if err := check(); err == nil {
		return nil
	} else {
		logger.Error("account mismatch, forcing reconnect: %v", err)
	}

	if err := r.term.Login(ctx, creds.Login, creds.Password, creds.Server); err != nil {
		return fmt.Errorf("forced reconnect: %w", err)
	}
	if err := check(); err != nil {
		return fmt.Errorf("account mismatch after reconnect: %w", err)
	}
	return nil
}

func matchAccount(acc models.AccountSnapshot, wantLogin int64, requireDemo bool) error {
	if acc.Login != wantLogin {
		return fmt.Errorf("connected login %d, want %d", acc.Login, wantLogin)
	}
	if requireDemo && !acc.IsDemo {
		return fmt.Errorf("login %d is not a demo account", acc.Login)
	}
	return nil
}
