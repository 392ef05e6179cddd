package risk

import (
	"fmt"

	"signal_bot/internal/models"
)

// GuardError — отказ потолка риска по счёту; весь сигнал бракуется.
type GuardError struct {
	CurrentPct float64
	Remaining  float64
	Want       float64
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("account risk ceiling: drawdown %.2f%%, remaining %.2f < budget %.2f",
		e.CurrentPct, e.Remaining, e.Want)
}

// CheckAccount пускает сигнал, только если текущая просадка счёта ниже потолка
// и остатка хватает на весь бюджет сигнала. Проверка выполняется один раз ДО
// сайзинга: три ордера одного сигнала — единое риск-решение, внутри сигнала
// не пересчитывается.
func CheckAccount(acc models.AccountSnapshot, budget models.RiskBudget) error {
	if acc.Balance <= 0 {
		return fmt.Errorf("balance <= 0")
	}
	currentPct := (acc.Balance - acc.Equity) / acc.Balance * 100

	if currentPct >= budget.MaxAccountPct {
		return &GuardError{CurrentPct: currentPct, Remaining: 0, Want: budget.TotalPerSignal}
	}
	remaining := (budget.MaxAccountPct - currentPct) / 100 * acc.Balance
	if remaining < budget.TotalPerSignal {
		return &GuardError{CurrentPct: currentPct, Remaining: remaining, Want: budget.TotalPerSignal}
	}
	return nil
}
