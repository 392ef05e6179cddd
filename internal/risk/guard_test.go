package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_bot/internal/models"
)

func TestCheckAccount(t *testing.T) {
	budget := models.RiskBudget{TotalPerSignal: 300, MaxAccountPct: 7}

	t.Run("healthy account passes", func(t *testing.T) {
		acc := models.AccountSnapshot{Balance: 10000, Equity: 9900}
		assert.NoError(t, CheckAccount(acc, budget))
	})

	t.Run("drawdown at ceiling rejected", func(t *testing.T) {
		// (10000-9300)/10000 = 7% ровно
		acc := models.AccountSnapshot{Balance: 10000, Equity: 9300}
		err := CheckAccount(acc, budget)
		require.Error(t, err)
		var ge *GuardError
		require.ErrorAs(t, err, &ge)
		assert.InDelta(t, 7.0, ge.CurrentPct, 1e-9)
	})

	t.Run("remaining headroom below budget rejected", func(t *testing.T) {
		// просадка 5%, остаток 2% от 10000 = 200 < 300
		acc := models.AccountSnapshot{Balance: 10000, Equity: 9500}
		err := CheckAccount(acc, budget)
		require.Error(t, err)
		var ge *GuardError
		require.ErrorAs(t, err, &ge)
		assert.InDelta(t, 200.0, ge.Remaining, 1e-9)
	})

	t.Run("equity above balance passes", func(t *testing.T) {
		acc := models.AccountSnapshot{Balance: 10000, Equity: 10500}
		assert.NoError(t, CheckAccount(acc, budget))
	})

	t.Run("zero balance rejected", func(t *testing.T) {
		err := CheckAccount(models.AccountSnapshot{}, budget)
		assert.Error(t, err)
	})
}
