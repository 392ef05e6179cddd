package signal

import (
	"fmt"

	"signal_bot/internal/models"
)

// Validate проверяет направленную согласованность цен каждого интента.
// BUY: sl < entry < tp; SELL: tp < entry < sl.
// Сигнал атомарен: один битый интент бракует все три.
func Validate(intents []models.OrderIntent) error {
	if len(intents) != 3 {
		return fmt.Errorf("want 3 intents, got %d", len(intents))
	}
	for _, it := range intents {
		switch it.Direction {
		case models.Buy:
			if it.StopLoss >= it.EntryPrice {
				return fmt.Errorf("intent %d: buy sl %.5f >= entry %.5f", it.OrderIndex, it.StopLoss, it.EntryPrice)
			}
			if it.TakeProfit <= it.EntryPrice {
				return fmt.Errorf("intent %d: buy tp %.5f <= entry %.5f", it.OrderIndex, it.TakeProfit, it.EntryPrice)
			}
		case models.Sell:
			if it.StopLoss <= it.EntryPrice {
				return fmt.Errorf("intent %d: sell sl %.5f <= entry %.5f", it.OrderIndex, it.StopLoss, it.EntryPrice)
			}
			if it.TakeProfit >= it.EntryPrice {
				return fmt.Errorf("intent %d: sell tp %.5f >= entry %.5f", it.OrderIndex, it.TakeProfit, it.EntryPrice)
			}
		default:
			return fmt.Errorf("intent %d: unknown direction %q", it.OrderIndex, it.Direction)
		}
	}
	return nil
}
