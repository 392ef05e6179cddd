package service

import (
	"math"
	"sort"

	"signal_bot/internal/models"
)

type ChannelStats struct {
	TotalSignals int     `json:"totalSignals"`
	WinRate      float64 `json:"winRate"`
	TotalPnl     float64 `json:"totalPnl"`
	BestTrade    float64 `json:"bestTrade"`
	WorstTrade   float64 `json:"worstTrade"`
}

type SymbolStats struct {
	Symbol      string  `json:"symbol"`
	TotalTrades int     `json:"totalTrades"`
	WinRate     float64 `json:"winRate"`
	TotalPnl    float64 `json:"totalPnl"`
}

type Statistics struct {
	Global struct {
		WinRate     float64 `json:"winRate"`
		TotalTrades int     `json:"totalTrades"`
		TotalPnl    float64 `json:"totalPnl"`
	} `json:"global"`
	Channels map[int64]ChannelStats `json:"channels"`
	Symbols  []SymbolStats          `json:"symbols"`
}

// ComputeStatistics сводит закрытые сделки в win-rate/PnL глобально,
// по каналам и по символам.
func ComputeStatistics(deals []models.ClosedDeal) Statistics {
	var out Statistics
	out.Channels = map[int64]ChannelStats{}

	if len(deals) == 0 {
		return out
	}

	wins := 0
	bySymbol := map[string][]models.ClosedDeal{}
	byChannel := map[int64][]models.ClosedDeal{}
	for _, d := range deals {
		if d.PnL > 0 {
			wins++
		}
		out.Global.TotalPnl += d.PnL
		bySymbol[d.Symbol] = append(bySymbol[d.Symbol], d)
		byChannel[d.ChannelID] = append(byChannel[d.ChannelID], d)
	}
	out.Global.TotalTrades = len(deals)
	out.Global.WinRate = winRate(wins, len(deals))

	for ch, list := range byChannel {
		s := ChannelStats{
			TotalSignals: len(list),
			BestTrade:    math.Inf(-1),
			WorstTrade:   math.Inf(1),
		}
		w := 0
		for _, d := range list {
			if d.PnL > 0 {
				w++
			}
			s.TotalPnl += d.PnL
			s.BestTrade = math.Max(s.BestTrade, d.PnL)
			s.WorstTrade = math.Min(s.WorstTrade, d.PnL)
		}
		s.WinRate = winRate(w, len(list))
		out.Channels[ch] = s
	}

	for sym, list := range bySymbol {
		s := SymbolStats{Symbol: sym, TotalTrades: len(list)}
		w := 0
		for _, d := range list {
			if d.PnL > 0 {
				w++
			}
			s.TotalPnl += d.PnL
		}
		s.WinRate = winRate(w, len(list))
		out.Symbols = append(out.Symbols, s)
	}
	sort.Slice(out.Symbols, func(i, j int) bool { return out.Symbols[i].Symbol < out.Symbols[j].Symbol })

	return out
}

func winRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(wins) / float64(total) * 100)
}
