// Package stats aggregates closed trades into a performance report.
package stats

import (
	"context"

	"launch-sniper/internal/domain"
	"launch-sniper/internal/storage"
)

// Report summarizes realized performance over a set of closed trades.
type Report struct {
	TotalTrades int
	Wins        int
	Losses      int
	WinRate     float64 // wins / total, 0 when no trades

	TotalPnL   float64
	AvgPnL     float64
	BestPnL    float64
	WorstPnL   float64
	ExitCounts map[string]int // trades per exit reason
}

// Compute builds a report from trade records. Break-even trades count as
// losses; the win rate only credits actual profit.
func Compute(trades []*domain.TradeRecord) Report {
	r := Report{ExitCounts: make(map[string]int)}
	if len(trades) == 0 {
		return r
	}

	r.BestPnL = trades[0].PnL
	r.WorstPnL = trades[0].PnL
	for _, t := range trades {
		r.TotalTrades++
		r.TotalPnL += t.PnL
		if t.PnL > 0 {
			r.Wins++
		} else {
			r.Losses++
		}
		if t.PnL > r.BestPnL {
			r.BestPnL = t.PnL
		}
		if t.PnL < r.WorstPnL {
			r.WorstPnL = t.PnL
		}
		r.ExitCounts[t.ExitReason]++
	}

	r.WinRate = float64(r.Wins) / float64(r.TotalTrades)
	r.AvgPnL = r.TotalPnL / float64(r.TotalTrades)
	return r
}

// FromStore loads all trades and computes the report.
func FromStore(ctx context.Context, trades storage.TradeRecordStore) (Report, error) {
	all, err := trades.GetAll(ctx)
	if err != nil {
		return Report{}, err
	}
	return Compute(all), nil
}
