package domain

import "time"

// TradeRecord is the immutable record emitted for every position that
// reaches Closed. All fields derive from the position's entry/exit data.
type TradeRecord struct {
	TradeID string // same as the position ID
	Mint    string
	Symbol  string

	Allocated  float64
	Quantity   float64
	EntryPrice float64
	EntryTime  time.Time

	ExitPrice float64
	ExitTime  time.Time

	PnL         float64 // quote units
	PnLFraction float64 // (exit - entry) / entry
	ExitReason  string
}

// Exit reason codes
const (
	ExitReasonStopLoss   = "stop-loss"
	ExitReasonTakeProfit = "take-profit"
	ExitReasonManual     = "manual"
	ExitReasonMaxHold    = "max-hold"
	ExitReasonForced     = "forced exit, execution failure"
)
