package domain

import "time"

// PositionState is the lifecycle state of a position.
type PositionState string

const (
	// StatePending: buy intent issued, awaiting confirmation.
	StatePending PositionState = "PENDING"
	// StateMonitoring: bought, tracking live price against stop/take bounds.
	StateMonitoring PositionState = "MONITORING"
	// StatePendingSell: sell intent issued, awaiting confirmation.
	StatePendingSell PositionState = "PENDING_SELL"
	// StateClosed: sell confirmed, or position abandoned via forced exit.
	StateClosed PositionState = "CLOSED"
	// StateFailed: buy never confirmed within the timeout, or hard-rejected.
	StateFailed PositionState = "FAILED"
)

// Terminal reports whether no further transitions are allowed from s.
func (s PositionState) Terminal() bool {
	return s == StateClosed || s == StateFailed
}

// validTransitions encodes the state machine. The only cycle is the
// PendingSell -> Monitoring downgrade edge, taken when a sell submission
// fails transiently and the trigger condition no longer holds.
var validTransitions = map[PositionState][]PositionState{
	StatePending:     {StateMonitoring, StateFailed},
	StateMonitoring:  {StatePendingSell},
	StatePendingSell: {StateMonitoring, StateClosed},
}

// CanTransition reports whether from -> to is a legal state transition.
func CanTransition(from, to PositionState) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Position is the mutable record of one trade, owned exclusively by the
// lifecycle manager. It is persisted on every state transition so that a
// restart can resume non-terminal positions instead of losing them.
type Position struct {
	ID     string // deterministic hash of mint + detection time
	Mint   string
	Symbol string
	State  PositionState

	Allocated float64 // quote units committed at entry
	Quantity  float64 // tokens held after buy confirmation

	EntryPrice float64
	EntryTime  time.Time

	// Stop/take bounds are computed exactly once, at buy confirmation,
	// and never change while monitoring.
	StopLoss   float64
	TakeProfit float64

	BuyIntentID string
	BuyDeadline time.Time

	SellIntentID  string
	SellDeadline  time.Time
	TriggerReason string  // why the sell was triggered
	TriggerPrice  float64 // price observed at trigger
	SellRetries   int     // transient sell failures so far

	LastChecked   time.Time
	UnrealizedPnL float64 // quote units, updated while monitoring

	ExitPrice   float64
	ExitTime    time.Time
	RealizedPnL float64 // quote units, set on close
	CloseReason string  // exit reason for Closed, failure reason for Failed

	CreatedAt time.Time
}

// Open reports whether the position still occupies exposure.
func (p *Position) Open() bool {
	return !p.State.Terminal()
}
