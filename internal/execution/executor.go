// Package execution defines the capability interface to the trade execution
// boundary. The engine core depends only on this interface and never on
// chain-specific types, so backends for different chains plug in behind it.
package execution

import (
	"context"
	"time"
)

// IntentState is the lifecycle state of a submitted buy/sell intent.
type IntentState string

const (
	IntentPending   IntentState = "PENDING"
	IntentConfirmed IntentState = "CONFIRMED"
	IntentFailed    IntentState = "FAILED"
)

// IntentStatus is the result of polling an intent.
type IntentStatus struct {
	State     IntentState
	FillPrice float64 // set when confirmed
	Reason    string  // set when failed
}

// Quote is a price observation with its origin time, so callers can detect
// stale data.
type Quote struct {
	Price float64
	AsOf  time.Time
}

// Boundary is the execution capability consumed by the engine core.
// Every call is bounded by the caller's context; implementations classify
// failures as transient or permanent via the Failure error type.
type Boundary interface {
	// SubmitBuy submits a buy order for amount quote units of the token.
	SubmitBuy(ctx context.Context, mint string, amount float64) (intentID string, err error)

	// SubmitSell submits a sell order for quantity tokens.
	SubmitSell(ctx context.Context, mint string, quantity float64) (intentID string, err error)

	// PollIntent reports the current state of a submitted intent.
	PollIntent(ctx context.Context, intentID string) (IntentStatus, error)

	// GetCurrentPrice returns the latest known price for the token.
	GetCurrentPrice(ctx context.Context, mint string) (Quote, error)

	// Balance returns the current account balance in quote units.
	Balance(ctx context.Context) (float64, error)
}
