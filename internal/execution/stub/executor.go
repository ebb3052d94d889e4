// Package stub provides a scriptable in-memory execution boundary for tests
// and dry runs. Intents resolve deterministically: by default a submitted
// intent confirms at the current quote after a configurable number of polls,
// and tests can queue submission errors or override intent outcomes.
package stub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"launch-sniper/internal/execution"
)

// Executor implements execution.Boundary.
type Executor struct {
	mu sync.Mutex

	balance float64
	quotes  map[string]execution.Quote
	intents map[string]*scriptedIntent
	seq     int

	// queued submission errors, consumed FIFO
	buyErrs  []error
	sellErrs []error

	// queued outcome overrides for upcoming intents, consumed FIFO
	buyOutcomes  []execution.IntentStatus
	sellOutcomes []execution.IntentStatus

	// PendingPolls is how many polls an intent stays pending before
	// resolving. Zero resolves on the first poll.
	PendingPolls int

	buySubmits  int
	sellSubmits int
}

type scriptedIntent struct {
	polls        int
	resolveAfter int
	status       execution.IntentStatus
}

// NewExecutor creates a stub executor with the given starting balance.
func NewExecutor(balance float64) *Executor {
	return &Executor{
		balance: balance,
		quotes:  make(map[string]execution.Quote),
		intents: make(map[string]*scriptedIntent),
	}
}

// SetBalance replaces the reported account balance.
func (e *Executor) SetBalance(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.balance = v
}

// SetQuote sets the current price observation for a mint.
func (e *Executor) SetQuote(mint string, price float64, asOf time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.quotes[mint] = execution.Quote{Price: price, AsOf: asOf}
}

// QueueBuyError makes the next SubmitBuy call return err.
func (e *Executor) QueueBuyError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buyErrs = append(e.buyErrs, err)
}

// QueueSellError makes the next SubmitSell call return err.
func (e *Executor) QueueSellError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sellErrs = append(e.sellErrs, err)
}

// QueueBuyOutcome overrides the resolved status of the next buy intent.
func (e *Executor) QueueBuyOutcome(st execution.IntentStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buyOutcomes = append(e.buyOutcomes, st)
}

// QueueSellOutcome overrides the resolved status of the next sell intent.
func (e *Executor) QueueSellOutcome(st execution.IntentStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sellOutcomes = append(e.sellOutcomes, st)
}

// BuySubmits returns how many buy submissions were accepted.
func (e *Executor) BuySubmits() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buySubmits
}

// SellSubmits returns how many sell submissions were accepted.
func (e *Executor) SellSubmits() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sellSubmits
}

// SubmitBuy implements execution.Boundary.
func (e *Executor) SubmitBuy(_ context.Context, mint string, _ float64) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.buyErrs) > 0 {
		err := e.buyErrs[0]
		e.buyErrs = e.buyErrs[1:]
		return "", err
	}

	status := execution.IntentStatus{
		State:     execution.IntentConfirmed,
		FillPrice: e.quotes[mint].Price,
	}
	if len(e.buyOutcomes) > 0 {
		status = e.buyOutcomes[0]
		e.buyOutcomes = e.buyOutcomes[1:]
	}

	e.seq++
	e.buySubmits++
	id := fmt.Sprintf("buy-%s-%d", mint, e.seq)
	e.intents[id] = &scriptedIntent{resolveAfter: e.PendingPolls, status: status}
	return id, nil
}

// SubmitSell implements execution.Boundary.
func (e *Executor) SubmitSell(_ context.Context, mint string, _ float64) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.sellErrs) > 0 {
		err := e.sellErrs[0]
		e.sellErrs = e.sellErrs[1:]
		return "", err
	}

	status := execution.IntentStatus{
		State:     execution.IntentConfirmed,
		FillPrice: e.quotes[mint].Price,
	}
	if len(e.sellOutcomes) > 0 {
		status = e.sellOutcomes[0]
		e.sellOutcomes = e.sellOutcomes[1:]
	}

	e.seq++
	e.sellSubmits++
	id := fmt.Sprintf("sell-%s-%d", mint, e.seq)
	e.intents[id] = &scriptedIntent{resolveAfter: e.PendingPolls, status: status}
	return id, nil
}

// PollIntent implements execution.Boundary.
func (e *Executor) PollIntent(_ context.Context, intentID string) (execution.IntentStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i, ok := e.intents[intentID]
	if !ok {
		return execution.IntentStatus{}, execution.NewPermanent("poll_intent", fmt.Errorf("unknown intent %s", intentID))
	}

	i.polls++
	if i.polls <= i.resolveAfter {
		return execution.IntentStatus{State: execution.IntentPending}, nil
	}
	return i.status, nil
}

// GetCurrentPrice implements execution.Boundary.
func (e *Executor) GetCurrentPrice(_ context.Context, mint string) (execution.Quote, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	q, ok := e.quotes[mint]
	if !ok {
		return execution.Quote{}, execution.NewTransient("get_current_price", fmt.Errorf("no quote for %s", mint))
	}
	return q, nil
}

// Balance implements execution.Boundary.
func (e *Executor) Balance(_ context.Context) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balance, nil
}

var _ execution.Boundary = (*Executor)(nil)
