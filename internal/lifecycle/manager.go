// Package lifecycle owns every position from buy submission to close. The
// manager is the only writer of position state; everything else observes.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"launch-sniper/internal/domain"
	"launch-sniper/internal/execution"
	"launch-sniper/internal/idhash"
	"launch-sniper/internal/observability"
	"launch-sniper/internal/storage"
)

var (
	// ErrAlreadyTracked is returned when opening a mint that already has a
	// live position.
	ErrAlreadyTracked = errors.New("position already tracked for mint")
	// ErrNoHeadroom is returned when an allocation no longer fits at
	// submission time, after passing the gate earlier.
	ErrNoHeadroom = errors.New("allocation exceeds remaining headroom")
	// ErrNotTracked is returned for exit requests on unknown mints.
	ErrNotTracked = errors.New("no tracked position for mint")
)

// Config holds lifecycle timing and exit parameters.
type Config struct {
	// ConfirmationTimeout bounds how long a buy or sell intent may stay
	// unconfirmed before it is abandoned.
	ConfirmationTimeout time.Duration
	// MaxSellRetries is how many transient sell failures are tolerated
	// before the position is force-closed.
	MaxSellRetries int
	// StopLossPct and TakeProfitPct set exit bounds relative to the
	// entry price, e.g. 0.15 stops out at 85% of entry.
	StopLossPct   float64
	TakeProfitPct float64
	// MaxHoldDuration force-triggers a sell after this holding time.
	MaxHoldDuration time.Duration
	// PriceStaleAfter is the maximum quote age usable for exit decisions.
	// Older quotes cause the check to be skipped, never acted on.
	PriceStaleAfter time.Duration
}

type tracked struct {
	pos        domain.Position
	manualExit bool
}

// Manager tracks live positions and advances their state machine on every
// poll pass. Open and PollAll are called from the engine loop and never
// concurrently with each other; RequestExit may be called from any
// goroutine.
type Manager struct {
	cfg     Config
	exec    execution.Boundary
	store   storage.PositionStore
	trades  storage.TradeRecordStore
	log     *zap.Logger
	metrics *observability.Metrics

	now func() time.Time

	mu        sync.Mutex
	positions map[string]*tracked // keyed by mint
}

// NewManager creates a Manager.
func NewManager(cfg Config, exec execution.Boundary, store storage.PositionStore,
	trades storage.TradeRecordStore, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		cfg:       cfg,
		exec:      exec,
		store:     store,
		trades:    trades,
		log:       log,
		metrics:   observability.Default(),
		now:       time.Now,
		positions: make(map[string]*tracked),
	}
}

// Restore loads non-terminal positions from the store, so a restart resumes
// monitoring instead of orphaning open trades.
func (m *Manager) Restore(ctx context.Context) error {
	open, err := m.store.GetOpen(ctx)
	if err != nil {
		return fmt.Errorf("restore open positions: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range open {
		m.positions[p.Mint] = &tracked{pos: *p}
		m.log.Info("restored position",
			zap.String("position_id", p.ID),
			zap.String("mint", p.Mint),
			zap.String("state", string(p.State)))
	}
	m.metrics.OpenPositions.Set(float64(len(m.positions)))
	return nil
}

// Has reports whether a live position exists for the mint.
func (m *Manager) Has(mint string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.positions[mint]
	return ok
}

// OpenPositions returns copies of all live positions.
func (m *Manager) OpenPositions() []*domain.Position {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.Position, 0, len(m.positions))
	for _, t := range m.positions {
		cp := t.pos
		out = append(out, &cp)
	}
	return out
}

// Exposure computes current portfolio exposure against the given balance.
func (m *Manager) Exposure(balance float64) domain.PortfolioExposure {
	return domain.ComputeExposure(balance, m.OpenPositions())
}

// RequestExit flags the mint's position for a manual exit on the next poll
// pass. The sell goes through the same pending-sell machinery as any other
// trigger.
func (m *Manager) RequestExit(mint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.positions[mint]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotTracked, mint)
	}
	t.manualExit = true
	return nil
}

// Open creates a position for an admitted candidate and submits the buy.
// Headroom is re-checked against live positions at the moment of admission,
// so concurrent closes or opens between gate and submission cannot
// oversubscribe the balance. A failed submission marks the position Failed
// immediately; buys are never retried, since a lost submission could
// otherwise double-buy.
func (m *Manager) Open(ctx context.Context, cand *domain.TokenCandidate, alloc, balance float64) error {
	m.mu.Lock()
	if _, ok := m.positions[cand.Mint]; ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyTracked, cand.Mint)
	}
	if balance <= 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: balance %g", ErrNoHeadroom, balance)
	}
	var committed float64
	for _, t := range m.positions {
		committed += t.pos.Allocated
	}
	if (committed+alloc)/balance > 1+1e-9 {
		m.mu.Unlock()
		return fmt.Errorf("%w: committed %g + alloc %g against balance %g",
			ErrNoHeadroom, committed, alloc, balance)
	}

	now := m.now()
	pos := domain.Position{
		ID:        idhash.ComputePositionID(cand.Mint, cand.DetectedAt.UnixMilli()),
		Mint:      cand.Mint,
		Symbol:    cand.Symbol,
		State:     domain.StatePending,
		Allocated: alloc,
		CreatedAt: now,
	}
	t := &tracked{pos: pos}
	m.positions[cand.Mint] = t
	m.metrics.OpenPositions.Set(float64(len(m.positions)))
	m.mu.Unlock()

	m.persist(ctx, &t.pos)

	intentID, err := m.exec.SubmitBuy(ctx, cand.Mint, alloc)
	if err != nil {
		m.recordExecFailure("submit_buy", err)
		m.fail(ctx, t, fmt.Sprintf("buy submission failed: %v", err))
		return fmt.Errorf("submit buy for %s: %w", cand.Mint, err)
	}

	t.pos.BuyIntentID = intentID
	t.pos.BuyDeadline = now.Add(m.cfg.ConfirmationTimeout)
	m.persist(ctx, &t.pos)

	m.log.Info("position opened",
		zap.String("position_id", t.pos.ID),
		zap.String("mint", cand.Mint),
		zap.Float64("allocated", alloc),
		zap.String("buy_intent", intentID))
	return nil
}

// PollAll advances every live position once. Positions are polled
// concurrently; the pass returns when all have been checked.
func (m *Manager) PollAll(ctx context.Context) {
	start := m.now()

	m.mu.Lock()
	batch := make([]*tracked, 0, len(m.positions))
	for _, t := range m.positions {
		batch = append(batch, t)
	}
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, t := range batch {
		wg.Add(1)
		go func(t *tracked) {
			defer wg.Done()
			m.poll(ctx, t)
		}(t)
	}
	wg.Wait()

	m.metrics.PollDuration.Observe(m.now().Sub(start).Seconds())
}

func (m *Manager) poll(ctx context.Context, t *tracked) {
	t.pos.LastChecked = m.now()
	switch t.pos.State {
	case domain.StatePending:
		m.checkPending(ctx, t)
	case domain.StateMonitoring:
		m.checkMonitoring(ctx, t)
	case domain.StatePendingSell:
		m.checkPendingSell(ctx, t)
	}
}

// checkPending resolves the buy intent: confirmation computes quantity and
// exit bounds; timeout or a permanent failure abandons the position.
func (m *Manager) checkPending(ctx context.Context, t *tracked) {
	st, err := m.exec.PollIntent(ctx, t.pos.BuyIntentID)
	if err != nil {
		m.recordExecFailure("poll_buy_intent", err)
		if execution.IsPermanent(err) {
			m.fail(ctx, t, fmt.Sprintf("buy intent lost: %v", err))
		} else if m.now().After(t.pos.BuyDeadline) {
			m.fail(ctx, t, "buy confirmation timed out")
		}
		return
	}

	switch st.State {
	case execution.IntentConfirmed:
		if st.FillPrice <= 0 {
			m.fail(ctx, t, fmt.Sprintf("buy confirmed with invalid fill price %g", st.FillPrice))
			return
		}
		entry := st.FillPrice
		t.pos.EntryPrice = entry
		t.pos.EntryTime = m.now()
		t.pos.Quantity = t.pos.Allocated / entry
		t.pos.StopLoss = entry * (1 - m.cfg.StopLossPct)
		t.pos.TakeProfit = entry * (1 + m.cfg.TakeProfitPct)
		m.transition(ctx, t, domain.StateMonitoring)
		m.metrics.PositionsOpened.Inc()
		m.log.Info("buy confirmed",
			zap.String("position_id", t.pos.ID),
			zap.String("mint", t.pos.Mint),
			zap.Float64("entry_price", entry),
			zap.Float64("quantity", t.pos.Quantity),
			zap.Float64("stop_loss", t.pos.StopLoss),
			zap.Float64("take_profit", t.pos.TakeProfit))

	case execution.IntentFailed:
		m.fail(ctx, t, fmt.Sprintf("buy rejected: %s", st.Reason))

	case execution.IntentPending:
		if m.now().After(t.pos.BuyDeadline) {
			m.fail(ctx, t, "buy confirmation timed out")
		}
	}
}

// checkMonitoring evaluates exit triggers against a fresh quote. A missing
// or stale quote skips the check entirely; exit decisions are made only on
// current data.
func (m *Manager) checkMonitoring(ctx context.Context, t *tracked) {
	m.mu.Lock()
	manual := t.manualExit
	m.mu.Unlock()

	quote, err := m.exec.GetCurrentPrice(ctx, t.pos.Mint)
	if err != nil {
		m.recordExecFailure("get_current_price", err)
		return
	}
	if m.cfg.PriceStaleAfter > 0 && m.now().Sub(quote.AsOf) > m.cfg.PriceStaleAfter {
		m.log.Debug("stale quote, skipping check",
			zap.String("mint", t.pos.Mint),
			zap.Time("as_of", quote.AsOf))
		return
	}

	price := quote.Price
	t.pos.UnrealizedPnL = (price - t.pos.EntryPrice) * t.pos.Quantity

	var reason string
	switch {
	case manual:
		reason = domain.ExitReasonManual
	case price <= t.pos.StopLoss:
		reason = domain.ExitReasonStopLoss
	case price >= t.pos.TakeProfit:
		reason = domain.ExitReasonTakeProfit
	case m.cfg.MaxHoldDuration > 0 && m.now().Sub(t.pos.EntryTime) >= m.cfg.MaxHoldDuration:
		reason = domain.ExitReasonMaxHold
	default:
		return
	}

	t.pos.TriggerReason = reason
	t.pos.TriggerPrice = price
	t.pos.SellRetries = 0
	m.transition(ctx, t, domain.StatePendingSell)
	m.log.Info("exit triggered",
		zap.String("position_id", t.pos.ID),
		zap.String("mint", t.pos.Mint),
		zap.String("reason", reason),
		zap.Float64("price", price))

	m.attemptSell(ctx, t)
}

// checkPendingSell resolves the sell intent, or retries the submission when
// no intent is outstanding.
func (m *Manager) checkPendingSell(ctx context.Context, t *tracked) {
	if t.pos.SellIntentID == "" {
		m.attemptSell(ctx, t)
		return
	}

	st, err := m.exec.PollIntent(ctx, t.pos.SellIntentID)
	if err != nil {
		m.recordExecFailure("poll_sell_intent", err)
		if execution.IsPermanent(err) {
			m.sellFailed(ctx, t, fmt.Sprintf("sell intent lost: %v", err))
		}
		return
	}

	switch st.State {
	case execution.IntentConfirmed:
		m.close(ctx, t, st.FillPrice, t.pos.TriggerReason)

	case execution.IntentFailed:
		m.sellFailed(ctx, t, fmt.Sprintf("sell rejected: %s", st.Reason))

	case execution.IntentPending:
		if m.now().After(t.pos.SellDeadline) {
			m.sellFailed(ctx, t, "sell confirmation timed out")
		}
	}
}

// attemptSell submits the sell for a triggered position. Transient failures
// count against MaxSellRetries; a permanent failure or exhausted retries
// force-close the position rather than leave it stuck.
func (m *Manager) attemptSell(ctx context.Context, t *tracked) {
	intentID, err := m.exec.SubmitSell(ctx, t.pos.Mint, t.pos.Quantity)
	if err == nil {
		t.pos.SellIntentID = intentID
		t.pos.SellDeadline = m.now().Add(m.cfg.ConfirmationTimeout)
		m.persist(ctx, &t.pos)
		return
	}

	m.recordExecFailure("submit_sell", err)
	if execution.IsPermanent(err) {
		m.log.Warn("permanent sell failure, forcing close",
			zap.String("position_id", t.pos.ID),
			zap.String("mint", t.pos.Mint),
			zap.Error(err))
		m.forceClose(ctx, t)
		return
	}
	m.sellFailed(ctx, t, err.Error())
}

// sellFailed handles one transient sell failure: count it, force-close when
// retries are exhausted, otherwise downgrade back to monitoring if the
// trigger condition has cleared in the meantime.
func (m *Manager) sellFailed(ctx context.Context, t *tracked, cause string) {
	t.pos.SellIntentID = ""
	t.pos.SellRetries++
	m.metrics.SellRetries.Inc()
	m.log.Warn("sell attempt failed",
		zap.String("position_id", t.pos.ID),
		zap.String("mint", t.pos.Mint),
		zap.Int("retries", t.pos.SellRetries),
		zap.String("cause", cause))

	if t.pos.SellRetries >= m.cfg.MaxSellRetries {
		m.forceClose(ctx, t)
		return
	}

	if m.triggerCleared(ctx, t) {
		t.pos.TriggerReason = ""
		t.pos.TriggerPrice = 0
		t.pos.SellRetries = 0
		m.transition(ctx, t, domain.StateMonitoring)
		m.log.Info("exit condition cleared, resuming monitoring",
			zap.String("position_id", t.pos.ID),
			zap.String("mint", t.pos.Mint))
		return
	}

	m.persist(ctx, &t.pos)
}

// triggerCleared re-reads the price and reports whether a price-based
// trigger no longer holds. Manual and max-hold triggers never clear.
func (m *Manager) triggerCleared(ctx context.Context, t *tracked) bool {
	switch t.pos.TriggerReason {
	case domain.ExitReasonStopLoss, domain.ExitReasonTakeProfit:
	default:
		return false
	}

	quote, err := m.exec.GetCurrentPrice(ctx, t.pos.Mint)
	if err != nil {
		return false
	}
	if m.cfg.PriceStaleAfter > 0 && m.now().Sub(quote.AsOf) > m.cfg.PriceStaleAfter {
		return false
	}

	switch t.pos.TriggerReason {
	case domain.ExitReasonStopLoss:
		return quote.Price > t.pos.StopLoss
	case domain.ExitReasonTakeProfit:
		return quote.Price < t.pos.TakeProfit
	}
	return false
}

// close finalizes a confirmed sell: compute realized PnL, emit the trade
// record, persist, and drop the position from tracking.
func (m *Manager) close(ctx context.Context, t *tracked, fillPrice float64, reason string) {
	now := m.now()
	t.pos.ExitPrice = fillPrice
	t.pos.ExitTime = now
	t.pos.RealizedPnL = (fillPrice - t.pos.EntryPrice) * t.pos.Quantity
	t.pos.CloseReason = reason
	m.transition(ctx, t, domain.StateClosed)

	m.emitTrade(ctx, t)
	m.remove(t.pos.Mint)

	m.metrics.PositionsClosed.WithLabelValues(reason).Inc()
	m.metrics.RealizedPnL.Add(t.pos.RealizedPnL)
	m.log.Info("position closed",
		zap.String("position_id", t.pos.ID),
		zap.String("mint", t.pos.Mint),
		zap.String("reason", reason),
		zap.Float64("exit_price", fillPrice),
		zap.Float64("realized_pnl", t.pos.RealizedPnL))
}

// forceClose abandons a position whose sell could not be executed. The
// trade record is still emitted, valued at the trigger price, so the ledger
// accounts for every closed position even when the exit never filled.
func (m *Manager) forceClose(ctx context.Context, t *tracked) {
	m.close(ctx, t, t.pos.TriggerPrice, domain.ExitReasonForced)
}

// fail marks a Pending position terminal. No trade record is emitted since
// nothing was bought.
func (m *Manager) fail(ctx context.Context, t *tracked, reason string) {
	t.pos.CloseReason = reason
	m.transition(ctx, t, domain.StateFailed)
	m.remove(t.pos.Mint)

	m.metrics.PositionsFailed.Inc()
	m.log.Warn("position failed",
		zap.String("position_id", t.pos.ID),
		zap.String("mint", t.pos.Mint),
		zap.String("reason", reason))
}

func (m *Manager) transition(ctx context.Context, t *tracked, to domain.PositionState) {
	from := t.pos.State
	if !domain.CanTransition(from, to) {
		m.log.Error("illegal state transition",
			zap.String("position_id", t.pos.ID),
			zap.String("from", string(from)),
			zap.String("to", string(to)))
		return
	}
	t.pos.State = to
	m.persist(ctx, &t.pos)
}

func (m *Manager) emitTrade(ctx context.Context, t *tracked) {
	rec := &domain.TradeRecord{
		TradeID:    t.pos.ID,
		Mint:       t.pos.Mint,
		Symbol:     t.pos.Symbol,
		Allocated:  t.pos.Allocated,
		Quantity:   t.pos.Quantity,
		EntryPrice: t.pos.EntryPrice,
		EntryTime:  t.pos.EntryTime,
		ExitPrice:  t.pos.ExitPrice,
		ExitTime:   t.pos.ExitTime,
		PnL:        t.pos.RealizedPnL,
		ExitReason: t.pos.CloseReason,
	}
	if t.pos.EntryPrice > 0 {
		rec.PnLFraction = (t.pos.ExitPrice - t.pos.EntryPrice) / t.pos.EntryPrice
	}

	err := m.trades.Insert(ctx, rec)
	if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		m.log.Error("trade record insert failed",
			zap.String("trade_id", rec.TradeID),
			zap.Error(err))
	}
}

// persist writes the position through to the store. A store failure is
// logged and tolerated; in-memory state stays authoritative until the next
// successful save.
func (m *Manager) persist(ctx context.Context, p *domain.Position) {
	if err := m.store.Save(ctx, p); err != nil {
		m.log.Error("position save failed",
			zap.String("position_id", p.ID),
			zap.Error(err))
	}
}

func (m *Manager) remove(mint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.positions, mint)
	m.metrics.OpenPositions.Set(float64(len(m.positions)))
}

func (m *Manager) recordExecFailure(op string, err error) {
	kind := "transient"
	if execution.IsPermanent(err) {
		kind = "permanent"
	}
	m.metrics.ExecutionFailures.WithLabelValues(op, kind).Inc()
}
