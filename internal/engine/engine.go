// Package engine wires the candidate pipeline: launch events are scored,
// sized, gated, and handed to the lifecycle manager, while a poll ticker
// advances open positions and watches account drawdown.
package engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"launch-sniper/internal/domain"
	"launch-sniper/internal/execution"
	"launch-sniper/internal/lifecycle"
	"launch-sniper/internal/observability"
	"launch-sniper/internal/risk"
	"launch-sniper/internal/scoring"
	"launch-sniper/internal/sizing"
	"launch-sniper/internal/venue"
)

// Config holds engine loop parameters.
type Config struct {
	// PollInterval is how often open positions are advanced and the
	// balance refreshed.
	PollInterval time.Duration
	// DrawdownHaltPct halts admissions when the balance falls this
	// fraction below its high-water mark. Zero disables the check.
	DrawdownHaltPct float64
}

// Engine runs the trading loop. All candidate handling and polling happens
// on the Run goroutine; components that need concurrency manage their own.
type Engine struct {
	cfg     Config
	source  venue.Source
	scorer  *scoring.Scorer
	sizer   *sizing.Sizer
	gate    *risk.Gate
	manager *lifecycle.Manager
	exec    execution.Boundary
	log     *zap.Logger
	metrics *observability.Metrics

	now func() time.Time

	balance   float64
	highWater float64
}

// New creates an Engine.
func New(cfg Config, source venue.Source, scorer *scoring.Scorer, sizer *sizing.Sizer,
	gate *risk.Gate, manager *lifecycle.Manager, exec execution.Boundary, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		cfg:     cfg,
		source:  source,
		scorer:  scorer,
		sizer:   sizer,
		gate:    gate,
		manager: manager,
		exec:    exec,
		log:     log,
		metrics: observability.Default(),
		now:     time.Now,
	}
}

// Run blocks until ctx is cancelled, processing launch events as they
// arrive and polling positions on the configured interval.
func (e *Engine) Run(ctx context.Context) error {
	e.refreshBalance(ctx)

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cand := <-e.source.Events():
			e.handleCandidate(ctx, cand)
		case <-ticker.C:
			e.pollPass(ctx)
		}
	}
}

// handleCandidate runs one launch event through score, size, and gate, and
// opens a position if everything passes.
func (e *Engine) handleCandidate(ctx context.Context, cand *domain.TokenCandidate) {
	e.metrics.CandidatesSeen.Inc()

	// A repeated launch event for a mint we already hold is a no-op, not
	// an error: venues replay logs on reconnect.
	if e.manager.Has(cand.Mint) {
		e.log.Debug("duplicate launch event", zap.String("mint", cand.Mint))
		return
	}

	res := e.scorer.Score(cand)
	e.metrics.CandidatesScored.WithLabelValues(string(res.Verdict)).Inc()
	if !res.Accepted() {
		e.log.Info("candidate rejected",
			zap.String("mint", cand.Mint),
			zap.Float64("score", res.Score),
			zap.Strings("reasons", res.Reasons))
		return
	}

	exposure := e.manager.Exposure(e.balance)
	alloc := e.sizer.Size(res, exposure)
	if alloc == 0 {
		e.log.Info("allocation too small, skipping",
			zap.String("mint", cand.Mint),
			zap.Float64("score", res.Score),
			zap.Float64("headroom", exposure.Headroom()))
		return
	}

	decision := e.gate.Admit(cand, res, alloc, exposure, e.now())
	if !decision.Allowed {
		e.metrics.AdmissionsDenied.WithLabelValues(decision.Code).Inc()
		switch decision.Code {
		case risk.CodePerTokenCap, risk.CodeTotalExposure:
			// The sizer's output should always fit these limits.
			e.log.Error("sizer produced inadmissible allocation",
				zap.String("mint", cand.Mint),
				zap.Float64("allocation", alloc),
				zap.String("detail", decision.Detail))
		default:
			e.log.Info("admission denied",
				zap.String("mint", cand.Mint),
				zap.String("code", decision.Code),
				zap.String("detail", decision.Detail))
		}
		return
	}

	if err := e.manager.Open(ctx, cand, alloc, e.balance); err != nil {
		if errors.Is(err, lifecycle.ErrAlreadyTracked) {
			return
		}
		e.log.Warn("position open failed",
			zap.String("mint", cand.Mint),
			zap.Error(err))
	}
}

// pollPass advances open positions, refreshes the balance, and enforces the
// drawdown halt.
func (e *Engine) pollPass(ctx context.Context) {
	e.manager.PollAll(ctx)
	e.refreshBalance(ctx)
	e.metrics.TotalExposure.Set(e.manager.Exposure(e.balance).TotalFraction)
}

func (e *Engine) refreshBalance(ctx context.Context) {
	bal, err := e.exec.Balance(ctx)
	if err != nil {
		e.log.Warn("balance refresh failed", zap.Error(err))
		return
	}
	e.balance = bal
	e.metrics.AccountBalance.Set(bal)

	if bal > e.highWater {
		e.highWater = bal
	}
	if e.cfg.DrawdownHaltPct > 0 && e.highWater > 0 && !e.gate.Halted() {
		drawdown := (e.highWater - bal) / e.highWater
		if drawdown >= e.cfg.DrawdownHaltPct {
			e.gate.Halt("drawdown limit breached")
			e.log.Error("halting admissions on drawdown",
				zap.Float64("balance", bal),
				zap.Float64("high_water", e.highWater),
				zap.Float64("drawdown", drawdown))
		}
	}
}
