// Package risk implements the admission gate between scoring and position
// entry. The gate is the single choke point: no buy is submitted unless a
// proposed allocation passes every check here.
package risk

import (
	"fmt"
	"sync"
	"time"

	"launch-sniper/internal/domain"
)

// Denial codes. An empty code means the allocation was admitted.
const (
	CodeHalted        = "halted"
	CodeVerdict       = "verdict"
	CodeDuplicate     = "duplicate"
	CodePerTokenCap   = "per-token-cap"
	CodeTotalExposure = "total-exposure"
	CodeCooldown      = "cooldown"
	CodeMaxPositions  = "max-positions"
)

// allocationEpsilon absorbs float rounding when comparing fractions
// against hard caps.
const allocationEpsilon = 1e-9

// Config holds the gate's limits.
type Config struct {
	// MaxAllocationPerToken is the maximum fraction of balance a single
	// token may hold.
	MaxAllocationPerToken float64
	// CooldownPeriod is the minimum time between admissions of the same
	// mint or the same creator. Zero disables the check.
	CooldownPeriod time.Duration
	// MaxOpenPositions caps concurrent open positions. Zero disables the
	// check.
	MaxOpenPositions int
}

// Decision is the gate's verdict on one proposed allocation.
type Decision struct {
	Allowed bool
	Code    string // denial code, empty when allowed
	Detail  string
}

func deny(code, format string, args ...any) Decision {
	return Decision{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// Gate admits or denies proposed allocations against portfolio limits and
// operational state. Safe for concurrent use.
type Gate struct {
	cfg Config

	mu          sync.Mutex
	halted      bool
	haltReason  string
	lastMint    map[string]time.Time // mint -> last admission
	lastCreator map[string]time.Time // creator -> last admission
}

// NewGate creates a Gate with the given limits.
func NewGate(cfg Config) *Gate {
	return &Gate{
		cfg:         cfg,
		lastMint:    make(map[string]time.Time),
		lastCreator: make(map[string]time.Time),
	}
}

// Halt stops all further admissions until Resume. Open positions are not
// touched; halting only closes the front door.
func (g *Gate) Halt(reason string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.halted = true
	g.haltReason = reason
}

// Resume lifts a halt.
func (g *Gate) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.halted = false
	g.haltReason = ""
}

// Halted reports whether the gate is refusing admissions.
func (g *Gate) Halted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.halted
}

// Admit decides whether the proposed allocation for a scored candidate may
// enter the portfolio. Checks run cheapest-first; the first failure decides.
// Admission is recorded for the cooldown check.
func (g *Gate) Admit(cand *domain.TokenCandidate, res domain.ScoreResult,
	alloc float64, exposure domain.PortfolioExposure, now time.Time) Decision {

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.halted {
		return deny(CodeHalted, "admissions halted: %s", g.haltReason)
	}
	if !res.Accepted() {
		return deny(CodeVerdict, "candidate rejected by scoring: %v", res.Reasons)
	}
	if exposure.Holds(cand.Mint) {
		return deny(CodeDuplicate, "open position already exists for mint %s", cand.Mint)
	}

	if exposure.Balance <= 0 {
		return deny(CodeTotalExposure, "balance %g cannot back any allocation", exposure.Balance)
	}
	frac := alloc / exposure.Balance
	if frac > g.cfg.MaxAllocationPerToken+allocationEpsilon {
		// The sizer caps allocations below this limit, so hitting it
		// means an upstream bug. Deny, never clamp.
		return deny(CodePerTokenCap, "allocation fraction %.4f exceeds per-token cap %.4f",
			frac, g.cfg.MaxAllocationPerToken)
	}
	if exposure.TotalFraction+frac > 1+allocationEpsilon {
		return deny(CodeTotalExposure, "allocation fraction %.4f exceeds headroom %.4f",
			frac, exposure.Headroom())
	}

	if g.cfg.CooldownPeriod > 0 {
		if last, ok := g.lastMint[cand.Mint]; ok && now.Sub(last) < g.cfg.CooldownPeriod {
			return deny(CodeCooldown, "mint %s admitted %s ago, cooldown is %s",
				cand.Mint, now.Sub(last), g.cfg.CooldownPeriod)
		}
		// Creators launching token after token are the common rug pattern;
		// a fresh mint does not reset their window.
		if cand.Creator != "" {
			if last, ok := g.lastCreator[cand.Creator]; ok && now.Sub(last) < g.cfg.CooldownPeriod {
				return deny(CodeCooldown, "creator %s admitted %s ago, cooldown is %s",
					cand.Creator, now.Sub(last), g.cfg.CooldownPeriod)
			}
		}
	}
	if g.cfg.MaxOpenPositions > 0 && exposure.OpenPositions >= g.cfg.MaxOpenPositions {
		return deny(CodeMaxPositions, "open positions %d at limit %d",
			exposure.OpenPositions, g.cfg.MaxOpenPositions)
	}

	g.lastMint[cand.Mint] = now
	if cand.Creator != "" {
		g.lastCreator[cand.Creator] = now
	}
	return Decision{Allowed: true}
}
