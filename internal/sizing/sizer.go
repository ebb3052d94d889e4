// Package sizing converts an accepted score into a concrete allocation in
// quote units. The sizer is pure arithmetic; the risk gate remains the
// authority on whether the allocation may actually enter.
package sizing

import "launch-sniper/internal/domain"

// Config holds the sizing parameters.
type Config struct {
	// MaxAllocationPerToken is the fraction of balance allocated at a
	// perfect score with full headroom.
	MaxAllocationPerToken float64
	// MinScoreFloor keeps weak-but-accepted candidates from collapsing to
	// dust allocations: the score term never drops below it.
	MinScoreFloor float64
	// MinTradeSize is the smallest order worth submitting, in quote
	// units. Anything smaller is skipped entirely.
	MinTradeSize float64
}

// Sizer computes allocations from score and portfolio headroom.
type Sizer struct {
	cfg Config
}

// New creates a Sizer.
func New(cfg Config) *Sizer {
	return &Sizer{cfg: cfg}
}

// Size returns the allocation in quote units for an accepted candidate, or
// 0 when no trade should be made. The allocation scales linearly with the
// score and with remaining headroom, is capped by the per-token limit and
// by available headroom, and is never below the minimum trade size.
func (s *Sizer) Size(res domain.ScoreResult, exposure domain.PortfolioExposure) float64 {
	if !res.Accepted() || exposure.Balance <= 0 {
		return 0
	}

	headroom := exposure.Headroom()
	if headroom <= 0 {
		return 0
	}

	score := res.Score
	if score < s.cfg.MinScoreFloor {
		score = s.cfg.MinScoreFloor
	}

	alloc := exposure.Balance * s.cfg.MaxAllocationPerToken * score * headroom
	if max := exposure.Balance * headroom; alloc > max {
		alloc = max
	}
	if alloc < s.cfg.MinTradeSize {
		return 0
	}
	return alloc
}
