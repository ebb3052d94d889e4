package scoring

import (
	"fmt"
	"strings"

	"launch-sniper/internal/domain"
)

// Sub-score weights. They sum to 1 so the weighted total stays in [0,1].
const (
	weightCreator   = 0.3
	weightLiquidity = 0.3
	weightName      = 0.2
	weightCurve     = 0.2
)

// Config holds scoring thresholds and filters.
type Config struct {
	// AcceptanceThreshold is the minimum total score for an ACCEPT verdict.
	AcceptanceThreshold float64
	// BlacklistedTerms reject a candidate outright when found in its name
	// or symbol, case-insensitively.
	BlacklistedTerms []string
	// LiquiditySaturation is the initial liquidity at which the liquidity
	// sub-score reaches 1. Liquidity above it earns no extra credit.
	LiquiditySaturation float64
	// MinBasePrice and MaxBasePrice bound plausible bonding-curve base
	// prices. A candidate outside them is rejected as implausible.
	MinBasePrice float64
	MaxBasePrice float64
}

// Scorer evaluates token candidates deterministically. The same candidate
// always yields the same result; no I/O, no clock reads.
type Scorer struct {
	cfg        Config
	reputation *ReputationTable
	blacklist  []string // lowercased terms
}

// New creates a Scorer. A nil reputation table answers neutral for all
// creators.
func New(cfg Config, reputation *ReputationTable) *Scorer {
	if reputation == nil {
		reputation = NewReputationTable(nil)
	}
	terms := make([]string, 0, len(cfg.BlacklistedTerms))
	for _, t := range cfg.BlacklistedTerms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			terms = append(terms, t)
		}
	}
	return &Scorer{cfg: cfg, reputation: reputation, blacklist: terms}
}

// Score evaluates a candidate and returns its verdict. Terminal checks
// (blacklist, implausible curve, zero liquidity) reject immediately with a
// single reason; otherwise the weighted sub-scores decide against the
// acceptance threshold.
func (s *Scorer) Score(c *domain.TokenCandidate) domain.ScoreResult {
	if term, hit := s.blacklistedTerm(c); hit {
		return reject(0, fmt.Sprintf("name or symbol contains blacklisted term %q", term))
	}
	if c.Curve.Slope <= 0 {
		return reject(0, fmt.Sprintf("bonding curve slope %g is not positive", c.Curve.Slope))
	}
	if c.Curve.BasePrice < s.cfg.MinBasePrice || c.Curve.BasePrice > s.cfg.MaxBasePrice {
		return reject(0, fmt.Sprintf("bonding curve base price %g outside [%g, %g]",
			c.Curve.BasePrice, s.cfg.MinBasePrice, s.cfg.MaxBasePrice))
	}
	if c.InitialLiquidity <= 0 {
		return reject(0, "candidate has no initial liquidity")
	}

	score := weightCreator*s.reputation.Lookup(c.Creator) +
		weightLiquidity*s.liquidityScore(c.InitialLiquidity) +
		weightName*nameScore(c.Name) +
		weightCurve*s.curveScore(c.Curve)
	score = clamp01(score)

	if score < s.cfg.AcceptanceThreshold {
		return reject(score, fmt.Sprintf("score %.2f below acceptance threshold %.2f",
			score, s.cfg.AcceptanceThreshold))
	}
	return domain.ScoreResult{Score: score, Verdict: domain.VerdictAccept}
}

func (s *Scorer) blacklistedTerm(c *domain.TokenCandidate) (string, bool) {
	name := strings.ToLower(c.Name)
	symbol := strings.ToLower(c.Symbol)
	for _, term := range s.blacklist {
		if strings.Contains(name, term) || strings.Contains(symbol, term) {
			return term, true
		}
	}
	return "", false
}

// liquidityScore grows linearly with initial liquidity and saturates at the
// configured saturation point.
func (s *Scorer) liquidityScore(liquidity float64) float64 {
	if s.cfg.LiquiditySaturation <= 0 {
		return 1
	}
	return clamp01(liquidity / s.cfg.LiquiditySaturation)
}

// curveScore prefers cheaper entries: a base price at the lower bound scores
// 1, at the upper bound 0.
func (s *Scorer) curveScore(curve domain.CurveParams) float64 {
	span := s.cfg.MaxBasePrice - s.cfg.MinBasePrice
	if span <= 0 {
		return 1
	}
	return clamp01(1 - (curve.BasePrice-s.cfg.MinBasePrice)/span)
}

// nameScore is a weak heuristic on the token name. Very short or very long
// names score low; a plain, mid-length name scores high. It never rejects
// on its own.
func nameScore(name string) float64 {
	n := len(strings.TrimSpace(name))
	switch {
	case n == 0:
		return 0
	case n < 3:
		return 0.3
	case n <= 24:
		return 1
	case n <= 48:
		return 0.6
	default:
		return 0.2
	}
}

func reject(score float64, reason string) domain.ScoreResult {
	return domain.ScoreResult{
		Score:   score,
		Verdict: domain.VerdictReject,
		Reasons: []string{reason},
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
