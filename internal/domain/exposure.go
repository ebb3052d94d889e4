package domain

// PortfolioExposure is an aggregate view of committed capital, always
// recomputed from the authoritative position set and never stored, so it
// cannot diverge from the positions it summarizes.
type PortfolioExposure struct {
	Balance       float64            // account balance the fractions refer to
	TotalFraction float64            // sum of open allocations / balance
	PerToken      map[string]float64 // allocation fraction per mint
	OpenPositions int
}

// ComputeExposure derives exposure from the open subset of positions.
// A non-positive balance yields a fully-exposed view so that no further
// allocation can be admitted against it.
func ComputeExposure(balance float64, positions []*Position) PortfolioExposure {
	exp := PortfolioExposure{
		Balance:  balance,
		PerToken: make(map[string]float64),
	}

	if balance <= 0 {
		exp.TotalFraction = 1
		for _, p := range positions {
			if p.Open() {
				exp.OpenPositions++
			}
		}
		return exp
	}

	for _, p := range positions {
		if !p.Open() {
			continue
		}
		frac := p.Allocated / balance
		exp.PerToken[p.Mint] += frac
		exp.TotalFraction += frac
		exp.OpenPositions++
	}
	return exp
}

// Headroom returns the remaining allocatable fraction of balance.
func (e PortfolioExposure) Headroom() float64 {
	h := 1 - e.TotalFraction
	if h < 0 {
		return 0
	}
	return h
}

// Holds reports whether any open position exists for the mint.
func (e PortfolioExposure) Holds(mint string) bool {
	return e.PerToken[mint] > 0
}
