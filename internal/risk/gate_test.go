package risk

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launch-sniper/internal/domain"
)

func testGate() *Gate {
	return NewGate(Config{
		MaxAllocationPerToken: 0.10,
		CooldownPeriod:        5 * time.Minute,
		MaxOpenPositions:      5,
	})
}

func candidate(mint string) *domain.TokenCandidate {
	return &domain.TokenCandidate{Mint: mint, Symbol: "TKN", Creator: "creator"}
}

func accepted() domain.ScoreResult {
	return domain.ScoreResult{Score: 0.9, Verdict: domain.VerdictAccept}
}

func exposureWith(balance float64, positions ...*domain.Position) domain.PortfolioExposure {
	return domain.ComputeExposure(balance, positions)
}

func TestGate_AdmitsCleanCandidate(t *testing.T) {
	g := testGate()

	d := g.Admit(candidate("m1"), accepted(), 10, exposureWith(100), time.Unix(1000, 0))

	assert.True(t, d.Allowed)
	assert.Empty(t, d.Code)
}

func TestGate_DeniesWhenHalted(t *testing.T) {
	g := testGate()
	g.Halt("drawdown limit breached")

	d := g.Admit(candidate("m1"), accepted(), 10, exposureWith(100), time.Unix(1000, 0))
	require.False(t, d.Allowed)
	assert.Equal(t, CodeHalted, d.Code)
	assert.Contains(t, d.Detail, "drawdown")

	g.Resume()
	d = g.Admit(candidate("m1"), accepted(), 10, exposureWith(100), time.Unix(1000, 0))
	assert.True(t, d.Allowed)
}

func TestGate_DeniesRejectedVerdict(t *testing.T) {
	g := testGate()

	res := domain.ScoreResult{
		Score:   0.2,
		Verdict: domain.VerdictReject,
		Reasons: []string{"score 0.20 below acceptance threshold 0.70"},
	}
	d := g.Admit(candidate("m1"), res, 10, exposureWith(100), time.Unix(1000, 0))

	require.False(t, d.Allowed)
	assert.Equal(t, CodeVerdict, d.Code)
}

func TestGate_DeniesDuplicateMint(t *testing.T) {
	g := testGate()

	exp := exposureWith(100, &domain.Position{
		ID: "p1", Mint: "m1", State: domain.StateMonitoring, Allocated: 5,
	})
	d := g.Admit(candidate("m1"), accepted(), 5, exp, time.Unix(1000, 0))

	require.False(t, d.Allowed)
	assert.Equal(t, CodeDuplicate, d.Code)
}

func TestGate_DeniesPerTokenCapBreach(t *testing.T) {
	g := testGate()

	// 15% of balance against a 10% cap. The sizer never produces this,
	// so the gate must deny rather than clamp.
	d := g.Admit(candidate("m1"), accepted(), 15, exposureWith(100), time.Unix(1000, 0))

	require.False(t, d.Allowed)
	assert.Equal(t, CodePerTokenCap, d.Code)
}

func TestGate_DeniesWhenExposureFull(t *testing.T) {
	g := NewGate(Config{MaxAllocationPerToken: 1})

	var positions []*domain.Position
	for i := 0; i < 4; i++ {
		positions = append(positions, &domain.Position{
			ID:   fmt.Sprintf("p%d", i),
			Mint: fmt.Sprintf("m%d", i), State: domain.StateMonitoring, Allocated: 25,
		})
	}
	exp := exposureWith(100, positions...)

	d := g.Admit(candidate("fresh"), accepted(), 10, exp, time.Unix(1000, 0))

	require.False(t, d.Allowed)
	assert.Equal(t, CodeTotalExposure, d.Code)
}

func TestGate_DeniesNonPositiveBalance(t *testing.T) {
	g := testGate()

	d := g.Admit(candidate("m1"), accepted(), 10, exposureWith(0), time.Unix(1000, 0))

	require.False(t, d.Allowed)
	assert.Equal(t, CodeTotalExposure, d.Code)
}

func TestGate_CooldownBlocksReadmission(t *testing.T) {
	g := testGate()
	t0 := time.Unix(10000, 0)

	d := g.Admit(candidate("m1"), accepted(), 10, exposureWith(100), t0)
	require.True(t, d.Allowed)

	// Same mint again inside the cooldown window, with the first
	// position already closed so the duplicate check passes.
	d = g.Admit(candidate("m1"), accepted(), 10, exposureWith(100), t0.Add(time.Minute))
	require.False(t, d.Allowed)
	assert.Equal(t, CodeCooldown, d.Code)

	d = g.Admit(candidate("m1"), accepted(), 10, exposureWith(100), t0.Add(10*time.Minute))
	assert.True(t, d.Allowed)
}

// A fresh mint from a recently admitted creator stays in cooldown; the
// window is per creator as well as per mint.
func TestGate_CooldownAppliesToCreator(t *testing.T) {
	g := testGate()
	t0 := time.Unix(10000, 0)

	first := &domain.TokenCandidate{Mint: "m1", Symbol: "AAA", Creator: "serial-launcher"}
	d := g.Admit(first, accepted(), 10, exposureWith(100), t0)
	require.True(t, d.Allowed)

	relaunch := &domain.TokenCandidate{Mint: "m2", Symbol: "BBB", Creator: "serial-launcher"}
	d = g.Admit(relaunch, accepted(), 10, exposureWith(100), t0.Add(time.Minute))
	require.False(t, d.Allowed)
	assert.Equal(t, CodeCooldown, d.Code)
	assert.Contains(t, d.Detail, "serial-launcher")

	other := &domain.TokenCandidate{Mint: "m3", Symbol: "CCC", Creator: "someone-else"}
	d = g.Admit(other, accepted(), 10, exposureWith(100), t0.Add(time.Minute))
	assert.True(t, d.Allowed)

	d = g.Admit(relaunch, accepted(), 10, exposureWith(100), t0.Add(10*time.Minute))
	assert.True(t, d.Allowed)
}

func TestGate_DeniedAdmissionDoesNotStartCooldown(t *testing.T) {
	g := testGate()
	t0 := time.Unix(10000, 0)

	d := g.Admit(candidate("m1"), accepted(), 50, exposureWith(100), t0)
	require.False(t, d.Allowed)

	d = g.Admit(candidate("m1"), accepted(), 10, exposureWith(100), t0.Add(time.Second))
	assert.True(t, d.Allowed)
}

func TestGate_DeniesAtMaxOpenPositions(t *testing.T) {
	g := testGate()

	var positions []*domain.Position
	for i := 0; i < 5; i++ {
		positions = append(positions, &domain.Position{
			ID:   fmt.Sprintf("p%d", i),
			Mint: fmt.Sprintf("m%d", i), State: domain.StateMonitoring, Allocated: 2,
		})
	}
	exp := exposureWith(100, positions...)

	d := g.Admit(candidate("fresh"), accepted(), 2, exp, time.Unix(1000, 0))

	require.False(t, d.Allowed)
	assert.Equal(t, CodeMaxPositions, d.Code)
}

// Random admissions against a gate can never push total exposure past 100%
// of balance, regardless of order or allocation size.
func TestGate_ExposureNeverExceedsBalance(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	g := NewGate(Config{MaxAllocationPerToken: 0.25})

	const balance = 100.0
	var open []*domain.Position
	now := time.Unix(10000, 0)

	for i := 0; i < 500; i++ {
		alloc := rng.Float64() * 30 // up to 30% of balance, some over the cap
		mint := fmt.Sprintf("mint-%d", i)

		exp := domain.ComputeExposure(balance, open)
		d := g.Admit(candidate(mint), accepted(), alloc, exp, now)
		if d.Allowed {
			open = append(open, &domain.Position{
				ID: mint, Mint: mint, State: domain.StateMonitoring, Allocated: alloc,
			})
		}

		// Randomly close some positions to free headroom.
		if len(open) > 0 && rng.Intn(3) == 0 {
			open[rng.Intn(len(open))].State = domain.StateClosed
		}
		now = now.Add(time.Second)

		total := domain.ComputeExposure(balance, open).TotalFraction
		require.LessOrEqual(t, total, 1.0+1e-9, "iteration %d", i)
	}
}
