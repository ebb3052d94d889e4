package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"launch-sniper/internal/domain"
	"launch-sniper/internal/execution/stub"
	"launch-sniper/internal/lifecycle"
	"launch-sniper/internal/risk"
	"launch-sniper/internal/scoring"
	"launch-sniper/internal/sizing"
	"launch-sniper/internal/storage/memory"
	venuestub "launch-sniper/internal/venue/stub"
)

type harness struct {
	eng    *Engine
	exec   *stub.Executor
	source *venuestub.Source
	mgr    *lifecycle.Manager
	gate   *risk.Gate
	trades *memory.TradeRecordStore
}

func newHarness() *harness {
	exec := stub.NewExecutor(100)
	source := venuestub.NewSource()
	positions := memory.NewPositionStore()
	trades := memory.NewTradeRecordStore()

	scorer := scoring.New(scoring.Config{
		AcceptanceThreshold: 0.70,
		BlacklistedTerms:    []string{"rug"},
		LiquiditySaturation: 50,
		MinBasePrice:        0.000001,
		MaxBasePrice:        1.0,
	}, scoring.NewReputationTable(map[string]float64{"good-creator": 0.95}))

	sizer := sizing.New(sizing.Config{
		MaxAllocationPerToken: 0.10,
		MinScoreFloor:         0.3,
		MinTradeSize:          0.01,
	})

	gate := risk.NewGate(risk.Config{
		MaxAllocationPerToken: 0.10,
		CooldownPeriod:        5 * time.Minute,
		MaxOpenPositions:      10,
	})

	mgr := lifecycle.NewManager(lifecycle.Config{
		ConfirmationTimeout: 30 * time.Second,
		MaxSellRetries:      3,
		StopLossPct:         0.15,
		TakeProfitPct:       0.50,
		MaxHoldDuration:     24 * time.Hour,
		PriceStaleAfter:     time.Hour, // generous; tests use wall-clock quotes
	}, exec, positions, trades, zap.NewNop())

	eng := New(Config{
		PollInterval:    time.Hour, // ticks driven manually via pollPass
		DrawdownHaltPct: 0.20,
	}, source, scorer, sizer, gate, mgr, exec, zap.NewNop())

	return &harness{eng: eng, exec: exec, source: source, mgr: mgr, gate: gate, trades: trades}
}

func strongCandidate(mint string) *domain.TokenCandidate {
	return &domain.TokenCandidate{
		Mint:             mint,
		Name:             "Solar Flare",
		Symbol:           "FLARE",
		Creator:          "good-creator",
		InitialLiquidity: 80,
		Curve:            domain.CurveParams{BasePrice: 0.0001, Slope: 0.001},
		DetectedAt:       time.Now(),
	}
}

func TestEngine_CandidateToOpenPosition(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	h.exec.SetQuote("m1", 1.0, time.Now())
	h.eng.refreshBalance(ctx)
	h.eng.handleCandidate(ctx, strongCandidate("m1"))

	require.True(t, h.mgr.Has("m1"))

	h.eng.pollPass(ctx)
	pos := h.mgr.OpenPositions()[0]
	assert.Equal(t, domain.StateMonitoring, pos.State)
	// Balance 100, 10% cap, strong score, full headroom.
	assert.Greater(t, pos.Allocated, 7.0)
	assert.LessOrEqual(t, pos.Allocated, 10.0)
}

func TestEngine_RejectedCandidateOpensNothing(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	h.eng.refreshBalance(ctx)
	c := strongCandidate("m1")
	c.Name = "Total Rug"
	h.eng.handleCandidate(ctx, c)

	assert.False(t, h.mgr.Has("m1"))
	assert.Equal(t, 0, h.exec.BuySubmits())
}

func TestEngine_DuplicateLaunchEventIsNoOp(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	h.exec.SetQuote("m1", 1.0, time.Now())
	h.eng.refreshBalance(ctx)
	h.eng.handleCandidate(ctx, strongCandidate("m1"))
	require.Equal(t, 1, h.exec.BuySubmits())

	h.eng.handleCandidate(ctx, strongCandidate("m1"))
	assert.Equal(t, 1, h.exec.BuySubmits())
}

func TestEngine_HaltedGateBlocksAdmission(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	h.exec.SetQuote("m1", 1.0, time.Now())
	h.eng.refreshBalance(ctx)
	h.gate.Halt("manual")
	h.eng.handleCandidate(ctx, strongCandidate("m1"))

	assert.False(t, h.mgr.Has("m1"))
}

func TestEngine_DrawdownHaltsAdmissions(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	h.eng.refreshBalance(ctx) // high-water at 100
	require.False(t, h.gate.Halted())

	h.exec.SetBalance(75) // 25% below high-water
	h.eng.pollPass(ctx)

	assert.True(t, h.gate.Halted())

	// Recovery does not auto-resume; that is an operator decision.
	h.exec.SetBalance(100)
	h.eng.pollPass(ctx)
	assert.True(t, h.gate.Halted())
}

func TestEngine_FullRoundTrip(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	h.exec.SetQuote("m1", 1.0, time.Now())
	h.eng.refreshBalance(ctx)
	h.eng.handleCandidate(ctx, strongCandidate("m1"))
	h.eng.pollPass(ctx) // confirm buy

	h.exec.SetQuote("m1", 1.6, time.Now()) // above take-profit
	h.eng.pollPass(ctx)                    // trigger + submit sell
	h.eng.pollPass(ctx)                    // confirm sell

	assert.False(t, h.mgr.Has("m1"))
	all, err := h.trades.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, domain.ExitReasonTakeProfit, all[0].ExitReason)
	assert.Greater(t, all[0].PnL, 0.0)
}

func TestEngine_RunStopsOnContextCancel(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- h.eng.Run(ctx) }()

	h.exec.SetQuote("m1", 1.0, time.Now())
	h.source.Emit(strongCandidate("m1"))

	require.Eventually(t, func() bool { return h.mgr.Has("m1") },
		2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop")
	}
}
