package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launch-sniper/internal/domain"
	"launch-sniper/internal/storage"
	"launch-sniper/internal/storage/postgres"
)

func testTrade(id, mint string, exitTime time.Time) *domain.TradeRecord {
	return &domain.TradeRecord{
		TradeID:     id,
		Mint:        mint,
		Symbol:      "TST",
		Allocated:   10,
		Quantity:    10,
		EntryPrice:  1.0,
		EntryTime:   exitTime.Add(-time.Hour),
		ExitPrice:   1.2,
		ExitTime:    exitTime,
		PnL:         2.0,
		PnLFraction: 0.2,
		ExitReason:  domain.ExitReasonTakeProfit,
	}
}

func TestTradeRecordStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	store := postgres.NewTradeRecordStore(pool)
	ctx := context.Background()

	rec := testTrade("trade-1", "m1", time.Now().UTC().Truncate(time.Millisecond))
	require.NoError(t, store.Insert(ctx, rec))

	got, err := store.GetByID(ctx, "trade-1")
	require.NoError(t, err)
	assert.Equal(t, rec.ExitPrice, got.ExitPrice)
	assert.Equal(t, rec.ExitReason, got.ExitReason)
	assert.Equal(t, rec.PnL, got.PnL)
}

func TestTradeRecordStore_Insert_Duplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	store := postgres.NewTradeRecordStore(pool)
	ctx := context.Background()

	rec := testTrade("trade-1", "m1", time.Now().UTC())
	require.NoError(t, store.Insert(ctx, rec))
	assert.ErrorIs(t, store.Insert(ctx, rec), storage.ErrDuplicateKey)
}

func TestTradeRecordStore_GetByID_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	store := postgres.NewTradeRecordStore(pool)

	_, err := store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTradeRecordStore_GetByMintAndGetAll(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	store := postgres.NewTradeRecordStore(pool)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.Insert(ctx, testTrade("b", "m1", base.Add(time.Minute))))
	require.NoError(t, store.Insert(ctx, testTrade("a", "m1", base)))
	require.NoError(t, store.Insert(ctx, testTrade("c", "m2", base.Add(30*time.Second))))

	byMint, err := store.GetByMint(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, byMint, 2)
	assert.Equal(t, "a", byMint[0].TradeID)
	assert.Equal(t, "b", byMint[1].TradeID)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
