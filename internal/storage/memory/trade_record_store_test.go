package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launch-sniper/internal/domain"
	"launch-sniper/internal/storage"
)

func TestTradeRecordStore_InsertAndGet(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	rec := &domain.TradeRecord{
		TradeID:    "trade-1",
		Mint:       "mint-1",
		EntryPrice: 1.0,
		ExitPrice:  1.2,
		ExitTime:   time.Unix(2000, 0),
		ExitReason: domain.ExitReasonTakeProfit,
	}
	require.NoError(t, store.Insert(ctx, rec))

	got, err := store.GetByID(ctx, "trade-1")
	require.NoError(t, err)
	assert.Equal(t, 1.2, got.ExitPrice)
}

func TestTradeRecordStore_Insert_Duplicate(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	rec := &domain.TradeRecord{TradeID: "trade-1", Mint: "mint-1"}
	require.NoError(t, store.Insert(ctx, rec))
	assert.ErrorIs(t, store.Insert(ctx, rec), storage.ErrDuplicateKey)
}

func TestTradeRecordStore_GetByMint_Ordered(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &domain.TradeRecord{
		TradeID: "b", Mint: "m1", ExitTime: time.Unix(2000, 0),
	}))
	require.NoError(t, store.Insert(ctx, &domain.TradeRecord{
		TradeID: "a", Mint: "m1", ExitTime: time.Unix(1000, 0),
	}))
	require.NoError(t, store.Insert(ctx, &domain.TradeRecord{
		TradeID: "c", Mint: "m2", ExitTime: time.Unix(1500, 0),
	}))

	trades, err := store.GetByMint(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "a", trades[0].TradeID)
	assert.Equal(t, "b", trades[1].TradeID)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
