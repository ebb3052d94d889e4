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

func testPosition(id, mint string, state domain.PositionState) *domain.Position {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Position{
		ID:          id,
		Mint:        mint,
		Symbol:      "TST",
		State:       state,
		Allocated:   10,
		Quantity:    10,
		EntryPrice:  1.0,
		EntryTime:   now,
		StopLoss:    0.85,
		TakeProfit:  1.50,
		BuyIntentID: "buy-1",
		BuyDeadline: now.Add(30 * time.Second),
		LastChecked: now,
		CreatedAt:   now,
	}
}

func TestPositionStore_SaveAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	store := postgres.NewPositionStore(pool)
	ctx := context.Background()

	p := testPosition("pos-1", "mint-1", domain.StatePending)
	require.NoError(t, store.Save(ctx, p))

	got, err := store.GetByID(ctx, "pos-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatePending, got.State)
	assert.Equal(t, p.Allocated, got.Allocated)
	assert.Equal(t, p.StopLoss, got.StopLoss)
	assert.WithinDuration(t, p.CreatedAt, got.CreatedAt, time.Millisecond)
}

func TestPositionStore_SaveIsUpsert(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	store := postgres.NewPositionStore(pool)
	ctx := context.Background()

	p := testPosition("pos-1", "mint-1", domain.StatePending)
	require.NoError(t, store.Save(ctx, p))

	p.State = domain.StateMonitoring
	p.Quantity = 12.5
	require.NoError(t, store.Save(ctx, p))

	got, err := store.GetByID(ctx, "pos-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateMonitoring, got.State)
	assert.Equal(t, 12.5, got.Quantity)
}

func TestPositionStore_GetByID_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	store := postgres.NewPositionStore(pool)

	_, err := store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPositionStore_Save_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	store := postgres.NewPositionStore(pool)
	ctx := context.Background()

	assert.ErrorIs(t, store.Save(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Save(ctx, &domain.Position{}), storage.ErrInvalidInput)
}

func TestPositionStore_GetOpen(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	store := postgres.NewPositionStore(pool)
	ctx := context.Background()

	a := testPosition("a", "m1", domain.StateMonitoring)
	a.CreatedAt = a.CreatedAt.Add(time.Second)
	b := testPosition("b", "m2", domain.StateClosed)
	c := testPosition("c", "m3", domain.StatePendingSell)

	require.NoError(t, store.Save(ctx, a))
	require.NoError(t, store.Save(ctx, b))
	require.NoError(t, store.Save(ctx, c))

	open, err := store.GetOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "c", open[0].ID)
	assert.Equal(t, "a", open[1].ID)
}
