package storage

import (
	"context"

	"launch-sniper/internal/domain"
)

// PositionStore persists position state across transitions. Positions are
// mutable records keyed by position ID; Save is an upsert so the lifecycle
// manager can persist every transition with one call.
type PositionStore interface {
	// Save inserts or updates a position by its ID.
	Save(ctx context.Context, p *domain.Position) error

	// GetByID retrieves a position by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Position, error)

	// GetOpen retrieves all positions in a non-terminal state, used to
	// resume in-flight positions after a restart.
	GetOpen(ctx context.Context) ([]*domain.Position, error)
}

// TradeRecordStore persists the immutable record emitted per closed position.
type TradeRecordStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.TradeRecord) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error)

	// GetByMint retrieves all trades for a mint, ordered by exit time ASC.
	GetByMint(ctx context.Context, mint string) ([]*domain.TradeRecord, error)

	// GetAll retrieves all trades, ordered by exit time ASC.
	GetAll(ctx context.Context) ([]*domain.TradeRecord, error)
}
