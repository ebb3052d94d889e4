package storage

import (
	"context"
	"errors"

	"launch-sniper/internal/domain"
)

// FanoutTradeRecordStore writes trades to a primary store and mirrors them
// to secondary sinks (e.g. a ClickHouse analytics store). Reads come from
// the primary only. A duplicate in a secondary is ignored so the mirror is
// idempotent across restarts.
type FanoutTradeRecordStore struct {
	primary     TradeRecordStore
	secondaries []TradeRecordStore
}

// NewFanoutTradeRecordStore creates a fanout over primary and secondaries.
func NewFanoutTradeRecordStore(primary TradeRecordStore, secondaries ...TradeRecordStore) *FanoutTradeRecordStore {
	return &FanoutTradeRecordStore{primary: primary, secondaries: secondaries}
}

// Insert writes to the primary first, then mirrors to all secondaries.
func (s *FanoutTradeRecordStore) Insert(ctx context.Context, t *domain.TradeRecord) error {
	if err := s.primary.Insert(ctx, t); err != nil {
		return err
	}
	for _, sec := range s.secondaries {
		if err := sec.Insert(ctx, t); err != nil && !errors.Is(err, ErrDuplicateKey) {
			return err
		}
	}
	return nil
}

// GetByID reads from the primary store.
func (s *FanoutTradeRecordStore) GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error) {
	return s.primary.GetByID(ctx, tradeID)
}

// GetByMint reads from the primary store.
func (s *FanoutTradeRecordStore) GetByMint(ctx context.Context, mint string) ([]*domain.TradeRecord, error) {
	return s.primary.GetByMint(ctx, mint)
}

// GetAll reads from the primary store.
func (s *FanoutTradeRecordStore) GetAll(ctx context.Context) ([]*domain.TradeRecord, error) {
	return s.primary.GetAll(ctx)
}

var _ TradeRecordStore = (*FanoutTradeRecordStore)(nil)
