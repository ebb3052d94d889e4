package postgres

import (
	"context"
	"fmt"

	"launch-sniper/internal/domain"
	"launch-sniper/internal/storage"
)

// PositionStore implements storage.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *Pool
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(pool *Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PositionStore = (*PositionStore)(nil)

const positionColumns = `
	position_id, mint, symbol, state,
	allocated, quantity, entry_price, entry_time,
	stop_loss, take_profit,
	buy_intent_id, buy_deadline,
	sell_intent_id, sell_deadline, trigger_reason, trigger_price, sell_retries,
	last_checked, unrealized_pnl,
	exit_price, exit_time, realized_pnl, close_reason,
	created_at`

// Save inserts or updates a position by its ID. The lifecycle manager calls
// this on every state transition.
func (s *PositionStore) Save(ctx context.Context, p *domain.Position) error {
	if p == nil || p.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO positions (` + positionColumns + `
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10,
			$11, $12,
			$13, $14, $15, $16, $17,
			$18, $19,
			$20, $21, $22, $23,
			$24
		)
		ON CONFLICT (position_id) DO UPDATE SET
			state = EXCLUDED.state,
			quantity = EXCLUDED.quantity,
			entry_price = EXCLUDED.entry_price,
			entry_time = EXCLUDED.entry_time,
			stop_loss = EXCLUDED.stop_loss,
			take_profit = EXCLUDED.take_profit,
			buy_intent_id = EXCLUDED.buy_intent_id,
			buy_deadline = EXCLUDED.buy_deadline,
			sell_intent_id = EXCLUDED.sell_intent_id,
			sell_deadline = EXCLUDED.sell_deadline,
			trigger_reason = EXCLUDED.trigger_reason,
			trigger_price = EXCLUDED.trigger_price,
			sell_retries = EXCLUDED.sell_retries,
			last_checked = EXCLUDED.last_checked,
			unrealized_pnl = EXCLUDED.unrealized_pnl,
			exit_price = EXCLUDED.exit_price,
			exit_time = EXCLUDED.exit_time,
			realized_pnl = EXCLUDED.realized_pnl,
			close_reason = EXCLUDED.close_reason
	`

	_, err := s.pool.Exec(ctx, query,
		p.ID, p.Mint, p.Symbol, string(p.State),
		p.Allocated, p.Quantity, p.EntryPrice, p.EntryTime,
		p.StopLoss, p.TakeProfit,
		p.BuyIntentID, p.BuyDeadline,
		p.SellIntentID, p.SellDeadline, p.TriggerReason, p.TriggerPrice, p.SellRetries,
		p.LastChecked, p.UnrealizedPnL,
		p.ExitPrice, p.ExitTime, p.RealizedPnL, p.CloseReason,
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save position: %w", err)
	}
	return nil
}

// GetByID retrieves a position by its ID. Returns ErrNotFound if not exists.
func (s *PositionStore) GetByID(ctx context.Context, id string) (*domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE position_id = $1`

	row := s.pool.QueryRow(ctx, query, id)
	p, err := scanPosition(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get position by id: %w", err)
	}
	return p, nil
}

// GetOpen retrieves all non-terminal positions, ordered by creation time.
func (s *PositionStore) GetOpen(ctx context.Context) ([]*domain.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE state NOT IN ('CLOSED', 'FAILED')
		ORDER BY created_at ASC, position_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get open positions: %w", err)
	}
	defer rows.Close()

	var positions []*domain.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position row: %w", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate position rows: %w", err)
	}
	return positions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosition(row rowScanner) (*domain.Position, error) {
	var p domain.Position
	var state string

	err := row.Scan(
		&p.ID, &p.Mint, &p.Symbol, &state,
		&p.Allocated, &p.Quantity, &p.EntryPrice, &p.EntryTime,
		&p.StopLoss, &p.TakeProfit,
		&p.BuyIntentID, &p.BuyDeadline,
		&p.SellIntentID, &p.SellDeadline, &p.TriggerReason, &p.TriggerPrice, &p.SellRetries,
		&p.LastChecked, &p.UnrealizedPnL,
		&p.ExitPrice, &p.ExitTime, &p.RealizedPnL, &p.CloseReason,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.State = domain.PositionState(state)
	return &p, nil
}
