package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"launch-sniper/internal/domain"
	"launch-sniper/internal/storage"
)

// TradeRecordStore implements storage.TradeRecordStore using ClickHouse.
// MergeTree does not enforce uniqueness, so duplicates are detected with an
// explicit existence check before insert.
type TradeRecordStore struct {
	conn *Conn
}

// NewTradeRecordStore creates a new TradeRecordStore.
func NewTradeRecordStore(conn *Conn) *TradeRecordStore {
	return &TradeRecordStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)

const tradeColumns = `
	trade_id, mint, symbol,
	allocated, quantity, entry_price, entry_time,
	exit_price, exit_time,
	pnl, pnl_fraction, exit_reason`

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeRecordStore) Insert(ctx context.Context, t *domain.TradeRecord) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, t.TradeID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO trade_records (` + tradeColumns + `
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	err = s.conn.Exec(ctx, query,
		t.TradeID, t.Mint, t.Symbol,
		t.Allocated, t.Quantity, t.EntryPrice, t.EntryTime,
		t.ExitPrice, t.ExitTime,
		t.PnL, t.PnLFraction, t.ExitReason,
	)
	if err != nil {
		return fmt.Errorf("insert trade record: %w", err)
	}
	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeRecordStore) GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error) {
	query := `SELECT ` + tradeColumns + ` FROM trade_records WHERE trade_id = ? LIMIT 1`

	rows, err := s.conn.Query(ctx, query, tradeID)
	if err != nil {
		return nil, fmt.Errorf("get trade record by id: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, storage.ErrNotFound
	}
	return scanTradeRecord(rows)
}

// GetByMint retrieves all trades for a mint, ordered by exit time.
func (s *TradeRecordStore) GetByMint(ctx context.Context, mint string) ([]*domain.TradeRecord, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trade_records
		WHERE mint = ?
		ORDER BY exit_time ASC, trade_id ASC
	`
	rows, err := s.conn.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("get trade records by mint: %w", err)
	}
	defer rows.Close()

	return scanTradeRecords(rows)
}

// GetAll retrieves all trades, ordered by exit time.
func (s *TradeRecordStore) GetAll(ctx context.Context) ([]*domain.TradeRecord, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trade_records
		ORDER BY exit_time ASC, trade_id ASC
	`
	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all trade records: %w", err)
	}
	defer rows.Close()

	return scanTradeRecords(rows)
}

func (s *TradeRecordStore) exists(ctx context.Context, tradeID string) (bool, error) {
	row := s.conn.QueryRow(ctx,
		`SELECT count() FROM trade_records WHERE trade_id = ?`, tradeID)

	var count uint64
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTradeRecord(row rowScanner) (*domain.TradeRecord, error) {
	var t domain.TradeRecord
	err := row.Scan(
		&t.TradeID, &t.Mint, &t.Symbol,
		&t.Allocated, &t.Quantity, &t.EntryPrice, &t.EntryTime,
		&t.ExitPrice, &t.ExitTime,
		&t.PnL, &t.PnLFraction, &t.ExitReason,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTradeRecords(rows driver.Rows) ([]*domain.TradeRecord, error) {
	var trades []*domain.TradeRecord
	for rows.Next() {
		t, err := scanTradeRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade record row: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade record rows: %w", err)
	}
	return trades, nil
}
