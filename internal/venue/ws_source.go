package venue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"launch-sniper/internal/domain"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
	eventBuffer    = 64
)

// WSSource subscribes to the venue program's logs over a websocket RPC
// endpoint and emits a candidate for every launch announcement. The
// connection is re-established with exponential backoff until the context
// is cancelled.
type WSSource struct {
	endpoint  string
	programID string
	log       *zap.Logger
	events    chan *domain.TokenCandidate
	now       func() time.Time
}

// NewWSSource creates a websocket-backed launch source.
func NewWSSource(endpoint, programID string, log *zap.Logger) *WSSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSSource{
		endpoint:  endpoint,
		programID: programID,
		log:       log,
		events:    make(chan *domain.TokenCandidate, eventBuffer),
		now:       time.Now,
	}
}

// Events implements Source.
func (s *WSSource) Events() <-chan *domain.TokenCandidate {
	return s.events
}

// Run implements Source. It blocks until ctx is cancelled, reconnecting on
// any transport failure.
func (s *WSSource) Run(ctx context.Context) error {
	backoff := initialBackoff
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.runConn(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.log.Warn("venue connection lost, reconnecting",
			zap.Error(err),
			zap.Duration("backoff", backoff))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// runConn dials, subscribes, and reads notifications until the connection
// breaks or ctx is cancelled.
func (s *WSSource) runConn(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.endpoint, err)
	}
	defer conn.Close()

	// Unblock the read loop when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	if err := s.subscribe(conn); err != nil {
		return err
	}
	s.log.Info("subscribed to venue logs",
		zap.String("endpoint", s.endpoint),
		zap.String("program_id", s.programID))

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}
		s.handleMessage(ctx, msg)
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type logsNotification struct {
	Method string `json:"method"`
	Params struct {
		Result struct {
			Value struct {
				Signature string   `json:"signature"`
				Err       any      `json:"err"`
				Logs      []string `json:"logs"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

func (s *WSSource) subscribe(conn *websocket.Conn) error {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "logsSubscribe",
		Params: []any{
			map[string]any{"mentions": []string{s.programID}},
			map[string]any{"commitment": "processed"},
		},
	}
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("send subscription: %w", err)
	}
	return nil
}

func (s *WSSource) handleMessage(ctx context.Context, msg []byte) {
	var note logsNotification
	if err := json.Unmarshal(msg, &note); err != nil || note.Method != "logsNotification" {
		return
	}
	if note.Params.Result.Value.Err != nil {
		// Failed transactions still emit logs; skip them.
		return
	}

	detectedAt := s.now()
	for _, line := range note.Params.Result.Value.Logs {
		cand, err := ParseLaunchLog(line, detectedAt)
		if err != nil {
			if !errors.Is(err, ErrNotLaunchLog) {
				s.log.Warn("malformed launch log",
					zap.String("signature", note.Params.Result.Value.Signature),
					zap.Error(err))
			}
			continue
		}

		select {
		case s.events <- cand:
		case <-ctx.Done():
			return
		default:
			// Engine is behind; dropping a launch is better than
			// stalling the subscription.
			s.log.Warn("event buffer full, dropping launch",
				zap.String("mint", cand.Mint))
		}
	}
}

var _ Source = (*WSSource)(nil)
