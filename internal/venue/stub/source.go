// Package stub provides a channel-backed launch source for tests and dry
// runs.
package stub

import (
	"context"

	"launch-sniper/internal/domain"
	"launch-sniper/internal/venue"
)

// Source implements venue.Source from manually emitted candidates.
type Source struct {
	events chan *domain.TokenCandidate
}

// NewSource creates a stub source.
func NewSource() *Source {
	return &Source{events: make(chan *domain.TokenCandidate, 16)}
}

// Emit delivers one candidate to the engine.
func (s *Source) Emit(c *domain.TokenCandidate) {
	s.events <- c
}

// Run implements venue.Source. It blocks until ctx is cancelled.
func (s *Source) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

// Events implements venue.Source.
func (s *Source) Events() <-chan *domain.TokenCandidate {
	return s.events
}

var _ venue.Source = (*Source)(nil)
