// Package venue turns raw launch-venue events into token candidates. The
// engine consumes the Source interface and never sees transport details.
package venue

import (
	"context"

	"launch-sniper/internal/domain"
)

// Source streams token launch candidates. Run blocks until the context is
// cancelled; Events stays open for the lifetime of the source and delivers
// one candidate per observed launch.
type Source interface {
	Run(ctx context.Context) error
	Events() <-chan *domain.TokenCandidate
}
