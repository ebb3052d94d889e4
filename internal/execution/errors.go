package execution

import (
	"errors"
	"fmt"
)

// Failure wraps an execution-boundary error with its retry classification.
// Transient failures (timeouts, temporary unavailability) may be retried
// within configured bounds; permanent failures (explicit rejection, e.g.
// insufficient funds) must not be retried.
type Failure struct {
	Op        string // boundary operation, e.g. "submit_sell"
	Permanent bool
	Err       error
}

func (f *Failure) Error() string {
	kind := "transient"
	if f.Permanent {
		kind = "permanent"
	}
	return fmt.Sprintf("%s: %s execution failure: %v", f.Op, kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewTransient wraps err as a retryable execution failure.
func NewTransient(op string, err error) error {
	return &Failure{Op: op, Err: err}
}

// NewPermanent wraps err as a non-retryable execution failure.
func NewPermanent(op string, err error) error {
	return &Failure{Op: op, Permanent: true, Err: err}
}

// IsPermanent reports whether err is a permanent execution failure.
// Unclassified errors are treated as transient, so an imprecise backend
// can only cause extra retries, never a skipped position.
func IsPermanent(err error) bool {
	var f *Failure
	return errors.As(err, &f) && f.Permanent
}
