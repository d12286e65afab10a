// Package core holds the adapter contracts and error types shared by
// pipeline stages.
package core

import "context"

// InputAdapter loads input records for pipeline processing.
type InputAdapter[In any] interface {
	Load(ctx context.Context) ([]In, error)
}

// OutputAdapter persists the output of one pipeline run.
type OutputAdapter[Out any] interface {
	Store(ctx context.Context, out Out) error
}

// TransientError marks an error as retryable.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// LimitedTransientError is a retryable error that caps how many extra
// attempts it deserves, e.g. a quota error that is unlikely to clear soon.
type LimitedTransientError struct {
	Err        error
	MaxRetries int
}

func (e *LimitedTransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *LimitedTransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// MaxExtraRetries reports the retry budget for this error.
func (e *LimitedTransientError) MaxExtraRetries() int {
	if e == nil || e.MaxRetries < 0 {
		return 0
	}
	return e.MaxRetries
}
