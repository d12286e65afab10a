package repair

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"time"

	"github.com/palantir/lead-repair-pipeline/internal/lead"
)

// RetryOptions controls how transient collaborator failures are retried.
type RetryOptions struct {
	MaxRetries int

	// BackoffInitial is the initial sleep before retrying a transient failure.
	BackoffInitial time.Duration
	// BackoffMax caps exponential backoff.
	BackoffMax time.Duration
	// BackoffJitterFrac applies +/- jitter to backoff sleeps (0.2 = +/-20%).
	BackoffJitterFrac float64
}

func (o RetryOptions) withDefaults() RetryOptions {
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.BackoffInitial <= 0 {
		o.BackoffInitial = 200 * time.Millisecond
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = 2 * time.Second
	}
	if o.BackoffJitterFrac < 0 {
		o.BackoffJitterFrac = 0
	}
	return o
}

// WithRetry retries transient failures of next with exponential backoff.
// Retries stay inside the collaborator: the pipeline still sees exactly one
// Repair call per invalid lead.
func WithRetry(next Repairer, opts RetryOptions) Repairer {
	opts = opts.withDefaults()
	if opts.MaxRetries == 0 {
		return next
	}
	return &retrying{next: next, opts: opts}
}

type retrying struct {
	next Repairer
	opts RetryOptions
}

func (r *retrying) Repair(ctx context.Context, in lead.Fields, validationErr string) (lead.Lead, error) {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return lead.Lead{}, err
		}
		out, err := r.next.Repair(ctx, in, validationErr)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return lead.Lead{}, ctx.Err()
		}
		if !IsTransient(err) || attempt >= MaxExtraRetries(r.opts.MaxRetries, err) {
			return lead.Lead{}, err
		}

		sleep := backoffSleep(r.opts.BackoffInitial, r.opts.BackoffMax, r.opts.BackoffJitterFrac, attempt)
		t := time.NewTimer(sleep)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return lead.Lead{}, ctx.Err()
		}
	}
}

type retryCap interface {
	MaxExtraRetries() int
}

// MaxExtraRetries returns the retry budget for err: the default, lowered by
// any cap the error itself declares.
func MaxExtraRetries(defaultRetries int, err error) int {
	if defaultRetries < 0 {
		defaultRetries = 0
	}
	var capErr retryCap
	if errors.As(err, &capErr) {
		limited := capErr.MaxExtraRetries()
		if limited < 0 {
			limited = 0
		}
		if limited < defaultRetries {
			return limited
		}
	}
	return defaultRetries
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	var lte *LimitedTransientError
	if errors.As(err, &lte) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}

func backoffSleep(initial, max time.Duration, jitterFrac float64, attempt int) time.Duration {
	sleep := initial
	for i := 0; i < attempt && sleep < max; i++ {
		sleep *= 2
		if sleep > max {
			sleep = max
			break
		}
	}
	if jitterFrac <= 0 {
		return sleep
	}
	// Apply +/- jitterFrac.
	j := 1 + (rand.Float64()*2-1)*jitterFrac
	return time.Duration(float64(sleep) * j)
}
