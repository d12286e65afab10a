// Package pacing spaces out calls to a rate-limited collaborator.
package pacing

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Gate blocks until the caller may issue its next call. A single Gate is
// shared by every worker in a run, so the spacing holds across workers.
type Gate interface {
	Wait(ctx context.Context) error
}

// Unlimited never blocks.
type Unlimited struct{}

func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }

// Interval admits one call per interval with no bursting. The first call
// passes immediately; each later call waits until interval has elapsed since
// the previous one. A non-positive interval returns Unlimited.
func Interval(interval time.Duration) Gate {
	if interval <= 0 {
		return Unlimited{}
	}
	return &limiterGate{l: rate.NewLimiter(rate.Every(interval), 1)}
}

type limiterGate struct {
	l *rate.Limiter
}

func (g *limiterGate) Wait(ctx context.Context) error {
	return g.l.Wait(ctx)
}
