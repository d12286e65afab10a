// Package sink persists the buckets of a pipeline run.
package sink

import (
	"context"
	"errors"

	"github.com/palantir/lead-repair-pipeline/internal/pipeline"
	"github.com/palantir/lead-repair-pipeline/pkg/pipeline/core"
)

// Sink stores a completed result set.
type Sink = core.OutputAdapter[*pipeline.Results]

var (
	_ Sink = (*Dir)(nil)
	_ Sink = (*SQLite)(nil)
	_ Sink = Multi(nil)
)

// Multi stores to every sink in order and joins their errors.
type Multi []Sink

func (m Multi) Store(ctx context.Context, res *pipeline.Results) error {
	var errs []error
	for _, s := range m {
		if err := s.Store(ctx, res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
