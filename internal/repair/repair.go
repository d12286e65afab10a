// Package repair defines the collaborator that turns an invalid lead into a
// schema-valid one, plus decorators for retrying and tracing it.
package repair

import (
	"context"

	"github.com/palantir/lead-repair-pipeline/internal/lead"
	"github.com/palantir/lead-repair-pipeline/pkg/pipeline/core"
)

// Repairer makes one best-effort attempt to fix an invalid lead.
//
// in is the normalized (possibly partial) candidate and validationErr the full
// description of the constraints it violated. On success the returned Lead is
// schema-valid and carries a confidence score. Implementations never invent a
// name or email; they may only fill or correct country_code, industry,
// segment and contract_value, and derive the confidence score.
type Repairer interface {
	Repair(ctx context.Context, in lead.Fields, validationErr string) (lead.Lead, error)
}

// Func adapts a function to the Repairer interface.
type Func func(ctx context.Context, in lead.Fields, validationErr string) (lead.Lead, error)

func (f Func) Repair(ctx context.Context, in lead.Fields, validationErr string) (lead.Lead, error) {
	return f(ctx, in, validationErr)
}

// TransientError marks a repair failure as retryable.
type TransientError = core.TransientError

// LimitedTransientError is a retryable failure with its own retry cap.
type LimitedTransientError = core.LimitedTransientError
