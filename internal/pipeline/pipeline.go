// Package pipeline classifies lead rows: every row is normalized, validated
// and, when invalid, handed to a repairer, then placed in exactly one bucket.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/palantir/lead-repair-pipeline/internal/lead"
	"github.com/palantir/lead-repair-pipeline/internal/repair"
	"github.com/palantir/lead-repair-pipeline/pkg/pipeline/pacing"
	"github.com/palantir/lead-repair-pipeline/pkg/pipeline/worker"
)

type Options struct {
	// MinConfidence is the inclusive threshold between Repaired and
	// LowConfidence. Must be within [0, 1].
	MinConfidence float64

	// Workers bounds concurrent rows. 1 (the default) is strictly sequential.
	Workers int

	// RepairTimeout bounds a single Repair call. 0 disables the per-call timeout.
	RepairTimeout time.Duration

	// Gate is waited on before every Repair call. Nil means no pacing.
	Gate pacing.Gate

	Logger *slog.Logger
}

func (o Options) withDefaults() (Options, error) {
	if math.IsNaN(o.MinConfidence) || o.MinConfidence < 0 || o.MinConfidence > 1 {
		return o, fmt.Errorf("min confidence must be within [0,1], got %g", o.MinConfidence)
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.Gate == nil {
		o.Gate = pacing.Unlimited{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o, nil
}

// Run classifies every row. Per-row failures land in the Failed bucket; the
// only run-level errors are invalid options and context cancellation.
func Run(ctx context.Context, rows []lead.RawRow, repairer repair.Repairer, opts Options) (*Results, error) {
	return RunWithCallback(ctx, rows, repairer, nil, opts)
}

// RunWithCallback is Run with onOutcome invoked as each row completes. The
// callback is never called concurrently; an error from it aborts the run.
func RunWithCallback(
	ctx context.Context,
	rows []lead.RawRow,
	repairer repair.Repairer,
	onOutcome func(Outcome) error,
	opts Options,
) (*Results, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	if repairer == nil {
		return nil, errors.New("pipeline: repairer is required")
	}
	c := &controller{repairer: repairer, opts: opts}

	var cb func(worker.Result[lead.RawRow, Outcome]) error
	if onOutcome != nil {
		cb = func(r worker.Result[lead.RawRow, Outcome]) error {
			if r.Err != nil {
				return nil
			}
			o := r.Output
			o.Index = r.Index
			return onOutcome(o)
		}
	}

	out, err := worker.ProcessAllWithCallback(ctx, rows, c.process, cb, worker.Options{
		Workers:       opts.Workers,
		FailurePolicy: worker.FailurePolicyFailFast,
	})
	if err != nil {
		return nil, err
	}

	results := NewResults()
	for _, r := range out {
		results.add(r.Output)
	}
	return results, nil
}

type controller struct {
	repairer repair.Repairer
	opts     Options
}

// process returns an error only when the run itself must stop.
func (c *controller) process(ctx context.Context, row lead.RawRow) (Outcome, error) {
	o := Outcome{Row: row}

	fields, err := lead.PrepareRow(row)
	if err != nil {
		o.Bucket = BucketFailed
		o.Err = err
		c.opts.Logger.Debug("row failed preprocessing", "error", err.Error())
		return o, nil
	}

	valid, verr := lead.Validate(fields)
	if verr == nil {
		o.Bucket = BucketValid
		o.Lead = &valid
		return o, nil
	}
	o.ValidationError = verr.Error()

	if err := c.opts.Gate.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		return c.fail(o, verr, fmt.Errorf("pacing: %w", err)), nil
	}

	repaired, err := c.repair(ctx, fields, o.ValidationError)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		return c.fail(o, verr, err), nil
	}

	o.Lead = &repaired
	o.Bucket = Route(repaired.ConfidenceScore, c.opts.MinConfidence)
	c.opts.Logger.Debug("row repaired",
		"lead_id", repaired.ID,
		"bucket", o.Bucket.String(),
		"confidence", repaired.ConfidenceScore,
	)
	return o, nil
}

func (c *controller) repair(ctx context.Context, in lead.Fields, validationErr string) (lead.Lead, error) {
	callCtx := ctx
	if c.opts.RepairTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.opts.RepairTimeout)
		defer cancel()
	}

	out, err := c.repairer.Repair(callCtx, in.Clone(), validationErr)
	if err != nil {
		return lead.Lead{}, err
	}

	// Never trust the collaborator's claim of validity.
	checked, err := lead.Validate(out.Fields())
	if err != nil {
		return lead.Lead{}, fmt.Errorf("repaired record failed validation: %w", err)
	}
	if err := checkIdentity(in, checked); err != nil {
		return lead.Lead{}, err
	}
	return checked, nil
}

func (c *controller) fail(o Outcome, verr, err error) Outcome {
	o.Bucket = BucketFailed
	o.Err = &RepairError{Validation: verr, Err: err}
	return o
}

// checkIdentity rejects repairs that altered who the lead is. Names and emails
// may change case and whitespace only.
func checkIdentity(in lead.Fields, out lead.Lead) error {
	if out.ID != in.ID {
		return fmt.Errorf("%w: id %d became %d", ErrIdentityChanged, in.ID, out.ID)
	}
	if identityKey(in.Name) == "" || identityKey(in.Name) != identityKey(out.Name) {
		return fmt.Errorf("%w: name %q became %q", ErrIdentityChanged, in.Name, out.Name)
	}
	if identityKey(in.Email) == "" || identityKey(in.Email) != identityKey(out.Email) {
		return fmt.Errorf("%w: email %q became %q", ErrIdentityChanged, in.Email, out.Email)
	}
	return nil
}

func identityKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
