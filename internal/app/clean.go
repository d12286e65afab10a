// Package app wires configuration, input, repair, sinks and reporting into the
// runs exposed by the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/palantir/lead-repair-pipeline/internal/config"
	"github.com/palantir/lead-repair-pipeline/internal/lead"
	"github.com/palantir/lead-repair-pipeline/internal/logging"
	"github.com/palantir/lead-repair-pipeline/internal/pipeline"
	"github.com/palantir/lead-repair-pipeline/internal/repair"
	"github.com/palantir/lead-repair-pipeline/internal/repair/gemini"
	"github.com/palantir/lead-repair-pipeline/internal/repair/rules"
	"github.com/palantir/lead-repair-pipeline/internal/report"
	"github.com/palantir/lead-repair-pipeline/internal/sink"
	"github.com/palantir/lead-repair-pipeline/pkg/pipeline/core"
	"github.com/palantir/lead-repair-pipeline/pkg/pipeline/io/local"
	"github.com/palantir/lead-repair-pipeline/pkg/pipeline/pacing"
	"github.com/palantir/lead-repair-pipeline/pkg/pipeline/schema"
)

// ErrMissingColumns is returned when the input header lacks a required column.
var ErrMissingColumns = errors.New("input is missing required columns")

type CleanOptions struct {
	InputPath string
	Config    config.Config

	// Repairer replaces the collaborator named by Config.Repairer. It is still
	// wrapped with retries and tracing.
	Repairer repair.Repairer

	// Report receives the human-readable summary. Nil discards it.
	Report io.Writer
}

// CSVInput loads lead rows from a CSV file and checks its header against the
// column contract.
type CSVInput struct {
	Path string

	// Variant is the detected column layout, set by Load.
	Variant schema.Variant
}

var _ core.InputAdapter[lead.RawRow] = (*CSVInput)(nil)

func (c *CSVInput) Load(ctx context.Context) ([]lead.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	header, records, err := local.ReadRecordsCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Path, err)
	}
	c.Variant = schema.DetectVariant(header)
	if missing := schema.LeadContract(c.Variant).Missing(header); len(missing) > 0 {
		return nil, fmt.Errorf("%s: %w: %s", c.Path, ErrMissingColumns, strings.Join(missing, ", "))
	}

	rows := make([]lead.RawRow, len(records))
	for i, r := range records {
		rows[i] = r
	}
	return rows, nil
}

// RunClean classifies every row of the input file, stores the buckets and
// writes the run report. Per-row failures are part of the result, not errors.
func RunClean(ctx context.Context, opts CleanOptions) (*pipeline.Results, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := logging.New("app").With("run", runID)
	runStart := time.Now()

	in := &CSVInput{Path: opts.InputPath}
	rows, err := in.Load(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded input",
		"path", opts.InputPath,
		"variant", string(in.Variant),
		"rows", len(rows),
	)

	base, name, err := newRepairer(ctx, cfg, opts.Repairer)
	if err != nil {
		return nil, err
	}
	repairer := repair.Traced(
		repair.WithRetry(base, repair.RetryOptions{MaxRetries: cfg.MaxRetries, BackoffJitterFrac: 0.2}),
		logging.New("repair").With("run", runID),
	)
	logger.Info("run start",
		"repairer", name,
		"workers", cfg.Workers,
		"min_confidence", cfg.MinConfidence,
		"repair_delay", cfg.RepairDelay,
		"repair_timeout", cfg.RepairTimeout,
		"max_retries", cfg.MaxRetries,
	)

	completed := 0
	res, err := pipeline.RunWithCallback(ctx, rows, repairer, func(o pipeline.Outcome) error {
		completed++
		logger.Debug("row classified",
			"row", o.Index,
			"bucket", o.Bucket.String(),
			"completed", fmt.Sprintf("%d/%d", completed, len(rows)),
		)
		return nil
	}, pipeline.Options{
		MinConfidence: cfg.MinConfidence,
		Workers:       cfg.Workers,
		RepairTimeout: cfg.RepairTimeout,
		Gate:          pacing.Interval(cfg.RepairDelay),
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("classification complete",
		"valid", len(res.Valid),
		"repaired", len(res.Repaired),
		"low_confidence", len(res.LowConfidence),
		"failed", len(res.Failed),
		"duration", time.Since(runStart).Round(time.Millisecond),
	)

	dir := &sink.Dir{Path: cfg.OutputDir}
	sinks := sink.Multi{dir}
	files := dir.Files(res)
	if cfg.SQLitePath != "" {
		db, err := sink.OpenSQLite(cfg.SQLitePath, sink.Run{
			ID:            runID,
			Source:        opts.InputPath,
			MinConfidence: cfg.MinConfidence,
			StartedAt:     runStart,
		})
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = db.Close()
		}()
		sinks = append(sinks, db)
		files = append(files, cfg.SQLitePath)
	}

	writeStart := time.Now()
	if err := sinks.Store(ctx, res); err != nil {
		return nil, err
	}
	logger.Info("results stored",
		"output_dir", cfg.OutputDir,
		"write_duration", time.Since(writeStart).Round(time.Millisecond),
		"total_duration", time.Since(runStart).Round(time.Millisecond),
	)

	if opts.Report != nil {
		s := report.Summarize(res)
		s.RunID = runID
		s.Source = filepath.Base(opts.InputPath)
		s.Repairer = name
		s.MinConfidence = cfg.MinConfidence
		s.Files = files
		if err := report.Write(opts.Report, s); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func newRepairer(ctx context.Context, cfg config.Config, override repair.Repairer) (repair.Repairer, string, error) {
	if override != nil {
		return override, "custom", nil
	}
	switch cfg.Repairer {
	case config.RepairerRules:
		return rules.New(), config.RepairerRules, nil
	case config.RepairerGemini:
		r, err := gemini.New(ctx, gemini.Config{
			APIKey:  cfg.Gemini.APIKey,
			Model:   cfg.Gemini.Model,
			BaseURL: cfg.Gemini.BaseURL,
		})
		if err != nil {
			return nil, "", err
		}
		return r, config.RepairerGemini + " (" + r.Model() + ")", nil
	}
	return nil, "", fmt.Errorf("%w: %q", config.ErrRepairer, cfg.Repairer)
}
