package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/palantir/lead-repair-pipeline/internal/app"
	"github.com/palantir/lead-repair-pipeline/internal/config"
)

type cleanFlags struct {
	output        string
	minConfidence float64
	workers       int
	repairDelay   time.Duration
	repairTimeout time.Duration
	maxRetries    int
	repairer      string
	sqlite        string
}

func newCleanCmd(g *rootFlags) *cobra.Command {
	var f cleanFlags
	cmd := &cobra.Command{
		Use:   "clean INPUT",
		Short: "Validate, repair and bucket the leads in a CSV file",
		Example: "  leadrepair clean examples/sample_leads.csv\n" +
			"  leadrepair clean leads.csv -o out -c 0.8 --repairer rules",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			f.apply(cmd, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			initLogging(cfg, cmd.ErrOrStderr())

			if _, err := app.RunClean(cmd.Context(), app.CleanOptions{
				InputPath: args[0],
				Config:    cfg,
				Report:    cmd.OutOrStdout(),
			}); err != nil {
				return &runError{err: err}
			}
			return nil
		},
	}

	def := config.Default()
	fl := cmd.Flags()
	fl.StringVarP(&f.output, "output", "o", def.OutputDir, "Directory for the bucket JSON files")
	fl.Float64VarP(&f.minConfidence, "min-confidence", "c", def.MinConfidence, "Repairs scoring below this go to low_confidence.json, 0.0 to 1.0 (env: MIN_CONFIDENCE)")
	fl.IntVar(&f.workers, "workers", def.Workers, "Rows processed concurrently (env: WORKERS)")
	fl.DurationVar(&f.repairDelay, "repair-delay", def.RepairDelay, "Minimum spacing between repair calls, 0 disables (env: REPAIR_DELAY)")
	fl.DurationVar(&f.repairTimeout, "repair-timeout", def.RepairTimeout, "Timeout for a single repair call, 0 disables (env: REPAIR_TIMEOUT)")
	fl.IntVar(&f.maxRetries, "max-retries", def.MaxRetries, "Retries per repair call on transient failures (env: MAX_RETRIES)")
	fl.StringVar(&f.repairer, "repairer", def.Repairer, "Repair agent: gemini or rules (env: REPAIRER)")
	fl.StringVar(&f.sqlite, "sqlite", "", "Also record outcomes in this SQLite database")
	return cmd
}

// apply overrides cfg with the flags the user set explicitly.
func (f *cleanFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fl := cmd.Flags()
	if fl.Changed("output") {
		cfg.OutputDir = f.output
	}
	if fl.Changed("min-confidence") {
		cfg.MinConfidence = f.minConfidence
	}
	if fl.Changed("workers") {
		cfg.Workers = f.workers
	}
	if fl.Changed("repair-delay") {
		cfg.RepairDelay = f.repairDelay
	}
	if fl.Changed("repair-timeout") {
		cfg.RepairTimeout = f.repairTimeout
	}
	if fl.Changed("max-retries") {
		cfg.MaxRetries = f.maxRetries
	}
	if fl.Changed("repairer") {
		cfg.Repairer = f.repairer
	}
	if fl.Changed("sqlite") {
		cfg.SQLitePath = f.sqlite
	}
}
