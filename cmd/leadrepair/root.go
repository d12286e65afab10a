package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/palantir/lead-repair-pipeline/internal/config"
	"github.com/palantir/lead-repair-pipeline/internal/logging"
	"github.com/palantir/lead-repair-pipeline/internal/version"
)

type rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	var g rootFlags
	root := &cobra.Command{
		Use:   "leadrepair",
		Short: "Validate, repair and classify sales lead records",
		Long: "leadrepair checks every lead in a CSV file against the record schema,\n" +
			"sends invalid leads to a repair agent and writes each record to exactly\n" +
			"one of the valid, repaired, low-confidence or failed buckets.",
		Version:       version.Current,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	root.SetVersionTemplate(version.String() + "\n")

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "YAML config file; environment variables and flags override it")
	pf.StringVar(&g.logLevel, "log-level", "", "debug, info, warn or error (env: LOG_LEVEL)")
	pf.StringVar(&g.logFormat, "log-format", "", "text or json (env: LOG_FORMAT)")

	root.AddCommand(newCleanCmd(&g))
	root.AddCommand(newGenerateCmd(&g))
	return root
}

// load resolves defaults, the config file and the environment, then applies
// the persistent flags the user set.
func (g *rootFlags) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = g.logFormat
	}
	return cfg, nil
}

func initLogging(cfg config.Config, w io.Writer) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	logging.Init(level, cfg.Log.Format, w)
}
