package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/palantir/lead-repair-pipeline/internal/app"
	"github.com/palantir/lead-repair-pipeline/internal/generate"
)

type generateFlags struct {
	output string
	size   int
	seed   uint64
}

func newGenerateCmd(g *rootFlags) *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic lead dataset with a known mix of clean and broken rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if f.size < generate.MinSize || f.size > generate.MaxSize {
				return fmt.Errorf("%w, got %d", generate.ErrSize, f.size)
			}
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			initLogging(cfg, cmd.ErrOrStderr())

			if err := app.RunGenerate(f.output, generate.Options{Size: f.size, Seed: f.seed}, cmd.OutOrStdout()); err != nil {
				return &runError{err: err}
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.output, "output", "o", generate.DefaultPath, "Output CSV path")
	fl.IntVarP(&f.size, "size", "s", generate.DefaultSize, fmt.Sprintf("Number of leads, %d to %d", generate.MinSize, generate.MaxSize))
	fl.Uint64Var(&f.seed, "seed", 0, "Seed for reproducible output, 0 picks one at random")
	return cmd
}
