package app

import (
	"fmt"
	"io"

	"github.com/palantir/lead-repair-pipeline/internal/generate"
	"github.com/palantir/lead-repair-pipeline/internal/logging"
)

// RunGenerate writes a synthetic dataset to path and prints its mix to out.
func RunGenerate(path string, opts generate.Options, out io.Writer) error {
	if path == "" {
		path = generate.DefaultPath
	}
	d, err := generate.WriteFile(path, opts)
	if err != nil {
		return err
	}
	logging.New("generate").Info("dataset written",
		"path", path,
		"size", d.Clean+d.Fixable+d.Unfixable,
		"seed", opts.Seed,
	)
	if out == nil {
		return nil
	}
	_, err = fmt.Fprintf(out,
		"Generated %d leads -> %s\n  clean:     %d\n  fixable:   %d\n  unfixable: %d\n",
		d.Clean+d.Fixable+d.Unfixable, path, d.Clean, d.Fixable, d.Unfixable,
	)
	return err
}
