package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/palantir/lead-repair-pipeline/internal/pipeline"
)

// Bucket file names.
const (
	ValidFile         = "valid.json"
	RepairedFile      = "repaired.json"
	LowConfidenceFile = "low_confidence.json"
	FailedFile        = "failed.json"
)

// Dir writes one indented JSON array per bucket into a directory. The
// low-confidence file is only written when that bucket is non-empty.
type Dir struct {
	Path string
}

// Files lists the files Store writes for res, in a stable order.
func (d *Dir) Files(res *pipeline.Results) []string {
	files := []string{
		filepath.Join(d.Path, ValidFile),
		filepath.Join(d.Path, RepairedFile),
	}
	if len(res.LowConfidence) > 0 {
		files = append(files, filepath.Join(d.Path, LowConfidenceFile))
	}
	return append(files, filepath.Join(d.Path, FailedFile))
}

func (d *Dir) Store(ctx context.Context, res *pipeline.Results) error {
	if err := os.MkdirAll(d.Path, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	writes := map[string]any{
		ValidFile:    res.Valid,
		RepairedFile: res.Repaired,
		FailedFile:   res.Failed,
	}
	if len(res.LowConfidence) > 0 {
		writes[LowConfidenceFile] = res.LowConfidence
	} else if err := os.Remove(filepath.Join(d.Path, LowConfidenceFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale %s: %w", LowConfidenceFile, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for name, v := range writes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return writeJSON(filepath.Join(d.Path, name), v)
		})
	}
	return g.Wait()
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	b = append(b, '\n')

	// Bucket files are replaced atomically.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
