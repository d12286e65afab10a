package generate_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/palantir/lead-repair-pipeline/internal/generate"
	"github.com/palantir/lead-repair-pipeline/internal/lead"
	"github.com/palantir/lead-repair-pipeline/internal/pipeline"
	"github.com/palantir/lead-repair-pipeline/internal/repair/rules"
	"github.com/palantir/lead-repair-pipeline/pkg/pipeline/io/local"
)

func TestSplit(t *testing.T) {
	tests := map[int]generate.Distribution{
		10:  {Clean: 6, Fixable: 3, Unfixable: 1},
		50:  {Clean: 30, Fixable: 15, Unfixable: 5},
		33:  {Clean: 19, Fixable: 9, Unfixable: 5},
		200: {Clean: 120, Fixable: 60, Unfixable: 20},
	}
	for size, want := range tests {
		if diff := cmp.Diff(want, generate.Split(size)); diff != "" {
			t.Fatalf("Split(%d) mismatch (-want +got):\n%s", size, diff)
		}
	}
}

func TestRows_SizeBounds(t *testing.T) {
	for _, size := range []int{9, 10001, -1} {
		if _, _, err := generate.Rows(generate.Options{Size: size}); !errors.Is(err, generate.ErrSize) {
			t.Fatalf("size %d: expected ErrSize, got %v", size, err)
		}
	}
	rows, _, err := generate.Rows(generate.Options{})
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != generate.DefaultSize {
		t.Fatalf("default size produced %d rows", len(rows))
	}
}

func TestRows_SeededIsReproducibleWithUniqueIDs(t *testing.T) {
	a, _, err := generate.Rows(generate.Options{Size: 100, Seed: 42})
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	b, _, err := generate.Rows(generate.Options{Size: 100, Seed: 42})
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("same seed produced different rows (-a +b):\n%s", diff)
	}

	seen := map[string]bool{}
	for _, r := range a {
		if seen[r[lead.ColID]] {
			t.Fatalf("duplicate id %q", r[lead.ColID])
		}
		seen[r[lead.ColID]] = true
	}
}

func TestRows_ClassifyAsDistributed(t *testing.T) {
	rows, d, err := generate.Rows(generate.Options{Size: 60, Seed: 7})
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}

	res, err := pipeline.Run(context.Background(), rows, rules.New(), pipeline.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Valid) != d.Clean {
		t.Fatalf("valid=%d, want %d clean", len(res.Valid), d.Clean)
	}
	if got := len(res.Repaired) + len(res.LowConfidence); got != d.Fixable {
		t.Fatalf("repaired=%d, want %d fixable; failed=%+v", got, d.Fixable, res.Failed)
	}
	if len(res.Failed) != d.Unfixable {
		t.Fatalf("failed=%d, want %d unfixable", len(res.Failed), d.Unfixable)
	}
}

func TestWriteFile_RoundTripsThroughCSVReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "leads.csv")
	d, err := generate.WriteFile(path, generate.Options{Size: 20, Seed: 1})
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	header, rows, err := local.ReadRecordsCSV(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("ReadRecordsCSV: %v", err)
	}
	if diff := cmp.Diff(generate.Header(), header); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
	if len(rows) != d.Clean+d.Fixable+d.Unfixable {
		t.Fatalf("rows=%d, want %d", len(rows), d.Clean+d.Fixable+d.Unfixable)
	}
}
