package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/palantir/lead-repair-pipeline/internal/app"
	"github.com/palantir/lead-repair-pipeline/internal/config"
	"github.com/palantir/lead-repair-pipeline/internal/generate"
	"github.com/palantir/lead-repair-pipeline/internal/sink"
	"github.com/palantir/lead-repair-pipeline/pkg/pipeline/schema"
)

func rulesConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Repairer = config.RepairerRules
	cfg.RepairDelay = 0
	cfg.MaxRetries = 0
	cfg.OutputDir = filepath.Join(t.TempDir(), "outputs")
	return cfg
}

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leads.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func TestRunClean_GeneratedDatasetWithRulesRepairer(t *testing.T) {
	input := filepath.Join(t.TempDir(), "sample_leads.csv")
	var genOut bytes.Buffer
	if err := app.RunGenerate(input, generate.Options{Size: 60, Seed: 42}, &genOut); err != nil {
		t.Fatalf("RunGenerate: %v", err)
	}
	if !strings.Contains(genOut.String(), "Generated 60 leads") {
		t.Fatalf("unexpected generate output: %q", genOut.String())
	}

	cfg := rulesConfig(t)
	cfg.SQLitePath = filepath.Join(t.TempDir(), "runs.db")

	var rep bytes.Buffer
	res, err := app.RunClean(context.Background(), app.CleanOptions{
		InputPath: input,
		Config:    cfg,
		Report:    &rep,
	})
	if err != nil {
		t.Fatalf("RunClean: %v", err)
	}

	d := generate.Split(60)
	if len(res.Valid) != d.Clean || len(res.Failed) != d.Unfixable {
		t.Fatalf("valid=%d failed=%d, want %d and %d", len(res.Valid), len(res.Failed), d.Clean, d.Unfixable)
	}
	if res.Total() != 60 {
		t.Fatalf("total=%d, want 60", res.Total())
	}

	for _, name := range []string{sink.ValidFile, sink.RepairedFile, sink.FailedFile} {
		b, err := os.ReadFile(filepath.Join(cfg.OutputDir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		var arr []json.RawMessage
		if err := json.Unmarshal(b, &arr); err != nil {
			t.Fatalf("%s is not a JSON array: %v", name, err)
		}
	}
	if _, err := os.Stat(cfg.SQLitePath); err != nil {
		t.Fatalf("expected sqlite database: %v", err)
	}

	out := rep.String()
	for _, want := range []string{"PIPELINE RESULTS", "TOTAL PROCESSED", "sample_leads.csv", "Repairer:  rules", cfg.SQLitePath} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}

func TestRunClean_MissingRequiredColumn(t *testing.T) {
	t.Parallel()

	input := writeInput(t, "id,name,country_code\n1,Ann Lee,US\n")
	_, err := app.RunClean(context.Background(), app.CleanOptions{InputPath: input, Config: rulesConfig(t)})
	if !errors.Is(err, app.ErrMissingColumns) {
		t.Fatalf("expected ErrMissingColumns, got %v", err)
	}
	if !strings.Contains(err.Error(), "email") {
		t.Fatalf("error should name the missing column: %v", err)
	}
}

func TestRunClean_MissingInputFile(t *testing.T) {
	t.Parallel()

	_, err := app.RunClean(context.Background(), app.CleanOptions{
		InputPath: filepath.Join(t.TempDir(), "nope.csv"),
		Config:    rulesConfig(t),
	})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestRunClean_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := rulesConfig(t)
	cfg.MinConfidence = 1.5
	input := writeInput(t, "id,name,email\n1,Ann Lee,ann@example.com\n")
	_, err := app.RunClean(context.Background(), app.CleanOptions{InputPath: input, Config: cfg})
	if !errors.Is(err, config.ErrMinConfidence) {
		t.Fatalf("expected ErrMinConfidence, got %v", err)
	}
}

func TestRunClean_LegacyLayoutAndThreshold(t *testing.T) {
	t.Parallel()

	input := writeInput(t, strings.Join([]string{
		"id,name,email,country_code,segment,contract_value",
		"1,Ann Lee,ann@example.com,US,SMB,12000",
		`2,bob stone,bob@example.com,US,smb,"$12,000"`,
		"3,Cara Diaz,cara@example.com,US,whale,250000",
		"",
	}, "\n"))

	cfg := rulesConfig(t)
	cfg.MinConfidence = 0.95
	res, err := app.RunClean(context.Background(), app.CleanOptions{InputPath: input, Config: cfg})
	if err != nil {
		t.Fatalf("RunClean: %v", err)
	}
	if len(res.Valid) != 1 || len(res.Repaired) != 1 || len(res.LowConfidence) != 1 {
		t.Fatalf("valid=%d repaired=%d low=%d failed=%+v",
			len(res.Valid), len(res.Repaired), len(res.LowConfidence), res.Failed)
	}
	if got := res.LowConfidence[0].Repaired.ID; got != 3 {
		t.Fatalf("low confidence id=%d, want 3", got)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, sink.LowConfidenceFile)); err != nil {
		t.Fatalf("expected %s: %v", sink.LowConfidenceFile, err)
	}
}

func TestRunGenerate_RejectsSize(t *testing.T) {
	t.Parallel()

	err := app.RunGenerate(filepath.Join(t.TempDir(), "x.csv"), generate.Options{Size: 5}, nil)
	if !errors.Is(err, generate.ErrSize) {
		t.Fatalf("expected ErrSize, got %v", err)
	}
}

func TestCSVInput_DetectsVariant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		content string
		want    schema.Variant
	}{
		{content: "id,name,email,country_code,segment,contract_value\n1,Ann Lee,ann@example.com,US,SMB,100\n", want: schema.VariantLegacy},
		{content: "\ufeffID, Name ,Email,Sales_Notes\n1,Ann Lee,ann@example.com,met in Paris\n", want: schema.VariantSemantic},
	}
	for _, tt := range tests {
		in := &app.CSVInput{Path: writeInput(t, tt.content)}
		rows, err := in.Load(context.Background())
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if in.Variant != tt.want {
			t.Fatalf("variant=%q, want %q", in.Variant, tt.want)
		}
		if len(rows) != 1 || rows[0]["email"] != "ann@example.com" {
			t.Fatalf("unexpected rows: %+v", rows)
		}
	}
}
