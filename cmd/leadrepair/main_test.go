package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/palantir/lead-repair-pipeline/internal/sink"
	"github.com/palantir/lead-repair-pipeline/internal/version"
)

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestGenerateThenClean(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "leads.csv")
	outDir := filepath.Join(dir, "outputs")

	code, stdout, stderr := execute(t, "generate", "-o", input, "-s", "20", "--seed", "7")
	if code != exitOK {
		t.Fatalf("generate exit=%d stderr=%s", code, stderr)
	}
	if !strings.Contains(stdout, "Generated 20 leads") {
		t.Fatalf("unexpected generate output: %q", stdout)
	}

	code, stdout, stderr = execute(t, "clean", input,
		"-o", outDir,
		"-c", "0.8",
		"--repairer", "rules",
		"--repair-delay", "0",
		"--workers", "4",
	)
	if code != exitOK {
		t.Fatalf("clean exit=%d stderr=%s", code, stderr)
	}
	if !strings.Contains(stdout, "SUCCESS RATE") {
		t.Fatalf("report missing from stdout:\n%s", stdout)
	}
	for _, name := range []string{sink.ValidFile, sink.RepairedFile, sink.FailedFile} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestExitCodes(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "clean without input", args: []string{"clean"}, want: exitUsage},
		{name: "unknown command", args: []string{"bogus"}, want: exitUsage},
		{name: "unknown flag", args: []string{"clean", "x.csv", "--nope"}, want: exitUsage},
		{name: "threshold out of range", args: []string{"clean", "x.csv", "--repairer", "rules", "-c", "1.5"}, want: exitUsage},
		{name: "unknown repairer", args: []string{"clean", "x.csv", "--repairer", "oracle"}, want: exitUsage},
		{name: "generate size too small", args: []string{"generate", "-o", filepath.Join(dir, "a.csv"), "-s", "5"}, want: exitUsage},
		{name: "generate size too large", args: []string{"generate", "-o", filepath.Join(dir, "b.csv"), "-s", "10001"}, want: exitUsage},
		{name: "missing config file", args: []string{"generate", "--config", filepath.Join(dir, "nope.yaml")}, want: exitUsage},
		{name: "missing input file", args: []string{"clean", filepath.Join(dir, "nope.csv"), "--repairer", "rules", "-o", dir}, want: exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := execute(t, tt.args...)
			if code != tt.want {
				t.Fatalf("exit=%d, want %d; stderr=%s", code, tt.want, stderr)
			}
			if !strings.HasPrefix(stderr, "error: ") {
				t.Fatalf("expected an error line on stderr, got %q", stderr)
			}
		})
	}
}

func TestVersionFlag(t *testing.T) {
	code, stdout, _ := execute(t, "--version")
	if code != exitOK {
		t.Fatalf("exit=%d", code)
	}
	if strings.TrimSpace(stdout) != version.String() {
		t.Fatalf("version output=%q, want %q", stdout, version.String())
	}
}

func TestConfigFileIsOverriddenByFlags(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "leads.csv")
	if err := os.WriteFile(input, []byte("id,name,email\n1,Ann Lee,ann@example.com\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	cfgPath := filepath.Join(dir, "leadrepair.yaml")
	cfgYAML := "output_dir: " + filepath.Join(dir, "from-config") + "\nrepairer: rules\nrepair_delay: 0s\n"
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	flagDir := filepath.Join(dir, "from-flag")
	code, _, stderr := execute(t, "clean", input, "--config", cfgPath, "-o", flagDir)
	if code != exitOK {
		t.Fatalf("exit=%d stderr=%s", code, stderr)
	}
	if _, err := os.Stat(filepath.Join(flagDir, sink.ValidFile)); err != nil {
		t.Fatalf("expected output in flag dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "from-config")); !os.IsNotExist(err) {
		t.Fatalf("config output_dir should have been overridden, stat err=%v", err)
	}
}
