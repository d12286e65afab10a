package consumer

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/palantir/lead-repair-pipeline/pkg/pipeline/core"
	"github.com/palantir/lead-repair-pipeline/pkg/pipeline/io/local"
	"github.com/palantir/lead-repair-pipeline/pkg/pipeline/pacing"
	"github.com/palantir/lead-repair-pipeline/pkg/pipeline/redact"
	"github.com/palantir/lead-repair-pipeline/pkg/pipeline/schema"
	"github.com/palantir/lead-repair-pipeline/pkg/pipeline/worker"
)

type memorySink struct {
	got []string
}

func (m *memorySink) Store(_ context.Context, out []string) error {
	m.got = out
	return nil
}

func TestPublicPackagesCompose(t *testing.T) {
	t.Parallel()

	header, rows, err := local.ReadRecordsCSV(bytes.NewBufferString("id,name,email\n1,Ann Lee,ann@example.com\n2,Bob Stone,bob@example.com\n"))
	if err != nil {
		t.Fatalf("ReadRecordsCSV failed: %v", err)
	}
	v := schema.DetectVariant(header)
	if missing := schema.LeadContract(v).Missing(header); len(missing) != 0 {
		t.Fatalf("unexpected missing columns: %v", missing)
	}

	gate := pacing.Interval(time.Millisecond)
	out, err := worker.ProcessAll(context.Background(), rows, func(ctx context.Context, row map[string]string) (string, error) {
		if err := gate.Wait(ctx); err != nil {
			return "", err
		}
		return redact.Secrets(row["email"]), nil
	}, worker.Options{Workers: 2})
	if err != nil {
		t.Fatalf("ProcessAll failed: %v", err)
	}

	emails := make([]string, len(out))
	for _, r := range out {
		emails[r.Index] = r.Output
	}
	var sink core.OutputAdapter[[]string] = &memorySink{}
	if err := sink.Store(context.Background(), emails); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if got := sink.(*memorySink).got; len(got) != 2 || got[1] != "bob@example.com" {
		t.Fatalf("unexpected output: %#v", got)
	}
}
