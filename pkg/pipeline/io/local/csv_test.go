package local_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/palantir/lead-repair-pipeline/pkg/pipeline/io/local"
)

func TestReadRecordsCSV(t *testing.T) {
	t.Run("keys rows by header", func(t *testing.T) {
		in := "id,name,email\n1,Alice Johnson,alice@example.com\n2,\"Smith, Bob\",bob@corp.test\n"
		header, rows, err := local.ReadRecordsCSV(strings.NewReader(in))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{"id", "name", "email"}, header); diff != "" {
			t.Fatalf("header mismatch (-want +got):\n%s", diff)
		}
		want := []map[string]string{
			{"id": "1", "name": "Alice Johnson", "email": "alice@example.com"},
			{"id": "2", "name": "Smith, Bob", "email": "bob@corp.test"},
		}
		if diff := cmp.Diff(want, rows); diff != "" {
			t.Fatalf("rows mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("header is case-insensitive", func(t *testing.T) {
		in := "\ufeffID, Email \n7,a@b.co\n"
		_, rows, err := local.ReadRecordsCSV(strings.NewReader(in))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rows) != 1 || rows[0]["id"] != "7" || rows[0]["email"] != "a@b.co" {
			t.Fatalf("unexpected rows: %#v", rows)
		}
	})

	t.Run("short rows pad with empty values", func(t *testing.T) {
		in := "id,name,contract_value\n3,Tom Brown\n"
		_, rows, err := local.ReadRecordsCSV(strings.NewReader(in))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		v, ok := rows[0]["contract_value"]
		if !ok || v != "" {
			t.Fatalf("expected empty contract_value, got %q (present=%v)", v, ok)
		}
	})

	t.Run("empty input errors", func(t *testing.T) {
		if _, _, err := local.ReadRecordsCSV(strings.NewReader("")); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestWriteRecordsCSV_RoundTrip(t *testing.T) {
	header := []string{"id", "name", "sales_notes"}
	rows := []map[string]string{
		{"id": "1", "name": "Ann Lee", "sales_notes": "Met in Paris, 5000 EUR"},
		{"id": "2", "name": "Bo Li"},
	}
	var buf bytes.Buffer
	if err := local.WriteRecordsCSV(&buf, header, rows); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, got, err := local.ReadRecordsCSV(&buf)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	rows[1]["sales_notes"] = ""
	if diff := cmp.Diff(rows, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}
