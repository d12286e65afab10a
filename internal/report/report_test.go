package report_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mattn/go-runewidth"

	"github.com/palantir/lead-repair-pipeline/internal/lead"
	"github.com/palantir/lead-repair-pipeline/internal/pipeline"
	"github.com/palantir/lead-repair-pipeline/internal/report"
)

func TestVerdict(t *testing.T) {
	tests := map[float64]string{
		100:  report.VerdictExcellent,
		90:   report.VerdictExcellent,
		89.9: report.VerdictGood,
		75:   report.VerdictGood,
		74.9: report.VerdictNeedsImprovement,
		0:    report.VerdictNeedsImprovement,
	}
	for rate, want := range tests {
		if got := report.Verdict(rate); got != want {
			t.Fatalf("Verdict(%v)=%q, want %q", rate, got, want)
		}
	}
}

func TestSummary_SuccessRateExcludesLowConfidence(t *testing.T) {
	s := report.Summary{Valid: 6, Repaired: 2, LowConfidence: 1, Failed: 1}
	if s.Total() != 10 {
		t.Fatalf("total=%d, want 10", s.Total())
	}
	if got := s.SuccessRate(); got != 80 {
		t.Fatalf("success rate=%v, want 80", got)
	}
	if got := (report.Summary{}).SuccessRate(); got != 0 {
		t.Fatalf("empty success rate=%v, want 0", got)
	}
}

func repairedWithNotes(id, note string, country string, value float64) pipeline.RepairedEntry {
	ind := lead.IndustryTech
	return pipeline.RepairedEntry{
		Original: lead.RawRow{lead.ColID: id, lead.ColSalesNotes: note},
		Repaired: lead.Lead{
			CountryCode:     lead.String(country),
			Industry:        &ind,
			ContractValue:   lead.Float(value),
			ConfidenceScore: 0.85,
		},
	}
}

func TestSummarize_PicksAtMostFiveExtractionExamples(t *testing.T) {
	res := pipeline.NewResults()
	res.Repaired = append(res.Repaired,
		pipeline.RepairedEntry{Original: lead.RawRow{lead.ColID: "1"}}, // no notes
		pipeline.RepairedEntry{Original: lead.RawRow{lead.ColID: "2", lead.ColSalesNotes: "nothing useful"}},
	)
	for i := 0; i < 7; i++ {
		res.Repaired = append(res.Repaired, repairedWithNotes("1"+strings.Repeat("0", i), "Tokyo fintech app, $150k", "JP", 150000))
	}

	s := report.Summarize(res)
	if len(s.Examples) != report.MaxExamples {
		t.Fatalf("examples=%d, want %d", len(s.Examples), report.MaxExamples)
	}
	want := report.Example{
		ID:         "1",
		Note:       "Tokyo fintech app, $150k",
		Country:    "JP",
		Industry:   "Tech",
		Value:      "$150,000",
		Confidence: "85.0%",
	}
	if diff := cmp.Diff(want, s.Examples[0]); diff != "" {
		t.Fatalf("example mismatch (-want +got):\n%s", diff)
	}
}

func TestWrite_RendersCountsVerdictAndFiles(t *testing.T) {
	s := report.Summary{
		Source:        "examples/sample_leads.csv",
		MinConfidence: 0.7,
		Valid:         30,
		Repaired:      12,
		LowConfidence: 3,
		Failed:        5,
		Files:         []string{"outputs/valid.json", "outputs/failed.json"},
	}

	var b strings.Builder
	if err := report.Write(&b, s); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := b.String()

	for _, want := range []string{
		"Dataset:   examples/sample_leads.csv",
		"Min confidence: 70%",
		"Below 70% threshold",
		"SUCCESS RATE: 84.0% - GOOD",
		"Data Quality: 42/50 records compliant with schema",
		"-> outputs/failed.json",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}

	// Every table row has the same display width.
	var widths []int
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "|") {
			widths = append(widths, runewidth.StringWidth(line))
		}
	}
	for _, w := range widths[1:] {
		if w != widths[0] {
			t.Fatalf("misaligned table rows: %v\n%s", widths, out)
		}
	}
}

func TestWrite_OmitsLowConfidenceRowWhenEmpty(t *testing.T) {
	var b strings.Builder
	if err := report.Write(&b, report.Summary{Valid: 1}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if strings.Contains(b.String(), "Low Confidence") {
		t.Fatalf("unexpected low confidence row:\n%s", b.String())
	}
}
