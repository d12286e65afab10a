// Package report summarizes a pipeline run for the terminal.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/palantir/lead-repair-pipeline/internal/lead"
	"github.com/palantir/lead-repair-pipeline/internal/pipeline"
)

// MaxExamples caps the extraction examples shown in a report.
const MaxExamples = 5

const noteWidth = 60

// Verdicts by success rate.
const (
	VerdictExcellent        = "EXCELLENT"
	VerdictGood             = "GOOD"
	VerdictNeedsImprovement = "NEEDS IMPROVEMENT"
)

// Summary is everything the run report prints.
type Summary struct {
	RunID         string
	Source        string
	Repairer      string
	MinConfidence float64

	Valid         int
	Repaired      int
	LowConfidence int
	Failed        int

	Examples []Example
	Files    []string
}

// Example is one repaired row whose fields were extracted from its notes.
type Example struct {
	ID         string
	Note       string
	Country    string
	Industry   string
	Value      string
	Confidence string
}

// Summarize counts the buckets of res and picks extraction examples.
func Summarize(res *pipeline.Results) Summary {
	return Summary{
		Valid:         len(res.Valid),
		Repaired:      len(res.Repaired),
		LowConfidence: len(res.LowConfidence),
		Failed:        len(res.Failed),
		Examples:      extractionExamples(res.Repaired, MaxExamples),
	}
}

func (s Summary) Total() int {
	return s.Valid + s.Repaired + s.LowConfidence + s.Failed
}

// SuccessRate is the percentage of rows that ended Valid or Repaired.
// Low-confidence repairs do not count as successes.
func (s Summary) SuccessRate() float64 {
	if s.Total() == 0 {
		return 0
	}
	return float64(s.Valid+s.Repaired) / float64(s.Total()) * 100
}

func Verdict(rate float64) string {
	switch {
	case rate >= 90:
		return VerdictExcellent
	case rate >= 75:
		return VerdictGood
	default:
		return VerdictNeedsImprovement
	}
}

func extractionExamples(entries []pipeline.RepairedEntry, limit int) []Example {
	var out []Example
	for _, e := range entries {
		if len(out) >= limit {
			break
		}
		note := strings.TrimSpace(e.Original[lead.ColSalesNotes])
		if note == "" {
			continue
		}
		r := e.Repaired
		if r.CountryCode == nil && r.Industry == nil && r.ContractValue == nil {
			continue
		}
		ex := Example{
			ID:         e.Original[lead.ColID],
			Note:       note,
			Country:    "N/A",
			Industry:   "N/A",
			Value:      "N/A",
			Confidence: fmt.Sprintf("%.1f%%", r.ConfidenceScore*100),
		}
		if r.CountryCode != nil {
			ex.Country = *r.CountryCode
		}
		if r.Industry != nil {
			ex.Industry = string(*r.Industry)
		}
		if r.ContractValue != nil {
			ex.Value = "$" + humanize.Comma(int64(math.Round(*r.ContractValue)))
		}
		out = append(out, ex)
	}
	return out
}

// Write renders the report as plain text.
func Write(w io.Writer, s Summary) error {
	var b strings.Builder
	total := s.Total()

	if s.Source != "" {
		fmt.Fprintf(&b, "Dataset:   %s\n", s.Source)
	}
	if s.Repairer != "" {
		fmt.Fprintf(&b, "Repairer:  %s\n", s.Repairer)
	}
	if s.RunID != "" {
		fmt.Fprintf(&b, "Run:       %s\n", s.RunID)
	}
	if s.MinConfidence > 0 {
		fmt.Fprintf(&b, "Min confidence: %.0f%%\n", s.MinConfidence*100)
	}
	b.WriteString("\nPIPELINE RESULTS\n")

	rows := [][]string{
		{"Category", "Count", "Percentage", "Status"},
		{"✓ Valid", humanize.Comma(int64(s.Valid)), percent(s.Valid, total), "Passed strict validation"},
		{"⚙ Repaired", humanize.Comma(int64(s.Repaired)), percent(s.Repaired, total), "Fixed by repair agent"},
	}
	if s.LowConfidence > 0 {
		rows = append(rows, []string{
			"⚠ Low Confidence", humanize.Comma(int64(s.LowConfidence)), percent(s.LowConfidence, total),
			fmt.Sprintf("Below %.0f%% threshold", s.MinConfidence*100),
		})
	}
	rows = append(rows,
		[]string{"✗ Failed", humanize.Comma(int64(s.Failed)), percent(s.Failed, total), "Unrepairable records"},
		[]string{"TOTAL PROCESSED", humanize.Comma(int64(total)), "100.0%", ""},
	)
	writeTable(&b, rows, []bool{false, true, true, false})

	rate := s.SuccessRate()
	fmt.Fprintf(&b, "\nSUCCESS RATE: %.1f%% - %s\n", rate, Verdict(rate))
	fmt.Fprintf(&b, "Data Quality: %d/%d records compliant with schema\n", s.Valid+s.Repaired, total)

	if len(s.Examples) > 0 {
		b.WriteString("\nSEMANTIC EXTRACTION EXAMPLES\n")
		ex := [][]string{{"ID", "Input Note", "Country", "Industry", "Value (USD)", "Confidence"}}
		for _, e := range s.Examples {
			ex = append(ex, []string{e.ID, runewidth.Truncate(e.Note, noteWidth, "..."), e.Country, e.Industry, e.Value, e.Confidence})
		}
		writeTable(&b, ex, []bool{true, false, false, false, true, true})
	}

	if len(s.Files) > 0 {
		b.WriteString("\nOutput Files:\n")
		for _, f := range s.Files {
			fmt.Fprintf(&b, "  -> %s\n", f)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func percent(n, total int) string {
	if total == 0 {
		return "0%"
	}
	return strconv.FormatFloat(float64(n)/float64(total)*100, 'f', 1, 64) + "%"
}

// writeTable pads cells by display width so symbols and wide runes line up.
// The first row is the header.
func writeTable(b *strings.Builder, rows [][]string, rightAlign []bool) {
	if len(rows) == 0 {
		return
	}
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if w := runewidth.StringWidth(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	line := func(row []string) {
		b.WriteString("|")
		for i, w := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			pad := strings.Repeat(" ", w-runewidth.StringWidth(cell))
			b.WriteString(" ")
			if i < len(rightAlign) && rightAlign[i] {
				b.WriteString(pad + cell)
			} else {
				b.WriteString(cell + pad)
			}
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}

	line(rows[0])
	b.WriteString("|")
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteString("|")
	}
	b.WriteString("\n")
	for _, row := range rows[1:] {
		line(row)
	}
}
