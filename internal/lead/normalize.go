package lead

import (
	"fmt"
	"strconv"
	"strings"
)

// Input column names.
const (
	ColID              = "id"
	ColName            = "name"
	ColEmail           = "email"
	ColCountryCode     = "country_code"
	ColIndustry        = "industry"
	ColSegment         = "segment"
	ColContractValue   = "contract_value"
	ColSalesNotes      = "sales_notes"
	ColConfidenceScore = "confidence_score"
)

// RawRow is one input row keyed by column name, exactly as read.
type RawRow map[string]string

// PreprocessError reports a raw value that could not be coerced to its type.
// Rows failing here are never sent to repair.
type PreprocessError struct {
	Column string
	Value  string
	Err    error
}

func (e *PreprocessError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Column, e.Value, e.Err)
}

func (e *PreprocessError) Unwrap() error { return e.Err }

// PrepareRow coerces a raw row into candidate fields. Required fields are
// always set; optional fields are set only when present and non-blank.
func PrepareRow(row RawRow) (Fields, error) {
	rawID := row[ColID]
	id, err := strconv.Atoi(strings.TrimSpace(rawID))
	if err != nil {
		return Fields{}, &PreprocessError{Column: ColID, Value: rawID, Err: err}
	}

	f := Fields{
		ID:    id,
		Name:  row[ColName],
		Email: row[ColEmail],
	}

	f.CountryCode = optional(row, ColCountryCode)
	f.Industry = optional(row, ColIndustry)
	f.Segment = optional(row, ColSegment)
	f.SalesNotes = optional(row, ColSalesNotes)

	if raw := optional(row, ColContractValue); raw != nil {
		v, err := ParseMoney(*raw)
		if err != nil {
			return Fields{}, &PreprocessError{Column: ColContractValue, Value: *raw, Err: err}
		}
		f.ContractValue = &v
	}

	if raw := optional(row, ColConfidenceScore); raw != nil {
		v, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64)
		if err != nil {
			return Fields{}, &PreprocessError{Column: ColConfidenceScore, Value: *raw, Err: err}
		}
		f.ConfidenceScore = &v
	}

	return f, nil
}

// ParseMoney strips "$" and thousands separators before parsing, so "$45,000"
// yields 45000. Negative values parse; the schema rejects them later.
func ParseMoney(s string) (float64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(s)
	return strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
}

func optional(row RawRow, col string) *string {
	v, ok := row[col]
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}
