// Package lead defines the sales lead record, its validation rules and the
// coercion of raw CSV rows into typed candidate fields.
package lead

import (
	"fmt"
	"strings"
)

// Industry is the closed set of industries a lead can be classified into.
type Industry string

const (
	IndustryTech       Industry = "Tech"
	IndustryFinance    Industry = "Finance"
	IndustryRetail     Industry = "Retail"
	IndustryHealthcare Industry = "Healthcare"
	IndustryOther      Industry = "Other"
)

// Industries lists every Industry value in declaration order.
func Industries() []Industry {
	return []Industry{IndustryTech, IndustryFinance, IndustryRetail, IndustryHealthcare, IndustryOther}
}

// ParseIndustry matches s exactly (after trimming) against the enum values.
func ParseIndustry(s string) (Industry, error) {
	switch v := Industry(strings.TrimSpace(s)); v {
	case IndustryTech, IndustryFinance, IndustryRetail, IndustryHealthcare, IndustryOther:
		return v, nil
	default:
		return "", fmt.Errorf("input should be 'Tech', 'Finance', 'Retail', 'Healthcare' or 'Other', got %q", s)
	}
}

// Segment is the closed set of customer segments.
type Segment string

const (
	SegmentEnterprise Segment = "Enterprise"
	SegmentMidMarket  Segment = "Mid-Market"
	SegmentSMB        Segment = "SMB"
)

// Segments lists every Segment value in declaration order.
func Segments() []Segment {
	return []Segment{SegmentEnterprise, SegmentMidMarket, SegmentSMB}
}

// ParseSegment matches s exactly (after trimming) against the enum values.
func ParseSegment(s string) (Segment, error) {
	switch v := Segment(strings.TrimSpace(s)); v {
	case SegmentEnterprise, SegmentMidMarket, SegmentSMB:
		return v, nil
	default:
		return "", fmt.Errorf("input should be 'Enterprise', 'Mid-Market' or 'SMB', got %q", s)
	}
}

// DefaultConfidence applies when a row carries no confidence_score.
const DefaultConfidence = 1.0

// Lead is a schema-valid sales lead. Values are only produced by Validate and
// are never modified afterwards; a repair builds a new Lead.
type Lead struct {
	ID              int       `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	CountryCode     *string   `json:"country_code"`
	Industry        *Industry `json:"industry"`
	Segment         *Segment  `json:"segment"`
	ContractValue   *float64  `json:"contract_value"`
	SalesNotes      *string   `json:"sales_notes"`
	ConfidenceScore float64   `json:"confidence_score"`
}

// Fields returns the candidate mapping that re-validates to l.
func (l Lead) Fields() Fields {
	f := Fields{
		ID:              l.ID,
		Name:            l.Name,
		Email:           l.Email,
		CountryCode:     cloneString(l.CountryCode),
		SalesNotes:      cloneString(l.SalesNotes),
		ContractValue:   cloneFloat(l.ContractValue),
		ConfidenceScore: cloneFloat(&l.ConfidenceScore),
	}
	if l.Industry != nil {
		s := string(*l.Industry)
		f.Industry = &s
	}
	if l.Segment != nil {
		s := string(*l.Segment)
		f.Segment = &s
	}
	return f
}

// Fields is a typed but unvalidated candidate record. A nil optional field
// means the value was absent, which is distinct from a present empty string.
type Fields struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`

	CountryCode     *string  `json:"country_code,omitempty"`
	Industry        *string  `json:"industry,omitempty"`
	Segment         *string  `json:"segment,omitempty"`
	ContractValue   *float64 `json:"contract_value,omitempty"`
	SalesNotes      *string  `json:"sales_notes,omitempty"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
}

// Clone returns a deep copy of f.
func (f Fields) Clone() Fields {
	out := f
	out.CountryCode = cloneString(f.CountryCode)
	out.Industry = cloneString(f.Industry)
	out.Segment = cloneString(f.Segment)
	out.ContractValue = cloneFloat(f.ContractValue)
	out.SalesNotes = cloneString(f.SalesNotes)
	out.ConfidenceScore = cloneFloat(f.ConfidenceScore)
	return out
}

// Notes returns the trimmed sales notes, or "" when absent.
func (f Fields) Notes() string {
	if f.SalesNotes == nil {
		return ""
	}
	return strings.TrimSpace(*f.SalesNotes)
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// String returns a pointer to s. Handy for building Fields literals.
func String(s string) *string { return &s }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
