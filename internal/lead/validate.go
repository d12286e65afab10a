package lead

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

var countryCodeRe = regexp.MustCompile(`^[A-Z]{2}$`)

// FieldError is one violated constraint.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every constraint a candidate violated.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Errors) == 0 {
		return "validation error"
	}
	noun := "validation errors"
	if len(e.Errors) == 1 {
		noun = "validation error"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s for SalesLead", len(e.Errors), noun)
	for _, fe := range e.Errors {
		b.WriteString("\n")
		b.WriteString(fe.Field)
		b.WriteString("\n  ")
		b.WriteString(fe.Message)
	}
	return b.String()
}

// Has reports whether field is among the violations.
func (e *ValidationError) Has(field string) bool {
	if e == nil {
		return false
	}
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Validate checks f against the lead schema and builds a Lead. All field
// constraints are checked and reported together. The sales-notes rule
// runs last and only when every field is individually valid.
//
// String values are trimmed before checks, and the trimmed form is stored.
func Validate(f Fields) (Lead, error) {
	var errs []FieldError
	add := func(field, format string, args ...any) {
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	out := Lead{
		ID:              f.ID,
		Name:            strings.TrimSpace(f.Name),
		Email:           strings.TrimSpace(f.Email),
		ConfidenceScore: DefaultConfidence,
	}

	if out.ID < 1 {
		add("id", "Input should be greater than or equal to 1, got %d", out.ID)
	}

	if len([]rune(out.Name)) < 2 {
		add("name", "String should have at least 2 characters")
	} else if !IsTitle(out.Name) {
		add("name", "Name must be in Title Case, got: %s", out.Name)
	}

	if err := checkEmail(out.Email); err != nil {
		add("email", "value is not a valid email address: %s", err)
	}

	if f.CountryCode != nil {
		cc := strings.TrimSpace(*f.CountryCode)
		if !countryCodeRe.MatchString(cc) {
			add("country_code", "String should match pattern '^[A-Z]{2}$', got %q", cc)
		} else {
			out.CountryCode = &cc
		}
	}

	if f.Industry != nil {
		ind, err := ParseIndustry(*f.Industry)
		if err != nil {
			add("industry", "%s", capitalize(err.Error()))
		} else {
			out.Industry = &ind
		}
	}

	if f.Segment != nil {
		seg, err := ParseSegment(*f.Segment)
		if err != nil {
			add("segment", "%s", capitalize(err.Error()))
		} else {
			out.Segment = &seg
		}
	}

	if f.ContractValue != nil {
		v := *f.ContractValue
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			add("contract_value", "Input should be a finite number")
		case v <= 0:
			add("contract_value", "Input should be greater than 0, got %g", v)
		default:
			out.ContractValue = &v
		}
	}

	if f.SalesNotes != nil {
		notes := strings.TrimSpace(*f.SalesNotes)
		out.SalesNotes = &notes
	}

	if f.ConfidenceScore != nil {
		c := *f.ConfidenceScore
		if math.IsNaN(c) || c < 0 || c > 1 {
			add("confidence_score", "Input should be between 0.0 and 1.0, got %g", c)
		} else {
			out.ConfidenceScore = c
		}
	}

	if len(errs) > 0 {
		return Lead{}, &ValidationError{Errors: errs}
	}

	if missing := missingExtraction(out); len(missing) > 0 {
		return Lead{}, &ValidationError{Errors: []FieldError{{
			Field: "sales_notes",
			Message: fmt.Sprintf(
				"Value error, sales_notes present but %s missing; extract them from the notes",
				strings.Join(missing, ", "),
			),
		}}}
	}
	return out, nil
}

// missingExtraction returns the structured fields that must accompany
// non-blank sales notes but are absent. Segment is deliberately not required.
func missingExtraction(l Lead) []string {
	if l.SalesNotes == nil || *l.SalesNotes == "" {
		return nil
	}
	var missing []string
	if l.CountryCode == nil || *l.CountryCode == "" {
		missing = append(missing, "country_code")
	}
	if l.Industry == nil || *l.Industry == "" {
		missing = append(missing, "industry")
	}
	if l.ContractValue == nil {
		missing = append(missing, "contract_value")
	}
	return missing
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
