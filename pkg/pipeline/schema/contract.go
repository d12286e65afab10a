package schema

import (
	"strings"
)

// Variant identifies which column layout an input file uses.
type Variant string

const (
	// VariantSemantic carries free-text notes and an upstream confidence.
	VariantSemantic Variant = "semantic"
	// VariantLegacy is the strict-schema layout without industry,
	// sales_notes and confidence_score.
	VariantLegacy Variant = "legacy"
)

// Field captures the minimal behavior-relevant schema fields.
type Field struct {
	Name     string
	Type     string
	Nullable bool
}

// DatasetContract is the logical column contract of an input file.
type DatasetContract struct {
	Variant Variant
	Fields  []Field
}

var legacyFields = []Field{
	{Name: "id", Type: "integer"},
	{Name: "name", Type: "string"},
	{Name: "email", Type: "string"},
	{Name: "country_code", Type: "string", Nullable: true},
	{Name: "segment", Type: "string", Nullable: true},
	{Name: "contract_value", Type: "double", Nullable: true},
}

var semanticOnly = []Field{
	{Name: "industry", Type: "string", Nullable: true},
	{Name: "sales_notes", Type: "string", Nullable: true},
	{Name: "confidence_score", Type: "double", Nullable: true},
}

// LeadContract returns the column contract for a variant.
func LeadContract(v Variant) DatasetContract {
	fields := append([]Field(nil), legacyFields...)
	if v == VariantSemantic {
		fields = append(fields, semanticOnly...)
	}
	return DatasetContract{Variant: v, Fields: fields}
}

// Columns returns every column name in contract order.
func (c DatasetContract) Columns() []string {
	out := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		out[i] = f.Name
	}
	return out
}

// Required returns the non-nullable column names.
func (c DatasetContract) Required() []string {
	var out []string
	for _, f := range c.Fields {
		if !f.Nullable {
			out = append(out, f.Name)
		}
	}
	return out
}

// Missing returns the required columns absent from header. Header matching
// is case-insensitive and ignores surrounding whitespace.
func (c DatasetContract) Missing(header []string) []string {
	have := make(map[string]struct{}, len(header))
	for _, h := range header {
		have[NormalizeColumn(h)] = struct{}{}
	}
	var missing []string
	for _, name := range c.Required() {
		if _, ok := have[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// DetectVariant picks the semantic layout when any semantic-only column is
// present, and the legacy layout otherwise.
func DetectVariant(header []string) Variant {
	for _, h := range header {
		col := NormalizeColumn(h)
		for _, f := range semanticOnly {
			if col == f.Name {
				return VariantSemantic
			}
		}
	}
	return VariantLegacy
}

// NormalizeColumn canonicalizes a header cell.
func NormalizeColumn(raw string) string {
	return strings.TrimSpace(strings.ToLower(strings.TrimPrefix(raw, "\ufeff")))
}
