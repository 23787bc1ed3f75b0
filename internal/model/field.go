package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Field identifies a single fact that can be resolved for a security.
type Field string

// Resolvable fact fields.
const (
	FieldPrice    Field = "price"
	FieldHigh52   Field = "high52"
	FieldLow52    Field = "low52"
	FieldEPS      Field = "eps"
	FieldBPS      Field = "bps"
	FieldSector   Field = "sector"
	FieldIndustry Field = "industry"
	FieldName     Field = "name"
	FieldSummary  Field = "summary"
)

// AllFields lists every field in canonical order.
var AllFields = []Field{
	FieldPrice, FieldHigh52, FieldLow52,
	FieldEPS, FieldBPS,
	FieldName, FieldSector, FieldIndustry, FieldSummary,
}

// IsNumeric reports whether the field carries a number rather than text.
func (f Field) IsNumeric() bool {
	switch f {
	case FieldPrice, FieldHigh52, FieldLow52, FieldEPS, FieldBPS:
		return true
	}
	return false
}

// Valid reports whether f is a known field.
func (f Field) Valid() bool {
	for _, known := range AllFields {
		if f == known {
			return true
		}
	}
	return false
}

// ParseFields parses a comma-separated field list such as "price,eps".
// Blank entries are ignored; duplicates are collapsed.
func ParseFields(s string) ([]Field, error) {
	var out []Field
	seen := make(map[Field]bool)
	for _, part := range strings.Split(s, ",") {
		f := Field(strings.ToLower(strings.TrimSpace(part)))
		if f == "" {
			continue
		}
		if !f.Valid() {
			return nil, eris.Errorf("model: unknown field %q", part)
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out, nil
}

// FieldNames joins fields for log and status output.
func FieldNames(fields []Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
