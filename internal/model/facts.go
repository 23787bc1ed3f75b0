package model

import (
	"encoding/json"
	"math"
	"strings"
)

// Facts is a partial set of resolved fields for one security in one cycle.
// Numeric values are always finite and text values are never blank; the
// setters silently drop anything else.
type Facts struct {
	numbers map[Field]float64
	texts   map[Field]string
}

// NewFacts returns an empty fact set.
func NewFacts() *Facts {
	return &Facts{
		numbers: make(map[Field]float64),
		texts:   make(map[Field]string),
	}
}

// SetNumber stores v for a numeric field. It reports false and stores
// nothing when the field is not numeric or v is not finite.
func (f *Facts) SetNumber(field Field, v float64) bool {
	if !field.IsNumeric() || math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	f.numbers[field] = v
	return true
}

// SetText stores s for a text field after trimming. Blank values are dropped.
func (f *Facts) SetText(field Field, s string) bool {
	s = strings.TrimSpace(s)
	if field.IsNumeric() || s == "" {
		return false
	}
	f.texts[field] = s
	return true
}

// Number returns the value of a numeric field.
func (f *Facts) Number(field Field) (float64, bool) {
	v, ok := f.numbers[field]
	return v, ok
}

// Text returns the value of a text field.
func (f *Facts) Text(field Field) (string, bool) {
	v, ok := f.texts[field]
	return v, ok
}

// Has reports whether the field is present.
func (f *Facts) Has(field Field) bool {
	if field.IsNumeric() {
		_, ok := f.numbers[field]
		return ok
	}
	_, ok := f.texts[field]
	return ok
}

// Len returns the number of present fields.
func (f *Facts) Len() int {
	return len(f.numbers) + len(f.texts)
}

// Missing returns the requested fields that are still absent, in request order.
func (f *Facts) Missing(requested []Field) []Field {
	var out []Field
	for _, field := range requested {
		if !f.Has(field) {
			out = append(out, field)
		}
	}
	return out
}

// Merge copies fields from other that are absent in f. Fields already
// present in f are never overwritten. It returns the fields that were added.
func (f *Facts) Merge(other *Facts) []Field {
	if other == nil {
		return nil
	}
	var added []Field
	for _, field := range AllFields {
		if f.Has(field) {
			continue
		}
		if v, ok := other.numbers[field]; ok {
			f.numbers[field] = v
			added = append(added, field)
		} else if s, ok := other.texts[field]; ok {
			f.texts[field] = s
			added = append(added, field)
		}
	}
	return added
}

// Only returns a copy restricted to the given fields.
func (f *Facts) Only(fields []Field) *Facts {
	out := NewFacts()
	for _, field := range fields {
		if v, ok := f.numbers[field]; ok {
			out.numbers[field] = v
		}
		if s, ok := f.texts[field]; ok {
			out.texts[field] = s
		}
	}
	return out
}

// Numbers returns a copy of the numeric fields.
func (f *Facts) Numbers() map[Field]float64 {
	out := make(map[Field]float64, len(f.numbers))
	for k, v := range f.numbers {
		out[k] = v
	}
	return out
}

// Texts returns a copy of the text fields.
func (f *Facts) Texts() map[Field]string {
	out := make(map[Field]string, len(f.texts))
	for k, v := range f.texts {
		out[k] = v
	}
	return out
}

// MarshalJSON renders the present fields as a flat object with sorted keys.
func (f *Facts) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, f.Len())
	for k, v := range f.numbers {
		m[string(k)] = v
	}
	for k, v := range f.texts {
		m[string(k)] = v
	}
	return json.Marshal(m)
}
