package numeric

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseString_Valid(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"5,432", 5432},
		{"41,000원", 41000},
		{" 71,200 ", 71200},
		{"-1,234", -1234},
		{"(1,234)", -1234},
		{"12.5%", 12.5},
		{"8.31배", 8.31},
		{"$189.98", 189.98},
		{"₩ 1,000", 1000},
		{"1,000 KRW", 1000},
		{"3.2e2", 320},
		{"0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseString(tt.in)
			assert.True(t, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseString_Malformed(t *testing.T) {
	for _, in := range []string{"", " ", "-", "--", "N/A", "n/a", "NaN", "Infinity", "-Inf", "abc", "12a", "1.2.3", "원", "None", "null", "1e400"} {
		t.Run(in, func(t *testing.T) {
			got, ok := ParseString(in)
			assert.False(t, ok)
			assert.Zero(t, got)
		})
	}
}

func TestParse_Types(t *testing.T) {
	v, ok := Parse(12.5)
	assert.True(t, ok)
	assert.InDelta(t, 12.5, v, 1e-9)

	v, ok = Parse(float32(2))
	assert.True(t, ok)
	assert.InDelta(t, 2, v, 1e-9)

	v, ok = Parse(7)
	assert.True(t, ok)
	assert.InDelta(t, 7, v, 1e-9)

	v, ok = Parse(json.Number("1,500"))
	assert.True(t, ok)
	assert.InDelta(t, 1500, v, 1e-9)

	v, ok = Parse(decimal.RequireFromString("99.5"))
	assert.True(t, ok)
	assert.InDelta(t, 99.5, v, 1e-9)
}

func TestParse_Rejects(t *testing.T) {
	for _, in := range []any{nil, math.NaN(), math.Inf(1), math.Inf(-1), true, []string{"1"}} {
		_, ok := Parse(in)
		assert.False(t, ok, "%v", in)
	}
}
