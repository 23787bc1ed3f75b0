// Package numeric turns loosely formatted provider values into finite numbers.
package numeric

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	unitPrefix = regexp.MustCompile(`^(?i)(?:[$₩]|KRW|USD)\s*`)
	unitSuffix = regexp.MustCompile(`(?i)\s*(?:원|%|배|주|[$₩]|KRW|USD)$`)
	separators = strings.NewReplacer(",", "", " ", "", "\u00a0", "", "\t", "", "_", "")
)

var placeholders = map[string]bool{
	"":     true,
	"-":    true,
	"--":   true,
	"n/a":  true,
	"na":   true,
	"nan":  true,
	"none": true,
	"null": true,
}

// Parse normalizes v into a finite float64. The boolean is false whenever the
// value is missing, malformed, or not finite; callers must treat that as
// "not resolved" and never substitute zero.
func Parse(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case json.Number:
		return ParseString(x.String())
	case decimal.Decimal:
		return finite(x.InexactFloat64())
	case string:
		return ParseString(x)
	default:
		return 0, false
	}
}

// ParseString strips separators and unit markers from s and parses the rest
// as a decimal number.
func ParseString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if placeholders[strings.ToLower(s)] {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = unitPrefix.ReplaceAllString(s, "")
	s = unitSuffix.ReplaceAllString(s, "")
	s = separators.Replace(s)
	if placeholders[strings.ToLower(s)] {
		return 0, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	if negative {
		d = d.Neg()
	}
	return finite(d.InexactFloat64())
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
