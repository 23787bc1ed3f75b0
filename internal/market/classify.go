// Package market classifies raw tickers into markets and provider symbols.
package market

import (
	"strings"

	"github.com/sells-group/factsync/internal/model"
)

// Candidate is one provider symbol to try, in trial order.
type Candidate struct {
	Symbol string       `json:"symbol"`
	Market model.Market `json:"market"`
	// Label records how the candidate was derived ("Hint", "Auto",
	// "Auto-Retry"). It is audit text only.
	Label string `json:"label"`
}

// Code returns the symbol without any home-market suffix.
func (c Candidate) Code() string {
	return stripHomeSuffix(c.Symbol)
}

// HintText is the human-readable market hint written back to the record.
func (c Candidate) HintText() string {
	if c.Label == LabelHint {
		return c.Market.String()
	}
	return c.Market.String() + " (" + c.Label + ")"
}

// Candidate labels.
const (
	LabelHint      = "Hint"
	LabelAuto      = "Auto"
	LabelAutoRetry = "Auto-Retry"
)

// Hint markers, matched case-insensitively as substrings.
var (
	kospiMarkers   = []string{"KOSPI", "유가", "코스피"}
	kosdaqMarkers  = []string{"KOSDAQ", "코스닥"}
	foreignMarkers = []string{"NASDAQ", "NYSE", "AMEX", "미국", "해외", "FOREIGN", "US"}
)

// Classify returns the ordered provider symbols to try for a raw ticker and
// optional market hint. A blank ticker yields no candidates.
func Classify(ticker, hint string) []Candidate {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "" {
		return nil
	}
	code := stripHomeSuffix(t)

	switch hintMarket(hint) {
	case model.MarketKOSPI:
		return []Candidate{home(code, model.MarketKOSPI, LabelHint)}
	case model.MarketKOSDAQ:
		return []Candidate{home(code, model.MarketKOSDAQ, LabelHint)}
	case model.MarketForeign:
		return []Candidate{{Symbol: code, Market: model.MarketForeign, Label: LabelHint}}
	}

	if IsHomeCode(code) {
		return []Candidate{
			home(code, model.MarketKOSPI, LabelAuto),
			home(code, model.MarketKOSDAQ, LabelAuto),
		}
	}

	// A ticker that already carries a home suffix keeps that sub-market first.
	switch {
	case strings.HasSuffix(t, ".KS"):
		return []Candidate{
			home(code, model.MarketKOSPI, LabelAuto),
			home(code, model.MarketKOSDAQ, LabelAutoRetry),
		}
	case strings.HasSuffix(t, ".KQ"):
		return []Candidate{
			home(code, model.MarketKOSDAQ, LabelAuto),
			home(code, model.MarketKOSPI, LabelAutoRetry),
		}
	}

	return []Candidate{
		{Symbol: code, Market: model.MarketForeign, Label: LabelAuto},
		home(code, model.MarketKOSPI, LabelAutoRetry),
		home(code, model.MarketKOSDAQ, LabelAutoRetry),
	}
}

// IsHomeCode reports whether code is a 6-digit all-numeric home ticker.
func IsHomeCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func home(code string, m model.Market, label string) Candidate {
	return Candidate{Symbol: code + m.Suffix(), Market: m, Label: label}
}

// hintMarket maps a free-text hint to a market. Home markers take precedence
// over foreign ones; unrecognised hints return MarketUnknown.
func hintMarket(hint string) model.Market {
	h := strings.ToUpper(strings.TrimSpace(hint))
	if h == "" {
		return model.MarketUnknown
	}
	if containsAny(h, kosdaqMarkers) || h == "KQ" {
		return model.MarketKOSDAQ
	}
	if containsAny(h, kospiMarkers) || h == "KS" {
		return model.MarketKOSPI
	}
	if containsAny(h, foreignMarkers) {
		return model.MarketForeign
	}
	return model.MarketUnknown
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func stripHomeSuffix(s string) string {
	for _, suf := range []string{".KS", ".KQ"} {
		if len(s) > len(suf) && strings.EqualFold(s[len(s)-len(suf):], suf) {
			return s[:len(s)-len(suf)]
		}
	}
	return s
}
