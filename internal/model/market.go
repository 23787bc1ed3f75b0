package model

// Market is the exchange family a ticker belongs to.
type Market int

const (
	MarketUnknown Market = iota
	// MarketKOSPI is the primary home market (provider suffix .KS).
	MarketKOSPI
	// MarketKOSDAQ is the secondary home market (provider suffix .KQ).
	MarketKOSDAQ
	// MarketForeign covers every non-home listing, queried without a suffix.
	MarketForeign
)

func (m Market) String() string {
	switch m {
	case MarketKOSPI:
		return "KOSPI"
	case MarketKOSDAQ:
		return "KOSDAQ"
	case MarketForeign:
		return "Foreign"
	default:
		return "Unknown"
	}
}

// IsHome reports whether m is one of the home sub-markets.
func (m Market) IsHome() bool {
	return m == MarketKOSPI || m == MarketKOSDAQ
}

// Suffix returns the provider symbol suffix for the market, or "".
func (m Market) Suffix() string {
	switch m {
	case MarketKOSPI:
		return ".KS"
	case MarketKOSDAQ:
		return ".KQ"
	default:
		return ""
	}
}

// MarshalText renders the market name in JSON output.
func (m Market) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
