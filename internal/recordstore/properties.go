package recordstore

import "github.com/sells-group/factsync/internal/model"

// Properties names the database columns. An empty name disables reading or
// writing that column.
type Properties struct {
	Ticker       string `mapstructure:"ticker"`
	MarketHint   string `mapstructure:"market_hint"`
	StoredName   string `mapstructure:"stored_name"`
	CompanyName  string `mapstructure:"company_name"`
	Price        string `mapstructure:"price"`
	High52       string `mapstructure:"high52"`
	Low52        string `mapstructure:"low52"`
	EPS          string `mapstructure:"eps"`
	BPS          string `mapstructure:"bps"`
	Sector       string `mapstructure:"sector"`
	Industry     string `mapstructure:"industry"`
	Summary      string `mapstructure:"summary"`
	Verification string `mapstructure:"verification"`
	AuditLog     string `mapstructure:"audit_log"`
	LastUpdated  string `mapstructure:"last_updated"`
}

// DefaultProperties matches the column names of the reference database.
func DefaultProperties() Properties {
	return Properties{
		Ticker:       "Ticker",
		MarketHint:   "Market",
		StoredName:   "Name",
		CompanyName:  "Company Name",
		Price:        "Price",
		High52:       "52W High",
		Low52:        "52W Low",
		EPS:          "EPS",
		BPS:          "BPS",
		Sector:       "Sector",
		Industry:     "Industry",
		Summary:      "Summary",
		Verification: "Verification",
		AuditLog:     "Audit Log",
		LastUpdated:  "Last Updated",
	}
}

// column returns the property name a fact field is written to.
func (p Properties) column(f model.Field) string {
	switch f {
	case model.FieldPrice:
		return p.Price
	case model.FieldHigh52:
		return p.High52
	case model.FieldLow52:
		return p.Low52
	case model.FieldEPS:
		return p.EPS
	case model.FieldBPS:
		return p.BPS
	case model.FieldSector:
		return p.Sector
	case model.FieldIndustry:
		return p.Industry
	case model.FieldName:
		return p.CompanyName
	case model.FieldSummary:
		return p.Summary
	default:
		return ""
	}
}
