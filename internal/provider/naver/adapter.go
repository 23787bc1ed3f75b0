package naver

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/factsync/internal/market"
	"github.com/sells-group/factsync/internal/model"
	"github.com/sells-group/factsync/internal/numeric"
	"github.com/sells-group/factsync/internal/provider"
)

// Name is the adapter identifier.
const Name = "naver"

// exact label variants per field, matched against code or key.
var exactVariants = map[model.Field][]string{
	model.FieldHigh52: {"highpriceof52weeks", "52주 최고", "52주최고"},
	model.FieldLow52:  {"lowpriceof52weeks", "52주 최저", "52주최저"},
}

// substring markers for per-share fields; estimate rows are excluded.
var (
	substringVariants = map[model.Field]string{
		model.FieldEPS: "eps",
		model.FieldBPS: "bps",
	}
	estimateMarkers = []string{"cns", "추정", "컨센서스", "estimate"}
)

// Adapter implements provider.Adapter over the Naver JSON API.
type Adapter struct {
	client Client
}

// NewAdapter wraps a Naver client.
func NewAdapter(c Client) *Adapter {
	return &Adapter{client: c}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) Supports(m model.Market) bool { return m.IsHome() }

func (a *Adapter) CanProvide(f model.Field) bool {
	switch f {
	case model.FieldPrice, model.FieldHigh52, model.FieldLow52,
		model.FieldEPS, model.FieldBPS, model.FieldName:
		return true
	}
	return false
}

// Fetch reads /basic for price, name and listing exchange, then /integration
// when any summary field is requested.
func (a *Adapter) Fetch(ctx context.Context, c market.Candidate, fields []model.Field) provider.Result {
	code := c.Code()
	facts := model.NewFacts()

	basic, err := a.client.Basic(ctx, code)
	if err != nil {
		return provider.Failed(Name, err)
	}
	if listed := exchangeMarket(basic); listed != model.MarketUnknown && listed != c.Market {
		return provider.Failed(Name, eris.Wrapf(provider.ErrWrongMarket, "%s is %s, not %s", code, listed, c.Market))
	}

	want := make(map[model.Field]bool, len(fields))
	for _, f := range fields {
		want[f] = true
	}
	if want[model.FieldPrice] {
		if v, ok := numeric.ParseString(basic.ClosePrice); ok {
			facts.SetNumber(model.FieldPrice, v)
		}
	}
	if want[model.FieldName] {
		facts.SetText(model.FieldName, basic.StockName)
	}

	if want[model.FieldHigh52] || want[model.FieldLow52] || want[model.FieldEPS] || want[model.FieldBPS] {
		integ, err := a.client.Integration(ctx, code)
		if err != nil {
			res := provider.Failed(Name, err)
			res.Facts = facts
			return res
		}
		for _, f := range []model.Field{model.FieldHigh52, model.FieldLow52, model.FieldEPS, model.FieldBPS} {
			if !want[f] {
				continue
			}
			if raw, ok := lookup(integ.TotalInfos, f); ok {
				if v, ok := numeric.ParseString(raw); ok {
					facts.SetNumber(f, v)
				}
			}
		}
		if want[model.FieldName] {
			facts.SetText(model.FieldName, integ.StockName)
		}
	}

	return provider.Result{Provider: Name, Facts: facts, Status: Name + ": ok"}
}

// lookup finds the raw value for a field among the label/value pairs.
func lookup(items []InfoItem, f model.Field) (string, bool) {
	if variants, ok := exactVariants[f]; ok {
		for _, item := range items {
			for _, v := range variants {
				if strings.EqualFold(item.Code, v) || strings.EqualFold(strings.TrimSpace(item.Key), v) {
					return item.Value, true
				}
			}
		}
		return "", false
	}

	marker, ok := substringVariants[f]
	if !ok {
		return "", false
	}
	// An exact key wins over a substring hit.
	for _, item := range items {
		if strings.EqualFold(item.Code, marker) || strings.EqualFold(strings.TrimSpace(item.Key), marker) {
			return item.Value, true
		}
	}
	for _, item := range items {
		label := strings.ToLower(item.Code + " " + item.Key)
		if strings.Contains(label, marker) && !isEstimate(label) {
			return item.Value, true
		}
	}
	return "", false
}

func isEstimate(label string) bool {
	for _, m := range estimateMarkers {
		if strings.Contains(label, m) {
			return true
		}
	}
	return false
}

func exchangeMarket(b *Basic) model.Market {
	name := strings.ToUpper(b.StockExchangeType.NameEng + " " + b.StockExchangeType.Name + " " + b.StockExchangeName)
	switch {
	case strings.Contains(name, "KOSDAQ"):
		return model.MarketKOSDAQ
	case strings.Contains(name, "KOSPI"):
		return model.MarketKOSPI
	}
	switch strings.ToUpper(b.StockExchangeType.Code) {
	case "KQ":
		return model.MarketKOSDAQ
	case "KS":
		return model.MarketKOSPI
	}
	return model.MarketUnknown
}
