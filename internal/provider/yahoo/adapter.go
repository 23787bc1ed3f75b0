// Package yahoo adapts the Yahoo Finance quote and quoteSummary endpoints.
// The quote endpoint is the fast path for price fields; quoteSummary carries
// fundamentals and the company profile.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/rotisserie/eris"

	"github.com/sells-group/factsync/internal/market"
	"github.com/sells-group/factsync/internal/model"
	"github.com/sells-group/factsync/internal/numeric"
	"github.com/sells-group/factsync/internal/provider"
)

// Name is the adapter identifier.
const Name = "yahoo"

const (
	defaultBaseURL = "https://query1.finance.yahoo.com"
	summaryModules = "price,summaryDetail,defaultKeyStatistics,assetProfile"
)

// quotePaths are read from the v7 quote result.
var quotePaths = map[model.Field][]string{
	model.FieldPrice:  {"$.regularMarketPrice"},
	model.FieldHigh52: {"$.fiftyTwoWeekHigh"},
	model.FieldLow52:  {"$.fiftyTwoWeekLow"},
	model.FieldName:   {"$.longName", "$.shortName"},
}

// infoPaths are read from the quoteSummary result, first hit wins.
var infoPaths = map[model.Field][]string{
	model.FieldPrice:    {"$.price.regularMarketPrice.raw", "$.financialData.currentPrice.raw"},
	model.FieldHigh52:   {"$.summaryDetail.fiftyTwoWeekHigh.raw"},
	model.FieldLow52:    {"$.summaryDetail.fiftyTwoWeekLow.raw"},
	model.FieldEPS:      {"$.defaultKeyStatistics.trailingEps.raw", "$.defaultKeyStatistics.forwardEps.raw"},
	model.FieldBPS:      {"$.defaultKeyStatistics.bookValue.raw"},
	model.FieldName:     {"$.price.longName", "$.price.shortName"},
	model.FieldSector:   {"$.assetProfile.sector"},
	model.FieldIndustry: {"$.assetProfile.industry"},
	model.FieldSummary:  {"$.assetProfile.longBusinessSummary"},
}

// Adapter implements provider.Adapter over Yahoo Finance.
type Adapter struct {
	baseURL string
	http    *http.Client
}

// Option configures the adapter.
type Option func(*Adapter)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(a *Adapter) {
		a.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *Adapter) {
		a.http = hc
	}
}

// NewAdapter creates a Yahoo Finance adapter.
func NewAdapter(opts ...Option) *Adapter {
	a := &Adapter{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Adapter) Name() string { return Name }

// Supports accepts every classified market; home symbols carry .KS/.KQ.
func (a *Adapter) Supports(m model.Market) bool { return m != model.MarketUnknown }

func (a *Adapter) CanProvide(f model.Field) bool {
	_, ok := infoPaths[f]
	return ok
}

func (a *Adapter) Fetch(ctx context.Context, c market.Candidate, fields []model.Field) provider.Result {
	facts := model.NewFacts()
	var lastErr error

	var quoteFields []model.Field
	for _, f := range fields {
		if _, ok := quotePaths[f]; ok {
			quoteFields = append(quoteFields, f)
		}
	}
	if len(quoteFields) > 0 {
		obj, err := a.quote(ctx, c.Symbol)
		if err != nil {
			lastErr = err
		} else {
			extract(obj, quotePaths, quoteFields, facts)
		}
	}

	if missing := facts.Missing(fields); len(missing) > 0 {
		obj, err := a.summary(ctx, c.Symbol)
		if err != nil {
			lastErr = err
		} else {
			extract(obj, infoPaths, missing, facts)
		}
	}

	if facts.Len() == 0 && lastErr != nil {
		return provider.Failed(Name, lastErr)
	}
	status := Name + ": ok"
	if lastErr != nil {
		status = Name + ": partial (" + lastErr.Error() + ")"
	}
	return provider.Result{Provider: Name, Facts: facts, Status: status}
}

func (a *Adapter) quote(ctx context.Context, symbol string) (any, error) {
	u := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", a.baseURL, url.QueryEscape(symbol))
	return a.firstResult(ctx, u, "$.quoteResponse.result[0]", symbol)
}

func (a *Adapter) summary(ctx context.Context, symbol string) (any, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s", a.baseURL, url.PathEscape(symbol), summaryModules)
	return a.firstResult(ctx, u, "$.quoteSummary.result[0]", symbol)
}

func (a *Adapter) firstResult(ctx context.Context, u, path, symbol string) (any, error) {
	body, _, err := provider.Get(ctx, a.http, u, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, eris.Wrapf(err, "yahoo: fetch %s", symbol)
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, eris.Wrapf(err, "yahoo: decode %s", symbol)
	}
	obj, err := jsonpath.Get(path, doc)
	if err != nil || obj == nil {
		return nil, eris.Wrapf(provider.ErrNoData, "yahoo: %s", symbol)
	}
	return obj, nil
}

// extract reads each wanted field through its candidate paths.
func extract(obj any, paths map[model.Field][]string, fields []model.Field, facts *model.Facts) {
	for _, f := range fields {
		for _, p := range paths[f] {
			v, err := jsonpath.Get(p, obj)
			if err != nil || v == nil {
				continue
			}
			if f.IsNumeric() {
				if n, ok := numeric.Parse(v); ok && facts.SetNumber(f, n) {
					break
				}
				continue
			}
			if s, ok := v.(string); ok && facts.SetText(f, s) {
				break
			}
		}
	}
}
