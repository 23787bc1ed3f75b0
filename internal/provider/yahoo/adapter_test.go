package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/factsync/internal/market"
	"github.com/sells-group/factsync/internal/model"
	"github.com/sells-group/factsync/internal/provider"
)

const quoteBody = `{"quoteResponse":{"result":[{
  "symbol":"AAPL","regularMarketPrice":189.98,"fiftyTwoWeekHigh":199.62,
  "fiftyTwoWeekLow":164.08,"longName":"Apple Inc."}],"error":null}}`

const summaryBody = `{"quoteSummary":{"result":[{
  "price":{"regularMarketPrice":{"raw":190.5,"fmt":"190.50"},"longName":"Apple Inc."},
  "summaryDetail":{"fiftyTwoWeekHigh":{"raw":199.62},"fiftyTwoWeekLow":{"raw":164.08}},
  "defaultKeyStatistics":{"trailingEps":{},"forwardEps":{"raw":7.1},"bookValue":{"raw":4.79}},
  "assetProfile":{"sector":"Technology","industry":"Consumer Electronics","longBusinessSummary":"Apple designs phones."}
}],"error":null}}`

type hits struct{ quote, summary int }

func newServer(t *testing.T, quote, summary string, h *hits) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v7/finance/quote":
			h.quote++
			assert.Equal(t, "AAPL", r.URL.Query().Get("symbols"))
			_, _ = w.Write([]byte(quote))
		case "/v10/finance/quoteSummary/AAPL":
			h.summary++
			assert.Contains(t, r.URL.Query().Get("modules"), "defaultKeyStatistics")
			_, _ = w.Write([]byte(summary))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func aapl() market.Candidate {
	return market.Candidate{Symbol: "AAPL", Market: model.MarketForeign, Label: market.LabelAuto}
}

func TestAdapter_PriceFieldsUseQuoteOnly(t *testing.T) {
	var h hits
	srv := newServer(t, quoteBody, summaryBody, &h)
	a := NewAdapter(WithBaseURL(srv.URL))

	res := a.Fetch(context.Background(), aapl(), []model.Field{model.FieldPrice, model.FieldHigh52, model.FieldLow52})
	require.NoError(t, res.Err)
	assert.Equal(t, map[model.Field]float64{
		model.FieldPrice:  189.98,
		model.FieldHigh52: 199.62,
		model.FieldLow52:  164.08,
	}, res.Facts.Numbers())
	assert.Equal(t, 1, h.quote)
	assert.Equal(t, 0, h.summary)
}

func TestAdapter_FundamentalsUseSummary(t *testing.T) {
	var h hits
	srv := newServer(t, quoteBody, summaryBody, &h)
	a := NewAdapter(WithBaseURL(srv.URL))

	res := a.Fetch(context.Background(), aapl(), []model.Field{
		model.FieldEPS, model.FieldBPS, model.FieldSector, model.FieldIndustry, model.FieldSummary,
	})
	require.NoError(t, res.Err)
	assert.Equal(t, 0, h.quote)
	assert.Equal(t, 1, h.summary)

	// trailingEps is empty, so forwardEps is used.
	assert.Equal(t, map[model.Field]float64{model.FieldEPS: 7.1, model.FieldBPS: 4.79}, res.Facts.Numbers())
	assert.Equal(t, map[model.Field]string{
		model.FieldSector:   "Technology",
		model.FieldIndustry: "Consumer Electronics",
		model.FieldSummary:  "Apple designs phones.",
	}, res.Facts.Texts())
}

func TestAdapter_QuoteFailureFallsBackToSummary(t *testing.T) {
	var h hits
	srv := newServer(t, `{"quoteResponse":{"result":[],"error":null}}`, summaryBody, &h)
	a := NewAdapter(WithBaseURL(srv.URL))

	res := a.Fetch(context.Background(), aapl(), []model.Field{model.FieldPrice})
	require.NoError(t, res.Err)
	v, ok := res.Facts.Number(model.FieldPrice)
	require.True(t, ok)
	assert.InDelta(t, 190.5, v, 1e-9)
	assert.Contains(t, res.Status, "partial")
}

func TestAdapter_NoDataAnywhere(t *testing.T) {
	var h hits
	srv := newServer(t, `{"quoteResponse":{"result":[]}}`, `{"quoteSummary":{"result":null,"error":{"code":"Not Found"}}}`, &h)
	a := NewAdapter(WithBaseURL(srv.URL))

	res := a.Fetch(context.Background(), aapl(), []model.Field{model.FieldPrice, model.FieldEPS})
	require.Error(t, res.Err)
	assert.True(t, provider.IsNoData(res.Err))
	assert.Contains(t, res.Status, "yahoo: AAPL")
	assert.Equal(t, 0, res.Facts.Len())
}

func TestAdapter_NameFromQuote(t *testing.T) {
	var h hits
	srv := newServer(t, quoteBody, summaryBody, &h)
	a := NewAdapter(WithBaseURL(srv.URL))

	res := a.Fetch(context.Background(), aapl(), []model.Field{model.FieldName})
	require.NoError(t, res.Err)
	name, _ := res.Facts.Text(model.FieldName)
	assert.Equal(t, "Apple Inc.", name)
	assert.Equal(t, 0, h.summary)
}

func TestAdapter_Capabilities(t *testing.T) {
	a := NewAdapter()
	assert.True(t, a.Supports(model.MarketForeign))
	assert.True(t, a.Supports(model.MarketKOSPI))
	assert.False(t, a.Supports(model.MarketUnknown))
	assert.True(t, a.CanProvide(model.FieldSummary))
}
