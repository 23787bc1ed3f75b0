package naver

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
	"github.com/sells-group/factsync/internal/resilience"
)

const basicKOSPI = `{
  "itemCode": "005930",
  "stockName": "삼성전자",
  "closePrice": "71,200",
  "stockExchangeType": {"code": "KS", "nameEng": "KOSPI", "name": "KOSPI"},
  "stockExchangeName": "KOSPI"
}`

const integration = `{
  "stockName": "삼성전자",
  "totalInfos": [
    {"code": "lastClosePrice", "key": "전일", "value": "71,000"},
    {"code": "highPriceOf52Weeks", "key": "52주 최고", "value": "88,800"},
    {"code": "lowPriceOf52Weeks", "key": "52주 최저", "value": "49,900"},
    {"code": "cnsEps", "key": "추정EPS", "value": "4,530원"},
    {"code": "eps", "key": "EPS", "value": "2,131원"},
    {"code": "bps", "key": "BPS", "value": "52,002원"},
    {"code": "per", "key": "PER", "value": "33.41배"}
  ]
}`

func newTestServer(t *testing.T, basic, integ string, hits map[string]int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits[r.URL.Path]++
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/005930/basic":
			_, _ = w.Write([]byte(basic))
		case "/005930/integration":
			_, _ = w.Write([]byte(integ))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func kospi() market.Candidate {
	return market.Candidate{Symbol: "005930.KS", Market: model.MarketKOSPI, Label: market.LabelAuto}
}

func TestAdapter_FetchAllFields(t *testing.T) {
	hits := map[string]int{}
	srv := newTestServer(t, basicKOSPI, integration, hits)
	a := NewAdapter(NewClient(WithBaseURL(srv.URL)))

	res := a.Fetch(context.Background(), kospi(), []model.Field{
		model.FieldPrice, model.FieldHigh52, model.FieldLow52, model.FieldEPS, model.FieldBPS, model.FieldName,
	})
	require.NoError(t, res.Err)
	assert.Equal(t, map[model.Field]float64{
		model.FieldPrice:  71200,
		model.FieldHigh52: 88800,
		model.FieldLow52:  49900,
		model.FieldEPS:    2131,
		model.FieldBPS:    52002,
	}, res.Facts.Numbers())
	name, _ := res.Facts.Text(model.FieldName)
	assert.Equal(t, "삼성전자", name)
}

func TestAdapter_PriceOnlySkipsIntegration(t *testing.T) {
	hits := map[string]int{}
	srv := newTestServer(t, basicKOSPI, integration, hits)
	a := NewAdapter(NewClient(WithBaseURL(srv.URL)))

	res := a.Fetch(context.Background(), kospi(), []model.Field{model.FieldPrice})
	require.NoError(t, res.Err)
	assert.Equal(t, 1, hits["/005930/basic"])
	assert.Zero(t, hits["/005930/integration"])
}

func TestAdapter_WrongSubMarket(t *testing.T) {
	hits := map[string]int{}
	srv := newTestServer(t, basicKOSPI, integration, hits)
	a := NewAdapter(NewClient(WithBaseURL(srv.URL)))

	c := market.Candidate{Symbol: "005930.KQ", Market: model.MarketKOSDAQ, Label: market.LabelAuto}
	res := a.Fetch(context.Background(), c, []model.Field{model.FieldEPS})
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, provider.ErrWrongMarket)
	assert.True(t, provider.IsNoData(res.Err))
	assert.Equal(t, 0, res.Facts.Len())
	assert.Zero(t, hits["/005930/integration"])
}

func TestAdapter_MissingPerShareKeys(t *testing.T) {
	hits := map[string]int{}
	srv := newTestServer(t, basicKOSPI, `{"stockName":"삼성전자","totalInfos":[{"code":"per","key":"PER","value":"12배"}]}`, hits)
	a := NewAdapter(NewClient(WithBaseURL(srv.URL)))

	res := a.Fetch(context.Background(), kospi(), []model.Field{model.FieldEPS, model.FieldBPS})
	require.NoError(t, res.Err)
	assert.Equal(t, 0, res.Facts.Len())
}

func TestAdapter_MalformedValuesDropped(t *testing.T) {
	hits := map[string]int{}
	srv := newTestServer(t, `{"stockName":"삼성전자","closePrice":"-"}`,
		`{"totalInfos":[{"code":"eps","key":"EPS","value":"N/A"},{"code":"bps","key":"BPS","value":"41,000원"}]}`, hits)
	a := NewAdapter(NewClient(WithBaseURL(srv.URL)))

	res := a.Fetch(context.Background(), kospi(), []model.Field{model.FieldPrice, model.FieldEPS, model.FieldBPS})
	require.NoError(t, res.Err)
	assert.Equal(t, map[model.Field]float64{model.FieldBPS: 41000}, res.Facts.Numbers())
}

func TestAdapter_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	a := NewAdapter(NewClient(WithBaseURL(srv.URL)))

	res := a.Fetch(context.Background(), kospi(), []model.Field{model.FieldPrice})
	require.Error(t, res.Err)
	assert.True(t, resilience.IsTransient(res.Err))
	assert.Contains(t, res.Status, "naver:")
	assert.NotNil(t, res.Facts)
}

func TestLookup_SubstringMatchIsCaseInsensitive(t *testing.T) {
	items := []InfoItem{{Code: "trailingEpsValue", Key: "주당순이익(eps)", Value: "1,000"}}
	v, ok := lookup(items, model.FieldEPS)
	require.True(t, ok)
	assert.Equal(t, "1,000", v)

	_, ok = lookup(items, model.FieldBPS)
	assert.False(t, ok)
}

func TestAdapter_Capabilities(t *testing.T) {
	a := NewAdapter(nil)
	assert.Equal(t, "naver", a.Name())
	assert.True(t, a.Supports(model.MarketKOSDAQ))
	assert.False(t, a.Supports(model.MarketForeign))
	assert.True(t, a.CanProvide(model.FieldEPS))
	assert.False(t, a.CanProvide(model.FieldSector))
}
