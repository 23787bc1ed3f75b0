// Package naverhtml reads per-share figures from the financial-summary table
// on the Naver Finance item page. It is the fallback for fields the JSON API
// left absent.
package naverhtml

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/factsync/internal/market"
	"github.com/sells-group/factsync/internal/model"
	"github.com/sells-group/factsync/internal/numeric"
	"github.com/sells-group/factsync/internal/provider"
)

// Name is the adapter identifier.
const Name = "naverhtml"

const (
	defaultBaseURL = "https://finance.naver.com/item/main.naver"
	// DefaultMarker identifies the financial-summary table.
	DefaultMarker = "주요재무정보"
	// DefaultColumn is the zero-based data column read for the most recent
	// reporting period.
	DefaultColumn = 3
)

var rowLabels = map[model.Field][]string{
	model.FieldEPS: {"EPS(원)", "EPS"},
	model.FieldBPS: {"BPS(원)", "BPS"},
}

// Options configures the adapter.
type Options struct {
	BaseURL string
	Marker  string
	// Column is the zero-based data column to read; pass DefaultColumn for
	// the most recent annual period of the current page layout.
	Column     int
	HTTPClient *http.Client
}

// Adapter implements provider.Adapter over the HTML summary table.
type Adapter struct {
	baseURL string
	marker  string
	column  int
	http    *http.Client
}

// NewAdapter creates the HTML fallback adapter. Empty strings and a nil
// client take defaults; a negative column falls back to DefaultColumn.
func NewAdapter(opts Options) *Adapter {
	a := &Adapter{
		baseURL: opts.BaseURL,
		marker:  opts.Marker,
		column:  opts.Column,
		http:    opts.HTTPClient,
	}
	if a.baseURL == "" {
		a.baseURL = defaultBaseURL
	}
	if a.marker == "" {
		a.marker = DefaultMarker
	}
	if a.column < 0 {
		a.column = DefaultColumn
	}
	if a.http == nil {
		a.http = &http.Client{Timeout: 10 * time.Second}
	}
	return a
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) Supports(m model.Market) bool { return m.IsHome() }

func (a *Adapter) CanProvide(f model.Field) bool {
	_, ok := rowLabels[f]
	return ok
}

func (a *Adapter) Fetch(ctx context.Context, c market.Candidate, fields []model.Field) provider.Result {
	url := fmt.Sprintf("%s?code=%s", a.baseURL, c.Code())
	body, header, err := provider.Get(ctx, a.http, url, nil)
	if err != nil {
		return provider.Failed(Name, eris.Wrapf(err, "naverhtml: fetch %s", c.Code()))
	}

	table, err := ParseTable(bytes.NewReader(body), header.Get("Content-Type"), a.marker)
	if err != nil {
		return provider.Failed(Name, err)
	}

	facts := model.NewFacts()
	for _, f := range fields {
		labels, ok := rowLabels[f]
		if !ok {
			continue
		}
		cells, ok := table.Row(labels...)
		if !ok || a.column >= len(cells) {
			continue
		}
		if v, ok := numeric.ParseString(cells[a.column]); ok {
			facts.SetNumber(f, v)
		}
	}
	return provider.Result{Provider: Name, Facts: facts, Status: Name + ": ok"}
}
