// Package naver adapts the Naver mobile stock JSON API, the primary source
// for home-market securities.
package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/factsync/internal/provider"
)

const defaultBaseURL = "https://m.stock.naver.com/api/stock"

// Basic is the /basic response subset the adapter reads.
type Basic struct {
	ItemCode          string       `json:"itemCode"`
	StockName         string       `json:"stockName"`
	ClosePrice        string       `json:"closePrice"`
	StockExchangeType ExchangeType `json:"stockExchangeType"`
	StockExchangeName string       `json:"stockExchangeName"`
}

// ExchangeType describes the listing exchange.
type ExchangeType struct {
	Code    string `json:"code"`
	NameEng string `json:"nameEng"`
	Name    string `json:"name"`
}

// Integration is the /integration response subset the adapter reads.
type Integration struct {
	StockName  string     `json:"stockName"`
	TotalInfos []InfoItem `json:"totalInfos"`
}

// InfoItem is one label/value pair from the integration summary.
type InfoItem struct {
	Code  string `json:"code"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Client reads the two Naver endpoints the adapter needs.
type Client interface {
	Basic(ctx context.Context, code string) (*Basic, error)
	Integration(ctx context.Context, code string) (*Integration, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Naver stock API client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Basic(ctx context.Context, code string) (*Basic, error) {
	var out Basic
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%s/basic", c.baseURL, code), &out); err != nil {
		return nil, eris.Wrapf(err, "naver: basic %s", code)
	}
	return &out, nil
}

func (c *httpClient) Integration(ctx context.Context, code string) (*Integration, error) {
	var out Integration
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%s/integration", c.baseURL, code), &out); err != nil {
		return nil, eris.Wrapf(err, "naver: integration %s", code)
	}
	return &out, nil
}

func (c *httpClient) getJSON(ctx context.Context, url string, dst any) error {
	body, _, err := provider.Get(ctx, c.http, url, map[string]string{"Accept": "application/json"})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return eris.Wrap(err, "unmarshal response")
	}
	return nil
}
