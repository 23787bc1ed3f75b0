package provider

import (
	"context"
	"io"
	"net/http"

	"github.com/rotisserie/eris"

	"github.com/sells-group/factsync/internal/resilience"
)

// DefaultUserAgent is sent to sources that reject the Go default.
const DefaultUserAgent = "Mozilla/5.0 (compatible; factsync/1.0)"

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 8 << 20

// Get performs a GET and returns the body and headers for a 200 response.
// A 404 is reported as ErrNoData.
// Retryable statuses are returned as resilience.TransientError so the circuit
// breaker and logs can tell them apart from permanent failures.
func Get(ctx context.Context, hc *http.Client, url string, headers map[string]string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, nil, eris.Wrap(err, "send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, eris.Wrap(err, "read response")
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil, eris.Wrap(ErrNoData, "status 404")
	}
	if resp.StatusCode != http.StatusOK {
		statusErr := eris.Errorf("unexpected status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, nil, statusErr
	}
	return body, resp.Header, nil
}
