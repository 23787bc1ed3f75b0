package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.ObserveRecord("price", OutcomeSuccess)
	m.ObserveRecord("price", OutcomeSuccess)
	m.ObserveRecord("price", OutcomeSkipped)
	m.ObserveProviderCall("naver", "ok")
	m.ObserveSearch("ok")
	m.ObserveVerdict("Verified")

	assert.InDelta(t, 2, testutil.ToFloat64(m.RecordsTotal.WithLabelValues("price", OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RecordsTotal.WithLabelValues("price", OutcomeSkipped)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ProviderCallsTotal.WithLabelValues("naver", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.VerdictsTotal.WithLabelValues("Verified")), 0)
}

func TestObserveRun(t *testing.T) {
	m := New()
	now := time.Unix(1_700_000_000, 0)

	m.ObserveRun(90*time.Second, true, nil, now)
	assert.InDelta(t, 90, testutil.ToFloat64(m.RunDurationSeconds), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RunStoppedEarly), 0)
	assert.InDelta(t, 1_700_000_000, testutil.ToFloat64(m.RunLastSuccessTime), 0)

	m.ObserveRun(time.Second, false, assert.AnError, now.Add(time.Hour))
	assert.InDelta(t, 0, testutil.ToFloat64(m.RunStoppedEarly), 0)
	assert.InDelta(t, 1_700_000_000, testutil.ToFloat64(m.RunLastSuccessTime), 0)
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveRecord("all", OutcomeFailed)

	path := filepath.Join(t.TempDir(), "factsync.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `factsync_records_total{job="all",outcome="failed"} 1`)
}
