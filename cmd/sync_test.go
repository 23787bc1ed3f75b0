package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/factsync/internal/config"
	"github.com/sells-group/factsync/internal/model"
	"github.com/sells-group/factsync/internal/recordsync"
)

// withConfig installs c as the global config for the test.
func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func testConfig() *config.Config {
	c := &config.Config{}
	c.Sync.Job = "price"
	c.Sync.WriteDelayMs = 400
	c.Sync.MaxRuntimeMins = 50
	c.Sync.Retry.MaxAttempts = 2
	c.Sync.Retry.InitialBackoffMs = 10
	c.Verify.DailyLimit = 90
	return c
}

func TestBuildSyncOptions_Defaults(t *testing.T) {
	withConfig(t, testConfig())

	opts, err := buildSyncOptions(syncFlags{}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, recordsync.JobPrice, opts.Job)
	assert.Empty(t, opts.Fields)
	assert.Equal(t, 400*time.Millisecond, opts.WriteDelay)
	assert.Equal(t, 50*time.Minute, opts.MaxRuntime)
	assert.False(t, opts.WriteMarketHint)
	assert.True(t, opts.Filter.IsZero())
	assert.Equal(t, 2, opts.Retry.MaxAttempts)
	assert.Equal(t, 10*time.Millisecond, opts.Retry.InitialBackoff)
}

func TestBuildSyncOptions_FlagsOverrideConfig(t *testing.T) {
	withConfig(t, testConfig())
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, model.KST)

	opts, err := buildSyncOptions(syncFlags{
		job:        "fundamentals",
		fields:     "eps",
		maxRuntime: 5 * time.Minute,
		writeDelay: time.Second,
		stale:      24 * time.Hour,
		marketHint: true,
	}, now)
	require.NoError(t, err)
	assert.Equal(t, recordsync.JobFundamentals, opts.Job)
	assert.Equal(t, []model.Field{model.FieldEPS}, opts.Fields)
	assert.Equal(t, 5*time.Minute, opts.MaxRuntime)
	assert.Equal(t, time.Second, opts.WriteDelay)
	assert.True(t, opts.WriteMarketHint)
	assert.Equal(t, now.Add(-24*time.Hour), opts.Filter.StaleBefore)
}

func TestBuildSyncOptions_ExplicitZeroDisables(t *testing.T) {
	c := testConfig()
	c.Sync.StaleHours = 6
	withConfig(t, c)

	opts, err := buildSyncOptions(syncFlags{
		set: map[string]bool{"write-delay": true, "max-runtime": true, "stale": true},
	}, time.Now())
	require.NoError(t, err)
	assert.Zero(t, opts.WriteDelay)
	assert.Zero(t, opts.MaxRuntime)
	assert.True(t, opts.Filter.IsZero())
}

func TestSyncFlags_MarkSet(t *testing.T) {
	withConfig(t, testConfig())
	t.Cleanup(func() {
		for _, name := range []string{"write-delay", "max-runtime"} {
			fl := syncCmd.Flags().Lookup(name)
			_ = fl.Value.Set("0s")
			fl.Changed = false
		}
	})

	require.NoError(t, syncCmd.Flags().Parse([]string{"--write-delay", "0", "--max-runtime", "0s"}))
	f := syncOpts
	f.markSet(syncCmd)
	assert.True(t, f.set["write-delay"])
	assert.True(t, f.set["max-runtime"])
	assert.False(t, f.set["stale"])

	opts, err := buildSyncOptions(f, time.Now())
	require.NoError(t, err)
	assert.Zero(t, opts.WriteDelay)
	assert.Zero(t, opts.MaxRuntime)
}

func TestBuildSyncOptions_ConfigStaleAndFields(t *testing.T) {
	c := testConfig()
	c.Sync.StaleHours = 6
	c.Sync.Fields = "price,bps"
	c.Sync.WriteMarketHint = true
	withConfig(t, c)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, model.KST)

	opts, err := buildSyncOptions(syncFlags{}, now)
	require.NoError(t, err)
	assert.Equal(t, []model.Field{model.FieldPrice, model.FieldBPS}, opts.Fields)
	assert.Equal(t, now.Add(-6*time.Hour), opts.Filter.StaleBefore)
	assert.True(t, opts.WriteMarketHint)
}

func TestBuildSyncOptions_Invalid(t *testing.T) {
	withConfig(t, testConfig())

	_, err := buildSyncOptions(syncFlags{job: "dividends"}, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown job")

	_, err = buildSyncOptions(syncFlags{fields: "eps,per"}, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")
}

func TestFormatSummary(t *testing.T) {
	var buf bytes.Buffer
	formatSummary(&buf, recordsync.Summary{
		RunID:        "run-1",
		Job:          recordsync.JobFundamentals,
		Counts:       model.Counts{Success: 7, Partial: 2, Failed: 1, Skipped: 3},
		Pages:        2,
		Elapsed:      95 * time.Second,
		StoppedEarly: true,
	})

	out := buf.String()
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "fundamentals")
	assert.Regexp(t, `Success:\s+7`, out)
	assert.Regexp(t, `Skipped:\s+3`, out)
	assert.Contains(t, out, "1m35s")
	assert.Contains(t, out, "Stopped early")
}

func TestFormatSummary_Complete(t *testing.T) {
	var buf bytes.Buffer
	formatSummary(&buf, recordsync.Summary{Job: recordsync.JobPrice})
	assert.NotContains(t, buf.String(), "Run:")
	assert.NotContains(t, buf.String(), "Stopped early")
}
