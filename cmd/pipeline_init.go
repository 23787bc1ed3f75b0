package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/factsync/internal/metrics"
	"github.com/sells-group/factsync/internal/provider"
	"github.com/sells-group/factsync/internal/provider/naver"
	"github.com/sells-group/factsync/internal/provider/naverhtml"
	"github.com/sells-group/factsync/internal/provider/yahoo"
	"github.com/sells-group/factsync/internal/recordstore"
	"github.com/sells-group/factsync/internal/recordsync"
	"github.com/sells-group/factsync/internal/resilience"
	"github.com/sells-group/factsync/internal/resolve"
	"github.com/sells-group/factsync/internal/sector"
	"github.com/sells-group/factsync/internal/store"
	"github.com/sells-group/factsync/internal/verify"
	"github.com/sells-group/factsync/pkg/google"
	"github.com/sells-group/factsync/pkg/jina"
	"github.com/sells-group/factsync/pkg/notion"
)

// syncEnv holds the initialized clients and the driver needed by the sync
// and verify commands.
type syncEnv struct {
	Store   store.Store
	Driver  *recordsync.Driver
	Metrics *metrics.Metrics
}

// Close releases resources held by the environment.
func (e *syncEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initSyncEnv opens the run state store and wires the record store,
// resolver and (for verify runs) the verifier into a driver. Callers should
// defer env.Close().
func initSyncEnv(ctx context.Context, withVerifier bool) (*syncEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	resolver, err := buildResolver(m)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	records := recordstore.New(
		notion.NewClient(cfg.Notion.Token, notion.WithRateLimit(cfg.Notion.RateLimit)),
		cfg.Notion.DatabaseID,
		cfg.Notion.Properties,
		cfg.Notion.PageSize,
	)

	opts := []recordsync.Option{
		recordsync.WithRunStore(st),
		recordsync.WithObserver(m),
	}
	if withVerifier {
		opts = append(opts, recordsync.WithVerifier(buildVerifier(st, m)))
	}

	return &syncEnv{
		Store:   st,
		Driver:  recordsync.New(records, resolver, opts...),
		Metrics: m,
	}, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, store.Config{
		Driver: cfg.Store.Driver,
		DSN:    cfg.Store.DatabaseURL,
		Pool: store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	return st, nil
}

// buildRegistry registers every adapter; the chains pick from it by name.
func buildRegistry() *provider.Registry {
	reg := provider.NewRegistry()
	reg.Register(naver.NewAdapter(naver.NewClient(
		naver.WithBaseURL(cfg.Naver.BaseURL),
		naver.WithHTTPClient(httpClient(cfg.Naver.TimeoutSecs)),
	)))
	reg.Register(naverhtml.NewAdapter(naverhtml.Options{
		BaseURL:    cfg.Naver.HTMLBaseURL,
		Marker:     cfg.Naver.HTMLMarker,
		Column:     cfg.Naver.HTMLColumn,
		HTTPClient: httpClient(cfg.Naver.TimeoutSecs),
	}))
	reg.Register(yahoo.NewAdapter(
		yahoo.WithBaseURL(cfg.Yahoo.BaseURL),
		yahoo.WithHTTPClient(httpClient(cfg.Yahoo.TimeoutSecs)),
	))
	return reg
}

func buildResolver(obs resolve.Observer) (*resolve.Resolver, error) {
	sectors, err := sector.Load(cfg.Sector.File)
	if err != nil {
		return nil, eris.Wrap(err, "load sector table")
	}
	reg := buildRegistry()
	for _, name := range append(append([]string{}, cfg.Sync.HomeChain...), cfg.Sync.ForeignChain...) {
		if reg.Get(name) == nil {
			zap.L().Warn("unknown provider in chain, skipping", zap.String("provider", name))
		}
	}
	return resolve.New(reg, resolve.Config{
		HomeChain:    cfg.Sync.HomeChain,
		ForeignChain: cfg.Sync.ForeignChain,
		Breakers: resilience.NewBreakers(resilience.FromCircuitConfig(
			cfg.Sync.Circuit.FailureThreshold, cfg.Sync.Circuit.ResetTimeoutSecs,
		)),
		Sectors:         sectors,
		SummaryMaxRunes: cfg.Sync.SummaryMaxRunes,
		Observer:        obs,
	}), nil
}

// buildSearcher returns nil when search is disabled.
func buildSearcher() verify.Searcher {
	hc := httpClient(cfg.Search.TimeoutSecs)
	switch cfg.Search.Provider {
	case "google":
		return verify.GoogleSearcher(google.NewClient(cfg.Search.Google.Key, cfg.Search.Google.CX,
			google.WithBaseURL(cfg.Search.Google.BaseURL),
			google.WithHTTPClient(hc),
		))
	case "jina":
		return verify.JinaSearcher(jina.NewClient(cfg.Search.Jina.Key,
			jina.WithSearchBaseURL(cfg.Search.Jina.SearchBaseURL),
			jina.WithHTTPClient(hc),
		))
	default:
		zap.L().Warn("search disabled, unmatched names will be Inconclusive")
		return nil
	}
}

// buildBudget uses the persistent daily quota when a store is available.
func buildBudget(st verify.QuotaStore) verify.Budget {
	if cfg.Verify.Persistent && st != nil {
		return verify.NewDailyBudget(st, cfg.Verify.DailyLimit)
	}
	return verify.NewRunBudget(cfg.Verify.DailyLimit)
}

func buildVerifier(st store.Store, m *metrics.Metrics) *verify.Verifier {
	var quota verify.QuotaStore
	if st != nil {
		quota = st
	}
	return verify.New(buildSearcher(), buildBudget(quota),
		verify.WithResults(cfg.Search.Results),
		verify.WithObserver(m),
	)
}

// writeMetrics exports run metrics when a textfile path is configured.
func writeMetrics(m *metrics.Metrics) {
	if m == nil || cfg.Metrics.TextfilePath == "" {
		return
	}
	if err := m.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
		zap.L().Warn("failed to write metrics textfile", zap.Error(err))
	}
}

func httpClient(timeoutSecs int) *http.Client {
	if timeoutSecs <= 0 {
		timeoutSecs = 10
	}
	return &http.Client{Timeout: time.Duration(timeoutSecs) * time.Second}
}
