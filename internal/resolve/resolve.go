// Package resolve turns a raw ticker into a validated fact bundle by walking
// the classifier's candidates through per-market adapter chains.
package resolve

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/factsync/internal/market"
	"github.com/sells-group/factsync/internal/model"
	"github.com/sells-group/factsync/internal/provider"
	"github.com/sells-group/factsync/internal/resilience"
	"github.com/sells-group/factsync/internal/sector"
)

// DefaultSummaryMaxRunes keeps summaries under the record store's 2000
// character rich-text limit.
const DefaultSummaryMaxRunes = 1900

// ErrNoCandidates is reported for a blank ticker.
var ErrNoCandidates = eris.New("no symbol candidates")

// Observer receives one call per adapter attempt. result is "ok",
// "no_data", "error" or "circuit_open".
type Observer interface {
	ObserveProviderCall(provider, result string)
}

// Config wires the resolver.
type Config struct {
	// HomeChain and ForeignChain are adapter names in fallback order.
	HomeChain    []string
	ForeignChain []string

	Breakers        *resilience.Breakers
	Sectors         *sector.Table
	SummaryMaxRunes int
	Observer        Observer
}

// Resolver runs the fallback chains. A run uses it from one goroutine.
type Resolver struct {
	home       []provider.Adapter
	foreign    []provider.Adapter
	breakers   *resilience.Breakers
	sectors    *sector.Table
	maxSummary int
	observer   Observer
}

// Attempt is one adapter call made during resolution.
type Attempt struct {
	Candidate market.Candidate `json:"candidate"`
	Provider  string           `json:"provider"`
	Status    string           `json:"status"`
	Fields    []model.Field    `json:"fields,omitempty"`
}

// Resolution is the outcome for one ticker.
type Resolution struct {
	// Candidate is the accepted candidate; nil when nothing resolved.
	Candidate *market.Candidate `json:"candidate,omitempty"`
	Facts     *model.Facts      `json:"facts"`
	Missing   []model.Field     `json:"missing,omitempty"`
	Status    string            `json:"status"`
	Err       error             `json:"-"`
	Attempts  []Attempt         `json:"attempts,omitempty"`
}

// Resolved reports whether at least one requested field was found.
func (r Resolution) Resolved() bool {
	return r.Facts != nil && r.Facts.Len() > 0
}

// Complete reports whether every requested field was found.
func (r Resolution) Complete() bool {
	return r.Resolved() && len(r.Missing) == 0
}

// New builds a resolver from a registry and chain configuration.
func New(reg *provider.Registry, cfg Config) *Resolver {
	r := &Resolver{
		home:       reg.Chain(cfg.HomeChain),
		foreign:    reg.Chain(cfg.ForeignChain),
		breakers:   cfg.Breakers,
		sectors:    cfg.Sectors,
		maxSummary: cfg.SummaryMaxRunes,
		observer:   cfg.Observer,
	}
	if r.breakers == nil {
		r.breakers = resilience.NewBreakers(resilience.DefaultCircuitBreakerConfig())
	}
	if r.sectors == nil {
		r.sectors = sector.Default()
	}
	if r.maxSummary <= 0 {
		r.maxSummary = DefaultSummaryMaxRunes
	}
	return r
}

// Resolve fetches the requested fields for ticker. Candidates are tried in
// classifier order; the first one that yields any requested field is
// accepted. Within a candidate, adapters only fill fields still absent.
func (r *Resolver) Resolve(ctx context.Context, ticker, hint string, fields []model.Field) Resolution {
	candidates := market.Classify(ticker, hint)
	if len(candidates) == 0 {
		return unresolved(ErrNoCandidates, nil)
	}

	log := zap.L().With(zap.String("ticker", ticker))
	var (
		attempts []Attempt
		lastErr  error
	)
	for _, c := range candidates {
		if ctx.Err() != nil {
			return unresolved(ctx.Err(), attempts)
		}

		facts, tried, err := r.walk(ctx, c, fields)
		attempts = append(attempts, tried...)
		if err != nil {
			lastErr = err
		}
		if facts.Len() == 0 {
			log.Debug("candidate yielded nothing",
				zap.String("symbol", c.Symbol),
				zap.String("label", c.Label),
			)
			continue
		}

		r.postProcess(facts)
		accepted := c
		res := Resolution{
			Candidate: &accepted,
			Facts:     facts,
			Missing:   facts.Missing(fields),
			Attempts:  attempts,
		}
		if len(res.Missing) == 0 {
			res.Status = "fully resolved"
		} else {
			res.Status = fmt.Sprintf("partially resolved (missing: %s)", model.FieldNames(res.Missing))
		}
		return res
	}

	if lastErr == nil {
		lastErr = provider.ErrNoData
	}
	return unresolved(lastErr, attempts)
}

// walk runs the candidate's market chain and returns the merged facts, the
// attempts made and the last adapter error. A source reporting the symbol on
// another sub-market rejects the candidate: walk then returns no facts, even
// if earlier sources in the chain answered by code alone.
func (r *Resolver) walk(ctx context.Context, c market.Candidate, fields []model.Field) (*model.Facts, []Attempt, error) {
	chain := r.foreign
	if c.Market.IsHome() {
		chain = r.home
	}

	facts := model.NewFacts()
	var (
		lastErr  error
		attempts []Attempt
	)
	for _, a := range chain {
		if !a.Supports(c.Market) {
			continue
		}
		need := provider.Providable(a, facts.Missing(fields))
		if len(need) == 0 {
			continue
		}

		res := r.call(ctx, a, c, need)
		added := facts.Merge(res.Facts.Only(need))
		attempts = append(attempts, Attempt{
			Candidate: c,
			Provider:  a.Name(),
			Status:    res.Status,
			Fields:    added,
		})
		if res.Err != nil {
			lastErr = res.Err
		}
		if provider.IsWrongMarket(res.Err) {
			return model.NewFacts(), attempts, res.Err
		}
		if len(facts.Missing(fields)) == 0 {
			break
		}
	}
	return facts, attempts, lastErr
}

// call runs one adapter behind its circuit breaker.
func (r *Resolver) call(ctx context.Context, a provider.Adapter, c market.Candidate, need []model.Field) provider.Result {
	cb := r.breakers.Get(a.Name())
	if err := cb.Allow(); err != nil {
		r.observe(a.Name(), "circuit_open")
		return provider.Failed(a.Name(), eris.Wrap(err, "circuit open"))
	}

	res := a.Fetch(ctx, c, need)
	if res.Facts == nil {
		res.Facts = model.NewFacts()
	}
	switch {
	case res.Err == nil:
		cb.Record(nil)
		r.observe(a.Name(), "ok")
	case provider.IsNoData(res.Err):
		// The source answered; absence of the symbol is not a source failure.
		cb.Record(nil)
		r.observe(a.Name(), "no_data")
	default:
		cb.Record(res.Err)
		r.observe(a.Name(), "error")
		zap.L().Debug("provider fetch failed",
			zap.String("provider", a.Name()),
			zap.String("symbol", c.Symbol),
			zap.Error(res.Err),
		)
	}
	return res
}

func (r *Resolver) observe(name, result string) {
	if r.observer != nil {
		r.observer.ObserveProviderCall(name, result)
	}
}

// postProcess maps sector labels and bounds the summary length.
func (r *Resolver) postProcess(facts *model.Facts) {
	if s, ok := facts.Text(model.FieldSector); ok {
		facts.SetText(model.FieldSector, r.sectors.Sector(s))
	}
	if s, ok := facts.Text(model.FieldIndustry); ok {
		facts.SetText(model.FieldIndustry, r.sectors.Industry(s))
	}
	if s, ok := facts.Text(model.FieldSummary); ok {
		facts.SetText(model.FieldSummary, model.Truncate(s, r.maxSummary))
	}
}

func unresolved(err error, attempts []Attempt) Resolution {
	return Resolution{
		Facts:    model.NewFacts(),
		Status:   "unresolved: " + err.Error(),
		Err:      err,
		Attempts: attempts,
	}
}
