// Package provider defines the data-source adapter contract and the registry
// the resolver builds its fallback chains from.
package provider

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/factsync/internal/market"
	"github.com/sells-group/factsync/internal/model"
)

// ErrNoData means the source answered but has nothing for the symbol. It
// does not count against the source's circuit breaker.
var ErrNoData = eris.New("no data")

// ErrWrongMarket means the source lists the symbol on a different
// sub-market than the candidate's. The whole candidate is rejected, not just
// the source's fields. It wraps ErrNoData.
var ErrWrongMarket = eris.Wrap(ErrNoData, "listed on a different sub-market")

// IsNoData reports whether err is, or wraps, ErrNoData.
func IsNoData(err error) bool {
	return errors.Is(err, ErrNoData)
}

// IsWrongMarket reports whether err is, or wraps, ErrWrongMarket.
func IsWrongMarket(err error) bool {
	return errors.Is(err, ErrWrongMarket)
}

// Result is what an adapter returns for one symbol. Facts is never nil;
// Err carries the captured failure when the source could not be read.
type Result struct {
	Provider string
	Facts    *model.Facts
	Status   string
	Err      error
}

// Failed builds a Result with no facts and a diagnostic status.
func Failed(provider string, err error) Result {
	status := err.Error()
	if !strings.HasPrefix(status, provider+":") {
		status = provider + ": " + status
	}
	return Result{
		Provider: provider,
		Facts:    model.NewFacts(),
		Status:   status,
		Err:      err,
	}
}

// Adapter wraps one external data source family.
type Adapter interface {
	// Name returns the adapter identifier used in chain configuration.
	Name() string
	// Supports reports whether the adapter can serve symbols of market m.
	Supports(m model.Market) bool
	// CanProvide reports whether the adapter can supply the field.
	CanProvide(f model.Field) bool
	// Fetch reads the requested fields for a candidate symbol. It must not
	// panic and reports failures through Result.Err.
	Fetch(ctx context.Context, c market.Candidate, fields []model.Field) Result
}

// Providable filters fields down to those a can supply.
func Providable(a Adapter, fields []model.Field) []model.Field {
	var out []model.Field
	for _, f := range fields {
		if a.CanProvide(f) {
			out = append(out, f)
		}
	}
	return out
}

// Registry holds adapters by name.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter, replacing any with the same name.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Name()] = a
}

// Get returns an adapter by name, or nil.
func (r *Registry) Get(name string) Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.adapters[name]
}

// Chain resolves adapter names into an ordered chain, skipping unknown names.
func (r *Registry) Chain(names []string) []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Adapter
	for _, n := range names {
		if a, ok := r.adapters[n]; ok {
			out = append(out, a)
		}
	}
	return out
}
