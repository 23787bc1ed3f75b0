// Package verify confirms that a resolved security is the company the
// record names: first by direct name comparison, then by search-engine
// corroboration within a query budget.
package verify

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/factsync/internal/model"
)

// DefaultResults is the number of search hits inspected.
const DefaultResults = 3

// SearchResult is one search hit.
type SearchResult struct {
	Title   string
	Snippet string
	URL     string
}

// Searcher runs a web search.
type Searcher interface {
	Search(ctx context.Context, query string, n int) ([]SearchResult, error)
}

// SearcherFunc adapts a function to Searcher.
type SearcherFunc func(ctx context.Context, query string, n int) ([]SearchResult, error)

func (f SearcherFunc) Search(ctx context.Context, query string, n int) ([]SearchResult, error) {
	return f(ctx, query, n)
}

// Observer receives search and verdict events.
type Observer interface {
	ObserveSearch(result string)
	ObserveVerdict(verdict string)
}

// Verifier runs the two-step confirmation cascade.
type Verifier struct {
	searcher Searcher
	budget   Budget
	results  int
	observer Observer
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithResults sets how many search hits are inspected.
func WithResults(n int) Option {
	return func(v *Verifier) {
		if n > 0 {
			v.results = n
		}
	}
}

// WithObserver attaches metrics.
func WithObserver(o Observer) Option {
	return func(v *Verifier) {
		v.observer = o
	}
}

// New creates a verifier. A nil searcher disables step 2; verification then
// ends Inconclusive whenever step 1 fails.
func New(s Searcher, b Budget, opts ...Option) *Verifier {
	v := &Verifier{searcher: s, budget: b, results: DefaultResults}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Verify compares the stored name against the resolved name, falling back to
// a search for "<ticker> <stored name>". It never returns an error; failures
// are part of the audit trail.
func (v *Verifier) Verify(ctx context.Context, ticker, storedName, resolvedName string) model.Verification {
	out := v.verify(ctx, ticker, storedName, resolvedName)
	if v.observer != nil {
		v.observer.ObserveVerdict(out.Verdict.String())
	}
	return out
}

func (v *Verifier) verify(ctx context.Context, ticker, storedName, resolvedName string) model.Verification {
	var out model.Verification
	storedName = strings.TrimSpace(storedName)
	resolvedName = strings.TrimSpace(resolvedName)

	if storedName == "" {
		out.Verdict = model.VerdictInconclusive
		out.Log("no stored name")
		return out
	}

	if resolvedName == "" {
		out.Log("no resolved name, skipping direct match")
	} else if Matches(storedName, resolvedName) {
		out.Verdict = model.VerdictVerified
		out.Log("direct match: " + resolvedName)
		return out
	} else {
		out.Log("direct mismatch: " + resolvedName)
	}

	if v.searcher == nil {
		out.Verdict = model.VerdictInconclusive
		out.Log("search disabled")
		return out
	}

	ok, err := v.budget.Take(ctx)
	if err != nil {
		zap.L().Warn("search budget unavailable", zap.String("ticker", ticker), zap.Error(err))
		out.Verdict = model.VerdictInconclusive
		out.Log("search budget unavailable: " + err.Error())
		return out
	}
	if !ok {
		v.observeSearch("budget_exhausted")
		out.Verdict = model.VerdictInconclusive
		out.Log("search budget exhausted")
		return out
	}

	query := strings.TrimSpace(ticker + " " + storedName)
	hits, err := v.searcher.Search(ctx, query, v.results)
	if err != nil {
		v.observeSearch("error")
		out.Verdict = model.VerdictInconclusive
		out.Log("search failed: " + err.Error())
		return out
	}
	v.observeSearch("ok")

	var corpus strings.Builder
	for _, h := range hits {
		corpus.WriteString(h.Title)
		corpus.WriteString(" ")
		corpus.WriteString(h.Snippet)
		corpus.WriteString(" ")
	}
	key := Normalize(storedName)
	if key != "" && strings.Contains(Normalize(corpus.String()), key) {
		out.Verdict = model.VerdictVerified
		out.Log("search corroboration: " + query)
		return out
	}

	out.Verdict = model.VerdictUnverified
	out.Log("no corroboration, resolved name differs")
	return out
}

func (v *Verifier) observeSearch(result string) {
	if v.observer != nil {
		v.observer.ObserveSearch(result)
	}
}
