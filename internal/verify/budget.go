package verify

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/factsync/internal/model"
)

// DefaultDailyLimit is the free-tier search allowance per day.
const DefaultDailyLimit = 90

// Budget grants or refuses one search query.
type Budget interface {
	// Take consumes one unit and reports whether the query may run.
	Take(ctx context.Context) (bool, error)
}

// RunBudget is an in-memory counter for a single run.
type RunBudget struct {
	mu    sync.Mutex
	limit int
	used  int
}

// NewRunBudget returns a counter that grants at most limit queries. A
// non-positive limit means DefaultDailyLimit, as for NewDailyBudget.
func NewRunBudget(limit int) *RunBudget {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	return &RunBudget{limit: limit}
}

func (b *RunBudget) Take(_ context.Context) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.used >= b.limit {
		return false, nil
	}
	b.used++
	return true, nil
}

// Used returns how many queries were granted.
func (b *RunBudget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// QuotaStore persists per-day query counts.
type QuotaStore interface {
	QuotaUsed(ctx context.Context, day string) (int, error)
	IncrementQuota(ctx context.Context, day string) (int, error)
}

// DailyBudget shares a per-day allowance across runs. Days are calendar
// dates in KST, when the search provider's free quota resets for the
// operator's account.
type DailyBudget struct {
	store QuotaStore
	limit int
	now   func() time.Time
}

// NewDailyBudget returns a budget backed by store.
func NewDailyBudget(store QuotaStore, limit int) *DailyBudget {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	return &DailyBudget{store: store, limit: limit, now: time.Now}
}

// Day returns the quota key for t.
func Day(t time.Time) string {
	return t.In(model.KST).Format(time.DateOnly)
}

func (b *DailyBudget) Take(ctx context.Context) (bool, error) {
	day := Day(b.now())
	used, err := b.store.QuotaUsed(ctx, day)
	if err != nil {
		return false, eris.Wrap(err, "verify: read search quota")
	}
	if used >= b.limit {
		return false, nil
	}
	if _, err := b.store.IncrementQuota(ctx, day); err != nil {
		return false, eris.Wrap(err, "verify: increment search quota")
	}
	return true, nil
}
