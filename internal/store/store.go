package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/factsync/internal/model"
)

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Job   string `json:"job,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// Store persists sync-run history and the daily search quota.
type Store interface {
	// Runs
	StartRun(ctx context.Context, job string) (*model.Run, error)
	FinishRun(ctx context.Context, runID string, result model.RunResult) error
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Search quota, keyed by KST calendar day (YYYY-MM-DD).
	QuotaUsed(ctx context.Context, day string) (int, error)
	IncrementQuota(ctx context.Context, day string) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Config selects and configures the backing database.
type Config struct {
	Driver string     `yaml:"driver" mapstructure:"driver"`
	DSN    string     `yaml:"dsn" mapstructure:"dsn"`
	Pool   PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// Open connects to the configured database and applies migrations.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		st  Store
		err error
	)
	switch cfg.Driver {
	case DriverSQLite, "":
		st, err = NewSQLite(cfg.DSN)
	case DriverPostgres:
		st, err = NewPostgres(ctx, cfg.DSN, &cfg.Pool)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func defaultLimit(n int) int {
	if n <= 0 {
		return 20
	}
	return n
}
