package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/factsync/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	job           TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'running',
	success       INTEGER NOT NULL DEFAULT 0,
	partial       INTEGER NOT NULL DEFAULT 0,
	failed        INTEGER NOT NULL DEFAULT 0,
	skipped       INTEGER NOT NULL DEFAULT 0,
	stopped_early INTEGER NOT NULL DEFAULT 0,
	error         TEXT NOT NULL DEFAULT '',
	started_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at   DATETIME
);

CREATE TABLE IF NOT EXISTS search_quota (
	day        TEXT PRIMARY KEY,
	used       INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_job ON runs(job);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) StartRun(ctx context.Context, job string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, job, status, started_at) VALUES (?, ?, ?, ?)`,
		id, job, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Job:       job,
		Status:    model.RunStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, result model.RunResult) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, success = ?, partial = ?, failed = ?, skipped = ?,
		 stopped_early = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(result.Status), result.Counts.Success, result.Counts.Partial,
		result.Counts.Failed, result.Counts.Skipped, result.StoppedEarly,
		result.Error, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, job, status, success, partial, failed, skipped, stopped_early, error, started_at, finished_at
	          FROM runs WHERE 1=1`
	var args []any

	if filter.Job != "" {
		query += ` AND job = ?`
		args = append(args, filter.Job)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, defaultLimit(filter.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		var (
			r        model.Run
			finished sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.Job, &r.Status, &r.Counts.Success, &r.Counts.Partial,
			&r.Counts.Failed, &r.Counts.Skipped, &r.StoppedEarly, &r.Error,
			&r.StartedAt, &finished); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) QuotaUsed(ctx context.Context, day string) (int, error) {
	var used int
	err := s.db.QueryRowContext(ctx, `SELECT used FROM search_quota WHERE day = ?`, day).Scan(&used)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return used, eris.Wrapf(err, "sqlite: quota used %s", day)
}

func (s *SQLiteStore) IncrementQuota(ctx context.Context, day string) (int, error) {
	var used int
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO search_quota (day, used, updated_at) VALUES (?, 1, ?)
		 ON CONFLICT(day) DO UPDATE SET used = used + 1, updated_at = excluded.updated_at
		 RETURNING used`,
		day, time.Now().UTC(),
	).Scan(&used)
	return used, eris.Wrapf(err, "sqlite: increment quota %s", day)
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
