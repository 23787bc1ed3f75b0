package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/factsync/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS runs`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_StartRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO runs \(id, job, status, started_at\)`).
		WithArgs(pgxmock.AnyArg(), "fundamentals", "running", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.StartRun(context.Background(), "fundamentals")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_StartRun_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "price", "running", pgxmock.AnyArg()).
		WillReturnError(errors.New("connection refused"))

	_, err := s.StartRun(context.Background(), "price")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: insert run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FinishRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET status = \$1`).
		WithArgs("complete", 4, 1, 0, 2, false, "", pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.FinishRun(context.Background(), "run-1", model.RunResult{
		Status: model.RunStatusComplete,
		Counts: model.Counts{Success: 4, Partial: 1, Skipped: 2},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FinishRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET status`).
		WithArgs("complete", 0, 0, 0, 0, false, "", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.FinishRun(context.Background(), "missing", model.RunResult{Status: model.RunStatusComplete})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	started := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	finished := started.Add(5 * time.Minute)
	rows := pgxmock.NewRows([]string{
		"id", "job", "status", "success", "partial", "failed", "skipped",
		"stopped_early", "error", "started_at", "finished_at",
	}).
		AddRow("run-2", "price", "stopped", 10, 0, 1, 2, true, "", started, &finished).
		AddRow("run-1", "price", "running", 0, 0, 0, 0, false, "", started, (*time.Time)(nil))

	mock.ExpectQuery(`(?s)SELECT id, job, status.*FROM runs WHERE 1=1 AND job = \$1 ORDER BY started_at DESC LIMIT \$2`).
		WithArgs("price", 5).
		WillReturnRows(rows)

	runs, err := s.ListRuns(context.Background(), RunFilter{Job: "price", Limit: 5})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, model.RunStatusStopped, runs[0].Status)
	assert.Equal(t, 10, runs[0].Counts.Success)
	assert.True(t, runs[0].StoppedEarly)
	require.NotNil(t, runs[0].FinishedAt)
	assert.Equal(t, finished, *runs[0].FinishedAt)
	assert.Nil(t, runs[1].FinishedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns_DefaultLimit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM runs WHERE 1=1 ORDER BY started_at DESC LIMIT \$1`).
		WithArgs(20).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "job", "status", "success", "partial", "failed", "skipped",
			"stopped_early", "error", "started_at", "finished_at",
		}))

	runs, err := s.ListRuns(context.Background(), RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_QuotaUsed(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT used FROM search_quota WHERE day = \$1`).
		WithArgs("2026-03-01").
		WillReturnRows(pgxmock.NewRows([]string{"used"}).AddRow(42))

	used, err := s.QuotaUsed(context.Background(), "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 42, used)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_QuotaUsed_NoRow(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT used FROM search_quota`).
		WithArgs("2026-03-02").
		WillReturnError(pgx.ErrNoRows)

	used, err := s.QuotaUsed(context.Background(), "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, 0, used)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_IncrementQuota(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`(?s)INSERT INTO search_quota.*ON CONFLICT \(day\) DO UPDATE.*RETURNING used`).
		WithArgs("2026-03-01", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"used"}).AddRow(7))

	used, err := s.IncrementQuota(context.Background(), "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 7, used)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_IncrementQuota_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`INSERT INTO search_quota`).
		WithArgs("2026-03-01", pgxmock.AnyArg()).
		WillReturnError(errors.New("deadlock"))

	_, err := s.IncrementQuota(context.Background(), "2026-03-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: increment quota")
	assert.NoError(t, mock.ExpectationsWereMet())
}
