package history

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/clif-c-of-mcp-server/internal/domain"
)

const selectValue = "SELECT value FROM kv_store WHERE key = $1"

func newMockStorage(t *testing.T) (*PostgresStorage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	storage, err := NewPostgresStorage(db)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return storage, mock
}

func TestNewPostgresStorage_RequiresDB(t *testing.T) {
	_, err := NewPostgresStorage(nil)
	assert.Error(t, err)
}

func TestPostgresStorage_Get(t *testing.T) {
	storage, mock := newMockStorage(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectValue)).
		WithArgs(DefaultKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`[]`)))

	value, err := storage.Get(context.Background(), DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(value))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_GetMissing(t *testing.T) {
	storage, mock := newMockStorage(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectValue)).
		WithArgs("absent").
		WillReturnError(sql.ErrNoRows)

	_, err := storage.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_GetError(t *testing.T) {
	storage, mock := newMockStorage(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectValue)).
		WithArgs(DefaultKey).
		WillReturnError(errors.New("connection reset"))

	_, err := storage.Get(context.Background(), DefaultKey)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgresStorage_Set(t *testing.T) {
	storage, mock := newMockStorage(t)

	mock.ExpectExec("INSERT INTO kv_store").
		WithArgs(DefaultKey, []byte(`[{"id":"a"}]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := storage.Set(context.Background(), DefaultKey, []byte(`[{"id":"a"}]`))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping PostgreSQL container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Skipf("PostgreSQL container unavailable: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate PostgreSQL container: %v", err)
		}
	}()

	url, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	cfg := domain.HistoryConfig{
		Backend:     domain.BackendPostgres,
		PostgresURL: url,
		MaxEntries:  10,
	}
	store, err := Open(ctx, cfg, newTestLogger())
	require.NoError(t, err)

	saved := store.Add(ctx, result(domain.ACLF2, 12))
	require.NoError(t, store.Close())

	reopened, err := Open(ctx, cfg, newTestLogger())
	require.NoError(t, err)
	defer reopened.Close()

	got, ok := reopened.Get(saved.ID)
	require.True(t, ok)
	assert.Equal(t, domain.ACLF2, got.Grade)
}
