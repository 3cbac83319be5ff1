// Package testdb provides helpers for integration tests that need a real
// PostgreSQL database. Tests using it skip themselves when no database URL
// is configured, so the default `go test ./...` run stays self-contained.
package testdb

import (
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	"github.com/melodia/melodia-api/migrations"
)

// TestTimeout bounds individual test database operations.
const TestTimeout = 5 * time.Second

// URL returns the database URL for integration tests. It checks
// MELODIA_TEST_DB_URL first, then DATABASE_URL, returning the first
// non-empty value.
func URL() string {
	if dbURL := os.Getenv("MELODIA_TEST_DB_URL"); dbURL != "" {
		return dbURL
	}
	return os.Getenv("DATABASE_URL")
}

// Open connects to the test database and applies all embedded migrations.
// It skips the calling test when no database URL is configured and closes
// the connection during test cleanup.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := URL()
	if dbURL == "" {
		t.Skip("no test database configured, set MELODIA_TEST_DB_URL or DATABASE_URL")
	}

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	})

	require.NoError(t, db.Ping(), "failed to ping test database")

	goose.SetLogger(&testGooseLogger{t: t})
	goose.SetBaseFS(migrations.FS)
	require.NoError(t, goose.SetDialect("postgres"), "failed to set migration dialect")
	require.NoError(t, goose.Up(db, "."), "failed to apply migrations")

	return db
}

// WithTx runs fn inside a transaction that is always rolled back, keeping
// tests isolated from each other regardless of what they write.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.Begin()
	require.NoError(t, err, "failed to begin transaction")

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("failed to rollback transaction: %v", err)
		}
	}()

	fn(t, tx)
}

// testGooseLogger routes goose output through the test log.
type testGooseLogger struct {
	t *testing.T
}

func (l *testGooseLogger) Fatalf(format string, v ...interface{}) {
	l.t.Fatalf(format, v...)
}

func (l *testGooseLogger) Printf(format string, v ...interface{}) {
	l.t.Logf(format, v...)
}
