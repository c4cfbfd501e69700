package gorm

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{":memory:", ":memory:?_time_format=sqlite"},
		{"/tmp/archive.db", "/tmp/archive.db?_time_format=sqlite&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"},
		{"file:archive.db?mode=ro", "file:archive.db?mode=ro"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, sqliteDSN(tt.path))
		})
	}
}

func TestConfig_Open(t *testing.T) {
	dialector, maxConns, err := Config{Path: ":memory:", MaxConns: 8}.open()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", dialector.Name())
	assert.Equal(t, 1, maxConns, "an in-memory database lives on one connection")

	sd, ok := dialector.(*sqlite.Dialector)
	require.True(t, ok, "got %T", dialector)
	assert.Equal(t, "sqlite", sd.DriverName)

	_, maxConns, err = Config{Path: "archive.db"}.open()
	require.NoError(t, err)
	assert.Equal(t, 4, maxConns)

	dialector, maxConns, err = Config{DSN: "postgres://localhost/archive"}.open()
	require.NoError(t, err)
	assert.Equal(t, "postgres", dialector.Name())
	assert.Equal(t, 10, maxConns)

	_, _, err = Config{}.open()
	assert.ErrorIs(t, err, ErrNoDatabase)
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	saved := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = saved })
	return &buf
}

func TestWithTimeout_DefaultsToQueryTimeout(t *testing.T) {
	store, _ := newMockStore(t)

	ctx, done := store.WithTimeout(context.Background(), 0, "entries.count")
	defer done()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(DefaultQueryTimeout), deadline, time.Second)
}

func TestWithTimeout_LogsSlowOperations(t *testing.T) {
	store, _ := newMockStore(t)
	buf := captureLog(t)

	_, done := store.WithTimeout(context.Background(), time.Second, "entries.fast")
	done()
	assert.Empty(t, buf.String())

	_, done = store.WithTimeout(context.Background(), time.Second, "entries.count")
	time.Sleep(SlowQueryThreshold + 20*time.Millisecond)
	done()
	assert.Contains(t, buf.String(), "Slow database operation")
	assert.Contains(t, buf.String(), "entries.count")
}

func TestArchiveStore_QueryDeadline(t *testing.T) {
	store, mock := newMockStore(t)
	store.queryTimeout = 20 * time.Millisecond
	buf := captureLog(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "entries"`).
		WillDelayFor(200 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))

	_, err := NewEntryStore(store).CountAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count entries")
	assert.Contains(t, buf.String(), "Archive query failed")
}
