package gorm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestLatencyWindow_Empty(t *testing.T) {
	w := NewLatencyWindow(10)
	s := w.Summary()
	assert.Zero(t, s.Total)
	assert.Zero(t, s.Samples)
	assert.Zero(t, s.Avg)
}

func TestLatencyWindow_Summary(t *testing.T) {
	w := NewLatencyWindow(10)
	for _, ms := range []int{4, 1, 3, 2} {
		w.Record(time.Duration(ms) * time.Millisecond)
	}

	s := w.Summary()
	assert.Equal(t, int64(4), s.Total)
	assert.Equal(t, 4, s.Samples)
	assert.Equal(t, time.Millisecond, s.Min)
	assert.Equal(t, 4*time.Millisecond, s.Max)
	assert.Equal(t, 2500*time.Microsecond, s.Avg)
	assert.Zero(t, s.P95, "P95 needs at least 20 samples")
}

func TestLatencyWindow_Wraps(t *testing.T) {
	w := NewLatencyWindow(20)
	for i := 1; i <= 30; i++ {
		w.Record(time.Duration(i) * time.Millisecond)
	}

	s := w.Summary()
	assert.Equal(t, int64(30), s.Total)
	assert.Equal(t, 20, s.Samples)
	assert.Equal(t, 11*time.Millisecond, s.Min, "oldest samples are overwritten")
	assert.Equal(t, 30*time.Millisecond, s.Max)
	assert.Equal(t, 30*time.Millisecond, s.P95)
}

func TestNewLatencyWindow_DefaultSize(t *testing.T) {
	w := NewLatencyWindow(0)
	assert.Len(t, w.samples, 100)
}

func newPingMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Silent),
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)

	store, err := NewStoreFromDB(db)
	require.NoError(t, err)
	return store, mock
}

func TestHealthCheck_Cached(t *testing.T) {
	store, mock := newPingMockStore(t)
	mock.ExpectPing()

	first := store.HealthCheck(context.Background())
	assert.Equal(t, "healthy", first.Status)
	assert.Equal(t, "postgres", first.Dialect)

	second := store.HealthCheck(context.Background())
	assert.Same(t, first, second, "second call within the TTL is served from cache")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthCheck_Unhealthy(t *testing.T) {
	store, mock := newPingMockStore(t)
	mock.ExpectPing().WillReturnError(errors.New("server closed the connection"))

	info := store.HealthCheck(context.Background())
	assert.Equal(t, "unhealthy", info.Status)
	assert.Contains(t, info.Error, "server closed")
}

func TestHealthCheck_Degraded(t *testing.T) {
	store, mock := newPingMockStore(t)
	mock.ExpectPing()
	for i := 0; i < 20; i++ {
		store.latency.Record(80 * time.Millisecond)
	}

	info := store.HealthCheck(context.Background())
	assert.Equal(t, "degraded", info.Status)
	assert.Contains(t, info.Warning, "P95")
}

func TestStore_Observe(t *testing.T) {
	store, _ := newMockStore(t)

	store.observe(context.Background(), EntryTable, "count", time.Now(), nil)
	store.observe(context.Background(), EntryTable, "count", time.Now().Add(-time.Second), errors.New("boom"))

	assert.Equal(t, int64(2), store.latency.Summary().Total)
	assert.GreaterOrEqual(t, store.latency.Summary().Max, time.Second)
}
