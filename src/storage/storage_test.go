package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"coin-dashboard/src/logger"
	"coin-dashboard/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *models.MConfig {
	cfg := &models.MConfig{Name: "coin_dashboard_test"}
	cfg.Storage.DBType = BackendSQLite
	cfg.Storage.DBPath = filepath.Join(t.TempDir(), "prefs.db")
	return cfg
}

func testLogger() *logger.Logger {
	log := logger.NewLogger(nil, "storage-test")
	log.SetOutput(io.Discard)
	return log
}

// -----------------------------------------------------------------------------

func TestSQLitePreferenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	store := NewSQLitePreferenceStore(cfg, testLogger())
	require.NoError(t, store.Initialize(ctx))
	defer store.Close()

	_, ok, err := store.Get(ctx, "theme")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "theme", "dark"))
	require.NoError(t, store.Set(ctx, "theme", "light"))

	value, ok, err := store.Get(ctx, "theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "light", value)
}

func TestSQLitePreferenceSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	first := NewSQLitePreferenceStore(cfg, testLogger())
	first.now = func() time.Time { return time.Unix(1700000000, 0) }
	require.NoError(t, first.Initialize(ctx))
	require.NoError(t, first.Set(ctx, "theme", "dark"))
	require.NoError(t, first.Close())

	second := NewSQLitePreferenceStore(cfg, testLogger())
	require.NoError(t, second.Initialize(ctx))
	defer second.Close()

	value, ok, err := second.Get(ctx, "theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", value)

	var updated int64
	require.NoError(t, second.DB.QueryRow("SELECT updated_at FROM preferences WHERE key = 'theme'").Scan(&updated))
	assert.Equal(t, int64(1700000000), updated)
}

func TestNewPreferenceStore(t *testing.T) {
	cfg := testConfig(t)
	store, err := NewPreferenceStore(cfg, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &SQLitePreferenceStore{}, store)

	cfg.Storage.DBType = BackendPostgres
	store, err = NewPreferenceStore(cfg, testLogger())
	require.NoError(t, err)
	pg := store.(*PostgresPreferenceStore)
	assert.Equal(t, "coin_dashboard_test", pg.Schema)
	assert.Equal(t, `"coin_dashboard_test"`, pg.schema())

	cfg.Storage.DBType = "mysql"
	_, err = NewPreferenceStore(cfg, testLogger())
	assert.Error(t, err)
}

func TestPostgresPreferenceRoundTrip(t *testing.T) {
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("DB_CONNECTION_STRING not set")
	}
	ctx := context.Background()
	cfg := &models.MConfig{Name: "coin_dashboard_test"}
	cfg.Storage.DBConnectionString = dsn

	store, err := NewPostgresPreferenceStore(cfg, testLogger())
	require.NoError(t, err)
	require.NoError(t, store.Initialize(ctx))
	defer store.Close()

	require.NoError(t, store.Set(ctx, "theme", "dark"))
	value, ok, err := store.Get(ctx, "theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", value)
}
