package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"coin-dashboard/src/logger"
	"coin-dashboard/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLitePreferenceStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
	now    func() time.Time
}

// -----------------------------------------------------------------------------

func NewSQLitePreferenceStore(cfg *models.MConfig, log *logger.Logger) *SQLitePreferenceStore {
	return &SQLitePreferenceStore{
		Config: cfg,
		Logger: log,
		now:    time.Now,
	}
}

// -----------------------------------------------------------------------------

func (d *SQLitePreferenceStore) Initialize(ctx context.Context) error {
	dsn := d.Config.Storage.DBPath

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables(ctx)
}

// -----------------------------------------------------------------------------

func (d *SQLitePreferenceStore) createTables(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`
	if _, err := d.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create preferences: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLitePreferenceStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := d.DB.QueryRowContext(ctx, "SELECT value FROM preferences WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read preference %s: %w", key, err)
	}
	return value, true, nil
}

// -----------------------------------------------------------------------------

func (d *SQLitePreferenceStore) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := d.DB.ExecContext(ctx, query, key, value, d.now().Unix()); err != nil {
		return fmt.Errorf("failed to save preference %s: %w", key, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLitePreferenceStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
