package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"coin-dashboard/src/logger"
	"coin-dashboard/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresPreferenceStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

// NewPostgresPreferenceStore keeps its tables in a schema named after the
// application, or the executable when no name is configured.
func NewPostgresPreferenceStore(cfg *models.MConfig, log *logger.Logger) (*PostgresPreferenceStore, error) {
	name := cfg.Name
	if name == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to get executable name: %w", err)
		}
		name = filepath.Base(exe)
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}

	return &PostgresPreferenceStore{
		Config: cfg,
		Schema: name,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresPreferenceStore) Initialize(ctx context.Context) error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}

	d.DB = db

	if _, err := d.DB.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, d.schema())); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`, d.schema())
	if _, err := d.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create preferences: %w", err)
	}

	d.Logger.Info("PostgresDB: using schema %s", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresPreferenceStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	query := fmt.Sprintf(`SELECT value FROM %s.preferences WHERE key = $1`, d.schema())
	err := d.DB.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read preference %s: %w", key, err)
	}
	return value, true, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresPreferenceStore) Set(ctx context.Context, key, value string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s.preferences (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, d.schema())
	if _, err := d.DB.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to save preference %s: %w", key, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresPreferenceStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------

// schema returns the quoted schema identifier.
func (d *PostgresPreferenceStore) schema() string {
	return `"` + strings.ReplaceAll(d.Schema, `"`, `""`) + `"`
}
