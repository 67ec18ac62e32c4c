// Package storage persists presentation preferences.
package storage

import (
	"fmt"

	"coin-dashboard/src/interfaces"
	"coin-dashboard/src/logger"
	"coin-dashboard/src/models"
)

// Supported storage backends
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// NewPreferenceStore builds the configured backend. Callers still need to
// Initialize it.
func NewPreferenceStore(cfg *models.MConfig, log *logger.Logger) (interfaces.IPreferenceStore, error) {
	switch cfg.Storage.DBType {
	case BackendSQLite, "":
		return NewSQLitePreferenceStore(cfg, log.Named("SQLite")), nil
	case BackendPostgres:
		return NewPostgresPreferenceStore(cfg, log.Named("PostgresDB"))
	}
	return nil, fmt.Errorf("unsupported db_type %q", cfg.Storage.DBType)
}
