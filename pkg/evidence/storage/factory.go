package storage

import (
	"fmt"
	"log/slog"

	"mercator-hq/perfscore/pkg/config"
	"mercator-hq/perfscore/pkg/evidence"
)

// New creates the storage backend selected by cfg.Backend.
func New(cfg *config.EvidenceConfig, logger *slog.Logger) (evidence.Storage, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStorage(), nil
	case "sqlite", "":
		return NewSQLiteStorage(&SQLiteConfig{
			Driver:       cfg.SQLite.Driver,
			Path:         cfg.SQLite.Path,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.SQLite.MaxIdleConns,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown evidence backend %q", cfg.Backend)
	}
}
