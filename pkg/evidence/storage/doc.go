// Package storage provides storage backends for evidence records.
//
//   - SQLite: embedded database, one file per deployment
//   - Memory: map-backed storage for tests and ephemeral runs
//
// # SQLite Backend
//
// Two database/sql drivers are supported. The default "sqlite" driver is the
// pure-Go modernc.org/sqlite; "sqlite3" selects github.com/mattn/go-sqlite3,
// which requires cgo. Both get the same schema, WAL journaling and busy
// timeout, expressed in each driver's DSN syntax.
//
// Timestamps are stored as Unix nanoseconds so ordering and range filters
// behave identically under either driver. Inference breakdowns are stored as
// JSON arrays.
//
// # Basic Usage
//
//	store, err := storage.New(&cfg.Evidence, logger)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	recent, err := store.Query(ctx, &evidence.Query{Limit: 10})
package storage
