package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"mercator-hq/perfscore/pkg/evidence"
	"mercator-hq/perfscore/pkg/fuzzy"
)

// Driver names registered with database/sql.
const (
	// DriverModernc is the pure-Go driver from modernc.org/sqlite.
	DriverModernc = "sqlite"

	// DriverMattn is the cgo driver from github.com/mattn/go-sqlite3.
	DriverMattn = "sqlite3"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Driver selects the database/sql driver ("sqlite" or "sqlite3").
	// Default: "sqlite"
	Driver string

	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Driver:       DriverModernc,
		Path:         "data/evidence.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage creates a new SQLite storage backend.
// It creates the parent directory, initializes the schema and applies the
// journal and busy-timeout pragmas through the driver DSN.
func NewSQLiteStorage(config *SQLiteConfig, logger *slog.Logger) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Driver == "" {
		config.Driver = DriverModernc
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "evidence.storage.sqlite")

	dsn, err := buildDSN(config)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "open", err)
	}

	if dir := filepath.Dir(config.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, evidence.NewStorageError("sqlite", "open", err)
		}
	}

	db, err := sql.Open(config.Driver, dsn)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "open", err)
	}

	// Configure connection pool
	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", config.Path,
		"driver", config.Driver,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

// buildDSN encodes the pragmas in the parameter syntax of each driver.
func buildDSN(config *SQLiteConfig) (string, error) {
	if config.Path == "" {
		return "", fmt.Errorf("database path is required")
	}

	busyMs := config.BusyTimeout.Milliseconds()
	var params []string

	switch config.Driver {
	case DriverModernc:
		params = append(params, fmt.Sprintf("_pragma=busy_timeout(%d)", busyMs))
		if config.WALMode {
			params = append(params, "_pragma=journal_mode(WAL)")
		}
	case DriverMattn:
		params = append(params, fmt.Sprintf("_busy_timeout=%d", busyMs))
		if config.WALMode {
			params = append(params, "_journal_mode=WAL")
		}
	default:
		return "", fmt.Errorf("unsupported driver %q (must be %q or %q)", config.Driver, DriverModernc, DriverMattn)
	}

	return config.Path + "?" + strings.Join(params, "&"), nil
}

// initialize creates the schema and verifies its version.
func (s *SQLiteStorage) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return evidence.NewStorageError("sqlite", "create_schema", err)
	}
	s.logger.Debug("database schema created")

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return evidence.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return evidence.NewStorageError("sqlite", "get_schema_version", err)
	}

	if version != SchemaVersion {
		return evidence.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

// Store persists an evidence record to the database.
func (s *SQLiteStorage) Store(ctx context.Context, record *evidence.Record) error {
	memberships, err := json.Marshal(record.Memberships)
	if err != nil {
		return evidence.NewStorageError("sqlite", "store", err)
	}
	activations, err := json.Marshal(record.Activations)
	if err != nil {
		return evidence.NewStorageError("sqlite", "store", err)
	}

	query := `
		INSERT INTO evidence (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		record.ID, record.OperatorID,
		record.Operations, record.ErrorRate,
		record.Score, string(record.Category),
		string(memberships), string(activations),
		record.RuleSet, record.RuleSetVersion, record.RuleSetChecksum, record.InputHash,
		toNanos(record.EvaluatedAt), toNanos(record.RecordedAt),
		record.DurationMicros,
	)
	if err != nil {
		return evidence.NewStorageError("sqlite", "store", err)
	}

	return nil
}

// Query retrieves evidence records matching the query filters.
func (s *SQLiteStorage) Query(ctx context.Context, query *evidence.Query) ([]*evidence.Record, error) {
	whereClause, args := s.buildWhereClause(query)

	sqlQuery := "SELECT " + recordColumns + " FROM evidence"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	order := "DESC"
	if strings.EqualFold(query.SortOrder, "asc") {
		order = "ASC"
	}
	sqlQuery += fmt.Sprintf(" ORDER BY evaluated_at %s, id %s", order, order)

	// SQLite requires a LIMIT before OFFSET; -1 means unbounded.
	limit := -1
	if query.Limit > 0 {
		limit = query.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)
	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	records := []*evidence.Record{}
	for rows.Next() {
		record, err := s.scanRow(rows)
		if err != nil {
			return nil, evidence.NewStorageError("sqlite", "scan", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, evidence.NewStorageError("sqlite", "query", err)
	}

	return records, nil
}

// Count returns the number of evidence records matching the query filters.
func (s *SQLiteStorage) Count(ctx context.Context, query *evidence.Query) (int64, error) {
	whereClause, args := s.buildWhereClause(query)

	sqlQuery := "SELECT COUNT(*) FROM evidence"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, evidence.NewStorageError("sqlite", "count", err)
	}

	return count, nil
}

// DeleteOlderThan removes records evaluated before cutoff.
func (s *SQLiteStorage) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM evidence WHERE evaluated_at < ?", toNanos(cutoff))
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "delete_older_than", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "delete_older_than", err)
	}

	return count, nil
}

// DeleteOldest removes the oldest records so that at most keep remain.
func (s *SQLiteStorage) DeleteOldest(ctx context.Context, keep int64) (int64, error) {
	if keep < 0 {
		return 0, evidence.NewStorageError("sqlite", "delete_oldest", fmt.Errorf("keep must be >= 0, got %d", keep))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "delete_oldest", err)
	}
	defer tx.Rollback()

	var total int64
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM evidence").Scan(&total); err != nil {
		return 0, evidence.NewStorageError("sqlite", "delete_oldest", err)
	}

	excess := total - keep
	if excess <= 0 {
		return 0, nil
	}

	result, err := tx.ExecContext(ctx, `
		DELETE FROM evidence WHERE id IN (
			SELECT id FROM evidence ORDER BY evaluated_at ASC, id ASC LIMIT ?
		)`, excess)
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "delete_oldest", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "delete_oldest", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, evidence.NewStorageError("sqlite", "delete_oldest", err)
	}

	return deleted, nil
}

// Ping verifies the database connection.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return evidence.NewStorageError("sqlite", "ping", err)
	}
	return nil
}

// Close releases resources held by the storage backend.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return evidence.NewStorageError("sqlite", "close", err)
	}

	s.logger.Info("SQLite storage closed")
	return nil
}

// buildWhereClause builds a SQL WHERE clause from query filters.
// Returns the WHERE clause (without "WHERE" keyword) and the query arguments.
func (s *SQLiteStorage) buildWhereClause(query *evidence.Query) (string, []any) {
	var conditions []string
	var args []any

	if query.StartTime != nil {
		conditions = append(conditions, "evaluated_at >= ?")
		args = append(args, toNanos(*query.StartTime))
	}
	if query.EndTime != nil {
		conditions = append(conditions, "evaluated_at <= ?")
		args = append(args, toNanos(*query.EndTime))
	}

	if query.OperatorID != "" {
		conditions = append(conditions, "operator_id = ?")
		args = append(args, query.OperatorID)
	}
	if query.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, string(query.Category))
	}

	if query.MinScore != nil {
		conditions = append(conditions, "score >= ?")
		args = append(args, *query.MinScore)
	}
	if query.MaxScore != nil {
		conditions = append(conditions, "score <= ?")
		args = append(args, *query.MaxScore)
	}

	return strings.Join(conditions, " AND "), args
}

// scanRow scans a database row into a Record.
func (s *SQLiteStorage) scanRow(rows *sql.Rows) (*evidence.Record, error) {
	var record evidence.Record
	var category, memberships, activations string
	var evaluatedAt, recordedAt int64

	err := rows.Scan(
		&record.ID, &record.OperatorID,
		&record.Operations, &record.ErrorRate,
		&record.Score, &category,
		&memberships, &activations,
		&record.RuleSet, &record.RuleSetVersion, &record.RuleSetChecksum, &record.InputHash,
		&evaluatedAt, &recordedAt,
		&record.DurationMicros,
	)
	if err != nil {
		return nil, err
	}

	record.Category = fuzzy.Category(category)
	record.EvaluatedAt = fromNanos(evaluatedAt)
	record.RecordedAt = fromNanos(recordedAt)

	if err := json.Unmarshal([]byte(memberships), &record.Memberships); err != nil {
		return nil, fmt.Errorf("decode memberships of %s: %w", record.ID, err)
	}
	if err := json.Unmarshal([]byte(activations), &record.Activations); err != nil {
		return nil, fmt.Errorf("decode activations of %s: %w", record.ID, err)
	}

	return &record, nil
}

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
