package evidence

import (
	"errors"
	"fmt"
)

// Sentinel errors. Match them with errors.Is; the typed errors below wrap them.
var (
	ErrBufferFull     = errors.New("evidence buffer full")
	ErrRecorderClosed = errors.New("evidence recorder closed")
	ErrStorageClosed  = errors.New("evidence storage closed")
)

// StorageError is a backend failure. Operation names the storage call that
// failed, such as "store" or "query".
type StorageError struct {
	Backend   string
	Operation string
	Cause     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s evidence %s: %v", e.Backend, e.Operation, e.Cause)
}

func (e *StorageError) Unwrap() error { return e.Cause }

// NewStorageError wraps cause.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}

// QueryError reports an invalid Query. Query is the rejected filter.
type QueryError struct {
	Query *Query
	Cause error
}

func (e *QueryError) Error() string { return "invalid evidence query: " + e.Cause.Error() }

func (e *QueryError) Unwrap() error { return e.Cause }

// NewQueryError wraps cause.
func NewQueryError(query *Query, cause error) *QueryError {
	return &QueryError{Query: query, Cause: cause}
}

// RecorderError reports an assessment whose evidence was not accepted.
type RecorderError struct {
	RecordID string
	Cause    error
}

func (e *RecorderError) Error() string {
	if e.RecordID == "" {
		return "evidence not recorded: " + e.Cause.Error()
	}
	return fmt.Sprintf("evidence for %s not recorded: %v", e.RecordID, e.Cause)
}

func (e *RecorderError) Unwrap() error { return e.Cause }

// NewRecorderError wraps cause.
func NewRecorderError(recordID string, cause error) *RecorderError {
	return &RecorderError{RecordID: recordID, Cause: cause}
}

// RetentionError reports which pruning phase failed: "age" or "count".
type RetentionError struct {
	Phase string
	Cause error
}

func (e *RetentionError) Error() string {
	return fmt.Sprintf("pruning by %s: %v", e.Phase, e.Cause)
}

func (e *RetentionError) Unwrap() error { return e.Cause }

// NewRetentionError wraps cause.
func NewRetentionError(phase string, cause error) *RetentionError {
	return &RetentionError{Phase: phase, Cause: cause}
}

// ExportError reports a failed export of RecordCount records.
type ExportError struct {
	Format      string
	RecordCount int
	Cause       error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("%s export of %d record(s): %v", e.Format, e.RecordCount, e.Cause)
}

func (e *ExportError) Unwrap() error { return e.Cause }

// NewExportError wraps cause.
func NewExportError(format string, recordCount int, cause error) *ExportError {
	return &ExportError{Format: format, RecordCount: recordCount, Cause: cause}
}
