// Package evidence defines the audit trail for operator assessments.
//
// Every assessment produced by the service may be persisted as an immutable
// Record that carries the crisp inputs, the score and category, every term
// membership and every rule activation, plus the rule set that produced it.
// A stored record is enough to explain a score without re-running the engine.
//
// # Architecture
//
// The evidence system consists of four layers:
//
//  1. Recorder (package recorder) - builds records and writes them asynchronously
//  2. Storage (package storage) - memory and SQLite backends behind Storage
//  3. Query (package query) - validation and defaults for Query values
//  4. Retention (package retention) - age and count pruning on a cron schedule
//
// # Recording Flow
//
//	Service.Assess
//	     ↓
//	Recorder.Record (non-blocking, bounded buffer)
//	     ↓
//	worker goroutine
//	     ↓
//	Storage.Store (with write timeout)
//
// When the buffer is full the record is dropped and a warning is logged;
// assessments never wait on storage.
//
// # Querying Evidence
//
//	records, err := store.Query(ctx, &evidence.Query{
//	    OperatorID: "op-17",
//	    Category:   fuzzy.CategoryLow,
//	    Limit:      50,
//	})
//
// Records are returned newest first unless SortOrder is "asc".
//
// # Thread Safety
//
// Storage implementations and the Recorder are safe for concurrent use.
package evidence
