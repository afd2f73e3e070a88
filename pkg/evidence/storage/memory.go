package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"mercator-hq/perfscore/pkg/evidence"
)

// MemoryStorage implements the Storage interface using an in-memory map.
// Records are lost on restart; use it for tests and ephemeral deployments.
type MemoryStorage struct {
	records map[string]*evidence.Record
	closed  bool
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*evidence.Record),
	}
}

// Store persists an evidence record to memory. Record IDs must be unique.
func (s *MemoryStorage) Store(ctx context.Context, record *evidence.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return evidence.NewStorageError("memory", "store", evidence.ErrStorageClosed)
	}
	if _, exists := s.records[record.ID]; exists {
		return evidence.NewStorageError("memory", "store", fmt.Errorf("duplicate record id %q", record.ID))
	}

	s.records[record.ID] = cloneRecord(record)
	return nil
}

// Query retrieves evidence records matching the query filters.
func (s *MemoryStorage) Query(ctx context.Context, query *evidence.Query) ([]*evidence.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, evidence.NewStorageError("memory", "query", evidence.ErrStorageClosed)
	}

	results := []*evidence.Record{}
	for _, record := range s.records {
		if matchesQuery(record, query) {
			results = append(results, cloneRecord(record))
		}
	}

	sortRecords(results, query.SortOrder == "asc")

	// Apply pagination
	start := query.Offset
	if start > len(results) {
		return []*evidence.Record{}, nil
	}
	results = results[start:]

	if query.Limit > 0 && query.Limit < len(results) {
		results = results[:query.Limit]
	}

	return results, nil
}

// Count returns the number of evidence records matching the query filters.
func (s *MemoryStorage) Count(ctx context.Context, query *evidence.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, evidence.NewStorageError("memory", "count", evidence.ErrStorageClosed)
	}

	var count int64
	for _, record := range s.records {
		if matchesQuery(record, query) {
			count++
		}
	}

	return count, nil
}

// DeleteOlderThan removes records evaluated before cutoff.
func (s *MemoryStorage) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, evidence.NewStorageError("memory", "delete_older_than", evidence.ErrStorageClosed)
	}

	var deleted int64
	for id, record := range s.records {
		if record.EvaluatedAt.Before(cutoff) {
			delete(s.records, id)
			deleted++
		}
	}

	return deleted, nil
}

// DeleteOldest removes the oldest records so that at most keep remain.
func (s *MemoryStorage) DeleteOldest(ctx context.Context, keep int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, evidence.NewStorageError("memory", "delete_oldest", evidence.ErrStorageClosed)
	}
	if keep < 0 {
		return 0, evidence.NewStorageError("memory", "delete_oldest", fmt.Errorf("keep must be >= 0, got %d", keep))
	}

	excess := int64(len(s.records)) - keep
	if excess <= 0 {
		return 0, nil
	}

	all := make([]*evidence.Record, 0, len(s.records))
	for _, record := range s.records {
		all = append(all, record)
	}
	sortRecords(all, true)

	for _, record := range all[:excess] {
		delete(s.records, record.ID)
	}

	return excess, nil
}

// Ping reports an error once the storage has been closed.
func (s *MemoryStorage) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return evidence.NewStorageError("memory", "ping", evidence.ErrStorageClosed)
	}
	return nil
}

// Close releases resources held by the storage backend.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*evidence.Record)
	s.closed = true
	return nil
}

// Size returns the number of records in storage.
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// matchesQuery checks if a record matches the query filters.
func matchesQuery(record *evidence.Record, query *evidence.Query) bool {
	if query.StartTime != nil && record.EvaluatedAt.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && record.EvaluatedAt.After(*query.EndTime) {
		return false
	}

	if query.OperatorID != "" && record.OperatorID != query.OperatorID {
		return false
	}
	if query.Category != "" && record.Category != query.Category {
		return false
	}

	if query.MinScore != nil && record.Score < *query.MinScore {
		return false
	}
	if query.MaxScore != nil && record.Score > *query.MaxScore {
		return false
	}

	return true
}

// sortRecords orders by evaluation time then ID, newest first unless asc.
func sortRecords(records []*evidence.Record, asc bool) {
	slices.SortFunc(records, func(a, b *evidence.Record) int {
		c := a.EvaluatedAt.Compare(b.EvaluatedAt)
		if c == 0 {
			switch {
			case a.ID < b.ID:
				c = -1
			case a.ID > b.ID:
				c = 1
			}
		}
		if asc {
			return c
		}
		return -c
	})
}

func cloneRecord(record *evidence.Record) *evidence.Record {
	c := *record
	c.Memberships = slices.Clone(record.Memberships)
	c.Activations = slices.Clone(record.Activations)
	return &c
}
