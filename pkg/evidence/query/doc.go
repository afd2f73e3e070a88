// Package query validates evidence queries and fills in their defaults
// before they reach a storage backend.
//
// The validator checks:
//
//   - Limit >= 0 and <= the configured maximum
//   - Offset >= 0
//   - Sort order is "asc" or "desc"
//   - Category is a known performance band
//   - Time range is ordered (start <= end)
//   - Score thresholds are finite and ordered
//
// # Basic Usage
//
//	q := &evidence.Query{OperatorID: "op-17", Limit: 25}
//	if err := query.Validate(q, cfg.Evidence.Query.MaxLimit); err != nil {
//	    return err
//	}
//	query.ApplyDefaults(q, cfg.Evidence.Query.DefaultLimit)
//	records, err := store.Query(ctx, q)
package query
