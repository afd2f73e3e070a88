// Package export writes evidence records for offline analysis.
//
// JSON output is always an array, even for zero or one record, so consumers
// can decode it without sniffing. CSV output flattens each record to one row:
// fired rule names are joined with ";" and timestamps are RFC 3339 in UTC.
// Memberships are not part of the CSV; use JSON when the full breakdown is
// needed.
//
//	exp, err := export.New("csv")
//	if err != nil {
//	    return err
//	}
//	return exp.Export(ctx, records, w)
//
// Failures are returned as *evidence.ExportError.
package export
