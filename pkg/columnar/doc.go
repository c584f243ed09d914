// Package columnar implements the in-memory table used by the feature
// transforms.
//
// # Overview
//
// A Table is an ordered set of equal-length named columns. Four column types
// are supported:
//
//   - StringColumn: strings with a validity mask
//   - IntColumn: int64 values with a validity mask
//   - FloatColumn: float64 values; NaN marks a missing entry
//   - BoolColumn: bit-packed booleans with a packed null mask
//
// # Immutability
//
// Loaders build tables with AddColumn and AppendRow. Once a column is attached
// it is never written again: With, Drop, Select, Filter and Take all return a
// new table that shares untouched columns with the receiver. This is what
// lets a transform take a table and hand back an enriched one without the
// caller's copy changing underneath it.
//
// # Aggregation and joins
//
// GroupBy partitions rows by an integer key, and Aggregate reduces each group
// with Sum, Mean, Max or Count. Missing values are skipped by Sum, Mean and
// Max; a group with no present values sums to 0 and has a NaN mean and max.
//
// LeftJoin attaches the columns of an aggregated table to a primary one:
//
//	agg, err := grouping.Aggregate(columnar.Sum("SK_DPD", "SK_DPD"))
//	if err != nil {
//	    return nil, err
//	}
//	out, err := columnar.LeftJoin(app, agg, "SK_ID_CURR", 0)
//
// The right-hand keys must be unique. Rows without a match, and matched
// values that are missing, receive the fill value.
//
// # Fingerprints
//
// Table.Fingerprint hashes the content of a table with xxh3. The pipeline
// uses it to confirm that auxiliary tables come out of a run unchanged.
package columnar
