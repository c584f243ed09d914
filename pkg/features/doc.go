// Package features implements the record-enrichment transforms of the
// credit-risk pipeline.
//
// Each transform takes the primary application table, plus the auxiliary
// tables it names in its contract, and returns a new primary table with
// derived columns appended. Inputs are never modified: tables are
// copy-on-write and auxiliary aggregates are built into fresh tables.
//
// Transforms that summarise an auxiliary table follow one shape:
//
//  1. filter the auxiliary rows
//  2. group by SK_ID_CURR and aggregate
//  3. left-join the aggregate onto the primary table, filling 0
//
// The join refuses duplicate keys, so a skipped aggregation shows up as an
// error rather than as silently multiplied rows. Only the derived column is
// filled; missing values elsewhere in the primary table are left alone.
//
// # Registry
//
// Transforms are created by name from a Registry so that a pipeline can be
// described in configuration:
//
//	reg := features.NewRegistry()
//	t, err := reg.Create("credit_card_dpd", features.DefaultOptions())
package features
