// Package creditrisk derives credit-risk features from a loan-application
// table and the historical tables that describe each applicant.
//
// The primary table has one row per applicant keyed by SK_ID_CURR. Auxiliary
// tables (credit-card balances, POS/cash balances, bureau records and their
// monthly balances, previous applications, installment payments) are
// aggregated per applicant and left-joined back, with a fill value for
// applicants that have no history.
//
// # Architecture
//
// Every feature is a transform: a pure function from the primary table and
// the auxiliary tables to a new primary table with the same rows. A transform
// declares a schema contract (the columns it requires, produces and drops) so
// a list of transforms is validated before any data is touched.
//
//	pkg/columnar      - typed in-memory tables, group-by, left join, fingerprints
//	pkg/schema        - schema contracts and CSV type inference
//	pkg/features      - the feature transforms and their registry
//	pkg/quality       - missing-value report and frequent-value imputation
//	pkg/tableio       - CSV, Parquet and Arrow IPC reading and writing
//	pkg/submission    - prediction export and threshold sweeps
//	internal/pipeline - ordered execution with logging, metrics and tracing
//	cmd/creditrisk    - command line interface
//
// # Quick Start
//
//	steps, _ := features.NewRegistry().CreateAll(features.DefaultSteps, features.DefaultOptions())
//	p, _ := pipeline.New(&pipeline.Config{Name: "enrich"}, logger, steps...)
//
//	tables, _ := tableio.LoadAll(ctx, "data", files, tableio.ReadOptions{Concurrency: 4})
//	enriched, stats, err := p.Run(ctx, tables["application"], features.Tables(aux))
//
// Or from the command line:
//
//	creditrisk enrich --input-dir data --output features.parquet
//	creditrisk missing data/application_train.csv --format json
//
// # Missing values
//
// Float columns mark missing entries with NaN; int, string and bool columns
// carry a validity mask. The numeric view of any column maps missing entries
// to NaN, and derived columns are filled explicitly, never the whole table.
package creditrisk
