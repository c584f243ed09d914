// Package config loads and validates the configuration of a feature run.
//
// A run is described by a single Config, organized into sections:
//   - Input: data directory, primary file, auxiliary table files
//   - Output: destination path and format
//   - Features: ordered step names and the parameters of each transform
//   - Imputation: columns filled by distinct-value imputation
//   - Pipeline: runtime checks
//   - Observability: logging, metrics and tracing
//
// Files are YAML. ${VAR} and ${VAR:-default} references are replaced from the
// environment before parsing, and every key not present in the file keeps the
// value from NewDefaultConfig.
//
//	cfg, err := config.LoadConfig("creditrisk.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	steps, err := features.NewRegistry().CreateAll(cfg.Features.Steps, cfg.Features.Options())
//
// Validation failures are reported as errors of type ErrorTypeConfig.
package config
