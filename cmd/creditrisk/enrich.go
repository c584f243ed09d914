package main

import (
	"math/rand"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/creditrisk/internal/pipeline"
	"github.com/ajitpratap0/creditrisk/pkg/columnar"
	"github.com/ajitpratap0/creditrisk/pkg/config"
	"github.com/ajitpratap0/creditrisk/pkg/features"
	"github.com/ajitpratap0/creditrisk/pkg/logger"
	"github.com/ajitpratap0/creditrisk/pkg/metrics"
	"github.com/ajitpratap0/creditrisk/pkg/quality"
	"github.com/ajitpratap0/creditrisk/pkg/tableio"
)

// primaryTable names the application table while it is loaded with the
// auxiliary ones
const primaryTable = "application"

func newEnrichCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Load the tables, run the feature steps and write the enriched table",
		Long: `Load the primary application table and the auxiliary tables, run the
configured feature steps in order, optionally impute missing values and write
the enriched table. The output format follows the file extension
(.csv, .csv.gz, .csv.zst, .parquet, .arrow).

Example:
  creditrisk enrich --config run.yaml --output features.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return runEnrich(cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("input-dir", "", "Directory holding the input tables")
	flags.String("primary", "", "Primary table file, relative to the input directory")
	flags.StringP("output", "o", "", "Output file")
	flags.String("format", "", "Output format overriding the extension (csv, parquet, arrow)")
	flags.StringSlice("steps", nil, "Feature steps to run, in order")
	flags.StringSlice("impute", nil, "Columns to impute after the feature steps")
	flags.Bool("verify-purity", false, "Fail when a step modifies an input table")
	flags.String("metrics-file", "", "Write Prometheus metrics to this file at the end of the run")
	flags.Bool("tracing", false, "Export spans to stderr")
	_ = v.BindPFlag("input.dir", flags.Lookup("input-dir"))
	_ = v.BindPFlag("input.primary", flags.Lookup("primary"))
	_ = v.BindPFlag("output.path", flags.Lookup("output"))
	_ = v.BindPFlag("output.format", flags.Lookup("format"))
	_ = v.BindPFlag("features.steps", flags.Lookup("steps"))
	_ = v.BindPFlag("imputation.columns", flags.Lookup("impute"))
	_ = v.BindPFlag("pipeline.verify_purity", flags.Lookup("verify-purity"))
	_ = v.BindPFlag("observability.metrics_file", flags.Lookup("metrics-file"))
	_ = v.BindPFlag("observability.enable_tracing", flags.Lookup("tracing"))
	return cmd
}

func runEnrich(cfg *config.Config) error {
	s, err := startSession(cfg)
	if err != nil {
		return err
	}
	defer s.close()

	steps, err := features.NewRegistry().CreateAll(cfg.Features.Steps, cfg.Features.Options())
	if err != nil {
		return err
	}
	// the pipeline adds the run id from the context itself
	p, err := pipeline.New(&pipeline.Config{Name: cfg.Name, VerifyPurity: cfg.Pipeline.VerifyPurity}, logger.Get(), steps...)
	if err != nil {
		return err
	}

	files := make(map[string]string, len(cfg.Input.Auxiliary)+1)
	for name, file := range cfg.Input.Auxiliary {
		files[name] = file
	}
	files[primaryTable] = cfg.Input.Primary

	start := time.Now()
	tables, err := tableio.LoadAll(s.ctx, cfg.Input.Dir, files, tableio.ReadOptions{
		SampleSize:  cfg.Input.InferenceSampleSize,
		Concurrency: cfg.Input.Concurrency,
		Logger:      s.log,
	})
	if err != nil {
		return err
	}

	collector := metrics.NewCollector(cfg.Name)
	primary := tables[primaryTable]
	delete(tables, primaryTable)
	for name, t := range tables {
		collector.RecordTable(name, t.RowCount())
	}
	collector.RecordTable(primaryTable, primary.RowCount())
	s.log.Info("tables loaded", zap.Int("tables", len(files)), zap.Duration("duration", time.Since(start)))

	enriched, stats, err := p.Run(s.ctx, primary, features.Tables(tables))
	if err != nil {
		return err
	}

	if len(cfg.Imputation.Columns) > 0 {
		enriched, err = impute(s, collector, enriched, cfg.Imputation)
		if err != nil {
			return err
		}
	}

	if err := tableio.Save(cfg.Output.Path, enriched, tableio.WriteOptions{Format: tableio.Format(cfg.Output.Format)}); err != nil {
		return err
	}
	s.log.Info("enriched table written",
		zap.String("path", cfg.Output.Path),
		zap.Int("rows", enriched.RowCount()),
		zap.Int("columns", enriched.ColumnCount()),
		zap.Int("steps", len(stats.Steps)),
		zap.Duration("duration", time.Since(start)))

	if cfg.Observability.MetricsFile != "" {
		if _, err := collector.SampleMemory(); err != nil {
			s.log.Debug("memory sample unavailable", zap.Error(err))
		}
		if err := metrics.WriteToTextfile(cfg.Observability.MetricsFile); err != nil {
			return err
		}
	}
	return nil
}

func impute(s *session, collector *metrics.Collector, t *columnar.Table, cfg config.ImputationConfig) (*columnar.Table, error) {
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // sampling, not security
	out, results, err := quality.ImputeColumns(s.ctx, t, cfg.Columns, cfg.Fraction, rng)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		collector.RecordImputed(r.Column, r.Filled)
		s.log.Info("column imputed",
			zap.String("column", r.Column),
			zap.Bool("applied", r.Applied),
			zap.Int("missing", r.Missing),
			zap.Int("filled", r.Filled),
			zap.Int("candidates", len(r.Candidates)))
	}
	return out, nil
}
