package main

import (
	"fmt"
	"math/rand"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/creditrisk/pkg/features"
	"github.com/ajitpratap0/creditrisk/pkg/metrics"
	"github.com/ajitpratap0/creditrisk/pkg/quality"
	"github.com/ajitpratap0/creditrisk/pkg/submission"
	"github.com/ajitpratap0/creditrisk/pkg/tableio"
)

func newMissingCommand(v *viper.Viper) *cobra.Command {
	var format, xlsx string
	cmd := &cobra.Command{
		Use:   "missing <table>",
		Short: "Report missing values per column",
		Long: `Count the missing entries of every column of a table. Columns without
missing entries are left out; the rest are sorted by descending percentage.

Example:
  creditrisk missing application_train.csv --format json
  creditrisk missing bureau.csv.zst --xlsx bureau_missing.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			s, err := startSession(cfg)
			if err != nil {
				return err
			}
			defer s.close()

			t, err := tableio.Load(s.ctx, args[0], tableName(args[0]), tableio.ReadOptions{
				SampleSize: cfg.Input.InferenceSampleSize,
				Logger:     s.log,
			})
			if err != nil {
				return err
			}
			report := quality.MissingValues(t)

			if xlsx != "" {
				if err := report.SaveXLSX(xlsx); err != nil {
					return err
				}
				s.log.Info("missing-value report written", zap.String("path", xlsx))
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				return report.WriteJSON(out)
			case "csv":
				rt, err := report.ToTable()
				if err != nil {
					return err
				}
				return tableio.WriteCSV(out, rt)
			default:
				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintf(w, "%s\t%s\t%s\n", quality.ColumnFeature, quality.ColumnCount, quality.ColumnPercent)
				for _, e := range report.Entries {
					fmt.Fprintf(w, "%s\t%d\t%.2f\n", e.Feature, e.Count, e.Percent)
				}
				return w.Flush()
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, csv, json)")
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "Also write the report to this Excel workbook")
	return cmd
}

func newImputeCommand(v *viper.Viper) *cobra.Command {
	var columns []string
	var fraction float64
	var seed int64
	cmd := &cobra.Command{
		Use:   "impute <input> <output>",
		Short: "Fill missing values from the most frequent values of each column",
		Long: `Fill the missing entries of the given columns with values drawn uniformly
from the most frequent values of each column. The smallest set of most
frequent values covering more than --fraction of the present entries is used;
when no such proper subset exists the column is left unchanged.

Example:
  creditrisk impute application_train.csv imputed.csv --column OCCUPATION_TYPE --fraction 0.5`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			s, err := startSession(cfg)
			if err != nil {
				return err
			}
			defer s.close()

			t, err := tableio.Load(s.ctx, args[0], tableName(args[0]), tableio.ReadOptions{
				SampleSize: cfg.Input.InferenceSampleSize,
				Logger:     s.log,
			})
			if err != nil {
				return err
			}

			collector := metrics.NewCollector("impute")
			rng := rand.New(rand.NewSource(seed)) //nolint:gosec // sampling, not security
			out, results, err := quality.ImputeColumns(s.ctx, t, columns, fraction, rng)
			if err != nil {
				return err
			}
			for _, r := range results {
				collector.RecordImputed(r.Column, r.Filled)
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d of %d missing filled from %d values (applied=%t)\n",
					r.Column, r.Filled, r.Missing, len(r.Candidates), r.Applied)
			}
			return tableio.Save(args[1], out, tableio.WriteOptions{})
		},
	}
	cmd.Flags().StringSliceVar(&columns, "column", nil, "Column to impute; repeat for several")
	cmd.Flags().Float64Var(&fraction, "fraction", 0.1, "Share of present entries the candidate values must cover")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Seed of the random draws")
	_ = cmd.MarkFlagRequired("column")
	return cmd
}

func newSubmitCommand(v *viper.Viper) *cobra.Command {
	var column, output string
	cmd := &cobra.Command{
		Use:   "submit <scores>",
		Short: "Write a submission file from a table of applicant scores",
		Long: `Read a table holding SK_ID_CURR and a column of predicted default
probabilities and write the two-column submission file (SK_ID_CURR, TARGET).

Example:
  creditrisk submit scores.csv --column PROBA --output submissions/log_0.001_mean.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			s, err := startSession(cfg)
			if err != nil {
				return err
			}
			defer s.close()

			t, err := tableio.Load(s.ctx, args[0], tableName(args[0]), tableio.ReadOptions{Logger: s.log})
			if err != nil {
				return err
			}
			ids, err := t.Keys(features.KeyApplicant)
			if err != nil {
				return err
			}
			probs, err := submission.ColumnScorer{Column: column}.Score(s.ctx, t)
			if err != nil {
				return err
			}
			if err := submission.WritePredictions(output, ids, probs); err != nil {
				return err
			}
			s.log.Info("submission written", zap.String("path", output), zap.Int("rows", len(ids)))
			return nil
		},
	}
	cmd.Flags().StringVar(&column, "column", submission.TargetColumn, "Column holding the probabilities")
	cmd.Flags().StringVarP(&output, "output", "o", "submission.csv", "Submission file")
	return cmd
}

func newStepsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List the available feature steps and their schema contracts",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := features.NewRegistry()
			inDefault := make(map[string]bool, len(features.DefaultSteps))
			for _, name := range features.DefaultSteps {
				inDefault[name] = true
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STEP\tDEFAULT\tCONTRACT")
			for _, name := range registry.List() {
				step, err := registry.Create(name, features.DefaultOptions())
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%t\t%s\n", name, inDefault[name], step.Contract())
			}
			return w.Flush()
		},
	}
}

// tableName derives a table name from a file name: bureau.csv.zst -> bureau
func tableName(path string) string {
	name := path
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return name
}
