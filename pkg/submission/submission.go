// Package submission exports model predictions for enriched applications.
//
// The classifier itself lives outside this module; it is plugged in through
// the Scorer interface. A submission file has two columns, SK_ID_CURR and
// TARGET (the predicted probability of default), a header row and no index.
//
// A Sweep scores the same table once per threshold of a model parameter and
// writes one file per threshold, named log_{threshold}_mean.csv:
//
//	sweep := &submission.Sweep{
//		Dir:        "submissions/temp",
//		Thresholds: submission.DefaultThresholds(),
//		NewScorer:  func(th float64) (submission.Scorer, error) { return train(th) },
//	}
//	paths, err := sweep.Run(ctx, ids, enriched)
package submission

import (
	"context"
	"math"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/ajitpratap0/creditrisk/pkg/columnar"
	"github.com/ajitpratap0/creditrisk/pkg/errors"
	"github.com/ajitpratap0/creditrisk/pkg/tableio"
)

const (
	// IDColumn holds the applicant id
	IDColumn = "SK_ID_CURR"
	// TargetColumn holds the predicted positive-class probability
	TargetColumn = "TARGET"
)

// Scorer returns one positive-class probability per row of an enriched table
type Scorer interface {
	Score(ctx context.Context, features *columnar.Table) ([]float64, error)
}

// ScorerFunc adapts a function to Scorer
type ScorerFunc func(ctx context.Context, features *columnar.Table) ([]float64, error)

// Score calls f
func (f ScorerFunc) Score(ctx context.Context, features *columnar.Table) ([]float64, error) {
	return f(ctx, features)
}

// ColumnScorer reads probabilities already present in a column, for example
// scores joined in from an external model run
type ColumnScorer struct {
	Column string
}

// Score returns the numeric view of the column
func (s ColumnScorer) Score(_ context.Context, features *columnar.Table) ([]float64, error) {
	return features.Floats(s.Column)
}

// Predictions builds the two-column submission table
func Predictions(ids []int64, probs []float64) (*columnar.Table, error) {
	if len(ids) != len(probs) {
		return nil, errors.Newf(errors.ErrorTypeData, "%d ids but %d predictions", len(ids), len(probs))
	}
	for i, p := range probs {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return nil, errors.Newf(errors.ErrorTypeData, "prediction %v for applicant %d is not a probability", p, ids[i]).
				WithDetail("row", i)
		}
	}

	t := columnar.NewTable("submission")
	if err := t.AddColumn(IDColumn, columnar.NewIntColumnFrom(append([]int64(nil), ids...), nil)); err != nil {
		return nil, err
	}
	if err := t.AddColumn(TargetColumn, columnar.NewFloatColumnFrom(append([]float64(nil), probs...))); err != nil {
		return nil, err
	}
	return t, nil
}

// WritePredictions writes a submission file to path. The file is always CSV;
// a compression extension such as .gz is honoured.
func WritePredictions(path string, ids []int64, probs []float64) error {
	t, err := Predictions(ids, probs)
	if err != nil {
		return err
	}
	return tableio.Save(path, t, tableio.WriteOptions{Format: tableio.CSV})
}

// DefaultThresholds returns 0.001 through 0.009
func DefaultThresholds() []float64 {
	return Thresholds(9, 0.001)
}

// Thresholds returns i*step for i = 1..n
func Thresholds(n int, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i+1) * step
	}
	return out
}

// SweepPath returns the file of one sweep threshold inside dir. The
// threshold is printed in its shortest round-trip form, so 3*0.001 gives
// log_0.003_mean.csv.
func SweepPath(dir string, threshold float64) string {
	return filepath.Join(dir, "log_"+strconv.FormatFloat(threshold, 'f', -1, 64)+"_mean.csv")
}

// Sweep writes one submission per threshold
type Sweep struct {
	Dir        string
	Thresholds []float64
	// NewScorer returns the model fitted for one threshold
	NewScorer func(threshold float64) (Scorer, error)
	Logger    *zap.Logger
}

// Run scores features with the scorer of every threshold and writes the
// results. ids must be taken from the table before the id column is dropped
// and follow the same row order. It returns the written paths in threshold
// order.
func (s *Sweep) Run(ctx context.Context, ids []int64, features *columnar.Table) ([]string, error) {
	if s.NewScorer == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "sweep has no scorer factory")
	}
	if len(ids) != features.RowCount() {
		return nil, errors.Newf(errors.ErrorTypeData, "%d ids for %d rows", len(ids), features.RowCount())
	}
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}

	paths := make([]string, 0, len(s.Thresholds))
	for _, th := range s.Thresholds {
		if err := ctx.Err(); err != nil {
			return paths, err
		}

		scorer, err := s.NewScorer(th)
		if err != nil {
			return paths, errors.Wrap(err, errors.TypeOf(err), "failed to build scorer").
				WithDetail("threshold", th)
		}
		probs, err := scorer.Score(ctx, features)
		if err != nil {
			return paths, errors.Wrap(err, errors.TypeOf(err), "scoring failed").
				WithDetail("threshold", th)
		}

		path := SweepPath(s.Dir, th)
		if err := WritePredictions(path, ids, probs); err != nil {
			return paths, err
		}
		log.Info("wrote submission", zap.Float64("threshold", th), zap.String("path", path))
		paths = append(paths, path)
	}
	return paths, nil
}
