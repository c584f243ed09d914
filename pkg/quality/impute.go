package quality

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/ajitpratap0/creditrisk/pkg/columnar"
	"github.com/ajitpratap0/creditrisk/pkg/errors"
	"github.com/ajitpratap0/creditrisk/pkg/logger"
	"go.uber.org/zap"
)

// ImputeResult describes what DistinctValues did to a column
type ImputeResult struct {
	Column string
	// Applied is false when no prefix of frequent values covered enough of
	// the column; the table is then returned unchanged
	Applied bool
	// Candidates are the most frequent values missing entries were drawn from
	Candidates []interface{}
	Missing    int
	Filled     int
}

type frequency struct {
	value interface{}
	count int
}

// valueCounts returns the distinct present values of col by descending
// count; equal counts keep the order of first occurrence
func valueCounts(col columnar.Column) []frequency {
	pos := make(map[interface{}]int)
	var freqs []frequency
	for i := 0; i < col.Len(); i++ {
		v := col.Get(i)
		if v == nil {
			continue
		}
		j, ok := pos[v]
		if !ok {
			j = len(freqs)
			pos[v] = j
			freqs = append(freqs, frequency{value: v})
		}
		freqs[j].count++
	}
	sort.SliceStable(freqs, func(i, j int) bool { return freqs[i].count > freqs[j].count })
	return freqs
}

// DistinctValues fills the missing entries of column with values drawn
// uniformly from its most frequent values.
//
// Candidate sets are the i most frequent values for i = 0, 1, ...,
// unique-1; the first whose counts sum to more than fraction of the present
// entries is used. The full set of values is never tried, so when no proper
// prefix qualifies nothing is filled, Applied is false and a warning is
// logged. rng supplies the draws; nil seeds one from the clock.
//
// The input table is not modified.
func DistinctValues(ctx context.Context, t *columnar.Table, column string, fraction float64, rng *rand.Rand) (*columnar.Table, *ImputeResult, error) {
	if fraction < 0 || fraction > 1 {
		return nil, nil, errors.Newf(errors.ErrorTypeConfig, "fraction %v outside [0, 1]", fraction).
			WithDetail("column", column)
	}
	col, err := t.Column(column)
	if err != nil {
		return nil, nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	freqs := valueCounts(col)
	present := col.Len() - col.NullCount()
	result := &ImputeResult{Column: column, Missing: col.NullCount()}

	threshold := float64(present) * fraction
	covered := 0
	for i := 0; i < len(freqs); i++ {
		if float64(covered) > threshold {
			for _, f := range freqs[:i] {
				result.Candidates = append(result.Candidates, f.value)
			}
			break
		}
		covered += freqs[i].count
	}

	log := logger.WithContext(ctx).With(zap.String("column", column), zap.Float64("fraction", fraction))
	if result.Candidates == nil {
		log.Warn("no frequent-value prefix covers the fraction, column left unchanged",
			zap.Int("unique", len(freqs)),
			zap.Int("missing", result.Missing))
		return t, result, nil
	}

	filled := columnar.NewColumn(col.Type())
	for i := 0; i < col.Len(); i++ {
		v := col.Get(i)
		if v == nil {
			v = result.Candidates[rng.Intn(len(result.Candidates))]
			result.Filled++
		}
		if err := filled.Append(v); err != nil {
			return nil, nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to rebuild column "+column)
		}
	}
	result.Applied = true

	log.Info("imputed missing values",
		zap.Int("candidates", len(result.Candidates)),
		zap.Int("filled", result.Filled))

	out, err := t.With(column, filled)
	if err != nil {
		return nil, nil, err
	}
	return out, result, nil
}

// ImputeColumns runs DistinctValues over several columns in order
func ImputeColumns(ctx context.Context, t *columnar.Table, columns []string, fraction float64, rng *rand.Rand) (*columnar.Table, []*ImputeResult, error) {
	results := make([]*ImputeResult, 0, len(columns))
	for _, column := range columns {
		out, result, err := DistinctValues(ctx, t, column, fraction, rng)
		if err != nil {
			return nil, nil, err
		}
		t = out
		results = append(results, result)
	}
	return t, results, nil
}
