package features

import (
	"math"

	"github.com/ajitpratap0/creditrisk/pkg/columnar"
	"github.com/ajitpratap0/creditrisk/pkg/errors"
	"github.com/ajitpratap0/creditrisk/pkg/schema"
)

// derive adds a computed column to primary. An existing column of that name
// is a conflict, so a row-wise transform cannot be applied to its own output.
func derive(primary *columnar.Table, name string, col columnar.Column) (*columnar.Table, error) {
	if primary.Has(name) {
		return nil, errors.Newf(errors.ErrorTypeConflict, "column %q already exists in table %q",
			name, primary.Name()).WithDetail("column", name)
	}
	return primary.With(name, col)
}

// groupAndJoin aggregates aux per applicant and left-joins the result onto
// primary, filling 0
func groupAndJoin(primary, aux *columnar.Table, aggs ...columnar.Aggregation) (*columnar.Table, error) {
	agg, err := aggregate(aux, KeyApplicant, aggs...)
	if err != nil {
		return nil, err
	}
	return columnar.LeftJoin(primary, agg, KeyApplicant, 0)
}

func aggregate(t *columnar.Table, key string, aggs ...columnar.Aggregation) (*columnar.Table, error) {
	g, err := columnar.GroupBy(t, key)
	if err != nil {
		return nil, err
	}
	return g.Aggregate(aggs...)
}

// joinedValues returns column of agg aligned to the rows of primary, with 0
// for applicants agg does not cover. The result never becomes part of the
// primary table.
func joinedValues(primary, agg *columnar.Table, column string) ([]float64, error) {
	keys, err := primary.Select(KeyApplicant)
	if err != nil {
		return nil, err
	}
	joined, err := columnar.LeftJoin(keys, agg, KeyApplicant, 0)
	if err != nil {
		return nil, err
	}
	return joined.Floats(column)
}

// recentMask selects rows with MONTHS_BALANCE > -window
func recentMask(t *columnar.Table, window int) ([]bool, error) {
	months, err := t.Floats("MONTHS_BALANCE")
	if err != nil {
		return nil, err
	}
	limit := -float64(window)
	mask := make([]bool, len(months))
	for i, m := range months {
		mask[i] = m > limit
	}
	return mask, nil
}

// equalsMask selects rows whose string column equals value
func equalsMask(t *columnar.Table, column, value string) ([]bool, error) {
	col, err := t.Strings(column)
	if err != nil {
		return nil, err
	}
	mask := make([]bool, col.Len())
	for i := range mask {
		mask[i] = !col.IsNull(i) && col.Value(i) == value
	}
	return mask, nil
}

// positiveMask selects rows whose numeric column is > 0
func positiveMask(t *columnar.Table, column string) ([]bool, error) {
	values, err := t.Floats(column)
	if err != nil {
		return nil, err
	}
	mask := make([]bool, len(values))
	for i, v := range values {
		mask[i] = v > 0
	}
	return mask, nil
}

func and(masks ...[]bool) []bool {
	out := append([]bool(nil), masks[0]...)
	for _, m := range masks[1:] {
		for i := range out {
			out[i] = out[i] && m[i]
		}
	}
	return out
}

// percentOf returns num/income*100. A missing operand, or an income that is
// zero or negative, yields NaN.
func percentOf(num, income float64) float64 {
	if math.IsNaN(num) || math.IsNaN(income) || income <= 0 {
		return math.NaN()
	}
	return num / income * 100
}

func keyField() schema.Field {
	return schema.F(KeyApplicant, schema.KindKey)
}

func monthlyBalanceFields(extra ...schema.Field) []schema.Field {
	return append([]schema.Field{
		keyField(),
		schema.F("MONTHS_BALANCE", schema.KindNumeric),
	}, extra...)
}
