package features

import (
	"math"
	"testing"

	"github.com/ajitpratap0/creditrisk/pkg/columnar"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

type testColumn struct {
	name string
	col  columnar.Column
}

func ints(name string, values ...int64) testColumn {
	return testColumn{name, columnar.NewIntColumnFrom(values, nil)}
}

func floats(name string, values ...float64) testColumn {
	return testColumn{name, columnar.NewFloatColumnFrom(values)}
}

// strs builds a string column; "" is a missing entry
func strs(name string, values ...string) testColumn {
	c := columnar.NewStringColumn()
	for _, v := range values {
		_ = c.Append(v)
	}
	return testColumn{name, c}
}

func newTable(t *testing.T, name string, cols ...testColumn) *columnar.Table {
	t.Helper()
	tbl := columnar.NewTable(name)
	for _, c := range cols {
		require.NoError(t, tbl.AddColumn(c.name, c.col))
	}
	return tbl
}

// applicants is a primary table with three applicants
func applicants(t *testing.T, extra ...testColumn) *columnar.Table {
	t.Helper()
	return newTable(t, "application", append([]testColumn{ints(KeyApplicant, 1, 2, 3)}, extra...)...)
}

func mustFloats(t *testing.T, tbl *columnar.Table, name string) []float64 {
	t.Helper()
	v, err := tbl.Floats(name)
	require.NoError(t, err)
	return v
}

func mustStrings(t *testing.T, tbl *columnar.Table, name string) []interface{} {
	t.Helper()
	col, err := tbl.Column(name)
	require.NoError(t, err)
	out := make([]interface{}, col.Len())
	for i := range out {
		out[i] = col.Get(i)
	}
	return out
}
