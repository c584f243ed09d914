package quality

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/ajitpratap0/creditrisk/pkg/columnar"
	"github.com/ajitpratap0/creditrisk/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skewed holds A x5, B x3, C x1 and two missing entries
func skewed(t *testing.T) *columnar.Table {
	t.Helper()
	col := columnar.NewStringColumn()
	for _, v := range []string{"A", "B", "", "A", "C", "A", "B", "A", "", "B", "A"} {
		require.NoError(t, col.Append(v))
	}
	tbl := columnar.NewTable("application")
	require.NoError(t, tbl.AddColumn("NAME_TYPE_SUITE", col))
	return tbl
}

func values(t *testing.T, tbl *columnar.Table, name string) []interface{} {
	t.Helper()
	col, err := tbl.Column(name)
	require.NoError(t, err)
	out := make([]interface{}, col.Len())
	for i := range out {
		out[i] = col.Get(i)
	}
	return out
}

func TestDistinctValues_SingleCandidate(t *testing.T) {
	in := skewed(t)
	before := in.Fingerprint()

	out, result, err := DistinctValues(context.Background(), in, "NAME_TYPE_SUITE", 0.5, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	assert.True(t, result.Applied)
	assert.Equal(t, []interface{}{"A"}, result.Candidates)
	assert.Equal(t, 2, result.Missing)
	assert.Equal(t, 2, result.Filled)

	got := values(t, out, "NAME_TYPE_SUITE")
	assert.Equal(t, "A", got[2])
	assert.Equal(t, "A", got[8])
	assert.Equal(t, before, in.Fingerprint())
}

func TestDistinctValues_TwoCandidates(t *testing.T) {
	out, result, err := DistinctValues(context.Background(), skewed(t), "NAME_TYPE_SUITE", 0.6, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	assert.Equal(t, []interface{}{"A", "B"}, result.Candidates)
	for _, v := range values(t, out, "NAME_TYPE_SUITE") {
		assert.NotNil(t, v)
	}
	col, _ := out.Column("NAME_TYPE_SUITE")
	assert.Equal(t, 0, col.NullCount())
}

func TestDistinctValues_NoPrefixQualifies(t *testing.T) {
	in := skewed(t)

	out, result, err := DistinctValues(context.Background(), in, "NAME_TYPE_SUITE", 0.95, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	assert.False(t, result.Applied)
	assert.Empty(t, result.Candidates)
	assert.Equal(t, 0, result.Filled)
	assert.Equal(t, in.Fingerprint(), out.Fingerprint())
}

func TestDistinctValues_TiesKeepFirstOccurrence(t *testing.T) {
	nan := math.NaN()
	tbl := columnar.NewTable("application")
	require.NoError(t, tbl.AddColumn("EXT_SOURCE_3", columnar.NewFloatColumnFrom([]float64{0.7, 0.2, 0.2, 0.7, nan, 0.1})))

	out, result, err := DistinctValues(context.Background(), tbl, "EXT_SOURCE_3", 0.1, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, []interface{}{0.7}, result.Candidates)

	v, err := out.Floats("EXT_SOURCE_3")
	require.NoError(t, err)
	assert.Equal(t, 0.7, v[4])
}

func TestDistinctValues_SeededDraws(t *testing.T) {
	a, _, err := DistinctValues(context.Background(), skewed(t), "NAME_TYPE_SUITE", 0.6, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	b, _, err := DistinctValues(context.Background(), skewed(t), "NAME_TYPE_SUITE", 0.6, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestDistinctValues_IntColumn(t *testing.T) {
	tbl := columnar.NewTable("application")
	require.NoError(t, tbl.AddColumn("CNT_FAM_MEMBERS",
		columnar.NewIntColumnFrom([]int64{2, 2, 0, 1}, []bool{true, true, false, true})))

	out, result, err := DistinctValues(context.Background(), tbl, "CNT_FAM_MEMBERS", 0.5, nil)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(2)}, result.Candidates)
	assert.Equal(t, []interface{}{int64(2), int64(2), int64(2), int64(1)}, values(t, out, "CNT_FAM_MEMBERS"))
}

func TestDistinctValues_Errors(t *testing.T) {
	_, _, err := DistinctValues(context.Background(), skewed(t), "NAME_TYPE_SUITE", 1.5, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, _, err = DistinctValues(context.Background(), skewed(t), "MISSING", 0.5, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestImputeColumns(t *testing.T) {
	tbl := skewed(t)
	require.NoError(t, tbl.AddColumn("EXT_SOURCE_2",
		columnar.NewFloatColumnFrom([]float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, math.NaN()})))

	out, results, err := ImputeColumns(context.Background(), tbl, []string{"NAME_TYPE_SUITE", "EXT_SOURCE_2"}, 0.5, rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Applied)
	// a single distinct value is never tried as a prefix
	assert.False(t, results[1].Applied)

	col, _ := out.Column("EXT_SOURCE_2")
	assert.Equal(t, 1, col.NullCount())
}
