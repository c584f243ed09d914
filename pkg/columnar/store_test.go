package columnar

import (
	"math"
	"testing"

	"github.com/ajitpratap0/creditrisk/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()
	tbl := NewTable("application")
	require.NoError(t, tbl.AddColumn("SK_ID_CURR", NewIntColumnFrom([]int64{1, 2, 3}, nil)))
	require.NoError(t, tbl.AddColumn("AMT_CREDIT", NewFloatColumnFrom([]float64{100, math.NaN(), 300})))
	require.NoError(t, tbl.AddColumn("NAME", NewStringColumnFrom([]string{"a", "", "c"}, []bool{true, false, true})))
	return tbl
}

func TestTable_AddColumn(t *testing.T) {
	tbl := newTestTable(t)
	assert.Equal(t, 3, tbl.RowCount())
	assert.Equal(t, 3, tbl.ColumnCount())
	assert.Equal(t, []string{"SK_ID_CURR", "AMT_CREDIT", "NAME"}, tbl.ColumnNames())

	err := tbl.AddColumn("AMT_CREDIT", NewFloatColumnFrom([]float64{1, 2, 3}))
	assert.True(t, errors.IsType(err, errors.ErrorTypeConflict))

	err = tbl.AddColumn("SHORT", NewFloatColumnFrom([]float64{1}))
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestTable_AppendRow(t *testing.T) {
	tbl := NewTableWithSchema("bureau", &Schema{Fields: []FieldSchema{
		{Name: "SK_ID_CURR", Type: ColumnTypeInt},
		{Name: "CREDIT_ACTIVE", Type: ColumnTypeString},
		{Name: "AMT_CREDIT_SUM_DEBT", Type: ColumnTypeFloat},
	}})

	require.NoError(t, tbl.AppendRow(map[string]interface{}{
		"SK_ID_CURR": "7", "CREDIT_ACTIVE": "Active", "AMT_CREDIT_SUM_DEBT": "12.5",
	}))
	require.NoError(t, tbl.AppendRow(map[string]interface{}{"SK_ID_CURR": 8}))
	assert.Equal(t, 2, tbl.RowCount())

	for name, want := range map[string]interface{}{
		"SK_ID_CURR":          int64(8),
		"CREDIT_ACTIVE":       nil,
		"AMT_CREDIT_SUM_DEBT": nil,
	} {
		col, err := tbl.Column(name)
		require.NoError(t, err)
		assert.Equal(t, want, col.Get(1), name)
	}

	err := tbl.AppendRow(map[string]interface{}{"UNKNOWN": 1})
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestTable_ColumnMissing(t *testing.T) {
	tbl := newTestTable(t)
	_, err := tbl.Column("AMT_GOODS_PRICE")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
	assert.Contains(t, err.Error(), "AMT_GOODS_PRICE")
}

func TestTable_WithIsCopyOnWrite(t *testing.T) {
	tbl := newTestTable(t)
	before := tbl.Fingerprint()

	out, err := tbl.With("AMT_CREDIT", NewFloatColumnFrom([]float64{0, 0, 0}))
	require.NoError(t, err)
	out, err = out.With("FLAG", NewIntColumnFrom([]int64{1, 0, 1}, nil))
	require.NoError(t, err)

	assert.Equal(t, before, tbl.Fingerprint())
	assert.False(t, tbl.Has("FLAG"))
	assert.True(t, out.Has("FLAG"))
	assert.Equal(t, []string{"SK_ID_CURR", "AMT_CREDIT", "NAME", "FLAG"}, out.ColumnNames())

	v, err := out.Floats("AMT_CREDIT")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, v)

	_, err = tbl.With("BAD", NewFloatColumnFrom([]float64{1}))
	assert.Error(t, err)
}

func TestTable_DropSelect(t *testing.T) {
	tbl := newTestTable(t)

	dropped, err := tbl.Drop("NAME")
	require.NoError(t, err)
	assert.Equal(t, []string{"SK_ID_CURR", "AMT_CREDIT"}, dropped.ColumnNames())
	assert.True(t, tbl.Has("NAME"))

	_, err = tbl.Drop("NOPE")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	sel, err := tbl.Select("NAME", "SK_ID_CURR")
	require.NoError(t, err)
	assert.Equal(t, []string{"NAME", "SK_ID_CURR"}, sel.ColumnNames())
	assert.Equal(t, 3, sel.RowCount())
}

func TestTable_Filter(t *testing.T) {
	tbl := newTestTable(t)

	out, err := tbl.Filter([]bool{true, false, true})
	require.NoError(t, err)
	assert.Equal(t, 2, out.RowCount())

	keys, err := out.Keys("SK_ID_CURR")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, keys)

	names, err := out.Strings("NAME")
	require.NoError(t, err)
	assert.Equal(t, "c", names.Value(1))
	assert.Equal(t, 0, names.NullCount())

	_, err = tbl.Filter([]bool{true})
	assert.Error(t, err)
}

func TestTable_Floats(t *testing.T) {
	tbl := newTestTable(t)
	bools := NewBoolColumn()
	require.NoError(t, bools.Append(true))
	require.NoError(t, bools.Append(nil))
	require.NoError(t, bools.Append("false"))
	require.NoError(t, tbl.AddColumn("B", bools))

	v, err := tbl.Floats("B")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v[0])
	assert.True(t, math.IsNaN(v[1]))
	assert.Equal(t, 0.0, v[2])

	_, err = tbl.Floats("NAME")
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))

	// the view is a copy
	v, err = tbl.Floats("AMT_CREDIT")
	require.NoError(t, err)
	v[0] = -1
	again, _ := tbl.Floats("AMT_CREDIT")
	assert.Equal(t, 100.0, again[0])
}

func TestTable_Keys(t *testing.T) {
	tbl := NewTable("t")
	require.NoError(t, tbl.AddColumn("K", NewFloatColumnFrom([]float64{1, 2.5})))
	_, err := tbl.Keys("K")
	assert.Error(t, err)

	tbl = NewTable("t")
	require.NoError(t, tbl.AddColumn("K", NewFloatColumnFrom([]float64{100002, -100003})))
	keys, err := tbl.Keys("K")
	require.NoError(t, err)
	assert.Equal(t, []int64{100002, -100003}, keys)

	for _, v := range []float64{1 << 60, -1e19, math.Inf(1)} {
		tbl = NewTable("t")
		require.NoError(t, tbl.AddColumn("K", NewFloatColumnFrom([]float64{1, v})))
		_, err = tbl.Keys("K")
		assert.True(t, errors.IsType(err, errors.ErrorTypeData), "key %v", v)
	}

	tbl = NewTable("t")
	require.NoError(t, tbl.AddColumn("K", NewIntColumnFrom([]int64{1, 0}, []bool{true, false})))
	_, err = tbl.Keys("K")
	assert.Error(t, err)
}

func TestTable_Fingerprint(t *testing.T) {
	a := newTestTable(t)
	b, err := newTestTable(t).Select("SK_ID_CURR", "AMT_CREDIT", "NAME")
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	c, err := a.With("AMT_CREDIT", NewFloatColumnFrom([]float64{100, 200, 300}))
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	assert.Equal(t, a.Fingerprint(), a.Clone().Fingerprint())
}

func TestColumn_Append(t *testing.T) {
	tests := []struct {
		name    string
		col     Column
		value   interface{}
		wantErr bool
		null    bool
	}{
		{"string", NewStringColumn(), "x", false, false},
		{"string empty", NewStringColumn(), "", false, true},
		{"string wrong type", NewStringColumn(), 1, true, false},
		{"int parse", NewIntColumn(), " 42 ", false, false},
		{"int bad", NewIntColumn(), "4.2", true, false},
		{"float nil", NewFloatColumn(), nil, false, true},
		{"float parse", NewFloatColumn(), "-3.5", false, false},
		{"bool yes", NewBoolColumn(), "yes", false, false},
		{"bool bad", NewBoolColumn(), "maybe", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.col.Append(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, tt.col.Len())
			assert.Equal(t, tt.null, tt.col.IsNull(0))
		})
	}
}

func TestBoolColumn_ManyValues(t *testing.T) {
	c := NewBoolColumn()
	for i := 0; i < 130; i++ {
		require.NoError(t, c.Append(i%3 == 0))
	}
	assert.Equal(t, 130, c.Len())
	assert.True(t, c.Value(129))
	assert.False(t, c.Value(128))

	taken := c.Take([]int{0, 1}).(*BoolColumn)
	assert.True(t, taken.Value(0))
	assert.False(t, taken.Value(1))
}
