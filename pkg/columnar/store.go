package columnar

import (
	"math"

	"github.com/ajitpratap0/creditrisk/pkg/errors"
)

// Schema defines the structure of a table
type Schema struct {
	Fields []FieldSchema
}

// FieldSchema defines a single field in the schema
type FieldSchema struct {
	Name string
	Type ColumnType
}

// Lookup returns the field with the given name
func (s *Schema) Lookup(name string) (FieldSchema, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSchema{}, false
}

// Table is an ordered set of equal-length named columns.
//
// Builder methods (AddColumn, AppendRow) mutate the table and are meant for
// loaders. Everything else is copy-on-write: With, Drop, Select and Filter
// return a new table and share untouched columns with the receiver.
type Table struct {
	name     string
	names    []string
	columns  []Column
	index    map[string]int
	rowCount int
}

// NewTable creates an empty table
func NewTable(name string) *Table {
	return &Table{
		name:  name,
		index: make(map[string]int),
	}
}

// NewTableWithSchema creates an empty table with predefined columns
func NewTableWithSchema(name string, schema *Schema) *Table {
	t := NewTable(name)
	for _, field := range schema.Fields {
		t.names = append(t.names, field.Name)
		t.columns = append(t.columns, NewColumn(field.Type))
		t.index[field.Name] = len(t.names) - 1
	}
	return t
}

// Name returns the table name used in errors and logs
func (t *Table) Name() string { return t.name }

// RowCount returns the number of rows
func (t *Table) RowCount() int { return t.rowCount }

// ColumnCount returns the number of columns
func (t *Table) ColumnCount() int { return len(t.columns) }

// ColumnNames returns column names in table order
func (t *Table) ColumnNames() []string {
	return append([]string(nil), t.names...)
}

// Has reports whether the table carries the named column
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column retrieves a column by name
func (t *Table) Column(name string) (Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, errors.MissingColumn(t.name, name)
	}
	return t.columns[i], nil
}

// Schema returns the current schema of the table
func (t *Table) Schema() *Schema {
	fields := make([]FieldSchema, len(t.names))
	for i, name := range t.names {
		fields[i] = FieldSchema{Name: name, Type: t.columns[i].Type()}
	}
	return &Schema{Fields: fields}
}

// AddColumn appends a column in place
func (t *Table) AddColumn(name string, col Column) error {
	if _, exists := t.index[name]; exists {
		return errors.Newf(errors.ErrorTypeConflict, "column %q already exists in table %q", name, t.name)
	}
	if len(t.columns) > 0 && col.Len() != t.rowCount {
		return errors.Newf(errors.ErrorTypeData, "column %q has %d rows, table %q has %d",
			name, col.Len(), t.name, t.rowCount)
	}
	if len(t.columns) == 0 {
		t.rowCount = col.Len()
	}
	t.names = append(t.names, name)
	t.columns = append(t.columns, col)
	t.index[name] = len(t.names) - 1
	return nil
}

// AppendRow adds a new row; columns absent from data get a missing entry
func (t *Table) AppendRow(data map[string]interface{}) error {
	for key := range data {
		if _, exists := t.index[key]; !exists {
			return errors.MissingColumn(t.name, key)
		}
	}

	for i, col := range t.columns {
		if err := col.Append(data[t.names[i]]); err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "error appending to column "+t.names[i])
		}
	}

	t.rowCount++
	return nil
}

// shallow copies the column list; columns themselves are shared
func (t *Table) shallow() *Table {
	out := &Table{
		name:     t.name,
		names:    append([]string(nil), t.names...),
		columns:  append([]Column(nil), t.columns...),
		index:    make(map[string]int, len(t.index)),
		rowCount: t.rowCount,
	}
	for k, v := range t.index {
		out.index[k] = v
	}
	return out
}

// With returns a new table where the named column is added or replaced
func (t *Table) With(name string, col Column) (*Table, error) {
	if len(t.columns) > 0 && col.Len() != t.rowCount {
		return nil, errors.Newf(errors.ErrorTypeData, "column %q has %d rows, table %q has %d",
			name, col.Len(), t.name, t.rowCount)
	}
	out := t.shallow()
	if i, ok := out.index[name]; ok {
		out.columns[i] = col
		return out, nil
	}
	if err := out.AddColumn(name, col); err != nil {
		return nil, err
	}
	return out, nil
}

// Drop returns a new table without the named columns
func (t *Table) Drop(names ...string) (*Table, error) {
	drop := make(map[string]struct{}, len(names))
	for _, name := range names {
		if !t.Has(name) {
			return nil, errors.MissingColumn(t.name, name)
		}
		drop[name] = struct{}{}
	}

	out := NewTable(t.name)
	out.rowCount = t.rowCount
	for i, name := range t.names {
		if _, ok := drop[name]; ok {
			continue
		}
		out.names = append(out.names, name)
		out.columns = append(out.columns, t.columns[i])
		out.index[name] = len(out.names) - 1
	}
	return out, nil
}

// Select returns a new table with only the named columns, in the given order
func (t *Table) Select(names ...string) (*Table, error) {
	out := NewTable(t.name)
	out.rowCount = t.rowCount
	for _, name := range names {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		out.names = append(out.names, name)
		out.columns = append(out.columns, col)
		out.index[name] = len(out.names) - 1
	}
	return out, nil
}

// Filter returns a new table with the rows where mask is true
func (t *Table) Filter(mask []bool) (*Table, error) {
	if len(mask) != t.rowCount {
		return nil, errors.Newf(errors.ErrorTypeData, "mask has %d entries, table %q has %d rows",
			len(mask), t.name, t.rowCount)
	}
	indices := make([]int, 0, len(mask))
	for i, keep := range mask {
		if keep {
			indices = append(indices, i)
		}
	}
	return t.Take(indices), nil
}

// Take returns a new table with the rows at the given indices
func (t *Table) Take(indices []int) *Table {
	out := NewTable(t.name)
	out.rowCount = len(indices)
	for i, name := range t.names {
		out.names = append(out.names, name)
		out.columns = append(out.columns, t.columns[i].Take(indices))
		out.index[name] = i
	}
	return out
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	out := t.shallow()
	for i, col := range out.columns {
		out.columns[i] = col.Clone()
	}
	return out
}

// Floats returns a numeric view of a column; missing entries are NaN.
// The returned slice is always a fresh copy.
func (t *Table) Floats(name string) ([]float64, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}

	out := make([]float64, col.Len())
	switch c := col.(type) {
	case *FloatColumn:
		copy(out, c.values)
	case *IntColumn:
		for i, v := range c.values {
			if !c.valid[i] {
				out[i] = math.NaN()
				continue
			}
			out[i] = float64(v)
		}
	case *BoolColumn:
		for i := range out {
			switch {
			case c.IsNull(i):
				out[i] = math.NaN()
			case c.Value(i):
				out[i] = 1
			}
		}
	default:
		return nil, errors.Newf(errors.ErrorTypeData, "column %q in table %q is %s, not numeric",
			name, t.name, col.Type()).WithDetail("column", name)
	}
	return out, nil
}

// Strings returns a string column by name
func (t *Table) Strings(name string) (*StringColumn, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	sc, ok := col.(*StringColumn)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeData, "column %q in table %q is %s, not string",
			name, t.name, col.Type()).WithDetail("column", name)
	}
	return sc, nil
}

// maxExactKey bounds float keys to integers a float64 represents exactly
const maxExactKey = 1 << 53

// Keys returns an integer key column. Float columns holding whole numbers are
// accepted; missing keys are an error.
func (t *Table) Keys(name string) ([]int64, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}

	out := make([]int64, col.Len())
	switch c := col.(type) {
	case *IntColumn:
		for i, v := range c.values {
			if !c.valid[i] {
				return nil, errors.Newf(errors.ErrorTypeData, "missing key in column %q row %d", name, i)
			}
			out[i] = v
		}
	case *FloatColumn:
		for i, v := range c.values {
			if math.IsNaN(v) || v != math.Trunc(v) {
				return nil, errors.Newf(errors.ErrorTypeData, "non-integral key %v in column %q row %d", v, name, i)
			}
			if math.Abs(v) > maxExactKey {
				return nil, errors.Newf(errors.ErrorTypeData, "key %v in column %q row %d is out of range", v, name, i)
			}
			out[i] = int64(v)
		}
	default:
		return nil, errors.Newf(errors.ErrorTypeData, "key column %q in table %q is %s, not int",
			name, t.name, col.Type())
	}
	return out, nil
}

// MemoryUsage returns total memory usage in bytes
func (t *Table) MemoryUsage() int64 {
	var total int64 = 64
	for i, col := range t.columns {
		total += int64(len(t.names[i]))
		total += col.MemoryUsage()
	}
	return total
}
