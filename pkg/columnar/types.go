// Package columnar provides the typed, column-oriented in-memory table that
// every feature transform reads and produces.
package columnar

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ColumnType represents the data type of a column
type ColumnType int

const (
	ColumnTypeString ColumnType = iota
	ColumnTypeInt
	ColumnTypeFloat
	ColumnTypeBool
)

// String returns the lower-case name of the type
func (t ColumnType) String() string {
	switch t {
	case ColumnTypeString:
		return "string"
	case ColumnTypeInt:
		return "int"
	case ColumnTypeFloat:
		return "float"
	case ColumnTypeBool:
		return "bool"
	default:
		return "unknown"
	}
}

// IsNumeric reports whether a column of this type has a numeric view
func (t ColumnType) IsNumeric() bool {
	return t == ColumnTypeInt || t == ColumnTypeFloat || t == ColumnTypeBool
}

// Column is the base interface for all column types.
//
// Columns are built with Append and treated as immutable once they are
// attached to a Table; derived data always goes into a new column.
type Column interface {
	Type() ColumnType
	Len() int
	// Get returns the value at i, or nil when the entry is missing
	Get(i int) interface{}
	IsNull(i int) bool
	NullCount() int
	// Append adds a value; nil and "" append a missing entry
	Append(value interface{}) error
	// Take returns a new column holding the rows at the given indices
	Take(indices []int) Column
	Clone() Column
	MemoryUsage() int64
}

// NewColumn creates an empty column of the given type
func NewColumn(colType ColumnType) Column {
	switch colType {
	case ColumnTypeInt:
		return NewIntColumn()
	case ColumnTypeFloat:
		return NewFloatColumn()
	case ColumnTypeBool:
		return NewBoolColumn()
	default:
		return NewStringColumn()
	}
}

// StringColumn stores string values with a validity mask
type StringColumn struct {
	values []string
	valid  []bool
	nulls  int
}

// NewStringColumn creates a new string column
func NewStringColumn() *StringColumn {
	return &StringColumn{
		values: make([]string, 0, 1024),
		valid:  make([]bool, 0, 1024),
	}
}

// NewStringColumnFrom wraps values; a nil valid slice marks every entry present.
func NewStringColumnFrom(values []string, valid []bool) *StringColumn {
	c := &StringColumn{values: values, valid: valid}
	if c.valid == nil {
		c.valid = make([]bool, len(values))
		for i := range c.valid {
			c.valid[i] = true
		}
	}
	for _, ok := range c.valid {
		if !ok {
			c.nulls++
		}
	}
	return c
}

func (c *StringColumn) Type() ColumnType { return ColumnTypeString }
func (c *StringColumn) Len() int         { return len(c.values) }
func (c *StringColumn) NullCount() int   { return c.nulls }
func (c *StringColumn) IsNull(i int) bool {
	return !c.valid[i]
}

// Value returns the raw string at i; missing entries read as ""
func (c *StringColumn) Value(i int) string {
	return c.values[i]
}

func (c *StringColumn) Get(i int) interface{} {
	if !c.valid[i] {
		return nil
	}
	return c.values[i]
}

func (c *StringColumn) Append(value interface{}) error {
	switch v := value.(type) {
	case nil:
		c.appendNull()
	case string:
		if v == "" {
			c.appendNull()
			return nil
		}
		c.values = append(c.values, v)
		c.valid = append(c.valid, true)
	default:
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

func (c *StringColumn) appendNull() {
	c.values = append(c.values, "")
	c.valid = append(c.valid, false)
	c.nulls++
}

func (c *StringColumn) Take(indices []int) Column {
	out := &StringColumn{
		values: make([]string, len(indices)),
		valid:  make([]bool, len(indices)),
	}
	for j, i := range indices {
		out.values[j] = c.values[i]
		out.valid[j] = c.valid[i]
		if !c.valid[i] {
			out.nulls++
		}
	}
	return out
}

func (c *StringColumn) Clone() Column {
	return &StringColumn{
		values: append([]string(nil), c.values...),
		valid:  append([]bool(nil), c.valid...),
		nulls:  c.nulls,
	}
}

func (c *StringColumn) MemoryUsage() int64 {
	var total int64
	for _, v := range c.values {
		total += int64(len(v))
		total += 16 // string header overhead
	}
	return total + int64(len(c.valid))
}

// IntColumn stores integer values with a validity mask
type IntColumn struct {
	values []int64
	valid  []bool
	nulls  int
}

// NewIntColumn creates a new integer column
func NewIntColumn() *IntColumn {
	return &IntColumn{
		values: make([]int64, 0, 1024),
		valid:  make([]bool, 0, 1024),
	}
}

// NewIntColumnFrom wraps values; a nil valid slice marks every entry present.
func NewIntColumnFrom(values []int64, valid []bool) *IntColumn {
	c := &IntColumn{values: values, valid: valid}
	if c.valid == nil {
		c.valid = make([]bool, len(values))
		for i := range c.valid {
			c.valid[i] = true
		}
	}
	for _, ok := range c.valid {
		if !ok {
			c.nulls++
		}
	}
	return c
}

func (c *IntColumn) Type() ColumnType { return ColumnTypeInt }
func (c *IntColumn) Len() int         { return len(c.values) }
func (c *IntColumn) NullCount() int   { return c.nulls }
func (c *IntColumn) IsNull(i int) bool {
	return !c.valid[i]
}

// Value returns the raw integer at i; missing entries read as 0
func (c *IntColumn) Value(i int) int64 {
	return c.values[i]
}

func (c *IntColumn) Get(i int) interface{} {
	if !c.valid[i] {
		return nil
	}
	return c.values[i]
}

func (c *IntColumn) Append(value interface{}) error {
	var intVal int64
	switch v := value.(type) {
	case nil:
		c.appendNull()
		return nil
	case int:
		intVal = int64(v)
	case int64:
		intVal = v
	case int32:
		intVal = int64(v)
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			c.appendNull()
			return nil
		}
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("cannot parse %q as int: %w", v, err)
		}
		intVal = parsed
	default:
		return fmt.Errorf("expected int, got %T", value)
	}

	c.values = append(c.values, intVal)
	c.valid = append(c.valid, true)
	return nil
}

func (c *IntColumn) appendNull() {
	c.values = append(c.values, 0)
	c.valid = append(c.valid, false)
	c.nulls++
}

func (c *IntColumn) Take(indices []int) Column {
	out := &IntColumn{
		values: make([]int64, len(indices)),
		valid:  make([]bool, len(indices)),
	}
	for j, i := range indices {
		out.values[j] = c.values[i]
		out.valid[j] = c.valid[i]
		if !c.valid[i] {
			out.nulls++
		}
	}
	return out
}

func (c *IntColumn) Clone() Column {
	return &IntColumn{
		values: append([]int64(nil), c.values...),
		valid:  append([]bool(nil), c.valid...),
		nulls:  c.nulls,
	}
}

func (c *IntColumn) MemoryUsage() int64 {
	return int64(len(c.values)*8 + len(c.valid))
}

// FloatColumn stores floating point values; NaN marks a missing entry
type FloatColumn struct {
	values []float64
}

// NewFloatColumn creates a new float column
func NewFloatColumn() *FloatColumn {
	return &FloatColumn{
		values: make([]float64, 0, 1024),
	}
}

// NewFloatColumnFrom wraps values without copying
func NewFloatColumnFrom(values []float64) *FloatColumn {
	return &FloatColumn{values: values}
}

func (c *FloatColumn) Type() ColumnType { return ColumnTypeFloat }
func (c *FloatColumn) Len() int         { return len(c.values) }
func (c *FloatColumn) IsNull(i int) bool {
	return math.IsNaN(c.values[i])
}

func (c *FloatColumn) NullCount() int {
	n := 0
	for _, v := range c.values {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Value returns the raw float at i (NaN when missing)
func (c *FloatColumn) Value(i int) float64 {
	return c.values[i]
}

func (c *FloatColumn) Get(i int) interface{} {
	if math.IsNaN(c.values[i]) {
		return nil
	}
	return c.values[i]
}

func (c *FloatColumn) Append(value interface{}) error {
	var floatVal float64
	switch v := value.(type) {
	case nil:
		floatVal = math.NaN()
	case float64:
		floatVal = v
	case float32:
		floatVal = float64(v)
	case int:
		floatVal = float64(v)
	case int64:
		floatVal = float64(v)
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			floatVal = math.NaN()
			break
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("cannot parse %q as float: %w", v, err)
		}
		floatVal = parsed
	default:
		return fmt.Errorf("expected float, got %T", value)
	}

	c.values = append(c.values, floatVal)
	return nil
}

func (c *FloatColumn) Take(indices []int) Column {
	out := make([]float64, len(indices))
	for j, i := range indices {
		out[j] = c.values[i]
	}
	return &FloatColumn{values: out}
}

func (c *FloatColumn) Clone() Column {
	return &FloatColumn{values: append([]float64(nil), c.values...)}
}

func (c *FloatColumn) MemoryUsage() int64 {
	return int64(len(c.values) * 8) // 8 bytes per float64
}

// BoolColumn stores boolean values bit-packed, with a packed validity mask
type BoolColumn struct {
	values []uint64 // 64 bools per uint64
	nulls  []uint64 // set bit = missing
	count  int
	nnull  int
}

// NewBoolColumn creates a new boolean column
func NewBoolColumn() *BoolColumn {
	return &BoolColumn{
		values: make([]uint64, 0, 16),
		nulls:  make([]uint64, 0, 16),
	}
}

func (c *BoolColumn) Type() ColumnType { return ColumnTypeBool }
func (c *BoolColumn) Len() int         { return c.count }
func (c *BoolColumn) NullCount() int   { return c.nnull }

func (c *BoolColumn) IsNull(i int) bool {
	return c.nulls[i/64]&(1<<(i%64)) != 0
}

// Value returns the raw bool at i; missing entries read as false
func (c *BoolColumn) Value(i int) bool {
	return c.values[i/64]&(1<<(i%64)) != 0
}

func (c *BoolColumn) Get(i int) interface{} {
	if c.IsNull(i) {
		return nil
	}
	return c.Value(i)
}

func (c *BoolColumn) Append(value interface{}) error {
	var boolVal, null bool
	switch v := value.(type) {
	case nil:
		null = true
	case bool:
		boolVal = v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "":
			null = true
		case "true", "1", "yes":
			boolVal = true
		case "false", "0", "no":
		default:
			return fmt.Errorf("cannot parse %q as bool", v)
		}
	default:
		return fmt.Errorf("expected bool, got %T", value)
	}
	c.push(boolVal, null)
	return nil
}

func (c *BoolColumn) push(v, null bool) {
	wordIndex := c.count / 64
	bitIndex := c.count % 64

	// Grow if needed
	if wordIndex >= len(c.values) {
		c.values = append(c.values, 0)
		c.nulls = append(c.nulls, 0)
	}

	if v {
		c.values[wordIndex] |= 1 << bitIndex
	}
	if null {
		c.nulls[wordIndex] |= 1 << bitIndex
		c.nnull++
	}
	c.count++
}

func (c *BoolColumn) Take(indices []int) Column {
	out := NewBoolColumn()
	for _, i := range indices {
		out.push(c.Value(i), c.IsNull(i))
	}
	return out
}

func (c *BoolColumn) Clone() Column {
	return &BoolColumn{
		values: append([]uint64(nil), c.values...),
		nulls:  append([]uint64(nil), c.nulls...),
		count:  c.count,
		nnull:  c.nnull,
	}
}

func (c *BoolColumn) MemoryUsage() int64 {
	return int64((len(c.values) + len(c.nulls)) * 8)
}
