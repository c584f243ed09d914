package columnar

import (
	"math"
	"sort"

	"github.com/ajitpratap0/creditrisk/pkg/errors"
)

// AggFunc selects how a group of values is reduced
type AggFunc int

const (
	// AggSum adds non-missing values; an all-missing group sums to 0
	AggSum AggFunc = iota
	// AggMean averages non-missing values; an all-missing group is NaN
	AggMean
	// AggMax takes the largest non-missing value; an all-missing group is NaN
	AggMax
)

// Aggregation describes one output column of a group-by
type Aggregation struct {
	Column string
	Func   AggFunc
	As     string
}

// Sum aggregates column into as by summation
func Sum(column, as string) Aggregation { return Aggregation{Column: column, Func: AggSum, As: as} }

// Mean aggregates column into as by arithmetic mean
func Mean(column, as string) Aggregation { return Aggregation{Column: column, Func: AggMean, As: as} }

// Max aggregates column into as by maximum
func Max(column, as string) Aggregation { return Aggregation{Column: column, Func: AggMax, As: as} }

// Grouping holds the row indices of a table partitioned by an integer key
type Grouping struct {
	table  *Table
	key    string
	keys   []int64 // sorted, unique
	groups [][]int
}

// GroupBy partitions the rows of t by the integer column key
func GroupBy(t *Table, key string) (*Grouping, error) {
	keys, err := t.Keys(key)
	if err != nil {
		return nil, err
	}

	pos := make(map[int64]int)
	g := &Grouping{table: t, key: key}
	for row, k := range keys {
		i, ok := pos[k]
		if !ok {
			i = len(g.keys)
			pos[k] = i
			g.keys = append(g.keys, k)
			g.groups = append(g.groups, nil)
		}
		g.groups[i] = append(g.groups[i], row)
	}

	order := make([]int, len(g.keys))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return g.keys[order[a]] < g.keys[order[b]] })

	keysSorted := make([]int64, len(order))
	groupsSorted := make([][]int, len(order))
	for i, o := range order {
		keysSorted[i] = g.keys[o]
		groupsSorted[i] = g.groups[o]
	}
	g.keys, g.groups = keysSorted, groupsSorted
	return g, nil
}

// Len returns the number of distinct keys
func (g *Grouping) Len() int { return len(g.keys) }

// Aggregate reduces every group and returns a table with one row per key:
// the key column followed by one float column per aggregation.
func (g *Grouping) Aggregate(aggs ...Aggregation) (*Table, error) {
	out := NewTable(g.table.Name() + "_agg")
	if err := out.AddColumn(g.key, NewIntColumnFrom(append([]int64(nil), g.keys...), nil)); err != nil {
		return nil, err
	}

	for _, agg := range aggs {
		values, err := g.table.Floats(agg.Column)
		if err != nil {
			return nil, err
		}

		result := make([]float64, len(g.keys))
		for i, rows := range g.groups {
			result[i] = reduce(agg.Func, values, rows)
		}
		if err := out.AddColumn(agg.As, NewFloatColumnFrom(result)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func reduce(fn AggFunc, values []float64, rows []int) float64 {
	switch fn {
	case AggSum:
		var sum float64
		for _, r := range rows {
			if !math.IsNaN(values[r]) {
				sum += values[r]
			}
		}
		return sum
	case AggMean:
		var sum float64
		n := 0
		for _, r := range rows {
			if !math.IsNaN(values[r]) {
				sum += values[r]
				n++
			}
		}
		if n == 0 {
			return math.NaN()
		}
		return sum / float64(n)
	case AggMax:
		best := math.NaN()
		for _, r := range rows {
			v := values[r]
			if math.IsNaN(v) {
				continue
			}
			if math.IsNaN(best) || v > best {
				best = v
			}
		}
		return best
	default:
		return math.NaN()
	}
}

// LeftJoin attaches every non-key column of right to left, matching rows on
// the integer column on. Keys of right must be unique. Left rows without a
// match, and matched entries that are missing, receive fill.
//
// The result keeps left's row count and row order. A right column whose name
// already exists on left is a conflict.
func LeftJoin(left, right *Table, on string, fill float64) (*Table, error) {
	rightKeys, err := right.Keys(on)
	if err != nil {
		return nil, err
	}
	pos := make(map[int64]int, len(rightKeys))
	for i, k := range rightKeys {
		if _, dup := pos[k]; dup {
			return nil, errors.Newf(errors.ErrorTypeConflict, "duplicate join key %d in table %q", k, right.Name()).
				WithDetail("key", on).
				WithDetail("value", k)
		}
		pos[k] = i
	}

	leftKeys, err := left.Keys(on)
	if err != nil {
		return nil, err
	}
	match := make([]int, len(leftKeys))
	for i, k := range leftKeys {
		if j, ok := pos[k]; ok {
			match[i] = j
		} else {
			match[i] = -1
		}
	}

	out := left
	for _, name := range right.ColumnNames() {
		if name == on {
			continue
		}
		if left.Has(name) {
			return nil, errors.Newf(errors.ErrorTypeConflict, "column %q already exists in table %q", name, left.Name()).
				WithDetail("column", name)
		}
		values, err := right.Floats(name)
		if err != nil {
			return nil, err
		}

		joined := make([]float64, len(match))
		for i, j := range match {
			if j < 0 || math.IsNaN(values[j]) {
				joined[i] = fill
				continue
			}
			joined[i] = values[j]
		}
		if out, err = out.With(name, NewFloatColumnFrom(joined)); err != nil {
			return nil, err
		}
	}
	return out, nil
}
