// Package schema describes what a transform reads and writes.
//
// Every transform publishes a Contract: the primary-table columns it
// requires, the columns it produces or drops, and the columns it needs from
// each auxiliary table. The pipeline walks the contracts of its steps with a
// State before any row is touched, so an impossible composition (a step that
// needs SK_ID_CURR after the id was dropped, a join that would collide with
// an existing column) fails when the pipeline is built rather than halfway
// through a run.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ajitpratap0/creditrisk/pkg/columnar"
)

// Kind is the coarse type a contract requires of a column
type Kind int

const (
	// KindAny accepts every column type
	KindAny Kind = iota
	// KindNumeric accepts int, float and bool columns
	KindNumeric
	// KindString accepts string columns
	KindString
	// KindKey accepts integer columns and floats holding whole numbers
	KindKey
)

// String returns the lower-case name of the kind
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindString:
		return "string"
	case KindKey:
		return "key"
	default:
		return "any"
	}
}

// Accepts reports whether a column of type t satisfies the kind
func (k Kind) Accepts(t columnar.ColumnType) bool {
	switch k {
	case KindNumeric:
		return t.IsNumeric()
	case KindString:
		return t == columnar.ColumnTypeString
	case KindKey:
		return t == columnar.ColumnTypeInt || t == columnar.ColumnTypeFloat
	default:
		return true
	}
}

// KindOf maps a concrete column type to the narrowest kind describing it
func KindOf(t columnar.ColumnType) Kind {
	switch t {
	case columnar.ColumnTypeString:
		return KindString
	case columnar.ColumnTypeInt:
		return KindKey
	default:
		return KindNumeric
	}
}

// Field is a named column with a required or produced kind
type Field struct {
	Name string
	Kind Kind
}

// F is shorthand for Field{Name: name, Kind: kind}
func F(name string, kind Kind) Field {
	return Field{Name: name, Kind: kind}
}

// Numeric returns numeric fields for every name
func Numeric(names ...string) []Field {
	out := make([]Field, len(names))
	for i, n := range names {
		out[i] = F(n, KindNumeric)
	}
	return out
}

// Contract declares the columns a transform touches.
//
// A column that appears in both Requires and Produces is rewritten in place.
// Auxiliary maps a table name (for example "bureau") to the columns the
// transform reads from it.
type Contract struct {
	Requires  []Field
	Produces  []Field
	Drops     []string
	Auxiliary map[string][]Field
}

// AuxiliaryTables returns the names of the auxiliary tables in sorted order
func (c Contract) AuxiliaryTables() []string {
	names := make([]string, 0, len(c.Auxiliary))
	for name := range c.Auxiliary {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c Contract) requires(name string) bool {
	for _, f := range c.Requires {
		if f.Name == name {
			return true
		}
	}
	return false
}

// String renders the contract on one line for logs
func (c Contract) String() string {
	var b strings.Builder
	join := func(fields []Field) string {
		parts := make([]string, len(fields))
		for i, f := range fields {
			parts[i] = fmt.Sprintf("%s:%s", f.Name, f.Kind)
		}
		return strings.Join(parts, ",")
	}
	fmt.Fprintf(&b, "requires=[%s] produces=[%s]", join(c.Requires), join(c.Produces))
	if len(c.Drops) > 0 {
		fmt.Fprintf(&b, " drops=[%s]", strings.Join(c.Drops, ","))
	}
	for _, name := range c.AuxiliaryTables() {
		fmt.Fprintf(&b, " %s=[%s]", name, join(c.Auxiliary[name]))
	}
	return b.String()
}
