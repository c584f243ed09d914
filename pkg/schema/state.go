package schema

import (
	"sort"

	"github.com/ajitpratap0/creditrisk/pkg/columnar"
	"github.com/ajitpratap0/creditrisk/pkg/errors"
)

// State tracks the columns available while walking the contracts of an
// ordered list of steps.
//
// An open state knows nothing about the input tables: any column is assumed
// present until a step drops it. A closed state is built from the actual
// schemas and rejects every column it has not seen.
type State struct {
	open    bool
	kinds   map[string]Kind
	dropped map[string]string // column -> step that dropped it
	aux     map[string]map[string]Kind
}

// NewOpenState returns a state that assumes every undropped column exists
func NewOpenState() *State {
	return &State{
		open:    true,
		kinds:   make(map[string]Kind),
		dropped: make(map[string]string),
	}
}

// NewState returns a closed state for a primary schema and the schemas of
// the auxiliary tables, keyed by table name.
func NewState(primary *columnar.Schema, aux map[string]*columnar.Schema) *State {
	s := &State{
		kinds:   make(map[string]Kind, len(primary.Fields)),
		dropped: make(map[string]string),
		aux:     make(map[string]map[string]Kind, len(aux)),
	}
	for _, f := range primary.Fields {
		s.kinds[f.Name] = KindOf(f.Type)
	}
	for name, sch := range aux {
		cols := make(map[string]Kind, len(sch.Fields))
		for _, f := range sch.Fields {
			cols[f.Name] = KindOf(f.Type)
		}
		s.aux[name] = cols
	}
	return s
}

// Has reports whether the column is known to be available
func (s *State) Has(name string) bool {
	_, ok := s.kinds[name]
	return ok
}

// Columns returns the known columns in sorted order
func (s *State) Columns() []string {
	out := make([]string, 0, len(s.kinds))
	for name := range s.kinds {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Apply checks that step can run against the current state and then
// advances the state by the step's produced and dropped columns.
func (s *State) Apply(step string, c Contract) error {
	if err := s.checkAuxiliary(step, c); err != nil {
		return err
	}

	for _, f := range c.Requires {
		have, ok := s.kinds[f.Name]
		switch {
		case ok:
			if !compatible(f.Kind, have) {
				return errors.Newf(errors.ErrorTypeValidation,
					"step %q requires %s column %q, found %s", step, f.Kind, f.Name, have).
					WithDetail("step", step).
					WithDetail("column", f.Name)
			}
		case s.dropped[f.Name] != "":
			return errors.Newf(errors.ErrorTypeValidation,
				"step %q requires column %q dropped by earlier step %q", step, f.Name, s.dropped[f.Name]).
				WithDetail("step", step).
				WithDetail("column", f.Name)
		case s.open:
			s.kinds[f.Name] = KindAny
		default:
			return errors.Wrap(errors.MissingColumn("primary", f.Name), errors.ErrorTypeValidation,
				"step "+step+" cannot run")
		}
	}

	for _, name := range c.Drops {
		if _, ok := s.kinds[name]; !ok && (!s.open || s.dropped[name] != "") {
			return errors.Wrap(errors.MissingColumn("primary", name), errors.ErrorTypeValidation,
				"step "+step+" cannot drop")
		}
		delete(s.kinds, name)
		s.dropped[name] = step
	}

	for _, f := range c.Produces {
		if _, ok := s.kinds[f.Name]; ok && !c.requires(f.Name) {
			return errors.Newf(errors.ErrorTypeValidation,
				"step %q produces column %q which already exists", step, f.Name).
				WithDetail("step", step).
				WithDetail("column", f.Name)
		}
		s.kinds[f.Name] = f.Kind
		delete(s.dropped, f.Name)
	}
	return nil
}

func (s *State) checkAuxiliary(step string, c Contract) error {
	if s.aux == nil {
		return nil
	}
	for _, table := range c.AuxiliaryTables() {
		cols, ok := s.aux[table]
		if !ok {
			return errors.Newf(errors.ErrorTypeValidation, "step %q needs auxiliary table %q", step, table).
				WithDetail("step", step).
				WithDetail("table", table)
		}
		for _, f := range c.Auxiliary[table] {
			have, ok := cols[f.Name]
			if !ok {
				return errors.Wrap(errors.MissingColumn(table, f.Name), errors.ErrorTypeValidation,
					"step "+step+" cannot run")
			}
			if !compatible(f.Kind, have) {
				return errors.Newf(errors.ErrorTypeValidation,
					"step %q requires %s column %q in table %q, found %s", step, f.Kind, f.Name, table, have).
					WithDetail("step", step).
					WithDetail("table", table).
					WithDetail("column", f.Name)
			}
		}
	}
	return nil
}

func compatible(required, have Kind) bool {
	if required == KindAny || have == KindAny {
		return true
	}
	switch required {
	case KindNumeric, KindKey:
		return have == KindNumeric || have == KindKey
	default:
		return required == have
	}
}
