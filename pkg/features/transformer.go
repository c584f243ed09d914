package features

import (
	"context"
	"sort"

	"github.com/ajitpratap0/creditrisk/pkg/columnar"
	"github.com/ajitpratap0/creditrisk/pkg/errors"
	"github.com/ajitpratap0/creditrisk/pkg/schema"
)

// Key columns shared by every table
const (
	KeyApplicant = "SK_ID_CURR"
	KeyBureau    = "SK_ID_BUREAU"
)

// Auxiliary table names, matching the file names of the source data set
const (
	TableCreditCard    = "credit_card_balance"
	TablePOSCash       = "POS_CASH_balance"
	TableBureau        = "bureau"
	TableBureauBalance = "bureau_balance"
	TablePrevious      = "previous_application"
	TableInstallments  = "installments_payments"
)

// Transformer derives new columns for the primary table
type Transformer interface {
	// Name identifies the step in logs, metrics and errors
	Name() string
	// Contract declares the columns the step reads, writes and drops
	Contract() schema.Contract
	// Transform returns a new primary table; neither primary nor any
	// auxiliary table is modified
	Transform(ctx context.Context, primary *columnar.Table, aux Tables) (*columnar.Table, error)
}

// Tables holds the auxiliary tables of a run, keyed by table name
type Tables map[string]*columnar.Table

// Get returns the named table or a not-found error
func (t Tables) Get(name string) (*columnar.Table, error) {
	tbl, ok := t[name]
	if !ok || tbl == nil {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "auxiliary table %q not provided", name).
			WithDetail("table", name)
	}
	return tbl, nil
}

// Names returns the table names in sorted order
func (t Tables) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schemas returns the schema of every table, keyed by table name
func (t Tables) Schemas() map[string]*columnar.Schema {
	out := make(map[string]*columnar.Schema, len(t))
	for name, tbl := range t {
		out[name] = tbl.Schema()
	}
	return out
}
