package features

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ajitpratap0/creditrisk/pkg/errors"
)

// Options carries the per-transform configuration surface
type Options struct {
	CreditCardWindow   int
	POSCashWindow      int
	DrawingsWindow     int
	BureauScarce       []string
	PrevContractScarce []string
	EnquiryColumns     []string
	DelinquencyCodes   []string
	// TenureEdges and TenureLabels replace the employment tenure buckets
	// when set
	TenureEdges  []float64
	TenureLabels []string
}

// Default scarce categories, collapsed into "Other" by the category counters
var (
	DefaultBureauScarce = []string{
		"Another type of loan",
		"Cash loan (non-earmarked)",
		"Interbank credit",
		"Loan for business development",
		"Loan for purchase of shares (margin lending)",
		"Loan for the purchase of equipment",
		"Loan for working capital replenishment",
		"Mobile operator loan",
		"Real estate loan",
		"Unknown type of loan",
	}
	DefaultPrevContractScarce = []string{"XNA"}
)

// DefaultOptions returns the windows, sets and lists used by the reference
// feature set
func DefaultOptions() Options {
	return Options{
		CreditCardWindow:   DefaultDPDWindow,
		POSCashWindow:      DefaultDPDWindow,
		DrawingsWindow:     DefaultDrawingsWindow,
		BureauScarce:       DefaultBureauScarce,
		PrevContractScarce: DefaultPrevContractScarce,
		EnquiryColumns:     DefaultEnquiryColumns,
		DelinquencyCodes:   DefaultDelinquencyCodes,
		TenureEdges:        TenureEdges,
		TenureLabels:       TenureLabels,
	}
}

// Factory creates a transform from options
type Factory func(opts Options) (Transformer, error)

// Registry maps step names to transform factories
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates a registry holding every built-in transform
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	for name, f := range builtin {
		r.factories[name] = f
	}
	return r
}

var builtin = map[string]Factory{
	"organization_type": func(Options) (Transformer, error) { return NewOrganizationType(), nil },
	"credit_card_dpd": func(o Options) (Transformer, error) {
		return NewCreditCardDPD(o.CreditCardWindow), nil
	},
	"pos_cash_dpd": func(o Options) (Transformer, error) {
		return NewPOSCashDPD(o.POSCashWindow), nil
	},
	"flag_insurance":      func(Options) (Transformer, error) { return NewFlagInsurance(), nil },
	"prev_flag_insurance": func(Options) (Transformer, error) { return NewPrevFlagInsurance(), nil },
	"card_drawings": func(o Options) (Transformer, error) {
		return NewCardDrawings(o.DrawingsWindow), nil
	},
	"employment_tenure": func(o Options) (Transformer, error) {
		if len(o.TenureEdges) == 0 && len(o.TenureLabels) == 0 {
			return NewEmploymentTenure(), nil
		}
		e, err := NewEmploymentTenureBins(o.TenureEdges, o.TenureLabels)
		if err != nil {
			return nil, err
		}
		return e, nil
	},
	"bureau_credit_type_counter": func(o Options) (Transformer, error) {
		return NewBureauCreditTypeCounter(o.BureauScarce), nil
	},
	"prev_contract_type_counter": func(o Options) (Transformer, error) {
		return NewPrevContractTypeCounter(o.PrevContractScarce), nil
	},
	"annuity_income_ratio":      func(Options) (Transformer, error) { return NewAnnuityIncomeRatio(), nil },
	"prev_annuity_income_ratio": func(Options) (Transformer, error) { return NewPrevAnnuityIncomeRatio(), nil },
	"debt_income_ratio":         func(Options) (Transformer, error) { return NewDebtIncomeRatio(), nil },
	"enquiries_total": func(o Options) (Transformer, error) {
		if len(o.EnquiryColumns) == 0 {
			return nil, errors.New(errors.ErrorTypeConfig, "enquiries_total needs at least one column")
		}
		return NewEnquiriesTotal(o.EnquiryColumns), nil
	},
	"bureau_delinquency": func(o Options) (Transformer, error) {
		return NewBureauBalanceDelinquency(o.DelinquencyCodes), nil
	},
	"down_payment_rate":    func(Options) (Transformer, error) { return NewDownPaymentRate(), nil },
	"installments_version": func(Options) (Transformer, error) { return NewInstallmentsVersion(), nil },
	"social_circle":        func(Options) (Transformer, error) { return NewSocialCircle(), nil },
	"drop_id":              func(Options) (Transformer, error) { return NewDropID(), nil },
}

// DefaultSteps is the reference order of the feature set. The id is dropped last.
var DefaultSteps = []string{
	"organization_type",
	"credit_card_dpd",
	"pos_cash_dpd",
	"flag_insurance",
	"card_drawings",
	"employment_tenure",
	"bureau_credit_type_counter",
	"prev_contract_type_counter",
	"prev_flag_insurance",
	"annuity_income_ratio",
	"prev_annuity_income_ratio",
	"debt_income_ratio",
	"enquiries_total",
	"bureau_delinquency",
	"down_payment_rate",
	"installments_version",
	"social_circle",
	"drop_id",
}

// Register adds a factory under name
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("transform %s already registered", name))
	}
	r.factories[name] = factory
	return nil
}

// Create builds the named transform
func (r *Registry) Create(name string, opts Options) (Transformer, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.New(errors.ErrorTypeConfig, fmt.Sprintf("transform %s not found", name))
	}

	t, err := factory(opts)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("failed to create transform %s", name))
	}
	return t, nil
}

// CreateAll builds the named transforms in order
func (r *Registry) CreateAll(names []string, opts Options) ([]Transformer, error) {
	out := make([]Transformer, 0, len(names))
	for _, name := range names {
		t, err := r.Create(name, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// List returns the registered names in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
