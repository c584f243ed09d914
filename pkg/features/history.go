package features

import (
	"context"

	"github.com/ajitpratap0/creditrisk/pkg/columnar"
	"github.com/ajitpratap0/creditrisk/pkg/schema"
)

// DownPaymentRate is the mean RATE_DOWN_PAYMENT over previous applications.
// Output: RATE_DOWN_PAYMENT_MEAN.
type DownPaymentRate struct{}

// NewDownPaymentRate creates the transform
func NewDownPaymentRate() *DownPaymentRate { return &DownPaymentRate{} }

func (d *DownPaymentRate) Name() string { return "down_payment_rate" }

func (d *DownPaymentRate) Contract() schema.Contract {
	return schema.Contract{
		Requires: []schema.Field{keyField()},
		Produces: schema.Numeric("RATE_DOWN_PAYMENT_MEAN"),
		Auxiliary: map[string][]schema.Field{
			TablePrevious: {keyField(), schema.F("RATE_DOWN_PAYMENT", schema.KindNumeric)},
		},
	}
}

func (d *DownPaymentRate) Transform(_ context.Context, primary *columnar.Table, aux Tables) (*columnar.Table, error) {
	prev, err := aux.Get(TablePrevious)
	if err != nil {
		return nil, err
	}
	return groupAndJoin(primary, prev, columnar.Mean("RATE_DOWN_PAYMENT", "RATE_DOWN_PAYMENT_MEAN"))
}

// InstallmentsVersion is the mean NUM_INSTALMENT_VERSION over installment
// records whose version is above 1. Applicants with no such record get 0.
// Output: INSTALMENT_VERSION_MEAN.
type InstallmentsVersion struct{}

// NewInstallmentsVersion creates the transform
func NewInstallmentsVersion() *InstallmentsVersion { return &InstallmentsVersion{} }

func (v *InstallmentsVersion) Name() string { return "installments_version" }

func (v *InstallmentsVersion) Contract() schema.Contract {
	return schema.Contract{
		Requires: []schema.Field{keyField()},
		Produces: schema.Numeric("INSTALMENT_VERSION_MEAN"),
		Auxiliary: map[string][]schema.Field{
			TableInstallments: {keyField(), schema.F("NUM_INSTALMENT_VERSION", schema.KindNumeric)},
		},
	}
}

func (v *InstallmentsVersion) Transform(_ context.Context, primary *columnar.Table, aux Tables) (*columnar.Table, error) {
	inst, err := aux.Get(TableInstallments)
	if err != nil {
		return nil, err
	}
	versions, err := inst.Floats("NUM_INSTALMENT_VERSION")
	if err != nil {
		return nil, err
	}
	mask := make([]bool, len(versions))
	for i, ver := range versions {
		mask[i] = ver > 1
	}
	rows, err := inst.Filter(mask)
	if err != nil {
		return nil, err
	}
	return groupAndJoin(primary, rows, columnar.Mean("NUM_INSTALMENT_VERSION", "INSTALMENT_VERSION_MEAN"))
}
