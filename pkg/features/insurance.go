package features

import (
	"context"

	"github.com/ajitpratap0/creditrisk/pkg/columnar"
	"github.com/ajitpratap0/creditrisk/pkg/schema"
)

// FlagInsurance sets FLAG_INSURANCE to 1 when the credit amount exceeds the
// goods price, which marks an insured loan, and to 0 otherwise. A missing
// operand gives 0.
type FlagInsurance struct{}

// NewFlagInsurance creates the transform
func NewFlagInsurance() *FlagInsurance { return &FlagInsurance{} }

func (f *FlagInsurance) Name() string { return "flag_insurance" }

func (f *FlagInsurance) Contract() schema.Contract {
	return schema.Contract{
		Requires: schema.Numeric("AMT_CREDIT", "AMT_GOODS_PRICE"),
		Produces: schema.Numeric("FLAG_INSURANCE"),
	}
}

func (f *FlagInsurance) Transform(_ context.Context, primary *columnar.Table, _ Tables) (*columnar.Table, error) {
	credit, err := primary.Floats("AMT_CREDIT")
	if err != nil {
		return nil, err
	}
	goods, err := primary.Floats("AMT_GOODS_PRICE")
	if err != nil {
		return nil, err
	}

	flags := make([]int64, len(credit))
	for i := range credit {
		if credit[i]-goods[i] > 0 {
			flags[i] = 1
		}
	}
	return derive(primary, "FLAG_INSURANCE", columnar.NewIntColumnFrom(flags, nil))
}

// PrevFlagInsurance takes, per applicant, the maximum of
// NFLAG_INSURED_ON_APPROVAL over previous applications. Output:
// PREV_FLAG_INSURANCE.
type PrevFlagInsurance struct{}

// NewPrevFlagInsurance creates the transform
func NewPrevFlagInsurance() *PrevFlagInsurance { return &PrevFlagInsurance{} }

func (p *PrevFlagInsurance) Name() string { return "prev_flag_insurance" }

func (p *PrevFlagInsurance) Contract() schema.Contract {
	return schema.Contract{
		Requires: []schema.Field{keyField()},
		Produces: schema.Numeric("PREV_FLAG_INSURANCE"),
		Auxiliary: map[string][]schema.Field{
			TablePrevious: {keyField(), schema.F("NFLAG_INSURED_ON_APPROVAL", schema.KindNumeric)},
		},
	}
}

func (p *PrevFlagInsurance) Transform(_ context.Context, primary *columnar.Table, aux Tables) (*columnar.Table, error) {
	prev, err := aux.Get(TablePrevious)
	if err != nil {
		return nil, err
	}
	return groupAndJoin(primary, prev, columnar.Max("NFLAG_INSURED_ON_APPROVAL", "PREV_FLAG_INSURANCE"))
}
