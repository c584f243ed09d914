package features

import (
	"context"

	"github.com/ajitpratap0/creditrisk/pkg/columnar"
	"github.com/ajitpratap0/creditrisk/pkg/schema"
)

// Ratios are percentages of AMT_INCOME_TOTAL. An income that is missing,
// zero or negative makes the ratio missing.

// AnnuityIncomeRatio is AMT_ANNUITY / AMT_INCOME_TOTAL * 100.
// Output: ANNUITY_INCOME_RATIO.
type AnnuityIncomeRatio struct{}

// NewAnnuityIncomeRatio creates the transform
func NewAnnuityIncomeRatio() *AnnuityIncomeRatio { return &AnnuityIncomeRatio{} }

func (a *AnnuityIncomeRatio) Name() string { return "annuity_income_ratio" }

func (a *AnnuityIncomeRatio) Contract() schema.Contract {
	return schema.Contract{
		Requires: schema.Numeric("AMT_ANNUITY", "AMT_INCOME_TOTAL"),
		Produces: schema.Numeric("ANNUITY_INCOME_RATIO"),
	}
}

func (a *AnnuityIncomeRatio) Transform(_ context.Context, primary *columnar.Table, _ Tables) (*columnar.Table, error) {
	annuity, err := primary.Floats("AMT_ANNUITY")
	if err != nil {
		return nil, err
	}
	return withIncomeRatio(primary, "ANNUITY_INCOME_RATIO", annuity)
}

func withIncomeRatio(primary *columnar.Table, output string, num []float64) (*columnar.Table, error) {
	income, err := primary.Floats("AMT_INCOME_TOTAL")
	if err != nil {
		return nil, err
	}
	ratio := make([]float64, len(num))
	for i := range num {
		ratio[i] = percentOf(num[i], income[i])
	}
	return derive(primary, output, columnar.NewFloatColumnFrom(ratio))
}

// PrevAnnuityIncomeRatio divides the mean annuity of previous applications
// by the current income. Applicants without previous applications get a
// numerator of 0. Output: PREV_ANNUITY_INCOME_RATIO.
type PrevAnnuityIncomeRatio struct{}

// NewPrevAnnuityIncomeRatio creates the transform
func NewPrevAnnuityIncomeRatio() *PrevAnnuityIncomeRatio { return &PrevAnnuityIncomeRatio{} }

func (p *PrevAnnuityIncomeRatio) Name() string { return "prev_annuity_income_ratio" }

func (p *PrevAnnuityIncomeRatio) Contract() schema.Contract {
	return schema.Contract{
		Requires: []schema.Field{keyField(), schema.F("AMT_INCOME_TOTAL", schema.KindNumeric)},
		Produces: schema.Numeric("PREV_ANNUITY_INCOME_RATIO"),
		Auxiliary: map[string][]schema.Field{
			TablePrevious: {keyField(), schema.F("AMT_ANNUITY", schema.KindNumeric)},
		},
	}
}

func (p *PrevAnnuityIncomeRatio) Transform(_ context.Context, primary *columnar.Table, aux Tables) (*columnar.Table, error) {
	prev, err := aux.Get(TablePrevious)
	if err != nil {
		return nil, err
	}
	agg, err := aggregate(prev, KeyApplicant, columnar.Mean("AMT_ANNUITY", "PREV_AMT_ANNUITY_MEAN"))
	if err != nil {
		return nil, err
	}
	mean, err := joinedValues(primary, agg, "PREV_AMT_ANNUITY_MEAN")
	if err != nil {
		return nil, err
	}
	return withIncomeRatio(primary, "PREV_ANNUITY_INCOME_RATIO", mean)
}

// DebtIncomeRatio adds a monthly repayment on active bureau debt to the
// applicant's own annuity and divides by income.
//
// Qualifying bureau rows have AMT_CREDIT_SUM_DEBT > 0, CREDIT_ACTIVE ==
// "Active" and DAYS_CREDIT_ENDDATE > 0. Debt and remaining days are summed
// per applicant and the monthly repayment is debt / (days / 30); applicants
// without qualifying rows repay 0. Output: DEBT_INCOME_RATIO.
type DebtIncomeRatio struct{}

// NewDebtIncomeRatio creates the transform
func NewDebtIncomeRatio() *DebtIncomeRatio { return &DebtIncomeRatio{} }

func (d *DebtIncomeRatio) Name() string { return "debt_income_ratio" }

func (d *DebtIncomeRatio) Contract() schema.Contract {
	return schema.Contract{
		Requires: []schema.Field{
			keyField(),
			schema.F("AMT_ANNUITY", schema.KindNumeric),
			schema.F("AMT_INCOME_TOTAL", schema.KindNumeric),
		},
		Produces: schema.Numeric("DEBT_INCOME_RATIO"),
		Auxiliary: map[string][]schema.Field{
			TableBureau: {
				keyField(),
				schema.F("AMT_CREDIT_SUM_DEBT", schema.KindNumeric),
				schema.F("CREDIT_ACTIVE", schema.KindString),
				schema.F("DAYS_CREDIT_ENDDATE", schema.KindNumeric),
			},
		},
	}
}

func (d *DebtIncomeRatio) Transform(_ context.Context, primary *columnar.Table, aux Tables) (*columnar.Table, error) {
	bureau, err := aux.Get(TableBureau)
	if err != nil {
		return nil, err
	}

	debt, err := positiveMask(bureau, "AMT_CREDIT_SUM_DEBT")
	if err != nil {
		return nil, err
	}
	active, err := equalsMask(bureau, "CREDIT_ACTIVE", "Active")
	if err != nil {
		return nil, err
	}
	open, err := positiveMask(bureau, "DAYS_CREDIT_ENDDATE")
	if err != nil {
		return nil, err
	}
	rows, err := bureau.Filter(and(debt, active, open))
	if err != nil {
		return nil, err
	}

	agg, err := aggregate(rows, KeyApplicant,
		columnar.Sum("AMT_CREDIT_SUM_DEBT", "DEBT"),
		columnar.Sum("DAYS_CREDIT_ENDDATE", "DAYS"))
	if err != nil {
		return nil, err
	}
	sumDebt, err := agg.Floats("DEBT")
	if err != nil {
		return nil, err
	}
	sumDays, err := agg.Floats("DAYS")
	if err != nil {
		return nil, err
	}
	monthly := make([]float64, len(sumDebt))
	for i := range monthly {
		monthly[i] = sumDebt[i] / (sumDays[i] / 30)
	}
	repayments, err := agg.Select(KeyApplicant)
	if err != nil {
		return nil, err
	}
	if repayments, err = repayments.With("MONTHLY_DEBT", columnar.NewFloatColumnFrom(monthly)); err != nil {
		return nil, err
	}

	repay, err := joinedValues(primary, repayments, "MONTHLY_DEBT")
	if err != nil {
		return nil, err
	}
	annuity, err := primary.Floats("AMT_ANNUITY")
	if err != nil {
		return nil, err
	}
	for i := range repay {
		repay[i] += annuity[i]
	}
	return withIncomeRatio(primary, "DEBT_INCOME_RATIO", repay)
}
