package features

import (
	"context"

	"github.com/ajitpratap0/creditrisk/pkg/columnar"
	"github.com/ajitpratap0/creditrisk/pkg/schema"
)

// DefaultDPDWindow is the trailing number of months counted by the
// days-past-due aggregations
const DefaultDPDWindow = 12

// DefaultDelinquencyCodes are the bureau_balance STATUS values that mark a
// month as overdue
var DefaultDelinquencyCodes = []string{"1", "2", "3", "4", "5"}

// activeRecent keeps rows inside the window whose contract is active
func activeRecent(t *columnar.Table, window int) (*columnar.Table, error) {
	recent, err := recentMask(t, window)
	if err != nil {
		return nil, err
	}
	active, err := equalsMask(t, "NAME_CONTRACT_STATUS", "Active")
	if err != nil {
		return nil, err
	}
	return t.Filter(and(recent, active))
}

// CreditCardDPD counts, per applicant, the recent active credit-card months
// with any days past due. Output: FLAG_DPD.
type CreditCardDPD struct {
	Window int
}

// NewCreditCardDPD creates the transform over the given window in months
func NewCreditCardDPD(window int) *CreditCardDPD {
	return &CreditCardDPD{Window: window}
}

func (c *CreditCardDPD) Name() string { return "credit_card_dpd" }

func (c *CreditCardDPD) Contract() schema.Contract {
	return schema.Contract{
		Requires: []schema.Field{keyField()},
		Produces: schema.Numeric("FLAG_DPD"),
		Auxiliary: map[string][]schema.Field{
			TableCreditCard: monthlyBalanceFields(
				schema.F("NAME_CONTRACT_STATUS", schema.KindString),
				schema.F("SK_DPD", schema.KindNumeric),
			),
		},
	}
}

func (c *CreditCardDPD) Transform(_ context.Context, primary *columnar.Table, aux Tables) (*columnar.Table, error) {
	cards, err := aux.Get(TableCreditCard)
	if err != nil {
		return nil, err
	}
	rows, err := activeRecent(cards, c.Window)
	if err != nil {
		return nil, err
	}

	dpd, err := rows.Floats("SK_DPD")
	if err != nil {
		return nil, err
	}
	flags := make([]float64, len(dpd))
	for i, v := range dpd {
		if v > 0 {
			flags[i] = 1
		}
	}
	rows, err = rows.With("FLAG_DPD", columnar.NewFloatColumnFrom(flags))
	if err != nil {
		return nil, err
	}
	return groupAndJoin(primary, rows, columnar.Sum("FLAG_DPD", "FLAG_DPD"))
}

// POSCashDPD sums, per applicant, the days past due over recent active
// POS and cash loan months. Output: SK_DPD.
type POSCashDPD struct {
	Window int
}

// NewPOSCashDPD creates the transform over the given window in months
func NewPOSCashDPD(window int) *POSCashDPD {
	return &POSCashDPD{Window: window}
}

func (p *POSCashDPD) Name() string { return "pos_cash_dpd" }

func (p *POSCashDPD) Contract() schema.Contract {
	return schema.Contract{
		Requires: []schema.Field{keyField()},
		Produces: schema.Numeric("SK_DPD"),
		Auxiliary: map[string][]schema.Field{
			TablePOSCash: monthlyBalanceFields(
				schema.F("NAME_CONTRACT_STATUS", schema.KindString),
				schema.F("SK_DPD", schema.KindNumeric),
			),
		},
	}
}

func (p *POSCashDPD) Transform(_ context.Context, primary *columnar.Table, aux Tables) (*columnar.Table, error) {
	pos, err := aux.Get(TablePOSCash)
	if err != nil {
		return nil, err
	}
	rows, err := activeRecent(pos, p.Window)
	if err != nil {
		return nil, err
	}
	rows, err = rows.Select(KeyApplicant, "SK_DPD")
	if err != nil {
		return nil, err
	}
	return groupAndJoin(primary, rows, columnar.Sum("SK_DPD", "SK_DPD"))
}

// BureauBalanceDelinquency counts overdue months in the bureau balance
// history of each applicant. Balance rows key on SK_ID_BUREAU, so counts
// are summed per bureau record, joined onto the bureau table and summed
// again per applicant. Output: BUREAU_DELINQUENCY_COUNT.
type BureauBalanceDelinquency struct {
	Codes []string
}

// NewBureauBalanceDelinquency creates the transform for the given status codes
func NewBureauBalanceDelinquency(codes []string) *BureauBalanceDelinquency {
	return &BureauBalanceDelinquency{Codes: codes}
}

const bureauDelinquencyColumn = "BUREAU_DELINQUENCY_COUNT"

func (b *BureauBalanceDelinquency) Name() string { return "bureau_delinquency" }

func (b *BureauBalanceDelinquency) Contract() schema.Contract {
	return schema.Contract{
		Requires: []schema.Field{keyField()},
		Produces: schema.Numeric(bureauDelinquencyColumn),
		Auxiliary: map[string][]schema.Field{
			TableBureau: {keyField(), schema.F(KeyBureau, schema.KindKey)},
			TableBureauBalance: {
				schema.F(KeyBureau, schema.KindKey),
				schema.F("STATUS", schema.KindString),
			},
		},
	}
}

func (b *BureauBalanceDelinquency) Transform(_ context.Context, primary *columnar.Table, aux Tables) (*columnar.Table, error) {
	balance, err := aux.Get(TableBureauBalance)
	if err != nil {
		return nil, err
	}
	bureau, err := aux.Get(TableBureau)
	if err != nil {
		return nil, err
	}

	status, err := balance.Strings("STATUS")
	if err != nil {
		return nil, err
	}
	codes := make(map[string]struct{}, len(b.Codes))
	for _, c := range b.Codes {
		codes[c] = struct{}{}
	}
	flags := make([]float64, status.Len())
	for i := range flags {
		if status.IsNull(i) {
			continue
		}
		if _, ok := codes[status.Value(i)]; ok {
			flags[i] = 1
		}
	}

	flagged, err := balance.Select(KeyBureau)
	if err != nil {
		return nil, err
	}
	if flagged, err = flagged.With(bureauDelinquencyColumn, columnar.NewFloatColumnFrom(flags)); err != nil {
		return nil, err
	}
	perRecord, err := aggregate(flagged, KeyBureau, columnar.Sum(bureauDelinquencyColumn, bureauDelinquencyColumn))
	if err != nil {
		return nil, err
	}

	records, err := bureau.Select(KeyApplicant, KeyBureau)
	if err != nil {
		return nil, err
	}
	records, err = columnar.LeftJoin(records, perRecord, KeyBureau, 0)
	if err != nil {
		return nil, err
	}
	return groupAndJoin(primary, records, columnar.Sum(bureauDelinquencyColumn, bureauDelinquencyColumn))
}
