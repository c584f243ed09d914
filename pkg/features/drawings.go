package features

import (
	"context"
	"math"

	"github.com/ajitpratap0/creditrisk/pkg/columnar"
	"github.com/ajitpratap0/creditrisk/pkg/schema"
)

// DefaultDrawingsWindow is the trailing number of months summed by CardDrawings
const DefaultDrawingsWindow = 7

// DrawingColumns are the credit-card drawing amounts added per record
var DrawingColumns = []string{
	"AMT_DRAWINGS_ATM_CURRENT",
	"AMT_DRAWINGS_CURRENT",
	"AMT_DRAWINGS_OTHER_CURRENT",
	"AMT_DRAWINGS_POS_CURRENT",
}

// CardDrawings sums, per applicant, the credit-card drawings of the recent
// months. Rows are filtered to the window first; missing amounts then count
// as 0. Output: AMT_DRAWINGS_TOTAL.
type CardDrawings struct {
	Window int
}

// NewCardDrawings creates the transform over the given window in months
func NewCardDrawings(window int) *CardDrawings {
	return &CardDrawings{Window: window}
}

func (d *CardDrawings) Name() string { return "card_drawings" }

func (d *CardDrawings) Contract() schema.Contract {
	return schema.Contract{
		Requires: []schema.Field{keyField()},
		Produces: schema.Numeric("AMT_DRAWINGS_TOTAL"),
		Auxiliary: map[string][]schema.Field{
			TableCreditCard: monthlyBalanceFields(schema.Numeric(DrawingColumns...)...),
		},
	}
}

func (d *CardDrawings) Transform(_ context.Context, primary *columnar.Table, aux Tables) (*columnar.Table, error) {
	cards, err := aux.Get(TableCreditCard)
	if err != nil {
		return nil, err
	}
	mask, err := recentMask(cards, d.Window)
	if err != nil {
		return nil, err
	}
	rows, err := cards.Filter(mask)
	if err != nil {
		return nil, err
	}

	total := make([]float64, rows.RowCount())
	for _, name := range DrawingColumns {
		values, err := rows.Floats(name)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			if !math.IsNaN(v) {
				total[i] += v
			}
		}
	}

	rows, err = rows.Select(KeyApplicant)
	if err != nil {
		return nil, err
	}
	if rows, err = rows.With("AMT_DRAWINGS_TOTAL", columnar.NewFloatColumnFrom(total)); err != nil {
		return nil, err
	}
	return groupAndJoin(primary, rows, columnar.Sum("AMT_DRAWINGS_TOTAL", "AMT_DRAWINGS_TOTAL"))
}
