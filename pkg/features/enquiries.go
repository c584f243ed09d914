package features

import (
	"context"

	"github.com/ajitpratap0/creditrisk/pkg/columnar"
	"github.com/ajitpratap0/creditrisk/pkg/schema"
)

// DefaultEnquiryColumns are the credit bureau enquiry counts of the
// application table
var DefaultEnquiryColumns = []string{
	"AMT_REQ_CREDIT_BUREAU_HOUR",
	"AMT_REQ_CREDIT_BUREAU_DAY",
	"AMT_REQ_CREDIT_BUREAU_WEEK",
	"AMT_REQ_CREDIT_BUREAU_MON",
	"AMT_REQ_CREDIT_BUREAU_QRT",
	"AMT_REQ_CREDIT_BUREAU_YEAR",
}

// EnquiriesTotal sums enquiry columns row-wise into
// AMT_REQ_CREDIT_BUREAU_TOTAL. A missing addend makes the total missing.
type EnquiriesTotal struct {
	Columns []string
	Output  string
}

// NewEnquiriesTotal creates the transform over the given columns
func NewEnquiriesTotal(columns []string) *EnquiriesTotal {
	return &EnquiriesTotal{Columns: columns, Output: "AMT_REQ_CREDIT_BUREAU_TOTAL"}
}

func (e *EnquiriesTotal) Name() string { return "enquiries_total" }

func (e *EnquiriesTotal) Contract() schema.Contract {
	return schema.Contract{
		Requires: schema.Numeric(e.Columns...),
		Produces: schema.Numeric(e.Output),
	}
}

func (e *EnquiriesTotal) Transform(_ context.Context, primary *columnar.Table, _ Tables) (*columnar.Table, error) {
	total := make([]float64, primary.RowCount())
	for _, name := range e.Columns {
		values, err := primary.Floats(name)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			total[i] += v
		}
	}
	return derive(primary, e.Output, columnar.NewFloatColumnFrom(total))
}
