package features

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnquiriesTotal(t *testing.T) {
	primary := applicants(t,
		floats("AMT_REQ_CREDIT_BUREAU_MON", 1, 0, 2),
		floats("AMT_REQ_CREDIT_BUREAU_YEAR", 3, nan, 1))

	e := NewEnquiriesTotal([]string{"AMT_REQ_CREDIT_BUREAU_YEAR", "AMT_REQ_CREDIT_BUREAU_MON"})
	out, err := e.Transform(context.Background(), primary, nil)
	require.NoError(t, err)

	total := mustFloats(t, out, "AMT_REQ_CREDIT_BUREAU_TOTAL")
	assert.Equal(t, 4.0, total[0])
	assert.True(t, math.IsNaN(total[1]))
	assert.Equal(t, 3.0, total[2])
}
