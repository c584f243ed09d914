package features

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownPaymentRate(t *testing.T) {
	prev := newTable(t, TablePrevious,
		ints(KeyApplicant, 1, 1, 3),
		floats("RATE_DOWN_PAYMENT", 0.1, 0.3, nan))

	out, err := NewDownPaymentRate().Transform(context.Background(), applicants(t), Tables{TablePrevious: prev})
	require.NoError(t, err)

	rate := mustFloats(t, out, "RATE_DOWN_PAYMENT_MEAN")
	assert.InDelta(t, 0.2, rate[0], 1e-12)
	assert.Equal(t, 0.0, rate[1])
	assert.Equal(t, 0.0, rate[2])
}

func TestInstallmentsVersion(t *testing.T) {
	inst := newTable(t, TableInstallments,
		ints(KeyApplicant, 1, 1, 1, 2, 2),
		floats("NUM_INSTALMENT_VERSION", 2, 4, 1, 1, 1))

	out, err := NewInstallmentsVersion().Transform(context.Background(), applicants(t), Tables{TableInstallments: inst})
	require.NoError(t, err)

	// applicant 2 only has version 1 records: 0, not 1
	assert.Equal(t, []float64{3, 0, 0}, mustFloats(t, out, "INSTALMENT_VERSION_MEAN"))
}
