package features

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagInsurance(t *testing.T) {
	tests := []struct {
		name   string
		credit float64
		goods  float64
		want   float64
	}{
		{"credit above goods price", 100, 80, 1},
		{"credit below goods price", 80, 100, 0},
		{"equal", 100, 100, 0},
		{"missing goods price", 100, nan, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := newTable(t, "application",
				ints(KeyApplicant, 1),
				floats("AMT_CREDIT", tt.credit),
				floats("AMT_GOODS_PRICE", tt.goods))

			out, err := NewFlagInsurance().Transform(context.Background(), primary, nil)
			require.NoError(t, err)
			assert.Equal(t, []float64{tt.want}, mustFloats(t, out, "FLAG_INSURANCE"))
			assert.False(t, primary.Has("FLAG_INSURANCE"))
		})
	}
}

func TestPrevFlagInsurance(t *testing.T) {
	prev := newTable(t, TablePrevious,
		ints(KeyApplicant, 1, 1, 2, 2),
		floats("NFLAG_INSURED_ON_APPROVAL", 0, 1, nan, nan))

	out, err := NewPrevFlagInsurance().Transform(context.Background(), applicants(t), Tables{TablePrevious: prev})
	require.NoError(t, err)

	// applicant 2 only has missing flags; the join fills 0
	assert.Equal(t, []float64{1, 0, 0}, mustFloats(t, out, "PREV_FLAG_INSURANCE"))
}
