package features

import (
	"context"
	"testing"

	"github.com/ajitpratap0/creditrisk/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func socialTable(t *testing.T) []testColumn {
	return []testColumn{
		floats("OBS_30_CNT_SOCIAL_CIRCLE", 2, 0, nan),
		floats("OBS_60_CNT_SOCIAL_CIRCLE", 3, 5, 1),
		floats("DEF_30_CNT_SOCIAL_CIRCLE", 1, 1, 0),
		floats("DEF_60_CNT_SOCIAL_CIRCLE", 1, 2, 0),
	}
}

func TestSocialCircle(t *testing.T) {
	primary := applicants(t, socialTable(t)...)

	out, err := NewSocialCircle().Transform(context.Background(), primary, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{KeyApplicant, "OBS_CNT_SOCIAL_CIRCLE", "DEF_CNT_SOCIAL_CIRCLE"}, out.ColumnNames())
	obs := mustFloats(t, out, "OBS_CNT_SOCIAL_CIRCLE")
	assert.Equal(t, []float64{6, 0}, obs[:2])
	assert.True(t, obs[2] != obs[2], "missing propagates")
	assert.Equal(t, []float64{1, 2, 0}, mustFloats(t, out, "DEF_CNT_SOCIAL_CIRCLE"))
	assert.Equal(t, 5, primary.ColumnCount())
}

func TestSocialCircle_ReapplyFails(t *testing.T) {
	primary := applicants(t, socialTable(t)...)
	s := NewSocialCircle()

	once, err := s.Transform(context.Background(), primary, nil)
	require.NoError(t, err)

	_, err = s.Transform(context.Background(), once, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestDropID(t *testing.T) {
	primary := applicants(t, floats("AMT_CREDIT", 1, 2, 3))
	out, err := NewDropID().Transform(context.Background(), primary, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"AMT_CREDIT"}, out.ColumnNames())
	assert.True(t, primary.Has(KeyApplicant))

	_, err = NewDropID().Transform(context.Background(), out, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}
