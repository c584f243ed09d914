package pipeline

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ajitpratap0/creditrisk/pkg/columnar"
	"github.com/ajitpratap0/creditrisk/pkg/errors"
	"github.com/ajitpratap0/creditrisk/pkg/features"
	"github.com/ajitpratap0/creditrisk/pkg/schema"
	"github.com/ajitpratap0/creditrisk/pkg/testutil"
)

// stepFunc adapts a function to features.Transformer
type stepFunc struct {
	name     string
	contract schema.Contract
	fn       func(ctx context.Context, primary *columnar.Table, aux features.Tables) (*columnar.Table, error)
}

func (s *stepFunc) Name() string              { return s.name }
func (s *stepFunc) Contract() schema.Contract { return s.contract }
func (s *stepFunc) Transform(ctx context.Context, primary *columnar.Table, aux features.Tables) (*columnar.Table, error) {
	return s.fn(ctx, primary, aux)
}

func application(t *testing.T) *columnar.Table {
	return testutil.Table(t, "application",
		testutil.Ints(features.KeyApplicant, 1, 2, 3),
		testutil.Floats("AMT_CREDIT", 100, 200, 300),
		testutil.Floats("AMT_GOODS_PRICE", 90, 200, 310),
		testutil.Floats("AMT_ANNUITY", 10, 20, 30),
		testutil.Floats("AMT_INCOME_TOTAL", 100, 0, 300),
	)
}

func previous(t *testing.T) *columnar.Table {
	return testutil.Table(t, features.TablePrevious,
		testutil.Ints(features.KeyApplicant, 1, 1, 3),
		testutil.Floats("RATE_DOWN_PAYMENT", 0.1, 0.3, 0.5),
	)
}

func newPipeline(t *testing.T, cfg *Config, steps ...features.Transformer) *Pipeline {
	t.Helper()
	p, err := New(cfg, testutil.TestLogger(t), steps...)
	require.NoError(t, err)
	return p
}

func TestRun_EnrichesInOrder(t *testing.T) {
	p := newPipeline(t, &Config{Name: "test_enrich", VerifyPurity: true},
		features.NewFlagInsurance(),
		features.NewAnnuityIncomeRatio(),
		features.NewDownPaymentRate(),
		features.NewDropID(),
	)
	assert.Equal(t, []string{"flag_insurance", "annuity_income_ratio", "down_payment_rate", "drop_id"}, p.Steps())

	primary := application(t)
	aux := features.Tables{features.TablePrevious: previous(t)}
	before := primary.Fingerprint()

	out, stats, err := p.Run(context.Background(), primary, aux)
	require.NoError(t, err)

	assert.Equal(t, 3, out.RowCount())
	assert.False(t, out.Has(features.KeyApplicant))
	assert.Equal(t, before, primary.Fingerprint(), "input must not change")

	flags, err := out.Floats("FLAG_INSURANCE")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 0}, flags)

	ratio, err := out.Floats("ANNUITY_INCOME_RATIO")
	require.NoError(t, err)
	assert.Equal(t, 10.0, ratio[0])
	assert.True(t, math.IsNaN(ratio[1]), "zero income gives NaN")

	down, err := out.Floats("RATE_DOWN_PAYMENT_MEAN")
	require.NoError(t, err)
	assert.InDelta(t, 0.2, down[0], 1e-12)
	assert.Equal(t, 0.0, down[1])
	assert.Equal(t, 0.5, down[2])

	require.Len(t, stats.Steps, 4)
	assert.Equal(t, 1, stats.Steps[0].ColumnsAdded())
	assert.Equal(t, -1, stats.Steps[3].ColumnsAdded())
	assert.Equal(t, 3, stats.Rows)
	assert.Equal(t, out.ColumnCount(), stats.Columns)
}

func TestNew_RejectsStepAfterDropID(t *testing.T) {
	_, err := New(nil, zap.NewNop(), features.NewDropID(), features.NewDownPaymentRate())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestAddStep_KeepsPipelineOnRejection(t *testing.T) {
	p := newPipeline(t, nil, features.NewDropID())

	err := p.AddStep(features.NewPrevFlagInsurance())
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	assert.Equal(t, []string{"drop_id"}, p.Steps())

	err = p.AddStep(features.NewDropID())
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	assert.True(t, errors.IsType(p.AddStep(nil), errors.ErrorTypeConfig))
}

func TestNew_RejectsDuplicateProducer(t *testing.T) {
	_, err := New(nil, zap.NewNop(), features.NewFlagInsurance(), &stepFunc{
		name:     "flag_again",
		contract: schema.Contract{Produces: schema.Numeric("FLAG_INSURANCE")},
	})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestRun_ValidatesAgainstActualSchema(t *testing.T) {
	tests := []struct {
		name  string
		steps []features.Transformer
		aux   features.Tables
	}{
		{
			name:  "missing auxiliary table",
			steps: []features.Transformer{features.NewInstallmentsVersion()},
			aux:   features.Tables{},
		},
		{
			name:  "missing primary column",
			steps: []features.Transformer{features.NewSocialCircle()},
			aux:   features.Tables{},
		},
		{
			name:  "missing auxiliary column",
			steps: []features.Transformer{features.NewPrevFlagInsurance()},
			aux:   features.Tables{features.TablePrevious: previous(t)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPipeline(t, nil, tt.steps...)
			_, _, err := p.Run(context.Background(), application(t), tt.aux)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
		})
	}
}

func TestRun_RowCountInvariant(t *testing.T) {
	p := newPipeline(t, nil, &stepFunc{
		name: "truncate",
		fn: func(_ context.Context, primary *columnar.Table, _ features.Tables) (*columnar.Table, error) {
			return primary.Take([]int{0}), nil
		},
	})

	_, _, err := p.Run(context.Background(), application(t), features.Tables{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInternal))
}

func TestRun_PurityCheck(t *testing.T) {
	mutate := &stepFunc{
		name: "mutate_aux",
		fn: func(_ context.Context, primary *columnar.Table, aux features.Tables) (*columnar.Table, error) {
			prev := aux[features.TablePrevious]
			if err := prev.AddColumn("SCRATCH", columnar.NewFloatColumnFrom([]float64{0, 0, 0})); err != nil {
				return nil, err
			}
			return primary, nil
		},
	}

	p := newPipeline(t, &Config{Name: "test_purity", VerifyPurity: true}, mutate)
	_, _, err := p.Run(context.Background(), application(t), features.Tables{features.TablePrevious: previous(t)})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInternal))
	assert.Contains(t, err.Error(), features.TablePrevious)

	// without verification the same step goes unnoticed
	p = newPipeline(t, &Config{Name: "test_no_purity"}, mutate)
	_, _, err = p.Run(context.Background(), application(t), features.Tables{features.TablePrevious: previous(t)})
	assert.NoError(t, err)
}

func TestRun_StepErrorKeepsType(t *testing.T) {
	failing := &stepFunc{
		name: "lookup",
		fn: func(_ context.Context, primary *columnar.Table, _ features.Tables) (*columnar.Table, error) {
			_, err := primary.Column("NOT_THERE")
			return nil, err
		},
	}

	p := newPipeline(t, nil, failing)
	_, stats, err := p.Run(context.Background(), application(t), features.Tables{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
	assert.Contains(t, err.Error(), "step lookup failed")
	assert.Empty(t, stats.Steps)
}

func TestRun_CancelledBetweenSteps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ran := 0
	step := func(name string) *stepFunc {
		return &stepFunc{
			name: name,
			fn: func(_ context.Context, primary *columnar.Table, _ features.Tables) (*columnar.Table, error) {
				ran++
				cancel()
				return primary, nil
			},
		}
	}

	p := newPipeline(t, nil, step("first"), step("second"))
	_, stats, err := p.Run(ctx, application(t), features.Tables{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, ran)
	assert.Len(t, stats.Steps, 1)
}

func TestRun_DefaultStepsOnFixture(t *testing.T) {
	steps, err := features.NewRegistry().CreateAll(features.DefaultSteps, features.DefaultOptions())
	require.NoError(t, err)
	p := newPipeline(t, &Config{Name: "test_defaults"}, steps...)

	// the application fixture lacks most inputs of the reference feature set
	_, _, err = p.Run(context.Background(), application(t), features.Tables{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}
