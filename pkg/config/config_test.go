package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/creditrisk/pkg/errors"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, NewDefaultConfig().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing name", func(c *Config) { c.Name = "" }, "name is required"},
		{"no steps", func(c *Config) { c.Features.Steps = nil }, "features.steps"},
		{"bad format", func(c *Config) { c.Output.Format = "xls" }, "output.format must be one of"},
		{"zero window", func(c *Config) { c.Features.CreditCardWindow = 0 }, "features.credit_card_window"},
		{"fraction above one", func(c *Config) { c.Imputation.Fraction = 2 }, "imputation.fraction"},
		{"bad log level", func(c *Config) { c.Observability.LogLevel = "loud" }, "observability.log_level"},
		{"unknown step", func(c *Config) { c.Features.Steps = []string{"flag_insurance", "nope"} }, `unknown feature step "nope"`},
		{"repeated step", func(c *Config) { c.Features.Steps = []string{"flag_insurance", "flag_insurance"} }, "listed twice"},
		{"tenure labels", func(c *Config) { c.Features.TenureLabels = c.Features.TenureLabels[1:] }, "employment_tenure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFeaturesOptions(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Features.DrawingsWindow = 3

	opts := cfg.Features.Options()
	assert.Equal(t, 3, opts.DrawingsWindow)
	assert.Equal(t, cfg.Features.EnquiryColumns, opts.EnquiryColumns)
	assert.Equal(t, cfg.Features.TenureEdges, opts.TenureEdges)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	t.Setenv("CREDITRISK_TEST_DIR", "/data/home-credit")

	content := `
name: nightly
input:
  dir: ${CREDITRISK_TEST_DIR}
  primary: application_train.csv.gz
output:
  path: ${CREDITRISK_TEST_OUT:-out/features.parquet}
features:
  steps: [flag_insurance, employment_tenure]
  drawings_window: 5
  tenure_edges: [0, 365, 3650]
  tenure_labels: [new, mid, long]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "nightly", cfg.Name)
	assert.Equal(t, "/data/home-credit", cfg.Input.Dir)
	assert.Equal(t, "application_train.csv.gz", cfg.Input.Primary)
	assert.Equal(t, "out/features.parquet", cfg.Output.Path)
	assert.Equal(t, []string{"flag_insurance", "employment_tenure"}, cfg.Features.Steps)
	assert.Equal(t, 5, cfg.Features.DrawingsWindow)
	assert.Equal(t, []float64{0, 365, 3650}, cfg.Features.TenureEdges)
	assert.Equal(t, []string{"new", "mid", "long"}, cfg.Features.TenureLabels)
	// untouched keys keep their defaults
	assert.Equal(t, 12, cfg.Features.CreditCardWindow)
	assert.Len(t, cfg.Input.Auxiliary, 6)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [unclosed"), 0o600))
	_, err = LoadConfig(path)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	path = filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("imputation:\n  fraction: 3\n"), 0o600))
	_, err = LoadConfig(path)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := NewDefaultConfig()
	cfg.Name = "saved"

	require.NoError(t, Save(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "saved", loaded.Name)
	assert.Equal(t, cfg.Features.Steps, loaded.Features.Steps)
	assert.Equal(t, cfg.Features.BureauScarce, loaded.Features.BureauScarce)
	assert.Equal(t, cfg.Input.Auxiliary, loaded.Input.Auxiliary)
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("CR_SET", "value")

	assert.Equal(t, "a value b", substituteEnvVars("a ${CR_SET} b"))
	assert.Equal(t, "x=fallback", substituteEnvVars("x=${CR_UNSET_VAR:-fallback}"))
	assert.Equal(t, "x=", substituteEnvVars("x=${CR_UNSET_VAR}"))
	assert.Equal(t, "open ${brace", substituteEnvVars("open ${brace"))
}
