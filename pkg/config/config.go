package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ajitpratap0/creditrisk/pkg/errors"
	"github.com/ajitpratap0/creditrisk/pkg/features"
)

// Config is the configuration of one feature-engineering run. It is organized
// into sections that mirror the stages of the run: loading, feature steps,
// imputation, writing and observability.
type Config struct {
	// Name identifies the run in logs and traces
	Name string `yaml:"name" json:"name" validate:"required"`

	Input         InputConfig         `yaml:"input" json:"input"`
	Output        OutputConfig        `yaml:"output" json:"output"`
	Features      FeaturesConfig      `yaml:"features" json:"features"`
	Imputation    ImputationConfig    `yaml:"imputation" json:"imputation"`
	Pipeline      PipelineConfig      `yaml:"pipeline" json:"pipeline"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// InputConfig locates the primary table and the auxiliary tables.
// File names are resolved against Dir; compressed files are recognized by
// extension.
type InputConfig struct {
	Dir     string `yaml:"dir" json:"dir" validate:"required"`
	Primary string `yaml:"primary" json:"primary" validate:"required"`
	// Auxiliary maps a table name to its file
	Auxiliary map[string]string `yaml:"auxiliary" json:"auxiliary" validate:"dive,keys,required,endkeys,required"`
	// InferenceSampleSize bounds the rows used for type inference, 0 means all
	InferenceSampleSize int `yaml:"inference_sample_size" json:"inference_sample_size" validate:"gte=0"`
	// Concurrency bounds the number of tables loaded at once
	Concurrency int `yaml:"concurrency" json:"concurrency" validate:"gte=1,lte=64"`
}

// OutputConfig controls where the enriched table goes
type OutputConfig struct {
	Path string `yaml:"path" json:"path" validate:"required"`
	// Format overrides the format implied by the file extension
	Format string `yaml:"format" json:"format" validate:"omitempty,oneof=csv parquet arrow"`
}

// FeaturesConfig selects the transform steps and their parameters
type FeaturesConfig struct {
	Steps              []string `yaml:"steps" json:"steps" validate:"required,min=1,dive,required"`
	CreditCardWindow   int      `yaml:"credit_card_window" json:"credit_card_window" validate:"gte=1"`
	POSCashWindow      int      `yaml:"pos_cash_window" json:"pos_cash_window" validate:"gte=1"`
	DrawingsWindow     int      `yaml:"drawings_window" json:"drawings_window" validate:"gte=1"`
	BureauScarce       []string `yaml:"bureau_scarce" json:"bureau_scarce"`
	PrevContractScarce []string `yaml:"prev_contract_scarce" json:"prev_contract_scarce"`
	EnquiryColumns     []string `yaml:"enquiry_columns" json:"enquiry_columns" validate:"required,min=1,dive,required"`
	DelinquencyCodes   []string `yaml:"delinquency_codes" json:"delinquency_codes" validate:"required,min=1,dive,required"`
	// TenureEdges are the lower bounds of the employment tenure buckets, one
	// per entry of TenureLabels
	TenureEdges  []float64 `yaml:"tenure_edges" json:"tenure_edges"`
	TenureLabels []string  `yaml:"tenure_labels" json:"tenure_labels" validate:"dive,required"`
}

// ImputationConfig drives the distinct-value imputation pass that runs after
// the feature steps. No columns means the pass is skipped.
type ImputationConfig struct {
	Columns  []string `yaml:"columns" json:"columns" validate:"dive,required"`
	Fraction float64  `yaml:"fraction" json:"fraction" validate:"gte=0,lte=1"`
	Seed     int64    `yaml:"seed" json:"seed"`
}

// PipelineConfig holds runtime checks of the pipeline
type PipelineConfig struct {
	// VerifyPurity fingerprints the auxiliary tables around every step and
	// fails the run if a step modified one
	VerifyPurity bool `yaml:"verify_purity" json:"verify_purity"`
}

// ObservabilityConfig contains logging, metrics and tracing settings
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" json:"log_format" validate:"oneof=json console"`
	// MetricsFile receives the run metrics in Prometheus text format
	MetricsFile       string  `yaml:"metrics_file" json:"metrics_file"`
	EnableTracing     bool    `yaml:"enable_tracing" json:"enable_tracing"`
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate" validate:"gte=0,lte=1"`
}

// NewDefaultConfig returns a configuration with the reference feature set
// and the file layout of the credit default dataset.
func NewDefaultConfig() *Config {
	opts := features.DefaultOptions()
	return &Config{
		Name: "creditrisk",
		Input: InputConfig{
			Dir:     ".",
			Primary: "application_train.csv",
			Auxiliary: map[string]string{
				features.TableCreditCard:    "credit_card_balance.csv",
				features.TablePOSCash:       "POS_CASH_balance.csv",
				features.TableBureau:        "bureau.csv",
				features.TableBureauBalance: "bureau_balance.csv",
				features.TablePrevious:      "previous_application.csv",
				features.TableInstallments:  "installments_payments.csv",
			},
			InferenceSampleSize: 1000,
			Concurrency:         4,
		},
		Output: OutputConfig{
			Path: "features.csv",
		},
		Features: FeaturesConfig{
			Steps:              append([]string(nil), features.DefaultSteps...),
			CreditCardWindow:   opts.CreditCardWindow,
			POSCashWindow:      opts.POSCashWindow,
			DrawingsWindow:     opts.DrawingsWindow,
			BureauScarce:       append([]string(nil), opts.BureauScarce...),
			PrevContractScarce: append([]string(nil), opts.PrevContractScarce...),
			EnquiryColumns:     append([]string(nil), opts.EnquiryColumns...),
			DelinquencyCodes:   append([]string(nil), opts.DelinquencyCodes...),
			TenureEdges:        append([]float64(nil), opts.TenureEdges...),
			TenureLabels:       append([]string(nil), opts.TenureLabels...),
		},
		Imputation: ImputationConfig{
			Fraction: 0.1,
			Seed:     42,
		},
		Observability: ObservabilityConfig{
			LogLevel:          "info",
			LogFormat:         "json",
			TracingSampleRate: 1.0,
		},
	}
}

// Options converts the section into transform options
func (f FeaturesConfig) Options() features.Options {
	return features.Options{
		CreditCardWindow:   f.CreditCardWindow,
		POSCashWindow:      f.POSCashWindow,
		DrawingsWindow:     f.DrawingsWindow,
		BureauScarce:       f.BureauScarce,
		PrevContractScarce: f.PrevContractScarce,
		EnquiryColumns:     f.EnquiryColumns,
		DelinquencyCodes:   f.DelinquencyCodes,
		TenureEdges:        f.TenureEdges,
		TenureLabels:       f.TenureLabels,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report yaml names so errors point at the config file keys
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return c.validateSteps()
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid configuration")
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return errors.New(errors.ErrorTypeConfig, "invalid configuration: "+strings.Join(msgs, "; ")).
		WithDetail("fields", len(fieldErrs))
}

// validateSteps rejects unknown and repeated step names, and step parameters
// the transforms refuse
func (c *Config) validateSteps() error {
	known := make(map[string]struct{})
	for _, name := range features.NewRegistry().List() {
		known[name] = struct{}{}
	}

	seen := make(map[string]struct{}, len(c.Features.Steps))
	for _, step := range c.Features.Steps {
		if _, ok := known[step]; !ok {
			return errors.Newf(errors.ErrorTypeConfig, "unknown feature step %q", step).
				WithDetail("step", step)
		}
		if _, dup := seen[step]; dup {
			return errors.Newf(errors.ErrorTypeConfig, "feature step %q listed twice", step).
				WithDetail("step", step)
		}
		seen[step] = struct{}{}
	}

	if _, err := features.NewRegistry().CreateAll(c.Features.Steps, c.Features.Options()); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid feature parameters")
	}
	return nil
}

func formatFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range (%s %s)", field, fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
