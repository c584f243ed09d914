package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/creditrisk/pkg/config"
	"github.com/ajitpratap0/creditrisk/pkg/logger"
	"github.com/ajitpratap0/creditrisk/pkg/observability"
)

var version = "0.1.0"

func main() {
	if err := newRootCommand(viper.New()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:   "creditrisk",
		Short: "Credit-risk feature engineering",
		Long: `creditrisk enriches a loan-application table with features derived from
credit-card, POS/cash, bureau, previous-application and installment histories,
reports and imputes missing values, and exports prediction submissions.

Every setting of the YAML configuration can be overridden by a flag or by an
environment variable prefixed with CREDITRISK_, for example
CREDITRISK_OUTPUT_PATH=features.parquet.`,
		SilenceUsage: true,
	}

	v.SetEnvPrefix("CREDITRISK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "Path to a YAML configuration file")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "json", "Log encoding (json, console)")
	_ = v.BindPFlag("config", flags.Lookup("config"))
	_ = v.BindPFlag("observability.log_level", flags.Lookup("log-level"))
	_ = v.BindPFlag("observability.log_format", flags.Lookup("log-format"))

	root.AddCommand(
		newEnrichCommand(v),
		newMissingCommand(v),
		newImputeCommand(v),
		newSubmitCommand(v),
		newStepsCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Show version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "creditrisk v%s\n", version)
				fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
				fmt.Fprintf(cmd.OutOrStdout(), "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			},
		},
	)
	return root
}

// loadConfig reads the configuration file, if any, on top of the defaults
// and applies flag and environment overrides
func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg := config.NewDefaultConfig()
	if path := v.GetString("config"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	overrideString(v, "name", &cfg.Name)
	overrideString(v, "input.dir", &cfg.Input.Dir)
	overrideString(v, "input.primary", &cfg.Input.Primary)
	overrideInt(v, "input.concurrency", &cfg.Input.Concurrency)
	overrideInt(v, "input.inference_sample_size", &cfg.Input.InferenceSampleSize)
	overrideString(v, "output.path", &cfg.Output.Path)
	overrideString(v, "output.format", &cfg.Output.Format)
	if v.IsSet("features.steps") {
		cfg.Features.Steps = v.GetStringSlice("features.steps")
	}
	if v.IsSet("imputation.columns") {
		cfg.Imputation.Columns = v.GetStringSlice("imputation.columns")
	}
	if v.IsSet("imputation.fraction") {
		cfg.Imputation.Fraction = v.GetFloat64("imputation.fraction")
	}
	if v.IsSet("imputation.seed") {
		cfg.Imputation.Seed = v.GetInt64("imputation.seed")
	}
	if v.IsSet("pipeline.verify_purity") {
		cfg.Pipeline.VerifyPurity = v.GetBool("pipeline.verify_purity")
	}
	overrideString(v, "observability.log_level", &cfg.Observability.LogLevel)
	overrideString(v, "observability.log_format", &cfg.Observability.LogFormat)
	overrideString(v, "observability.metrics_file", &cfg.Observability.MetricsFile)
	if v.IsSet("observability.enable_tracing") {
		cfg.Observability.EnableTracing = v.GetBool("observability.enable_tracing")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func overrideString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}

func overrideInt(v *viper.Viper, key string, dst *int) {
	if v.IsSet(key) {
		*dst = v.GetInt(key)
	}
}

// session is the per-invocation runtime: logger, tracing and a run id
type session struct {
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger
	runID  string
}

func startSession(cfg *config.Config) (*session, error) {
	if err := logger.Init(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Encoding:    cfg.Observability.LogFormat,
		Development: cfg.Observability.LogFormat == "console",
	}); err != nil {
		return nil, err
	}

	tracing := observability.DefaultTracingConfig()
	tracing.Enabled = cfg.Observability.EnableTracing
	tracing.ServiceName = cfg.Name
	tracing.ServiceVersion = version
	tracing.SamplingRate = cfg.Observability.TracingSampleRate
	if err := observability.Initialize(tracing); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx = context.WithValue(ctx, logger.RunIDKey, runID)

	return &session{
		ctx:    ctx,
		cancel: cancel,
		log:    logger.WithContext(ctx).With(zap.String("component", "creditrisk-cli")),
		runID:  runID,
	}, nil
}

func (s *session) close() {
	if err := observability.Shutdown(context.Background()); err != nil {
		s.log.Warn("failed to flush traces", zap.Error(err))
	}
	_ = logger.Sync()
	s.cancel()
}
