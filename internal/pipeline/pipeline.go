// Package pipeline runs an ordered list of feature transforms over a primary
// table.
//
// # Overview
//
// A Pipeline is composed once and run once per data set. Composition walks
// the schema contracts of the steps in order and rejects lists that can never
// run, for example a step that needs SK_ID_CURR after DropID removed it. Run
// repeats the check against the actual table schemas and then executes the
// steps sequentially:
//   - every step receives the previous step's output and the untouched
//     auxiliary tables
//   - the row count of the primary table must not change
//   - cancellation is honoured between steps
//   - each step is logged, traced and measured
//
// # Basic Usage
//
//	steps, err := features.NewRegistry().CreateAll(features.DefaultSteps, features.DefaultOptions())
//	p, err := pipeline.New(&pipeline.Config{Name: "enrich"}, logger, steps...)
//	enriched, stats, err := p.Run(ctx, application, aux)
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/creditrisk/pkg/columnar"
	"github.com/ajitpratap0/creditrisk/pkg/errors"
	"github.com/ajitpratap0/creditrisk/pkg/features"
	plog "github.com/ajitpratap0/creditrisk/pkg/logger"
	"github.com/ajitpratap0/creditrisk/pkg/metrics"
	"github.com/ajitpratap0/creditrisk/pkg/observability"
	"github.com/ajitpratap0/creditrisk/pkg/schema"
)

// Config contains pipeline settings
type Config struct {
	// Name labels logs, metrics and spans
	Name string
	// VerifyPurity fingerprints the inputs around every step and fails the run
	// if a step modified the primary input or an auxiliary table
	VerifyPurity bool
}

// DefaultConfig returns the configuration used when none is given
func DefaultConfig() *Config {
	return &Config{Name: "enrich"}
}

// Pipeline is an ordered list of transforms
type Pipeline struct {
	name         string
	steps        []features.Transformer
	verifyPurity bool

	logger    *zap.Logger
	collector *metrics.Collector
	tracer    *observability.StepTracer
}

// New composes a pipeline from steps and checks that their contracts chain.
// A nil logger uses the global one.
func New(config *Config, logger *zap.Logger, steps ...features.Transformer) (*Pipeline, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = plog.Get()
	}

	p := &Pipeline{
		name:         config.Name,
		verifyPurity: config.VerifyPurity,
		logger:       logger.With(zap.String("pipeline", config.Name)),
		collector:    metrics.NewCollector(config.Name),
		tracer:       observability.NewStepTracer(config.Name),
	}
	for _, step := range steps {
		if err := p.AddStep(step); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// AddStep appends a step. The step is rejected, and the pipeline left as it
// was, when its contract cannot follow the steps already present.
func (p *Pipeline) AddStep(step features.Transformer) error {
	if step == nil {
		return errors.New(errors.ErrorTypeConfig, "nil step")
	}
	for _, existing := range p.steps {
		if existing.Name() == step.Name() {
			return errors.Newf(errors.ErrorTypeValidation, "step %q added twice", step.Name()).
				WithDetail("step", step.Name())
		}
	}

	candidate := append(append([]features.Transformer(nil), p.steps...), step)
	if err := checkContracts(schema.NewOpenState(), candidate); err != nil {
		return err
	}
	p.steps = candidate
	return nil
}

// Steps returns the step names in execution order
func (p *Pipeline) Steps() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name()
	}
	return names
}

// Validate checks the steps against concrete schemas: every required column
// and auxiliary table must exist with a compatible kind at the point the
// step runs.
func (p *Pipeline) Validate(primary *columnar.Schema, aux map[string]*columnar.Schema) error {
	return checkContracts(schema.NewState(primary, aux), p.steps)
}

func checkContracts(state *schema.State, steps []features.Transformer) error {
	for _, step := range steps {
		if err := state.Apply(step.Name(), step.Contract()); err != nil {
			return err
		}
	}
	return nil
}

// Run executes every step in order and returns the enriched table. Neither
// primary nor any auxiliary table is modified.
func (p *Pipeline) Run(ctx context.Context, primary *columnar.Table, aux features.Tables) (*columnar.Table, *Stats, error) {
	stats := &Stats{
		Pipeline:  p.name,
		Rows:      primary.RowCount(),
		StartTime: time.Now(),
	}

	ctx, span := p.tracer.StartSpan(ctx, "run")
	defer span.End()
	span.SetAttribute("steps", p.Steps())
	span.SetAttribute("table.rows", primary.RowCount())

	log := p.logger
	if runID, ok := ctx.Value(plog.RunIDKey).(string); ok {
		log = log.With(zap.String("run_id", runID))
	}
	log.Info("starting pipeline",
		zap.Int("steps", len(p.steps)),
		zap.Int("rows", primary.RowCount()),
		zap.Int("columns", primary.ColumnCount()),
		zap.Strings("auxiliary", aux.Names()))

	if err := p.Validate(primary.Schema(), aux.Schemas()); err != nil {
		span.RecordError(err)
		return nil, stats, err
	}

	var prints map[string]uint64
	if p.verifyPurity {
		prints = fingerprints(primary, aux)
	}

	current := primary
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			err = errors.Wrap(err, errors.ErrorTypeInternal, "pipeline cancelled before step "+step.Name())
			span.RecordError(err)
			return nil, stats, err
		}

		next, st, err := p.runStep(ctx, log, step, current, aux)
		if err != nil {
			span.RecordError(err)
			log.Error("step failed", zap.String("step", step.Name()), zap.Error(err))
			return nil, stats, err
		}
		stats.Steps = append(stats.Steps, st)

		if p.verifyPurity {
			if err := verify(step.Name(), prints, primary, aux); err != nil {
				span.RecordError(err)
				return nil, stats, err
			}
		}
		current = next
	}

	stats.Columns = current.ColumnCount()
	stats.Duration = time.Since(stats.StartTime)
	span.RecordError(nil)

	log.Info("pipeline completed",
		zap.Int("rows", current.RowCount()),
		zap.Int("columns", current.ColumnCount()),
		zap.Duration("duration", stats.Duration))
	return current, stats, nil
}

func (p *Pipeline) runStep(ctx context.Context, log *zap.Logger, step features.Transformer, in *columnar.Table, aux features.Tables) (*columnar.Table, StepStats, error) {
	name := step.Name()
	ctx = context.WithValue(ctx, plog.StepKey, name)
	log = log.With(zap.String("step", name))
	st := StepStats{Name: name, ColumnsBefore: in.ColumnCount()}

	log.Debug("running step", zap.Stringer("contract", step.Contract()))
	timer := metrics.NewTimer(name)

	var out *columnar.Table
	err := p.tracer.TraceStep(ctx, name, in.RowCount(), func(ctx context.Context) error {
		var err error
		out, err = step.Transform(ctx, in, aux)
		if err != nil {
			return errors.Wrap(err, errors.TypeOf(err), "step "+name+" failed")
		}
		if out.RowCount() != in.RowCount() {
			return errors.Newf(errors.ErrorTypeInternal, "step %q changed the row count from %d to %d",
				name, in.RowCount(), out.RowCount()).
				WithDetail("step", name)
		}
		return nil
	})
	st.Duration = timer.Stop()
	if err != nil {
		p.collector.RecordStep(name, st.Duration, in.RowCount(), 0, err)
		return nil, st, err
	}

	st.ColumnsAfter = out.ColumnCount()
	p.collector.RecordStep(name, st.Duration, out.RowCount(), st.ColumnsAdded(), nil)
	if rss, err := p.collector.SampleMemory(); err == nil {
		st.ResidentMemory = rss
	} else {
		log.Debug("memory sample unavailable", zap.Error(err))
	}

	log.Info("step completed",
		zap.Duration("duration", st.Duration),
		zap.Int("columns_added", st.ColumnsAdded()),
		zap.Uint64("rss_bytes", st.ResidentMemory))
	return out, st, nil
}

const primaryKey = "\x00primary"

func fingerprints(primary *columnar.Table, aux features.Tables) map[string]uint64 {
	out := make(map[string]uint64, len(aux)+1)
	out[primaryKey] = primary.Fingerprint()
	for name, t := range aux {
		out[name] = t.Fingerprint()
	}
	return out
}

func verify(step string, before map[string]uint64, primary *columnar.Table, aux features.Tables) error {
	for name, fp := range fingerprints(primary, aux) {
		if before[name] == fp {
			continue
		}
		table := name
		if name == primaryKey {
			table = primary.Name()
		}
		return errors.Newf(errors.ErrorTypeInternal, "step %q modified input table %q", step, table).
			WithDetail("step", step).
			WithDetail("table", table)
	}
	return nil
}
