// Package metrics records pipeline performance with Prometheus collectors.
//
// All collectors live in a dedicated Registry rather than the default one, so
// a batch run can dump exactly its own series to a node-exporter textfile
// when it finishes:
//
//	collector := metrics.NewCollector("enrich")
//	timer := metrics.NewTimer("flag_insurance")
//	out, err := step.Transform(ctx, primary, aux)
//	collector.RecordStep("flag_insurance", timer.Stop(), out.RowCount(), 1, err)
//	...
//	metrics.WriteToTextfile("/var/lib/node_exporter/creditrisk.prom")
package metrics

import (
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/ajitpratap0/creditrisk/pkg/errors"
)

// Registry holds every collector of this package
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// StepDuration tracks how long each transform step takes.
	// Labels: pipeline, step, status (success/failure)
	StepDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "creditrisk_step_duration_seconds",
			Help: "Duration of a transform step in seconds",
			Buckets: []float64{
				0.001, // 1ms - lookups on small frames
				0.01,  // 10ms
				0.1,   // 100ms - single-table transforms
				1,     // 1s - group-and-join on large auxiliaries
				10,    // 10s
				60,    // 1m - full bureau balance scans
			},
		},
		[]string{"pipeline", "step", "status"},
	)

	// StepsTotal counts executed steps.
	// Labels: pipeline, step, status
	StepsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creditrisk_steps_total",
			Help: "Total number of transform steps executed",
		},
		[]string{"pipeline", "step", "status"},
	)

	// RowsProcessed counts primary-table rows passed through each step
	RowsProcessed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creditrisk_rows_processed_total",
			Help: "Total number of primary rows processed",
		},
		[]string{"pipeline", "step"},
	)

	// ColumnsAdded reports the net column change of the last run of a step;
	// dropping steps report a negative value
	ColumnsAdded = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "creditrisk_step_columns_added",
			Help: "Net number of columns added by the last run of a step",
		},
		[]string{"pipeline", "step"},
	)

	// TableRows reports the row count of every loaded table
	TableRows = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "creditrisk_table_rows",
			Help: "Number of rows in a loaded table",
		},
		[]string{"table"},
	)

	// ValuesImputed counts entries filled by imputation
	ValuesImputed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creditrisk_values_imputed_total",
			Help: "Total number of missing entries filled by imputation",
		},
		[]string{"column"},
	)

	// ResidentMemory tracks the resident set size of the process
	ResidentMemory = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "creditrisk_process_resident_memory_bytes",
			Help: "Resident memory of the process in bytes",
		},
	)
)

// Collector records the metrics of one named pipeline
type Collector struct {
	pipeline  string
	startTime time.Time

	mu   sync.Mutex
	proc *process.Process
}

// NewCollector creates a collector labelling every series with pipeline
func NewCollector(pipeline string) *Collector {
	return &Collector{
		pipeline:  pipeline,
		startTime: time.Now(),
	}
}

// StartTime returns when the collector was created
func (c *Collector) StartTime() time.Time {
	return c.startTime
}

// RecordStep records the outcome of one step
func (c *Collector) RecordStep(step string, duration time.Duration, rows, columnsAdded int, err error) {
	status := statusOf(err)
	StepDuration.WithLabelValues(c.pipeline, step, status).Observe(duration.Seconds())
	StepsTotal.WithLabelValues(c.pipeline, step, status).Inc()
	if err != nil {
		return
	}
	RowsProcessed.WithLabelValues(c.pipeline, step).Add(float64(rows))
	ColumnsAdded.WithLabelValues(c.pipeline, step).Set(float64(columnsAdded))
}

// RecordTable records the size of a loaded table
func (c *Collector) RecordTable(name string, rows int) {
	TableRows.WithLabelValues(name).Set(float64(rows))
}

// RecordImputed records the number of entries imputation filled in column
func (c *Collector) RecordImputed(column string, filled int) {
	ValuesImputed.WithLabelValues(column).Add(float64(filled))
}

// SampleMemory reads the resident memory of the current process and updates
// ResidentMemory
func (c *Collector) SampleMemory() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.proc == nil {
		p, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // pid fits in int32
		if err != nil {
			return 0, errors.Wrap(err, errors.ErrorTypeInternal, "failed to open process handle")
		}
		c.proc = p
	}

	info, err := c.proc.MemoryInfo()
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeInternal, "failed to read process memory")
	}
	ResidentMemory.Set(float64(info.RSS))
	return info.RSS, nil
}

// WriteToTextfile writes every series of Registry to path in the text format
// read by the node exporter textfile collector
func WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write metrics").
			WithDetail("path", path)
	}
	return nil
}

func statusOf(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// Timer measures the duration of an operation from its creation
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the operation the timer measures
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. It can be called more
// than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
