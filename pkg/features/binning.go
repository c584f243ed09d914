package features

import (
	"context"
	"math"
	"sort"

	"github.com/ajitpratap0/creditrisk/pkg/columnar"
	"github.com/ajitpratap0/creditrisk/pkg/errors"
	"github.com/ajitpratap0/creditrisk/pkg/schema"
)

// Bin buckets a numeric column into labelled intervals.
//
// Interval i is [Edges[i], Edges[i+1]), except the last, which also holds
// its upper edge. Values below the first edge, above the last one, or
// missing produce a missing label.
type Bin struct {
	StepName string
	Column   string
	Output   string
	Edges    []float64
	Labels   []string
	// Absolute bins |value| instead of value
	Absolute bool
}

// NewBin validates edges and labels and creates the transform
func NewBin(name, column, output string, edges []float64, labels []string) (*Bin, error) {
	b := &Bin{StepName: name, Column: column, Output: output, Edges: edges, Labels: labels}
	if err := validateEdges(edges, labels); err != nil {
		return nil, err
	}
	return b, nil
}

func validateEdges(edges []float64, labels []string) error {
	if len(edges) < 2 {
		return errors.Newf(errors.ErrorTypeConfig, "binning needs at least 2 edges, got %d", len(edges))
	}
	if len(labels) != len(edges)-1 {
		return errors.Newf(errors.ErrorTypeConfig, "binning has %d edges and %d labels, want %d labels",
			len(edges), len(labels), len(edges)-1)
	}
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return errors.Newf(errors.ErrorTypeConfig, "bin edges must be strictly increasing: %v", edges)
		}
	}
	return nil
}

func (b *Bin) Name() string { return b.StepName }

func (b *Bin) Contract() schema.Contract {
	return schema.Contract{
		Requires: schema.Numeric(b.Column),
		Produces: []schema.Field{schema.F(b.Output, schema.KindString)},
	}
}

func (b *Bin) Transform(_ context.Context, primary *columnar.Table, _ Tables) (*columnar.Table, error) {
	values, err := b.values(primary)
	if err != nil {
		return nil, err
	}
	if err := validateEdges(b.Edges, b.Labels); err != nil {
		return nil, err
	}
	return derive(primary, b.Output, cut(values, b.Edges, b.Labels))
}

func (b *Bin) values(t *columnar.Table) ([]float64, error) {
	values, err := t.Floats(b.Column)
	if err != nil {
		return nil, err
	}
	if b.Absolute {
		for i, v := range values {
			values[i] = math.Abs(v)
		}
	}
	return values, nil
}

// cut assigns every value the label of its interval
func cut(values, edges []float64, labels []string) *columnar.StringColumn {
	out := make([]string, len(values))
	valid := make([]bool, len(values))
	for i, v := range values {
		if j := bucket(v, edges); j >= 0 {
			out[i] = labels[j]
			valid[i] = true
		}
	}
	return columnar.NewStringColumnFrom(out, valid)
}

func bucket(v float64, edges []float64) int {
	last := len(edges) - 1
	if math.IsNaN(v) || v < edges[0] || v > edges[last] {
		return -1
	}
	if v == edges[last] {
		return last - 1
	}
	// first edge >= v
	i := sort.SearchFloat64s(edges, v)
	if edges[i] == v {
		return i
	}
	return i - 1
}

// Tenure buckets for employment duration in days
var (
	TenureEdges  = []float64{0, 1, 365, 915, 2555, 5110, 9125}
	TenureLabels = []string{"0", "<1y", "<2.5y", "<7y", "<14y", "<25y", ">=25y"}
)

// EmploymentTenure bins |DAYS_EMPLOYED| into tenure buckets. The top edge is
// the largest observed duration, so the last bucket is open-ended in
// practice. Output: EMPLOYMENT_TENURE.
type EmploymentTenure struct {
	Bin
}

// NewEmploymentTenure creates the transform with the default buckets
func NewEmploymentTenure() *EmploymentTenure {
	return &EmploymentTenure{Bin: Bin{
		StepName: "employment_tenure",
		Column:   "DAYS_EMPLOYED",
		Output:   "EMPLOYMENT_TENURE",
		Edges:    TenureEdges,
		Labels:   TenureLabels,
		Absolute: true,
	}}
}

// NewEmploymentTenureBins creates the transform with custom buckets. edges
// are the lower bounds of the buckets, one per label; the top edge is taken
// from the data.
func NewEmploymentTenureBins(edges []float64, labels []string) (*EmploymentTenure, error) {
	if len(edges) == 0 {
		return nil, errors.New(errors.ErrorTypeConfig, "employment tenure needs at least one edge")
	}
	top := math.Nextafter(edges[len(edges)-1], math.Inf(1))
	if err := validateEdges(append(append([]float64(nil), edges...), top), labels); err != nil {
		return nil, err
	}
	e := NewEmploymentTenure()
	e.Edges = append([]float64(nil), edges...)
	e.Labels = append([]string(nil), labels...)
	return e, nil
}

func (e *EmploymentTenure) Transform(_ context.Context, primary *columnar.Table, _ Tables) (*columnar.Table, error) {
	values, err := e.values(primary)
	if err != nil {
		return nil, err
	}

	edges := append(append([]float64(nil), e.Edges...), topEdge(values, e.Edges[len(e.Edges)-1]))
	if err := validateEdges(edges, e.Labels); err != nil {
		return nil, err
	}
	return derive(primary, e.Output, cut(values, edges, e.Labels))
}

// topEdge is the observed maximum, kept strictly above floor
func topEdge(values []float64, floor float64) float64 {
	top := math.Nextafter(floor, math.Inf(1))
	for _, v := range values {
		if v > top {
			top = v
		}
	}
	return top
}
