package features

import (
	"context"
	"sort"
	"strings"

	"github.com/ajitpratap0/creditrisk/pkg/columnar"
	"github.com/ajitpratap0/creditrisk/pkg/logger"
	"github.com/ajitpratap0/creditrisk/pkg/schema"
	"go.uber.org/zap"
)

// DefaultOrganizationPrefixes are tested in order; the first match wins
var DefaultOrganizationPrefixes = []string{"Business", "Trade", "Transport", "Industry"}

// OrganizationType collapses ORGANIZATION_TYPE values such as
// "Business Entity Type 3" to the prefix they start with. Values matching no
// prefix, and missing values, pass through unchanged.
type OrganizationType struct {
	Column   string
	Prefixes []string
}

// NewOrganizationType creates the transform with the default prefixes
func NewOrganizationType() *OrganizationType {
	return &OrganizationType{Column: "ORGANIZATION_TYPE", Prefixes: DefaultOrganizationPrefixes}
}

func (o *OrganizationType) Name() string { return "organization_type" }

func (o *OrganizationType) Contract() schema.Contract {
	return schema.Contract{
		Requires: []schema.Field{schema.F(o.Column, schema.KindString)},
		Produces: []schema.Field{schema.F(o.Column, schema.KindString)},
	}
}

func (o *OrganizationType) Transform(_ context.Context, primary *columnar.Table, _ Tables) (*columnar.Table, error) {
	col, err := primary.Strings(o.Column)
	if err != nil {
		return nil, err
	}

	values := make([]string, col.Len())
	valid := make([]bool, col.Len())
	for i := range values {
		values[i] = col.Value(i)
		valid[i] = !col.IsNull(i)
		if !valid[i] {
			continue
		}
		for _, prefix := range o.Prefixes {
			if strings.HasPrefix(values[i], prefix) {
				values[i] = prefix
				break
			}
		}
	}
	return primary.With(o.Column, columnar.NewStringColumnFrom(values, valid))
}

// OtherCategory is the bucket scarce categories are collapsed into
const OtherCategory = "Other"

// CategoryCounter counts, per applicant, how many auxiliary records fall in
// each category of a column. Categories in Scarce are counted under
// "Other"; missing categories are not counted. One column per category is
// produced, named {Prefix}_{category}, in lexical order of category.
//
// The produced columns depend on the data, so the contract cannot list
// them; a collision with an existing column is caught by the join.
type CategoryCounter struct {
	StepName string
	Table    string
	Column   string
	Prefix   string
	Scarce   []string
}

// NewBureauCreditTypeCounter counts bureau CREDIT_TYPE values
func NewBureauCreditTypeCounter(scarce []string) *CategoryCounter {
	return &CategoryCounter{
		StepName: "bureau_credit_type_counter",
		Table:    TableBureau,
		Column:   "CREDIT_TYPE",
		Prefix:   "BUREAU_CREDIT_TYPE",
		Scarce:   scarce,
	}
}

// NewPrevContractTypeCounter counts previous-application NAME_CONTRACT_TYPE values
func NewPrevContractTypeCounter(scarce []string) *CategoryCounter {
	return &CategoryCounter{
		StepName: "prev_contract_type_counter",
		Table:    TablePrevious,
		Column:   "NAME_CONTRACT_TYPE",
		Prefix:   "PREV_CONTRACT_TYPE",
		Scarce:   scarce,
	}
}

func (c *CategoryCounter) Name() string { return c.StepName }

func (c *CategoryCounter) Contract() schema.Contract {
	return schema.Contract{
		Requires: []schema.Field{keyField()},
		Auxiliary: map[string][]schema.Field{
			c.Table: {keyField(), schema.F(c.Column, schema.KindString)},
		},
	}
}

func (c *CategoryCounter) Transform(ctx context.Context, primary *columnar.Table, aux Tables) (*columnar.Table, error) {
	src, err := aux.Get(c.Table)
	if err != nil {
		return nil, err
	}
	keys, err := src.Keys(KeyApplicant)
	if err != nil {
		return nil, err
	}
	col, err := src.Strings(c.Column)
	if err != nil {
		return nil, err
	}

	scarce := make(map[string]struct{}, len(c.Scarce))
	for _, s := range c.Scarce {
		scarce[s] = struct{}{}
	}

	// per-applicant counts, keyed by category
	counts := make(map[string]map[int64]float64)
	for i, key := range keys {
		if col.IsNull(i) {
			continue
		}
		category := col.Value(i)
		if _, ok := scarce[category]; ok {
			category = OtherCategory
		}
		if counts[category] == nil {
			counts[category] = make(map[int64]float64)
		}
		counts[category][key]++
	}

	categories := make([]string, 0, len(counts))
	for category := range counts {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	logger.WithContext(ctx).Debug("one-hot categories",
		zap.String("table", c.Table),
		zap.String("column", c.Column),
		zap.Strings("categories", categories))

	applicants := uniqueKeys(keys)
	agg := columnar.NewTable(c.Table + "_counts")
	if err := agg.AddColumn(KeyApplicant, columnar.NewIntColumnFrom(applicants, nil)); err != nil {
		return nil, err
	}
	for _, category := range categories {
		values := make([]float64, len(applicants))
		for i, key := range applicants {
			values[i] = counts[category][key]
		}
		if err := agg.AddColumn(c.Prefix+"_"+category, columnar.NewFloatColumnFrom(values)); err != nil {
			return nil, err
		}
	}
	return columnar.LeftJoin(primary, agg, KeyApplicant, 0)
}

// uniqueKeys returns the distinct keys in sorted order
func uniqueKeys(keys []int64) []int64 {
	seen := make(map[int64]struct{}, len(keys))
	out := make([]int64, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
