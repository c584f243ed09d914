package schema

import (
	"strconv"
	"strings"

	"github.com/ajitpratap0/creditrisk/pkg/columnar"
	"go.uber.org/zap"
)

// InferredType is the result of inferring a column type from raw text
type InferredType struct {
	Type        columnar.ColumnType
	Nullable    bool
	Samples     int
	Nulls       int
	Cardinality int
}

// TypeInferenceEngine detects column types from the text cells of a
// delimited file
type TypeInferenceEngine struct {
	logger     *zap.Logger
	sampleSize int
}

// NewTypeInferenceEngine creates an engine that looks at the first
// sampleSize values of each column; 0 means every value.
func NewTypeInferenceEngine(logger *zap.Logger, sampleSize int) *TypeInferenceEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TypeInferenceEngine{logger: logger, sampleSize: sampleSize}
}

// InferSchema infers one field per header entry from row-major cells
func (e *TypeInferenceEngine) InferSchema(header []string, rows [][]string) *columnar.Schema {
	fields := make([]columnar.FieldSchema, len(header))
	values := make([]string, 0, len(rows))
	for i, name := range header {
		values = values[:0]
		for _, row := range rows {
			if i < len(row) {
				values = append(values, row[i])
			} else {
				values = append(values, "")
			}
		}
		inferred := e.InferType(values)
		fields[i] = columnar.FieldSchema{Name: name, Type: inferred.Type}
		e.logger.Debug("inferred column type",
			zap.String("column", name),
			zap.String("type", inferred.Type.String()),
			zap.Int("nulls", inferred.Nulls),
			zap.Int("cardinality", inferred.Cardinality))
	}
	return &columnar.Schema{Fields: fields}
}

// InferType picks the narrowest type every non-empty value parses as.
// Integers widen to floats when the two are mixed; anything else is a string.
// A column with no values at all is a float column of missing entries.
func (e *TypeInferenceEngine) InferType(values []string) *InferredType {
	if e.sampleSize > 0 && len(values) > e.sampleSize {
		values = values[:e.sampleSize]
	}

	inferred := &InferredType{Samples: len(values)}
	seen := make(map[string]struct{})
	var ints, floats, bools, strs int
	for _, raw := range values {
		v := strings.TrimSpace(raw)
		if v == "" {
			inferred.Nulls++
			continue
		}
		seen[v] = struct{}{}
		switch {
		case isInteger(v):
			ints++
		case isFloat(v):
			floats++
		case isBoolean(v):
			bools++
		default:
			strs++
		}
	}
	inferred.Nullable = inferred.Nulls > 0
	inferred.Cardinality = len(seen)

	switch {
	case strs > 0, bools > 0 && ints+floats > 0:
		inferred.Type = columnar.ColumnTypeString
	case bools > 0:
		inferred.Type = columnar.ColumnTypeBool
	case floats > 0 || ints == 0:
		inferred.Type = columnar.ColumnTypeFloat
	default:
		inferred.Type = columnar.ColumnTypeInt
	}
	return inferred
}

func isBoolean(s string) bool {
	lower := strings.ToLower(s)
	return lower == "true" || lower == "false"
}

func isInteger(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isFloat(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
