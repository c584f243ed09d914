package tableio

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/ajitpratap0/creditrisk/pkg/columnar"
	"github.com/ajitpratap0/creditrisk/pkg/errors"
	"github.com/ajitpratap0/creditrisk/pkg/schema"
)

// rows read between cancellation checks
const checkEvery = 1 << 16

// ReadCSV reads a header row and data rows into a typed table. Empty cells
// are missing entries.
func ReadCSV(ctx context.Context, r io.Reader, name string, opts ReadOptions) (*columnar.Table, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.Newf(errors.ErrorTypeData, "table %q has no header row", name)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read header of "+name)
	}

	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.TrimSpace(h)
		if _, dup := seen[h]; dup {
			return nil, errors.Newf(errors.ErrorTypeConflict, "column %q appears twice in table %q", h, name).
				WithDetail("column", h)
		}
		seen[h] = struct{}{}
		header[i] = h
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "malformed row in "+name)
		}
		rows = append(rows, record)
		if len(rows)%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}

	engine := schema.NewTypeInferenceEngine(opts.logger(), opts.SampleSize)
	sch := engine.InferSchema(header, rows)

	t := columnar.NewTable(name)
	for i, field := range sch.Fields {
		col, err := buildColumn(field.Type, rows, i)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to build column "+field.Name).
				WithDetail("column", field.Name)
		}
		if err := t.AddColumn(field.Name, col); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// buildColumn appends cell i of every row, widening the type when a cell
// outside the inference sample does not parse
func buildColumn(typ columnar.ColumnType, rows [][]string, i int) (columnar.Column, error) {
	for {
		col := columnar.NewColumn(typ)
		var failed error
		for _, row := range rows {
			if err := col.Append(row[i]); err != nil {
				failed = err
				break
			}
		}
		if failed == nil {
			return col, nil
		}
		if typ == columnar.ColumnTypeString {
			return nil, failed
		}
		typ = widen(typ)
	}
}

func widen(t columnar.ColumnType) columnar.ColumnType {
	if t == columnar.ColumnTypeInt {
		return columnar.ColumnTypeFloat
	}
	return columnar.ColumnTypeString
}

// WriteCSV writes a header row and one row per table row, without an index
// column. Missing entries are written as empty cells.
func WriteCSV(w io.Writer, t *columnar.Table) error {
	writer := csv.NewWriter(w)
	names := t.ColumnNames()
	if err := writer.Write(names); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write header")
	}

	cols := make([]columnar.Column, len(names))
	for i, name := range names {
		col, err := t.Column(name)
		if err != nil {
			return err
		}
		cols[i] = col
	}

	record := make([]string, len(cols))
	for row := 0; row < t.RowCount(); row++ {
		for i, col := range cols {
			record[i] = formatCell(col.Get(row))
		}
		if err := writer.Write(record); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write row")
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush csv")
	}
	return nil
}

func formatCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	default:
		return ""
	}
}
