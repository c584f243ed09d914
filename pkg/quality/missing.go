// Package quality reports and repairs missing values in a table.
package quality

import (
	"io"
	"sort"

	"github.com/ajitpratap0/creditrisk/pkg/columnar"
	"github.com/ajitpratap0/creditrisk/pkg/errors"
	json "github.com/goccy/go-json"
	"github.com/xuri/excelize/v2"
)

// Report column names
const (
	ColumnFeature = "Feature"
	ColumnCount   = "NaN values"
	ColumnPercent = "NaN values, %"
)

// MissingEntry is the missing-value count of one column
type MissingEntry struct {
	Feature string  `json:"feature"`
	Count   int     `json:"nan_values"`
	Percent float64 `json:"nan_values_pct"`
}

// MissingReport lists the columns of a table that have missing values
type MissingReport struct {
	Table   string         `json:"table"`
	Rows    int            `json:"rows"`
	Entries []MissingEntry `json:"entries"`
}

// MissingValues counts missing entries per column. Only columns with at
// least one missing entry are reported, sorted by descending percentage;
// columns with equal percentages keep table order.
func MissingValues(t *columnar.Table) *MissingReport {
	report := &MissingReport{Table: t.Name(), Rows: t.RowCount(), Entries: []MissingEntry{}}
	for _, name := range t.ColumnNames() {
		col, _ := t.Column(name)
		n := col.NullCount()
		if n == 0 {
			continue
		}
		report.Entries = append(report.Entries, MissingEntry{
			Feature: name,
			Count:   n,
			Percent: float64(n) / float64(t.RowCount()) * 100,
		})
	}
	sort.SliceStable(report.Entries, func(i, j int) bool {
		return report.Entries[i].Percent > report.Entries[j].Percent
	})
	return report
}

// ToTable renders the report as a three-column table
func (r *MissingReport) ToTable() (*columnar.Table, error) {
	features := make([]string, len(r.Entries))
	counts := make([]int64, len(r.Entries))
	percents := make([]float64, len(r.Entries))
	for i, e := range r.Entries {
		features[i] = e.Feature
		counts[i] = int64(e.Count)
		percents[i] = e.Percent
	}

	t := columnar.NewTable(r.Table + "_missing")
	if err := t.AddColumn(ColumnFeature, columnar.NewStringColumnFrom(features, nil)); err != nil {
		return nil, err
	}
	if err := t.AddColumn(ColumnCount, columnar.NewIntColumnFrom(counts, nil)); err != nil {
		return nil, err
	}
	if err := t.AddColumn(ColumnPercent, columnar.NewFloatColumnFrom(percents)); err != nil {
		return nil, err
	}
	return t, nil
}

// WriteJSON encodes the report as indented JSON
func (r *MissingReport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to encode missing-value report")
	}
	return nil
}

// SaveXLSX writes the report to a workbook with a single "missing" sheet
func (r *MissingReport) SaveXLSX(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "missing"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to name sheet")
	}
	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{ColumnFeature, ColumnCount, ColumnPercent}); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write header")
	}
	for i, e := range r.Entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to address row")
		}
		if err := f.SetSheetRow(sheet, cell, &[]interface{}{e.Feature, e.Count, e.Percent}); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write row")
		}
	}
	if err := f.SaveAs(path); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to save "+path)
	}
	return nil
}
