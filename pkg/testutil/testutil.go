// Package testutil provides helpers shared by the package tests
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/creditrisk/pkg/columnar"
)

// TestLogger creates a test logger that writes to the test output
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a context that is cancelled after 30 seconds or when
// the test ends, whichever comes first
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// WriteFile writes content to name inside dir and returns the path
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// Col is one named column of a fixture table
type Col struct {
	Name   string
	Column columnar.Column
}

// Ints builds an int column; nil entries are missing
func Ints(name string, values ...interface{}) Col {
	col := columnar.NewIntColumn()
	for _, v := range values {
		if err := col.Append(v); err != nil {
			panic(err)
		}
	}
	return Col{Name: name, Column: col}
}

// Floats builds a float column; use math.NaN() for missing entries
func Floats(name string, values ...float64) Col {
	return Col{Name: name, Column: columnar.NewFloatColumnFrom(values)}
}

// Strings builds a string column; "" entries are missing
func Strings(name string, values ...string) Col {
	col := columnar.NewStringColumn()
	for _, v := range values {
		_ = col.Append(v)
	}
	return Col{Name: name, Column: col}
}

// Table builds a fixture table from columns of equal length
func Table(t *testing.T, name string, cols ...Col) *columnar.Table {
	t.Helper()
	tbl := columnar.NewTable(name)
	for _, c := range cols {
		require.NoError(t, tbl.AddColumn(c.Name, c.Column), "column %s", c.Name)
	}
	return tbl
}
