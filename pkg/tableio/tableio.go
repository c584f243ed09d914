// Package tableio loads tables from disk and writes them back.
//
// The format follows the file extension: .csv, .parquet or .arrow. CSV files
// may carry a compression extension on top (bureau.csv.zst,
// application_train.csv.gz); Parquet and Arrow files use their own internal
// compression.
//
// CSV column types are inferred from the cells; see
// schema.TypeInferenceEngine. A column whose sampled cells are all integers
// but which later holds a decimal is widened to float, and so on up to
// string, so sampling never makes a load fail.
package tableio

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/creditrisk/pkg/columnar"
	"github.com/ajitpratap0/creditrisk/pkg/compression"
	"github.com/ajitpratap0/creditrisk/pkg/errors"
)

// Format is an on-disk table format
type Format string

const (
	// CSV is comma-separated text with a header row
	CSV Format = "csv"
	// Parquet is Apache Parquet
	Parquet Format = "parquet"
	// Arrow is the Apache Arrow IPC file format
	Arrow Format = "arrow"
)

const ioBufferSize = 1 << 20

// FormatFromPath returns the table format and compression implied by path
func FormatFromPath(path string) (Format, compression.Algorithm, error) {
	alg, base := compression.FromPath(path)
	switch strings.ToLower(filepath.Ext(base)) {
	case ".csv", ".txt":
		return CSV, alg, nil
	case ".parquet", ".pq":
		if alg != compression.None {
			return "", alg, errors.Newf(errors.ErrorTypeConfig, "parquet file %q cannot be wrapped in %s", path, alg)
		}
		return Parquet, alg, nil
	case ".arrow", ".ipc", ".feather":
		if alg != compression.None {
			return "", alg, errors.Newf(errors.ErrorTypeConfig, "arrow file %q cannot be wrapped in %s", path, alg)
		}
		return Arrow, alg, nil
	default:
		return "", alg, errors.Newf(errors.ErrorTypeConfig, "cannot tell the table format of %q", path).
			WithDetail("path", path)
	}
}

// ReadOptions controls loading
type ReadOptions struct {
	// SampleSize bounds the cells used to infer each CSV column type; 0 uses all
	SampleSize int
	// Concurrency bounds parallel loads in LoadAll; 0 or less loads one at a time
	Concurrency int
	Logger      *zap.Logger
}

func (o ReadOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Load reads the table at path and names it name
func Load(ctx context.Context, path, name string, opts ReadOptions) (*columnar.Table, error) {
	format, alg, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path) //nolint:gosec // G304: paths come from the run configuration
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open table").
			WithDetail("path", path)
	}
	defer f.Close()

	start := time.Now()
	var t *columnar.Table
	switch format {
	case CSV:
		r, err := compression.NewReader(bufio.NewReaderSize(f, ioBufferSize), alg)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		t, err = ReadCSV(ctx, r, name, opts)
		if err != nil {
			return nil, errors.Wrap(err, errors.TypeOf(err), "failed to load "+path)
		}
	case Parquet:
		t, err = ReadParquet(ctx, f, name)
	case Arrow:
		t, err = ReadArrow(f, name)
	}
	if err != nil {
		return nil, err
	}

	opts.logger().Info("loaded table",
		zap.String("table", name),
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.String("compression", string(alg)),
		zap.Int("rows", t.RowCount()),
		zap.Int("columns", t.ColumnCount()),
		zap.Duration("duration", time.Since(start)))
	return t, nil
}

// LoadAll loads every file of files, keyed by table name, resolving relative
// paths against dir. Files are read concurrently; the first failure cancels
// the loads still running.
func LoadAll(ctx context.Context, dir string, files map[string]string, opts ReadOptions) (map[string]*columnar.Table, error) {
	g, ctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	} else {
		g.SetLimit(1)
	}

	var mu sync.Mutex
	out := make(map[string]*columnar.Table, len(files))
	for name, file := range files {
		name, path := name, resolve(dir, file)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := Load(ctx, path, name, opts)
			if err != nil {
				return err
			}
			mu.Lock()
			out[name] = t
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func resolve(dir, file string) string {
	if filepath.IsAbs(file) || dir == "" {
		return file
	}
	return filepath.Join(dir, file)
}

// WriteOptions controls writing
type WriteOptions struct {
	// Format overrides the format implied by the extension
	Format Format
	// Level applies to compressed CSV output
	Level compression.Level
	// ParquetCompression names the codec used inside Parquet files
	ParquetCompression string
}

// Save writes t to path, creating parent directories as needed
func Save(path string, t *columnar.Table, opts WriteOptions) (err error) {
	format, alg, ferr := FormatFromPath(path)
	if opts.Format != "" {
		format, ferr = opts.Format, nil
	}
	if ferr != nil {
		return ferr
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to create output directory").
				WithDetail("path", dir)
		}
	}

	f, err := os.Create(path) //nolint:gosec // G304: path comes from the run configuration
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create output file").
			WithDetail("path", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, errors.ErrorTypeFile, "failed to close output file")
		}
	}()

	bw := bufio.NewWriterSize(f, ioBufferSize)
	switch format {
	case CSV:
		level := opts.Level
		if level == 0 {
			level = compression.Default
		}
		cw, err := compression.NewWriter(bw, alg, level)
		if err != nil {
			return err
		}
		if err := WriteCSV(cw, t); err != nil {
			return err
		}
		if err := cw.Close(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to finish compressed stream")
		}
	case Parquet:
		if err := WriteParquet(bw, t, opts.ParquetCompression); err != nil {
			return err
		}
	case Arrow:
		if err := WriteArrow(bw, t); err != nil {
			return err
		}
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unsupported table format %q", format)
	}

	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush output file").
			WithDetail("path", path)
	}
	return nil
}
