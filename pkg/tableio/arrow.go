package tableio

import (
	"context"
	"io"
	"math"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/ajitpratap0/creditrisk/pkg/columnar"
	"github.com/ajitpratap0/creditrisk/pkg/errors"
)

// ArrowSchema maps a table schema to Arrow. Every field is nullable.
func ArrowSchema(t *columnar.Table) *arrow.Schema {
	sch := t.Schema()
	fields := make([]arrow.Field, len(sch.Fields))
	for i, f := range sch.Fields {
		fields[i] = arrow.Field{Name: f.Name, Type: arrowType(f.Type), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(t columnar.ColumnType) arrow.DataType {
	switch t {
	case columnar.ColumnTypeInt:
		return arrow.PrimitiveTypes.Int64
	case columnar.ColumnTypeFloat:
		return arrow.PrimitiveTypes.Float64
	case columnar.ColumnTypeBool:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

// ToRecord copies t into a single Arrow record. Missing entries, including
// NaN floats, become nulls. The caller releases the record.
func ToRecord(t *columnar.Table, mem memory.Allocator) (arrow.Record, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	b := array.NewRecordBuilder(mem, ArrowSchema(t))
	defer b.Release()

	rows := t.RowCount()
	for i, name := range t.ColumnNames() {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		switch fb := b.Field(i).(type) {
		case *array.Int64Builder:
			fb.Reserve(rows)
			for r := 0; r < rows; r++ {
				if v, ok := col.Get(r).(int64); ok {
					fb.Append(v)
				} else {
					fb.AppendNull()
				}
			}
		case *array.Float64Builder:
			fb.Reserve(rows)
			for r := 0; r < rows; r++ {
				if v, ok := col.Get(r).(float64); ok {
					fb.Append(v)
				} else {
					fb.AppendNull()
				}
			}
		case *array.BooleanBuilder:
			fb.Reserve(rows)
			for r := 0; r < rows; r++ {
				if v, ok := col.Get(r).(bool); ok {
					fb.Append(v)
				} else {
					fb.AppendNull()
				}
			}
		case *array.StringBuilder:
			fb.Reserve(rows)
			for r := 0; r < rows; r++ {
				if v, ok := col.Get(r).(string); ok {
					fb.Append(v)
				} else {
					fb.AppendNull()
				}
			}
		default:
			return nil, errors.Newf(errors.ErrorTypeInternal, "no arrow builder for column %q", name)
		}
	}
	return b.NewRecord(), nil
}

// FromArrow copies an Arrow table into a named table. Integer, floating
// point, boolean and string columns are supported.
func FromArrow(name string, tbl arrow.Table) (*columnar.Table, error) {
	out := columnar.NewTable(name)
	sch := tbl.Schema()
	for i := 0; i < int(tbl.NumCols()); i++ {
		field := sch.Field(i)
		col, err := fromChunks(field, tbl.Column(i).Data().Chunks(), int(tbl.NumRows()))
		if err != nil {
			return nil, err
		}
		if err := out.AddColumn(field.Name, col); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func fromChunks(field arrow.Field, chunks []arrow.Array, rows int) (columnar.Column, error) {
	switch field.Type.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32:
		values := make([]int64, 0, rows)
		valid := make([]bool, 0, rows)
		for _, chunk := range chunks {
			for r := 0; r < chunk.Len(); r++ {
				valid = append(valid, chunk.IsValid(r))
				values = append(values, intAt(chunk, r))
			}
		}
		return columnar.NewIntColumnFrom(values, valid), nil

	case arrow.FLOAT32, arrow.FLOAT64:
		values := make([]float64, 0, rows)
		for _, chunk := range chunks {
			for r := 0; r < chunk.Len(); r++ {
				if chunk.IsNull(r) {
					values = append(values, math.NaN())
					continue
				}
				switch a := chunk.(type) {
				case *array.Float64:
					values = append(values, a.Value(r))
				case *array.Float32:
					values = append(values, float64(a.Value(r)))
				}
			}
		}
		return columnar.NewFloatColumnFrom(values), nil

	case arrow.BOOL:
		col := columnar.NewBoolColumn()
		for _, chunk := range chunks {
			a := chunk.(*array.Boolean)
			for r := 0; r < a.Len(); r++ {
				var v interface{}
				if a.IsValid(r) {
					v = a.Value(r)
				}
				if err := col.Append(v); err != nil {
					return nil, err
				}
			}
		}
		return col, nil

	case arrow.STRING, arrow.LARGE_STRING:
		values := make([]string, 0, rows)
		valid := make([]bool, 0, rows)
		for _, chunk := range chunks {
			for r := 0; r < chunk.Len(); r++ {
				valid = append(valid, chunk.IsValid(r))
				switch a := chunk.(type) {
				case *array.String:
					values = append(values, a.Value(r))
				case *array.LargeString:
					values = append(values, a.Value(r))
				}
			}
		}
		return columnar.NewStringColumnFrom(values, valid), nil

	default:
		return nil, errors.Newf(errors.ErrorTypeData, "column %q has unsupported arrow type %s", field.Name, field.Type).
			WithDetail("column", field.Name)
	}
}

func intAt(a arrow.Array, i int) int64 {
	switch v := a.(type) {
	case *array.Int64:
		return v.Value(i)
	case *array.Int32:
		return int64(v.Value(i))
	case *array.Int16:
		return int64(v.Value(i))
	case *array.Int8:
		return int64(v.Value(i))
	case *array.Uint32:
		return int64(v.Value(i))
	case *array.Uint16:
		return int64(v.Value(i))
	case *array.Uint8:
		return int64(v.Value(i))
	default:
		return 0
	}
}

// parquetCodec maps a codec name to its Parquet compression; the empty name
// selects snappy
func parquetCodec(name string) (compress.Compression, error) {
	switch strings.ToLower(name) {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "brotli":
		return compress.Codecs.Brotli, nil
	case "lz4":
		return compress.Codecs.Lz4Raw, nil
	default:
		return compress.Codecs.Uncompressed, errors.Newf(errors.ErrorTypeConfig, "unknown parquet compression %q", name)
	}
}

// WriteParquet writes t as a single row group. w is not closed.
func WriteParquet(w io.Writer, t *columnar.Table, codec string) error {
	comp, err := parquetCodec(codec)
	if err != nil {
		return err
	}

	mem := memory.NewGoAllocator()
	rec, err := ToRecord(t, mem)
	if err != nil {
		return err
	}
	defer rec.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(comp),
		parquet.WithAllocator(mem),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(mem))

	fw, err := pqarrow.NewFileWriter(rec.Schema(), w, props, arrowProps)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create parquet writer")
	}
	if err := fw.Write(rec); err != nil {
		_ = fw.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write parquet row group")
	}
	if err := fw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close parquet writer")
	}
	return nil
}

// ReadParquet reads a whole Parquet file into a named table
func ReadParquet(ctx context.Context, r parquet.ReaderAtSeeker, name string) (*columnar.Table, error) {
	fr, err := file.NewParquetReader(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to open parquet file")
	}
	defer fr.Close()

	mem := memory.NewGoAllocator()
	reader, err := pqarrow.NewFileReader(fr, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to create arrow reader")
	}

	tbl, err := reader.ReadTable(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read parquet table")
	}
	defer tbl.Release()
	return FromArrow(name, tbl)
}

// WriteArrow writes t as an Arrow IPC file. w is not closed.
func WriteArrow(w io.Writer, t *columnar.Table) error {
	mem := memory.NewGoAllocator()
	rec, err := ToRecord(t, mem)
	if err != nil {
		return err
	}
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create arrow writer")
	}
	if err := fw.Write(rec); err != nil {
		_ = fw.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write arrow record")
	}
	if err := fw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close arrow writer")
	}
	return nil
}

// ReadArrow reads every record of an Arrow IPC file into a named table
func ReadArrow(r ipc.ReadAtSeeker, name string) (*columnar.Table, error) {
	mem := memory.NewGoAllocator()
	reader, err := ipc.NewFileReader(r, ipc.WithAllocator(mem))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to open arrow file")
	}
	defer reader.Close()

	recs := make([]arrow.Record, 0, reader.NumRecords())
	defer func() {
		for _, rec := range recs {
			rec.Release()
		}
	}()
	for i := 0; i < reader.NumRecords(); i++ {
		rec, err := reader.Record(i)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read arrow record")
		}
		rec.Retain()
		recs = append(recs, rec)
	}

	tbl := array.NewTableFromRecords(reader.Schema(), recs)
	defer tbl.Release()
	return FromArrow(name, tbl)
}
