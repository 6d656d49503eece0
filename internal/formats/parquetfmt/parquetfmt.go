// Package parquetfmt writes datasets as Parquet files via Apache Arrow:
// a millisecond timestamp column plus one nullable float64 column per
// variable, with dataset attributes carried as file-level key-value
// metadata. Write-only; Parquet is an analysis export, not an instrument
// format, so no reader is registered.
package parquetfmt

import (
	"math"
	"os"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/compress"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"

	"github.com/coriolab/seaconv/core/capability"
	"github.com/coriolab/seaconv/core/dataset"
	apperrors "github.com/coriolab/seaconv/core/errors"
)

const formatKey = "parquet"

func init() {
	capability.RegisterBuiltin(capability.Registration{
		Key:           formatKey,
		DisplayName:   "Apache Parquet",
		FileExtension: ".parquet",
		ImplName:      "parquetfmt.Writer",
		NewWriter: func(ds *dataset.Dataset) (capability.Writer, error) {
			return &Writer{ds: ds}, nil
		},
	})
}

// Writer serializes a dataset as one Parquet record batch.
type Writer struct {
	ds *dataset.Dataset
}

func (w *Writer) schema() *arrow.Schema {
	names := w.ds.Variables()
	fields := make([]arrow.Field, 0, len(names)+1)
	fields = append(fields, arrow.Field{
		Name:     "time",
		Type:     arrow.FixedWidthTypes.Timestamp_ms,
		Nullable: false,
	})
	for _, name := range names {
		fields = append(fields, arrow.Field{
			Name:     name,
			Type:     arrow.PrimitiveTypes.Float64,
			Nullable: true,
		})
	}
	keys := w.ds.SortedAttrKeys()
	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = w.ds.Attrs[k]
	}
	metadata := arrow.NewMetadata(keys, values)
	return arrow.NewSchema(fields, &metadata)
}

func (w *Writer) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewWrite(path, err)
	}
	defer f.Close()

	schema := w.schema()
	writerProps := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
		parquet.WithDictionaryDefault(false),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	pw, err := pqarrow.NewFileWriter(schema, f, writerProps, arrowProps)
	if err != nil {
		return apperrors.NewWrite(path, err)
	}

	builder := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()

	timeBuilder := builder.Field(0).(*array.TimestampBuilder)
	for _, t := range w.ds.Times {
		timeBuilder.Append(arrow.Timestamp(t.UnixMilli()))
	}
	for i, name := range w.ds.Variables() {
		fb := builder.Field(i + 1).(*array.Float64Builder)
		values, _ := w.ds.Values(name)
		for _, v := range values {
			if math.IsNaN(v) {
				fb.AppendNull()
			} else {
				fb.Append(v)
			}
		}
	}

	record := builder.NewRecord()
	defer record.Release()

	if err := pw.Write(record); err != nil {
		pw.Close()
		return apperrors.NewWrite(path, err)
	}
	if err := pw.Close(); err != nil {
		return apperrors.NewWrite(path, err)
	}
	return nil
}
