// Package arrowout streams variant×sample matrices to Arrow IPC files.
package arrowout

import (
	"fmt"
	"math"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Writer appends matrix rows to an Arrow IPC file in chunked record batches.
// The schema is one utf8 "variant" column followed by a nullable float64
// column per sample; NaN values are written as nulls.
type Writer struct {
	file           *os.File
	schema         *arrow.Schema
	writer         *ipc.FileWriter
	variantBuilder *array.StringBuilder
	valueBuilders  []*array.Float64Builder
	chunkSize      int
	numRowsInChunk int
}

// NewWriter creates an Arrow IPC writer at path with one value column per
// sample. Rows are flushed every chunkSize writes.
func NewWriter(path string, samples []string, chunkSize int) (*Writer, error) {
	pool := memory.NewGoAllocator()

	fields := make([]arrow.Field, 0, len(samples)+1)
	fields = append(fields, arrow.Field{Name: "variant", Type: arrow.BinaryTypes.String})
	for _, sample := range samples {
		fields = append(fields, arrow.Field{Name: sample, Type: arrow.PrimitiveTypes.Float64, Nullable: true})
	}
	schema := arrow.NewSchema(fields, nil)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create arrow file: %w", err)
	}
	writer, err := ipc.NewFileWriter(file, ipc.WithSchema(schema))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("create arrow writer: %w", err)
	}

	valueBuilders := make([]*array.Float64Builder, len(samples))
	for i := range valueBuilders {
		valueBuilders[i] = array.NewFloat64Builder(pool)
	}

	return &Writer{
		file:           file,
		schema:         schema,
		writer:         writer,
		variantBuilder: array.NewStringBuilder(pool),
		valueBuilders:  valueBuilders,
		chunkSize:      chunkSize,
	}, nil
}

// Write appends one row. NaN values become nulls.
func (w *Writer) Write(variant string, values []float64) error {
	if len(values) != len(w.valueBuilders) {
		return fmt.Errorf("mismatch in number of fields: expected %d, got %d", len(w.valueBuilders), len(values))
	}

	w.variantBuilder.Append(variant)
	for i, val := range values {
		if math.IsNaN(val) {
			w.valueBuilders[i].AppendNull()
		} else {
			w.valueBuilders[i].Append(val)
		}
	}

	w.numRowsInChunk++
	if w.numRowsInChunk == w.chunkSize {
		return w.writeChunk()
	}
	return nil
}

func (w *Writer) writeChunk() error {
	cols := make([]arrow.Array, 0, len(w.valueBuilders)+1)
	// NewArray drains and resets each builder.
	cols = append(cols, w.variantBuilder.NewArray())
	for _, b := range w.valueBuilders {
		cols = append(cols, b.NewArray())
	}

	record := array.NewRecord(w.schema, cols, int64(w.numRowsInChunk))
	defer record.Release()
	for _, col := range cols {
		defer col.Release()
	}

	if err := w.writer.Write(record); err != nil {
		return fmt.Errorf("write arrow record: %w", err)
	}
	w.numRowsInChunk = 0
	return nil
}

// Close flushes the pending chunk and finalises the IPC footer.
func (w *Writer) Close() error {
	if w.numRowsInChunk > 0 {
		if err := w.writeChunk(); err != nil {
			w.writer.Close()
			w.file.Close()
			return err
		}
	}
	if err := w.writer.Close(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
