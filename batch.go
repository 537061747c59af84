package murr

import (
	"fmt"

	"github.com/murrdb/murr/column"
	"github.com/murrdb/murr/directory"
	"github.com/murrdb/murr/segment"
)

// ColumnData is one column's worth of values for a Write call. Exactly one
// of Float32/Utf8 should be populated, matching the schema's declared
// dtype for that column name. Valid is nil when every value is valid
// (including for non-nullable columns); otherwise it must have the same
// length as the value slice.
type ColumnData struct {
	Float32 []float32
	Utf8    []string
	Valid   []bool
}

func (c ColumnData) len(dtype directory.Dtype) int {
	switch dtype {
	case directory.DtypeFloat32:
		return len(c.Float32)
	case directory.DtypeUtf8:
		return len(c.Utf8)
	default:
		return 0
	}
}

func (c ColumnData) validAt(i int) bool {
	if c.Valid == nil {
		return true
	}
	return c.Valid[i]
}

// Batch is a record batch to append to a table: one ColumnData per schema
// column, all with equal row counts. Collaborators (Parquet ingestion,
// the gRPC surface, etc.) are responsible for producing this shape; this
// core never parses Parquet or wire formats itself.
type Batch struct {
	Columns map[string]ColumnData
}

// validateBatch checks a batch against schema per the write contract in §4.7:
// every schema column present with a matching dtype and equal row count,
// and the key column present and non-null throughout. No segment bytes
// are produced until this succeeds.
func validateBatch(schema *directory.Schema, batch Batch) (numRows int, err error) {
	if len(batch.Columns) != len(schema.Columns) {
		return 0, fmt.Errorf("%w: batch has %d columns, schema has %d", ErrSchemaMismatch, len(batch.Columns), len(schema.Columns))
	}

	numRows = -1
	for name, colSchema := range schema.Columns {
		data, ok := batch.Columns[name]
		if !ok {
			return 0, fmt.Errorf("%w: missing column %q", ErrSchemaMismatch, name)
		}
		n := data.len(colSchema.Dtype)
		if colSchema.Dtype == directory.DtypeFloat32 && data.Float32 == nil && data.Utf8 != nil {
			return 0, fmt.Errorf("%w: column %q declared float32 but given utf8 values", ErrSchemaMismatch, name)
		}
		if colSchema.Dtype == directory.DtypeUtf8 && data.Utf8 == nil && data.Float32 != nil {
			return 0, fmt.Errorf("%w: column %q declared utf8 but given float32 values", ErrSchemaMismatch, name)
		}
		if numRows == -1 {
			numRows = n
		} else if n != numRows {
			return 0, fmt.Errorf("%w: column %q has %d rows, expected %d", ErrSchemaMismatch, name, n, numRows)
		}
		if !colSchema.Nullable {
			for i := 0; i < n; i++ {
				if !data.validAt(i) {
					return 0, fmt.Errorf("%w: column %q is non-nullable but row %d is null", ErrSchemaMismatch, name, i)
				}
			}
		}
	}
	for name := range batch.Columns {
		if _, ok := schema.Columns[name]; !ok {
			return 0, fmt.Errorf("%w: unrecognized column %q", ErrSchemaMismatch, name)
		}
	}
	if numRows == -1 {
		numRows = 0
	}

	keyData := batch.Columns[schema.Key]
	for i := 0; i < numRows; i++ {
		if !keyData.validAt(i) {
			return 0, fmt.Errorf("%w: key column %q has a null at row %d", ErrSchemaMismatch, schema.Key, i)
		}
	}

	return numRows, nil
}

// encodeSegment builds the segment file bytes for batch. It assumes batch
// already passed validateBatch.
func encodeSegment(schema *directory.Schema, batch Batch, numRows int) []byte {
	w := segment.NewWriter()
	for _, name := range schema.ColumnNames() {
		colSchema := schema.Columns[name]
		data := batch.Columns[name]
		switch colSchema.Dtype {
		case directory.DtypeFloat32:
			cw := column.NewFloat32Writer(colSchema.Nullable, numRows)
			for i := 0; i < numRows; i++ {
				cw.Append(data.Float32[i], data.validAt(i))
			}
			w.Put(name, cw.Build())
		case directory.DtypeUtf8:
			cw := column.NewUtf8Writer(colSchema.Nullable, numRows)
			for i := 0; i < numRows; i++ {
				cw.Append(data.Utf8[i], data.validAt(i))
			}
			w.Put(name, cw.Build())
		}
	}
	return w.Build()
}
