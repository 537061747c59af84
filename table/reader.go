package table

import (
	"fmt"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"

	"github.com/murrdb/murr/column"
	"github.com/murrdb/murr/directory"
	"github.com/murrdb/murr/segment"
)

// Reader is built from a View and the schema (§4.5). It holds one
// MultiSegmentColumn per schema column and the key -> KeyLocation index.
// Once built, a Reader is immutable for the lifetime of its snapshot.
type Reader struct {
	schema  *directory.Schema
	columns map[string]column.MultiSegmentColumn
	index   *keyIndex
	numRows int
}

// newReader builds a Reader from an already-opened View: one
// MultiSegmentColumn per schema column, then the key index, built by
// walking the materialized key column in segment-then-row order so that
// later segments shadow earlier ones (last-write-wins).
func newReader(view *View, pool memory.Allocator) (*Reader, error) {
	schema := view.Schema
	columns := make(map[string]column.MultiSegmentColumn, len(schema.Columns))

	for name, colSchema := range schema.Columns {
		msc, err := buildMultiSegmentColumn(view, name, colSchema)
		if err != nil {
			return nil, err
		}
		columns[name] = msc
	}

	keyColumn, ok := columns[schema.Key]
	if !ok {
		return nil, fmt.Errorf("table: key column %q missing from built columns", schema.Key)
	}

	keysArr, err := keyColumn.GetAll(pool)
	if err != nil {
		return nil, fmt.Errorf("table: materialize key column: %w", err)
	}
	defer keysArr.Release()
	keys, ok := keysArr.(*array.String)
	if !ok {
		return nil, fmt.Errorf("table: key column %q did not produce a string array", schema.Key)
	}

	idx := newKeyIndex(keys.Len())
	numRows := 0
	row := 0
	for segIdx, seg := range view.Segments {
		n, err := segmentRowCount(seg, schema)
		if err != nil {
			return nil, err
		}
		for r := 0; r < n; r++ {
			idx.set(keys.Value(row), column.KeyLocation{Segment: int32(segIdx), Row: int32(r)})
			row++
		}
		numRows += n
	}

	return &Reader{schema: schema, columns: columns, index: idx, numRows: numRows}, nil
}

func buildMultiSegmentColumn(view *View, name string, colSchema directory.ColumnSchema) (column.MultiSegmentColumn, error) {
	switch colSchema.Dtype {
	case directory.DtypeFloat32:
		decoders := make([]*column.Float32Column, len(view.Segments))
		for i, seg := range view.Segments {
			buf, ok := seg.Column(name)
			if !ok {
				return nil, fmt.Errorf("table: segment %s missing column %q", seg.Path(), name)
			}
			dec, err := column.ParseFloat32Column(buf, colSchema.Nullable)
			if err != nil {
				return nil, fmt.Errorf("table: segment %s column %q: %w", seg.Path(), name, err)
			}
			decoders[i] = dec
		}
		return column.NewFloat32MultiSegment(name, decoders), nil
	case directory.DtypeUtf8:
		decoders := make([]*column.Utf8Column, len(view.Segments))
		for i, seg := range view.Segments {
			buf, ok := seg.Column(name)
			if !ok {
				return nil, fmt.Errorf("table: segment %s missing column %q", seg.Path(), name)
			}
			dec, err := column.ParseUtf8Column(buf, colSchema.Nullable)
			if err != nil {
				return nil, fmt.Errorf("table: segment %s column %q: %w", seg.Path(), name, err)
			}
			decoders[i] = dec
		}
		return column.NewUtf8MultiSegment(name, decoders), nil
	default:
		return nil, fmt.Errorf("table: unknown dtype %q for column %q", colSchema.Dtype, name)
	}
}

// segmentRowCount derives a segment's row count from its key column, which
// is always present and non-nullable (§3: "Row count is fixed per segment
// at write time and is derivable from the key column's row count").
func segmentRowCount(seg *segment.Segment, schema *directory.Schema) (int, error) {
	buf, ok := seg.Column(schema.Key)
	if !ok {
		return 0, fmt.Errorf("table: segment missing key column %q", schema.Key)
	}
	dec, err := column.ParseUtf8Column(buf, false)
	if err != nil {
		return 0, fmt.Errorf("table: key column %q: %w", schema.Key, err)
	}
	return dec.NumValues(), nil
}

// NumRows returns the total row count across all segments in the
// snapshot this reader was built from.
func (r *Reader) NumRows() int { return r.numRows }

// Fetch resolves keys to locations and gathers the requested columns, in
// request order, assembling a record batch whose schema matches the input
// column order. Missing keys produce null entries in every column,
// regardless of declared nullability. Columns not in the schema are
// rejected before any gather happens.
func (r *Reader) Fetch(pool memory.Allocator, keys []string, columns []string) (arrow.Record, error) {
	cols := make([]column.MultiSegmentColumn, len(columns))
	for i, name := range columns {
		msc, ok := r.columns[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
		cols[i] = msc
	}

	locs := make([]column.KeyLocation, len(keys))
	for i, k := range keys {
		if loc, ok := r.index.get(k); ok {
			locs[i] = loc
		} else {
			locs[i] = column.MissingLocation
		}
	}

	arrays := make([]arrow.Array, len(cols))
	fields := make([]arrow.Field, len(cols))
	for i, msc := range cols {
		arr, err := msc.GetAt(pool, locs)
		if err != nil {
			for _, a := range arrays[:i] {
				if a != nil {
					a.Release()
				}
			}
			return nil, err
		}
		arrays[i] = arr
		fields[i] = msc.Field()
	}

	schema := arrow.NewSchema(fields, nil)
	record := array.NewRecord(schema, arrays, int64(len(keys)))
	for _, a := range arrays {
		a.Release()
	}
	return record, nil
}

// Field returns the named column's declared field, cached once at
// construction and reused for every response batch assembly, or false if
// the column is not in the schema.
func (r *Reader) Field(name string) (arrow.Field, bool) {
	msc, ok := r.columns[name]
	if !ok {
		return arrow.Field{}, false
	}
	return msc.Field(), true
}
