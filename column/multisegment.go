// Package column implements the per-dtype column codecs (§4.2) and the
// multi-segment column that aggregates one column's payload across all
// segments of a table (§4.3).
package column

import (
	"fmt"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
)

// KeyLocation addresses a row as (segment index within the current
// snapshot, row offset within that segment). A location with a negative
// Segment is a tombstone meaning "key not found"; Missing reports it.
type KeyLocation struct {
	Segment int32
	Row     int32
}

// MissingLocation is the sentinel used for keys absent from the index.
var MissingLocation = KeyLocation{Segment: -1}

func (l KeyLocation) Missing() bool { return l.Segment < 0 }

// MultiSegmentColumn aggregates one schema column's per-segment decoders
// and exposes the scatter-gather and full-materialization operations used
// by the table reader. Its field is cached once at construction and reused
// for every response batch assembly.
type MultiSegmentColumn interface {
	Field() arrow.Field
	// GetAt produces a dense array in input order; missing locations
	// produce nulls regardless of the column's declared nullability.
	GetAt(pool memory.Allocator, locs []KeyLocation) (arrow.Array, error)
	// GetAll concatenates every segment in segment order.
	GetAll(pool memory.Allocator) (arrow.Array, error)
}

// Float32MultiSegment implements MultiSegmentColumn for float32 columns.
type Float32MultiSegment struct {
	field    arrow.Field
	segments []*Float32Column
}

func NewFloat32MultiSegment(name string, segments []*Float32Column) *Float32MultiSegment {
	return &Float32MultiSegment{
		field:    arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float32, Nullable: true},
		segments: segments,
	}
}

func (m *Float32MultiSegment) Field() arrow.Field { return m.field }

// anySegmentHasNulls is the per-column half of the branch-once discipline:
// checked once per GetAt/GetAll call, not per row.
func (m *Float32MultiSegment) anySegmentHasNulls() bool {
	for _, s := range m.segments {
		if s.HasNulls() {
			return true
		}
	}
	return false
}

func (m *Float32MultiSegment) GetAt(pool memory.Allocator, locs []KeyLocation) (arrow.Array, error) {
	// First pass: exact-size value fill, no per-element capacity checks.
	values := make([]float32, len(locs))
	anyMissing := false
	for i, loc := range locs {
		if loc.Missing() {
			anyMissing = true
			continue
		}
		if int(loc.Segment) >= len(m.segments) {
			return nil, fmt.Errorf("%w: segment index %d out of range", ErrColumnCorrupt, loc.Segment)
		}
		values[i] = m.segments[loc.Segment].ValueAt(int(loc.Row))
	}

	// Second pass: only run when nulls are actually possible.
	var valid []bool
	if anyMissing || m.anySegmentHasNulls() {
		valid = make([]bool, len(locs))
		for i, loc := range locs {
			if loc.Missing() {
				continue
			}
			valid[i] = m.segments[loc.Segment].IsValid(int(loc.Row))
		}
	}

	b := array.NewFloat32Builder(pool)
	defer b.Release()
	b.AppendValues(values, valid)
	return b.NewArray(), nil
}

func (m *Float32MultiSegment) GetAll(pool memory.Allocator) (arrow.Array, error) {
	total := 0
	for _, s := range m.segments {
		total += s.NumValues()
	}
	values := make([]float32, 0, total)
	for _, s := range m.segments {
		for i := 0; i < s.NumValues(); i++ {
			values = append(values, s.ValueAt(i))
		}
	}

	var valid []bool
	if m.anySegmentHasNulls() {
		valid = make([]bool, 0, total)
		for _, s := range m.segments {
			for i := 0; i < s.NumValues(); i++ {
				valid = append(valid, s.IsValid(i))
			}
		}
	}

	b := array.NewFloat32Builder(pool)
	defer b.Release()
	b.AppendValues(values, valid)
	return b.NewArray(), nil
}

// Utf8MultiSegment implements MultiSegmentColumn for utf8 columns.
type Utf8MultiSegment struct {
	field    arrow.Field
	segments []*Utf8Column
}

func NewUtf8MultiSegment(name string, segments []*Utf8Column) *Utf8MultiSegment {
	return &Utf8MultiSegment{
		field:    arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true},
		segments: segments,
	}
}

func (m *Utf8MultiSegment) Field() arrow.Field { return m.field }

func (m *Utf8MultiSegment) anySegmentHasNulls() bool {
	for _, s := range m.segments {
		if s.HasNulls() {
			return true
		}
	}
	return false
}

func (m *Utf8MultiSegment) GetAt(pool memory.Allocator, locs []KeyLocation) (arrow.Array, error) {
	// First pass: compute each selected string's bounds and copy it into
	// the dense output slice; the builder computes the offsets/payload
	// prefix sum internally from this single exact-size call.
	values := make([]string, len(locs))
	anyMissing := false
	for i, loc := range locs {
		if loc.Missing() {
			anyMissing = true
			continue
		}
		if int(loc.Segment) >= len(m.segments) {
			return nil, fmt.Errorf("%w: segment index %d out of range", ErrColumnCorrupt, loc.Segment)
		}
		values[i] = m.segments[loc.Segment].StringAt(int(loc.Row))
	}

	var valid []bool
	if anyMissing || m.anySegmentHasNulls() {
		valid = make([]bool, len(locs))
		for i, loc := range locs {
			if loc.Missing() {
				continue
			}
			valid[i] = m.segments[loc.Segment].IsValid(int(loc.Row))
		}
	}

	b := array.NewStringBuilder(pool)
	defer b.Release()
	b.AppendValues(values, valid)
	return b.NewArray(), nil
}

func (m *Utf8MultiSegment) GetAll(pool memory.Allocator) (arrow.Array, error) {
	total := 0
	for _, s := range m.segments {
		total += s.NumValues()
	}
	values := make([]string, 0, total)
	for _, s := range m.segments {
		for i := 0; i < s.NumValues(); i++ {
			values = append(values, s.StringAt(i))
		}
	}

	var valid []bool
	if m.anySegmentHasNulls() {
		valid = make([]bool, 0, total)
		for _, s := range m.segments {
			for i := 0; i < s.NumValues(); i++ {
				valid = append(valid, s.IsValid(i))
			}
		}
	}

	b := array.NewStringBuilder(pool)
	defer b.Release()
	b.AppendValues(values, valid)
	return b.NewArray(), nil
}
