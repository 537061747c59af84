package murr

import (
	"context"
	"testing"

	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/stretchr/testify/require"

	"github.com/murrdb/murr/directory"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(WithStoragePath(t.TempDir()))
	require.NoError(t, err)
	return s
}

func floatSchema() *directory.Schema {
	return &directory.Schema{
		Key: "id",
		Columns: map[string]directory.ColumnSchema{
			"id":    {Dtype: directory.DtypeUtf8, Nullable: false},
			"score": {Dtype: directory.DtypeFloat32, Nullable: false},
		},
	}
}

// S1: float32 round trip through Write/Read with no nulls.
func TestScenarioFloat32RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Create(ctx, "feats", floatSchema()))

	require.NoError(t, s.Write(ctx, "feats", Batch{Columns: map[string]ColumnData{
		"id":    {Utf8: []string{"a", "b", "c"}},
		"score": {Float32: []float32{1.5, 2.5, 3.5}},
	}}))

	rec, err := s.Read("feats", []string{"a", "b", "c"}, []string{"score"})
	require.NoError(t, err)
	defer rec.Release()

	got := rec.Column(0).(*array.Float32)
	require.Equal(t, []float32{1.5, 2.5, 3.5}, got.Float32Values())
}

// S2: a later write shadows an earlier write for a repeated key.
func TestScenarioShadowing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Create(ctx, "feats", floatSchema()))

	require.NoError(t, s.Write(ctx, "feats", Batch{Columns: map[string]ColumnData{
		"id":    {Utf8: []string{"a", "b"}},
		"score": {Float32: []float32{1.0, 2.0}},
	}}))
	require.NoError(t, s.Write(ctx, "feats", Batch{Columns: map[string]ColumnData{
		"id":    {Utf8: []string{"b", "c"}},
		"score": {Float32: []float32{20.0, 3.0}},
	}}))

	rec, err := s.Read("feats", []string{"a", "b", "c"}, []string{"score"})
	require.NoError(t, err)
	defer rec.Release()

	got := rec.Column(0).(*array.Float32)
	require.Equal(t, float32(1.0), got.Value(0))
	require.Equal(t, float32(20.0), got.Value(1))
	require.Equal(t, float32(3.0), got.Value(2))
}

// S3: a nullable utf8 column carries nulls through to the result.
func TestScenarioUtf8WithNulls(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	schema := &directory.Schema{
		Key: "id",
		Columns: map[string]directory.ColumnSchema{
			"id":   {Dtype: directory.DtypeUtf8, Nullable: false},
			"name": {Dtype: directory.DtypeUtf8, Nullable: true},
		},
	}
	require.NoError(t, s.Create(ctx, "people", schema))

	require.NoError(t, s.Write(ctx, "people", Batch{Columns: map[string]ColumnData{
		"id":   {Utf8: []string{"1", "2"}},
		"name": {Utf8: []string{"alice", ""}, Valid: []bool{true, false}},
	}}))

	rec, err := s.Read("people", []string{"1", "2"}, []string{"name"})
	require.NoError(t, err)
	defer rec.Release()

	got := rec.Column(0).(*array.String)
	require.Equal(t, "alice", got.Value(0))
	require.True(t, got.IsNull(1))
}

// S4: requesting an unknown column is rejected before any gather.
func TestScenarioUnknownColumnRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Create(ctx, "feats", floatSchema()))
	require.NoError(t, s.Write(ctx, "feats", Batch{Columns: map[string]ColumnData{
		"id":    {Utf8: []string{"a"}},
		"score": {Float32: []float32{1.0}},
	}}))

	_, err := s.Read("feats", []string{"a"}, []string{"nonexistent"})
	require.ErrorIs(t, err, ErrUnknownColumn)
}

// S5: a schema-mismatched batch is rejected and no segment file is
// committed.
func TestScenarioSchemaMismatchLeavesNoSegment(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Create(ctx, "feats", floatSchema()))

	err := s.Write(ctx, "feats", Batch{Columns: map[string]ColumnData{
		"id": {Utf8: []string{"a"}},
		// "score" missing entirely.
	}})
	require.ErrorIs(t, err, ErrSchemaMismatch)

	rec, err := s.Read("feats", []string{"a"}, []string{"score"})
	require.NoError(t, err)
	defer rec.Release()
	require.True(t, rec.Column(0).(*array.Float32).IsNull(0), "rejected batch must not have produced a segment")
}

// S6: reading a table with no writes yet returns an all-null row rather
// than erroring.
func TestScenarioEmptyTableReadsAllNull(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Create(ctx, "feats", floatSchema()))

	rec, err := s.Read("feats", []string{"anything"}, []string{"score"})
	require.NoError(t, err)
	defer rec.Release()

	require.Equal(t, int64(1), rec.NumRows())
	require.True(t, rec.Column(0).(*array.Float32).IsNull(0))
}

func TestCreateRejectsDuplicateTable(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Create(ctx, "feats", floatSchema()))
	err := s.Create(ctx, "feats", floatSchema())
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestCreateRejectsInvalidSchema(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	bad := &directory.Schema{Key: "id", Columns: map[string]directory.ColumnSchema{}}
	err := s.Create(ctx, "feats", bad)
	require.ErrorIs(t, err, ErrInvalidSchema)
}

func TestWriteUnknownTable(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	err := s.Write(ctx, "nope", Batch{})
	require.ErrorIs(t, err, ErrUnknownTable)
}

func TestReadUnknownTable(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Read("nope", []string{"a"}, []string{"score"})
	require.ErrorIs(t, err, ErrUnknownTable)
}

// A fully valid batch written to a non-nullable column reads back with no
// nulls, end-to-end through a fresh store. The on-disk "no bitmap" property
// itself is checked in the column package tests.
func TestNonNullableColumnRoundTripHasNoNulls(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Create(ctx, "feats", floatSchema()))
	require.NoError(t, s.Write(ctx, "feats", Batch{Columns: map[string]ColumnData{
		"id":    {Utf8: []string{"a", "b"}},
		"score": {Float32: []float32{1, 2}},
	}}))

	rec, err := s.Read("feats", []string{"a", "b"}, []string{"score"})
	require.NoError(t, err)
	defer rec.Release()

	got := rec.Column(0).(*array.Float32)
	require.False(t, got.NullN() > 0)
}

// The schema returned by GetSchema after Create is unchanged by a later
// Write.
func TestSchemaImmutableAfterCreate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Create(ctx, "feats", floatSchema()))

	got, err := s.GetSchema("feats")
	require.NoError(t, err)
	require.Equal(t, "id", got.Key)

	require.NoError(t, s.Write(ctx, "feats", Batch{Columns: map[string]ColumnData{
		"id":    {Utf8: []string{"a"}},
		"score": {Float32: []float32{1}},
	}}))

	got2, err := s.GetSchema("feats")
	require.NoError(t, err)
	require.Equal(t, got.Columns, got2.Columns, "writing rows must never alter the declared schema")
}
