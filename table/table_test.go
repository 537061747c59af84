package table

import (
	"context"
	"testing"

	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/stretchr/testify/require"

	"github.com/murrdb/murr/column"
	"github.com/murrdb/murr/directory"
	"github.com/murrdb/murr/segment"
)

func testSchema() *directory.Schema {
	return &directory.Schema{
		Key: "id",
		Columns: map[string]directory.ColumnSchema{
			"id":    {Dtype: directory.DtypeUtf8, Nullable: false},
			"score": {Dtype: directory.DtypeFloat32, Nullable: true},
		},
	}
}

func writeSegment(t *testing.T, dir directory.Directory, ids []string, scores []float32, valid []bool) int {
	t.Helper()
	ctx := context.Background()

	idW := column.NewUtf8Writer(false, len(ids))
	for _, id := range ids {
		idW.Append(id, true)
	}
	scoreW := column.NewFloat32Writer(true, len(scores))
	for i, s := range scores {
		ok := true
		if valid != nil {
			ok = valid[i]
		}
		scoreW.Append(s, ok)
	}

	w := segment.NewWriter()
	w.Put("id", idW.Build())
	w.Put("score", scoreW.Build())

	segID, err := dir.AllocateSegmentID(ctx)
	require.NoError(t, err)
	require.NoError(t, dir.WriteSegment(ctx, segID, w.Build()))
	return segID
}

func TestRebuildAndFetchShadowing(t *testing.T) {
	dir, err := directory.OpenFS(t.TempDir())
	require.NoError(t, err)
	schema := testSchema()
	require.NoError(t, dir.WriteSchema(context.Background(), schema))

	writeSegment(t, dir, []string{"a", "b"}, []float32{1.0, 2.0}, nil)
	writeSegment(t, dir, []string{"b", "c"}, []float32{20.0, 3.0}, nil) // b shadows first segment

	pool := memory.NewGoAllocator()
	ct, err := Rebuild(context.Background(), dir, pool)
	require.NoError(t, err)
	defer ct.Release()

	require.Equal(t, 4, ct.NumRows(), "row count counts every physical row, including shadowed ones")

	rec, err := ct.Reader().Fetch(pool, []string{"a", "b", "c", "missing"}, []string{"score"})
	require.NoError(t, err)
	defer rec.Release()

	scores := rec.Column(0).(*array.Float32)
	require.Equal(t, float32(1.0), scores.Value(0))
	require.Equal(t, float32(20.0), scores.Value(1), "last-write-wins: second segment's row for key b must win")
	require.Equal(t, float32(3.0), scores.Value(2))
	require.True(t, scores.IsNull(3), "missing keys produce null regardless of column nullability")
}

func TestFetchPreservesRequestOrder(t *testing.T) {
	dir, err := directory.OpenFS(t.TempDir())
	require.NoError(t, err)
	schema := testSchema()
	require.NoError(t, dir.WriteSchema(context.Background(), schema))
	writeSegment(t, dir, []string{"x", "y", "z"}, []float32{1, 2, 3}, nil)

	pool := memory.NewGoAllocator()
	ct, err := Rebuild(context.Background(), dir, pool)
	require.NoError(t, err)
	defer ct.Release()

	rec, err := ct.Reader().Fetch(pool, []string{"z", "x", "y"}, []string{"score"})
	require.NoError(t, err)
	defer rec.Release()

	scores := rec.Column(0).(*array.Float32)
	require.Equal(t, float32(3), scores.Value(0))
	require.Equal(t, float32(1), scores.Value(1))
	require.Equal(t, float32(2), scores.Value(2))
}

func TestFetchRejectsUnknownColumn(t *testing.T) {
	dir, err := directory.OpenFS(t.TempDir())
	require.NoError(t, err)
	schema := testSchema()
	require.NoError(t, dir.WriteSchema(context.Background(), schema))
	writeSegment(t, dir, []string{"a"}, []float32{1}, nil)

	pool := memory.NewGoAllocator()
	ct, err := Rebuild(context.Background(), dir, pool)
	require.NoError(t, err)
	defer ct.Release()

	_, err = ct.Reader().Fetch(pool, []string{"a"}, []string{"nope"})
	require.ErrorIs(t, err, ErrUnknownColumn)
}

func TestRebuildEmptyTableAllSegmentsMissing(t *testing.T) {
	dir, err := directory.OpenFS(t.TempDir())
	require.NoError(t, err)
	schema := testSchema()
	require.NoError(t, dir.WriteSchema(context.Background(), schema))

	pool := memory.NewGoAllocator()
	ct, err := Rebuild(context.Background(), dir, pool)
	require.NoError(t, err)
	defer ct.Release()

	require.Equal(t, 0, ct.NumRows())

	rec, err := ct.Reader().Fetch(pool, []string{"anything"}, []string{"score"})
	require.NoError(t, err)
	defer rec.Release()

	scores := rec.Column(0).(*array.Float32)
	require.True(t, scores.IsNull(0))
}

func TestSnapshotIsolationAcrossRebuild(t *testing.T) {
	dir, err := directory.OpenFS(t.TempDir())
	require.NoError(t, err)
	schema := testSchema()
	require.NoError(t, dir.WriteSchema(context.Background(), schema))
	writeSegment(t, dir, []string{"a"}, []float32{1}, nil)

	pool := memory.NewGoAllocator()
	old, err := Rebuild(context.Background(), dir, pool)
	require.NoError(t, err)

	writeSegment(t, dir, []string{"b"}, []float32{2}, nil)

	fresh, err := Rebuild(context.Background(), dir, pool)
	require.NoError(t, err)
	defer fresh.Release()

	require.Equal(t, 1, old.NumRows(), "a snapshot acquired before a write must not observe it")
	require.Equal(t, 2, fresh.NumRows())
	old.Release()
}
