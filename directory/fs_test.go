package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFSDirectorySchemaRoundTrip(t *testing.T) {
	dir, err := OpenFS(t.TempDir())
	require.NoError(t, err)

	schema := &Schema{
		Key: "id",
		Columns: map[string]ColumnSchema{
			"id": {Dtype: DtypeUtf8, Nullable: false},
			"v":  {Dtype: DtypeFloat32, Nullable: true},
		},
	}
	require.NoError(t, dir.WriteSchema(context.Background(), schema))

	got, ids, err := dir.Index(context.Background())
	require.NoError(t, err)
	require.Empty(t, ids)
	require.Equal(t, schema.Key, got.Key)
	require.Equal(t, schema.Columns, got.Columns)
}

func TestFSDirectorySegmentIDAllocation(t *testing.T) {
	dir, err := OpenFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for want := 0; want < 3; want++ {
		id, err := dir.AllocateSegmentID(ctx)
		require.NoError(t, err)
		require.Equal(t, want, id)
		require.NoError(t, dir.WriteSegment(ctx, id, []byte("data")))
	}

	_, ids, err := dir.Index(ctx)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2}, ids)
}

func TestFSDirectoryResumesIDsAcrossOpens(t *testing.T) {
	path := t.TempDir()
	ctx := context.Background()

	dir1, err := OpenFS(path)
	require.NoError(t, err)
	id, err := dir1.AllocateSegmentID(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, id)
	require.NoError(t, dir1.WriteSegment(ctx, id, []byte("data")))

	dir2, err := OpenFS(path)
	require.NoError(t, err)
	id, err = dir2.AllocateSegmentID(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, id, "a fresh directory handle must recover the highest existing id")
}

func TestSchemaValidate(t *testing.T) {
	cases := []struct {
		name    string
		schema  Schema
		wantErr bool
	}{
		{
			name: "valid",
			schema: Schema{
				Key: "id",
				Columns: map[string]ColumnSchema{
					"id": {Dtype: DtypeUtf8, Nullable: false},
				},
			},
		},
		{
			name: "key missing from columns",
			schema: Schema{
				Key:     "id",
				Columns: map[string]ColumnSchema{"v": {Dtype: DtypeFloat32}},
			},
			wantErr: true,
		},
		{
			name: "key nullable",
			schema: Schema{
				Key:     "id",
				Columns: map[string]ColumnSchema{"id": {Dtype: DtypeUtf8, Nullable: true}},
			},
			wantErr: true,
		},
		{
			name: "key not utf8",
			schema: Schema{
				Key:     "id",
				Columns: map[string]ColumnSchema{"id": {Dtype: DtypeFloat32, Nullable: false}},
			},
			wantErr: true,
		},
		{
			name: "unknown dtype",
			schema: Schema{
				Key: "id",
				Columns: map[string]ColumnSchema{
					"id": {Dtype: DtypeUtf8, Nullable: false},
					"v":  {Dtype: "int64", Nullable: false},
				},
			},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.schema.Validate()
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidSchema)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
