package table

import (
	"context"

	"github.com/apache/arrow/go/v14/arrow/memory"
	"go.uber.org/atomic"

	"github.com/murrdb/murr/directory"
)

// CachedTable owns both the View (mapped memory) and the Reader that
// borrows from it, as a single shareable unit (§4.6). The reader is valid
// only while the view's memory is mapped, so the two are released
// together: each acquired reference increments refs, and the backing
// mappings are released when the last reference is dropped.
type CachedTable struct {
	view   *View
	reader *Reader
	refs   atomic.Int64
}

// Rebuild constructs a brand new CachedTable from the current directory
// listing: list, open and map every segment, build every
// MultiSegmentColumn, and build the key index. The returned table starts
// with a single reference owned by the caller.
func Rebuild(ctx context.Context, dir directory.Directory, pool memory.Allocator) (*CachedTable, error) {
	schema, ids, err := dir.Index(ctx)
	if err != nil {
		return nil, err
	}

	view, err := openView(ctx, dir, schema, ids)
	if err != nil {
		return nil, err
	}

	reader, err := newReader(view, pool)
	if err != nil {
		_ = view.Close()
		return nil, err
	}

	ct := &CachedTable{view: view, reader: reader}
	ct.refs.Store(1)
	return ct, nil
}

// Acquire returns the same handle with its refcount bumped; each query
// handler should hold exactly one acquired reference and Release it when
// done.
func (ct *CachedTable) Acquire() *CachedTable {
	ct.refs.Inc()
	return ct
}

// Release drops one reference. When the last reference is dropped, the
// view's mapped segments are unmapped.
func (ct *CachedTable) Release() {
	if ct.refs.Dec() == 0 {
		_ = ct.view.Close()
	}
}

// Reader returns the reader borrowing from this table's mapped view. The
// returned reader must not be used after Release drops the last
// reference.
func (ct *CachedTable) Reader() *Reader { return ct.reader }

// NumRows returns the total row count across the snapshot's segments.
func (ct *CachedTable) NumRows() int { return ct.reader.NumRows() }
