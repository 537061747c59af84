package murr

import (
	"sync"

	"github.com/murrdb/murr/directory"
	"github.com/murrdb/murr/table"
)

// tableState is a process-wide, per-table slot (§4.7): the directory
// handle, the immutable schema, and the current snapshot. snapshot is
// guarded by Store.mtx exactly like the name -> state map itself, per the
// concurrency model in §5; writeMu is a separate per-table mutex that
// serializes the write+rebuild composite action so only one write is ever
// in flight for a given table.
type tableState struct {
	dir      directory.Directory
	schema   *directory.Schema
	metrics  *tableMetrics
	writeMu  sync.Mutex
	snapshot *table.CachedTable
}
