// Package directory implements the namespace abstraction over segment
// files and the schema descriptor (§4.4): enumerating segments and
// committing new segments atomically, decoupled from physical storage.
package directory

import "context"

// Directory is implemented once for local disk here; future remote-storage
// implementations follow the same interface. The core never assumes
// synchronous local I/O, so every method that touches the backing store
// takes a context; SegmentPath only computes a locator and does no I/O.
type Directory interface {
	// Index returns the current directory listing: the schema descriptor
	// (nil if the directory has none yet) and the ordered list of segment
	// ids, ascending. Equivalent to one bulk listing call against the
	// backing store.
	Index(ctx context.Context) (*Schema, []int, error)

	// WriteSchema materializes the schema descriptor. Called exactly once,
	// at table creation.
	WriteSchema(ctx context.Context, schema *Schema) error

	// AllocateSegmentID returns the id to use for the next segment write:
	// one past the highest id currently present. Ids start at 0.
	AllocateSegmentID(ctx context.Context) (int, error)

	// WriteSegment atomically publishes a new segment file for id with the
	// given contents. Atomicity at single-file granularity is all that is
	// required; the rebuild protocol provides multi-operation consistency.
	WriteSegment(ctx context.Context, id int, data []byte) error

	// SegmentPath returns the backing-store locator for segment id, used
	// by the table view to open it (a path, for the local implementation).
	SegmentPath(id int) string
}
