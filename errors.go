// Package murr is a columnar in-memory cache optimized for batch
// scatter-gather feature retrieval: give it columns and a list of keys,
// it returns those columns for those keys out of memory-mapped, immutable
// segment files. A read holds a shared lock only while acquiring the current
// snapshot and gathers without holding any lock.
package murr

import "errors"

// Error kinds returned by Store methods. They wrap more specific errors
// from the segment/column/directory packages where relevant; callers
// should use errors.Is against these sentinels, not string matching.
var (
	// ErrAlreadyExists is returned by Create when the table already exists.
	ErrAlreadyExists = errors.New("murr: table already exists")
	// ErrUnknownTable is returned by Write, Read, and GetSchema for a name
	// that was never created.
	ErrUnknownTable = errors.New("murr: unknown table")
	// ErrUnknownColumn is returned by Read when a requested column is not
	// in the table's schema.
	ErrUnknownColumn = errors.New("murr: unknown column")
	// ErrSchemaMismatch is returned by Write when the batch disagrees with
	// the declared schema: missing column, wrong dtype, or a null in the
	// key column. No state is mutated.
	ErrSchemaMismatch = errors.New("murr: batch does not match schema")
	// ErrInvalidSchema is returned by Create for an unusable schema: an
	// unknown dtype, a missing key column, or a nullable key column.
	ErrInvalidSchema = errors.New("murr: invalid schema")
)
