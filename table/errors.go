package table

import "errors"

// ErrUnknownColumn is returned by Fetch when a requested column name is
// not present in the table's schema. No gather happens for any requested
// column when this is returned.
var ErrUnknownColumn = errors.New("table: unknown column")
