package directory

import (
	"encoding/json"
	"fmt"
)

// Dtype enumerates the column types this core understands.
type Dtype string

const (
	DtypeFloat32 Dtype = "float32"
	DtypeUtf8    Dtype = "utf8"
)

func (d Dtype) valid() bool {
	switch d {
	case DtypeFloat32, DtypeUtf8:
		return true
	}
	return false
}

// ColumnSchema describes one column's dtype and nullability.
type ColumnSchema struct {
	Dtype    Dtype `json:"dtype"`
	Nullable bool  `json:"nullable"`
}

// Schema is the compact human-readable descriptor written once at table
// creation and serialized alongside the segments as table.json.
type Schema struct {
	Key     string                  `json:"key"`
	Columns map[string]ColumnSchema `json:"columns"`
}

// ErrInvalidSchema is returned by Validate when a schema violates one of
// the invariants in §3: unknown dtype, missing key column, nullable key.
var ErrInvalidSchema = fmt.Errorf("directory: invalid schema")

// Validate checks the invariants spec.md §3 demands of every schema: the
// key column is present in Columns, is utf8, and is non-nullable, and
// every column names a known dtype.
func (s *Schema) Validate() error {
	if s.Key == "" {
		return fmt.Errorf("%w: no key column named", ErrInvalidSchema)
	}
	keyCol, ok := s.Columns[s.Key]
	if !ok {
		return fmt.Errorf("%w: key column %q not present in columns", ErrInvalidSchema, s.Key)
	}
	if keyCol.Dtype != DtypeUtf8 {
		return fmt.Errorf("%w: key column %q must be utf8, got %s", ErrInvalidSchema, s.Key, keyCol.Dtype)
	}
	if keyCol.Nullable {
		return fmt.Errorf("%w: key column %q must not be nullable", ErrInvalidSchema, s.Key)
	}
	for name, col := range s.Columns {
		if !col.Dtype.valid() {
			return fmt.Errorf("%w: column %q has unknown dtype %q", ErrInvalidSchema, name, col.Dtype)
		}
	}
	return nil
}

// ColumnNames returns the schema's column names in a stable, sorted order
// distinct from map iteration order. Segment files lay out columns in this
// same order.
func (s *Schema) ColumnNames() []string {
	names := make([]string, 0, len(s.Columns))
	for name := range s.Columns {
		names = append(names, name)
	}
	sortStrings(names)
	return names
}

func sortStrings(ss []string) {
	// Small, fixed alphabet of column names per table: insertion sort is
	// plenty and avoids pulling in sort for a handful of elements used at
	// rebuild time only.
	for i := 1; i < len(ss); i++ {
		for j := i; j > 0 && ss[j-1] > ss[j]; j-- {
			ss[j-1], ss[j] = ss[j], ss[j-1]
		}
	}
}

// table.json is the intentionally human-readable on-disk form of Schema.
func marshalSchema(s *Schema) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

func unmarshalSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("directory: decode table.json: %w", err)
	}
	return &s, nil
}
