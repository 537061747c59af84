package column

import "errors"

// ErrColumnCorrupt is returned when a column payload fails validation:
// footer decode failure, an offset or size outside the enclosing slice, or
// a misaligned section.
var ErrColumnCorrupt = errors.New("column: corrupt payload")
