package segment

import "errors"

// ErrSegmentCorrupt is returned when a segment file fails validation: bad
// magic, unknown version, a short read, or a footer that fails to decode.
var ErrSegmentCorrupt = errors.New("segment: corrupt file")
