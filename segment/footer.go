package segment

import (
	"fmt"

	"github.com/murrdb/murr/internal/wireformat"
)

// columnLoc is one entry of the segment-level footer: a column's payload
// location within the file, offset from file start.
type columnLoc struct {
	name   string
	offset uint32
	size   uint32
}

func encodeFooter(locs []columnLoc) []byte {
	var fb wireformat.FooterBuf
	fb.PutUint32(uint32(len(locs)))
	for _, l := range locs {
		fb.PutString(l.name)
		fb.PutUint32(l.offset)
		fb.PutUint32(l.size)
	}
	return fb.Bytes()
}

func decodeFooter(buf []byte) ([]columnLoc, error) {
	r := wireformat.NewFooterReader(buf)
	n, err := r.Uint32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSegmentCorrupt, err)
	}
	locs := make([]columnLoc, 0, n)
	for i := uint32(0); i < n; i++ {
		name, err := r.String()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSegmentCorrupt, err)
		}
		offset, err := r.Uint32()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSegmentCorrupt, err)
		}
		size, err := r.Uint32()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSegmentCorrupt, err)
		}
		locs = append(locs, columnLoc{name: name, offset: offset, size: size})
	}
	return locs, nil
}
