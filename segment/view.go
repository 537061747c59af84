package segment

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/murrdb/murr/internal/wireformat"
)

// Segment is one opened, read-only memory-mapped segment file. Mapping is
// read-only and a Segment is never remapped after construction; it is
// valid for as long as its owning view keeps it mapped.
type Segment struct {
	path    string
	mapped  mmap.MMap
	columns map[string]columnLoc
}

// Open memory-maps path, validates the magic and version, and decodes the
// top-level footer into a name -> (offset, size) mapping. It does not
// interpret column payloads; that is the column codec's job.
func Open(path string) (*Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: empty file %s", ErrSegmentCorrupt, path)
	}

	mapped, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("segment: mmap %s: %w", path, err)
	}

	s, err := open(path, mapped)
	if err != nil {
		_ = mapped.Unmap()
		return nil, err
	}
	return s, nil
}

func open(path string, mapped mmap.MMap) (*Segment, error) {
	headerLen := len(wireformat.SegmentMagic) + 4
	if len(mapped) < headerLen {
		return nil, fmt.Errorf("%w: %s too short for header", ErrSegmentCorrupt, path)
	}
	if string(mapped[:len(wireformat.SegmentMagic)]) != wireformat.SegmentMagic {
		return nil, fmt.Errorf("%w: %s has bad magic", ErrSegmentCorrupt, path)
	}
	version := wireformat.Endian.Uint32(mapped[len(wireformat.SegmentMagic):headerLen])
	if version != wireformat.SegmentVersion {
		return nil, fmt.Errorf("%w: %s has unsupported version %d", ErrSegmentCorrupt, path, version)
	}

	footer, _, err := wireformat.ReadTrailer(mapped)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSegmentCorrupt, path, err)
	}
	locs, err := decodeFooter(footer)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSegmentCorrupt, path, err)
	}

	columns := make(map[string]columnLoc, len(locs))
	for _, l := range locs {
		if !wireformat.WithinBounds(len(mapped), l.offset, l.size) {
			return nil, fmt.Errorf("%w: %s: column %q out of bounds", ErrSegmentCorrupt, path, l.name)
		}
		columns[l.name] = l
	}

	return &Segment{path: path, mapped: mapped, columns: columns}, nil
}

// Column returns a borrowed, zero-copy slice into mapped memory for the
// named column's payload, or false if the segment has no such column.
func (s *Segment) Column(name string) ([]byte, bool) {
	loc, ok := s.columns[name]
	if !ok {
		return nil, false
	}
	return s.mapped[loc.offset : loc.offset+loc.size], true
}

// Path returns the file path this segment was opened from.
func (s *Segment) Path() string { return s.path }

// Close unmaps the segment's memory. It must only be called once no
// reader retains a reference to data borrowed from it.
func (s *Segment) Close() error {
	return s.mapped.Unmap()
}
