package segment

import "github.com/murrdb/murr/internal/wireformat"

// Writer accumulates (name, payload) pairs and emits a single immutable
// segment file in one pass: header, padded payloads in column order,
// footer, footer size. No seeks, no rewrites.
type Writer struct {
	columns []namedPayload
}

type namedPayload struct {
	name    string
	payload []byte
}

func NewWriter() *Writer {
	return &Writer{}
}

// Put appends one column's already-encoded payload (the output of a
// column.*Writer.Build) in schema order.
func (w *Writer) Put(name string, payload []byte) {
	w.columns = append(w.columns, namedPayload{name: name, payload: payload})
}

// Build serializes the accumulated columns into a complete segment file.
func (w *Writer) Build() []byte {
	var buf []byte
	buf = append(buf, wireformat.SegmentMagic...)
	var versionTmp [4]byte
	wireformat.Endian.PutUint32(versionTmp[:], wireformat.SegmentVersion)
	buf = append(buf, versionTmp[:]...)

	locs := make([]columnLoc, 0, len(w.columns))
	for _, c := range w.columns {
		buf = append(buf, make([]byte, wireformat.PadBytes(len(buf)))...)
		offset := len(buf)
		buf = append(buf, c.payload...)
		locs = append(locs, columnLoc{
			name:   c.name,
			offset: uint32(offset),
			size:   uint32(len(c.payload)),
		})
	}

	footer := encodeFooter(locs)
	buf = append(buf, footer...)

	var sizeTmp [4]byte
	wireformat.Endian.PutUint32(sizeTmp[:], uint32(len(footer)))
	buf = append(buf, sizeTmp[:]...)

	return buf
}
