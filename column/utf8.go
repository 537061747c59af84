package column

import (
	"fmt"

	"github.com/murrdb/murr/internal/wireformat"
)

// Utf8Writer accumulates one column's worth of strings and encodes them
// into the within-column layout described in §4.2: offsets, concatenated
// payload bytes, an optional null bitmap, and a trailing footer.
type Utf8Writer struct {
	offsets  []int32
	payload  []byte
	bitmap   *bitmapBuilder
	nullable bool
}

func NewUtf8Writer(nullable bool, capacity int) *Utf8Writer {
	return &Utf8Writer{
		offsets:  []int32{0},
		payload:  make([]byte, 0, capacity*8),
		bitmap:   newBitmapBuilder(capacity),
		nullable: nullable,
	}
}

// Append adds one value. A null value contributes a zero-length string to
// the payload; its length is recovered as zero bytes regardless.
func (w *Utf8Writer) Append(s string, valid bool) {
	if !w.nullable {
		valid = true
	}
	if !valid {
		s = ""
	}
	w.payload = append(w.payload, s...)
	w.offsets = append(w.offsets, int32(len(w.payload)))
	w.bitmap.append(valid)
}

func (w *Utf8Writer) Build() []byte {
	var buf []byte

	numValues := len(w.offsets) - 1

	offsetsOffset := len(buf)
	for _, o := range w.offsets {
		var tmp [4]byte
		wireformat.Endian.PutUint32(tmp[:], uint32(o))
		buf = append(buf, tmp[:]...)
	}
	buf = append(buf, make([]byte, wireformat.PadBytes(len(buf)))...)

	payloadOffset := len(buf)
	buf = append(buf, w.payload...)
	payloadSize := len(buf) - payloadOffset
	buf = append(buf, make([]byte, wireformat.PadBytes(len(buf)))...)

	var bitmapOffset, bitmapSize int
	if w.bitmap.hasBitmap() {
		bitmapOffset = len(buf)
		for _, word := range w.bitmap.words {
			var tmp [8]byte
			wireformat.Endian.PutUint64(tmp[:], word)
			buf = append(buf, tmp[:]...)
		}
		bitmapSize = len(buf) - bitmapOffset
		buf = append(buf, make([]byte, wireformat.PadBytes(len(buf)))...)
	}

	var fb wireformat.FooterBuf
	fb.PutUint32(uint32(numValues))
	fb.PutUint32(uint32(offsetsOffset))
	fb.PutUint32(uint32(payloadOffset))
	fb.PutUint32(uint32(payloadSize))
	fb.PutUint32(uint32(bitmapOffset))
	fb.PutUint32(uint32(bitmapSize))
	footer := fb.Bytes()
	buf = append(buf, footer...)

	var sizeTmp [4]byte
	wireformat.Endian.PutUint32(sizeTmp[:], uint32(len(footer)))
	buf = append(buf, sizeTmp[:]...)

	return buf
}

// Utf8Column is a parsed, read-only view over a utf8 column payload living
// in borrowed memory.
type Utf8Column struct {
	buf         []byte
	numValues   int
	offsetsOff  uint32
	payloadOff  uint32
	payloadSize uint32
	bitmap      Bitmap
	nullable    bool
	hasBitmap   bool
}

func ParseUtf8Column(buf []byte, nullable bool) (*Utf8Column, error) {
	footer, _, err := wireformat.ReadTrailer(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrColumnCorrupt, err)
	}
	r := wireformat.NewFooterReader(footer)
	numValues, err := r.Uint32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrColumnCorrupt, err)
	}
	offsetsOff, err := r.Uint32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrColumnCorrupt, err)
	}
	payloadOff, err := r.Uint32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrColumnCorrupt, err)
	}
	payloadSize, err := r.Uint32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrColumnCorrupt, err)
	}
	bitmapOff, err := r.Uint32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrColumnCorrupt, err)
	}
	bitmapSize, err := r.Uint32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrColumnCorrupt, err)
	}

	offsetsSize := uint32(numValues+1) * 4
	if !wireformat.WithinBounds(len(buf), offsetsOff, offsetsSize) {
		return nil, fmt.Errorf("%w: offsets section out of bounds", ErrColumnCorrupt)
	}
	if payloadOff%wireformat.Align != 0 || uint64(payloadOff)+uint64(payloadSize) > uint64(len(buf)) {
		return nil, fmt.Errorf("%w: payload section out of bounds", ErrColumnCorrupt)
	}

	c := &Utf8Column{
		buf:         buf,
		numValues:   int(numValues),
		offsetsOff:  offsetsOff,
		payloadOff:  payloadOff,
		payloadSize: payloadSize,
		nullable:    nullable,
	}

	if bitmapSize > 0 {
		if !wireformat.WithinBounds(len(buf), bitmapOff, bitmapSize) {
			return nil, fmt.Errorf("%w: null bitmap out of bounds", ErrColumnCorrupt)
		}
		if bitmapSize%8 != 0 {
			return nil, fmt.Errorf("%w: null bitmap size %d not word-aligned", ErrColumnCorrupt, bitmapSize)
		}
		words := make([]uint64, bitmapSize/8)
		raw := buf[bitmapOff : bitmapOff+bitmapSize]
		for i := range words {
			words[i] = wireformat.Endian.Uint64(raw[i*8:])
		}
		c.bitmap = Bitmap{words: words}
		c.hasBitmap = true
	}

	return c, nil
}

func (c *Utf8Column) NumValues() int { return c.numValues }

func (c *Utf8Column) HasNulls() bool { return c.nullable && c.hasBitmap }

func (c *Utf8Column) IsValid(row int) bool {
	if !c.HasNulls() {
		return true
	}
	return c.bitmap.IsValid(row)
}

func (c *Utf8Column) offsetAt(i int) int32 {
	off := c.offsetsOff + uint32(i)*4
	return int32(wireformat.Endian.Uint32(c.buf[off:]))
}

// Bounds returns the [start, end) byte range of row within the
// concatenated payload section.
func (c *Utf8Column) Bounds(row int) (int32, int32) {
	return c.offsetAt(row), c.offsetAt(row + 1)
}

// Payload returns the raw concatenated string bytes, borrowed.
func (c *Utf8Column) Payload() []byte {
	return c.buf[c.payloadOff : c.payloadOff+c.payloadSize]
}

// StringAt returns the string at row. The bytes are copied out of the
// borrowed payload, so the result stays valid after the mapping is released.
func (c *Utf8Column) StringAt(row int) string {
	start, end := c.Bounds(row)
	return string(c.Payload()[start:end])
}
