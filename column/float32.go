package column

import (
	"fmt"
	"math"

	"github.com/murrdb/murr/internal/wireformat"
)

// Float32Writer accumulates one column's worth of float32 values and
// encodes them into the within-column layout described in §4.2: a packed
// value section, an optional trailing null bitmap, and a compact footer.
type Float32Writer struct {
	values  []float32
	bitmap  *bitmapBuilder
	nullable bool
}

func NewFloat32Writer(nullable bool, capacity int) *Float32Writer {
	return &Float32Writer{
		values:   make([]float32, 0, capacity),
		bitmap:   newBitmapBuilder(capacity),
		nullable: nullable,
	}
}

// Append adds one value. valid is ignored (treated as true) for
// non-nullable columns; callers are expected to enforce non-null at the
// schema-validation layer before reaching the codec.
func (w *Float32Writer) Append(v float32, valid bool) {
	if !w.nullable {
		valid = true
	}
	if !valid {
		v = 0
	}
	w.values = append(w.values, v)
	w.bitmap.append(valid)
}

// Build emits the column payload: values, padding, optional bitmap,
// padding, footer, footer size. No offset is known before the data is
// dumped, so the footer is always written last.
func (w *Float32Writer) Build() []byte {
	var buf []byte

	valuesOffset := len(buf)
	for _, v := range w.values {
		var tmp [4]byte
		wireformat.Endian.PutUint32(tmp[:], math.Float32bits(v))
		buf = append(buf, tmp[:]...)
	}
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
	fb.PutUint32(uint32(len(w.values)))
	fb.PutUint32(uint32(valuesOffset))
	fb.PutUint32(uint32(bitmapOffset))
	fb.PutUint32(uint32(bitmapSize))
	footer := fb.Bytes()
	buf = append(buf, footer...)

	var sizeTmp [4]byte
	wireformat.Endian.PutUint32(sizeTmp[:], uint32(len(footer)))
	buf = append(buf, sizeTmp[:]...)

	return buf
}

// Float32Column is a parsed, read-only view over a float32 column payload
// living in borrowed memory (a mapped segment, typically).
type Float32Column struct {
	buf         []byte
	numValues   int
	valuesOff   uint32
	bitmap      Bitmap
	nullable    bool
	hasBitmap   bool
}

// ParseFloat32Column validates and decodes a float32 column payload. Values
// are not copied: the returned column reads them directly out of buf. Only
// the null bitmap, when present, is decoded into its own word slice.
func ParseFloat32Column(buf []byte, nullable bool) (*Float32Column, error) {
	footer, _, err := wireformat.ReadTrailer(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrColumnCorrupt, err)
	}
	r := wireformat.NewFooterReader(footer)
	numValues, err := r.Uint32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrColumnCorrupt, err)
	}
	valuesOff, err := r.Uint32()
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

	valuesSize := uint32(numValues) * 4
	if !wireformat.WithinBounds(len(buf), valuesOff, valuesSize) {
		return nil, fmt.Errorf("%w: values section out of bounds", ErrColumnCorrupt)
	}

	c := &Float32Column{
		buf:       buf,
		numValues: int(numValues),
		valuesOff: valuesOff,
		nullable:  nullable,
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

func (c *Float32Column) NumValues() int { return c.numValues }

// HasNulls implements the branch-once discipline: non-nullable columns and
// segments without a bitmap report false once, up front, and the gather
// loop never touches the bitmap for them.
func (c *Float32Column) HasNulls() bool { return c.nullable && c.hasBitmap }

func (c *Float32Column) IsValid(row int) bool {
	if !c.HasNulls() {
		return true
	}
	return c.bitmap.IsValid(row)
}

// ValueAt returns the raw float32 at row, regardless of validity; callers
// must consult IsValid separately (this keeps the value read branch-free).
func (c *Float32Column) ValueAt(row int) float32 {
	off := c.valuesOff + uint32(row)*4
	return math.Float32frombits(wireformat.Endian.Uint32(c.buf[off:]))
}
