// Package wireformat holds the byte-level constants and helpers shared by
// the segment and column codecs: the footer-at-end trailer convention and
// 8-byte alignment padding used at every nesting level of the on-disk
// format.
package wireformat

import (
	"encoding/binary"
	"fmt"
)

// Align is the byte boundary every payload section is padded to.
const Align = 8

// SegmentMagic is the 4-byte magic at the start of every segment file.
const SegmentMagic = "MURR"

// SegmentVersion is the only version this reader accepts. Bumping it is a
// breaking change to the on-disk format.
const SegmentVersion uint32 = 2

// Endian is the byte order used throughout the format. The format is not
// wire-portable; it assumes a 64-bit little-endian host.
var Endian = binary.LittleEndian

// Pad returns n rounded up to the next multiple of Align.
func Pad(n int) int {
	if rem := n % Align; rem != 0 {
		return n + (Align - rem)
	}
	return n
}

// PadBytes returns the number of zero padding bytes needed to align n.
func PadBytes(n int) int {
	return Pad(n) - n
}

// FooterSizeLen is the width in bytes of the trailing footer-size field
// that terminates every footer-at-end section.
const FooterSizeLen = 4

// ReadTrailer reads the little-endian u32 stored in the last FooterSizeLen
// bytes of buf and returns it along with the footer slice it addresses,
// i.e. buf[len(buf)-FooterSizeLen-size : len(buf)-FooterSizeLen].
func ReadTrailer(buf []byte) (footer []byte, size uint32, err error) {
	if len(buf) < FooterSizeLen {
		return nil, 0, fmt.Errorf("wireformat: buffer too short for footer trailer: %d bytes", len(buf))
	}
	size = Endian.Uint32(buf[len(buf)-FooterSizeLen:])
	footerStart := len(buf) - FooterSizeLen - int(size)
	if footerStart < 0 {
		return nil, 0, fmt.Errorf("wireformat: footer size %d exceeds buffer of %d bytes", size, len(buf))
	}
	return buf[footerStart : len(buf)-FooterSizeLen], size, nil
}

// WithinBounds reports whether [offset, offset+size) lies within a slice of
// length n and offset is Align-aligned.
func WithinBounds(n int, offset, size uint32) bool {
	if offset%Align != 0 {
		return false
	}
	end := uint64(offset) + uint64(size)
	return end <= uint64(n)
}

// FooterBuf is a small append-only byte buffer with fixed-width encode
// helpers for the compact binary footers. It exists so every footer in the
// format (segment-level and column-level) is built the same way: no
// variable-length varints, no reflection, fields in declaration order.
type FooterBuf struct {
	b []byte
}

func (f *FooterBuf) PutUint32(v uint32) {
	var tmp [4]byte
	Endian.PutUint32(tmp[:], v)
	f.b = append(f.b, tmp[:]...)
}

func (f *FooterBuf) PutUint16(v uint16) {
	var tmp [2]byte
	Endian.PutUint16(tmp[:], v)
	f.b = append(f.b, tmp[:]...)
}

// PutString writes a u16 byte-length prefix followed by the raw bytes.
// Column and key names are short; a u16 prefix keeps the footer compact.
func (f *FooterBuf) PutString(s string) {
	f.PutUint16(uint16(len(s)))
	f.b = append(f.b, s...)
}

func (f *FooterBuf) Bytes() []byte { return f.b }

// FooterReader reads back values written by FooterBuf, tracking an offset
// into a borrowed slice and failing closed on any out-of-bounds read.
type FooterReader struct {
	buf []byte
	off int
}

func NewFooterReader(buf []byte) *FooterReader {
	return &FooterReader{buf: buf}
}

func (r *FooterReader) Uint32() (uint32, error) {
	if r.off+4 > len(r.buf) {
		return 0, fmt.Errorf("wireformat: footer truncated reading uint32")
	}
	v := Endian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *FooterReader) Uint16() (uint16, error) {
	if r.off+2 > len(r.buf) {
		return 0, fmt.Errorf("wireformat: footer truncated reading uint16")
	}
	v := Endian.Uint16(r.buf[r.off:])
	r.off += 2
	return v, nil
}

func (r *FooterReader) String() (string, error) {
	n, err := r.Uint16()
	if err != nil {
		return "", err
	}
	if r.off+int(n) > len(r.buf) {
		return "", fmt.Errorf("wireformat: footer truncated reading string of length %d", n)
	}
	s := string(r.buf[r.off : r.off+int(n)])
	r.off += int(n)
	return s, nil
}

// Done reports whether the reader has consumed the entire footer.
func (r *FooterReader) Done() bool {
	return r.off >= len(r.buf)
}
