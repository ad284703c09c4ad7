package plist17

import (
	"math"

	"github.com/cockroachdb/errors"
)

const maxIntWidth = 8

func splitTag(tag byte) (selector, inline uint8) {
	return tag & 0xF0, tag & 0x0F
}

// readUintLE interprets up to 8 bytes as an unsigned little-endian integer.
func readUintLE(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// readIntLE interprets up to 8 bytes as a signed little-endian integer,
// sign-extending from the most significant byte present.
func readIntLE(b []byte) int64 {
	if len(b) == 0 {
		return 0
	}
	v := readUintLE(b)
	if shift := uint(64 - 8*len(b)); shift > 0 {
		return int64(v<<shift) >> shift
	}
	return int64(v)
}

func putUintLE(v uint64, width int) []byte {
	b := make([]byte, width)
	for i := range b {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

// intWidth is the smallest byte width that holds v with room for the sign
// bit. Zero needs no payload; negative values always use the full 8 bytes.
func intWidth(v int64) int {
	switch {
	case v < 0:
		return maxIntWidth
	case v == 0:
		return 0
	}
	w := 1
	for w < maxIntWidth && uint64(v) >= uint64(1)<<(8*uint(w)-1) {
		w++
	}
	return w
}

// uintWidth is the smallest non-zero byte width holding v unsigned. Addresses
// in back-references use it.
func uintWidth(v uint64) int {
	w := 1
	for w < maxIntWidth && v >= uint64(1)<<(8*uint(w)) {
		w++
	}
	return w
}

func appendInt(dst []byte, v int64) []byte {
	w := intWidth(v)
	dst = append(dst, bpTagInteger|uint8(w))
	return append(dst, putUintLE(uint64(v), w)...)
}

// appendSized writes a tag whose inline field carries size, spilling sizes
// of 15 and above into a nested integer token.
func appendSized(dst []byte, selector uint8, size int) []byte {
	if size < int(bpSizeSpill) {
		return append(dst, selector|uint8(size))
	}
	w := intWidth(int64(size))
	dst = append(dst, selector|bpSizeSpill, bpTagInteger|uint8(w))
	return append(dst, putUintLE(uint64(size), w)...)
}

// readDynamicSize resolves the size of a blob, string or reference whose
// tag has already been consumed.
func readDynamicSize(c *byteCursor, tag byte) (int64, error) {
	_, inline := splitTag(tag)
	if inline != bpSizeSpill {
		return int64(inline), nil
	}
	next, err := c.ReadByte()
	if err != nil {
		return 0, err
	}
	selector, width := splitTag(next)
	if selector != bpTagInteger || width == 0 || width > maxIntWidth {
		return 0, errors.Wrapf(ErrMalformedStream, "size token %#02x after tag %#02x at %d is not an integer", next, tag, c.Tell()-1)
	}
	b, err := c.Read(int64(width))
	if err != nil {
		return 0, err
	}
	size := readUintLE(b)
	if size > math.MaxInt64 {
		return 0, errors.Wrapf(ErrMalformedStream, "size %d after tag %#02x overflows", size, tag)
	}
	return int64(size), nil
}
