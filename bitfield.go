// Package bitfield reads and writes unsigned integer fields addressed by bit
// range within a byte slice.  Bits are numbered MSB-first and bytes are in
// big-endian order, so bit 0 is the most significant bit of the 0th byte, bit 7
// is the least significant bit of the 0th byte, bit 8 is the most significant
// bit of the 1st byte, and so on.
//
// ReadField and WriteField treat bad input as a programming error rather than
// an operational one.  A range that falls outside the buffer, a field wider
// than the integer type, or a value that doesn't fit in its field will panic
// with an error wrapping ErrIndexOutOfBounds, ErrFieldTooWide or
// ErrValueOutOfRange respectively.  No bytes are modified when WriteField
// panics.
package bitfield

import (
	"math/bits"

	"github.com/pkg/errors"
)

// ErrFieldTooWide is the cause of the panic raised when a bit range is wider
// than the integer type used to hold it.
var ErrFieldTooWide = errors.New("bit field exceeds storage width")

// ErrValueOutOfRange is the cause of the panic raised by WriteField when the
// value doesn't fit in the target bit range.
var ErrValueOutOfRange = errors.New("value exceeds maximum field value")

// ErrIndexOutOfBounds is the cause of the panic raised when a bit range falls
// outside the buffer or is empty.
var ErrIndexOutOfBounds = errors.New("bit range out of bounds")

// Unsigned is the set of integer types that can hold a field value.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// storageWidth returns the number of bits in T.
func storageWidth[T Unsigned]() int {
	return bits.OnesCount64(uint64(^T(0)))
}

// mask returns a T with the low width bits set.  The full width case is
// handled separately because 1<<width would overflow.
func mask[T Unsigned](width int) T {
	maxWidth := storageWidth[T]()
	if width > maxWidth {
		panic(errors.Wrapf(ErrFieldTooWide, "field width %d exceeds storage width %d", width, maxWidth))
	}

	if width == maxWidth {
		return ^T(0)
	}

	return (T(1) << uint(width)) - 1
}

// ReadField returns the field covering bit range r of buf as the least
// significant bits of a T.
//
//	buf := []byte{0x12, 0x34, 0x56, 0x78}
//	bitfield.ReadField[uint8](buf, bitfield.Bits(4, 8))            // 0x2
//	bitfield.ReadField[uint16](buf, bitfield.Bits(12, 24))         // 0x456
//	bitfield.ReadField[uint8](buf, bitfield.BitsInclusive(25, 25)) // 0x1
//
// It panics if r is wider than T or falls outside buf.
func ReadField[T Unsigned](buf []byte, r Range) T {

	start, end := r.resolve(len(buf) * 8)
	fieldMask := mask[T](end - start)

	firstByte := start >> 3 /*divide by 8*/
	lastByte := (end - 1) >> 3
	offset := 7 - (end-1)&0x7 /*unused low bits of the last byte*/

	// build the result from the last byte (LSB) to the first.  bits above the
	// field in the first byte are shifted in too and removed by the mask.
	result := T(buf[lastByte] >> uint(offset))
	for i := 1; i <= lastByte-firstByte; i++ {
		result |= T(buf[lastByte-i]) << uint(8*i-offset)
	}

	return result & fieldMask
}

// WriteField stores value in bit range r of buf.  Bits of buf outside of r are
// left untouched.
//
//	buf := []byte{0x12, 0x34, 0x56, 0x78}
//	bitfield.WriteField(buf, bitfield.Bits(4, 8), uint8(0xA))             // 1A 34 56 78
//	bitfield.WriteField(buf, bitfield.BitsInclusive(20, 27), uint8(0xBC)) // 1A 34 5B C8
//
// It panics if r falls outside buf or value is too large for r.  In both cases
// buf is not modified.
func WriteField[T Unsigned](buf []byte, r Range, value T) {

	start, end := r.resolve(len(buf) * 8)

	maxValue := mask[T](end - start)
	if value > maxValue {
		panic(errors.Wrapf(ErrValueOutOfRange, "value %#X exceeds maximum field value %#X", uint64(value), uint64(maxValue)))
	}

	firstByte := start >> 3 /*divide by 8*/
	lastByte := (end - 1) >> 3

	// write in one-byte chunks, from the last (LSB) to the first.  end moves
	// down by however many bits were placed so the offset always refers to the
	// byte being written.
	for i := lastByte; i >= firstByte; i-- {

		bitOffset := 7 - (end-1)&0x7

		bitsToWrite := 8 - bitOffset
		if bitsToWrite > end-start {
			bitsToWrite = end - start
		}

		byteMask := mask[uint8](bitsToWrite) << uint(bitOffset)
		newBits := uint8(value) /*low 8 bits*/
		buf[i] = (buf[i] &^ byteMask) | ((newBits << uint(bitOffset)) & byteMask)

		end -= bitsToWrite

		// NOTE : shifting by the full width of T yields zero in go, which is
		//        exactly what the final iteration needs.
		value >>= uint(bitsToWrite)
	}
}
