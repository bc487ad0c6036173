package bitfield

import (
	"fmt"

	"github.com/pkg/errors"
)

type boundKind int

const (
	unbounded boundKind = iota
	included
	excluded
)

// Bound is one side of a Range.  The zero value is unbounded.
type Bound struct {
	kind boundKind
	idx  int
}

// Included returns a bound that includes bit i.
func Included(i int) Bound { return Bound{kind: included, idx: i} }

// Excluded returns a bound that stops just short of bit i.
func Excluded(i int) Bound { return Bound{kind: excluded, idx: i} }

// Unbounded returns a bound that extends to the edge of the buffer.
func Unbounded() Bound { return Bound{} }

// Range is a span of bit indices.  Bit 0 is the MSB of byte 0, bit 7 is the
// LSB of byte 0, bit 8 is the MSB of byte 1, and so on.  The zero value covers
// the whole buffer.
type Range struct {
	Start, End Bound
}

// Bits returns the half-open range [start, end).
func Bits(start, end int) Range {
	return Range{Start: Included(start), End: Excluded(end)}
}

// BitsInclusive returns the closed range [start, end].
func BitsInclusive(start, end int) Range {
	return Range{Start: Included(start), End: Included(end)}
}

// From returns the range that starts at bit start and runs to the end of the
// buffer.
func From(start int) Range {
	return Range{Start: Included(start)}
}

// To returns the range that starts at bit 0 and stops just short of bit end.
func To(end int) Range {
	return Range{End: Excluded(end)}
}

// ToInclusive returns the range that starts at bit 0 and includes bit end.
func ToInclusive(end int) Range {
	return Range{End: Included(end)}
}

// All returns the range covering every bit of the buffer.
func All() Range {
	return Range{}
}

// String renders r in the form it was written, e.g. "4..8", "17..=17" or "..".
func (r Range) String() string {
	var start, end string

	switch r.Start.kind {
	case included:
		start = fmt.Sprint(r.Start.idx)
	case excluded:
		// there is no literal syntax for an exclusive start.  print the first
		// bit that's actually covered.
		start = fmt.Sprint(r.Start.idx + 1)
	}

	switch r.End.kind {
	case included:
		end = fmt.Sprintf("=%d", r.End.idx)
	case excluded:
		end = fmt.Sprint(r.End.idx)
	}

	return start + ".." + end
}

// resolve translates r into the concrete half-open interval [start, end) for a
// buffer of bufBits bits.  Nothing is clamped: any range that lands outside the
// buffer or covers no bits is a contract violation and panics.
func (r Range) resolve(bufBits int) (int, int) {
	start, end, ok := r.bounds(bufBits)
	if !ok {
		panic(errors.Wrapf(ErrIndexOutOfBounds, "bit range %v resolves to [%d, %d) in a %d bit buffer", r, start, end, bufBits))
	}
	return start, end
}

// bounds does the work of resolve.  ok is false when [start, end) is empty or
// not contained in [0, bufBits).
func (r Range) bounds(bufBits int) (start, end int, ok bool) {

	switch r.Start.kind {
	case included:
		start = r.Start.idx
	case excluded:
		start = r.Start.idx + 1
	}

	end = bufBits
	switch r.End.kind {
	case included:
		end = r.End.idx + 1
	case excluded:
		end = r.End.idx
	}

	return start, end, start >= 0 && end <= bufBits && start < end
}
