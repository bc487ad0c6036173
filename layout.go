package bitfield

import (
	"sort"

	"github.com/pkg/errors"
)

// maximumFieldWidth is the widest field a Layout can hold since values are
// exchanged as uint64.
const maximumFieldWidth = 64

// ErrUnknownField is the cause of the panic raised when a Layout is asked for a
// field it doesn't define.
var ErrUnknownField = errors.New("unknown field")

// Field names a bit range within a fixed size record.
type Field struct {
	Name  string
	Range Range
}

// span is the resolved [start, end) interval of a field.
type span struct {
	start, end int
}

// Layout describes a fixed size record made of named, non-overlapping bit
// fields.  It is safe for concurrent use once constructed; the buffers passed
// to it are not guarded.
type Layout struct {
	size   int
	fields []Field
	spans  map[string]span
}

// NewLayout creates a Layout for records of size bytes.  It will return an
// error if a field is unnamed or named twice, falls outside of the record, is
// wider than 64 bits, or overlaps another field.
func NewLayout(size int, fields ...Field) (*Layout, error) {

	if size < 1 {
		return nil, errors.Errorf("layout size is too small.  Requires at least 1 byte but got %d", size)
	}

	l := &Layout{
		size:   size,
		fields: make([]Field, len(fields)),
		spans:  make(map[string]span, len(fields)),
	}
	copy(l.fields, fields)

	sorted := make([]span, 0, len(fields))
	names := make(map[span]string, len(fields))

	for _, f := range fields {
		if f.Name == "" {
			return nil, errors.Errorf("field with range %v has no name", f.Range)
		}

		if _, ok := l.spans[f.Name]; ok {
			return nil, errors.Errorf("field %q is defined more than once", f.Name)
		}

		start, end, ok := f.Range.bounds(size * 8)
		if !ok {
			return nil, errors.Errorf("field %q range %v does not fit in a %d byte layout", f.Name, f.Range, size)
		}

		if end-start > maximumFieldWidth {
			return nil, errors.Errorf("field %q is too wide.  Allows at most %d bits but got %d", f.Name, maximumFieldWidth, end-start)
		}

		s := span{start: start, end: end}
		if other, ok := names[s]; ok {
			return nil, errors.Errorf("field %q overlaps field %q", f.Name, other)
		}

		l.spans[f.Name] = s
		names[s] = f.Name
		sorted = append(sorted, s)
	}

	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start < sorted[j].start })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].start < sorted[i-1].end {
			return nil, errors.Errorf("field %q overlaps field %q", names[sorted[i]], names[sorted[i-1]])
		}
	}

	return l, nil
}

// MustLayout is like NewLayout but panics if the layout is invalid.  It is
// intended for layouts declared at package scope.
func MustLayout(size int, fields ...Field) *Layout {
	l, err := NewLayout(size, fields...)
	if err != nil {
		panic(err)
	}
	return l
}

// Size returns the number of bytes in a record.
func (l *Layout) Size() int {
	return l.size
}

// Fields returns the fields in the order they were declared.
func (l *Layout) Fields() []Field {
	fields := make([]Field, len(l.fields))
	copy(fields, l.fields)
	return fields
}

// Width returns the number of bits in the named field.
func (l *Layout) Width(name string) int {
	s := l.lookup(name)
	return s.end - s.start
}

// Get reads the named field from buf.  It panics if the field is unknown or buf
// is shorter than the layout.
func (l *Layout) Get(buf []byte, name string) uint64 {
	s := l.lookup(name)
	l.checkBuffer(buf)
	return ReadField[uint64](buf, Bits(s.start, s.end))
}

// Set writes value into the named field of buf.  It panics if the field is
// unknown, buf is shorter than the layout, or value doesn't fit in the field.
func (l *Layout) Set(buf []byte, name string, value uint64) {
	s := l.lookup(name)
	l.checkBuffer(buf)
	WriteField(buf, Bits(s.start, s.end), value)
}

func (l *Layout) lookup(name string) span {
	s, ok := l.spans[name]
	if !ok {
		panic(errors.Wrapf(ErrUnknownField, "field %q", name))
	}
	return s
}

func (l *Layout) checkBuffer(buf []byte) {
	if len(buf) < l.size {
		panic(errors.Wrapf(ErrIndexOutOfBounds, "buffer of %d bytes is shorter than the %d byte layout", len(buf), l.size))
	}
}
