package bitfield

import (
	"github.com/pkg/errors"
)

const packedVersion = 1

// ErrInsufficientBytes is returned by PackedFromBytes in cases where the
// provided byte slice is truncated.
var ErrInsufficientBytes = errors.New("insufficient bytes to deserialize Packed")

// ErrIncompatible is returned by StrictUnion in cases where the two arrays have
// different settings.
var ErrIncompatible = errors.New("cannot StrictUnion Packed arrays with different width or count settings")

// header field names.
const (
	headerVersion = "version"
	headerWidth   = "width"
	headerCount   = "count"
)

// headerLayout is the serialized header that precedes the packed elements.  The
// width is stored minus one so that 64 fits in 6 bits.  Bits 10 through 15 are
// reserved and always zero.
var headerLayout = MustLayout(6,
	Field{Name: headerVersion, Range: Bits(0, 4)},
	Field{Name: headerWidth, Range: Bits(4, 10)},
	Field{Name: headerCount, Range: Bits(16, 48)},
)

// Packed is a fixed length array of unsigned values that each occupy Width
// bits.  Element i lives at bits [i*Width, (i+1)*Width) of the backing bytes.
// The zero value is an array of zeros, provided that Defaults has been invoked
// with default settings.  Otherwise, operations on the zero value will cause a
// panic as it would be a coding error to attempt operations without first
// configuring the library.
type Packed struct {
	settings *settings

	// bytes is nil until the first write.
	bytes []byte
}

// NewPacked creates a new Packed with the provided settings.  It will return an
// error if the settings are invalid.
func NewPacked(s Settings) (Packed, error) {

	settings, err := s.toInternal()
	if err != nil {
		return Packed{}, err
	}

	return Packed{settings: settings}, nil
}

// PackedFromBytes deserializes the provided byte slice into a Packed.  It will
// return an error if the version is anything other than 1, if the header
// specifies an invalid configuration, or if the byte slice is the wrong length.
func PackedFromBytes(bytes []byte) (Packed, error) {

	if len(bytes) < headerLayout.Size() {
		return Packed{}, ErrInsufficientBytes
	}

	if version := headerLayout.Get(bytes, headerVersion); version != packedVersion {
		return Packed{}, errors.Errorf("unsupported Packed version: %d", version)
	}

	if reserved := ReadField[uint8](bytes, Bits(10, 16)); reserved != 0 {
		return Packed{}, errors.Errorf("reserved header bits are set: %#x", reserved)
	}

	s := Settings{
		Width: int(headerLayout.Get(bytes, headerWidth)) + 1,
		Count: int(headerLayout.Get(bytes, headerCount)),
	}

	// validate and check the length before toInternal so that a rejected
	// header never lands in the settings cache.
	if err := s.validate(); err != nil {
		return Packed{}, errors.Wrap(err, "invalid Packed header")
	}

	body := bytes[headerLayout.Size():]
	if len(body) != s.sizeInBytes() {
		return Packed{}, ErrInsufficientBytes
	}

	settings, err := s.toInternal()
	if err != nil {
		return Packed{}, errors.Wrap(err, "invalid Packed header")
	}

	p := Packed{settings: settings, bytes: make([]byte, len(body))}
	copy(p.bytes, body)

	// the tail of the last byte is padding.  clear it so that equal arrays
	// serialize identically.
	if tail := 8*len(p.bytes) - settings.width*settings.count; tail > 0 {
		WriteField(p.bytes, From(8*len(p.bytes)-tail), uint8(0))
	}

	return p, nil
}

// Settings returns the Settings for this array.
func (p *Packed) Settings() Settings {
	p.initOrPanic()
	return p.settings.toExternal()
}

// Len returns the number of elements.
func (p *Packed) Len() int {
	p.initOrPanic()
	return p.settings.count
}

// Get returns element i.
func (p *Packed) Get(i int) uint64 {

	p.initOrPanic()
	p.checkIndex(i)

	if p.bytes == nil {
		return 0
	}

	return ReadField[uint64](p.bytes, p.elementRange(i))
}

// Set stores value as element i.  It panics if i is out of range or value
// doesn't fit in Width bits.
func (p *Packed) Set(i int, value uint64) {

	p.initOrPanic()
	p.checkIndex(i)

	// bootstrap case...nothing has been written yet.  skip the allocation if
	// there's nothing to record.
	if p.bytes == nil {
		if value == 0 {
			return
		}
		p.bytes = make([]byte, p.settings.sizeInBytes)
	}

	WriteField(p.bytes, p.elementRange(i), value)
}

// SetIfGreater stores value as element i if and only if it's greater than the
// current value.  It returns true if the element changed.
func (p *Packed) SetIfGreater(i int, value uint64) bool {
	if value <= p.Get(i) {
		return false
	}
	p.Set(i, value)
	return true
}

// Union will store the element-wise maximum of this array and the other array
// into the receiver.
//
// Unlike StrictUnion, it allows arrays with different settings to be combined.
// Only the elements both arrays have are considered, and the other's values are
// truncated to this array's width.
func (p *Packed) Union(other Packed) {
	if err := p.union(other, false); err != nil {
		// the only error union can produce is ErrIncompatible in strict mode.
		panic(err)
	}
}

// StrictUnion will store the element-wise maximum of this array and the other
// array into the receiver.  It will return an error if the two arrays do not
// have the same width and count.
func (p *Packed) StrictUnion(other Packed) error {
	return p.union(other, true)
}

func (p *Packed) union(other Packed, strict bool) error {

	p.initOrPanic()
	other.initOrPanic()

	sameSettings := p.settings.width == other.settings.width && p.settings.count == other.settings.count

	if strict && !sameSettings {
		return ErrIncompatible
	}

	// other is empty...there's nothing to do.
	if other.bytes == nil {
		return nil
	}

	if sameSettings && p.bytes == nil {
		p.bytes = make([]byte, len(other.bytes))
		copy(p.bytes, other.bytes)
		return nil
	}

	n := p.settings.count
	if other.settings.count < n {
		n = other.settings.count
	}

	for i := 0; i < n; i++ {
		p.SetIfGreater(i, other.Get(i)&p.settings.valueMask)
	}

	return nil
}

// Bytes returns a copy of the packed elements without a header.
func (p *Packed) Bytes() []byte {
	p.initOrPanic()

	bytes := make([]byte, p.settings.sizeInBytes)
	copy(bytes, p.bytes)
	return bytes
}

// ToBytes returns a byte slice with the serialized array: a 6 byte header
// followed by the packed elements.
func (p *Packed) ToBytes() []byte {

	p.initOrPanic()

	bytes := make([]byte, headerLayout.Size()+p.settings.sizeInBytes)

	headerLayout.Set(bytes, headerVersion, packedVersion)
	headerLayout.Set(bytes, headerWidth, uint64(p.settings.width-1))
	headerLayout.Set(bytes, headerCount, uint64(p.settings.count))

	copy(bytes[headerLayout.Size():], p.bytes)

	return bytes
}

// Clear resets every element to zero.
func (p *Packed) Clear() {

	p.initOrPanic()

	p.bytes = nil
}

// Copy returns a deep copy of this array.
func (p *Packed) Copy() Packed {

	p.initOrPanic()

	o := Packed{settings: p.settings}
	if p.bytes != nil {
		o.bytes = make([]byte, len(p.bytes))
		copy(o.bytes, p.bytes)
	}

	return o
}

// initOrPanic is used to lazily initialize a zero value to an empty array (in
// the presence of default settings) or to panic if there are no default
// settings.
func (p *Packed) initOrPanic() {

	// p is initialized if it has non-nil settings.  that will either happen by
	// lazy initialization or via explicit instantiation with NewPacked.
	if p.settings != nil {
		return
	}

	defaults := getDefaults()
	if defaults == nil {
		panic("attempted operation on empty Packed without default settings")
	}

	p.settings = defaults
}

func (p *Packed) checkIndex(i int) {
	if i < 0 || i >= p.settings.count {
		panic(errors.Wrapf(ErrIndexOutOfBounds, "element %d of %d", i, p.settings.count))
	}
}

func (p *Packed) elementRange(i int) Range {
	addr := i * p.settings.width
	return Bits(addr, addr+p.settings.width)
}
