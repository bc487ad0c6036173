package bitfield

func divideBy8RoundUp(i int) int {
	result := i >> 3
	if remainder := i & 0x7; remainder > 0 {
		result++
	}
	return result
}

// ReadBits reads nBits from the provided address in the byte slice and returns
// them as the LSB of a uint64.  The address is the 0-indexed bit position where
// 0 equates to the MSB in the 0th byte, 7 is the LSB in the 0th byte, 8 is the
// MSB bit in the 1st byte, and so on.  nBits must be between 1 and 64.
func ReadBits(bytes []byte, addr int, nBits int) uint64 {
	return ReadField[uint64](bytes, Bits(addr, addr+nBits))
}

// WriteBits writes the nBits least significant bits of value to the provided
// address in the byte slice, replacing whatever was stored there.  Addressing
// is the same as ReadBits.  Bits of value above nBits are discarded.
func WriteBits(bytes []byte, addr int, value uint64, nBits int) {
	WriteField(bytes, Bits(addr, addr+nBits), value&mask[uint64](nBits))
}
