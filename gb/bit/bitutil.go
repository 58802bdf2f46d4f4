package bit

// Combine combines two 8 bit values into a single 16 bit value.
// The high byte is the most significant one.
func Combine(high, low uint8) uint16 {
	return (uint16(high) << 8) | uint16(low)
}

// Low returns the least significant byte of a 16 bit value.
func Low(value uint16) uint8 {
	return uint8(value)
}

// High returns the most significant byte of a 16 bit value.
func High(value uint16) uint8 {
	return uint8(value >> 8)
}

// IsSet reports whether the bit at the given index is 1.
func IsSet(index, b uint8) bool {
	return ((b >> index) & 1) == 1
}

// IsSet16 reports whether the bit at the given index of a 16 bit value is 1.
func IsSet16(index, value uint16) bool {
	return ((value >> index) & 1) == 1
}

// Set returns the byte with the bit at the given index set to 1.
func Set(index, b uint8) uint8 {
	return b | (1 << index)
}

// Reset returns the byte with the bit at the given index set to 0.
func Reset(index, b uint8) uint8 {
	return b &^ (1 << index)
}

// Value returns 1 if the bit at the given index is set, 0 otherwise.
func Value(index, b uint8) uint8 {
	if IsSet(index, b) {
		return 1
	}
	return 0
}
