package cpu

// 8-bit arithmetic. Each helper folds its result into A (or returns it) and
// sets ZNHC the way the hardware does, half-carry out of bit 3 and carry
// out of bit 7.

func (c *CPU) add8(value uint8) {
	result := uint16(c.a) + uint16(value)
	halfCarry := (c.a&0x0F)+(value&0x0F) > 0x0F
	c.a = uint8(result)
	c.setZNHC(c.a == 0, false, halfCarry, result > 0xFF)
}

func (c *CPU) adc8(value uint8) {
	var carry uint16
	if c.hasFlag(flagC) {
		carry = 1
	}
	result := uint16(c.a) + uint16(value) + carry
	halfCarry := uint16(c.a&0x0F)+uint16(value&0x0F)+carry > 0x0F
	c.a = uint8(result)
	c.setZNHC(c.a == 0, false, halfCarry, result > 0xFF)
}

func (c *CPU) sub8(value uint8) {
	result := c.a - value
	halfCarry := c.a&0x0F < value&0x0F
	carry := c.a < value
	c.a = result
	c.setZNHC(result == 0, true, halfCarry, carry)
}

func (c *CPU) sbc8(value uint8) {
	var carry uint8
	if c.hasFlag(flagC) {
		carry = 1
	}
	result := int16(c.a) - int16(value) - int16(carry)
	halfCarry := int16(c.a&0x0F)-int16(value&0x0F)-int16(carry) < 0
	c.a = uint8(result)
	c.setZNHC(c.a == 0, true, halfCarry, result < 0)
}

func (c *CPU) and8(value uint8) {
	c.a &= value
	c.setZNHC(c.a == 0, false, true, false)
}

func (c *CPU) xor8(value uint8) {
	c.a ^= value
	c.setZNHC(c.a == 0, false, false, false)
}

func (c *CPU) or8(value uint8) {
	c.a |= value
	c.setZNHC(c.a == 0, false, false, false)
}

// cp8 is SUB without storing the result.
func (c *CPU) cp8(value uint8) {
	result := c.a - value
	c.setZNHC(result == 0, true, c.a&0x0F < value&0x0F, c.a < value)
}

// inc8 and dec8 preserve the carry flag.

func (c *CPU) inc8(value uint8) uint8 {
	result := value + 1
	c.setFlag(flagZ, result == 0)
	c.setFlag(flagN, false)
	c.setFlag(flagH, value&0x0F == 0x0F)
	return result
}

func (c *CPU) dec8(value uint8) uint8 {
	result := value - 1
	c.setFlag(flagZ, result == 0)
	c.setFlag(flagN, true)
	c.setFlag(flagH, value&0x0F == 0)
	return result
}

// addHL adds a 16-bit value into HL. Z is preserved, half-carry is out of
// bit 11.
func (c *CPU) addHL(value uint16) {
	hl := c.hl()
	result := uint32(hl) + uint32(value)
	c.setFlag(flagN, false)
	c.setFlag(flagH, (hl&0x0FFF)+(value&0x0FFF) > 0x0FFF)
	c.setFlag(flagC, result > 0xFFFF)
	c.setHL(uint16(result))
}

// addSP computes SP plus a signed immediate, shared by ADD SP,e and
// LD HL,SP+e. Flags come from the unsigned low-byte addition.
func (c *CPU) addSP(offset uint8) uint16 {
	result := c.sp + uint16(int8(offset))
	halfCarry := (c.sp&0x0F)+(uint16(offset)&0x0F) > 0x0F
	carry := (c.sp&0xFF)+(uint16(offset)&0xFF) > 0xFF
	c.setZNHC(false, false, halfCarry, carry)
	return result
}

// daa adjusts A to binary-coded decimal after an addition or subtraction.
func (c *CPU) daa() {
	a := c.a
	if c.hasFlag(flagN) {
		if c.hasFlag(flagH) {
			a -= 0x06
		}
		if c.hasFlag(flagC) {
			a -= 0x60
		}
	} else {
		if c.hasFlag(flagH) || a&0x0F > 0x09 {
			a += 0x06
		}
		if c.hasFlag(flagC) || c.a > 0x99 {
			a += 0x60
			c.setFlag(flagC, true)
		}
	}
	c.a = a
	c.setFlag(flagZ, a == 0)
	c.setFlag(flagH, false)
}

// Rotates and shifts, shared between the one-byte A forms and the CB
// prefix. The A forms clear Z afterwards.

func (c *CPU) rlc(value uint8) uint8 {
	carry := value >> 7
	result := value<<1 | carry
	c.setZNHC(result == 0, false, false, carry == 1)
	return result
}

func (c *CPU) rrc(value uint8) uint8 {
	carry := value & 1
	result := value>>1 | carry<<7
	c.setZNHC(result == 0, false, false, carry == 1)
	return result
}

func (c *CPU) rl(value uint8) uint8 {
	var carryIn uint8
	if c.hasFlag(flagC) {
		carryIn = 1
	}
	result := value<<1 | carryIn
	c.setZNHC(result == 0, false, false, value&0x80 != 0)
	return result
}

func (c *CPU) rr(value uint8) uint8 {
	var carryIn uint8
	if c.hasFlag(flagC) {
		carryIn = 0x80
	}
	result := value>>1 | carryIn
	c.setZNHC(result == 0, false, false, value&1 != 0)
	return result
}

func (c *CPU) sla(value uint8) uint8 {
	result := value << 1
	c.setZNHC(result == 0, false, false, value&0x80 != 0)
	return result
}

func (c *CPU) sra(value uint8) uint8 {
	result := value>>1 | value&0x80
	c.setZNHC(result == 0, false, false, value&1 != 0)
	return result
}

func (c *CPU) srl(value uint8) uint8 {
	result := value >> 1
	c.setZNHC(result == 0, false, false, value&1 != 0)
	return result
}

func (c *CPU) swap(value uint8) uint8 {
	result := value<<4 | value>>4
	c.setZNHC(result == 0, false, false, false)
	return result
}

// bitTest sets Z from the tested bit, leaving carry alone.
func (c *CPU) bitTest(index, value uint8) {
	c.setFlag(flagZ, value&(1<<index) == 0)
	c.setFlag(flagN, false)
	c.setFlag(flagH, true)
}
