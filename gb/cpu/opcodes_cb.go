package cpu

// executeCB runs one 0xCB-prefixed instruction. The prefix page is fully
// regular: two bits of operation, three of bit index (or rotate selector)
// and three of operand.
func (c *CPU) executeCB(opcode uint8) uint32 {
	operand := opcode & 7
	index := (opcode >> 3) & 7
	value := c.readOperand(operand)

	switch opcode >> 6 {
	case 0: // rotates and shifts
		switch index {
		case 0:
			value = c.rlc(value)
		case 1:
			value = c.rrc(value)
		case 2:
			value = c.rl(value)
		case 3:
			value = c.rr(value)
		case 4:
			value = c.sla(value)
		case 5:
			value = c.sra(value)
		case 6:
			value = c.swap(value)
		default:
			value = c.srl(value)
		}
		c.writeOperand(operand, value)
	case 1: // BIT
		c.bitTest(index, value)
		if operand == 6 {
			return 12
		}
		return 8
	case 2: // RES
		c.writeOperand(operand, value&^(1<<index))
	default: // SET
		c.writeOperand(operand, value|1<<index)
	}

	if operand == 6 {
		return 16
	}
	return 8
}
