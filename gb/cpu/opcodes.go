package cpu

// readOperand resolves the three-bit register encoding used across the
// instruction set: B C D E H L (HL) A.
func (c *CPU) readOperand(index uint8) uint8 {
	switch index {
	case 0:
		return c.b
	case 1:
		return c.c
	case 2:
		return c.d
	case 3:
		return c.e
	case 4:
		return c.h
	case 5:
		return c.l
	case 6:
		return c.bus.Read(c.hl())
	default:
		return c.a
	}
}

func (c *CPU) writeOperand(index uint8, value uint8) {
	switch index {
	case 0:
		c.b = value
	case 1:
		c.c = value
	case 2:
		c.d = value
	case 3:
		c.e = value
	case 4:
		c.h = value
	case 5:
		c.l = value
	case 6:
		c.bus.Write(c.hl(), value)
	default:
		c.a = value
	}
}

// execute runs one instruction and returns the machine cycles it took.
// The two regular quadrants (LD r,r' and the ALU block) decode from the
// opcode bit fields; everything else is an explicit case. Undefined
// opcodes execute as NOPs.
func (c *CPU) execute(opcode uint8) uint32 {
	switch {
	case opcode == 0x76:
		return c.opHALT()
	case opcode >= 0x40 && opcode < 0x80:
		dst := (opcode >> 3) & 7
		src := opcode & 7
		c.writeOperand(dst, c.readOperand(src))
		if dst == 6 || src == 6 {
			return 8
		}
		return 4
	case opcode >= 0x80 && opcode < 0xC0:
		src := opcode & 7
		c.aluOp((opcode>>3)&7, c.readOperand(src))
		if src == 6 {
			return 8
		}
		return 4
	}

	switch opcode {
	case 0x00: // NOP
		return 4
	case 0x01: // LD BC,d16
		c.setBC(c.fetch16())
		return 12
	case 0x02: // LD (BC),A
		c.bus.Write(c.bc(), c.a)
		return 8
	case 0x03: // INC BC
		c.setBC(c.bc() + 1)
		return 8
	case 0x04: // INC B
		c.b = c.inc8(c.b)
		return 4
	case 0x05: // DEC B
		c.b = c.dec8(c.b)
		return 4
	case 0x06: // LD B,d8
		c.b = c.fetch8()
		return 8
	case 0x07: // RLCA
		c.a = c.rlc(c.a)
		c.setFlag(flagZ, false)
		return 4
	case 0x08: // LD (a16),SP
		address := c.fetch16()
		c.bus.Write(address, uint8(c.sp))
		c.bus.Write(address+1, uint8(c.sp>>8))
		return 20
	case 0x09: // ADD HL,BC
		c.addHL(c.bc())
		return 8
	case 0x0A: // LD A,(BC)
		c.a = c.bus.Read(c.bc())
		return 8
	case 0x0B: // DEC BC
		c.setBC(c.bc() - 1)
		return 8
	case 0x0C: // INC C
		c.c = c.inc8(c.c)
		return 4
	case 0x0D: // DEC C
		c.c = c.dec8(c.c)
		return 4
	case 0x0E: // LD C,d8
		c.c = c.fetch8()
		return 8
	case 0x0F: // RRCA
		c.a = c.rrc(c.a)
		c.setFlag(flagZ, false)
		return 4

	case 0x10: // STOP
		c.fetch8()
		c.stopped = true
		return 4
	case 0x11: // LD DE,d16
		c.setDE(c.fetch16())
		return 12
	case 0x12: // LD (DE),A
		c.bus.Write(c.de(), c.a)
		return 8
	case 0x13: // INC DE
		c.setDE(c.de() + 1)
		return 8
	case 0x14: // INC D
		c.d = c.inc8(c.d)
		return 4
	case 0x15: // DEC D
		c.d = c.dec8(c.d)
		return 4
	case 0x16: // LD D,d8
		c.d = c.fetch8()
		return 8
	case 0x17: // RLA
		c.a = c.rl(c.a)
		c.setFlag(flagZ, false)
		return 4
	case 0x18: // JR r8
		return c.opJR(true)
	case 0x19: // ADD HL,DE
		c.addHL(c.de())
		return 8
	case 0x1A: // LD A,(DE)
		c.a = c.bus.Read(c.de())
		return 8
	case 0x1B: // DEC DE
		c.setDE(c.de() - 1)
		return 8
	case 0x1C: // INC E
		c.e = c.inc8(c.e)
		return 4
	case 0x1D: // DEC E
		c.e = c.dec8(c.e)
		return 4
	case 0x1E: // LD E,d8
		c.e = c.fetch8()
		return 8
	case 0x1F: // RRA
		c.a = c.rr(c.a)
		c.setFlag(flagZ, false)
		return 4

	case 0x20: // JR NZ,r8
		return c.opJR(!c.hasFlag(flagZ))
	case 0x21: // LD HL,d16
		c.setHL(c.fetch16())
		return 12
	case 0x22: // LD (HL+),A
		c.bus.Write(c.hl(), c.a)
		c.setHL(c.hl() + 1)
		return 8
	case 0x23: // INC HL
		c.setHL(c.hl() + 1)
		return 8
	case 0x24: // INC H
		c.h = c.inc8(c.h)
		return 4
	case 0x25: // DEC H
		c.h = c.dec8(c.h)
		return 4
	case 0x26: // LD H,d8
		c.h = c.fetch8()
		return 8
	case 0x27: // DAA
		c.daa()
		return 4
	case 0x28: // JR Z,r8
		return c.opJR(c.hasFlag(flagZ))
	case 0x29: // ADD HL,HL
		c.addHL(c.hl())
		return 8
	case 0x2A: // LD A,(HL+)
		c.a = c.bus.Read(c.hl())
		c.setHL(c.hl() + 1)
		return 8
	case 0x2B: // DEC HL
		c.setHL(c.hl() - 1)
		return 8
	case 0x2C: // INC L
		c.l = c.inc8(c.l)
		return 4
	case 0x2D: // DEC L
		c.l = c.dec8(c.l)
		return 4
	case 0x2E: // LD L,d8
		c.l = c.fetch8()
		return 8
	case 0x2F: // CPL
		c.a = ^c.a
		c.setFlag(flagN, true)
		c.setFlag(flagH, true)
		return 4

	case 0x30: // JR NC,r8
		return c.opJR(!c.hasFlag(flagC))
	case 0x31: // LD SP,d16
		c.sp = c.fetch16()
		return 12
	case 0x32: // LD (HL-),A
		c.bus.Write(c.hl(), c.a)
		c.setHL(c.hl() - 1)
		return 8
	case 0x33: // INC SP
		c.sp++
		return 8
	case 0x34: // INC (HL)
		c.bus.Write(c.hl(), c.inc8(c.bus.Read(c.hl())))
		return 12
	case 0x35: // DEC (HL)
		c.bus.Write(c.hl(), c.dec8(c.bus.Read(c.hl())))
		return 12
	case 0x36: // LD (HL),d8
		c.bus.Write(c.hl(), c.fetch8())
		return 12
	case 0x37: // SCF
		c.setFlag(flagN, false)
		c.setFlag(flagH, false)
		c.setFlag(flagC, true)
		return 4
	case 0x38: // JR C,r8
		return c.opJR(c.hasFlag(flagC))
	case 0x39: // ADD HL,SP
		c.addHL(c.sp)
		return 8
	case 0x3A: // LD A,(HL-)
		c.a = c.bus.Read(c.hl())
		c.setHL(c.hl() - 1)
		return 8
	case 0x3B: // DEC SP
		c.sp--
		return 8
	case 0x3C: // INC A
		c.a = c.inc8(c.a)
		return 4
	case 0x3D: // DEC A
		c.a = c.dec8(c.a)
		return 4
	case 0x3E: // LD A,d8
		c.a = c.fetch8()
		return 8
	case 0x3F: // CCF
		c.setFlag(flagN, false)
		c.setFlag(flagH, false)
		c.setFlag(flagC, !c.hasFlag(flagC))
		return 4

	case 0xC0: // RET NZ
		return c.opRETIf(!c.hasFlag(flagZ))
	case 0xC1: // POP BC
		c.setBC(c.pop16())
		return 12
	case 0xC2: // JP NZ,a16
		return c.opJP(!c.hasFlag(flagZ))
	case 0xC3: // JP a16
		return c.opJP(true)
	case 0xC4: // CALL NZ,a16
		return c.opCALL(!c.hasFlag(flagZ))
	case 0xC5: // PUSH BC
		c.push16(c.bc())
		return 16
	case 0xC6: // ADD A,d8
		c.add8(c.fetch8())
		return 8
	case 0xC7: // RST 00H
		return c.opRST(0x00)
	case 0xC8: // RET Z
		return c.opRETIf(c.hasFlag(flagZ))
	case 0xC9: // RET
		c.pc = c.pop16()
		return 16
	case 0xCA: // JP Z,a16
		return c.opJP(c.hasFlag(flagZ))
	case 0xCB:
		return c.executeCB(c.fetch8())
	case 0xCC: // CALL Z,a16
		return c.opCALL(c.hasFlag(flagZ))
	case 0xCD: // CALL a16
		return c.opCALL(true)
	case 0xCE: // ADC A,d8
		c.adc8(c.fetch8())
		return 8
	case 0xCF: // RST 08H
		return c.opRST(0x08)

	case 0xD0: // RET NC
		return c.opRETIf(!c.hasFlag(flagC))
	case 0xD1: // POP DE
		c.setDE(c.pop16())
		return 12
	case 0xD2: // JP NC,a16
		return c.opJP(!c.hasFlag(flagC))
	case 0xD4: // CALL NC,a16
		return c.opCALL(!c.hasFlag(flagC))
	case 0xD5: // PUSH DE
		c.push16(c.de())
		return 16
	case 0xD6: // SUB d8
		c.sub8(c.fetch8())
		return 8
	case 0xD7: // RST 10H
		return c.opRST(0x10)
	case 0xD8: // RET C
		return c.opRETIf(c.hasFlag(flagC))
	case 0xD9: // RETI
		c.pc = c.pop16()
		c.ime = true
		return 16
	case 0xDA: // JP C,a16
		return c.opJP(c.hasFlag(flagC))
	case 0xDC: // CALL C,a16
		return c.opCALL(c.hasFlag(flagC))
	case 0xDE: // SBC A,d8
		c.sbc8(c.fetch8())
		return 8
	case 0xDF: // RST 18H
		return c.opRST(0x18)

	case 0xE0: // LDH (a8),A
		c.bus.Write(0xFF00+uint16(c.fetch8()), c.a)
		return 12
	case 0xE1: // POP HL
		c.setHL(c.pop16())
		return 12
	case 0xE2: // LD (C),A
		c.bus.Write(0xFF00+uint16(c.c), c.a)
		return 8
	case 0xE5: // PUSH HL
		c.push16(c.hl())
		return 16
	case 0xE6: // AND d8
		c.and8(c.fetch8())
		return 8
	case 0xE7: // RST 20H
		return c.opRST(0x20)
	case 0xE8: // ADD SP,r8
		c.sp = c.addSP(c.fetch8())
		return 16
	case 0xE9: // JP HL
		c.pc = c.hl()
		return 4
	case 0xEA: // LD (a16),A
		c.bus.Write(c.fetch16(), c.a)
		return 16
	case 0xEE: // XOR d8
		c.xor8(c.fetch8())
		return 8
	case 0xEF: // RST 28H
		return c.opRST(0x28)

	case 0xF0: // LDH A,(a8)
		c.a = c.bus.Read(0xFF00 + uint16(c.fetch8()))
		return 12
	case 0xF1: // POP AF
		c.setAF(c.pop16())
		return 12
	case 0xF2: // LD A,(C)
		c.a = c.bus.Read(0xFF00 + uint16(c.c))
		return 8
	case 0xF3: // DI
		c.ime = false
		c.imePending = false
		return 4
	case 0xF5: // PUSH AF
		c.push16(c.af())
		return 16
	case 0xF6: // OR d8
		c.or8(c.fetch8())
		return 8
	case 0xF7: // RST 30H
		return c.opRST(0x30)
	case 0xF8: // LD HL,SP+r8
		c.setHL(c.addSP(c.fetch8()))
		return 12
	case 0xF9: // LD SP,HL
		c.sp = c.hl()
		return 8
	case 0xFA: // LD A,(a16)
		c.a = c.bus.Read(c.fetch16())
		return 16
	case 0xFB: // EI
		c.imePending = true
		return 4
	case 0xFE: // CP d8
		c.cp8(c.fetch8())
		return 8
	case 0xFF: // RST 38H
		return c.opRST(0x38)
	}

	// 0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB-0xED, 0xF4, 0xFC, 0xFD
	return 4
}

// aluOp dispatches the 0x80-0xBF quadrant: ADD ADC SUB SBC AND XOR OR CP.
func (c *CPU) aluOp(op, value uint8) {
	switch op {
	case 0:
		c.add8(value)
	case 1:
		c.adc8(value)
	case 2:
		c.sub8(value)
	case 3:
		c.sbc8(value)
	case 4:
		c.and8(value)
	case 5:
		c.xor8(value)
	case 6:
		c.or8(value)
	default:
		c.cp8(value)
	}
}

func (c *CPU) opHALT() uint32 {
	if !c.ime && c.pendingInterrupts() != 0 {
		// The halt bug: HALT falls through and the next byte is
		// executed twice.
		c.haltBug = true
	} else {
		c.halted = true
	}
	return 4
}

func (c *CPU) opJR(condition bool) uint32 {
	offset := int8(c.fetch8())
	if !condition {
		return 8
	}
	c.pc += uint16(offset)
	return 12
}

func (c *CPU) opJP(condition bool) uint32 {
	target := c.fetch16()
	if !condition {
		return 12
	}
	c.pc = target
	return 16
}

func (c *CPU) opCALL(condition bool) uint32 {
	target := c.fetch16()
	if !condition {
		return 12
	}
	c.push16(c.pc)
	c.pc = target
	return 24
}

func (c *CPU) opRETIf(condition bool) uint32 {
	if !condition {
		return 8
	}
	c.pc = c.pop16()
	return 20
}

func (c *CPU) opRST(vector uint16) uint32 {
	c.push16(c.pc)
	c.pc = vector
	return 16
}
