// Package cpu implements the SM83 interpreter.
package cpu

import (
	"github.com/mattneel/zgbc/gb/addr"
	"github.com/mattneel/zgbc/gb/bit"
	"github.com/mattneel/zgbc/gb/state"
)

// Bus is the CPU's view of the memory map.
type Bus interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// Flag bits in F. The low nibble of F always reads zero.
const (
	flagZ uint8 = 0x80
	flagN uint8 = 0x40
	flagH uint8 = 0x20
	flagC uint8 = 0x10
)

// interruptDispatchCycles is the cost of an interrupt service entry.
const interruptDispatchCycles = 20

// CPU holds the register file and interrupt master state. It executes one
// instruction per Step and reports the cycles spent, leaving the caller to
// clock the rest of the machine.
type CPU struct {
	a, f uint8
	b, c uint8
	d, e uint8
	h, l uint8
	sp   uint16
	pc   uint16

	ime bool
	// imePending delays the effect of EI by one instruction.
	imePending bool
	halted     bool
	stopped    bool
	// haltBug makes the next fetch skip the PC increment.
	haltBug bool

	bus Bus
}

// New returns a CPU in the post-boot-ROM state, ready to execute from
// 0x0100.
func New(bus Bus) *CPU {
	c := &CPU{bus: bus}
	c.Reset()
	return c
}

// Reset restores the post-boot register values.
func (c *CPU) Reset() {
	c.a, c.f = 0x01, 0xB0
	c.b, c.c = 0x00, 0x13
	c.d, c.e = 0x00, 0xD8
	c.h, c.l = 0x01, 0x4D
	c.sp = 0xFFFE
	c.pc = 0x0100
	c.ime = false
	c.imePending = false
	c.halted = false
	c.stopped = false
	c.haltBug = false
}

// Halted reports whether the CPU is waiting for an interrupt.
func (c *CPU) Halted() bool { return c.halted }

// PC returns the program counter, for diagnostics.
func (c *CPU) PC() uint16 { return c.pc }

// Step services a pending interrupt or executes one instruction, and
// returns the machine cycles consumed.
func (c *CPU) Step() uint32 {
	pending := c.pendingInterrupts()
	if pending != 0 {
		// Any enabled pending interrupt ends HALT and STOP, with or
		// without IME.
		c.halted = false
		c.stopped = false
		if c.ime {
			return c.dispatchInterrupt(pending)
		}
	}

	if c.imePending {
		c.imePending = false
		c.ime = true
	}

	if c.halted || c.stopped {
		return 4
	}
	return c.execute(c.fetch8())
}

func (c *CPU) pendingInterrupts() uint8 {
	return c.bus.Read(addr.IE) & c.bus.Read(addr.IF) & 0x1F
}

// dispatchInterrupt services the highest-priority pending interrupt:
// acknowledge its IF bit, push PC and jump to the vector.
func (c *CPU) dispatchInterrupt(pending uint8) uint32 {
	c.ime = false
	c.imePending = false

	var source uint8
	for source = 0; source < 5; source++ {
		if bit.IsSet(source, pending) {
			break
		}
	}
	c.bus.Write(addr.IF, c.bus.Read(addr.IF)&^(1<<source))
	c.push16(c.pc)
	c.pc = 0x0040 + uint16(source)*8
	return interruptDispatchCycles
}

// fetch8 reads the byte at PC. The halt bug leaves PC in place so the next
// fetch sees the same byte again.
func (c *CPU) fetch8() uint8 {
	value := c.bus.Read(c.pc)
	if c.haltBug {
		c.haltBug = false
	} else {
		c.pc++
	}
	return value
}

func (c *CPU) fetch16() uint16 {
	lo := c.fetch8()
	hi := c.fetch8()
	return bit.Combine(hi, lo)
}

func (c *CPU) push16(value uint16) {
	c.sp--
	c.bus.Write(c.sp, bit.High(value))
	c.sp--
	c.bus.Write(c.sp, bit.Low(value))
}

func (c *CPU) pop16() uint16 {
	lo := c.bus.Read(c.sp)
	c.sp++
	hi := c.bus.Read(c.sp)
	c.sp++
	return bit.Combine(hi, lo)
}

// register pair accessors

func (c *CPU) af() uint16 { return bit.Combine(c.a, c.f) }
func (c *CPU) bc() uint16 { return bit.Combine(c.b, c.c) }
func (c *CPU) de() uint16 { return bit.Combine(c.d, c.e) }
func (c *CPU) hl() uint16 { return bit.Combine(c.h, c.l) }

func (c *CPU) setAF(value uint16) {
	c.a = bit.High(value)
	c.f = bit.Low(value) & 0xF0
}

func (c *CPU) setBC(value uint16) {
	c.b = bit.High(value)
	c.c = bit.Low(value)
}

func (c *CPU) setDE(value uint16) {
	c.d = bit.High(value)
	c.e = bit.Low(value)
}

func (c *CPU) setHL(value uint16) {
	c.h = bit.High(value)
	c.l = bit.Low(value)
}

// flag helpers

func (c *CPU) setFlag(flag uint8, on bool) {
	if on {
		c.f |= flag
	} else {
		c.f &^= flag
	}
}

func (c *CPU) hasFlag(flag uint8) bool {
	return c.f&flag != 0
}

// setZNHC writes all four flags at once.
func (c *CPU) setZNHC(z, n, h, carry bool) {
	c.f = 0
	if z {
		c.f |= flagZ
	}
	if n {
		c.f |= flagN
	}
	if h {
		c.f |= flagH
	}
	if carry {
		c.f |= flagC
	}
}

// Save appends the CPU state to a snapshot.
func (c *CPU) Save(w *state.Writer) {
	w.U8(c.a)
	w.U8(c.f)
	w.U8(c.b)
	w.U8(c.c)
	w.U8(c.d)
	w.U8(c.e)
	w.U8(c.h)
	w.U8(c.l)
	w.U16(c.sp)
	w.U16(c.pc)
	w.Bool(c.ime)
	w.Bool(c.imePending)
	w.Bool(c.halted)
	w.Bool(c.stopped)
	w.Bool(c.haltBug)
}

// Load restores the fields written by Save, in the same order.
func (c *CPU) Load(r *state.Reader) {
	c.a = r.U8()
	c.f = r.U8()
	c.b = r.U8()
	c.c = r.U8()
	c.d = r.U8()
	c.e = r.U8()
	c.h = r.U8()
	c.l = r.U8()
	c.sp = r.U16()
	c.pc = r.U16()
	c.ime = r.Bool()
	c.imePending = r.Bool()
	c.halted = r.Bool()
	c.stopped = r.Bool()
	c.haltBug = r.Bool()
}
