package memory

import (
	"log/slog"

	"github.com/mattneel/zgbc/gb/state"
)

// MBCKind identifies the memory bank controller wired into a cartridge.
type MBCKind uint8

const (
	// MBCNone is a plain 32KB ROM with no banking hardware.
	MBCNone MBCKind = iota
	MBC1
	MBC2
	MBC3
	MBC5
)

func (k MBCKind) String() string {
	switch k {
	case MBCNone:
		return "ROM"
	case MBC1:
		return "MBC1"
	case MBC2:
		return "MBC2"
	case MBC3:
		return "MBC3"
	case MBC5:
		return "MBC5"
	}
	return "unknown"
}

const (
	romBankSize = 0x4000
	ramBankSize = 0x2000

	// mbc2RAMSize is the 512 half-byte on-chip RAM of the MBC2.
	mbc2RAMSize = 0x200

	// rtcTickCycles is one RTC second in machine cycles.
	rtcTickCycles = 4194304
)

// rtc register indices as selected through the MBC3 RAM bank register
// (values 0x08-0x0C).
const (
	rtcSeconds = iota
	rtcMinutes
	rtcHours
	rtcDayLow
	rtcDayHigh
)

// MBC models every supported bank controller as a single struct with a kind
// tag. All variants share the same register file; the kind switch in Read and
// Write decides which registers are live. Keeping one concrete type makes the
// mapper state a flat field walk for the save-state codec.
type MBC struct {
	kind MBCKind
	rom  []byte
	ram  []byte

	romBanks int
	ramBanks int

	romBank     uint16
	ramBank     uint8
	ramEnabled  bool
	bankingMode uint8

	// MBC3 real-time clock. The live registers advance one second per
	// rtcTickCycles of emulated time rather than from the host clock, so
	// runs stay reproducible.
	hasRTC      bool
	rtc         [5]uint8
	rtcLatched  [5]uint8
	rtcLatchSeq uint8
	rtcCycles   uint32
}

// NewMBC builds the mapper for a parsed cartridge and allocates its external
// RAM.
func NewMBC(cart *Cartridge) *MBC {
	m := &MBC{
		kind:     cart.mbcKind,
		rom:      cart.data,
		romBanks: cart.romBanks,
		ramBanks: cart.ramBanks,
		romBank:  1,
		hasRTC:   cart.hasRTC,
	}
	switch {
	case m.kind == MBC2:
		m.ram = make([]byte, mbc2RAMSize)
	case cart.ramBanks > 0:
		m.ram = make([]byte, cart.ramBanks*ramBankSize)
	}
	return m
}

// Read services cartridge-space reads (0x0000-0x7FFF and 0xA000-0xBFFF).
func (m *MBC) Read(addr uint16) uint8 {
	if len(m.rom) == 0 {
		// No cartridge inserted, the bus floats high.
		return 0xFF
	}
	switch {
	case addr < 0x4000:
		return m.readROM(uint32(m.fixedBank())*romBankSize + uint32(addr))
	case addr < 0x8000:
		return m.readROM(uint32(m.switchableBank())*romBankSize + uint32(addr-0x4000))
	default:
		return m.readRAM(addr)
	}
}

// Write services cartridge-space writes. Writes into the ROM region program
// the mapper registers.
func (m *MBC) Write(addr uint16, value uint8) {
	switch {
	case addr < 0x8000:
		m.writeRegister(addr, value)
	default:
		m.writeRAM(addr, value)
	}
}

// Tick advances the MBC3 clock by the given number of machine cycles. It is
// a no-op for every other mapper.
func (m *MBC) Tick(cycles uint32) {
	if !m.hasRTC || m.rtc[rtcDayHigh]&0x40 != 0 {
		return
	}
	m.rtcCycles += cycles
	for m.rtcCycles >= rtcTickCycles {
		m.rtcCycles -= rtcTickCycles
		m.rtcTickSecond()
	}
}

// fixedBank returns the ROM bank visible at 0x0000-0x3FFF. Only MBC1 in
// advanced banking mode maps anything other than bank 0 there.
func (m *MBC) fixedBank() uint16 {
	if m.kind == MBC1 && m.bankingMode == 1 {
		return m.maskROMBank(uint16(m.ramBank) << 5)
	}
	return 0
}

// switchableBank returns the ROM bank visible at 0x4000-0x7FFF, masked to
// the banks the image actually has.
func (m *MBC) switchableBank() uint16 {
	bank := m.romBank
	if m.kind == MBC1 {
		bank = (uint16(m.ramBank) << 5) | (m.romBank & 0x1F)
	}
	return m.maskROMBank(bank)
}

// maskROMBank wraps a bank index into the image's bank count. Bank counts
// are powers of two so the modulo is a mask in practice.
func (m *MBC) maskROMBank(bank uint16) uint16 {
	if m.romBanks == 0 {
		return 0
	}
	return bank % uint16(m.romBanks)
}

func (m *MBC) readROM(offset uint32) uint8 {
	if offset >= uint32(len(m.rom)) {
		return 0xFF
	}
	return m.rom[offset]
}

func (m *MBC) writeRegister(addr uint16, value uint8) {
	switch m.kind {
	case MBCNone:
		// No registers to program.
	case MBC1:
		m.writeMBC1(addr, value)
	case MBC2:
		m.writeMBC2(addr, value)
	case MBC3:
		m.writeMBC3(addr, value)
	case MBC5:
		m.writeMBC5(addr, value)
	}
}

func (m *MBC) writeMBC1(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = value&0x0F == 0x0A
	case addr < 0x4000:
		bank := uint16(value & 0x1F)
		if bank == 0 {
			bank = 1
		}
		m.romBank = bank
	case addr < 0x6000:
		m.ramBank = value & 0x03
	default:
		m.bankingMode = value & 0x01
	}
}

func (m *MBC) writeMBC2(addr uint16, value uint8) {
	if addr >= 0x4000 {
		return
	}
	// A single register region: address bit 8 picks between RAM enable
	// and ROM bank select.
	if addr&0x100 == 0 {
		m.ramEnabled = value&0x0F == 0x0A
		return
	}
	bank := uint16(value & 0x0F)
	if bank == 0 {
		bank = 1
	}
	m.romBank = bank
}

func (m *MBC) writeMBC3(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = value&0x0F == 0x0A
	case addr < 0x4000:
		bank := uint16(value & 0x7F)
		if bank == 0 {
			bank = 1
		}
		m.romBank = bank
	case addr < 0x6000:
		// 0x00-0x03 select a RAM bank, 0x08-0x0C select an RTC register.
		m.ramBank = value & 0x0F
	default:
		// Writing 0x00 then 0x01 latches the clock.
		if m.rtcLatchSeq == 0 && value == 0x00 {
			m.rtcLatchSeq = 1
		} else if m.rtcLatchSeq == 1 && value == 0x01 {
			m.rtcLatched = m.rtc
			m.rtcLatchSeq = 0
		} else {
			m.rtcLatchSeq = 0
		}
	}
}

func (m *MBC) writeMBC5(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = value&0x0F == 0x0A
	case addr < 0x3000:
		m.romBank = (m.romBank & 0x100) | uint16(value)
	case addr < 0x4000:
		m.romBank = (m.romBank & 0xFF) | (uint16(value&0x01) << 8)
	case addr < 0x6000:
		m.ramBank = value & 0x0F
	}
}

func (m *MBC) readRAM(addr uint16) uint8 {
	if !m.ramEnabled {
		return 0xFF
	}
	switch m.kind {
	case MBC2:
		// 512 half-bytes, echoed through the whole window. The upper
		// nibble is open bus.
		return 0xF0 | m.ram[addr&(mbc2RAMSize-1)]&0x0F
	case MBC3:
		if m.ramBank >= 0x08 {
			if m.ramBank <= 0x0C {
				return m.rtcLatched[m.ramBank-0x08]
			}
			return 0xFF
		}
	}
	offset := m.ramOffset(addr)
	if offset < 0 {
		return 0xFF
	}
	return m.ram[offset]
}

func (m *MBC) writeRAM(addr uint16, value uint8) {
	if !m.ramEnabled {
		return
	}
	switch m.kind {
	case MBC2:
		m.ram[addr&(mbc2RAMSize-1)] = value & 0x0F
		return
	case MBC3:
		if m.ramBank >= 0x08 {
			if m.ramBank <= 0x0C {
				m.rtc[m.ramBank-0x08] = value
				m.rtcLatched[m.ramBank-0x08] = value
			}
			return
		}
	}
	offset := m.ramOffset(addr)
	if offset < 0 {
		slog.Debug("write to absent cartridge RAM", "addr", addr)
		return
	}
	m.ram[offset] = value
}

// ramOffset maps an 0xA000-0xBFFF address into the external RAM slice, or
// -1 when no RAM backs it.
func (m *MBC) ramOffset(addr uint16) int {
	if len(m.ram) == 0 {
		return -1
	}
	bank := int(m.ramBank)
	if m.kind == MBC1 && m.bankingMode == 0 {
		bank = 0
	}
	bank %= m.ramBanks
	offset := bank*ramBankSize + int(addr-0xA000)
	if offset >= len(m.ram) {
		return -1
	}
	return offset
}

func (m *MBC) rtcTickSecond() {
	m.rtc[rtcSeconds] = (m.rtc[rtcSeconds] + 1) & 0x3F
	if m.rtc[rtcSeconds] != 60 {
		return
	}
	m.rtc[rtcSeconds] = 0
	m.rtc[rtcMinutes] = (m.rtc[rtcMinutes] + 1) & 0x3F
	if m.rtc[rtcMinutes] != 60 {
		return
	}
	m.rtc[rtcMinutes] = 0
	m.rtc[rtcHours] = (m.rtc[rtcHours] + 1) & 0x1F
	if m.rtc[rtcHours] != 24 {
		return
	}
	m.rtc[rtcHours] = 0
	if m.rtc[rtcDayLow] != 0xFF {
		m.rtc[rtcDayLow]++
		return
	}
	m.rtc[rtcDayLow] = 0
	if m.rtc[rtcDayHigh]&0x01 == 0 {
		m.rtc[rtcDayHigh] |= 0x01
	} else {
		// Day counter overflowed past 511, set the carry bit.
		m.rtc[rtcDayHigh] = (m.rtc[rtcDayHigh] &^ 0x01) | 0x80
	}
}

// RAMData exposes the external RAM for battery saves. The caller must not
// hold the slice across a LoadRAMData.
func (m *MBC) RAMData() []byte { return m.ram }

// LoadRAMData restores battery-backed RAM from a previous save. Oversized
// input is truncated, short input fills what it can.
func (m *MBC) LoadRAMData(data []byte) {
	copy(m.ram, data)
}

// Save appends the mapper registers and RTC state. External RAM is excluded:
// it travels through the battery save path instead.
func (m *MBC) Save(w *state.Writer) {
	w.U8(uint8(m.kind))
	w.U16(m.romBank)
	w.U8(m.ramBank)
	w.Bool(m.ramEnabled)
	w.U8(m.bankingMode)
	w.Raw(m.rtc[:])
	w.Raw(m.rtcLatched[:])
	w.U8(m.rtcLatchSeq)
	w.U32(m.rtcCycles)
}

// Load restores the fields written by Save, in the same order.
func (m *MBC) Load(r *state.Reader) {
	m.kind = MBCKind(r.U8())
	m.romBank = r.U16()
	m.ramBank = r.U8()
	m.ramEnabled = r.Bool()
	m.bankingMode = r.U8()
	r.Raw(m.rtc[:])
	r.Raw(m.rtcLatched[:])
	m.rtcLatchSeq = r.U8()
	m.rtcCycles = r.U32()
}
