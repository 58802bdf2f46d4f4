// Package memory implements the bus: work RAM, high RAM, the cartridge and
// its bank controller, the timer, the joypad, the serial port and the
// interrupt registers, with everything else routed to the PPU and APU.
package memory

import (
	"log/slog"

	"github.com/mattneel/zgbc/gb/addr"
	"github.com/mattneel/zgbc/gb/audio"
	"github.com/mattneel/zgbc/gb/state"
	"github.com/mattneel/zgbc/gb/video"
)

// WRAMSize is the amount of work RAM on the DMG.
const WRAMSize = 0x2000

const hramSize = 0x7F

// serialTransferCycles is how long a serial transfer driven by the internal
// clock takes: 8 bits at 8192Hz.
const serialTransferCycles = 4096

// memRegion classifies a 256-byte page of the address space.
type memRegion uint8

const (
	regionROM memRegion = iota
	regionVRAM
	regionCartRAM
	regionWRAM
	regionEcho
	regionOAM
	regionIO
)

// regionMap resolves the high address byte to a region in one lookup.
var regionMap [256]memRegion

func init() {
	for page := 0; page < 256; page++ {
		switch {
		case page < 0x80:
			regionMap[page] = regionROM
		case page < 0xA0:
			regionMap[page] = regionVRAM
		case page < 0xC0:
			regionMap[page] = regionCartRAM
		case page < 0xE0:
			regionMap[page] = regionWRAM
		case page < 0xFE:
			regionMap[page] = regionEcho
		case page == 0xFE:
			regionMap[page] = regionOAM
		default:
			regionMap[page] = regionIO
		}
	}
}

// MMU wires every component onto the address bus and owns the interrupt
// flag registers.
type MMU struct {
	cart   *Cartridge
	mbc    *MBC
	timer  *Timer
	joypad *Joypad
	ppu    *video.PPU
	apu    *audio.APU

	wram [WRAMSize]byte
	hram [hramSize]byte

	interruptFlag   uint8
	interruptEnable uint8

	// serial port: transfers complete after a fixed delay, the remote end
	// always answers 0xFF.
	serialData    uint8
	serialControl uint8
	serialCounter int32

	dmaRegister uint8
}

// NewMMU builds the bus and every component hanging off it. The cartridge
// slot starts empty.
func NewMMU() *MMU {
	m := &MMU{}
	m.cart = NewCartridge()
	m.mbc = NewMBC(m.cart)
	m.timer = NewTimer(m.RequestInterrupt)
	m.joypad = NewJoypad(m.RequestInterrupt)
	m.ppu = video.NewPPU(m.RequestInterrupt)
	m.apu = audio.NewAPU()
	return m
}

// LoadCartridge inserts a parsed cartridge and resets its mapper.
func (m *MMU) LoadCartridge(cart *Cartridge) {
	m.cart = cart
	m.mbc = NewMBC(cart)
}

// Cartridge returns the currently inserted cartridge.
func (m *MMU) Cartridge() *Cartridge { return m.cart }

// MBC returns the active bank controller.
func (m *MMU) MBC() *MBC { return m.mbc }

// Timer returns the timer unit.
func (m *MMU) Timer() *Timer { return m.timer }

// Joypad returns the joypad unit.
func (m *MMU) Joypad() *Joypad { return m.joypad }

// PPU returns the pixel processing unit.
func (m *MMU) PPU() *video.PPU { return m.ppu }

// APU returns the audio processing unit.
func (m *MMU) APU() *audio.APU { return m.apu }

// WRAM exposes work RAM for direct host inspection.
func (m *MMU) WRAM() []byte { return m.wram[:] }

// RequestInterrupt sets the IF bit for the given source.
func (m *MMU) RequestInterrupt(interrupt addr.Interrupt) {
	m.interruptFlag |= 1 << interrupt
}

// Tick advances every clocked component by the given machine cycles.
func (m *MMU) Tick(cycles uint32) {
	m.timer.Tick(cycles)
	m.ppu.Tick(cycles)
	m.apu.Tick(cycles)
	m.mbc.Tick(cycles)
	m.tickSerial(cycles)
}

func (m *MMU) tickSerial(cycles uint32) {
	if m.serialCounter <= 0 {
		return
	}
	m.serialCounter -= int32(cycles)
	if m.serialCounter <= 0 {
		// Nothing on the other end of the link cable, shift in ones.
		m.serialData = 0xFF
		m.serialControl &^= 0x80
		m.RequestInterrupt(addr.SerialInterrupt)
	}
}

// Read returns the byte at the given address, honoring PPU access gating.
func (m *MMU) Read(address uint16) uint8 {
	switch regionMap[address>>8] {
	case regionROM, regionCartRAM:
		return m.mbc.Read(address)
	case regionVRAM:
		return m.ppu.ReadVRAM(address)
	case regionWRAM:
		return m.wram[address-0xC000]
	case regionEcho:
		return m.wram[address-0xE000]
	case regionOAM:
		if address <= addr.OAMEnd {
			return m.ppu.ReadOAM(address)
		}
		// 0xFEA0-0xFEFF is unusable.
		return 0xFF
	default:
		return m.readIO(address)
	}
}

// Write stores the byte at the given address.
func (m *MMU) Write(address uint16, value uint8) {
	switch regionMap[address>>8] {
	case regionROM, regionCartRAM:
		m.mbc.Write(address, value)
	case regionVRAM:
		m.ppu.WriteVRAM(address, value)
	case regionWRAM:
		m.wram[address-0xC000] = value
	case regionEcho:
		m.wram[address-0xE000] = value
	case regionOAM:
		if address <= addr.OAMEnd {
			m.ppu.WriteOAM(address, value)
		}
	default:
		m.writeIO(address, value)
	}
}

func (m *MMU) readIO(address uint16) uint8 {
	switch {
	case address >= addr.HRAMStart && address < addr.IE:
		return m.hram[address-addr.HRAMStart]
	case address == addr.IE:
		return m.interruptEnable
	case address == addr.IF:
		return 0xE0 | m.interruptFlag
	case address == addr.P1:
		return m.joypad.Read()
	case address == addr.SB:
		return m.serialData
	case address == addr.SC:
		return 0x7E | m.serialControl
	case address >= addr.DIV && address <= addr.TAC:
		return m.timer.Read(address)
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		return m.apu.Read(address)
	case address == addr.DMA:
		return m.dmaRegister
	case address >= addr.LCDC && address <= addr.WX:
		return m.ppu.ReadRegister(address)
	default:
		return 0xFF
	}
}

func (m *MMU) writeIO(address uint16, value uint8) {
	switch {
	case address >= addr.HRAMStart && address < addr.IE:
		m.hram[address-addr.HRAMStart] = value
	case address == addr.IE:
		m.interruptEnable = value
	case address == addr.IF:
		m.interruptFlag = value & 0x1F
	case address == addr.P1:
		m.joypad.Write(value)
	case address == addr.SB:
		m.serialData = value
	case address == addr.SC:
		m.serialControl = value & 0x81
		if value&0x81 == 0x81 {
			m.serialCounter = serialTransferCycles
		}
	case address >= addr.DIV && address <= addr.TAC:
		m.timer.Write(address, value)
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		m.apu.Write(address, value)
	case address == addr.DMA:
		m.startDMA(value)
	case address >= addr.LCDC && address <= addr.WX:
		m.ppu.WriteRegister(address, value)
	default:
		slog.Debug("write to unmapped I/O register", "addr", address, "value", value)
	}
}

// startDMA copies a 160-byte page into OAM. The transfer is modeled as
// instantaneous; games spin in HRAM for its duration either way.
func (m *MMU) startDMA(page uint8) {
	m.dmaRegister = page
	source := uint16(page) << 8
	for i := uint16(0); i < 0xA0; i++ {
		m.ppu.WriteOAMDirect(addr.OAMStart+i, m.Read(source+i))
	}
}

// Save appends the bus state and every owned component to a snapshot. The
// cartridge ROM and external RAM are excluded.
func (m *MMU) Save(w *state.Writer) {
	w.Raw(m.wram[:])
	w.Raw(m.hram[:])
	w.U8(m.interruptFlag)
	w.U8(m.interruptEnable)
	w.U8(m.serialData)
	w.U8(m.serialControl)
	w.U32(uint32(m.serialCounter))
	w.U8(m.dmaRegister)
	m.mbc.Save(w)
	m.timer.Save(w)
	m.joypad.Save(w)
	m.ppu.Save(w)
	m.apu.Save(w)
}

// Load restores the fields written by Save, in the same order.
func (m *MMU) Load(r *state.Reader) {
	r.Raw(m.wram[:])
	r.Raw(m.hram[:])
	m.interruptFlag = r.U8()
	m.interruptEnable = r.U8()
	m.serialData = r.U8()
	m.serialControl = r.U8()
	m.serialCounter = int32(r.U32())
	m.dmaRegister = r.U8()
	m.mbc.Load(r)
	m.timer.Load(r)
	m.joypad.Load(r)
	m.ppu.Load(r)
	m.apu.Load(r)
}
