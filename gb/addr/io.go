// Package addr collects the memory-mapped register addresses and the
// interrupt source identifiers used across the emulator core.
package addr

// joypad
const (
	// P1 selects and reads the joypad button matrix.
	P1 uint16 = 0xFF00
)

// serial I/O
const (
	// SB holds the serial transfer data byte.
	SB uint16 = 0xFF01
	// SC is the serial transfer control register.
	SC uint16 = 0xFF02
)

// timers
const (
	// DIV is the free-running divider. Writing any value resets it.
	DIV uint16 = 0xFF04
	// TIMA is the timer counter. Requests an interrupt on overflow.
	TIMA uint16 = 0xFF05
	// TMA is the timer modulo, loaded into TIMA on overflow.
	TMA uint16 = 0xFF06
	// TAC is the timer control (enable + input clock select).
	TAC uint16 = 0xFF07
)

// PPU registers
const (
	// LCDC is the LCD control register.
	LCDC uint16 = 0xFF40
	// STAT is the LCD status register.
	STAT uint16 = 0xFF41
	// SCY is the background scroll Y register.
	SCY uint16 = 0xFF42
	// SCX is the background scroll X register.
	SCX uint16 = 0xFF43
	// LY is the current scanline (read-only).
	LY uint16 = 0xFF44
	// LYC is the LY compare register.
	LYC uint16 = 0xFF45
	// DMA starts an OAM DMA transfer from the written page.
	DMA uint16 = 0xFF46
	// BGP is the background palette.
	BGP uint16 = 0xFF47
	// OBP0 is object palette 0.
	OBP0 uint16 = 0xFF48
	// OBP1 is object palette 1.
	OBP1 uint16 = 0xFF49
	// WY is the window Y position.
	WY uint16 = 0xFF4A
	// WX is the window X position (offset by 7).
	WX uint16 = 0xFF4B
)

// APU registers
const (
	AudioStart uint16 = 0xFF10
	AudioEnd   uint16 = 0xFF3F

	NR10 uint16 = 0xFF10 // channel 1 sweep
	NR11 uint16 = 0xFF11 // channel 1 length & duty
	NR12 uint16 = 0xFF12 // channel 1 volume envelope
	NR13 uint16 = 0xFF13 // channel 1 period low
	NR14 uint16 = 0xFF14 // channel 1 period high & control

	NR21 uint16 = 0xFF16 // channel 2 length & duty
	NR22 uint16 = 0xFF17 // channel 2 volume envelope
	NR23 uint16 = 0xFF18 // channel 2 period low
	NR24 uint16 = 0xFF19 // channel 2 period high & control

	NR30 uint16 = 0xFF1A // channel 3 DAC enable
	NR31 uint16 = 0xFF1B // channel 3 length
	NR32 uint16 = 0xFF1C // channel 3 output level
	NR33 uint16 = 0xFF1D // channel 3 period low
	NR34 uint16 = 0xFF1E // channel 3 period high & control

	NR41 uint16 = 0xFF20 // channel 4 length
	NR42 uint16 = 0xFF21 // channel 4 volume envelope
	NR43 uint16 = 0xFF22 // channel 4 frequency & randomness
	NR44 uint16 = 0xFF23 // channel 4 control

	NR50 uint16 = 0xFF24 // master volume & VIN panning
	NR51 uint16 = 0xFF25 // sound panning
	NR52 uint16 = 0xFF26 // power and channel status

	WaveRAMStart uint16 = 0xFF30
	WaveRAMEnd   uint16 = 0xFF3F
)

// memory map regions
const (
	// VRAMStart is the start of video RAM.
	VRAMStart uint16 = 0x8000
	// OAMStart is the start of object attribute memory (40 sprites, 4 bytes each).
	OAMStart uint16 = 0xFE00
	// OAMEnd is the last OAM byte.
	OAMEnd uint16 = 0xFE9F
	// HRAMStart is the start of high RAM.
	HRAMStart uint16 = 0xFF80

	// TileData0 is the unsigned tile data region (tiles 0-255).
	TileData0 uint16 = 0x8000
	// TileData1 is the base for signed tile addressing.
	TileData1 uint16 = 0x9000
	// TileMap0 is background/window tile map 0.
	TileMap0 uint16 = 0x9800
	// TileMap1 is background/window tile map 1.
	TileMap1 uint16 = 0x9C00
)

// interrupts
const (
	// IF is the interrupt flag register.
	IF uint16 = 0xFF0F
	// IE is the interrupt enable register.
	IE uint16 = 0xFFFF
)

// Interrupt identifies one of the five interrupt sources by its bit
// position in IE/IF. Lower bits have higher dispatch priority.
type Interrupt uint8

const (
	// VBlankInterrupt fires when the PPU enters vertical blank (LY=144).
	VBlankInterrupt Interrupt = iota
	// STATInterrupt fires on enabled STAT conditions (mode change, LY=LYC).
	STATInterrupt
	// TimerInterrupt fires when TIMA overflows.
	TimerInterrupt
	// SerialInterrupt fires when a serial transfer completes.
	SerialInterrupt
	// JoypadInterrupt fires on a high-to-low transition of a selected input line.
	JoypadInterrupt
)
