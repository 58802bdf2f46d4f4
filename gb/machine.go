// Package gb wires the CPU, bus, PPU and APU into a complete machine and
// exposes the embedding API: load a ROM, run frames, read the screen and
// audio, snapshot and restore.
package gb

import (
	"errors"
	"fmt"

	"github.com/mattneel/zgbc/gb/audio"
	"github.com/mattneel/zgbc/gb/cpu"
	"github.com/mattneel/zgbc/gb/memory"
	"github.com/mattneel/zgbc/gb/state"
	"github.com/mattneel/zgbc/gb/video"
)

// FrameCycles is the length of one video frame in machine cycles:
// 154 scanlines of 456 dots.
const FrameCycles = 70224

// Screen dimensions, re-exported for hosts.
const (
	FrameWidth  = video.FrameWidth
	FrameHeight = video.FrameHeight
)

// SampleRate is the audio output rate in Hz.
const SampleRate = audio.SampleRate

// stateVersion guards save-state blobs against layout changes.
const stateVersion uint32 = 1

// ErrBadState is returned when a save-state blob cannot be restored.
var ErrBadState = errors.New("gb: invalid save state")

// Button bits accepted by SetButtons.
const (
	ButtonA      = memory.ButtonA
	ButtonB      = memory.ButtonB
	ButtonSelect = memory.ButtonSelect
	ButtonStart  = memory.ButtonStart
	ButtonRight  = memory.ButtonRight
	ButtonLeft   = memory.ButtonLeft
	ButtonUp     = memory.ButtonUp
	ButtonDown   = memory.ButtonDown
)

// Machine is one emulated console. It is not safe for concurrent use; the
// embedding host drives it from a single goroutine.
type Machine struct {
	cpu *cpu.CPU
	mmu *memory.MMU

	cycles uint64
	rgba   []uint32

	stateSize int
}

// New returns a machine with no cartridge inserted.
func New() *Machine {
	m := &Machine{rgba: make([]uint32, video.FrameSize)}
	m.mmu = memory.NewMMU()
	m.cpu = cpu.New(m.mmu)
	return m
}

// LoadROM parses and inserts a cartridge image, then resets the machine.
func (m *Machine) LoadROM(data []byte) error {
	cart, err := memory.NewCartridgeWithData(data)
	if err != nil {
		return fmt.Errorf("load ROM: %w", err)
	}
	m.mmu.LoadCartridge(cart)
	m.reset(false)
	return nil
}

// Reset restarts the machine as if powered off and on. The cartridge and
// its battery-backed RAM survive.
func (m *Machine) Reset() {
	m.reset(true)
}

func (m *Machine) reset(keepRAM bool) {
	var saved []byte
	if keepRAM {
		if ram := m.mmu.MBC().RAMData(); len(ram) > 0 {
			saved = make([]byte, len(ram))
			copy(saved, ram)
		}
	}
	cart := m.mmu.Cartridge()

	m.mmu = memory.NewMMU()
	m.mmu.LoadCartridge(cart)
	if saved != nil {
		m.mmu.MBC().LoadRAMData(saved)
	}
	m.cpu = cpu.New(m.mmu)
	m.cycles = 0
}

// Step executes one instruction (or services one interrupt), clocks the
// rest of the machine, and returns the cycles consumed.
func (m *Machine) Step() uint32 {
	cycles := m.cpu.Step()
	m.mmu.Tick(cycles)
	m.cycles += uint64(cycles)
	return cycles
}

// RunFrame steps the machine for one frame's worth of cycles. The last
// instruction may overshoot slightly; the overshoot counts against the
// next frame, so long runs stay exactly on the hardware frame rate.
func (m *Machine) RunFrame() {
	target := (m.cycles/FrameCycles + 1) * FrameCycles
	for m.cycles < target {
		m.Step()
	}
}

// RunFrames runs n consecutive frames.
func (m *Machine) RunFrames(n int) {
	for i := 0; i < n; i++ {
		m.RunFrame()
	}
}

// Cycles returns the total machine cycles executed since the last reset.
func (m *Machine) Cycles() uint64 { return m.cycles }

// IsHalted reports whether the CPU is stopped waiting for an interrupt.
func (m *Machine) IsHalted() bool { return m.cpu.Halted() }

// SetButtons replaces the pressed-button mask with the given combination
// of Button bits.
func (m *Machine) SetButtons(mask uint8) {
	m.mmu.Joypad().SetButtons(mask)
}

// SetRenderGraphics toggles framebuffer updates. Emulation timing is
// unaffected.
func (m *Machine) SetRenderGraphics(enabled bool) {
	m.mmu.PPU().SetRendering(enabled)
}

// SetRenderAudio toggles audio sample production. Emulation timing is
// unaffected.
func (m *Machine) SetRenderAudio(enabled bool) {
	m.mmu.APU().SetRendering(enabled)
}

// Framebuffer returns the last completed frame, one shade byte (0-3) per
// pixel in row-major order. The slice is valid until the next frame
// completes.
func (m *Machine) Framebuffer() []byte {
	return m.mmu.PPU().Framebuffer()
}

// FrameRGBA returns the last completed frame as 32-bit ARGB pixels. The
// slice is reused across calls.
func (m *Machine) FrameRGBA() []uint32 {
	m.mmu.PPU().FrameRGBA(m.rgba)
	return m.rgba
}

// LY returns the current scanline.
func (m *Machine) LY() uint8 {
	return m.mmu.PPU().CurrentLine()
}

// ReadAudioSamples drains up to len(dst) interleaved stereo samples into
// dst and returns how many were written.
func (m *Machine) ReadAudioSamples(dst []int16) int {
	return m.mmu.APU().ReadSamples(dst)
}

// Read returns the byte at the given bus address, exactly as the CPU
// would see it.
func (m *Machine) Read(address uint16) uint8 {
	return m.mmu.Read(address)
}

// Write stores a byte at the given bus address.
func (m *Machine) Write(address uint16, value uint8) {
	m.mmu.Write(address, value)
}

// WRAM exposes work RAM directly, for hosts that scan game memory.
func (m *Machine) WRAM() []byte {
	return m.mmu.WRAM()
}

// CopyMemory fills dst with consecutive bus reads starting at start,
// wrapping at the top of the address space.
func (m *Machine) CopyMemory(dst []byte, start uint16) {
	for i := range dst {
		dst[i] = m.mmu.Read(start + uint16(i))
	}
}

// Title returns the game title from the cartridge header.
func (m *Machine) Title() string {
	return m.mmu.Cartridge().Title()
}

// SaveData returns the battery-backed cartridge RAM, or nil when the
// cartridge has none. The slice aliases live memory; copy it before
// persisting.
func (m *Machine) SaveData() []byte {
	if !m.mmu.Cartridge().HasBattery() {
		return nil
	}
	return m.mmu.MBC().RAMData()
}

// LoadSaveData restores battery-backed cartridge RAM from a previous
// SaveData.
func (m *Machine) LoadSaveData(data []byte) {
	m.mmu.MBC().LoadRAMData(data)
}

// SaveStateSize returns the fixed size of a save-state blob for this
// machine. Every blob a machine produces has exactly this size.
func (m *Machine) SaveStateSize() int {
	if m.stateSize == 0 {
		m.stateSize = len(m.SaveState())
	}
	return m.stateSize
}

// SaveState serializes the complete machine state, excluding the ROM image
// and battery RAM, into a fresh blob.
func (m *Machine) SaveState() []byte {
	w := state.NewWriter()
	w.U32(stateVersion)
	w.U64(m.cycles)
	m.cpu.Save(w)
	m.mmu.Save(w)
	return w.Bytes()
}

// LoadState restores a blob produced by SaveState. The machine is left
// untouched when the blob is rejected.
func (m *Machine) LoadState(data []byte) error {
	if len(data) != m.SaveStateSize() {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrBadState, len(data), m.SaveStateSize())
	}
	r := state.NewReader(data)
	if v := r.U32(); v != stateVersion {
		return fmt.Errorf("%w: version %d", ErrBadState, v)
	}
	m.cycles = r.U64()
	m.cpu.Load(r)
	m.mmu.Load(r)
	return r.Err()
}
