package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mattneel/zgbc/gb/addr"
)

func TestNR52PowerStatus(t *testing.T) {
	a := NewAPU()
	assert.Equal(t, uint8(0xF0), a.Read(addr.NR52), "powered on, no channels active")

	// Trigger channel 2 with a live DAC.
	a.Write(addr.NR22, 0xF0)
	a.Write(addr.NR24, 0x80)
	assert.Equal(t, uint8(0xF2), a.Read(addr.NR52))
}

func TestPowerOffClearsRegisters(t *testing.T) {
	a := NewAPU()
	a.Write(addr.NR11, 0xBF)
	a.Write(addr.NR50, 0x77)
	a.Write(addr.WaveRAMStart, 0xAB)

	a.Write(addr.NR52, 0x00)

	assert.Equal(t, uint8(0x3F), a.Read(addr.NR11), "register cleared, mask remains")
	assert.Equal(t, uint8(0x00), a.Read(addr.NR50))
	assert.Equal(t, uint8(0x70), a.Read(addr.NR52))
	assert.Equal(t, uint8(0xAB), a.Read(addr.WaveRAMStart), "wave RAM survives power off")
}

func TestWritesIgnoredWhilePoweredOff(t *testing.T) {
	a := NewAPU()
	a.Write(addr.NR52, 0x00)
	a.Write(addr.NR11, 0xFF)
	assert.Equal(t, uint8(0x3F), a.Read(addr.NR11))

	// Wave RAM stays writable.
	a.Write(addr.WaveRAMStart+3, 0x5C)
	assert.Equal(t, uint8(0x5C), a.Read(addr.WaveRAMStart+3))

	a.Write(addr.NR52, 0x80)
	a.Write(addr.NR11, 0x80)
	assert.Equal(t, uint8(0xBF), a.Read(addr.NR11))
}

func TestLengthCounterDisablesChannel(t *testing.T) {
	a := NewAPU()
	a.Write(addr.NR22, 0xF0)
	a.Write(addr.NR21, 0x3C)       // length 4
	a.Write(addr.NR24, 0xC0)       // trigger with length enable
	assert.NotZero(t, a.Read(addr.NR52)&0x02)

	// Four 256Hz length clocks land within one full sequencer loop.
	a.Tick(frameSequencerCycles * 8)
	assert.Zero(t, a.Read(addr.NR52)&0x02, "channel silenced by length expiry")
}

func TestDACDisableSilencesChannel(t *testing.T) {
	a := NewAPU()
	a.Write(addr.NR22, 0xF0)
	a.Write(addr.NR24, 0x80)
	assert.NotZero(t, a.Read(addr.NR52)&0x02)

	a.Write(addr.NR22, 0x00)
	assert.Zero(t, a.Read(addr.NR52)&0x02)
}

func TestSampleCadence(t *testing.T) {
	// 2^20 cycles at 44100Hz over a 2^22 clock is exactly 11025 frames.
	a := NewAPU()
	a.Tick(1 << 20)
	assert.Equal(t, 11025*2, a.SamplesAvailable())

	// The cadence is identical when ticked in uneven chunks.
	b := NewAPU()
	remaining := uint32(1 << 20)
	for chunk := uint32(1); remaining > 0; chunk = chunk%23 + 1 {
		if chunk > remaining {
			chunk = remaining
		}
		b.Tick(chunk)
		remaining -= chunk
	}
	assert.Equal(t, a.SamplesAvailable(), b.SamplesAvailable())
}

func TestRenderingDisabledProducesNoSamples(t *testing.T) {
	a := NewAPU()
	a.SetRendering(false)
	a.Tick(cpuFreq / 10)
	assert.Zero(t, a.SamplesAvailable())

	// Register state is unaffected by the toggle.
	a.Write(addr.NR22, 0xF0)
	a.Write(addr.NR24, 0x80)
	a.Tick(frameSequencerCycles)
	assert.NotZero(t, a.Read(addr.NR52)&0x02)
}

func TestReadSamplesDrains(t *testing.T) {
	a := NewAPU()
	a.Tick(cpuFreq / 100)
	available := a.SamplesAvailable()
	assert.Greater(t, available, 0)

	buf := make([]int16, available+100)
	n := a.ReadSamples(buf)
	assert.Equal(t, available, n)
	assert.Zero(t, a.SamplesAvailable())
}

func TestRingDropsOldestWhenFull(t *testing.T) {
	rb := newSampleRing(3)
	rb.push(1, 1)
	rb.push(2, 2)
	rb.push(3, 3)
	rb.push(4, 4) // evicts frame 1

	dst := make([]int16, 6)
	n := rb.pop(dst)
	assert.Equal(t, 6, n)
	assert.Equal(t, []int16{2, 2, 3, 3, 4, 4}, dst)
}

func TestRingPopKeepsFramesWhole(t *testing.T) {
	rb := newSampleRing(4)
	rb.push(1, 2)
	rb.push(3, 4)

	dst := make([]int16, 3)
	n := rb.pop(dst)
	assert.Equal(t, 2, n, "odd-length destination rounds down to whole frames")
	assert.Equal(t, []int16{1, 2}, dst[:2])
}

func TestSweepOverflowDisablesChannel(t *testing.T) {
	a := NewAPU()
	a.Write(addr.NR12, 0xF0)
	a.Write(addr.NR10, 0x01)       // period 0, shift 1, addition
	a.Write(addr.NR13, 0xFF)
	a.Write(addr.NR14, 0x87)       // trigger at frequency 0x7FF

	// 0x7FF + 0x3FF overflows 2047 at the trigger check.
	assert.Zero(t, a.Read(addr.NR52)&0x01)
}
