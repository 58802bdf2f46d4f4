// Package audio implements the four-channel sound unit and downsamples its
// output to a host-rate stereo stream.
package audio

import (
	"github.com/mattneel/zgbc/gb/addr"
	"github.com/mattneel/zgbc/gb/bit"
	"github.com/mattneel/zgbc/gb/state"
)

// SampleRate is the host-facing output rate in Hz.
const SampleRate = 44100

// cpuFreq is the machine clock in Hz.
const cpuFreq = 4194304

// frameSequencerCycles is one 512Hz frame sequencer step.
const frameSequencerCycles = cpuFreq / 512

// ringFrames is the capacity of the output buffer, about 370ms of audio.
const ringFrames = 16384

// readMask is ORed into register reads; write-only and unused bits read as
// ones. Indexed by address minus 0xFF10.
var readMask = [0x17]uint8{
	0x80, 0x3F, 0x00, 0xFF, 0xBF, // NR10-NR14
	0xFF, 0x3F, 0x00, 0xFF, 0xBF, // NR20-NR24
	0x7F, 0xFF, 0x9F, 0xFF, 0xBF, // NR30-NR34
	0xFF, 0xFF, 0x00, 0x00, 0xBF, // NR40-NR44
	0x00, 0x00, 0x70, // NR50-NR52
}

// APU drives the two square channels, the wave channel and the noise
// channel from the machine clock. The whole unit is clocked from the
// emulation thread; sample output goes through an internal ring the host
// drains at its leisure.
type APU struct {
	ch1 chSquare
	ch2 chSquare
	ch3 chWave
	ch4 chNoise

	power bool
	// regs mirrors 0xFF10-0xFF26 for register readback.
	regs [0x17]uint8

	frameStep    uint8
	frameCounter uint32

	// sampleCounter is a fixed-point accumulator producing one sample per
	// cpuFreq/SampleRate cycles without drift.
	sampleCounter uint64

	ring   *sampleRing
	render bool
}

// NewAPU returns a powered-on APU with rendering enabled.
func NewAPU() *APU {
	a := &APU{
		power:  true,
		ring:   newSampleRing(ringFrames),
		render: true,
	}
	a.ch1.hasSweep = true
	return a
}

// SetRendering toggles sample production. Register and timer behavior are
// unaffected, only the output ring stops filling.
func (a *APU) SetRendering(enabled bool) {
	a.render = enabled
	if !enabled {
		a.ring.reset()
	}
}

// ReadSamples drains up to len(dst) interleaved stereo samples and returns
// how many were written.
func (a *APU) ReadSamples(dst []int16) int {
	return a.ring.pop(dst)
}

// SamplesAvailable returns the number of buffered output samples.
func (a *APU) SamplesAvailable() int {
	return a.ring.available()
}

// Tick advances the APU by the given number of machine cycles.
func (a *APU) Tick(cycles uint32) {
	if a.power {
		c := int32(cycles)
		a.ch1.tick(c)
		a.ch2.tick(c)
		a.ch3.tick(c)
		a.ch4.tick(c)

		a.frameCounter += cycles
		for a.frameCounter >= frameSequencerCycles {
			a.frameCounter -= frameSequencerCycles
			a.clockFrameSequencer()
		}
	}

	a.sampleCounter += uint64(cycles) * SampleRate
	for a.sampleCounter >= cpuFreq {
		a.sampleCounter -= cpuFreq
		if a.render {
			left, right := a.mix()
			a.ring.push(left, right)
		}
	}
}

// clockFrameSequencer runs one 512Hz step: lengths at 256Hz, sweep at
// 128Hz, envelopes at 64Hz.
func (a *APU) clockFrameSequencer() {
	step := a.frameStep
	a.frameStep = (a.frameStep + 1) & 7

	if step&1 == 0 {
		a.ch1.clockLength()
		a.ch2.clockLength()
		a.ch3.clockLength()
		a.ch4.clockLength()
	}
	if step == 2 || step == 6 {
		a.ch1.clockSweep()
	}
	if step == 7 {
		a.ch1.env.clock()
		a.ch2.env.clock()
		a.ch4.env.clock()
	}
}

// mix folds the four channel outputs through NR51 panning and NR50 master
// volume into one stereo frame.
func (a *APU) mix() (int16, int16) {
	if !a.power {
		return 0, 0
	}
	levels := [4]int32{
		dacLevel(a.ch1.output(), a.ch1.dacEnabled),
		dacLevel(a.ch2.output(), a.ch2.dacEnabled),
		dacLevel(a.ch3.output(), a.ch3.dacEnabled),
		dacLevel(a.ch4.output(), a.ch4.dacEnabled),
	}

	panning := a.regs[addr.NR51-addr.AudioStart]
	var left, right int32
	for ch := uint8(0); ch < 4; ch++ {
		if bit.IsSet(ch+4, panning) {
			left += levels[ch]
		}
		if bit.IsSet(ch, panning) {
			right += levels[ch]
		}
	}

	master := a.regs[addr.NR50-addr.AudioStart]
	left *= int32((master>>4)&0x07) + 1
	right *= int32(master&0x07) + 1
	return int16(left * 32), int16(right * 32)
}

// dacLevel centers a 0-15 channel output around zero. A disabled DAC sits
// at the midpoint.
func dacLevel(out uint8, dacEnabled bool) int32 {
	if !dacEnabled {
		return 0
	}
	return int32(out)*2 - 15
}

// Read returns a register in 0xFF10-0xFF3F with its read mask applied.
func (a *APU) Read(address uint16) uint8 {
	if address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd {
		return a.ch3.waveRAM[address-addr.WaveRAMStart]
	}
	if address == addr.NR52 {
		value := uint8(0x70)
		if a.power {
			value |= 0x80
		}
		if a.ch1.enabled {
			value |= 0x01
		}
		if a.ch2.enabled {
			value |= 0x02
		}
		if a.ch3.enabled {
			value |= 0x04
		}
		if a.ch4.enabled {
			value |= 0x08
		}
		return value
	}
	index := address - addr.AudioStart
	if int(index) >= len(a.regs) {
		return 0xFF
	}
	return a.regs[index] | readMask[index]
}

// Write stores to a register in 0xFF10-0xFF3F. With the APU powered off
// only NR52 and wave RAM are writable.
func (a *APU) Write(address uint16, value uint8) {
	if address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd {
		a.ch3.waveRAM[address-addr.WaveRAMStart] = value
		return
	}
	if address == addr.NR52 {
		a.writePower(value)
		return
	}
	if !a.power {
		return
	}
	index := address - addr.AudioStart
	if int(index) >= len(a.regs) {
		return
	}
	a.regs[index] = value

	switch address {
	case addr.NR10:
		a.ch1.sweepPeriod = (value >> 4) & 0x07
		a.ch1.sweepNegate = bit.IsSet(3, value)
		a.ch1.sweepShift = value & 0x07
	case addr.NR11:
		a.ch1.duty = value >> 6
		a.ch1.length = 64 - uint16(value&0x3F)
	case addr.NR12:
		writeEnvelope(&a.ch1.env, value)
		a.ch1.dacEnabled = value&0xF8 != 0
		if !a.ch1.dacEnabled {
			a.ch1.enabled = false
		}
	case addr.NR13:
		a.ch1.freq = (a.ch1.freq & 0x0700) | uint16(value)
	case addr.NR14:
		a.ch1.freq = (a.ch1.freq & 0x00FF) | (uint16(value&0x07) << 8)
		a.ch1.lengthEnable = bit.IsSet(6, value)
		if bit.IsSet(7, value) {
			a.ch1.trigger()
		}
	case addr.NR21:
		a.ch2.duty = value >> 6
		a.ch2.length = 64 - uint16(value&0x3F)
	case addr.NR22:
		writeEnvelope(&a.ch2.env, value)
		a.ch2.dacEnabled = value&0xF8 != 0
		if !a.ch2.dacEnabled {
			a.ch2.enabled = false
		}
	case addr.NR23:
		a.ch2.freq = (a.ch2.freq & 0x0700) | uint16(value)
	case addr.NR24:
		a.ch2.freq = (a.ch2.freq & 0x00FF) | (uint16(value&0x07) << 8)
		a.ch2.lengthEnable = bit.IsSet(6, value)
		if bit.IsSet(7, value) {
			a.ch2.trigger()
		}
	case addr.NR30:
		a.ch3.dacEnabled = bit.IsSet(7, value)
		if !a.ch3.dacEnabled {
			a.ch3.enabled = false
		}
	case addr.NR31:
		a.ch3.length = 256 - uint16(value)
	case addr.NR32:
		a.ch3.volumeCode = (value >> 5) & 0x03
	case addr.NR33:
		a.ch3.freq = (a.ch3.freq & 0x0700) | uint16(value)
	case addr.NR34:
		a.ch3.freq = (a.ch3.freq & 0x00FF) | (uint16(value&0x07) << 8)
		a.ch3.lengthEnable = bit.IsSet(6, value)
		if bit.IsSet(7, value) {
			a.ch3.trigger()
		}
	case addr.NR41:
		a.ch4.length = 64 - uint16(value&0x3F)
	case addr.NR42:
		writeEnvelope(&a.ch4.env, value)
		a.ch4.dacEnabled = value&0xF8 != 0
		if !a.ch4.dacEnabled {
			a.ch4.enabled = false
		}
	case addr.NR43:
		a.ch4.shift = value >> 4
		a.ch4.width7 = bit.IsSet(3, value)
		a.ch4.divisor = value & 0x07
	case addr.NR44:
		a.ch4.lengthEnable = bit.IsSet(6, value)
		if bit.IsSet(7, value) {
			a.ch4.trigger()
		}
	}
}

func writeEnvelope(e *envelope, value uint8) {
	e.initial = value >> 4
	e.increase = bit.IsSet(3, value)
	e.period = value & 0x07
}

// writePower handles NR52. Powering off clears every register and silences
// all channels; wave RAM survives.
func (a *APU) writePower(value uint8) {
	on := bit.IsSet(7, value)
	if a.power && !on {
		waveRAM := a.ch3.waveRAM
		a.ch1 = chSquare{hasSweep: true}
		a.ch2 = chSquare{}
		a.ch3 = chWave{waveRAM: waveRAM}
		a.ch4 = chNoise{}
		a.regs = [0x17]uint8{}
		a.frameStep = 0
		a.frameCounter = 0
	}
	a.power = on
}

// Save appends the APU state to a snapshot. The output ring is host-facing
// and excluded.
func (a *APU) Save(w *state.Writer) {
	w.Bool(a.power)
	w.Raw(a.regs[:])
	w.U8(a.frameStep)
	w.U32(a.frameCounter)
	w.U64(a.sampleCounter)
	a.ch1.save(w)
	a.ch2.save(w)
	a.ch3.save(w)
	a.ch4.save(w)
}

// Load restores the fields written by Save, in the same order.
func (a *APU) Load(r *state.Reader) {
	a.power = r.Bool()
	r.Raw(a.regs[:])
	a.frameStep = r.U8()
	a.frameCounter = r.U32()
	a.sampleCounter = r.U64()
	a.ch1.load(r)
	a.ch2.load(r)
	a.ch3.load(r)
	a.ch4.load(r)
}
