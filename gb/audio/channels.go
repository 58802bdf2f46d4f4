package audio

import "github.com/mattneel/zgbc/gb/state"

// dutyTable holds the four square waveforms, one bit per step.
var dutyTable = [4][8]uint8{
	{0, 0, 0, 0, 0, 0, 0, 1}, // 12.5%
	{1, 0, 0, 0, 0, 0, 0, 1}, // 25%
	{1, 0, 0, 0, 0, 1, 1, 1}, // 50%
	{0, 1, 1, 1, 1, 1, 1, 0}, // 75%
}

// noiseDivisor maps the NR43 divisor code to the base timer period.
var noiseDivisor = [8]int32{8, 16, 32, 48, 64, 80, 96, 112}

// envelope is the shared volume envelope of the square and noise channels.
type envelope struct {
	initial  uint8
	increase bool
	period   uint8
	volume   uint8
	timer    uint8
}

func (e *envelope) trigger() {
	e.volume = e.initial
	e.timer = e.period
}

func (e *envelope) clock() {
	if e.period == 0 {
		return
	}
	if e.timer > 0 {
		e.timer--
	}
	if e.timer != 0 {
		return
	}
	e.timer = e.period
	if e.increase && e.volume < 15 {
		e.volume++
	} else if !e.increase && e.volume > 0 {
		e.volume--
	}
}

func (e *envelope) save(w *state.Writer) {
	w.U8(e.initial)
	w.Bool(e.increase)
	w.U8(e.period)
	w.U8(e.volume)
	w.U8(e.timer)
}

func (e *envelope) load(r *state.Reader) {
	e.initial = r.U8()
	e.increase = r.Bool()
	e.period = r.U8()
	e.volume = r.U8()
	e.timer = r.U8()
}

// chSquare is one of the two pulse channels. Channel 1 additionally owns
// the frequency sweep unit.
type chSquare struct {
	enabled    bool
	dacEnabled bool

	duty     uint8
	dutyStep uint8

	length       uint16
	lengthEnable bool

	env envelope

	freq  uint16
	timer int32

	hasSweep     bool
	sweepPeriod  uint8
	sweepNegate  bool
	sweepShift   uint8
	sweepTimer   uint8
	sweepEnabled bool
	sweepShadow  uint16
}

func (c *chSquare) tick(cycles int32) {
	if !c.enabled {
		return
	}
	c.timer -= cycles
	for c.timer <= 0 {
		c.timer += int32(2048-c.freq) * 4
		c.dutyStep = (c.dutyStep + 1) & 7
	}
}

func (c *chSquare) output() uint8 {
	if !c.enabled || !c.dacEnabled {
		return 0
	}
	return dutyTable[c.duty][c.dutyStep] * c.env.volume
}

func (c *chSquare) clockLength() {
	if c.lengthEnable && c.length > 0 {
		c.length--
		if c.length == 0 {
			c.enabled = false
		}
	}
}

func (c *chSquare) trigger() {
	c.enabled = c.dacEnabled
	if c.length == 0 {
		c.length = 64
	}
	c.timer = int32(2048-c.freq) * 4
	c.env.trigger()
	if c.hasSweep {
		c.sweepShadow = c.freq
		c.sweepTimer = c.sweepPeriod
		if c.sweepTimer == 0 {
			c.sweepTimer = 8
		}
		c.sweepEnabled = c.sweepPeriod != 0 || c.sweepShift != 0
		if c.sweepShift != 0 && c.sweepNext() > 2047 {
			c.enabled = false
		}
	}
}

// sweepNext computes the next sweep frequency from the shadow register.
func (c *chSquare) sweepNext() uint16 {
	delta := c.sweepShadow >> c.sweepShift
	if c.sweepNegate {
		return c.sweepShadow - delta
	}
	return c.sweepShadow + delta
}

func (c *chSquare) clockSweep() {
	if !c.hasSweep || !c.sweepEnabled {
		return
	}
	if c.sweepTimer > 0 {
		c.sweepTimer--
	}
	if c.sweepTimer != 0 {
		return
	}
	c.sweepTimer = c.sweepPeriod
	if c.sweepTimer == 0 {
		c.sweepTimer = 8
	}
	if c.sweepPeriod == 0 {
		return
	}
	next := c.sweepNext()
	if next > 2047 {
		c.enabled = false
		return
	}
	if c.sweepShift != 0 {
		c.sweepShadow = next
		c.freq = next
		if c.sweepNext() > 2047 {
			c.enabled = false
		}
	}
}

func (c *chSquare) save(w *state.Writer) {
	w.Bool(c.enabled)
	w.Bool(c.dacEnabled)
	w.U8(c.duty)
	w.U8(c.dutyStep)
	w.U16(c.length)
	w.Bool(c.lengthEnable)
	c.env.save(w)
	w.U16(c.freq)
	w.U32(uint32(c.timer))
	w.U8(c.sweepPeriod)
	w.Bool(c.sweepNegate)
	w.U8(c.sweepShift)
	w.U8(c.sweepTimer)
	w.Bool(c.sweepEnabled)
	w.U16(c.sweepShadow)
}

func (c *chSquare) load(r *state.Reader) {
	c.enabled = r.Bool()
	c.dacEnabled = r.Bool()
	c.duty = r.U8()
	c.dutyStep = r.U8()
	c.length = r.U16()
	c.lengthEnable = r.Bool()
	c.env.load(r)
	c.freq = r.U16()
	c.timer = int32(r.U32())
	c.sweepPeriod = r.U8()
	c.sweepNegate = r.Bool()
	c.sweepShift = r.U8()
	c.sweepTimer = r.U8()
	c.sweepEnabled = r.Bool()
	c.sweepShadow = r.U16()
}

// chWave is the 32-sample wavetable channel.
type chWave struct {
	enabled    bool
	dacEnabled bool

	length       uint16
	lengthEnable bool

	// volumeCode selects the output shift: mute, full, half, quarter.
	volumeCode uint8

	freq     uint16
	timer    int32
	position uint8

	waveRAM [16]uint8
}

func (c *chWave) tick(cycles int32) {
	if !c.enabled {
		return
	}
	c.timer -= cycles
	for c.timer <= 0 {
		c.timer += int32(2048-c.freq) * 2
		c.position = (c.position + 1) & 31
	}
}

func (c *chWave) output() uint8 {
	if !c.enabled || !c.dacEnabled {
		return 0
	}
	sample := c.waveRAM[c.position/2]
	if c.position&1 == 0 {
		sample >>= 4
	}
	sample &= 0x0F
	switch c.volumeCode {
	case 0:
		return 0
	case 1:
		return sample
	case 2:
		return sample >> 1
	default:
		return sample >> 2
	}
}

func (c *chWave) clockLength() {
	if c.lengthEnable && c.length > 0 {
		c.length--
		if c.length == 0 {
			c.enabled = false
		}
	}
}

func (c *chWave) trigger() {
	c.enabled = c.dacEnabled
	if c.length == 0 {
		c.length = 256
	}
	c.timer = int32(2048-c.freq) * 2
	c.position = 0
}

func (c *chWave) save(w *state.Writer) {
	w.Bool(c.enabled)
	w.Bool(c.dacEnabled)
	w.U16(c.length)
	w.Bool(c.lengthEnable)
	w.U8(c.volumeCode)
	w.U16(c.freq)
	w.U32(uint32(c.timer))
	w.U8(c.position)
	w.Raw(c.waveRAM[:])
}

func (c *chWave) load(r *state.Reader) {
	c.enabled = r.Bool()
	c.dacEnabled = r.Bool()
	c.length = r.U16()
	c.lengthEnable = r.Bool()
	c.volumeCode = r.U8()
	c.freq = r.U16()
	c.timer = int32(r.U32())
	c.position = r.U8()
	r.Raw(c.waveRAM[:])
}

// chNoise is the LFSR noise channel.
type chNoise struct {
	enabled    bool
	dacEnabled bool

	length       uint16
	lengthEnable bool

	env envelope

	shift   uint8
	width7  bool
	divisor uint8
	timer   int32

	lfsr uint16
}

func (c *chNoise) period() int32 {
	return noiseDivisor[c.divisor] << c.shift
}

func (c *chNoise) tick(cycles int32) {
	if !c.enabled {
		return
	}
	c.timer -= cycles
	for c.timer <= 0 {
		c.timer += c.period()
		feedback := (c.lfsr ^ (c.lfsr >> 1)) & 1
		c.lfsr = (c.lfsr >> 1) | (feedback << 14)
		if c.width7 {
			c.lfsr = (c.lfsr &^ (1 << 6)) | (feedback << 6)
		}
	}
}

func (c *chNoise) output() uint8 {
	if !c.enabled || !c.dacEnabled {
		return 0
	}
	if c.lfsr&1 != 0 {
		return 0
	}
	return c.env.volume
}

func (c *chNoise) clockLength() {
	if c.lengthEnable && c.length > 0 {
		c.length--
		if c.length == 0 {
			c.enabled = false
		}
	}
}

func (c *chNoise) trigger() {
	c.enabled = c.dacEnabled
	if c.length == 0 {
		c.length = 64
	}
	c.timer = c.period()
	c.env.trigger()
	c.lfsr = 0x7FFF
}

func (c *chNoise) save(w *state.Writer) {
	w.Bool(c.enabled)
	w.Bool(c.dacEnabled)
	w.U16(c.length)
	w.Bool(c.lengthEnable)
	c.env.save(w)
	w.U8(c.shift)
	w.Bool(c.width7)
	w.U8(c.divisor)
	w.U32(uint32(c.timer))
	w.U16(c.lfsr)
}

func (c *chNoise) load(r *state.Reader) {
	c.enabled = r.Bool()
	c.dacEnabled = r.Bool()
	c.length = r.U16()
	c.lengthEnable = r.Bool()
	c.env.load(r)
	c.shift = r.U8()
	c.width7 = r.Bool()
	c.divisor = r.U8()
	c.timer = int32(r.U32())
	c.lfsr = r.U16()
}
