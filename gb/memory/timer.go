package memory

import (
	"github.com/mattneel/zgbc/gb/addr"
	"github.com/mattneel/zgbc/gb/bit"
	"github.com/mattneel/zgbc/gb/state"
)

// tacBit maps the TAC clock-select field to the divider bit whose falling
// edge clocks TIMA: 4096Hz, 262144Hz, 65536Hz and 16384Hz respectively.
var tacBit = [4]uint16{9, 3, 5, 7}

// Timer implements DIV/TIMA/TMA/TAC on top of a single 16-bit divider.
// DIV is the divider's high byte. TIMA increments on the falling edge of
// the divider bit selected by TAC, which reproduces the reset quirks:
// writing DIV (or disabling the timer) while the selected bit is high
// clocks TIMA immediately.
type Timer struct {
	divider uint16
	tima    uint8
	tma     uint8
	tac     uint8

	// TIMA overflow leaves the counter at zero for four cycles before the
	// TMA reload and the interrupt request land.
	reloadPending bool
	reloadCounter uint8

	request func(addr.Interrupt)
}

// NewTimer returns a timer that raises interrupts through request.
func NewTimer(request func(addr.Interrupt)) *Timer {
	return &Timer{divider: 0xABCC, request: request}
}

// Tick advances the timer by the given number of machine cycles.
func (t *Timer) Tick(cycles uint32) {
	for i := uint32(0); i < cycles; i++ {
		t.tickCycle()
	}
}

func (t *Timer) tickCycle() {
	if t.reloadPending {
		t.reloadCounter--
		if t.reloadCounter == 0 {
			t.reloadPending = false
			t.tima = t.tma
			t.request(addr.TimerInterrupt)
		}
	}
	t.setDivider(t.divider + 1)
}

// setDivider updates the internal counter and clocks TIMA when the selected
// bit falls while the timer is enabled.
func (t *Timer) setDivider(value uint16) {
	old := t.timerSignal()
	t.divider = value
	if old && !t.timerSignal() {
		t.incrementTIMA()
	}
}

// timerSignal is the AND of the TAC enable bit and the selected divider bit.
func (t *Timer) timerSignal() bool {
	if !bit.IsSet(2, t.tac) {
		return false
	}
	return bit.IsSet16(tacBit[t.tac&0x03], t.divider)
}

func (t *Timer) incrementTIMA() {
	t.tima++
	if t.tima == 0 {
		t.reloadPending = true
		t.reloadCounter = 4
	}
}

// Read returns the value of one of the four timer registers.
func (t *Timer) Read(address uint16) uint8 {
	switch address {
	case addr.DIV:
		return bit.High(t.divider)
	case addr.TIMA:
		return t.tima
	case addr.TMA:
		return t.tma
	case addr.TAC:
		return 0xF8 | t.tac
	}
	return 0xFF
}

// Write stores to one of the four timer registers.
func (t *Timer) Write(address uint16, value uint8) {
	switch address {
	case addr.DIV:
		// Any write clears the whole divider, which may produce a
		// falling edge on the selected bit.
		t.setDivider(0)
	case addr.TIMA:
		// A write during the overflow window cancels the TMA reload.
		if t.reloadPending {
			t.reloadPending = false
		}
		t.tima = value
	case addr.TMA:
		t.tma = value
	case addr.TAC:
		old := t.timerSignal()
		t.tac = value & 0x07
		if old && !t.timerSignal() {
			t.incrementTIMA()
		}
	}
}

// Save appends the timer state to a snapshot.
func (t *Timer) Save(w *state.Writer) {
	w.U16(t.divider)
	w.U8(t.tima)
	w.U8(t.tma)
	w.U8(t.tac)
	w.Bool(t.reloadPending)
	w.U8(t.reloadCounter)
}

// Load restores the fields written by Save.
func (t *Timer) Load(r *state.Reader) {
	t.divider = r.U16()
	t.tima = r.U8()
	t.tma = r.U8()
	t.tac = r.U8()
	t.reloadPending = r.Bool()
	t.reloadCounter = r.U8()
}
