package memory

import (
	"github.com/mattneel/zgbc/gb/addr"
	"github.com/mattneel/zgbc/gb/state"
)

// Button bits in the host-facing input mask. The low nibble is the action
// group, the high nibble is the direction pad.
const (
	ButtonA uint8 = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonRight
	ButtonLeft
	ButtonUp
	ButtonDown
)

// Joypad models the P1 button matrix. The host sets the pressed mask as a
// whole each frame; the register reads back active-low through whichever
// row the game selected.
type Joypad struct {
	// buttons holds currently pressed keys, 1 = pressed.
	buttons uint8
	// selectBits caches bits 4-5 as last written, 0 = row selected.
	selectBits uint8

	request func(addr.Interrupt)
}

// NewJoypad returns a joypad with no buttons pressed and both rows
// deselected.
func NewJoypad(request func(addr.Interrupt)) *Joypad {
	return &Joypad{selectBits: 0x30, request: request}
}

// SetButtons replaces the pressed-button mask. A newly pressed button on a
// selected row pulls its input line low and raises the joypad interrupt.
func (j *Joypad) SetButtons(mask uint8) {
	pressed := mask &^ j.buttons
	j.buttons = mask
	if pressed == 0 {
		return
	}
	if j.selectBits&0x10 == 0 && pressed&0xF0 != 0 {
		j.request(addr.JoypadInterrupt)
	} else if j.selectBits&0x20 == 0 && pressed&0x0F != 0 {
		j.request(addr.JoypadInterrupt)
	}
}

// Buttons returns the current pressed mask.
func (j *Joypad) Buttons() uint8 { return j.buttons }

// Read returns P1. Unused bits 6-7 read high; input lines are active-low.
func (j *Joypad) Read() uint8 {
	value := 0xC0 | j.selectBits | 0x0F
	if j.selectBits&0x10 == 0 {
		value &^= j.buttons >> 4
	}
	if j.selectBits&0x20 == 0 {
		value &^= j.buttons & 0x0F
	}
	return value
}

// Write stores the row-select bits. The input lines are read-only.
func (j *Joypad) Write(value uint8) {
	j.selectBits = value & 0x30
}

// Save appends the joypad state to a snapshot.
func (j *Joypad) Save(w *state.Writer) {
	w.U8(j.buttons)
	w.U8(j.selectBits)
}

// Load restores the fields written by Save.
func (j *Joypad) Load(r *state.Reader) {
	j.buttons = r.U8()
	j.selectBits = r.U8()
}
