package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/mattneel/zgbc/gb"
)

const (
	scaleX    = 2
	frameTime = time.Second / 60

	// buttonHoldFrames keeps a key press asserted long enough for the game
	// to poll it; terminals deliver no key-release events.
	buttonHoldFrames = 6
)

// shadeChars maps the four DMG shades, lightest first.
var shadeChars = [4]rune{'░', '▒', '▓', '█'}

// terminalUI renders frames as half-width block characters and maps
// keyboard input onto the joypad.
type terminalUI struct {
	screen  tcell.Screen
	machine *gb.Machine
	running bool

	// hold counts down the remaining frames each button stays pressed.
	hold [8]int
	keys chan uint8
}

func runTerminal(machine *gb.Machine) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}

	ui := &terminalUI{
		screen:  screen,
		machine: machine,
		running: true,
		keys:    make(chan uint8, 16),
	}
	return ui.run()
}

func (t *terminalUI) run() error {
	defer func() {
		slog.Info("closing terminal")
		t.screen.Fini()
	}()

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	go t.pollInput()

	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	for t.running {
		select {
		case <-ticker.C:
			t.applyInput()
			t.machine.RunFrame()
			t.render()
			t.screen.Show()
		case <-signals:
			t.running = false
		}
	}
	return nil
}

func (t *terminalUI) pollInput() {
	for t.running {
		ev := t.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyEscape, tcell.KeyCtrlC:
				t.running = false
			case tcell.KeyEnter:
				t.keys <- gb.ButtonStart
			case tcell.KeyRight:
				t.keys <- gb.ButtonRight
			case tcell.KeyLeft:
				t.keys <- gb.ButtonLeft
			case tcell.KeyUp:
				t.keys <- gb.ButtonUp
			case tcell.KeyDown:
				t.keys <- gb.ButtonDown
			case tcell.KeyRune:
				switch ev.Rune() {
				case 'a':
					t.keys <- gb.ButtonA
				case 's':
					t.keys <- gb.ButtonB
				case 'q':
					t.keys <- gb.ButtonSelect
				}
			}
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}

// applyInput folds queued key events into the per-button hold counters and
// pushes the resulting mask into the machine.
func (t *terminalUI) applyInput() {
	for {
		select {
		case button := <-t.keys:
			for i := 0; i < 8; i++ {
				if button == 1<<i {
					t.hold[i] = buttonHoldFrames
				}
			}
		default:
			var mask uint8
			for i := 0; i < 8; i++ {
				if t.hold[i] > 0 {
					t.hold[i]--
					mask |= 1 << i
				}
			}
			t.machine.SetButtons(mask)
			return
		}
	}
}

func (t *terminalUI) render() {
	frame := t.machine.Framebuffer()
	for y := 0; y < gb.FrameHeight; y++ {
		for x := 0; x < gb.FrameWidth; x++ {
			char := shadeChars[frame[y*gb.FrameWidth+x]&3]
			style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
			for sx := 0; sx < scaleX; sx++ {
				t.screen.SetContent(x*scaleX+sx, y, char, nil, style)
			}
		}
	}
}
