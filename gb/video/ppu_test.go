package video

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mattneel/zgbc/gb/addr"
)

func newTestPPU() (*PPU, *[]addr.Interrupt) {
	var raised []addr.Interrupt
	p := NewPPU(func(i addr.Interrupt) {
		raised = append(raised, i)
	})
	return p, &raised
}

func countInterrupts(raised []addr.Interrupt, which addr.Interrupt) int {
	n := 0
	for _, i := range raised {
		if i == which {
			n++
		}
	}
	return n
}

func TestModeSequenceOnVisibleLine(t *testing.T) {
	p, _ := newTestPPU()

	p.Tick(oamScanDots)
	assert.Equal(t, ModeDraw, p.mode)

	p.Tick(drawDots)
	assert.Equal(t, ModeHBlank, p.mode)

	p.Tick(lineDots - oamScanDots - drawDots)
	assert.Equal(t, uint8(1), p.CurrentLine())
	assert.Equal(t, ModeOAMScan, p.mode)
}

func TestLYCyclesThroughAllLines(t *testing.T) {
	p, _ := newTestPPU()

	seen := make(map[uint8]bool)
	last := p.CurrentLine()
	for i := 0; i < lineDots*totalLines; i++ {
		p.Tick(1)
		ly := p.CurrentLine()
		seen[ly] = true
		if ly != last {
			// LY only moves forward by one, except for the wrap.
			if ly != last+1 && !(last == totalLines-1 && ly == 0) {
				t.Fatalf("LY jumped from %d to %d", last, ly)
			}
			last = ly
		}
	}
	for line := uint8(0); line < totalLines; line++ {
		assert.True(t, seen[line], "LY value %d never observed", line)
	}
	assert.Equal(t, uint8(0), p.CurrentLine(), "LY after one full frame")
}

func TestVBlankInterruptAtLine144(t *testing.T) {
	p, raised := newTestPPU()

	p.Tick(lineDots * visibleLines)
	assert.Equal(t, uint8(visibleLines), p.CurrentLine())
	assert.Equal(t, ModeVBlank, p.mode)
	assert.Equal(t, 1, countInterrupts(*raised, addr.VBlankInterrupt))
}

func TestLYCInterrupt(t *testing.T) {
	p, raised := newTestPPU()
	p.WriteRegister(addr.LYC, 5)
	p.WriteRegister(addr.STAT, 0x40)

	p.Tick(lineDots * 5)
	assert.Equal(t, uint8(5), p.CurrentLine())
	assert.Equal(t, 1, countInterrupts(*raised, addr.STATInterrupt))

	// The coincidence bit tracks LY=LYC.
	assert.NotZero(t, p.ReadRegister(addr.STAT)&0x04)
	p.Tick(lineDots)
	assert.Zero(t, p.ReadRegister(addr.STAT)&0x04)
}

func TestVRAMBlockedDuringDraw(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteVRAM(addr.VRAMStart, 0x42)

	p.Tick(oamScanDots + 10)
	assert.Equal(t, ModeDraw, p.mode)
	assert.Equal(t, uint8(0xFF), p.ReadVRAM(addr.VRAMStart))
	p.WriteVRAM(addr.VRAMStart, 0x99)

	p.Tick(drawDots)
	assert.Equal(t, ModeHBlank, p.mode)
	assert.Equal(t, uint8(0x42), p.ReadVRAM(addr.VRAMStart), "write during draw must not land")
}

func TestOAMBlockedDuringScanAndDraw(t *testing.T) {
	p, _ := newTestPPU()
	// Mode is still VBlank right after construction, OAM is open.
	p.WriteOAM(addr.OAMStart, 0x42)
	assert.Equal(t, uint8(0x42), p.ReadOAM(addr.OAMStart))

	p.Tick(lineDots)
	assert.Equal(t, ModeOAMScan, p.mode)
	assert.Equal(t, uint8(0xFF), p.ReadOAM(addr.OAMStart))
}

func TestLCDOffStopsAndResetsScan(t *testing.T) {
	p, _ := newTestPPU()
	p.Tick(lineDots * 10)
	assert.Equal(t, uint8(10), p.CurrentLine())

	p.WriteRegister(addr.LCDC, 0x11)
	assert.Equal(t, uint8(0), p.CurrentLine())
	p.Tick(lineDots * 5)
	assert.Equal(t, uint8(0), p.CurrentLine(), "LY frozen while LCD off")
}

func TestBackgroundRendering(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(addr.BGP, 0xE4)

	// Tile 0 all color index 3; the tile map already points every cell at
	// tile 0.
	for i := uint16(0); i < 16; i++ {
		p.WriteVRAM(addr.TileData0+i, 0xFF)
	}

	p.Tick(lineDots * totalLines)

	frame := p.Framebuffer()
	assert.Equal(t, uint8(3), frame[0])
	assert.Equal(t, uint8(3), frame[FrameSize-1])
}

func TestSpriteRendering(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(addr.LCDC, 0x93) // OBJ enable on top of the post-boot value
	p.WriteRegister(addr.BGP, 0xE4)
	p.WriteRegister(addr.OBP0, 0xE4)

	// Solid tile 1 for the sprite, BG stays at tile 0 color 0.
	for i := uint16(0); i < 16; i++ {
		p.WriteVRAM(addr.TileData0+16+i, 0xFF)
	}
	// Sprite at screen origin.
	p.WriteOAM(addr.OAMStart+0, 16)  // Y
	p.WriteOAM(addr.OAMStart+1, 8)   // X
	p.WriteOAM(addr.OAMStart+2, 1)   // tile
	p.WriteOAM(addr.OAMStart+3, 0x00)

	p.Tick(lineDots * totalLines)

	frame := p.Framebuffer()
	assert.Equal(t, uint8(3), frame[0], "sprite pixel at origin")
	assert.Equal(t, uint8(3), frame[7], "sprite pixel at x=7")
	assert.Equal(t, uint8(0), frame[8], "background past the sprite")
}

func TestSpriteBehindBackground(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(addr.LCDC, 0x93)
	p.WriteRegister(addr.BGP, 0xE4)
	p.WriteRegister(addr.OBP0, 0xE4)

	// BG tile 0 color 1 everywhere (low plane set).
	for i := uint16(0); i < 16; i += 2 {
		p.WriteVRAM(addr.TileData0+i, 0xFF)
	}
	for i := uint16(0); i < 16; i++ {
		p.WriteVRAM(addr.TileData0+16+i, 0xFF)
	}
	p.WriteOAM(addr.OAMStart+0, 16)
	p.WriteOAM(addr.OAMStart+1, 8)
	p.WriteOAM(addr.OAMStart+2, 1)
	p.WriteOAM(addr.OAMStart+3, 0x80) // behind non-zero background

	p.Tick(lineDots * totalLines)

	frame := p.Framebuffer()
	assert.Equal(t, uint8(1), frame[0], "background wins over low-priority sprite")
}

func TestTenSpritesPerLineLimit(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(addr.LCDC, 0x93)
	p.WriteRegister(addr.BGP, 0xE4)
	p.WriteRegister(addr.OBP0, 0xE4)
	for i := uint16(0); i < 16; i++ {
		p.WriteVRAM(addr.TileData0+16+i, 0xFF)
	}

	// Twelve sprites on line 0, 8 pixels apart. Only the first ten render.
	for i := uint16(0); i < 12; i++ {
		p.WriteOAM(addr.OAMStart+i*4+0, 16)
		p.WriteOAM(addr.OAMStart+i*4+1, uint8(8+i*8))
		p.WriteOAM(addr.OAMStart+i*4+2, 1)
		p.WriteOAM(addr.OAMStart+i*4+3, 0)
	}

	p.Tick(lineDots * totalLines)

	frame := p.Framebuffer()
	assert.Equal(t, uint8(3), frame[9*8], "tenth sprite rendered")
	assert.Equal(t, uint8(0), frame[10*8], "eleventh sprite dropped")
}

func TestRenderingDisabledKeepsTiming(t *testing.T) {
	p, raised := newTestPPU()
	p.SetRendering(false)
	for i := uint16(0); i < 16; i++ {
		p.WriteVRAM(addr.TileData0+i, 0xFF)
	}

	p.Tick(lineDots * totalLines)

	assert.Equal(t, 1, countInterrupts(*raised, addr.VBlankInterrupt))
	frame := p.Framebuffer()
	assert.Equal(t, uint8(0), frame[0], "framebuffer untouched with rendering off")
}
