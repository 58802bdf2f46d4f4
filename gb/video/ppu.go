// Package video implements the pixel processing unit: a dot-clocked mode
// state machine driving a scanline renderer into a double-buffered frame.
package video

import (
	"sort"

	"github.com/mattneel/zgbc/gb/addr"
	"github.com/mattneel/zgbc/gb/bit"
	"github.com/mattneel/zgbc/gb/state"
)

// PPU modes as reported in STAT bits 0-1.
const (
	ModeHBlank uint8 = iota
	ModeVBlank
	ModeOAMScan
	ModeDraw
)

// Line timing in dots. A scanline is 456 dots; mode 3 is modeled at its
// minimum length with the remainder spent in HBlank.
const (
	oamScanDots = 80
	drawDots    = 172
	lineDots    = 456

	visibleLines = 144
	totalLines   = 154
)

// LCDC bits.
const (
	lcdcBGEnable uint8 = iota
	lcdcOBJEnable
	lcdcOBJSize
	lcdcBGMap
	lcdcTileData
	lcdcWindowEnable
	lcdcWindowMap
	lcdcEnable
)

const (
	vramSize = 0x2000
	oamSize  = 0xA0
)

// sprite is one OAM entry positioned on the current scanline.
type sprite struct {
	x     int
	index int
	tile  uint8
	attr  uint8
	row   int
}

// PPU owns VRAM, OAM and the LCD registers, and renders one scanline at
// each mode 3 to mode 0 transition.
type PPU struct {
	vram [vramSize]uint8
	oam  [oamSize]uint8

	lcdc uint8
	stat uint8
	scy  uint8
	scx  uint8
	ly   uint8
	lyc  uint8
	bgp  uint8
	obp0 uint8
	obp1 uint8
	wy   uint8
	wx   uint8

	dot        uint16
	mode       uint8
	windowLine uint8

	// statLine is the OR of all enabled STAT conditions; the interrupt
	// fires on its rising edge only.
	statLine bool

	frame *FrameBuffer
	// lineBG holds the raw background color indices of the scanline being
	// drawn, used for sprite background priority.
	lineBG [FrameWidth]uint8

	render  bool
	request func(addr.Interrupt)
}

// NewPPU returns a PPU in the post-boot state with rendering enabled.
func NewPPU(request func(addr.Interrupt)) *PPU {
	return &PPU{
		lcdc:    0x91,
		bgp:     0xFC,
		mode:    ModeVBlank,
		frame:   NewFrameBuffer(),
		render:  true,
		request: request,
	}
}

// SetRendering toggles scanline pixel output. Timing, interrupts and
// register behavior are unaffected, only the framebuffer stops updating.
func (p *PPU) SetRendering(enabled bool) {
	p.render = enabled
}

// CurrentLine returns LY.
func (p *PPU) CurrentLine() uint8 { return p.ly }

// Framebuffer returns the last completed frame as one shade per pixel.
func (p *PPU) Framebuffer() []uint8 { return p.frame.Front() }

// FrameRGBA expands the last completed frame into dst as ARGB pixels.
func (p *PPU) FrameRGBA(dst []uint32) { p.frame.RGBA(dst) }

// Tick advances the PPU by the given number of dots. With the LCD disabled
// the PPU is stopped entirely.
func (p *PPU) Tick(cycles uint32) {
	if !bit.IsSet(lcdcEnable, p.lcdc) {
		return
	}
	for i := uint32(0); i < cycles; i++ {
		p.tickDot()
	}
}

func (p *PPU) tickDot() {
	p.dot++
	switch {
	case p.dot == lineDots:
		p.dot = 0
		p.advanceLine()
	case p.ly < visibleLines && p.dot == oamScanDots:
		p.setMode(ModeDraw)
	case p.ly < visibleLines && p.dot == oamScanDots+drawDots:
		p.renderScanline()
		p.setMode(ModeHBlank)
	}
}

func (p *PPU) advanceLine() {
	p.ly++
	switch {
	case p.ly == visibleLines:
		p.frame.Swap()
		p.setMode(ModeVBlank)
		p.request(addr.VBlankInterrupt)
	case p.ly == totalLines:
		p.ly = 0
		p.windowLine = 0
		p.setMode(ModeOAMScan)
	case p.ly < visibleLines:
		p.setMode(ModeOAMScan)
	}
	p.updateSTATLine()
}

func (p *PPU) setMode(mode uint8) {
	p.mode = mode
	p.updateSTATLine()
}

// updateSTATLine recomputes the STAT interrupt line and fires on a rising
// edge. Multiple simultaneously enabled conditions share one edge.
func (p *PPU) updateSTATLine() {
	line := false
	switch {
	case p.mode == ModeHBlank && bit.IsSet(3, p.stat):
		line = true
	case p.mode == ModeVBlank && bit.IsSet(4, p.stat):
		line = true
	case p.mode == ModeOAMScan && bit.IsSet(5, p.stat):
		line = true
	}
	if p.ly == p.lyc && bit.IsSet(6, p.stat) {
		line = true
	}
	if line && !p.statLine {
		p.request(addr.STATInterrupt)
	}
	p.statLine = line
}

// ReadRegister returns one of the LCD registers at 0xFF40-0xFF4B.
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch address {
	case addr.LCDC:
		return p.lcdc
	case addr.STAT:
		value := 0x80 | (p.stat & 0x78) | p.mode
		if p.ly == p.lyc {
			value |= 0x04
		}
		return value
	case addr.SCY:
		return p.scy
	case addr.SCX:
		return p.scx
	case addr.LY:
		return p.ly
	case addr.LYC:
		return p.lyc
	case addr.BGP:
		return p.bgp
	case addr.OBP0:
		return p.obp0
	case addr.OBP1:
		return p.obp1
	case addr.WY:
		return p.wy
	case addr.WX:
		return p.wx
	}
	return 0xFF
}

// WriteRegister stores to one of the LCD registers at 0xFF40-0xFF4B.
func (p *PPU) WriteRegister(address uint16, value uint8) {
	switch address {
	case addr.LCDC:
		wasOn := bit.IsSet(lcdcEnable, p.lcdc)
		p.lcdc = value
		isOn := bit.IsSet(lcdcEnable, p.lcdc)
		if wasOn && !isOn {
			// Turning the LCD off resets the scan position.
			p.ly = 0
			p.dot = 0
			p.windowLine = 0
			p.mode = ModeHBlank
			p.statLine = false
		} else if !wasOn && isOn {
			p.setMode(ModeOAMScan)
		}
	case addr.STAT:
		p.stat = value & 0x78
		p.updateSTATLine()
	case addr.SCY:
		p.scy = value
	case addr.SCX:
		p.scx = value
	case addr.LY:
		// read-only
	case addr.LYC:
		p.lyc = value
		p.updateSTATLine()
	case addr.BGP:
		p.bgp = value
	case addr.OBP0:
		p.obp0 = value
	case addr.OBP1:
		p.obp1 = value
	case addr.WY:
		p.wy = value
	case addr.WX:
		p.wx = value
	}
}

// ReadVRAM services a CPU read. VRAM is inaccessible while pixels are being
// drawn.
func (p *PPU) ReadVRAM(address uint16) uint8 {
	if bit.IsSet(lcdcEnable, p.lcdc) && p.mode == ModeDraw {
		return 0xFF
	}
	return p.vram[address-addr.VRAMStart]
}

// WriteVRAM services a CPU write under the same gating as ReadVRAM.
func (p *PPU) WriteVRAM(address uint16, value uint8) {
	if bit.IsSet(lcdcEnable, p.lcdc) && p.mode == ModeDraw {
		return
	}
	p.vram[address-addr.VRAMStart] = value
}

// ReadOAM services a CPU read. OAM is inaccessible during OAM scan and
// drawing.
func (p *PPU) ReadOAM(address uint16) uint8 {
	if bit.IsSet(lcdcEnable, p.lcdc) && p.mode >= ModeOAMScan {
		return 0xFF
	}
	return p.oam[address-addr.OAMStart]
}

// WriteOAM services a CPU write under the same gating as ReadOAM.
func (p *PPU) WriteOAM(address uint16, value uint8) {
	if bit.IsSet(lcdcEnable, p.lcdc) && p.mode >= ModeOAMScan {
		return
	}
	p.oam[address-addr.OAMStart] = value
}

// WriteOAMDirect bypasses access gating for DMA transfers.
func (p *PPU) WriteOAMDirect(address uint16, value uint8) {
	p.oam[address-addr.OAMStart] = value
}

// renderScanline draws background, window and sprites for the current line
// into the back buffer.
func (p *PPU) renderScanline() {
	windowActive := bit.IsSet(lcdcWindowEnable, p.lcdc) &&
		bit.IsSet(lcdcBGEnable, p.lcdc) &&
		p.ly >= p.wy && p.wx <= 166
	if p.render {
		p.renderBackground(windowActive)
		if bit.IsSet(lcdcOBJEnable, p.lcdc) {
			p.renderSprites()
		}
	}
	if windowActive {
		p.windowLine++
	}
}

func (p *PPU) renderBackground(windowActive bool) {
	y := int(p.ly)
	if !bit.IsSet(lcdcBGEnable, p.lcdc) {
		for x := 0; x < FrameWidth; x++ {
			p.lineBG[x] = 0
			p.frame.SetPixel(x, y, 0)
		}
		return
	}

	windowStart := int(p.wx) - 7
	for x := 0; x < FrameWidth; x++ {
		var tx, ty int
		var mapSelect uint8
		if windowActive && x >= windowStart {
			tx = x - windowStart
			ty = int(p.windowLine)
			mapSelect = lcdcWindowMap
		} else {
			tx = (x + int(p.scx)) & 0xFF
			ty = (y + int(p.scy)) & 0xFF
			mapSelect = lcdcBGMap
		}

		mapBase := addr.TileMap0
		if bit.IsSet(mapSelect, p.lcdc) {
			mapBase = addr.TileMap1
		}
		tileIndex := p.vram[mapBase-addr.VRAMStart+uint16(ty/8)*32+uint16(tx/8)]

		colorIndex := p.tilePixel(tileIndex, tx&7, ty&7)
		p.lineBG[x] = colorIndex
		p.frame.SetPixel(x, y, paletteShade(p.bgp, colorIndex))
	}
}

// tilePixel decodes one background/window pixel from the planar tile data,
// honoring the LCDC addressing mode.
func (p *PPU) tilePixel(tileIndex uint8, px, py int) uint8 {
	var base uint16
	if bit.IsSet(lcdcTileData, p.lcdc) {
		base = addr.TileData0 - addr.VRAMStart + uint16(tileIndex)*16
	} else {
		base = uint16(int(addr.TileData1-addr.VRAMStart) + int(int8(tileIndex))*16)
	}
	lo := p.vram[base+uint16(py)*2]
	hi := p.vram[base+uint16(py)*2+1]
	shift := uint8(7 - px)
	return (bit.Value(shift, hi) << 1) | bit.Value(shift, lo)
}

func (p *PPU) renderSprites() {
	height := 8
	if bit.IsSet(lcdcOBJSize, p.lcdc) {
		height = 16
	}

	// The hardware keeps the first ten sprites on the line in OAM order.
	line := int(p.ly)
	sprites := make([]sprite, 0, 10)
	for i := 0; i < 40 && len(sprites) < 10; i++ {
		sy := int(p.oam[i*4]) - 16
		if line < sy || line >= sy+height {
			continue
		}
		sprites = append(sprites, sprite{
			x:     int(p.oam[i*4+1]) - 8,
			index: i,
			tile:  p.oam[i*4+2],
			attr:  p.oam[i*4+3],
			row:   line - sy,
		})
	}

	// Lower X wins, OAM order breaks ties. Drawing back to front lets the
	// highest-priority sprite overwrite the rest.
	sort.SliceStable(sprites, func(a, b int) bool {
		return sprites[a].x < sprites[b].x
	})
	for i := len(sprites) - 1; i >= 0; i-- {
		p.drawSprite(&sprites[i], height)
	}
}

func (p *PPU) drawSprite(s *sprite, height int) {
	row := s.row
	if bit.IsSet(6, s.attr) {
		row = height - 1 - row
	}
	tile := s.tile
	if height == 16 {
		tile &= 0xFE
	}
	base := uint16(tile)*16 + uint16(row)*2
	lo := p.vram[base]
	hi := p.vram[base+1]

	palette := p.obp0
	if bit.IsSet(4, s.attr) {
		palette = p.obp1
	}
	behindBG := bit.IsSet(7, s.attr)

	for px := 0; px < 8; px++ {
		x := s.x + px
		if x < 0 || x >= FrameWidth {
			continue
		}
		shift := uint8(7 - px)
		if bit.IsSet(5, s.attr) {
			shift = uint8(px)
		}
		colorIndex := (bit.Value(shift, hi) << 1) | bit.Value(shift, lo)
		if colorIndex == 0 {
			continue
		}
		if behindBG && p.lineBG[x] != 0 {
			continue
		}
		p.frame.SetPixel(x, int(p.ly), paletteShade(palette, colorIndex))
	}
}

// paletteShade translates a 2-bit color index through a palette register.
func paletteShade(palette, colorIndex uint8) uint8 {
	return (palette >> (colorIndex * 2)) & 0x03
}

// Save appends the PPU state, including both frame buffers, to a snapshot.
func (p *PPU) Save(w *state.Writer) {
	w.Raw(p.vram[:])
	w.Raw(p.oam[:])
	w.U8(p.lcdc)
	w.U8(p.stat)
	w.U8(p.scy)
	w.U8(p.scx)
	w.U8(p.ly)
	w.U8(p.lyc)
	w.U8(p.bgp)
	w.U8(p.obp0)
	w.U8(p.obp1)
	w.U8(p.wy)
	w.U8(p.wx)
	w.U16(p.dot)
	w.U8(p.mode)
	w.U8(p.windowLine)
	w.Bool(p.statLine)
	w.Raw(p.frame.buffers[0][:])
	w.Raw(p.frame.buffers[1][:])
	w.U8(p.frame.front)
}

// Load restores the fields written by Save, in the same order.
func (p *PPU) Load(r *state.Reader) {
	r.Raw(p.vram[:])
	r.Raw(p.oam[:])
	p.lcdc = r.U8()
	p.stat = r.U8()
	p.scy = r.U8()
	p.scx = r.U8()
	p.ly = r.U8()
	p.lyc = r.U8()
	p.bgp = r.U8()
	p.obp0 = r.U8()
	p.obp1 = r.U8()
	p.wy = r.U8()
	p.wx = r.U8()
	p.dot = r.U16()
	p.mode = r.U8()
	p.windowLine = r.U8()
	p.statLine = r.Bool()
	r.Raw(p.frame.buffers[0][:])
	r.Raw(p.frame.buffers[1][:])
	p.frame.front = r.U8()
}
