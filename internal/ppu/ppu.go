// Package ppu implements the Picture Processing Unit for the NES.
package ppu

import (
	"log"

	"nescore/internal/interrupt"
)

// Frame dimensions
const (
	Width     = 256
	Height    = 240
	FrameSize = Width * Height
)

// NTSC timing
const (
	dotsPerLine     = 341
	linesPerFrame   = 262
	DotsPerFrame    = dotsPerLine * linesPerFrame
	vblankLine      = 241
	preRenderLine   = 261
	lastVisibleLine = 239
)

// PPUCTRL bits
const (
	ctrlIncrement32   uint8 = 0x04
	ctrlSpriteTable   uint8 = 0x08
	ctrlBGTable       uint8 = 0x10
	ctrlSprite16      uint8 = 0x20
	ctrlNMI           uint8 = 0x80
	ctrlNametableBits uint8 = 0x03
)

// PPUMASK bits
const (
	maskGreyscale  uint8 = 0x01
	maskBGLeft     uint8 = 0x02
	maskSpriteLeft uint8 = 0x04
	maskBG         uint8 = 0x08
	maskSprites    uint8 = 0x10
)

// PPUSTATUS bits
const (
	statusOverflow   uint8 = 0x20
	statusSprite0Hit uint8 = 0x40
	statusVBlank     uint8 = 0x80
)

// VideoMemory is the PPU's view of the video bus
type VideoMemory interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
	Palette(index uint8) uint8
	// Monitor drives an address onto the bus without a data transfer
	Monitor(address uint16)
}

// PPU represents the NES Picture Processing Unit (2C02)
type PPU struct {
	// CPU-visible registers
	ctrl    uint8
	mask    uint8
	status  uint8
	oamAddr uint8
	latch   uint8 // last value driven onto the register bus
	buffer  uint8 // $2007 read-behind buffer

	// Loopy scroll registers
	v uint16
	t uint16
	x uint8
	w bool

	video VideoMemory
	nmi   *interrupt.Line

	// State machine position
	state     state
	waitDots  int
	waitNext  state
	scanline  int
	dot       int
	skip      bool
	oddFrame  bool
	frames    uint64
	totalDots uint64

	// Background pipeline
	ntByte uint8
	atBits uint8
	loByte uint8
	hiByte uint8
	patLo  uint16
	patHi  uint16
	attrLo uint16
	attrHi uint16

	// Sprite pipeline
	oam          [256]uint8
	secondary    [8]spriteEntry
	secondaryLen int
	sprites      [8]spriteSlot
	spriteCount  int

	back  [FrameSize]uint8
	front [FrameSize]uint8

	frameCallback func(frame *[FrameSize]uint8)

	enableDebugLogging bool
}

// New creates a PPU on a video bus. The NMI line receives OCCURRED on
// vertical blank and OUTPUT from PPUCTRL bit 7.
func New(video VideoMemory, nmi *interrupt.Line) *PPU {
	if nmi == nil {
		nmi = interrupt.NewEdge(interrupt.NMIOccurred | interrupt.NMIOutput)
	}
	p := &PPU{video: video, nmi: nmi}
	p.Reset()
	return p
}

// Reset returns the PPU to its power-up state on the pre-render line
func (p *PPU) Reset() {
	p.ctrl = 0
	p.mask = 0
	p.status = 0
	p.oamAddr = 0
	p.latch = 0
	p.buffer = 0

	p.v = 0
	p.t = 0
	p.x = 0
	p.w = false

	p.scanline = preRenderLine
	p.dot = 0
	p.skip = false
	p.oddFrame = false
	p.frames = 0
	p.totalDots = 0
	p.state = stateWait
	p.waitDots = 1
	p.waitNext = statePreScan

	p.patLo, p.patHi, p.attrLo, p.attrHi = 0, 0, 0, 0
	p.secondaryLen = 0
	p.spriteCount = 0

	p.nmi.Unset(interrupt.NMIOccurred | interrupt.NMIOutput)
	p.back = [FrameSize]uint8{}
	p.front = [FrameSize]uint8{}
}

// SetFrameCallback registers the hook invoked at the start of vertical
// blank with the completed frame of palette indices
func (p *PPU) SetFrameCallback(callback func(frame *[FrameSize]uint8)) {
	p.frameCallback = callback
}

// EnableDebugLogging enables/disables register and frame logging
func (p *PPU) EnableDebugLogging(enable bool) {
	p.enableDebugLogging = enable
}

// ReadRegister reads from a PPU register (CPU $2000-$2007)
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch 0x2000 | address&0x07 {
	case 0x2002: // PPUSTATUS
		value := p.status&0xE0 | p.latch&0x1F
		p.status &^= statusVBlank
		p.nmi.Unset(interrupt.NMIOccurred)
		p.w = false
		p.latch = value
	case 0x2004: // OAMDATA
		value := p.oam[p.oamAddr]
		if p.oamAddr&0x03 == 0x02 {
			value &= 0xE3
		}
		p.latch = value
	case 0x2007: // PPUDATA
		p.latch = p.readData()
	}
	return p.latch
}

// WriteRegister writes to a PPU register (CPU $2000-$2007)
func (p *PPU) WriteRegister(address uint16, value uint8) {
	address = 0x2000 | address&0x07
	p.latch = value

	if p.enableDebugLogging {
		log.Printf("[PPU] write $%04X = $%02X at %d:%d", address, value, p.scanline, p.dot)
	}

	switch address {
	case 0x2000: // PPUCTRL
		p.ctrl = value
		p.t = p.t&0xF3FF | uint16(value&ctrlNametableBits)<<10
		if value&ctrlNMI != 0 {
			p.nmi.Set(interrupt.NMIOutput)
		} else {
			p.nmi.Unset(interrupt.NMIOutput)
		}
	case 0x2001: // PPUMASK
		p.mask = value
	case 0x2003: // OAMADDR
		p.oamAddr = value
	case 0x2004: // OAMDATA
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case 0x2005: // PPUSCROLL
		p.writeScroll(value)
	case 0x2006: // PPUADDR
		p.writeAddr(value)
	case 0x2007: // PPUDATA
		p.video.Write(p.v&0x3FFF, value)
		p.incrementAddr()
	}
}

// WriteOAM stores one byte of sprite memory directly
func (p *PPU) WriteOAM(address uint8, value uint8) {
	p.oam[address] = value
}

// writeScroll handles writes to PPUSCROLL ($2005)
func (p *PPU) writeScroll(value uint8) {
	if !p.w {
		// First write: coarse and fine X
		p.t = p.t&0xFFE0 | uint16(value)>>3
		p.x = value & 0x07
	} else {
		// Second write: fine and coarse Y
		p.t = p.t&0x8C1F | uint16(value&0x07)<<12 | uint16(value&0xF8)<<2
	}
	p.w = !p.w
}

// writeAddr handles writes to PPUADDR ($2006)
func (p *PPU) writeAddr(value uint8) {
	if !p.w {
		// First write: high byte, bit 14 cleared
		p.t = p.t&0x80FF | uint16(value&0x3F)<<8
	} else {
		p.t = p.t&0xFF00 | uint16(value)
		p.v = p.t
		p.video.Monitor(p.v & 0x3FFF)
	}
	p.w = !p.w
}

// readData handles reads from PPUDATA ($2007). Palette reads return
// immediately and refill the buffer from the nametable underneath.
func (p *PPU) readData() uint8 {
	addr := p.v & 0x3FFF
	var value uint8
	if addr >= 0x3F00 {
		value = p.video.Read(addr)&0x3F | p.latch&0xC0
		p.buffer = p.video.Read(addr - 0x1000)
	} else {
		value = p.buffer
		p.buffer = p.video.Read(addr)
	}
	p.incrementAddr()
	return value
}

// incrementAddr advances v after a $2007 access. During rendering the
// access instead bumps both scroll counters.
func (p *PPU) incrementAddr() {
	if p.rendering() && (p.scanline <= lastVisibleLine || p.scanline == preRenderLine) {
		p.incrementX()
		p.incrementY()
		return
	}
	if p.ctrl&ctrlIncrement32 != 0 {
		p.v += 32
	} else {
		p.v++
	}
	p.v &= 0x7FFF
}

// Frame returns the most recently completed frame
func (p *PPU) Frame() *[FrameSize]uint8 {
	return &p.front
}

// FrameCount returns the number of frames started since reset
func (p *PPU) FrameCount() uint64 {
	return p.frames
}

// Scanline returns the current scanline (0-261, 261 is pre-render)
func (p *PPU) Scanline() int {
	return p.scanline
}

// Dot returns the current dot within the scanline (0-340)
func (p *PPU) Dot() int {
	return p.dot
}

// Dots returns the total number of dots clocked since reset
func (p *PPU) Dots() uint64 {
	return p.totalDots
}

// InVBlank reports whether the vertical blank status bit is set
func (p *PPU) InVBlank() bool {
	return p.status&statusVBlank != 0
}

// Mask returns PPUMASK, used by presentation to apply colour emphasis
func (p *PPU) Mask() uint8 {
	return p.mask
}

func (p *PPU) rendering() bool {
	return p.mask&(maskBG|maskSprites) != 0
}
