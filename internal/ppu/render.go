package ppu

import "math/bits"

// bitrev reverses the pixel order of a pattern byte so the leftmost pixel
// lands in bit 0 of the shift register
var bitrev [256]uint8

func init() {
	for i := range bitrev {
		bitrev[i] = bits.Reverse8(uint8(i))
	}
}

// spriteEntry is one secondary OAM entry selected for the next line
type spriteEntry struct {
	y, tile, attr, x uint8
	zero             bool
}

// spriteSlot holds a fetched sprite row, leftmost pixel in bit 0
type spriteSlot struct {
	lo, hi  uint8
	attr, x uint8
	zero    bool
}

// shiftDot emits the pixel for a visible dot and then shifts the
// background registers one position
func (p *PPU) shiftDot() {
	if p.dot <= Width && p.scanline <= lastVisibleLine {
		p.renderPixel()
	}
	if p.rendering() {
		p.patLo >>= 1
		p.patHi >>= 1
		p.attrLo >>= 1
		p.attrHi >>= 1
	}
}

// reloadShifters loads the fetched tile into the high byte of each shift
// register, eight dots ahead of its first pixel
func (p *PPU) reloadShifters() {
	p.patLo = p.patLo&0x00FF | uint16(bitrev[p.loByte])<<8
	p.patHi = p.patHi&0x00FF | uint16(bitrev[p.hiByte])<<8
	p.attrLo = p.attrLo&0x00FF | fill(p.atBits&0x01)<<8
	p.attrHi = p.attrHi&0x00FF | fill(p.atBits&0x02)<<8
}

func fill(bit uint8) uint16 {
	if bit != 0 {
		return 0xFF
	}
	return 0x00
}

func (p *PPU) bgPatternAddr() uint16 {
	var table uint16
	if p.ctrl&ctrlBGTable != 0 {
		table = 0x1000
	}
	return table | uint16(p.ntByte)<<4 | (p.v>>12)&0x07
}

// renderPixel combines the background and sprite pipelines for the
// current dot and stores the palette entry in the back buffer
func (p *PPU) renderPixel() {
	x := p.dot - 1

	var bg uint8
	if p.mask&maskBG != 0 && (x >= 8 || p.mask&maskBGLeft != 0) {
		lo := uint8(p.patLo>>p.x) & 0x01
		hi := uint8(p.patHi>>p.x) & 0x01
		bg = hi<<1 | lo
		if bg != 0 {
			attr := uint8(p.attrHi>>p.x)&0x01<<1 | uint8(p.attrLo>>p.x)&0x01
			bg |= attr << 2
		}
	}

	var sp uint8
	front := false
	if p.mask&maskSprites != 0 && (x >= 8 || p.mask&maskSpriteLeft != 0) {
		for i := 0; i < p.spriteCount; i++ {
			s := &p.sprites[i]
			col := x - int(s.x)
			if col < 0 || col > 7 {
				continue
			}
			c := (s.hi>>col)&0x01<<1 | (s.lo>>col)&0x01
			if c == 0 {
				continue
			}
			if s.zero && bg != 0 && x != Width-1 {
				p.status |= statusSprite0Hit
			}
			sp = 0x10 | (s.attr&0x03)<<2 | c
			front = s.attr&0x20 == 0
			break
		}
	}

	index := bg
	if sp != 0 && (bg == 0 || front) {
		index = sp
	}
	if !p.rendering() && p.v&0x3F00 == 0x3F00 {
		// With rendering off the backdrop shows the palette entry v points at
		index = uint8(p.v & 0x1F)
	}

	color := p.video.Palette(index)
	if p.mask&maskGreyscale != 0 {
		color &= 0x30
	}
	p.back[p.scanline*Width+x] = color
}

func (p *PPU) spriteHeight() int {
	if p.ctrl&ctrlSprite16 != 0 {
		return 16
	}
	return 8
}

// evaluateSprites selects up to eight sprites covering the next line
func (p *PPU) evaluateSprites() {
	if p.scanline == preRenderLine {
		return
	}
	height := p.spriteHeight()
	for i := 0; i < 64; i++ {
		y := p.oam[i*4]
		row := p.scanline - int(y)
		if row < 0 || row >= height {
			continue
		}
		if p.secondaryLen == len(p.secondary) {
			p.status |= statusOverflow
			break
		}
		p.secondary[p.secondaryLen] = spriteEntry{
			y:    y,
			tile: p.oam[i*4+1],
			attr: p.oam[i*4+2],
			x:    p.oam[i*4+3],
			zero: i == 0,
		}
		p.secondaryLen++
	}
}

// fetchSprite performs one dot of the eight-dot fetch for slot: two
// nametable reads, then the low and high pattern planes. Empty slots fetch
// tile $FF and stay transparent.
func (p *PPU) fetchSprite(slot, step int) {
	switch step {
	case 0, 2:
		p.video.Read(0x2000 | p.v&0x0FFF)
	case 4:
		p.sprites[slot].lo = p.video.Read(p.spritePatternAddr(slot))
	case 6:
		s := &p.sprites[slot]
		s.hi = p.video.Read(p.spritePatternAddr(slot) + 8)
		if slot >= p.secondaryLen {
			*s = spriteSlot{x: 0xFF}
			return
		}
		e := p.secondary[slot]
		s.attr, s.x, s.zero = e.attr, e.x, e.zero
		if e.attr&0x40 == 0 {
			s.lo, s.hi = bitrev[s.lo], bitrev[s.hi]
		}
	}
}

func (p *PPU) spritePatternAddr(slot int) uint16 {
	height := p.spriteHeight()
	tile, row := uint8(0xFF), 0
	if slot < p.secondaryLen {
		e := p.secondary[slot]
		tile = e.tile
		row = p.scanline - int(e.y)
		if e.attr&0x80 != 0 {
			row = height - 1 - row
		}
	}

	if height == 16 {
		table := uint16(tile&0x01) << 12
		tile &^= 0x01
		if row > 7 {
			tile++
			row -= 8
		}
		return table | uint16(tile)<<4 | uint16(row)
	}

	var table uint16
	if p.ctrl&ctrlSpriteTable != 0 {
		table = 0x1000
	}
	return table | uint16(tile)<<4 | uint16(row)
}

// incrementX increments coarse X, wrapping into the next horizontal
// nametable after 32 tiles
func (p *PPU) incrementX() {
	if p.v&0x001F == 31 {
		p.v &^= 0x001F
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

// incrementY increments fine Y, then coarse Y. Row 29 wraps and flips the
// vertical nametable; rows 30 and 31 are attribute data and wrap to 0
// without flipping.
func (p *PPU) incrementY() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &^= 0x7000
	y := (p.v & 0x03E0) >> 5
	switch y {
	case 29:
		y = 0
		p.v ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	p.v = p.v&^0x03E0 | y<<5
}

// copyX copies coarse X and the horizontal nametable bit from t to v
func (p *PPU) copyX() {
	p.v = p.v&0xFBE0 | p.t&0x041F
}

// copyY copies fine Y, coarse Y and the vertical nametable bit from t to v
func (p *PPU) copyY() {
	p.v = p.v&0x841F | p.t&0x7BE0
}
