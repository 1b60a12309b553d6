package ppu

import (
	"fmt"
	"log"

	"nescore/internal/interrupt"
)

// state is the dot handler the engine runs next
type state uint8

const (
	stateWait state = iota
	statePreScan
	stateScan
	stateNT0
	stateNT1
	stateAT0
	stateAT1
	stateLoBG0
	stateLoBG1
	stateHiBG0
	stateHiBG1
	stateSprites
	stateLineEnd
	stateVBlank
	stateCount
)

var stateNames = [stateCount]string{
	"Wait", "PreScan", "Scan", "NT0", "NT1", "AT0", "AT1",
	"LoBG0", "LoBG1", "HiBG0", "HiBG1", "Sprites", "LineEnd", "VBlank",
}

func (s state) String() string {
	if s < stateCount {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// transitions maps each state to the handler that performs one dot of work
// and returns the state for the following dot
var transitions [stateCount]func(p *PPU) state

func init() {
	transitions = [stateCount]func(p *PPU) state{
		stateWait:    (*PPU).wait,
		statePreScan: (*PPU).preScan,
		stateScan:    (*PPU).scan,
		stateNT0:     (*PPU).fetchNT,
		stateNT1:     (*PPU).idleNT,
		stateAT0:     (*PPU).fetchAT,
		stateAT1:     (*PPU).idleAT,
		stateLoBG0:   (*PPU).fetchLo,
		stateLoBG1:   (*PPU).idleLo,
		stateHiBG0:   (*PPU).fetchHi,
		stateHiBG1:   (*PPU).loadTile,
		stateSprites: (*PPU).spriteFetch,
		stateLineEnd: (*PPU).lineEnd,
		stateVBlank:  (*PPU).vblank,
	}
}

// Tick advances the engine by exactly dots pixel clocks
func (p *PPU) Tick(dots int) {
	for ; dots > 0; dots-- {
		if p.state >= stateCount {
			panic(fmt.Sprintf("ppu: unknown state %d at %d:%d", p.state, p.scanline, p.dot))
		}
		p.state = transitions[p.state](p)
		p.advance()
	}
}

// advance moves the beam one dot, wrapping lines and frames
func (p *PPU) advance() {
	p.totalDots++
	p.dot++
	if p.skip {
		p.skip = false
		p.dot = dotsPerLine
	}
	if p.dot < dotsPerLine {
		return
	}
	p.dot = 0
	p.scanline++
	if p.scanline == linesPerFrame {
		p.scanline = 0
		p.frames++
		p.oddFrame = !p.oddFrame
	}
}

// waitUntil idles until the given position and hands it to next
func (p *PPU) waitUntil(line, dot int, next state) state {
	n := line*dotsPerLine + dot - (p.scanline*dotsPerLine + p.dot) - 1
	if n < 0 {
		n += DotsPerFrame
	}
	if n == 0 {
		return next
	}
	p.waitDots = n
	p.waitNext = next
	return stateWait
}

func (p *PPU) wait() state {
	p.waitDots--
	if p.waitDots > 0 {
		return stateWait
	}
	return p.waitNext
}

// preScan runs dot 1 of the pre-render line: vertical blank ends and the
// status flags are cleared before the first fetch
func (p *PPU) preScan() state {
	p.status &^= statusVBlank | statusSprite0Hit | statusOverflow
	p.nmi.Unset(interrupt.NMIOccurred)
	return p.fetchNT()
}

// scan is the idle dot 0 of a visible line
func (p *PPU) scan() state {
	return stateNT0
}

func (p *PPU) fetchNT() state {
	p.shiftDot()
	if p.rendering() {
		p.ntByte = p.video.Read(0x2000 | p.v&0x0FFF)
	}
	return stateNT1
}

func (p *PPU) idleNT() state {
	p.shiftDot()
	return stateAT0
}

func (p *PPU) fetchAT() state {
	p.shiftDot()
	if p.rendering() {
		addr := 0x23C0 | p.v&0x0C00 | (p.v>>4)&0x38 | (p.v>>2)&0x07
		shift := (p.v>>4)&0x04 | p.v&0x02
		p.atBits = (p.video.Read(addr) >> shift) & 0x03
	}
	return stateAT1
}

func (p *PPU) idleAT() state {
	p.shiftDot()
	return stateLoBG0
}

func (p *PPU) fetchLo() state {
	p.shiftDot()
	if p.rendering() {
		p.loByte = p.video.Read(p.bgPatternAddr())
	}
	return stateLoBG1
}

func (p *PPU) idleLo() state {
	p.shiftDot()
	return stateHiBG0
}

func (p *PPU) fetchHi() state {
	p.shiftDot()
	if p.rendering() {
		p.hiByte = p.video.Read(p.bgPatternAddr() + 8)
	}
	return stateHiBG1
}

// loadTile closes a tile iteration: the fetched tile enters the shift
// registers and the horizontal scroll advances
func (p *PPU) loadTile() state {
	p.shiftDot()
	if p.rendering() {
		p.reloadShifters()
		p.incrementX()
		if p.dot == 256 {
			p.incrementY()
		}
	}
	switch p.dot {
	case 256:
		return stateSprites
	case 336:
		return stateLineEnd
	}
	return stateNT0
}

// spriteFetch covers dots 257-320: sprite evaluation, the horizontal
// scroll reload, the pre-render vertical reload and eight pattern fetches
func (p *PPU) spriteFetch() state {
	if p.dot == 257 {
		p.secondaryLen = 0
		if p.rendering() {
			p.copyX()
			p.evaluateSprites()
		}
		p.spriteCount = p.secondaryLen
	}
	if p.rendering() {
		if p.scanline == preRenderLine && p.dot >= 280 && p.dot <= 304 {
			p.copyY()
		}
		p.oamAddr = 0
		p.fetchSprite((p.dot-257)>>3, (p.dot-257)&0x07)
	}
	if p.dot == 320 {
		return stateNT0
	}
	return stateSprites
}

// lineEnd covers dots 337-340 with their two unused nametable fetches
func (p *PPU) lineEnd() state {
	if p.rendering() && (p.dot == 337 || p.dot == 339) {
		p.video.Read(0x2000 | p.v&0x0FFF)
	}

	if p.scanline == preRenderLine && p.dot == 339 && p.oddFrame && p.rendering() {
		p.skip = true
		return stateScan
	}
	if p.dot < dotsPerLine-1 {
		return stateLineEnd
	}
	if p.scanline == lastVisibleLine {
		return p.waitUntil(vblankLine, 1, stateVBlank)
	}
	return stateScan
}

// vblank publishes the finished frame and raises NMI OCCURRED
func (p *PPU) vblank() state {
	p.status |= statusVBlank
	p.nmi.Set(interrupt.NMIOccurred)

	p.front = p.back
	if p.enableDebugLogging {
		log.Printf("[PPU] frame %d complete", p.frames)
	}
	if p.frameCallback != nil {
		p.frameCallback(&p.front)
	}
	return p.waitUntil(preRenderLine, 1, statePreScan)
}
