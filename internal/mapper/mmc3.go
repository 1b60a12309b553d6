package mapper

import (
	"nescore/internal/cartridge"
	"nescore/internal/interrupt"
)

// a12SettleReads is the number of low reads that must precede a rising
// edge for it to count. Sprite slots put two nametable reads between
// pattern fetches, which stays below it.
const a12SettleReads = 3

// mmc3State holds the bank registers and the scanline counter
type mmc3State struct {
	regs    [8]uint8
	sel     uint8
	prgMode uint8
	chrMode uint8

	reload    uint8
	counter   uint8
	reloadReq bool
	enabled   bool

	// lowReads counts consecutive video reads with A12 low. A rising edge
	// only clocks the counter after the line has settled low.
	lowReads int
	a12      bool
}

func (m *Mapper) resetMMC3() {
	m.mmc3 = mmc3State{}
	m.mmc3.regs = [8]uint8{0, 2, 4, 5, 6, 7, 0, 1}
	m.applyMMC3()
}

func (m *Mapper) writeMMC3(addr uint16, value uint8) {
	s := &m.mmc3
	switch addr & 0xE001 {
	case 0x8000:
		s.sel = value & 0x07
		s.prgMode = (value >> 6) & 0x01
		s.chrMode = (value >> 7) & 0x01
		m.applyMMC3()
	case 0x8001:
		s.regs[s.sel] = value
		m.applyMMC3()
	case 0xA000:
		if m.cart.Header.FourScreen {
			return
		}
		if value&0x01 == 0 {
			m.Mirror(cartridge.MirrorVertical)
		} else {
			m.Mirror(cartridge.MirrorHorizontal)
		}
	case 0xA001:
		m.prgRAMEnabled = value&0x80 != 0
		m.prgRAMWritable = value&0x40 == 0
	case 0xC000:
		s.reload = value
	case 0xC001:
		s.counter = 0
		s.reloadReq = true
	case 0xE000:
		s.enabled = false
		if m.irq != nil {
			m.irq.Unset(interrupt.IRQMapper)
		}
	case 0xE001:
		s.enabled = true
	}
}

func (m *Mapper) applyMMC3() {
	s := &m.mmc3
	r := &s.regs

	if s.prgMode == 0 {
		m.BankPRG8k(Slot8000, cartridge.PRGROM, int(r[6]&0x3F))
		m.BankPRG8k(SlotC000, cartridge.PRGROM, -2)
	} else {
		m.BankPRG8k(Slot8000, cartridge.PRGROM, -2)
		m.BankPRG8k(SlotC000, cartridge.PRGROM, int(r[6]&0x3F))
	}
	m.BankPRG8k(SlotA000, cartridge.PRGROM, int(r[7]&0x3F))
	m.BankPRG8k(SlotE000, cartridge.PRGROM, -1)

	base := 0
	if s.chrMode != 0 {
		base = 4
	}
	m.BankCHR1k(base+0, int(r[0]&0xFE))
	m.BankCHR1k(base+1, int(r[0]|0x01))
	m.BankCHR1k(base+2, int(r[1]&0xFE))
	m.BankCHR1k(base+3, int(r[1]|0x01))
	m.BankCHR1k(4-base+0, int(r[2]))
	m.BankCHR1k(4-base+1, int(r[3]))
	m.BankCHR1k(4-base+2, int(r[4]))
	m.BankCHR1k(4-base+3, int(r[5]))
}

// videoReadMMC3 watches A12 on the video bus. Palette reads never reach the
// cartridge and are ignored.
func (m *Mapper) videoReadMMC3(addr uint16) {
	if addr >= 0x3F00 {
		return
	}
	s := &m.mmc3
	high := addr&0x1000 != 0

	if !high {
		s.lowReads++
		s.a12 = false
		return
	}
	if !s.a12 && s.lowReads >= a12SettleReads {
		m.clockMMC3()
	}
	s.lowReads = 0
	s.a12 = true
}

// clockMMC3 reloads or decrements the counter, then raises the IRQ when it
// reaches zero while enabled
func (m *Mapper) clockMMC3() {
	s := &m.mmc3
	if s.counter == 0 || s.reloadReq {
		s.counter = s.reload
		s.reloadReq = false
	} else {
		s.counter--
	}
	if s.counter == 0 && s.enabled && m.irq != nil {
		m.irq.Set(interrupt.IRQMapper)
	}
}
