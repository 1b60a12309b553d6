package mapper

import "nescore/internal/cartridge"

// mmc1State holds the serial shift register and the four internal registers
type mmc1State struct {
	shift   uint8
	control uint8
	chr0    uint8
	chr1    uint8
	prg     uint8
}

func (m *Mapper) resetMMC1() {
	m.mmc1 = mmc1State{shift: 0x10, control: 0x0C}
	m.applyMMC1()
}

// writeMMC1 feeds one bit into the shift register. The fifth write commits
// the value to the register selected by address bits 13-14; a write with
// bit 7 set resets the register and locks the last PRG bank at $C000.
func (m *Mapper) writeMMC1(addr uint16, value uint8) {
	s := &m.mmc1
	if value&0x80 != 0 {
		s.shift = 0x10
		s.control |= 0x0C
		m.applyMMC1()
		return
	}

	complete := s.shift&0x01 != 0
	s.shift = (s.shift >> 1) | (value&0x01)<<4
	if !complete {
		return
	}

	switch (addr >> 13) & 0x03 {
	case 0:
		s.control = s.shift
	case 1:
		s.chr0 = s.shift
	case 2:
		s.chr1 = s.shift
	case 3:
		s.prg = s.shift
	}
	s.shift = 0x10
	m.applyMMC1()
}

func (m *Mapper) applyMMC1() {
	s := &m.mmc1

	switch s.control & 0x03 {
	case 0:
		m.Mirror(cartridge.MirrorSingleLow)
	case 1:
		m.Mirror(cartridge.MirrorSingleHigh)
	case 2:
		m.Mirror(cartridge.MirrorVertical)
	case 3:
		m.Mirror(cartridge.MirrorHorizontal)
	}

	// 512KB boards use CHR bit 4 to pick the 256KB PRG half
	outer := 0
	if m.cart.Header.PRGROMBanks > 16 {
		outer = int(s.chr0 & 0x10)
	}
	bank := outer | int(s.prg&0x0F)

	switch (s.control >> 2) & 0x03 {
	case 0, 1:
		m.BankPRG32k(cartridge.PRGROM, bank>>1)
	case 2:
		m.BankPRG16k(Slot8000, cartridge.PRGROM, outer)
		m.BankPRG16k(SlotC000, cartridge.PRGROM, bank)
	case 3:
		m.BankPRG16k(Slot8000, cartridge.PRGROM, bank)
		m.BankPRG16k(SlotC000, cartridge.PRGROM, outer|0x0F)
	}

	if s.control&0x10 == 0 {
		m.BankCHR8k(int(s.chr0 >> 1))
	} else {
		m.BankCHR4k(0, int(s.chr0))
		m.BankCHR4k(4, int(s.chr1))
	}

	m.prgRAMEnabled = s.prg&0x10 == 0
}
