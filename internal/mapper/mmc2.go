package mapper

import "nescore/internal/cartridge"

// mmc2State holds the two CHR latches and the four candidate 4KB banks.
// MMC4 shares the layout with a 16KB PRG window.
type mmc2State struct {
	latch [2]uint8    // 0xFD or 0xFE
	banks [2][2]uint8 // [half][latch-0xFD]
}

func (m *Mapper) resetMMC2() {
	m.mmc2 = mmc2State{latch: [2]uint8{0xFE, 0xFE}}
	if m.kind == KindMMC4 {
		m.BankPRG16k(Slot8000, cartridge.PRGROM, 0)
		m.BankPRG16k(SlotC000, cartridge.PRGROM, -1)
	} else {
		m.BankPRG8k(Slot8000, cartridge.PRGROM, 0)
		m.BankPRG8k(SlotA000, cartridge.PRGROM, -3)
		m.BankPRG8k(SlotC000, cartridge.PRGROM, -2)
		m.BankPRG8k(SlotE000, cartridge.PRGROM, -1)
	}
	m.applyMMC2()
}

func (m *Mapper) writeMMC2(addr uint16, value uint8) {
	s := &m.mmc2
	switch addr & 0xF000 {
	case 0xA000:
		if m.kind == KindMMC4 {
			m.BankPRG16k(Slot8000, cartridge.PRGROM, int(value&0x0F))
		} else {
			m.BankPRG8k(Slot8000, cartridge.PRGROM, int(value&0x0F))
		}
	case 0xB000:
		s.banks[0][0] = value & 0x1F
	case 0xC000:
		s.banks[0][1] = value & 0x1F
	case 0xD000:
		s.banks[1][0] = value & 0x1F
	case 0xE000:
		s.banks[1][1] = value & 0x1F
	case 0xF000:
		if value&0x01 != 0 {
			m.Mirror(cartridge.MirrorHorizontal)
		} else {
			m.Mirror(cartridge.MirrorVertical)
		}
		return
	default:
		return
	}
	m.applyMMC2()
}

// videoReadMMC2 flips a latch after the PPU fetches tile $FD or $FE.
// MMC2 only triggers on the exact $0FD8/$0FE8 address for the low half.
func (m *Mapper) videoReadMMC2(addr uint16) {
	s := &m.mmc2
	var half int
	var latch uint8

	switch {
	case addr >= 0x0FD8 && addr <= 0x0FDF:
		half, latch = 0, 0xFD
	case addr >= 0x0FE8 && addr <= 0x0FEF:
		half, latch = 0, 0xFE
	case addr >= 0x1FD8 && addr <= 0x1FDF:
		half, latch = 1, 0xFD
	case addr >= 0x1FE8 && addr <= 0x1FEF:
		half, latch = 1, 0xFE
	default:
		return
	}
	if half == 0 && m.kind == KindMMC2 && addr&0x07 != 0 {
		return
	}
	if s.latch[half] == latch {
		return
	}
	s.latch[half] = latch
	m.applyMMC2()
}

func (m *Mapper) applyMMC2() {
	s := &m.mmc2
	m.BankCHR4k(0, int(s.banks[0][s.latch[0]-0xFD]))
	m.BankCHR4k(4, int(s.banks[1][s.latch[1]-0xFD]))
}
