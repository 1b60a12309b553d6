package mapper

import "nescore/internal/cartridge"

func (m *Mapper) resetAxROM() {
	m.BankPRG32k(cartridge.PRGROM, 0)
	m.Mirror(cartridge.MirrorSingleLow)
}

// writeAxROM selects a 32KB bank with bits 0-3 and the single-screen page
// with bit 4
func (m *Mapper) writeAxROM(value uint8) {
	m.BankPRG32k(cartridge.PRGROM, int(value&0x0F))
	if value&0x10 != 0 {
		m.Mirror(cartridge.MirrorSingleHigh)
	} else {
		m.Mirror(cartridge.MirrorSingleLow)
	}
}
