package mapper

import (
	"testing"

	"nescore/internal/cartridge"
)

func writeSerial(m *Mapper, addr uint16, value uint8) {
	for i := 0; i < 5; i++ {
		m.WritePRG(addr, (value>>i)&0x01)
	}
}

func TestMMC1PowerOn(t *testing.T) {
	m, _ := newMapper(t, 1, 8, 2)
	expectPRG(t, m, 0x8000, 0)
	expectPRG(t, m, 0xC000, 14)
	expectPRG(t, m, 0xE000, 15)
}

func TestMMC1PRGModes(t *testing.T) {
	m, _ := newMapper(t, 1, 8, 2)

	writeSerial(m, 0xE000, 0x03)
	expectPRG(t, m, 0x8000, 6)
	expectPRG(t, m, 0xC000, 14)

	// Mode 2 fixes the first bank at $8000
	writeSerial(m, 0x8000, 0x08)
	expectPRG(t, m, 0x8000, 0)
	expectPRG(t, m, 0xC000, 6)

	// 32KB mode ignores the low bit
	writeSerial(m, 0x8000, 0x00)
	expectPRG(t, m, 0x8000, 4)
	expectPRG(t, m, 0xE000, 7)
}

func TestMMC1Mirroring(t *testing.T) {
	m, _ := newMapper(t, 1, 2, 2)
	want := []cartridge.MirrorMode{
		cartridge.MirrorSingleLow,
		cartridge.MirrorSingleHigh,
		cartridge.MirrorVertical,
		cartridge.MirrorHorizontal,
	}
	for i, mode := range want {
		writeSerial(m, 0x8000, 0x0C|uint8(i))
		if m.Mirroring() != mode {
			t.Errorf("control %d: mirroring %v, want %v", i, m.Mirroring(), mode)
		}
	}
}

func TestMMC1CHRModes(t *testing.T) {
	m, _ := newMapper(t, 1, 2, 4)

	writeSerial(m, 0x8000, 0x1C)
	writeSerial(m, 0xA000, 0x03)
	writeSerial(m, 0xC000, 0x05)
	expectCHR(t, m, 0x0000, 12)
	expectCHR(t, m, 0x1000, 20)

	writeSerial(m, 0x8000, 0x0C)
	writeSerial(m, 0xA000, 0x02)
	expectCHR(t, m, 0x0000, 8)
	expectCHR(t, m, 0x1C00, 15)
}

func TestMMC1ResetBit(t *testing.T) {
	m, _ := newMapper(t, 1, 8, 2)
	writeSerial(m, 0x8000, 0x00)

	// A partial sequence is discarded by a write with bit 7 set
	m.WritePRG(0xE000, 0x01)
	m.WritePRG(0xE000, 0x01)
	m.WritePRG(0x8000, 0x80)
	expectPRG(t, m, 0xC000, 14)

	writeSerial(m, 0xE000, 0x02)
	expectPRG(t, m, 0x8000, 4)
}

func TestMMC1PRGRAMDisable(t *testing.T) {
	m, _ := newMapper(t, 1, 2, 2)
	m.WritePRG(0x6000, 0x42)
	writeSerial(m, 0xE000, 0x10)
	if m.ReadPRG(0x6000) != 0 {
		t.Error("disabled PRG-RAM still readable")
	}
	writeSerial(m, 0xE000, 0x00)
	if m.ReadPRG(0x6000) != 0x42 {
		t.Error("PRG-RAM contents lost across disable")
	}
}
