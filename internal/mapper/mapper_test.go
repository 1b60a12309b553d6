package mapper

import (
	"errors"
	"testing"

	"nescore/internal/cartridge"
	"nescore/internal/interrupt"
)

// taggedCart builds a cartridge whose 8KB PRG banks and 1KB CHR banks start
// with their own bank number
func taggedCart(t *testing.T, mapperID uint16, prg16k, chr8k int) *cartridge.Cartridge {
	t.Helper()
	b := cartridge.NewROMBuilder().
		WithMapper(mapperID).
		WithPRGBanks(prg16k).
		WithCHRBanks(chr8k)
	for bank := 0; bank < prg16k*2; bank++ {
		b.WithPRGData(bank*cartridge.PRGBankSize, uint8(bank))
	}
	chr := make([]uint8, chr8k*0x2000)
	for bank := 0; bank < chr8k*8; bank++ {
		chr[bank*cartridge.CHRBankSize] = uint8(bank)
	}
	b.WithCHRData(chr)

	cart, err := b.BuildCartridge()
	if err != nil {
		t.Fatalf("BuildCartridge failed: %v", err)
	}
	return cart
}

func newMapper(t *testing.T, mapperID uint16, prg16k, chr8k int) (*Mapper, *interrupt.Line) {
	t.Helper()
	irq := interrupt.NewLevel()
	m, err := New(taggedCart(t, mapperID, prg16k, chr8k), irq)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return m, irq
}

func expectPRG(t *testing.T, m *Mapper, addr uint16, bank uint8) {
	t.Helper()
	if got := m.ReadPRG(addr); got != bank {
		t.Errorf("$%04X maps bank %d, want %d", addr, got, bank)
	}
}

func expectCHR(t *testing.T, m *Mapper, addr uint16, bank uint8) {
	t.Helper()
	if got := m.ReadCHR(addr); got != bank {
		t.Errorf("CHR $%04X maps bank %d, want %d", addr, got, bank)
	}
}

func TestUnknownMapper(t *testing.T) {
	cart := taggedCart(t, 5, 1, 1)
	m, err := New(cart, interrupt.NewLevel())
	if m != nil {
		t.Error("unsupported mapper returned an instance")
	}
	if !errors.Is(err, cartridge.ErrUnknownMapper) {
		t.Errorf("got %v, want ErrUnknownMapper", err)
	}
	if Supported(5) || !Supported(4) {
		t.Error("Supported disagrees with the variant table")
	}
}

func TestNegativeBankIndex(t *testing.T) {
	for prg16k := 1; prg16k <= 16; prg16k++ {
		m, _ := newMapper(t, 4, prg16k, 1)
		n := prg16k * 2

		m.BankPRG8k(Slot8000, cartridge.PRGROM, -1)
		neg := m.ReadPRG(0x8000)
		m.BankPRG8k(Slot8000, cartridge.PRGROM, n-1)
		pos := m.ReadPRG(0x8000)
		if neg != pos {
			t.Errorf("N=%d: bank -1 reads %d, bank N-1 reads %d", n, neg, pos)
		}
		if pos != uint8(n-1) {
			t.Errorf("N=%d: last bank reads %d", n, pos)
		}
	}
}

func TestMirrorPatterns(t *testing.T) {
	m, _ := newMapper(t, 0, 1, 1)

	tests := []struct {
		mode cartridge.MirrorMode
		want [4]uint8
		got  cartridge.MirrorMode
	}{
		{cartridge.MirrorHorizontal, [4]uint8{0, 0, 1, 1}, cartridge.MirrorHorizontal},
		{cartridge.MirrorVertical, [4]uint8{0, 1, 0, 1}, cartridge.MirrorVertical},
		{cartridge.MirrorSingleLow, [4]uint8{0, 0, 0, 0}, cartridge.MirrorSingleLow},
		{cartridge.MirrorSingleHigh, [4]uint8{1, 1, 1, 1}, cartridge.MirrorSingleHigh},
		{cartridge.MirrorFourScreen, [4]uint8{0, 1, 0, 1}, cartridge.MirrorVertical},
	}

	for _, tt := range tests {
		m.Mirror(tt.mode)
		if m.Nametables() != tt.want {
			t.Errorf("%v: quadrants %v, want %v", tt.mode, m.Nametables(), tt.want)
		}
		if m.Mirroring() != tt.got {
			t.Errorf("%v: mode reported as %v", tt.mode, m.Mirroring())
		}
		for q := uint16(0); q < 4; q++ {
			if page := m.NametablePage(0x2000 + q*0x400 + 0x123); page != tt.want[q] {
				t.Errorf("%v: quadrant %d resolves to page %d", tt.mode, q, page)
			}
		}
	}
}

func TestNROMMirrorsSmallPRG(t *testing.T) {
	m, _ := newMapper(t, 0, 1, 1)
	expectPRG(t, m, 0x8000, 0)
	expectPRG(t, m, 0xA000, 1)
	expectPRG(t, m, 0xC000, 0)
	expectPRG(t, m, 0xE000, 1)

	m.WritePRG(0x8000, 0xFF)
	expectPRG(t, m, 0x8000, 0)
}

func TestPRGRAM(t *testing.T) {
	m, _ := newMapper(t, 0, 1, 1)
	m.WritePRG(0x6000, 0x5A)
	m.WritePRG(0x7FFF, 0xA5)
	if m.ReadPRG(0x6000) != 0x5A || m.ReadPRG(0x7FFF) != 0xA5 {
		t.Error("PRG-RAM did not retain writes")
	}
	if m.ReadPRG(0x5000) != 0 {
		t.Error("expansion area should read 0")
	}
}

func TestUxROM(t *testing.T) {
	m, _ := newMapper(t, 2, 8, 0)
	expectPRG(t, m, 0x8000, 0)
	expectPRG(t, m, 0xC000, 14)
	expectPRG(t, m, 0xE000, 15)

	m.WritePRG(0x8000, 3)
	expectPRG(t, m, 0x8000, 6)
	expectPRG(t, m, 0xA000, 7)
	expectPRG(t, m, 0xC000, 14)
}

func TestUxROM180(t *testing.T) {
	m, _ := newMapper(t, 180, 4, 0)
	m.WritePRG(0x8000, 2)
	expectPRG(t, m, 0x8000, 0)
	expectPRG(t, m, 0xC000, 4)
}

func TestCHRRAMWrites(t *testing.T) {
	m, _ := newMapper(t, 2, 2, 0)
	m.WriteCHR(0x1234, 0x77)
	if got := m.ReadCHR(0x1234); got != 0x77 {
		t.Errorf("CHR RAM read %02X, want 77", got)
	}

	rom, _ := newMapper(t, 0, 1, 1)
	rom.WriteCHR(0x0000, 0x77)
	expectCHR(t, rom, 0x0000, 0)
}

func TestCNROM(t *testing.T) {
	m, _ := newMapper(t, 3, 2, 4)
	m.WritePRG(0x8000, 2)
	expectCHR(t, m, 0x0000, 16)
	expectCHR(t, m, 0x1C00, 23)
}

func TestAxROM(t *testing.T) {
	m, _ := newMapper(t, 7, 8, 0)
	if m.Mirroring() != cartridge.MirrorSingleLow {
		t.Errorf("power-on mirroring %v", m.Mirroring())
	}
	m.WritePRG(0x8000, 0x12)
	expectPRG(t, m, 0x8000, 8)
	expectPRG(t, m, 0xE000, 11)
	if m.Nametables() != [4]uint8{1, 1, 1, 1} {
		t.Errorf("bit 4 should select the high page, got %v", m.Nametables())
	}
}

func TestBusConflicts(t *testing.T) {
	cart, err := cartridge.NewROMBuilder().
		WithMapper(7).
		WithSubmapper(2).
		WithPRGBanks(8).
		WithCHRBanks(0).
		WithPRGData(0x10, 0x01).
		BuildCartridge()
	if err != nil {
		t.Fatal(err)
	}
	m, err := New(cart, interrupt.NewLevel())
	if err != nil {
		t.Fatal(err)
	}
	// ROM holds $01 at $8010, so writing $03 there selects bank 1
	m.WritePRG(0x8010, 0x03)
	if seg, off := m.PRGOffset(0x8000); seg != cartridge.PRGROM || off != 0x8000 {
		t.Errorf("PRGOffset = %v+%X, want PRG-ROM+8000", seg, off)
	}
}

func TestColorDreamsAndGxROM(t *testing.T) {
	cd, _ := newMapper(t, 11, 8, 4)
	cd.WritePRG(0x8000, 0x21)
	expectPRG(t, cd, 0x8000, 4)
	expectCHR(t, cd, 0x0000, 16)

	gx, _ := newMapper(t, 66, 8, 4)
	gx.WritePRG(0x8000, 0x12)
	expectPRG(t, gx, 0x8000, 4)
	expectCHR(t, gx, 0x0000, 16)
}

func TestPRGRemapHook(t *testing.T) {
	m, _ := newMapper(t, 2, 8, 0)
	var bases []uint16
	m.OnPRGRemap(func(base uint16) { bases = append(bases, base) })

	m.WritePRG(0x8000, 1)
	if len(bases) != 2 || bases[0] != 0x8000 || bases[1] != 0xA000 {
		t.Errorf("remap hook saw %X, want [8000 A000]", bases)
	}

	bases = nil
	m.WritePRG(0x8000, 1)
	if len(bases) != 0 {
		t.Errorf("rewriting the same bank fired the hook for %X", bases)
	}

	// Bank 9 of an 8-bank segment resolves to bank 1
	m.BankPRG16k(Slot8000, cartridge.PRGROM, 9)
	if len(bases) != 0 {
		t.Errorf("equivalent bank index fired the hook for %X", bases)
	}
}
