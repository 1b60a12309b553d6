package cartridge

import (
	"errors"
	"testing"
)

// createHeader builds a raw 16-byte header
func createHeader(prgLo, chrLo, flags6, flags7 uint8, ext ...uint8) []byte {
	h := make([]byte, HeaderSize)
	copy(h, "NES\x1A")
	h[4] = prgLo
	h[5] = chrLo
	h[6] = flags6
	h[7] = flags7
	copy(h[8:], ext)
	return h
}

func TestParseHeaderBankCounts(t *testing.T) {
	for prg := 1; prg < 256; prg += 7 {
		for chr := 0; chr < 256; chr += 11 {
			h, err := ParseHeader(createHeader(uint8(prg), uint8(chr), 0, 0))
			if err != nil {
				t.Fatalf("prg=%d chr=%d: unexpected error %v", prg, chr, err)
			}
			if h.PRGROMBanks != prg || h.CHRROMBanks != chr {
				t.Errorf("got %d/%d banks, want %d/%d", h.PRGROMBanks, h.CHRROMBanks, prg, chr)
			}
			if h.PRGROMSize != prg*0x4000 || h.CHRROMSize != chr*0x2000 {
				t.Errorf("prg=%d chr=%d: sizes %d/%d", prg, chr, h.PRGROMSize, h.CHRROMSize)
			}
		}
	}
}

func TestParseHeaderNES2ExtendedSizes(t *testing.T) {
	tests := []struct {
		name    string
		prgLo   uint8
		chrLo   uint8
		sizeHi  uint8
		wantPRG int
		wantCHR int
	}{
		{"no extension", 2, 1, 0x00, 2, 1},
		{"prg msb", 0x10, 0x00, 0x01, 0x110, 0},
		{"chr msb", 0x01, 0x20, 0x30, 1, 0x320},
		{"both msb", 0xFF, 0xFF, 0x2E, 0xEFF, 0x2FF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := createHeader(tt.prgLo, tt.chrLo, 0, 0x08, 0x00, tt.sizeHi)
			h, err := ParseHeader(raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !h.NES2 {
				t.Fatal("expected NES 2.0 format")
			}
			if h.PRGROMBanks != tt.wantPRG {
				t.Errorf("PRG banks = %d, want %d", h.PRGROMBanks, tt.wantPRG)
			}
			if h.CHRROMBanks != tt.wantCHR {
				t.Errorf("CHR banks = %d, want %d", h.CHRROMBanks, tt.wantCHR)
			}
		})
	}
}

func TestParseHeaderNES2ExponentSize(t *testing.T) {
	// 2^15 * 1 = 32KB of PRG
	h, err := ParseHeader(createHeader(15<<2, 0, 0, 0x08, 0x00, 0x0F))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.PRGROMSize != 0x8000 || h.PRGROMBanks != 2 {
		t.Errorf("got size %d banks %d, want 32768/2", h.PRGROMSize, h.PRGROMBanks)
	}
}

func TestParseHeaderNES2ExponentPartialBank(t *testing.T) {
	// 2^10 * 1 = 1KB of PRG still occupies one bank
	h, err := ParseHeader(createHeader(10<<2, 0, 0, 0x08, 0x00, 0x0F))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.PRGROMSize != 0x400 || h.PRGROMBanks != 1 {
		t.Errorf("got size %d banks %d, want 1024/1", h.PRGROMSize, h.PRGROMBanks)
	}
}

func TestParseHeaderFlags(t *testing.T) {
	h, err := ParseHeader(createHeader(1, 1, 0x4F, 0x48|0x03, 0x52, 0x00, 0x07, 0x07, 0x01))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if h.Mapper != 0x244 {
		t.Errorf("Mapper = 0x%X, want 0x244", h.Mapper)
	}
	if h.Submapper != 5 {
		t.Errorf("Submapper = %d, want 5", h.Submapper)
	}
	if !h.Battery || !h.Trainer || !h.FourScreen {
		t.Errorf("flags6 bits lost: %+v", h)
	}
	if !h.VSSystem || !h.PlayChoice {
		t.Errorf("flags7 bits lost: %+v", h)
	}
	if h.Mirroring != MirrorFourScreen {
		t.Errorf("Mirroring = %v, want four-screen", h.Mirroring)
	}
	if h.PRGRAMSize != 8192 || h.CHRRAMSize != 8192 {
		t.Errorf("RAM sizes = %d/%d, want 8192/8192", h.PRGRAMSize, h.CHRRAMSize)
	}
	if h.Region != RegionPAL {
		t.Errorf("Region = %d, want PAL", h.Region)
	}
}

func TestParseHeaderMirroring(t *testing.T) {
	tests := []struct {
		flags6 uint8
		want   MirrorMode
	}{
		{0x00, MirrorHorizontal},
		{0x01, MirrorVertical},
		{0x08, MirrorFourScreen},
		{0x09, MirrorFourScreen},
	}
	for _, tt := range tests {
		h, err := ParseHeader(createHeader(1, 1, tt.flags6, 0))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if h.Mirroring != tt.want {
			t.Errorf("flags6=0x%02X: got %v, want %v", tt.flags6, h.Mirroring, tt.want)
		}
	}
}

func TestParseHeaderLegacyGarbage(t *testing.T) {
	raw := createHeader(1, 1, 0x10, 0x40)
	copy(raw[7:], "DiskDude!")
	raw[7] = 0x40
	h, err := ParseHeader(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Mapper != 1 {
		t.Errorf("Mapper = %d, want 1 (high nibble ignored)", h.Mapper)
	}
}

func TestParseHeaderErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"short", []byte("NES\x1A")},
		{"bad magic", append([]byte("ROM\x1A"), make([]byte, 12)...)},
		{"zero prg", createHeader(0, 1, 0, 0)},
		{"prg exponent overflow", createHeader(63<<2, 0, 0, 0x08, 0x00, 0x0F)},
		{"prg exponent too large", createHeader(30<<2, 0, 0, 0x08, 0x00, 0x0F)},
		{"chr exponent overflow", createHeader(1, 63<<2, 0, 0x08, 0x00, 0xF0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHeader(tt.data)
			if !errors.Is(err, ErrBadHeader) {
				t.Errorf("got %v, want ErrBadHeader", err)
			}
		})
	}
}
