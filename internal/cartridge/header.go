package cartridge

import (
	"bytes"
	"encoding/binary"
)

// HeaderSize is the size of the iNES / NES 2.0 header in bytes
const HeaderSize = 16

const (
	prgROMUnit = 0x4000
	chrROMUnit = 0x2000
	trainerLen = 512

	// maxROMSize bounds a declared PRG or CHR size; the largest NES 2.0
	// bank-count form is just under 64MB
	maxROMSize = 64 << 20
)

// MirrorMode represents the nametable mirroring mode
type MirrorMode uint8

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorSingleLow
	MirrorSingleHigh
	MirrorFourScreen
)

func (m MirrorMode) String() string {
	switch m {
	case MirrorHorizontal:
		return "horizontal"
	case MirrorVertical:
		return "vertical"
	case MirrorSingleLow:
		return "single-low"
	case MirrorSingleHigh:
		return "single-high"
	case MirrorFourScreen:
		return "four-screen"
	}
	return "unknown"
}

// Region is the timing standard declared by a NES 2.0 header
type Region uint8

const (
	RegionNTSC Region = iota
	RegionPAL
	RegionMulti
	RegionDendy
)

// rawHeader mirrors the on-disk layout
type rawHeader struct {
	Magic    [4]uint8
	PRGLo    uint8 // 16KB units
	CHRLo    uint8 // 8KB units
	Flags6   uint8
	Flags7   uint8
	Mapper8  uint8 // NES 2.0: submapper << 4 | mapper bits 8-11
	SizeHi   uint8 // NES 2.0: CHR MSB << 4 | PRG MSB
	PRGRAM   uint8 // NES 2.0: NVRAM shift << 4 | RAM shift
	CHRRAM   uint8 // NES 2.0: CHR-NVRAM shift << 4 | CHR-RAM shift
	Timing   uint8
	Reserved [3]uint8
}

// Header is the decoded cartridge header
type Header struct {
	PRGROMBanks int // 16KB units
	CHRROMBanks int // 8KB units
	PRGROMSize  int // bytes
	CHRROMSize  int // bytes

	Mapper    uint16
	Submapper uint8

	Mirroring  MirrorMode
	Battery    bool
	Trainer    bool
	FourScreen bool
	VSSystem   bool
	PlayChoice bool
	NES2       bool

	PRGRAMSize   int // volatile bytes, NES 2.0 only
	PRGNVRAMSize int // battery-backed bytes, NES 2.0 only
	CHRRAMSize   int
	CHRNVRAMSize int
	Region       Region
}

// ParseHeader decodes the first HeaderSize bytes of a ROM image
func ParseHeader(data []byte) (Header, error) {
	var raw rawHeader
	if len(data) < HeaderSize {
		return Header{}, badHeader("header truncated: %d bytes", len(data))
	}
	if err := binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, &raw); err != nil {
		return Header{}, badHeader("header unreadable: %v", err)
	}
	if string(raw.Magic[:]) != "NES\x1A" {
		return Header{}, badHeader("bad magic %q", raw.Magic[:])
	}

	h := Header{
		Battery:    raw.Flags6&0x02 != 0,
		Trainer:    raw.Flags6&0x04 != 0,
		FourScreen: raw.Flags6&0x08 != 0,
		VSSystem:   raw.Flags7&0x01 != 0,
		PlayChoice: raw.Flags7&0x02 != 0,
		NES2:       (raw.Flags7>>2)&0x03 == 2,
	}

	switch {
	case h.FourScreen:
		h.Mirroring = MirrorFourScreen
	case raw.Flags6&0x01 != 0:
		h.Mirroring = MirrorVertical
	default:
		h.Mirroring = MirrorHorizontal
	}

	mapperLo := uint16(raw.Flags6 >> 4)
	mapperHi := uint16(raw.Flags7 & 0xF0)

	if h.NES2 {
		h.Mapper = mapperLo | mapperHi | uint16(raw.Mapper8&0x0F)<<8
		h.Submapper = raw.Mapper8 >> 4
		h.PRGROMBanks, h.PRGROMSize = romSize(raw.PRGLo, raw.SizeHi&0x0F, prgROMUnit)
		h.CHRROMBanks, h.CHRROMSize = romSize(raw.CHRLo, raw.SizeHi>>4, chrROMUnit)
		h.PRGRAMSize = shiftSize(raw.PRGRAM & 0x0F)
		h.PRGNVRAMSize = shiftSize(raw.PRGRAM >> 4)
		h.CHRRAMSize = shiftSize(raw.CHRRAM & 0x0F)
		h.CHRNVRAMSize = shiftSize(raw.CHRRAM >> 4)
		h.Region = Region(raw.Timing & 0x03)
	} else {
		// Old dumps carry garbage ("DiskDude!") in bytes 7-15
		if raw.Timing != 0 || raw.Reserved != [3]uint8{} {
			mapperHi = 0
		}
		h.Mapper = mapperLo | mapperHi
		h.PRGROMBanks = int(raw.PRGLo)
		h.CHRROMBanks = int(raw.CHRLo)
		h.PRGROMSize = h.PRGROMBanks * prgROMUnit
		h.CHRROMSize = h.CHRROMBanks * chrROMUnit
	}

	if h.PRGROMSize == 0 {
		return Header{}, badHeader("PRG ROM size cannot be zero")
	}
	if h.PRGROMSize < 0 || h.PRGROMSize > maxROMSize {
		return Header{}, badHeader("PRG ROM size %d out of range", h.PRGROMSize)
	}
	if h.CHRROMSize < 0 || h.CHRROMSize > maxROMSize {
		return Header{}, badHeader("CHR ROM size %d out of range", h.CHRROMSize)
	}
	return h, nil
}

// romSize decodes a NES 2.0 size pair. An MSB nibble of 0xF selects the
// exponent-multiplier form; exponents past 2^31 report -1 and are rejected
// by ParseHeader.
func romSize(lo, hi uint8, unit int) (banks, size int) {
	if hi == 0x0F {
		exp := uint(lo >> 2)
		if exp > 31 {
			return -1, -1
		}
		mul := int(lo&0x03)*2 + 1
		size = (1 << exp) * mul
		return (size + unit - 1) / unit, size
	}
	banks = int(lo) | int(hi)<<8
	return banks, banks * unit
}

func shiftSize(shift uint8) int {
	if shift == 0 {
		return 0
	}
	return 64 << shift
}
