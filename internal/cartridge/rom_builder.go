package cartridge

import (
	"bytes"
)

// ROMBuilder assembles in-memory iNES / NES 2.0 images for tests, the
// benchmark driver and the suite runner
type ROMBuilder struct {
	prgBanks  int // 16KB units
	chrBanks  int // 8KB units
	mapper    uint16
	submapper uint8
	mirroring MirrorMode
	battery   bool
	nes2      bool
	trainer   []uint8

	code  map[uint16][]uint8 // CPU-visible addresses in the last 32KB
	banks map[int][]uint8    // raw PRG offsets
	chr   []uint8

	resetVector uint16
	nmiVector   uint16
	irqVector   uint16
}

// NewROMBuilder returns a builder for a 16KB NROM image with 8KB CHR ROM
func NewROMBuilder() *ROMBuilder {
	return &ROMBuilder{
		prgBanks:    1,
		chrBanks:    1,
		mirroring:   MirrorHorizontal,
		code:        make(map[uint16][]uint8),
		banks:       make(map[int][]uint8),
		resetVector: 0x8000,
		nmiVector:   0x8000,
		irqVector:   0x8000,
	}
}

// WithPRGBanks sets the PRG ROM size in 16KB units
func (b *ROMBuilder) WithPRGBanks(n int) *ROMBuilder {
	b.prgBanks = n
	return b
}

// WithCHRBanks sets the CHR ROM size in 8KB units (0 selects CHR RAM)
func (b *ROMBuilder) WithCHRBanks(n int) *ROMBuilder {
	b.chrBanks = n
	return b
}

// WithMapper sets the mapper number. Numbers above 255 force NES 2.0.
func (b *ROMBuilder) WithMapper(id uint16) *ROMBuilder {
	b.mapper = id
	if id > 0xFF {
		b.nes2 = true
	}
	return b
}

// WithSubmapper sets the NES 2.0 submapper and forces NES 2.0
func (b *ROMBuilder) WithSubmapper(sub uint8) *ROMBuilder {
	b.submapper = sub
	b.nes2 = true
	return b
}

// WithNES2 selects the NES 2.0 header format
func (b *ROMBuilder) WithNES2() *ROMBuilder {
	b.nes2 = true
	return b
}

// WithMirroring sets the header mirroring bits
func (b *ROMBuilder) WithMirroring(m MirrorMode) *ROMBuilder {
	b.mirroring = m
	return b
}

// WithBattery marks PRG-RAM as battery backed
func (b *ROMBuilder) WithBattery() *ROMBuilder {
	b.battery = true
	return b
}

// WithTrainer adds a 512-byte trainer
func (b *ROMBuilder) WithTrainer(data []uint8) *ROMBuilder {
	b.trainer = make([]uint8, trainerLen)
	copy(b.trainer, data)
	return b
}

// WithCode places bytes at a CPU address in the fixed upper PRG region
// ($8000-$FFFF as mapped at power-on by NROM-like boards)
func (b *ROMBuilder) WithCode(addr uint16, code ...uint8) *ROMBuilder {
	b.code[addr] = append([]uint8(nil), code...)
	return b
}

// WithPRGData places bytes at a raw offset into PRG ROM
func (b *ROMBuilder) WithPRGData(offset int, data ...uint8) *ROMBuilder {
	b.banks[offset] = append([]uint8(nil), data...)
	return b
}

// WithCHRData sets the initial CHR ROM contents
func (b *ROMBuilder) WithCHRData(data []uint8) *ROMBuilder {
	b.chr = append([]uint8(nil), data...)
	return b
}

// WithResetVector sets the reset vector
func (b *ROMBuilder) WithResetVector(addr uint16) *ROMBuilder {
	b.resetVector = addr
	return b
}

// WithNMIVector sets the NMI vector
func (b *ROMBuilder) WithNMIVector(addr uint16) *ROMBuilder {
	b.nmiVector = addr
	return b
}

// WithIRQVector sets the IRQ/BRK vector
func (b *ROMBuilder) WithIRQVector(addr uint16) *ROMBuilder {
	b.irqVector = addr
	return b
}

// Build returns the encoded image
func (b *ROMBuilder) Build() []byte {
	var out bytes.Buffer
	out.Write(b.header())
	if b.trainer != nil {
		out.Write(b.trainer)
	}

	prg := make([]uint8, b.prgBanks*prgROMUnit)
	for offset, data := range b.banks {
		copy(prg[offset:], data)
	}
	for addr, data := range b.code {
		copy(prg[b.prgOffset(addr):], data)
	}
	vectors := []uint8{
		uint8(b.nmiVector), uint8(b.nmiVector >> 8),
		uint8(b.resetVector), uint8(b.resetVector >> 8),
		uint8(b.irqVector), uint8(b.irqVector >> 8),
	}
	copy(prg[len(prg)-6:], vectors)
	out.Write(prg)

	if b.chrBanks > 0 {
		chr := make([]uint8, b.chrBanks*chrROMUnit)
		copy(chr, b.chr)
		out.Write(chr)
	}
	return out.Bytes()
}

// BuildCartridge builds and loads the image
func (b *ROMBuilder) BuildCartridge() (*Cartridge, error) {
	return Load(b.Build())
}

// prgOffset maps a CPU address to the last 16KB or 32KB of PRG ROM
func (b *ROMBuilder) prgOffset(addr uint16) int {
	size := b.prgBanks * prgROMUnit
	if size <= prgROMUnit {
		return int(addr & 0x3FFF)
	}
	return size - 0x8000 + int(addr-0x8000)
}

func (b *ROMBuilder) header() []byte {
	h := make([]byte, HeaderSize)
	copy(h, "NES\x1A")
	h[4] = uint8(b.prgBanks)
	h[5] = uint8(b.chrBanks)

	flags6 := uint8(b.mapper&0x0F) << 4
	switch b.mirroring {
	case MirrorVertical:
		flags6 |= 0x01
	case MirrorFourScreen:
		flags6 |= 0x08
	}
	if b.battery {
		flags6 |= 0x02
	}
	if b.trainer != nil {
		flags6 |= 0x04
	}
	h[6] = flags6
	h[7] = uint8(b.mapper & 0xF0)

	if b.nes2 {
		h[7] |= 0x08
		h[8] = b.submapper<<4 | uint8(b.mapper>>8)&0x0F
		h[9] = uint8(b.chrBanks>>8)<<4 | uint8(b.prgBanks>>8)&0x0F
		h[4] = uint8(b.prgBanks)
		h[5] = uint8(b.chrBanks)
		if b.battery {
			h[10] = 0x70 // 8KB NVRAM
		} else {
			h[10] = 0x07 // 8KB RAM
		}
		if b.chrBanks == 0 {
			h[11] = 0x07
		}
	}
	return h
}
