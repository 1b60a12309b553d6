// Package cartridge implements ROM loading, segment storage and battery
// save persistence for NES cartridges.
package cartridge

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
)

// Cartridge owns the raw ROM and RAM buffers of a loaded image
type Cartridge struct {
	Header Header

	segments [segmentCount]Segment
	trainer  []uint8

	// Battery-backed PRG-RAM file, nil when unbound
	save     *os.File
	savePath string

	debug bool
}

// Load parses a complete ROM image held in memory
func Load(data []byte) (*Cartridge, error) {
	return LoadFromReader(bytes.NewReader(data))
}

// LoadFromFile loads a cartridge from an iNES or NES 2.0 file
func LoadFromFile(filename string) (*Cartridge, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, ioError(err)
	}
	defer file.Close()

	return LoadFromReader(file)
}

// LoadFromReader loads a cartridge from an io.Reader
func LoadFromReader(r io.Reader) (*Cartridge, error) {
	raw := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, badHeader("reading header: %v", err)
	}

	header, err := ParseHeader(raw)
	if err != nil {
		return nil, err
	}

	cart := &Cartridge{Header: header}

	if header.Trainer {
		cart.trainer = make([]uint8, trainerLen)
		if _, err := io.ReadFull(r, cart.trainer); err != nil {
			return nil, ioError(fmt.Errorf("reading trainer: %w", err))
		}
	}

	prg, err := readSegment(r, header.PRGROMSize, PRGBankSize)
	if err != nil {
		return nil, ioError(fmt.Errorf("reading PRG ROM: %w", err))
	}
	cart.segments[PRGROM] = Segment{Data: prg, BankSize: PRGBankSize}

	if header.CHRROMSize > 0 {
		chr, err := readSegment(r, header.CHRROMSize, CHRBankSize)
		if err != nil {
			return nil, ioError(fmt.Errorf("reading CHR ROM: %w", err))
		}
		cart.segments[CHRROM] = Segment{Data: chr, BankSize: CHRBankSize}
	} else {
		size := header.CHRRAMSize + header.CHRNVRAMSize
		cart.segments[CHRRAM] = Segment{
			Data:     make([]uint8, roundUp(max(size, 0x2000), CHRBankSize)),
			BankSize: CHRBankSize,
		}
	}

	// iNES 1.0 never declares PRG-RAM, and NES 2.0 images that omit it
	// still expect the open $6000 window on most boards.
	ramSize := header.PRGRAMSize + header.PRGNVRAMSize
	cart.segments[PRGRAM] = Segment{
		Data:     make([]uint8, roundUp(max(ramSize, PRGBankSize), PRGBankSize)),
		BankSize: PRGBankSize,
	}

	if cart.trainer != nil {
		copy(cart.segments[PRGRAM].Data[0x1000:], cart.trainer)
	}

	return cart, nil
}

// readSegment reads exactly size bytes, growing the buffer with the data
// actually present so a header that overstates its size cannot force a
// large allocation. The result is padded to a whole number of banks.
func readSegment(r io.Reader, size, bankSize int) ([]uint8, error) {
	data, err := io.ReadAll(io.LimitReader(r, int64(size)))
	if err != nil {
		return nil, err
	}
	if len(data) < size {
		return nil, io.ErrUnexpectedEOF
	}
	padded := make([]uint8, roundUp(size, bankSize))
	copy(padded, data)
	return padded, nil
}

// Segment returns the named buffer
func (c *Cartridge) Segment(id SegmentID) *Segment {
	return &c.segments[id]
}

// MapperID returns the mapper number declared in the header
func (c *Cartridge) MapperID() uint16 {
	return c.Header.Mapper
}

// Mirroring returns the header-declared nametable mirroring
func (c *Cartridge) Mirroring() MirrorMode {
	return c.Header.Mirroring
}

// HasBattery reports whether PRG-RAM is battery backed
func (c *Cartridge) HasBattery() bool {
	return c.Header.Battery
}

// HasCHRRAM reports whether pattern memory is writable RAM
func (c *Cartridge) HasCHRRAM() bool {
	return len(c.segments[CHRROM].Data) == 0
}

// CHRSegment returns the segment backing pattern memory
func (c *Cartridge) CHRSegment() SegmentID {
	if c.HasCHRRAM() {
		return CHRRAM
	}
	return CHRROM
}

// EnableDebug toggles load/save logging
func (c *Cartridge) EnableDebug(enable bool) {
	c.debug = enable
}

func (c *Cartridge) logf(format string, args ...interface{}) {
	if c.debug {
		log.Printf("[CART] "+format, args...)
	}
}

func roundUp(n, unit int) int {
	if n%unit == 0 {
		return n
	}
	return n + unit - n%unit
}
