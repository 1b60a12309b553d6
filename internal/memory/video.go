package memory

// PatternMemory is the video side of a mapper
type PatternMemory interface {
	ReadCHR(address uint16) uint8
	WriteCHR(address uint16, value uint8)
	NametablePage(address uint16) uint8
	VideoRead(address uint16)
}

// VideoBus represents the PPU's memory space
type VideoBus struct {
	vram       [0x800]uint8 // two physical 1KB nametable pages
	paletteRAM [32]uint8
	cartridge  PatternMemory
}

// NewVideoBus creates a PPU address space backed by a mapper
func NewVideoBus(cart PatternMemory) *VideoBus {
	vb := &VideoBus{cartridge: cart}
	vb.Reset()
	return vb
}

// Reset clears VRAM and sets every palette entry to black. Only a power
// cycle does this.
func (vb *VideoBus) Reset() {
	vb.vram = [0x800]uint8{}
	for i := range vb.paletteRAM {
		vb.paletteRAM[i] = 0x0F
	}
}

// Read reads from PPU memory space ($0000-$3FFF). The mapper observes the
// address after the data is returned.
func (vb *VideoBus) Read(address uint16) uint8 {
	address &= 0x3FFF

	var value uint8
	switch {
	case address < 0x2000:
		value = vb.cartridge.ReadCHR(address)
	case address < 0x3F00:
		value = vb.vram[vb.nametableIndex(address)]
	default:
		value = vb.paletteRAM[paletteIndex(address)]
	}

	vb.cartridge.VideoRead(address)
	return value
}

// Write writes to PPU memory space ($0000-$3FFF)
func (vb *VideoBus) Write(address uint16, value uint8) {
	address &= 0x3FFF

	switch {
	case address < 0x2000:
		vb.cartridge.WriteCHR(address, value)
	case address < 0x3F00:
		vb.vram[vb.nametableIndex(address)] = value
	default:
		vb.paletteRAM[paletteIndex(address)] = value & 0x3F
	}
}

// Monitor lets the mapper observe an address latched by PPUADDR
func (vb *VideoBus) Monitor(address uint16) {
	vb.cartridge.VideoRead(address & 0x3FFF)
}

// Palette returns a palette entry without touching the bus
func (vb *VideoBus) Palette(index uint8) uint8 {
	return vb.paletteRAM[paletteIndex(uint16(index))]
}

// nametableIndex resolves $2000-$3EFF through the mapper's quadrant table.
// $3000-$3EFF mirrors $2000-$2EFF.
func (vb *VideoBus) nametableIndex(address uint16) uint16 {
	page := uint16(vb.cartridge.NametablePage(address) & 0x01)
	return page<<10 | address&0x03FF
}

// paletteIndex folds the 32-entry mirror and the four sprite backdrop
// aliases ($3F10/$3F14/$3F18/$3F1C)
func paletteIndex(address uint16) uint16 {
	index := address & 0x1F
	if index&0x13 == 0x10 {
		index &= 0x0F
	}
	return index
}
