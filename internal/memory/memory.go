// Package memory implements the CPU and PPU address space routers.
package memory

// Memory represents the CPU memory map
type Memory struct {
	// Internal RAM (2KB, mirrored to 8KB)
	ram [0x800]uint8

	// PPU registers (mirrored every 8 bytes)
	ppuRegisters PPUInterface

	// APU and I/O registers
	apuRegisters APUInterface

	// Input system
	inputSystem InputInterface

	// Cartridge ($6000-$FFFF)
	cartridge CartridgeInterface

	// DMA callback
	dmaCallback func(uint8)

	// Open bus - last value read from bus (for unmapped areas)
	openBusValue uint8
}

// PPUInterface defines the interface for PPU register access
type PPUInterface interface {
	ReadRegister(address uint16) uint8
	WriteRegister(address uint16, value uint8)
}

// APUInterface defines the interface for APU register access
type APUInterface interface {
	WriteRegister(address uint16, value uint8)
	ReadStatus() uint8
}

// InputInterface defines the interface for input system access
type InputInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// CartridgeInterface defines the CPU side of a mapper
type CartridgeInterface interface {
	ReadPRG(address uint16) uint8
	WritePRG(address uint16, value uint8)
}

// New creates a new Memory instance
func New(ppu PPUInterface, apu APUInterface, cart CartridgeInterface) *Memory {
	return &Memory{
		ppuRegisters: ppu,
		apuRegisters: apu,
		cartridge:    cart,
	}
}

// SetInputSystem sets the input system for controller access
func (m *Memory) SetInputSystem(input InputInterface) {
	m.inputSystem = input
}

// SetDMACallback sets the handler for $4014 writes
func (m *Memory) SetDMACallback(callback func(uint8)) {
	m.dmaCallback = callback
}

// Reset clears internal RAM and the open bus latch. It is the power-on
// path; a console reset leaves RAM alone.
func (m *Memory) Reset() {
	m.ram = [0x800]uint8{}
	m.openBusValue = 0
}

// Read reads a byte from the given address
func (m *Memory) Read(address uint16) uint8 {
	var value uint8

	switch {
	case address < 0x2000:
		value = m.ram[address&0x07FF]

	case address < 0x4000:
		value = m.ppuRegisters.ReadRegister(0x2000 + (address & 0x0007))

	case address < 0x4020:
		switch address {
		case 0x4015:
			value = m.apuRegisters.ReadStatus()
		case 0x4016, 0x4017:
			if m.inputSystem != nil {
				// Upper bits come from the open bus
				value = m.inputSystem.Read(address) | (m.openBusValue & 0xE0)
			} else {
				value = m.openBusValue
			}
		default:
			// Write-only registers
			value = m.openBusValue
		}

	case address < 0x6000:
		// Expansion area, unmapped
		value = m.openBusValue

	default:
		if m.cartridge != nil {
			value = m.cartridge.ReadPRG(address)
		} else {
			value = m.openBusValue
		}
	}

	m.openBusValue = value
	return value
}

// Write writes a byte to the given address
func (m *Memory) Write(address uint16, value uint8) {
	switch {
	case address < 0x2000:
		m.ram[address&0x07FF] = value

	case address < 0x4000:
		m.ppuRegisters.WriteRegister(0x2000+(address&0x0007), value)

	case address < 0x4020:
		switch {
		case address == 0x4014:
			if m.dmaCallback != nil {
				m.dmaCallback(value)
			} else {
				m.performOAMDMA(value)
			}
		case address == 0x4016:
			if m.inputSystem != nil {
				m.inputSystem.Write(address, value)
			}
		case address <= 0x4017:
			m.apuRegisters.WriteRegister(address, value)
		}
		// Test mode registers ($4018-$401F) are ignored

	case address < 0x6000:
		// Expansion area, writes ignored

	default:
		if m.cartridge != nil {
			m.cartridge.WritePRG(address, value)
		}
	}
}

// Peek reads without side effects. Registers report the open bus value.
func (m *Memory) Peek(address uint16) uint8 {
	switch {
	case address < 0x2000:
		return m.ram[address&0x07FF]
	case address >= 0x6000 && m.cartridge != nil:
		return m.cartridge.ReadPRG(address)
	}
	return m.openBusValue
}

// performOAMDMA copies one CPU page to OAM through $2004
func (m *Memory) performOAMDMA(page uint8) {
	base := uint16(page) << 8
	for i := uint16(0); i < 256; i++ {
		m.ppuRegisters.WriteRegister(0x2004, m.Read(base+i))
	}
}
