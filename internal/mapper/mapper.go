// Package mapper implements cartridge bank switching. A single Mapper type
// carries a variant tag chosen at load time; bank windows are stored as
// (segment, bank) pairs and resolved on every access.
package mapper

import (
	"fmt"
	"log"

	"nescore/internal/cartridge"
	"nescore/internal/interrupt"
)

// Kind identifies the board variant
type Kind uint8

const (
	KindNROM Kind = iota
	KindMMC1
	KindUxROM
	KindCNROM
	KindMMC3
	KindAxROM
	KindMMC2
	KindMMC4
	KindColorDreams
	KindGxROM
	KindUxROM180
)

var kindByID = map[uint16]Kind{
	0:   KindNROM,
	1:   KindMMC1,
	2:   KindUxROM,
	3:   KindCNROM,
	4:   KindMMC3,
	7:   KindAxROM,
	9:   KindMMC2,
	10:  KindMMC4,
	11:  KindColorDreams,
	66:  KindGxROM,
	180: KindUxROM180,
}

var kindNames = [...]string{"NROM", "MMC1", "UxROM", "CNROM", "MMC3", "AxROM", "MMC2", "MMC4", "Color Dreams", "GxROM", "UxROM (180)"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Supported reports whether a header mapper number has a variant
func Supported(id uint16) bool {
	_, ok := kindByID[id]
	return ok
}

// PRG slots, one per 8KB of CPU address space from $6000
const (
	Slot6000 = iota
	Slot8000
	SlotA000
	SlotC000
	SlotE000
	prgSlots
)

const chrSlots = 8

type window struct {
	seg  cartridge.SegmentID
	bank int
}

// Mapper owns the bank windows, the nametable mirroring table and the
// variant-specific register state of one cartridge
type Mapper struct {
	kind Kind
	cart *cartridge.Cartridge
	irq  *interrupt.Line

	prg        [prgSlots]window
	chr        [chrSlots]window
	nametables [4]uint8
	mirroring  cartridge.MirrorMode

	prgRAMEnabled  bool
	prgRAMWritable bool
	busConflicts   bool

	mmc1 mmc1State
	mmc2 mmc2State
	mmc3 mmc3State

	onPRGRemap func(base uint16)
	debug      bool
}

// New selects the variant for the cartridge's header mapper number and
// applies its power-on bank layout
func New(cart *cartridge.Cartridge, irq *interrupt.Line) (*Mapper, error) {
	kind, ok := kindByID[cart.MapperID()]
	if !ok {
		return nil, &cartridge.LoadError{
			Kind: cartridge.UnknownMapper,
			Err:  fmt.Errorf("mapper %d is not supported", cart.MapperID()),
		}
	}

	m := &Mapper{
		kind: kind,
		cart: cart,
		irq:  irq,
	}

	switch kind {
	case KindAxROM, KindCNROM, KindUxROM, KindColorDreams, KindGxROM:
		m.busConflicts = cart.Header.Submapper == 2
	}

	m.Reset()
	return m, nil
}

// Kind returns the board variant
func (m *Mapper) Kind() Kind {
	return m.kind
}

// OnPRGRemap registers a hook invoked with the CPU base address of every
// $8000-$FFFF window whose bank changes
func (m *Mapper) OnPRGRemap(fn func(base uint16)) {
	m.onPRGRemap = fn
}

// EnableDebug toggles register write logging
func (m *Mapper) EnableDebug(enable bool) {
	m.debug = enable
}

// Reset restores the power-on bank layout
func (m *Mapper) Reset() {
	m.prgRAMEnabled = true
	m.prgRAMWritable = true
	m.prg[Slot6000] = window{seg: cartridge.PRGRAM, bank: 0}
	m.BankCHR8k(0)
	m.Mirror(m.cart.Mirroring())
	if m.irq != nil {
		m.irq.Unset(interrupt.IRQMapper)
	}

	switch m.kind {
	case KindNROM, KindCNROM, KindColorDreams, KindGxROM:
		m.BankPRG32k(cartridge.PRGROM, 0)
	case KindAxROM:
		m.resetAxROM()
	case KindUxROM:
		m.BankPRG16k(Slot8000, cartridge.PRGROM, 0)
		m.BankPRG16k(SlotC000, cartridge.PRGROM, -1)
	case KindUxROM180:
		m.BankPRG16k(Slot8000, cartridge.PRGROM, 0)
		m.BankPRG16k(SlotC000, cartridge.PRGROM, 0)
	case KindMMC1:
		m.resetMMC1()
	case KindMMC2, KindMMC4:
		m.resetMMC2()
	case KindMMC3:
		m.resetMMC3()
	default:
		panic(fmt.Sprintf("mapper: reset for unknown kind %d", m.kind))
	}
}

// ReadPRG reads CPU space $6000-$FFFF through the PRG windows
func (m *Mapper) ReadPRG(addr uint16) uint8 {
	if addr < 0x6000 {
		return 0
	}
	if addr < 0x8000 && !m.prgRAMEnabled {
		return 0
	}
	w := m.prg[(addr-0x6000)>>13]
	return m.cart.Segment(w.seg).Read(w.bank, addr&0x1FFF)
}

// WritePRG handles CPU writes to $6000-$FFFF: PRG-RAM stores below $8000,
// register writes above
func (m *Mapper) WritePRG(addr uint16, value uint8) {
	switch {
	case addr < 0x6000:
		return
	case addr < 0x8000:
		if m.prgRAMEnabled && m.prgRAMWritable {
			w := m.prg[Slot6000]
			m.cart.Segment(w.seg).Write(w.bank, addr&0x1FFF, value)
		}
		return
	}

	if m.busConflicts {
		value &= m.ReadPRG(addr)
	}
	if m.debug {
		log.Printf("[MAPPER] %s write $%04X = $%02X", m.kind, addr, value)
	}

	switch m.kind {
	case KindNROM:
	case KindMMC1:
		m.writeMMC1(addr, value)
	case KindUxROM:
		m.BankPRG16k(Slot8000, cartridge.PRGROM, int(value))
	case KindUxROM180:
		m.BankPRG16k(SlotC000, cartridge.PRGROM, int(value))
	case KindCNROM:
		m.BankCHR8k(int(value))
	case KindMMC3:
		m.writeMMC3(addr, value)
	case KindAxROM:
		m.writeAxROM(value)
	case KindMMC2, KindMMC4:
		m.writeMMC2(addr, value)
	case KindColorDreams:
		m.BankPRG32k(cartridge.PRGROM, int(value&0x03))
		m.BankCHR8k(int(value >> 4))
	case KindGxROM:
		m.BankPRG32k(cartridge.PRGROM, int((value>>4)&0x03))
		m.BankCHR8k(int(value & 0x03))
	default:
		panic(fmt.Sprintf("mapper: write for unknown kind %d", m.kind))
	}
}

// ReadCHR reads pattern memory $0000-$1FFF through the CHR windows
func (m *Mapper) ReadCHR(addr uint16) uint8 {
	w := m.chr[(addr>>10)&7]
	return m.cart.Segment(w.seg).Read(w.bank, addr&0x03FF)
}

// WriteCHR stores to pattern memory when it is RAM
func (m *Mapper) WriteCHR(addr uint16, value uint8) {
	w := m.chr[(addr>>10)&7]
	if w.seg != cartridge.CHRRAM {
		return
	}
	m.cart.Segment(w.seg).Write(w.bank, addr&0x03FF, value)
}

// VideoRead observes every address driven on the video bus
func (m *Mapper) VideoRead(addr uint16) {
	switch m.kind {
	case KindMMC3:
		m.videoReadMMC3(addr)
	case KindMMC2, KindMMC4:
		m.videoReadMMC2(addr)
	}
}

// NametablePage returns the physical 1KB VRAM page backing a
// $2000-$3EFF address
func (m *Mapper) NametablePage(addr uint16) uint8 {
	return m.nametables[(addr>>10)&3]
}

// Nametables returns the current quadrant-to-page table
func (m *Mapper) Nametables() [4]uint8 {
	return m.nametables
}

// Mirroring returns the active mirroring mode
func (m *Mapper) Mirroring() cartridge.MirrorMode {
	return m.mirroring
}

// Mirror reassigns all four nametable quadrants in one step. Four-screen
// boards fall back to vertical mirroring since no extra VRAM is emulated.
func (m *Mapper) Mirror(mode cartridge.MirrorMode) {
	switch mode {
	case cartridge.MirrorSingleLow:
		m.nametables = [4]uint8{0, 0, 0, 0}
	case cartridge.MirrorSingleHigh:
		m.nametables = [4]uint8{1, 1, 1, 1}
	case cartridge.MirrorHorizontal:
		m.nametables = [4]uint8{0, 0, 1, 1}
	default:
		mode = cartridge.MirrorVertical
		m.nametables = [4]uint8{0, 1, 0, 1}
	}
	m.mirroring = mode
}

// BankPRG8k points one 8KB CPU slot at a bank of seg
func (m *Mapper) BankPRG8k(slot int, seg cartridge.SegmentID, bank int) {
	old := m.prg[slot]
	m.prg[slot] = window{seg: seg, bank: bank}
	if slot == Slot6000 || m.onPRGRemap == nil {
		return
	}
	s := m.cart.Segment(seg)
	if old.seg != seg || m.cart.Segment(old.seg).Offset(old.bank) != s.Offset(bank) {
		m.onPRGRemap(uint16(0x6000 + slot*0x2000))
	}
}

// BankPRG16k maps a 16KB bank at slot and slot+1
func (m *Mapper) BankPRG16k(slot int, seg cartridge.SegmentID, bank int) {
	m.BankPRG8k(slot, seg, bank*2)
	m.BankPRG8k(slot+1, seg, bank*2+1)
}

// BankPRG32k maps a 32KB bank over $8000-$FFFF
func (m *Mapper) BankPRG32k(seg cartridge.SegmentID, bank int) {
	for i := 0; i < 4; i++ {
		m.BankPRG8k(Slot8000+i, seg, bank*4+i)
	}
}

// BankCHR1k maps a 1KB pattern bank at slot (0-7)
func (m *Mapper) BankCHR1k(slot int, bank int) {
	m.chr[slot] = window{seg: m.cart.CHRSegment(), bank: bank}
}

// BankCHR2k maps a 2KB pattern bank starting at 1KB slot
func (m *Mapper) BankCHR2k(slot int, bank int) {
	m.BankCHR1k(slot, bank*2)
	m.BankCHR1k(slot+1, bank*2+1)
}

// BankCHR4k maps a 4KB pattern bank starting at 1KB slot
func (m *Mapper) BankCHR4k(slot int, bank int) {
	for i := 0; i < 4; i++ {
		m.BankCHR1k(slot+i, bank*4+i)
	}
}

// BankCHR8k maps the whole pattern space
func (m *Mapper) BankCHR8k(bank int) {
	for i := 0; i < chrSlots; i++ {
		m.BankCHR1k(i, bank*8+i)
	}
}

// PRGOffset returns the resolved segment and byte offset behind a CPU
// address, for debuggers and the decode cache
func (m *Mapper) PRGOffset(addr uint16) (cartridge.SegmentID, int) {
	w := m.prg[(addr-0x6000)>>13]
	return w.seg, m.cart.Segment(w.seg).Offset(w.bank) + int(addr&0x1FFF)
}
