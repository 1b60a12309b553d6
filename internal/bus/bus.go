// Package bus implements the machine aggregate that owns and wires every
// NES component.
package bus

import (
	"log"

	"nescore/internal/apu"
	"nescore/internal/cartridge"
	"nescore/internal/cpu"
	"nescore/internal/input"
	"nescore/internal/interrupt"
	"nescore/internal/mapper"
	"nescore/internal/memory"
	"nescore/internal/ppu"
)

// NTSC clock ratio and frame length
const (
	DotsPerCPUCycle = 3
	CyclesPerFrame  = ppu.DotsPerFrame / DotsPerCPUCycle
)

// oamDMACycles is the CPU stall of a $4014 write, plus one on odd cycles
const oamDMACycles = 513

// Bus connects all NES components together
type Bus struct {
	CPU    *cpu.CPU
	PPU    *ppu.PPU
	APU    *apu.APU
	Memory *memory.Memory
	Video  *memory.VideoBus
	Mapper *mapper.Mapper
	Input  *input.Ports
	Cart   *cartridge.Cartridge

	nmi *interrupt.Line
	irq *interrupt.Line

	debug bool
}

// New loads a ROM image and builds a powered-on machine. Load failures are
// returned as *cartridge.LoadError and no machine is produced.
func New(rom []byte) (*Bus, error) {
	cart, err := cartridge.Load(rom)
	if err != nil {
		return nil, err
	}
	return NewWithCartridge(cart)
}

// NewWithCartridge builds a machine around an already loaded cartridge
func NewWithCartridge(cart *cartridge.Cartridge) (*Bus, error) {
	b := &Bus{
		Cart:  cart,
		nmi:   interrupt.NewEdge(interrupt.NMIOccurred | interrupt.NMIOutput),
		irq:   interrupt.NewLevel(),
		Input: input.NewPorts(),
	}

	m, err := mapper.New(cart, b.irq)
	if err != nil {
		return nil, err
	}
	b.Mapper = m

	b.Video = memory.NewVideoBus(m)
	b.PPU = ppu.New(b.Video, b.nmi)
	b.APU = apu.New(b.irq)
	b.Memory = memory.New(b.PPU, b.APU, m)
	b.Memory.SetInputSystem(b.Input)
	b.Memory.SetDMACallback(b.oamDMA)
	b.CPU = cpu.New(b.Memory, b.nmi, b.irq)

	b.CPU.SetClock(b.clock)
	b.APU.SetMemory(b.Memory)
	b.APU.SetStallHandler(b.CPU.Stall)
	m.OnPRGRemap(b.CPU.Invalidate)

	b.PowerCycle()
	return b, nil
}

// Close flushes and releases the save file. The machine must not be used
// afterwards.
func (b *Bus) Close() error {
	if err := b.Cart.SyncSave(); err != nil {
		log.Printf("[BUS] save sync on close failed: %v", err)
	}
	return b.Cart.CloseSave()
}

// PowerCycle clears work RAM, nametable VRAM and palette RAM, then resets
// the console
func (b *Bus) PowerCycle() {
	b.Memory.Reset()
	b.Video.Reset()
	b.Reset()
}

// Reset performs a console reset: every component returns to its power-on
// state and the CPU reloads the reset vector. Work RAM, nametable VRAM and
// palette RAM are kept.
func (b *Bus) Reset() {
	b.nmi.Reset()
	b.irq.Reset()
	b.Mapper.Reset()
	b.PPU.Reset()
	b.APU.Reset()
	b.Input.Reset()
	b.CPU.Reset()
	if b.debug {
		log.Printf("[BUS] reset, PC=$%04X", b.CPU.PC())
	}
}

// clock is called by the CPU with the cost of every instruction, interrupt
// and stall; the PPU and APU catch up in the fixed 3:1 ratio
func (b *Bus) clock(cycles int) {
	b.PPU.Tick(cycles * DotsPerCPUCycle)
	b.APU.Clock(cycles)
}

// oamDMA copies a CPU page to OAM through $2004 and stalls the CPU
func (b *Bus) oamDMA(page uint8) {
	base := uint16(page) << 8
	for i := uint16(0); i < 256; i++ {
		b.PPU.WriteRegister(0x2004, b.Memory.Read(base+i))
	}
	stall := oamDMACycles
	if b.CPU.Cycles()&1 != 0 {
		stall++
	}
	b.CPU.Stall(stall)
	if b.debug {
		log.Printf("[BUS] OAM DMA from $%04X, stall %d", base, stall)
	}
}

// RunCycles runs whole instructions until at least count CPU cycles have
// elapsed and returns the number executed
func (b *Bus) RunCycles(count int) int {
	return b.CPU.Run(count)
}

// RunFrame runs until the PPU publishes the next frame and returns the
// cycles executed
func (b *Bus) RunFrame() int {
	start := b.PPU.FrameCount()
	total := 0
	for b.PPU.FrameCount() == start {
		total += b.CPU.Run(CyclesPerFrame / 8)
	}
	return total
}

// RegRead reads a PPU register directly, with its read side effects
func (b *Bus) RegRead(reg uint16) uint8 {
	return b.PPU.ReadRegister(0x2000 | reg&0x0007)
}

// RegWrite writes a PPU register directly
func (b *Bus) RegWrite(reg uint16, value uint8) {
	b.PPU.WriteRegister(0x2000|reg&0x0007, value)
}

// SetInput sets the controller 1 byte: bit 0 A, 1 B, 2 Select, 3 Start,
// 4 Up, 5 Down, 6 Left, 7 Right
func (b *Bus) SetInput(buttons uint8) {
	b.Input.Controller1.SetState(buttons)
}

// SetInput2 sets the controller 2 byte
func (b *Bus) SetInput2(buttons uint8) {
	b.Input.Controller2.SetState(buttons)
}

// SetFrameCallback registers the handler called once per completed frame
// with 256x240 palette indices. The buffer is reused between frames.
func (b *Bus) SetFrameCallback(fn func(frame *[ppu.FrameSize]uint8)) {
	b.PPU.SetFrameCallback(fn)
}

// SetAudioCallback registers the handler for signed 16-bit sample batches
func (b *Bus) SetAudioCallback(fn func(samples []int16)) {
	b.APU.SetCallback(fn)
}

// BindSaveFile attaches battery-backed PRG-RAM to a file. Carts without a
// battery ignore the call. An error leaves the machine running without
// persistence.
func (b *Bus) BindSaveFile(path string) error {
	return b.Cart.BindSaveFile(path)
}

// SyncSave writes PRG-RAM to the bound save file, if any
func (b *Bus) SyncSave() error {
	return b.Cart.SyncSave()
}

// Peek reads CPU memory without side effects
func (b *Bus) Peek(address uint16) uint8 {
	return b.Memory.Peek(address)
}

// CPUState returns a snapshot of the CPU registers
func (b *Bus) CPUState() cpu.State {
	return b.CPU.State()
}

// Frame returns the most recently published frame
func (b *Bus) Frame() *[ppu.FrameSize]uint8 {
	return b.PPU.Frame()
}

// FrameCount returns the number of frames published since power-on
func (b *Bus) FrameCount() uint64 {
	return b.PPU.FrameCount()
}

// Cycles returns the total CPU cycles executed
func (b *Bus) Cycles() uint64 {
	return b.CPU.Cycles()
}

// EnableDebug turns on logging in every component
func (b *Bus) EnableDebug(enable bool) {
	b.debug = enable
	b.CPU.EnableDebugLogging(enable)
	b.PPU.EnableDebugLogging(enable)
	b.APU.EnableDebugLogging(enable)
	b.Mapper.EnableDebug(enable)
	b.Input.EnableDebug(enable)
	b.Cart.EnableDebug(enable)
}
