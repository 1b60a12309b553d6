// Package cpu implements the 6502 CPU emulation for the NES. Instructions
// are decoded once into micro-op traces and replayed from a cache keyed by
// program counter.
package cpu

import (
	"fmt"
	"log"

	"nescore/internal/interrupt"
)

// Status register bits
const (
	FlagC uint8 = 0x01
	FlagZ uint8 = 0x02
	FlagI uint8 = 0x04
	FlagD uint8 = 0x08
	FlagB uint8 = 0x10
	FlagU uint8 = 0x20
	FlagV uint8 = 0x40
	FlagN uint8 = 0x80
)

const (
	stackBase       = 0x0100
	nmiVector       = 0xFFFA
	resetVector     = 0xFFFC
	irqVector       = 0xFFFE
	interruptCycles = 7
)

// MemoryInterface defines the interface for CPU memory access
type MemoryInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// State is a snapshot of the register file
type State struct {
	PC     uint16
	A      uint8
	X      uint8
	Y      uint8
	S      uint8
	P      uint8
	Cycles uint64
}

// CPU represents the 6502 processor used in the NES
type CPU struct {
	regs [4]uint8 // A, X, Y, S
	p    uint8
	pc   uint16

	cycles uint64
	stall  int

	memory MemoryInterface
	nmi    *interrupt.Line
	irq    *interrupt.Line
	clock  func(cycles int)

	cache   traceCache
	scratch trace

	enableDebugLogging bool
}

// New creates a CPU wired to a bus and the shared interrupt lines. Nil
// lines are replaced by private ones that never assert.
func New(memory MemoryInterface, nmi, irq *interrupt.Line) *CPU {
	if nmi == nil {
		nmi = interrupt.NewEdge(interrupt.NMIOccurred | interrupt.NMIOutput)
	}
	if irq == nil {
		irq = interrupt.NewLevel()
	}
	return &CPU{
		memory: memory,
		nmi:    nmi,
		irq:    irq,
		regs:   [4]uint8{regS: 0xFD},
		p:      FlagI | FlagU,
	}
}

// SetClock registers the hook called with the cycle cost of every
// instruction, interrupt entry and DMA stall as it completes
func (c *CPU) SetClock(fn func(cycles int)) {
	c.clock = fn
}

// Reset loads the reset vector and restores the power-up register state
func (c *CPU) Reset() {
	c.regs = [4]uint8{regS: 0xFD}
	c.p = FlagI | FlagU
	c.stall = 0
	c.cache.invalidateAll()
	c.pc = c.read16(resetVector)
	c.cycles += interruptCycles
}

// Run executes whole instructions until at least cycles have elapsed and
// returns the number actually executed
func (c *CPU) Run(cycles int) int {
	start := c.cycles
	target := start + uint64(cycles)
	pc := c.pc

	for c.cycles < target {
		if c.stall > 0 {
			n := c.stall
			c.stall = 0
			c.advance(n)
			continue
		}

		t := c.trace(pc)
		for i := range t.uops {
			if c.poll(&pc) {
				break
			}
			pc = c.exec(&t.uops[i], pc)
			if c.stall > 0 || c.cycles >= target || c.cache.stale(t) {
				break
			}
		}
	}

	c.pc = pc
	return int(c.cycles - start)
}

// Step executes a single instruction, servicing a pending interrupt first
func (c *CPU) Step() int {
	start := c.cycles
	pc := c.pc
	if c.stall > 0 {
		n := c.stall
		c.stall = 0
		c.advance(n)
	}
	if !c.poll(&pc) {
		t := c.trace(pc)
		pc = c.exec(&t.uops[0], pc)
	}
	c.pc = pc
	return int(c.cycles - start)
}

// Stall suspends instruction execution for n cycles, used by OAM DMA
func (c *CPU) Stall(n int) {
	c.stall += n
}

// Cycles returns the total number of cycles executed
func (c *CPU) Cycles() uint64 {
	return c.cycles
}

// Invalidate drops cached traces for the 8KB ROM window at base
func (c *CPU) Invalidate(base uint16) {
	if base >= cacheBase {
		c.cache.invalidate(int(base-cacheBase) >> 13)
	}
}

// InvalidateAll drops every cached trace
func (c *CPU) InvalidateAll() {
	c.cache.invalidateAll()
}

// CacheStats returns decode cache hit and miss counts
func (c *CPU) CacheStats() (hits, misses uint64) {
	return c.cache.hits, c.cache.misses
}

// State returns a snapshot of the registers
func (c *CPU) State() State {
	return State{
		PC:     c.pc,
		A:      c.regs[regA],
		X:      c.regs[regX],
		Y:      c.regs[regY],
		S:      c.regs[regS],
		P:      c.p,
		Cycles: c.cycles,
	}
}

// SetState overwrites the registers. The cycle counter is left unchanged.
func (c *CPU) SetState(s State) {
	c.pc = s.PC
	c.regs = [4]uint8{s.A, s.X, s.Y, s.S}
	c.p = s.P&^FlagB | FlagU
}

// SetPC moves the program counter
func (c *CPU) SetPC(pc uint16) {
	c.pc = pc
}

// PC returns the program counter
func (c *CPU) PC() uint16 {
	return c.pc
}

// EnableDebugLogging enables/disables CPU instruction logging
func (c *CPU) EnableDebugLogging(enable bool) {
	c.enableDebugLogging = enable
}

// advance accounts for elapsed cycles and lets the rest of the machine
// catch up
func (c *CPU) advance(n int) {
	c.cycles += uint64(n)
	if c.clock != nil {
		c.clock(n)
	}
}

// poll services a pending NMI, or an IRQ when interrupts are enabled
func (c *CPU) poll(pc *uint16) bool {
	var vector uint16
	switch {
	case c.nmi.Take():
		vector = nmiVector
	case c.p&FlagI == 0 && c.irq.Asserted():
		vector = irqVector
	default:
		return false
	}

	if c.enableDebugLogging {
		log.Printf("[CPU] interrupt at PC=$%04X vector=$%04X", *pc, vector)
	}
	c.push16(*pc)
	c.push(c.p&^FlagB | FlagU)
	c.p |= FlagI
	*pc = c.read16(vector)
	c.advance(interruptCycles)
	return true
}

func (c *CPU) push(value uint8) {
	c.memory.Write(stackBase|uint16(c.regs[regS]), value)
	c.regs[regS]--
}

func (c *CPU) pop() uint8 {
	c.regs[regS]++
	return c.memory.Read(stackBase | uint16(c.regs[regS]))
}

func (c *CPU) push16(value uint16) {
	c.push(uint8(value >> 8))
	c.push(uint8(value))
}

func (c *CPU) pop16() uint16 {
	lo := uint16(c.pop())
	hi := uint16(c.pop())
	return hi<<8 | lo
}

func (c *CPU) read16(address uint16) uint16 {
	lo := uint16(c.memory.Read(address))
	hi := uint16(c.memory.Read(address + 1))
	return hi<<8 | lo
}

// FlagsString renders the status register as NV-BDIZC
func (s State) FlagsString() string {
	const names = "NV-BDIZC"
	out := []byte("--------")
	for i := 0; i < 8; i++ {
		if s.P&(0x80>>i) != 0 && names[i] != '-' {
			out[i] = names[i]
		}
	}
	return string(out)
}

func (s State) String() string {
	return fmt.Sprintf("PC=$%04X A=$%02X X=$%02X Y=$%02X S=$%02X P=%s CYC=%d",
		s.PC, s.A, s.X, s.Y, s.S, s.FlagsString(), s.Cycles)
}
