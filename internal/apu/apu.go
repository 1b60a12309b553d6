// Package apu implements the Audio Processing Unit for the NES.
package apu

import (
	"log"

	"nescore/internal/interrupt"
)

// NTSC CPU clock rate
const CPUFrequency = 1789773.0

// Defaults for the output stream
const (
	DefaultSampleRate = 44100
	DefaultBatchSize  = 735 // one 60 Hz frame of samples
)

// Frame counter step positions in CPU cycles
const (
	quarterFrame1 = 7457
	halfFrame1    = 14913
	quarterFrame3 = 22371
	fourStepEnd   = 29829
	fiveStepEnd   = 37281
)

// Status bits of $4015
const (
	statusFrameIRQ uint8 = 0x40
	statusDMCIRQ   uint8 = 0x80
)

// MemoryReader is the CPU bus as seen by the DMC sample reader
type MemoryReader interface {
	Read(address uint16) uint8
}

// APU represents the NES Audio Processing Unit
type APU struct {
	pulse    [2]pulse
	triangle triangle
	noise    noise
	dmc      dmc

	// Frame counter
	frameCycle uint32
	fiveStep   bool
	irqInhibit bool
	frameIRQ   bool

	irq    *interrupt.Line
	memory MemoryReader
	stall  func(cycles int)

	// Output stream
	sampleRate int
	batchSize  int
	accum      float64
	filter     highPass
	batch      []int16
	callback   func(samples []int16)

	cycles uint64

	enableDebugLogging bool
}

// New creates an APU raising its frame and DMC interrupts on irq
func New(irq *interrupt.Line) *APU {
	if irq == nil {
		irq = interrupt.NewLevel()
	}
	a := &APU{
		irq:        irq,
		sampleRate: DefaultSampleRate,
		batchSize:  DefaultBatchSize,
	}
	a.Reset()
	return a
}

// Reset silences every channel and restarts the frame counter
func (a *APU) Reset() {
	a.pulse[0] = pulse{negateOnes: true}
	a.pulse[1] = pulse{}
	a.triangle = triangle{}
	a.noise = noise{shift: 1}
	a.dmc = dmc{bitsRemaining: 8, silence: true, bufferEmpty: true}

	a.frameCycle = 0
	a.fiveStep = false
	a.irqInhibit = false
	a.frameIRQ = false
	a.irq.Unset(interrupt.IRQAPUFrame | interrupt.IRQDMC)

	a.cycles = 0
	a.accum = 0
	a.filter = highPass{}
	a.batch = make([]int16, 0, a.batchSize)
}

// SetMemory connects the DMC sample reader to the CPU bus
func (a *APU) SetMemory(memory MemoryReader) {
	a.memory = memory
}

// SetStallHandler registers the hook that suspends the CPU while the DMC
// fetches a sample byte
func (a *APU) SetStallHandler(fn func(cycles int)) {
	a.stall = fn
}

// SetCallback registers the consumer of sample batches
func (a *APU) SetCallback(fn func(samples []int16)) {
	a.callback = fn
}

// SetSampleRate sets the output sample rate in Hz
func (a *APU) SetSampleRate(rate int) {
	if rate > 0 {
		a.sampleRate = rate
	}
	a.accum = 0
}

// SampleRate returns the output sample rate in Hz
func (a *APU) SampleRate() int {
	return a.sampleRate
}

// SetBatchSize sets the number of samples handed to the callback at once
func (a *APU) SetBatchSize(n int) {
	if n > 0 {
		a.batchSize = n
	}
	a.batch = make([]int16, 0, a.batchSize)
}

// EnableDebugLogging enables/disables register write logging
func (a *APU) EnableDebugLogging(enable bool) {
	a.enableDebugLogging = enable
}

// Clock advances the APU by the given number of CPU cycles
func (a *APU) Clock(cycles int) {
	for ; cycles > 0; cycles-- {
		a.step()
	}
}

func (a *APU) step() {
	a.cycles++
	a.stepFrameCounter()

	// Pulse timers run at half the CPU rate
	if a.cycles&1 == 0 {
		a.pulse[0].clockTimer()
		a.pulse[1].clockTimer()
	}
	a.triangle.clockTimer()
	a.noise.clockTimer()
	a.clockDMC()

	a.accum += float64(a.sampleRate) / CPUFrequency
	if a.accum >= 1.0 {
		a.accum -= 1.0
		a.emit(a.mix())
	}
}

func (a *APU) stepFrameCounter() {
	a.frameCycle++

	switch a.frameCycle {
	case quarterFrame1, quarterFrame3:
		a.quarterFrame()
	case halfFrame1:
		a.quarterFrame()
		a.halfFrame()
	case fourStepEnd:
		if a.fiveStep {
			return
		}
		a.quarterFrame()
		a.halfFrame()
		if !a.irqInhibit {
			a.frameIRQ = true
			a.irq.Set(interrupt.IRQAPUFrame)
		}
		a.frameCycle = 0
	case fiveStepEnd:
		a.quarterFrame()
		a.halfFrame()
		a.frameCycle = 0
	}
}

// quarterFrame clocks envelopes and the triangle linear counter
func (a *APU) quarterFrame() {
	a.pulse[0].env.clock()
	a.pulse[1].env.clock()
	a.noise.env.clock()
	a.triangle.clockLinear()
}

// halfFrame clocks length counters and sweep units
func (a *APU) halfFrame() {
	a.pulse[0].length.clock()
	a.pulse[0].clockSweep()
	a.pulse[1].length.clock()
	a.pulse[1].clockSweep()
	a.triangle.length.clock()
	a.noise.length.clock()
}

// WriteRegister writes to an APU register ($4000-$4013, $4015, $4017)
func (a *APU) WriteRegister(address uint16, value uint8) {
	if a.enableDebugLogging {
		log.Printf("[APU] write $%04X = $%02X", address, value)
	}

	switch {
	case address >= 0x4000 && address <= 0x4007:
		a.pulse[(address>>2)&1].write(address&0x03, value)
	case address >= 0x4008 && address <= 0x400B:
		a.triangle.write(address&0x03, value)
	case address >= 0x400C && address <= 0x400F:
		a.noise.write(address&0x03, value)
	case address >= 0x4010 && address <= 0x4013:
		a.writeDMC(address&0x03, value)
	case address == 0x4015:
		a.writeEnable(value)
	case address == 0x4017:
		a.writeFrameCounter(value)
	}
}

// ReadStatus reads $4015 and acknowledges the frame interrupt
func (a *APU) ReadStatus() uint8 {
	var status uint8
	if a.pulse[0].length.value > 0 {
		status |= 0x01
	}
	if a.pulse[1].length.value > 0 {
		status |= 0x02
	}
	if a.triangle.length.value > 0 {
		status |= 0x04
	}
	if a.noise.length.value > 0 {
		status |= 0x08
	}
	if a.dmc.bytesRemaining > 0 {
		status |= 0x10
	}
	if a.frameIRQ {
		status |= statusFrameIRQ
	}
	if a.dmc.irqFlag {
		status |= statusDMCIRQ
	}

	a.frameIRQ = false
	a.irq.Unset(interrupt.IRQAPUFrame)
	return status
}

// writeEnable handles $4015: channel enables, DMC start/stop
func (a *APU) writeEnable(value uint8) {
	a.pulse[0].length.setEnabled(value&0x01 != 0)
	a.pulse[1].length.setEnabled(value&0x02 != 0)
	a.triangle.length.setEnabled(value&0x04 != 0)
	a.noise.length.setEnabled(value&0x08 != 0)

	if value&0x10 == 0 {
		a.dmc.bytesRemaining = 0
	} else if a.dmc.bytesRemaining == 0 {
		a.dmc.restart()
	}
	a.dmc.irqFlag = false
	a.irq.Unset(interrupt.IRQDMC)
}

// writeFrameCounter handles $4017. Five-step mode clocks every unit
// immediately.
func (a *APU) writeFrameCounter(value uint8) {
	a.fiveStep = value&0x80 != 0
	a.irqInhibit = value&0x40 != 0
	if a.irqInhibit {
		a.frameIRQ = false
		a.irq.Unset(interrupt.IRQAPUFrame)
	}

	a.frameCycle = 0
	if a.fiveStep {
		a.quarterFrame()
		a.halfFrame()
	}
}

// ChannelOutput returns the current 4-bit (7-bit for DMC) output of a
// channel: 0-1 pulse, 2 triangle, 3 noise, 4 DMC
func (a *APU) ChannelOutput(channel int) uint8 {
	switch channel {
	case 0, 1:
		return a.pulse[channel].output()
	case 2:
		return a.triangle.output()
	case 3:
		return a.noise.output()
	case 4:
		return a.dmc.level
	}
	return 0
}

// Flush hands any buffered samples to the callback
func (a *APU) Flush() {
	if len(a.batch) == 0 || a.callback == nil {
		return
	}
	a.callback(a.batch)
	a.batch = make([]int16, 0, a.batchSize)
}
