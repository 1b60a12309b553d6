package apu

import "nescore/internal/interrupt"

var dmcRateTable = [16]uint16{
	428, 380, 340, 320, 286, 254, 226, 214,
	190, 160, 142, 128, 106, 84, 72, 54,
}

// dmcFetchStall is the number of CPU cycles lost per sample byte
const dmcFetchStall = 4

// dmc is the delta modulation channel. Sample bytes are read from the CPU
// bus through the APU's memory reader.
type dmc struct {
	irqEnabled bool
	irqFlag    bool
	loop       bool
	period     uint16
	timer      uint16
	level      uint8

	sampleAddress  uint16
	sampleLength   uint16
	currentAddress uint16
	bytesRemaining uint16

	buffer      uint8
	bufferEmpty bool

	shift         uint8
	bitsRemaining uint8
	silence       bool
}

func (d *dmc) restart() {
	d.currentAddress = d.sampleAddress
	d.bytesRemaining = d.sampleLength
}

func (a *APU) writeDMC(reg uint16, value uint8) {
	d := &a.dmc
	switch reg {
	case 0:
		d.irqEnabled = value&0x80 != 0
		d.loop = value&0x40 != 0
		d.period = dmcRateTable[value&0x0F]
		if !d.irqEnabled {
			d.irqFlag = false
			a.irq.Unset(interrupt.IRQDMC)
		}
	case 1:
		d.level = value & 0x7F
	case 2:
		d.sampleAddress = 0xC000 | uint16(value)<<6
	case 3:
		d.sampleLength = uint16(value)<<4 | 0x0001
	}
}

// clockDMC refills the sample buffer when it runs dry and steps the
// output unit on each timer expiry
func (a *APU) clockDMC() {
	d := &a.dmc
	if d.bufferEmpty && d.bytesRemaining > 0 {
		a.fetchSample()
	}

	if d.timer > 0 {
		d.timer--
		return
	}
	d.timer = d.period

	if !d.silence {
		if d.shift&0x01 != 0 {
			if d.level <= 125 {
				d.level += 2
			}
		} else if d.level >= 2 {
			d.level -= 2
		}
		d.shift >>= 1
	}

	d.bitsRemaining--
	if d.bitsRemaining == 0 {
		d.bitsRemaining = 8
		if d.bufferEmpty {
			d.silence = true
		} else {
			d.silence = false
			d.shift = d.buffer
			d.bufferEmpty = true
		}
	}
}

// fetchSample reads the next sample byte, stalling the CPU
func (a *APU) fetchSample() {
	d := &a.dmc
	if a.memory != nil {
		d.buffer = a.memory.Read(d.currentAddress)
	}
	d.bufferEmpty = false
	if a.stall != nil {
		a.stall(dmcFetchStall)
	}

	d.currentAddress++
	if d.currentAddress == 0 {
		d.currentAddress = 0x8000
	}
	d.bytesRemaining--
	if d.bytesRemaining > 0 {
		return
	}
	if d.loop {
		d.restart()
	} else if d.irqEnabled {
		d.irqFlag = true
		a.irq.Set(interrupt.IRQDMC)
	}
}
