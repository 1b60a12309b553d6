package apu

import (
	"testing"

	"nescore/internal/interrupt"
)

type fakeBus struct {
	data  map[uint16]uint8
	reads []uint16
}

func (b *fakeBus) Read(address uint16) uint8 {
	b.reads = append(b.reads, address)
	return b.data[address]
}

func newTestAPU() (*APU, *interrupt.Line) {
	irq := interrupt.NewLevel()
	return New(irq), irq
}

func TestLengthStatus(t *testing.T) {
	a, _ := newTestAPU()

	a.WriteRegister(0x4003, 0x08)
	if a.ReadStatus()&0x01 != 0 {
		t.Fatal("length loaded while pulse 1 disabled")
	}

	a.WriteRegister(0x4015, 0x0F)
	a.WriteRegister(0x4003, 0x08)
	a.WriteRegister(0x4007, 0x08)
	a.WriteRegister(0x400B, 0x08)
	a.WriteRegister(0x400F, 0x08)
	if got := a.ReadStatus() & 0x0F; got != 0x0F {
		t.Errorf("status = $%02X, want all four length bits", got)
	}

	a.WriteRegister(0x4015, 0x00)
	if got := a.ReadStatus() & 0x0F; got != 0 {
		t.Errorf("status = $%02X after disabling channels", got)
	}
}

func TestLengthCounterExpires(t *testing.T) {
	a, _ := newTestAPU()
	a.WriteRegister(0x4015, 0x01)
	a.WriteRegister(0x4003, 0x18) // index 3: length 2

	a.Clock(fourStepEnd * 2)
	if a.ReadStatus()&0x01 != 0 {
		t.Error("length counter still running after four half frames")
	}
}

func TestFrameIRQ(t *testing.T) {
	a, irq := newTestAPU()

	a.Clock(fourStepEnd - 1)
	if irq.Asserted() {
		t.Fatal("frame IRQ early")
	}
	a.Clock(1)
	if !irq.Check(interrupt.IRQAPUFrame) {
		t.Fatal("no frame IRQ at the end of the four-step sequence")
	}
	if a.ReadStatus()&statusFrameIRQ == 0 {
		t.Error("status did not report the frame IRQ")
	}
	if irq.Asserted() {
		t.Error("status read did not acknowledge the frame IRQ")
	}
	if a.ReadStatus()&statusFrameIRQ != 0 {
		t.Error("frame IRQ flag survived a status read")
	}
}

func TestFrameIRQSuppressed(t *testing.T) {
	tests := []struct {
		name  string
		value uint8
	}{
		{"inhibit", 0x40},
		{"five step", 0x80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, irq := newTestAPU()
			a.WriteRegister(0x4017, tt.value)
			a.Clock(fiveStepEnd * 2)
			if irq.Asserted() {
				t.Error("frame IRQ raised")
			}
		})
	}
}

func TestInhibitClearsPendingIRQ(t *testing.T) {
	a, irq := newTestAPU()
	a.Clock(fourStepEnd)
	a.WriteRegister(0x4017, 0x40)
	if irq.Asserted() {
		t.Error("setting inhibit did not clear the frame IRQ")
	}
}

func TestDMCFetch(t *testing.T) {
	a, irq := newTestAPU()
	bus := &fakeBus{data: map[uint16]uint8{0xC040: 0xFF}}
	a.SetMemory(bus)
	stalled := 0
	a.SetStallHandler(func(n int) { stalled += n })

	a.WriteRegister(0x4010, 0x8F) // IRQ on, fastest rate
	a.WriteRegister(0x4012, 0x01) // $C040
	a.WriteRegister(0x4013, 0x00) // 1 byte
	a.WriteRegister(0x4015, 0x10)
	if a.ReadStatus()&0x10 == 0 {
		t.Fatal("DMC not active after enable")
	}

	a.Clock(1)
	if len(bus.reads) != 1 || bus.reads[0] != 0xC040 {
		t.Fatalf("DMC reads = %04X, want [C040]", bus.reads)
	}
	if stalled != dmcFetchStall {
		t.Errorf("CPU stalled %d cycles, want %d", stalled, dmcFetchStall)
	}
	if !irq.Check(interrupt.IRQDMC) {
		t.Fatal("no DMC IRQ at end of sample")
	}
	if s := a.ReadStatus(); s&statusDMCIRQ == 0 || s&0x10 != 0 {
		t.Errorf("status = $%02X, want DMC IRQ and no bytes remaining", s)
	}

	a.WriteRegister(0x4015, 0x00)
	if irq.Asserted() {
		t.Error("$4015 write did not acknowledge the DMC IRQ")
	}
}

func TestDMCOutputRises(t *testing.T) {
	a, _ := newTestAPU()
	a.SetMemory(&fakeBus{data: map[uint16]uint8{0xC000: 0xFF}})
	a.WriteRegister(0x4010, 0x0F)
	a.WriteRegister(0x4011, 0x40)
	a.WriteRegister(0x4012, 0x00)
	a.WriteRegister(0x4013, 0x00)
	a.WriteRegister(0x4015, 0x10)

	a.Clock(54 * 20)
	if level := a.ChannelOutput(4); level <= 0x40 {
		t.Errorf("DMC level %d, want above 64 after a sample of ones", level)
	}
}

func TestPulseOutput(t *testing.T) {
	a, _ := newTestAPU()
	a.WriteRegister(0x4015, 0x01)
	a.WriteRegister(0x4000, 0xBF) // 50% duty, halt, constant volume 15
	a.WriteRegister(0x4002, 0xFF)
	a.WriteRegister(0x4003, 0x08)

	seen := map[uint8]bool{}
	for i := 0; i < 6000; i++ {
		a.Clock(1)
		seen[a.ChannelOutput(0)] = true
	}
	if !seen[0] || !seen[15] || len(seen) != 2 {
		t.Errorf("pulse levels %v, want exactly 0 and 15", seen)
	}
}

func TestSweepMutesOverflow(t *testing.T) {
	a, _ := newTestAPU()
	a.WriteRegister(0x4015, 0x01)
	a.WriteRegister(0x4000, 0xBF)
	a.WriteRegister(0x4002, 0xFF)
	a.WriteRegister(0x4003, 0x0F) // period $7FF, sweep target overflows

	for i := 0; i < 2000; i++ {
		a.Clock(1)
		if a.ChannelOutput(0) != 0 {
			t.Fatal("pulse audible with an out of range sweep target")
		}
	}
}

func TestBatches(t *testing.T) {
	a, _ := newTestAPU()
	a.SetBatchSize(100)

	var sizes []int
	a.SetCallback(func(samples []int16) {
		sizes = append(sizes, len(samples))
	})

	perSample := CPUFrequency / float64(DefaultSampleRate)
	a.Clock(int(perSample * 250))
	if len(sizes) != 2 || sizes[0] != 100 || sizes[1] != 100 {
		t.Fatalf("batches %v, want two of 100", sizes)
	}

	a.Flush()
	if len(sizes) != 3 || sizes[2] < 45 || sizes[2] > 55 {
		t.Errorf("flush delivered %v", sizes)
	}
}

func TestOutputSettlesToZero(t *testing.T) {
	a, _ := newTestAPU()
	var last []int16
	a.SetCallback(func(samples []int16) { last = samples })
	a.WriteRegister(0x4011, 0x7F) // constant DAC level

	second := CPUFrequency
	a.Clock(int(second / 5))
	if len(last) == 0 {
		t.Fatal("no samples delivered")
	}
	if v := last[len(last)-1]; v > 300 || v < -300 {
		t.Errorf("constant input left an offset of %d", v)
	}
}
