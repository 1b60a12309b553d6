package cpu

import "nescore/internal/interrupt"

// MockMemory is a flat 64KB address space
type MockMemory struct {
	data    [0x10000]uint8
	reads   int
	onWrite func(address uint16, value uint8)
}

func (m *MockMemory) Read(address uint16) uint8 {
	m.reads++
	return m.data[address]
}

func (m *MockMemory) Write(address uint16, value uint8) {
	m.data[address] = value
	if m.onWrite != nil {
		m.onWrite(address, value)
	}
}

func (m *MockMemory) load(address uint16, bytes ...uint8) {
	copy(m.data[address:], bytes)
}

// newTestCPU places program at $8000, points every vector at it and resets
func newTestCPU(program ...uint8) (*CPU, *MockMemory, *interrupt.Line, *interrupt.Line) {
	mem := &MockMemory{}
	mem.load(0x8000, program...)
	mem.load(0xFFFA, 0x00, 0x90, 0x00, 0x80, 0x00, 0xA0)

	nmi := interrupt.NewEdge(interrupt.NMIOccurred | interrupt.NMIOutput)
	irq := interrupt.NewLevel()
	c := New(mem, nmi, irq)
	c.Reset()
	return c, mem, nmi, irq
}
