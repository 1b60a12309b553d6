// Package interrupt provides the shared interrupt lines of the machine.
// Each line is a set of source bits that any owner may set, unset or check.
package interrupt

// NMI source bits
const (
	NMIOccurred uint8 = 0x01 // vertical blank has started
	NMIOutput   uint8 = 0x02 // PPUCTRL NMI enable
)

// IRQ source bits
const (
	IRQMapper   uint8 = 0x01
	IRQAPUFrame uint8 = 0x02
	IRQDMC      uint8 = 0x04
)

// Line is a level flag object owned by the machine aggregate and handed to
// every component that drives or samples it.
type Line struct {
	flags uint8

	// edgeMask selects the bits that must all be set for the line to count
	// as asserted in edge mode; zero selects level mode (any bit).
	edgeMask uint8
	pending  bool
}

// NewLevel returns a level-triggered line asserted while any source is set
func NewLevel() *Line {
	return &Line{}
}

// NewEdge returns an edge-triggered line that latches a pending event each
// time all bits of mask become set
func NewEdge(mask uint8) *Line {
	return &Line{edgeMask: mask}
}

// Set raises the given source bits
func (l *Line) Set(bits uint8) {
	before := l.active()
	l.flags |= bits
	if l.edgeMask != 0 && !before && l.active() {
		l.pending = true
	}
}

// Unset clears the given source bits
func (l *Line) Unset(bits uint8) {
	l.flags &^= bits
}

// Check reports whether any of the given bits is set
func (l *Line) Check(bits uint8) bool {
	return l.flags&bits != 0
}

// Flags returns the raw source bits
func (l *Line) Flags() uint8 {
	return l.flags
}

// Asserted reports the current line level
func (l *Line) Asserted() bool {
	return l.active()
}

// Take consumes a latched edge. Level lines report their level and are
// not modified.
func (l *Line) Take() bool {
	if l.edgeMask == 0 {
		return l.active()
	}
	p := l.pending
	l.pending = false
	return p
}

// Reset clears all bits and any latched edge
func (l *Line) Reset() {
	l.flags = 0
	l.pending = false
}

func (l *Line) active() bool {
	if l.edgeMask != 0 {
		return l.flags&l.edgeMask == l.edgeMask
	}
	return l.flags != 0
}
