package apu

var lengthTable = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6,
	160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 8, 48, 6, 96, 4,
	192, 2, 72, 16, 28, 32, 52, 2,
}

// envelope produces a decaying or constant 4-bit volume
type envelope struct {
	start    bool
	loop     bool
	constant bool
	volume   uint8
	decay    uint8
	divider  uint8
}

func (e *envelope) write(value uint8) {
	e.loop = value&0x20 != 0
	e.constant = value&0x10 != 0
	e.volume = value & 0x0F
}

func (e *envelope) clock() {
	if e.start {
		e.start = false
		e.decay = 15
		e.divider = e.volume
		return
	}
	if e.divider > 0 {
		e.divider--
		return
	}
	e.divider = e.volume
	if e.decay > 0 {
		e.decay--
	} else if e.loop {
		e.decay = 15
	}
}

func (e *envelope) output() uint8 {
	if e.constant {
		return e.volume
	}
	return e.decay
}

// lengthCounter silences a channel after a programmed duration
type lengthCounter struct {
	value   uint8
	halt    bool
	enabled bool
}

func (l *lengthCounter) load(index uint8) {
	if l.enabled {
		l.value = lengthTable[index&0x1F]
	}
}

func (l *lengthCounter) setEnabled(enabled bool) {
	l.enabled = enabled
	if !enabled {
		l.value = 0
	}
}

func (l *lengthCounter) clock() {
	if !l.halt && l.value > 0 {
		l.value--
	}
}

var dutyTable = [4][8]uint8{
	{0, 1, 0, 0, 0, 0, 0, 0},
	{0, 1, 1, 0, 0, 0, 0, 0},
	{0, 1, 1, 1, 1, 0, 0, 0},
	{1, 0, 0, 1, 1, 1, 1, 1},
}

// pulse is one of the two square wave channels
type pulse struct {
	env    envelope
	length lengthCounter

	duty     uint8
	sequence uint8
	period   uint16
	timer    uint16

	sweepEnabled bool
	sweepPeriod  uint8
	sweepNegate  bool
	sweepShift   uint8
	sweepReload  bool
	sweepDivider uint8
	negateOnes   bool // pulse 1 subtracts an extra 1
}

func (p *pulse) write(reg uint16, value uint8) {
	switch reg {
	case 0:
		p.duty = value >> 6
		p.length.halt = value&0x20 != 0
		p.env.write(value)
	case 1:
		p.sweepEnabled = value&0x80 != 0
		p.sweepPeriod = (value >> 4) & 0x07
		p.sweepNegate = value&0x08 != 0
		p.sweepShift = value & 0x07
		p.sweepReload = true
	case 2:
		p.period = p.period&0x0700 | uint16(value)
	case 3:
		p.period = p.period&0x00FF | uint16(value&0x07)<<8
		p.length.load(value >> 3)
		p.sequence = 0
		p.env.start = true
	}
}

func (p *pulse) clockTimer() {
	if p.timer == 0 {
		p.timer = p.period
		p.sequence = (p.sequence + 1) & 0x07
	} else {
		p.timer--
	}
}

// sweepTarget is the period the sweep unit would move to
func (p *pulse) sweepTarget() uint16 {
	change := p.period >> p.sweepShift
	if !p.sweepNegate {
		return p.period + change
	}
	if p.negateOnes {
		change++
	}
	if change > p.period {
		return 0
	}
	return p.period - change
}

func (p *pulse) clockSweep() {
	if p.sweepDivider == 0 && p.sweepEnabled && p.sweepShift > 0 && !p.muted() {
		p.period = p.sweepTarget()
	}
	if p.sweepDivider == 0 || p.sweepReload {
		p.sweepDivider = p.sweepPeriod
		p.sweepReload = false
	} else {
		p.sweepDivider--
	}
}

func (p *pulse) muted() bool {
	return p.period < 8 || p.sweepTarget() > 0x7FF
}

func (p *pulse) output() uint8 {
	if p.length.value == 0 || p.muted() || dutyTable[p.duty][p.sequence] == 0 {
		return 0
	}
	return p.env.output()
}

var triangleTable = [32]uint8{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// triangle is the triangle wave channel
type triangle struct {
	length lengthCounter

	period   uint16
	timer    uint16
	sequence uint8

	linear       uint8
	linearLoad   uint8
	linearReload bool
}

func (t *triangle) write(reg uint16, value uint8) {
	switch reg {
	case 0:
		t.length.halt = value&0x80 != 0
		t.linearLoad = value & 0x7F
	case 2:
		t.period = t.period&0x0700 | uint16(value)
	case 3:
		t.period = t.period&0x00FF | uint16(value&0x07)<<8
		t.length.load(value >> 3)
		t.linearReload = true
	}
}

func (t *triangle) clockTimer() {
	if t.timer > 0 {
		t.timer--
		return
	}
	t.timer = t.period
	if t.length.value > 0 && t.linear > 0 {
		t.sequence = (t.sequence + 1) & 0x1F
	}
}

func (t *triangle) clockLinear() {
	if t.linearReload {
		t.linear = t.linearLoad
	} else if t.linear > 0 {
		t.linear--
	}
	// The control flag doubles as the length halt flag
	if !t.length.halt {
		t.linearReload = false
	}
}

func (t *triangle) output() uint8 {
	// Ultrasonic periods are silenced rather than aliased
	if t.period < 2 {
		return 7
	}
	return triangleTable[t.sequence]
}

var noisePeriodTable = [16]uint16{
	4, 8, 16, 32, 64, 96, 128, 160,
	202, 254, 380, 508, 762, 1016, 2034, 4068,
}

// noise is the pseudo-random noise channel
type noise struct {
	env    envelope
	length lengthCounter

	shortMode bool
	period    uint16
	timer     uint16
	shift     uint16
}

func (n *noise) write(reg uint16, value uint8) {
	switch reg {
	case 0:
		n.length.halt = value&0x20 != 0
		n.env.write(value)
	case 2:
		n.shortMode = value&0x80 != 0
		n.period = noisePeriodTable[value&0x0F]
	case 3:
		n.length.load(value >> 3)
		n.env.start = true
	}
}

func (n *noise) clockTimer() {
	if n.timer > 0 {
		n.timer--
		return
	}
	n.timer = n.period

	tap := uint16(1)
	if n.shortMode {
		tap = 6
	}
	feedback := (n.shift ^ n.shift>>tap) & 0x01
	n.shift = n.shift>>1 | feedback<<14
}

func (n *noise) output() uint8 {
	if n.length.value == 0 || n.shift&0x01 != 0 {
		return 0
	}
	return n.env.output()
}
