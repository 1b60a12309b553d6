package cpu

// Traces are cached for the four 8KB ROM windows only. Code running from
// RAM is decoded on every fetch.
const (
	cacheBase     = 0x8000
	cacheSlotSize = 0x2000
	cacheSlots    = 4
	maxTraceLen   = 64
)

// trace is a run of straight-line instructions ending at the first control
// flow instruction or the end of its window
type trace struct {
	uops []uop
	slot int // -1 when not cached
	gen  uint32
}

// traceCache invalidates a window by bumping its generation; traces built
// under an older generation are rebuilt on next lookup
type traceCache struct {
	traces [cacheSlots][cacheSlotSize]*trace
	gen    [cacheSlots]uint32

	hits   uint64
	misses uint64
}

func (tc *traceCache) invalidate(slot int) {
	tc.gen[slot]++
}

func (tc *traceCache) invalidateAll() {
	for i := range tc.gen {
		tc.gen[i]++
	}
}

func (tc *traceCache) stale(t *trace) bool {
	return t.slot >= 0 && t.gen != tc.gen[t.slot]
}

// trace returns the decoded trace starting at pc
func (c *CPU) trace(pc uint16) *trace {
	if pc < cacheBase {
		c.scratch.slot = -1
		c.scratch.uops = append(c.scratch.uops[:0], c.decodeAt(pc))
		return &c.scratch
	}

	slot := int(pc-cacheBase) >> 13
	offset := pc & (cacheSlotSize - 1)
	if t := c.cache.traces[slot][offset]; t != nil && t.gen == c.cache.gen[slot] {
		c.cache.hits++
		return t
	}

	c.cache.misses++
	t := c.decodeTrace(pc, slot)
	if t.slot >= 0 {
		c.cache.traces[slot][offset] = t
	}
	return t
}

// decodeTrace builds a trace from pc. An instruction whose operand spills
// into the next window ends the trace; if it is the first instruction the
// trace is left uncached.
func (c *CPU) decodeTrace(pc uint16, slot int) *trace {
	t := &trace{slot: slot, gen: c.cache.gen[slot]}
	for len(t.uops) < maxTraceLen {
		u := c.decodeAt(pc)
		last := uint32(pc) + uint32(u.len) - 1
		if last > 0xFFFF || int(last-cacheBase)>>13 != slot {
			if len(t.uops) == 0 {
				t.slot = -1
				t.uops = append(t.uops, u)
			}
			break
		}

		t.uops = append(t.uops, u)
		pc += uint16(u.len)
		if u.op.endsTrace() || pc < cacheBase || int(pc-cacheBase)>>13 != slot {
			break
		}
	}
	return t
}

// decodeAt decodes one instruction at pc
func (c *CPU) decodeAt(pc uint16) uop {
	opcode := c.memory.Read(pc)
	info := &opcodeTable[opcode]
	u := uop{
		mode:    info.mode,
		op:      info.op,
		data:    info.data,
		len:     info.mode.length(),
		cycles:  info.cycles,
		penalty: info.mode.indexedRead() && !info.op.readModifyWrite(),
		opcode:  opcode,
	}
	switch u.len {
	case 2:
		u.addr = uint16(c.memory.Read(pc + 1))
	case 3:
		u.addr = c.read16(pc + 1)
	}
	return u
}
