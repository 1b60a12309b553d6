package cpu

// mode selects how a micro-op resolves its operand. NoRead variants compute
// the effective address without fetching the data byte.
type mode uint8

const (
	modeNone mode = iota
	modeImm
	modeRel
	modeZero
	modeZeroNoRead
	modeZeroX
	modeZeroXNoRead
	modeZeroY
	modeZeroYNoRead
	modeAbs
	modeAbsNoRead
	modeAbsX
	modeAbsXNoRead
	modeAbsY
	modeAbsYNoRead
	modeIndirectNoRead
	modeZeroXIndirect
	modeZeroXIndirectNoRead
	modeZeroYIndirect
	modeZeroYIndirectNoRead
)

// length returns the instruction size in bytes
func (m mode) length() uint8 {
	switch m {
	case modeNone:
		return 1
	case modeAbs, modeAbsNoRead, modeAbsX, modeAbsXNoRead,
		modeAbsY, modeAbsYNoRead, modeIndirectNoRead:
		return 3
	}
	return 2
}

// indexedRead reports whether a read through this mode pays one extra
// cycle when indexing crosses a page
func (m mode) indexedRead() bool {
	return m == modeAbsX || m == modeAbsY || m == modeZeroYIndirect
}

// op is the operation half of a micro-op
type op uint8

const (
	opNop op = iota
	opPSet
	opPUnset
	opMov
	opMovNoFlag
	opLoad
	opStore
	opCmp
	opAddReg
	opAddMem
	opBit
	opBranchSet
	opBranchUnset
	opJmp
	opJsr
	opRts
	opRti
	opBrk
	opOra
	opAnd
	opEor
	opAdc
	opAsl
	opAslA
	opRol
	opRolA
	opLsr
	opLsrA
	opRor
	opRorA
	opPushA
	opPushP
	opPopA
	opPopP
	opLax
	opSax
	opDcp
	opIsb
	opSlo
	opRla
	opSre
	opRra
)

// readModifyWrite reports whether the op writes back to its operand address
func (o op) readModifyWrite() bool {
	switch o {
	case opAsl, opRol, opLsr, opRor, opAddMem, opDcp, opIsb, opSlo, opRla, opSre, opRra:
		return true
	}
	return false
}

// endsTrace reports whether the op can redirect the program counter
func (o op) endsTrace() bool {
	switch o {
	case opBranchSet, opBranchUnset, opJmp, opJsr, opRts, opRti, opBrk:
		return true
	}
	return false
}

// uop is one decoded instruction
type uop struct {
	mode    mode
	op      op
	data    uint8  // register index, flag mask or operand modifier
	len     uint8  // instruction size in bytes
	cycles  uint8  // base cycle count
	penalty bool   // extra cycle on page cross
	addr    uint16 // immediate value, zero-page or absolute operand
	opcode  uint8
}

// Register indices used by uop data
const (
	regA = iota
	regX
	regY
	regS
)

// decrement marks opAddReg/opAddMem as a decrement
const decrement = 0x80

func mov(src, dst uint8) uint8 {
	return src | dst<<2
}
