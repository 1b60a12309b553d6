package cpu

// opcodeInfo describes one opcode for the decoder
type opcodeInfo struct {
	name   string
	mode   mode
	op     op
	data   uint8
	cycles uint8
}

// opcodeTable covers the official set plus the stable unofficial opcodes.
// Entries left empty decode as a one-byte, two-cycle NOP.
var opcodeTable = [256]opcodeInfo{
	// Load/Store
	0xA9: {"LDA", modeImm, opLoad, regA, 2},
	0xA5: {"LDA", modeZero, opLoad, regA, 3},
	0xB5: {"LDA", modeZeroX, opLoad, regA, 4},
	0xAD: {"LDA", modeAbs, opLoad, regA, 4},
	0xBD: {"LDA", modeAbsX, opLoad, regA, 4},
	0xB9: {"LDA", modeAbsY, opLoad, regA, 4},
	0xA1: {"LDA", modeZeroXIndirect, opLoad, regA, 6},
	0xB1: {"LDA", modeZeroYIndirect, opLoad, regA, 5},

	0xA2: {"LDX", modeImm, opLoad, regX, 2},
	0xA6: {"LDX", modeZero, opLoad, regX, 3},
	0xB6: {"LDX", modeZeroY, opLoad, regX, 4},
	0xAE: {"LDX", modeAbs, opLoad, regX, 4},
	0xBE: {"LDX", modeAbsY, opLoad, regX, 4},

	0xA0: {"LDY", modeImm, opLoad, regY, 2},
	0xA4: {"LDY", modeZero, opLoad, regY, 3},
	0xB4: {"LDY", modeZeroX, opLoad, regY, 4},
	0xAC: {"LDY", modeAbs, opLoad, regY, 4},
	0xBC: {"LDY", modeAbsX, opLoad, regY, 4},

	0x85: {"STA", modeZeroNoRead, opStore, regA, 3},
	0x95: {"STA", modeZeroXNoRead, opStore, regA, 4},
	0x8D: {"STA", modeAbsNoRead, opStore, regA, 4},
	0x9D: {"STA", modeAbsXNoRead, opStore, regA, 5},
	0x99: {"STA", modeAbsYNoRead, opStore, regA, 5},
	0x81: {"STA", modeZeroXIndirectNoRead, opStore, regA, 6},
	0x91: {"STA", modeZeroYIndirectNoRead, opStore, regA, 6},

	0x86: {"STX", modeZeroNoRead, opStore, regX, 3},
	0x96: {"STX", modeZeroYNoRead, opStore, regX, 4},
	0x8E: {"STX", modeAbsNoRead, opStore, regX, 4},

	0x84: {"STY", modeZeroNoRead, opStore, regY, 3},
	0x94: {"STY", modeZeroXNoRead, opStore, regY, 4},
	0x8C: {"STY", modeAbsNoRead, opStore, regY, 4},

	// Arithmetic
	0x69: {"ADC", modeImm, opAdc, 0x00, 2},
	0x65: {"ADC", modeZero, opAdc, 0x00, 3},
	0x75: {"ADC", modeZeroX, opAdc, 0x00, 4},
	0x6D: {"ADC", modeAbs, opAdc, 0x00, 4},
	0x7D: {"ADC", modeAbsX, opAdc, 0x00, 4},
	0x79: {"ADC", modeAbsY, opAdc, 0x00, 4},
	0x61: {"ADC", modeZeroXIndirect, opAdc, 0x00, 6},
	0x71: {"ADC", modeZeroYIndirect, opAdc, 0x00, 5},

	0xE9: {"SBC", modeImm, opAdc, 0xFF, 2},
	0xEB: {"SBC", modeImm, opAdc, 0xFF, 2},
	0xE5: {"SBC", modeZero, opAdc, 0xFF, 3},
	0xF5: {"SBC", modeZeroX, opAdc, 0xFF, 4},
	0xED: {"SBC", modeAbs, opAdc, 0xFF, 4},
	0xFD: {"SBC", modeAbsX, opAdc, 0xFF, 4},
	0xF9: {"SBC", modeAbsY, opAdc, 0xFF, 4},
	0xE1: {"SBC", modeZeroXIndirect, opAdc, 0xFF, 6},
	0xF1: {"SBC", modeZeroYIndirect, opAdc, 0xFF, 5},

	// Logical
	0x29: {"AND", modeImm, opAnd, 0, 2},
	0x25: {"AND", modeZero, opAnd, 0, 3},
	0x35: {"AND", modeZeroX, opAnd, 0, 4},
	0x2D: {"AND", modeAbs, opAnd, 0, 4},
	0x3D: {"AND", modeAbsX, opAnd, 0, 4},
	0x39: {"AND", modeAbsY, opAnd, 0, 4},
	0x21: {"AND", modeZeroXIndirect, opAnd, 0, 6},
	0x31: {"AND", modeZeroYIndirect, opAnd, 0, 5},

	0x09: {"ORA", modeImm, opOra, 0, 2},
	0x05: {"ORA", modeZero, opOra, 0, 3},
	0x15: {"ORA", modeZeroX, opOra, 0, 4},
	0x0D: {"ORA", modeAbs, opOra, 0, 4},
	0x1D: {"ORA", modeAbsX, opOra, 0, 4},
	0x19: {"ORA", modeAbsY, opOra, 0, 4},
	0x01: {"ORA", modeZeroXIndirect, opOra, 0, 6},
	0x11: {"ORA", modeZeroYIndirect, opOra, 0, 5},

	0x49: {"EOR", modeImm, opEor, 0, 2},
	0x45: {"EOR", modeZero, opEor, 0, 3},
	0x55: {"EOR", modeZeroX, opEor, 0, 4},
	0x4D: {"EOR", modeAbs, opEor, 0, 4},
	0x5D: {"EOR", modeAbsX, opEor, 0, 4},
	0x59: {"EOR", modeAbsY, opEor, 0, 4},
	0x41: {"EOR", modeZeroXIndirect, opEor, 0, 6},
	0x51: {"EOR", modeZeroYIndirect, opEor, 0, 5},

	// Compare
	0xC9: {"CMP", modeImm, opCmp, regA, 2},
	0xC5: {"CMP", modeZero, opCmp, regA, 3},
	0xD5: {"CMP", modeZeroX, opCmp, regA, 4},
	0xCD: {"CMP", modeAbs, opCmp, regA, 4},
	0xDD: {"CMP", modeAbsX, opCmp, regA, 4},
	0xD9: {"CMP", modeAbsY, opCmp, regA, 4},
	0xC1: {"CMP", modeZeroXIndirect, opCmp, regA, 6},
	0xD1: {"CMP", modeZeroYIndirect, opCmp, regA, 5},

	0xE0: {"CPX", modeImm, opCmp, regX, 2},
	0xE4: {"CPX", modeZero, opCmp, regX, 3},
	0xEC: {"CPX", modeAbs, opCmp, regX, 4},

	0xC0: {"CPY", modeImm, opCmp, regY, 2},
	0xC4: {"CPY", modeZero, opCmp, regY, 3},
	0xCC: {"CPY", modeAbs, opCmp, regY, 4},

	0x24: {"BIT", modeZero, opBit, 0, 3},
	0x2C: {"BIT", modeAbs, opBit, 0, 4},

	// Shift and rotate
	0x0A: {"ASL", modeNone, opAslA, 0, 2},
	0x06: {"ASL", modeZero, opAsl, 0, 5},
	0x16: {"ASL", modeZeroX, opAsl, 0, 6},
	0x0E: {"ASL", modeAbs, opAsl, 0, 6},
	0x1E: {"ASL", modeAbsX, opAsl, 0, 7},

	0x4A: {"LSR", modeNone, opLsrA, 0, 2},
	0x46: {"LSR", modeZero, opLsr, 0, 5},
	0x56: {"LSR", modeZeroX, opLsr, 0, 6},
	0x4E: {"LSR", modeAbs, opLsr, 0, 6},
	0x5E: {"LSR", modeAbsX, opLsr, 0, 7},

	0x2A: {"ROL", modeNone, opRolA, 0, 2},
	0x26: {"ROL", modeZero, opRol, 0, 5},
	0x36: {"ROL", modeZeroX, opRol, 0, 6},
	0x2E: {"ROL", modeAbs, opRol, 0, 6},
	0x3E: {"ROL", modeAbsX, opRol, 0, 7},

	0x6A: {"ROR", modeNone, opRorA, 0, 2},
	0x66: {"ROR", modeZero, opRor, 0, 5},
	0x76: {"ROR", modeZeroX, opRor, 0, 6},
	0x6E: {"ROR", modeAbs, opRor, 0, 6},
	0x7E: {"ROR", modeAbsX, opRor, 0, 7},

	// Increment/Decrement
	0xE6: {"INC", modeZero, opAddMem, 0, 5},
	0xF6: {"INC", modeZeroX, opAddMem, 0, 6},
	0xEE: {"INC", modeAbs, opAddMem, 0, 6},
	0xFE: {"INC", modeAbsX, opAddMem, 0, 7},

	0xC6: {"DEC", modeZero, opAddMem, decrement, 5},
	0xD6: {"DEC", modeZeroX, opAddMem, decrement, 6},
	0xCE: {"DEC", modeAbs, opAddMem, decrement, 6},
	0xDE: {"DEC", modeAbsX, opAddMem, decrement, 7},

	0xE8: {"INX", modeNone, opAddReg, regX, 2},
	0xC8: {"INY", modeNone, opAddReg, regY, 2},
	0xCA: {"DEX", modeNone, opAddReg, regX | decrement, 2},
	0x88: {"DEY", modeNone, opAddReg, regY | decrement, 2},

	// Transfer
	0xAA: {"TAX", modeNone, opMov, regA | regX<<2, 2},
	0x8A: {"TXA", modeNone, opMov, regX | regA<<2, 2},
	0xA8: {"TAY", modeNone, opMov, regA | regY<<2, 2},
	0x98: {"TYA", modeNone, opMov, regY | regA<<2, 2},
	0xBA: {"TSX", modeNone, opMov, regS | regX<<2, 2},
	0x9A: {"TXS", modeNone, opMovNoFlag, regX | regS<<2, 2},

	// Stack
	0x48: {"PHA", modeNone, opPushA, 0, 3},
	0x68: {"PLA", modeNone, opPopA, 0, 4},
	0x08: {"PHP", modeNone, opPushP, 0, 3},
	0x28: {"PLP", modeNone, opPopP, 0, 4},

	// Flags
	0x18: {"CLC", modeNone, opPUnset, FlagC, 2},
	0x38: {"SEC", modeNone, opPSet, FlagC, 2},
	0x58: {"CLI", modeNone, opPUnset, FlagI, 2},
	0x78: {"SEI", modeNone, opPSet, FlagI, 2},
	0xB8: {"CLV", modeNone, opPUnset, FlagV, 2},
	0xD8: {"CLD", modeNone, opPUnset, FlagD, 2},
	0xF8: {"SED", modeNone, opPSet, FlagD, 2},

	// Control flow
	0x4C: {"JMP", modeAbsNoRead, opJmp, 0, 3},
	0x6C: {"JMP", modeIndirectNoRead, opJmp, 0, 5},
	0x20: {"JSR", modeAbsNoRead, opJsr, 0, 6},
	0x60: {"RTS", modeNone, opRts, 0, 6},
	0x40: {"RTI", modeNone, opRti, 0, 6},
	0x00: {"BRK", modeNone, opBrk, 0, 7},

	0x10: {"BPL", modeRel, opBranchUnset, FlagN, 2},
	0x30: {"BMI", modeRel, opBranchSet, FlagN, 2},
	0x50: {"BVC", modeRel, opBranchUnset, FlagV, 2},
	0x70: {"BVS", modeRel, opBranchSet, FlagV, 2},
	0x90: {"BCC", modeRel, opBranchUnset, FlagC, 2},
	0xB0: {"BCS", modeRel, opBranchSet, FlagC, 2},
	0xD0: {"BNE", modeRel, opBranchUnset, FlagZ, 2},
	0xF0: {"BEQ", modeRel, opBranchSet, FlagZ, 2},

	// NOP and its unofficial variants
	0xEA: {"NOP", modeNone, opNop, 0, 2},
	0x1A: {"NOP", modeNone, opNop, 0, 2},
	0x3A: {"NOP", modeNone, opNop, 0, 2},
	0x5A: {"NOP", modeNone, opNop, 0, 2},
	0x7A: {"NOP", modeNone, opNop, 0, 2},
	0xDA: {"NOP", modeNone, opNop, 0, 2},
	0xFA: {"NOP", modeNone, opNop, 0, 2},
	0x80: {"NOP", modeImm, opNop, 0, 2},
	0x82: {"NOP", modeImm, opNop, 0, 2},
	0x89: {"NOP", modeImm, opNop, 0, 2},
	0xC2: {"NOP", modeImm, opNop, 0, 2},
	0xE2: {"NOP", modeImm, opNop, 0, 2},
	0x04: {"NOP", modeZero, opNop, 0, 3},
	0x44: {"NOP", modeZero, opNop, 0, 3},
	0x64: {"NOP", modeZero, opNop, 0, 3},
	0x14: {"NOP", modeZeroX, opNop, 0, 4},
	0x34: {"NOP", modeZeroX, opNop, 0, 4},
	0x54: {"NOP", modeZeroX, opNop, 0, 4},
	0x74: {"NOP", modeZeroX, opNop, 0, 4},
	0xD4: {"NOP", modeZeroX, opNop, 0, 4},
	0xF4: {"NOP", modeZeroX, opNop, 0, 4},
	0x0C: {"NOP", modeAbs, opNop, 0, 4},
	0x1C: {"NOP", modeAbsX, opNop, 0, 4},
	0x3C: {"NOP", modeAbsX, opNop, 0, 4},
	0x5C: {"NOP", modeAbsX, opNop, 0, 4},
	0x7C: {"NOP", modeAbsX, opNop, 0, 4},
	0xDC: {"NOP", modeAbsX, opNop, 0, 4},
	0xFC: {"NOP", modeAbsX, opNop, 0, 4},

	// Unofficial combined operations
	0xA7: {"LAX", modeZero, opLax, 0, 3},
	0xB7: {"LAX", modeZeroY, opLax, 0, 4},
	0xAF: {"LAX", modeAbs, opLax, 0, 4},
	0xBF: {"LAX", modeAbsY, opLax, 0, 4},
	0xA3: {"LAX", modeZeroXIndirect, opLax, 0, 6},
	0xB3: {"LAX", modeZeroYIndirect, opLax, 0, 5},

	0x87: {"SAX", modeZeroNoRead, opSax, 0, 3},
	0x97: {"SAX", modeZeroYNoRead, opSax, 0, 4},
	0x8F: {"SAX", modeAbsNoRead, opSax, 0, 4},
	0x83: {"SAX", modeZeroXIndirectNoRead, opSax, 0, 6},

	0xC7: {"DCP", modeZero, opDcp, 0, 5},
	0xD7: {"DCP", modeZeroX, opDcp, 0, 6},
	0xCF: {"DCP", modeAbs, opDcp, 0, 6},
	0xDF: {"DCP", modeAbsX, opDcp, 0, 7},
	0xDB: {"DCP", modeAbsY, opDcp, 0, 7},
	0xC3: {"DCP", modeZeroXIndirect, opDcp, 0, 8},
	0xD3: {"DCP", modeZeroYIndirect, opDcp, 0, 8},

	0xE7: {"ISB", modeZero, opIsb, 0, 5},
	0xF7: {"ISB", modeZeroX, opIsb, 0, 6},
	0xEF: {"ISB", modeAbs, opIsb, 0, 6},
	0xFF: {"ISB", modeAbsX, opIsb, 0, 7},
	0xFB: {"ISB", modeAbsY, opIsb, 0, 7},
	0xE3: {"ISB", modeZeroXIndirect, opIsb, 0, 8},
	0xF3: {"ISB", modeZeroYIndirect, opIsb, 0, 8},

	0x07: {"SLO", modeZero, opSlo, 0, 5},
	0x17: {"SLO", modeZeroX, opSlo, 0, 6},
	0x0F: {"SLO", modeAbs, opSlo, 0, 6},
	0x1F: {"SLO", modeAbsX, opSlo, 0, 7},
	0x1B: {"SLO", modeAbsY, opSlo, 0, 7},
	0x03: {"SLO", modeZeroXIndirect, opSlo, 0, 8},
	0x13: {"SLO", modeZeroYIndirect, opSlo, 0, 8},

	0x27: {"RLA", modeZero, opRla, 0, 5},
	0x37: {"RLA", modeZeroX, opRla, 0, 6},
	0x2F: {"RLA", modeAbs, opRla, 0, 6},
	0x3F: {"RLA", modeAbsX, opRla, 0, 7},
	0x3B: {"RLA", modeAbsY, opRla, 0, 7},
	0x23: {"RLA", modeZeroXIndirect, opRla, 0, 8},
	0x33: {"RLA", modeZeroYIndirect, opRla, 0, 8},

	0x47: {"SRE", modeZero, opSre, 0, 5},
	0x57: {"SRE", modeZeroX, opSre, 0, 6},
	0x4F: {"SRE", modeAbs, opSre, 0, 6},
	0x5F: {"SRE", modeAbsX, opSre, 0, 7},
	0x5B: {"SRE", modeAbsY, opSre, 0, 7},
	0x43: {"SRE", modeZeroXIndirect, opSre, 0, 8},
	0x53: {"SRE", modeZeroYIndirect, opSre, 0, 8},

	0x67: {"RRA", modeZero, opRra, 0, 5},
	0x77: {"RRA", modeZeroX, opRra, 0, 6},
	0x6F: {"RRA", modeAbs, opRra, 0, 6},
	0x7F: {"RRA", modeAbsX, opRra, 0, 7},
	0x7B: {"RRA", modeAbsY, opRra, 0, 7},
	0x63: {"RRA", modeZeroXIndirect, opRra, 0, 8},
	0x73: {"RRA", modeZeroYIndirect, opRra, 0, 8},
}

func init() {
	for i := range opcodeTable {
		if opcodeTable[i].name == "" {
			opcodeTable[i] = opcodeInfo{"NOP", modeNone, opNop, 0, 2}
		}
	}
}

// Mnemonic returns the assembler name of an opcode
func Mnemonic(opcode uint8) string {
	return opcodeTable[opcode].name
}
