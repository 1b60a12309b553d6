package cpu

import (
	"fmt"
	"log"
)

// exec runs one micro-op starting at pc and returns the next pc
func (c *CPU) exec(u *uop, pc uint16) uint16 {
	if c.enableDebugLogging {
		log.Printf("[CPU] $%04X %s %s", pc, opcodeTable[u.opcode].name, c.State())
	}

	pc += uint16(u.len)
	cycles := int(u.cycles)

	var tmp uint8
	var addr uint16
	crossed := false

	switch u.mode {
	case modeNone:
	case modeImm, modeRel:
		tmp = uint8(u.addr)
	case modeZero:
		addr = u.addr
		tmp = c.memory.Read(addr)
	case modeZeroNoRead:
		addr = u.addr
	case modeZeroX:
		addr = (u.addr + uint16(c.regs[regX])) & 0xFF
		tmp = c.memory.Read(addr)
	case modeZeroXNoRead:
		addr = (u.addr + uint16(c.regs[regX])) & 0xFF
	case modeZeroY:
		addr = (u.addr + uint16(c.regs[regY])) & 0xFF
		tmp = c.memory.Read(addr)
	case modeZeroYNoRead:
		addr = (u.addr + uint16(c.regs[regY])) & 0xFF
	case modeAbs:
		addr = u.addr
		tmp = c.memory.Read(addr)
	case modeAbsNoRead:
		addr = u.addr
	case modeAbsX:
		addr = u.addr + uint16(c.regs[regX])
		crossed = (addr^u.addr)&0xFF00 != 0
		tmp = c.memory.Read(addr)
	case modeAbsXNoRead:
		addr = u.addr + uint16(c.regs[regX])
	case modeAbsY:
		addr = u.addr + uint16(c.regs[regY])
		crossed = (addr^u.addr)&0xFF00 != 0
		tmp = c.memory.Read(addr)
	case modeAbsYNoRead:
		addr = u.addr + uint16(c.regs[regY])
	case modeIndirectNoRead:
		// The high byte never carries into the next page
		lo := uint16(c.memory.Read(u.addr))
		hi := uint16(c.memory.Read(u.addr&0xFF00 | (u.addr+1)&0x00FF))
		addr = hi<<8 | lo
	case modeZeroXIndirect, modeZeroXIndirectNoRead:
		ptr := uint8(u.addr) + c.regs[regX]
		addr = c.readZeroPage16(ptr)
		if u.mode == modeZeroXIndirect {
			tmp = c.memory.Read(addr)
		}
	case modeZeroYIndirect, modeZeroYIndirectNoRead:
		base := c.readZeroPage16(uint8(u.addr))
		addr = base + uint16(c.regs[regY])
		if u.mode == modeZeroYIndirect {
			crossed = (addr^base)&0xFF00 != 0
			tmp = c.memory.Read(addr)
		}
	default:
		panic(fmt.Sprintf("cpu: invalid addressing mode %d (opcode $%02X)", u.mode, u.opcode))
	}

	if crossed && u.penalty {
		cycles++
	}

	a := &c.regs[regA]

	switch u.op {
	case opNop:
	case opPSet:
		c.p |= u.data
	case opPUnset:
		c.p &^= u.data
	case opMov:
		tmp = c.regs[u.data&0x03]
		c.regs[(u.data>>2)&0x03] = tmp
		c.setZN(tmp)
	case opMovNoFlag:
		c.regs[(u.data>>2)&0x03] = c.regs[u.data&0x03]
	case opLoad:
		c.regs[u.data] = tmp
		c.setZN(tmp)
	case opStore:
		c.memory.Write(addr, c.regs[u.data])
	case opCmp:
		c.compare(c.regs[u.data], tmp)
	case opAddReg:
		r := &c.regs[u.data&0x03]
		*r += step(u.data)
		c.setZN(*r)
	case opAddMem:
		tmp += step(u.data)
		c.memory.Write(addr, tmp)
		c.setZN(tmp)
	case opBit:
		c.p &^= FlagN | FlagV | FlagZ
		c.p |= tmp & (FlagN | FlagV)
		if tmp&*a == 0 {
			c.p |= FlagZ
		}
	case opBranchSet:
		if c.p&u.data != 0 {
			pc, cycles = branch(pc, tmp, cycles)
		}
	case opBranchUnset:
		if c.p&u.data == 0 {
			pc, cycles = branch(pc, tmp, cycles)
		}
	case opJmp:
		pc = addr
	case opJsr:
		c.push16(pc - 1)
		pc = addr
	case opRts:
		pc = c.pop16() + 1
	case opRti:
		c.p = restoreFlags(c.pop())
		pc = c.pop16()
	case opBrk:
		pc++
		c.push16(pc)
		c.push(c.p | FlagB | FlagU)
		c.p |= FlagI
		pc = c.read16(irqVector)
	case opOra:
		*a |= tmp
		c.setZN(*a)
	case opAnd:
		*a &= tmp
		c.setZN(*a)
	case opEor:
		*a ^= tmp
		c.setZN(*a)
	case opAdc:
		*a = c.adc(*a, tmp^u.data)
		c.setZN(*a)
	case opAsl:
		tmp = c.shiftLeft(tmp, 0)
		c.memory.Write(addr, tmp)
	case opAslA:
		*a = c.shiftLeft(*a, 0)
	case opRol:
		tmp = c.shiftLeft(tmp, c.p&FlagC)
		c.memory.Write(addr, tmp)
	case opRolA:
		*a = c.shiftLeft(*a, c.p&FlagC)
	case opLsr:
		tmp = c.shiftRight(tmp, 0)
		c.memory.Write(addr, tmp)
	case opLsrA:
		*a = c.shiftRight(*a, 0)
	case opRor:
		tmp = c.shiftRight(tmp, (c.p&FlagC)<<7)
		c.memory.Write(addr, tmp)
	case opRorA:
		*a = c.shiftRight(*a, (c.p&FlagC)<<7)
	case opPushA:
		c.push(*a)
	case opPushP:
		c.push(c.p | FlagB | FlagU)
	case opPopA:
		*a = c.pop()
		c.setZN(*a)
	case opPopP:
		c.p = restoreFlags(c.pop())
	case opLax:
		*a = tmp
		c.regs[regX] = tmp
		c.setZN(tmp)
	case opSax:
		c.memory.Write(addr, *a&c.regs[regX])
	case opDcp:
		tmp--
		c.memory.Write(addr, tmp)
		c.compare(*a, tmp)
	case opIsb:
		tmp++
		c.memory.Write(addr, tmp)
		*a = c.adc(*a, ^tmp)
		c.setZN(*a)
	case opSlo:
		tmp = c.shiftLeft(tmp, 0)
		c.memory.Write(addr, tmp)
		*a |= tmp
		c.setZN(*a)
	case opRla:
		tmp = c.shiftLeft(tmp, c.p&FlagC)
		c.memory.Write(addr, tmp)
		*a &= tmp
		c.setZN(*a)
	case opSre:
		tmp = c.shiftRight(tmp, 0)
		c.memory.Write(addr, tmp)
		*a ^= tmp
		c.setZN(*a)
	case opRra:
		tmp = c.shiftRight(tmp, (c.p&FlagC)<<7)
		c.memory.Write(addr, tmp)
		*a = c.adc(*a, tmp)
		c.setZN(*a)
	default:
		panic(fmt.Sprintf("cpu: unknown micro-op %d (opcode $%02X)", u.op, u.opcode))
	}

	c.advance(cycles)
	return pc
}

// adc adds with carry. Carry is bit 8 of the sum; overflow is the carry
// into bit 7 XOR the carry out of it.
func (c *CPU) adc(a, b uint8) uint8 {
	carryIn := uint16(c.p & FlagC)
	sum := uint16(a) + uint16(b) + carryIn
	carryOut := uint8(sum >> 8)
	carry7 := uint8((uint16(a&0x7F) + uint16(b&0x7F) + carryIn) >> 7)

	c.p &^= FlagC | FlagV
	c.p |= carryOut
	c.p |= (carry7 ^ carryOut) << 6
	return uint8(sum)
}

func (c *CPU) compare(a, b uint8) {
	c.setZN(a - b)
	c.p &^= FlagC
	if a >= b {
		c.p |= FlagC
	}
}

// shiftLeft shifts in bit0 and sets carry from bit 7
func (c *CPU) shiftLeft(v, bit0 uint8) uint8 {
	c.setCarry(v&0x80 != 0)
	v = v<<1 | bit0
	c.setZN(v)
	return v
}

// shiftRight shifts in bit7 and sets carry from bit 0
func (c *CPU) shiftRight(v, bit7 uint8) uint8 {
	c.setCarry(v&0x01 != 0)
	v = v>>1 | bit7
	c.setZN(v)
	return v
}

func (c *CPU) setCarry(on bool) {
	if on {
		c.p |= FlagC
	} else {
		c.p &^= FlagC
	}
}

func (c *CPU) setZN(v uint8) {
	c.p &^= FlagZ | FlagN
	if v == 0 {
		c.p |= FlagZ
	}
	c.p |= v & FlagN
}

func (c *CPU) readZeroPage16(ptr uint8) uint16 {
	lo := uint16(c.memory.Read(uint16(ptr)))
	hi := uint16(c.memory.Read(uint16(ptr + 1)))
	return hi<<8 | lo
}

// restoreFlags forces B clear and the unused bit set on any pull of P
func restoreFlags(v uint8) uint8 {
	return v&^FlagB | FlagU
}

func step(data uint8) uint8 {
	if data&decrement != 0 {
		return 0xFF
	}
	return 0x01
}

// branch takes a relative jump: one extra cycle, plus one more when the
// target lies in another page
func branch(pc uint16, offset uint8, cycles int) (uint16, int) {
	target := pc + uint16(int8(offset))
	cycles++
	if (target^pc)&0xFF00 != 0 {
		cycles++
	}
	return target, cycles
}
