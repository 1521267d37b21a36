package rsp

// Primary opcode values, shared with the scalar CPU's encoding but
// restricted to the subset the vector core's interpreter recognizes.
const (
	opSPECIAL = 0x00
	opREGIMM  = 0x01
	opJ       = 0x02
	opJAL     = 0x03
	opBEQ     = 0x04
	opBNE     = 0x05
	opBLEZ    = 0x06
	opBGTZ    = 0x07
	opADDI    = 0x08
	opANDI    = 0x0C
	opORI     = 0x0D
	opLUI     = 0x0F
	opCOP0    = 0x10
	opCOP2    = 0x12
	opLB      = 0x20
	opLH      = 0x21
	opLW      = 0x23
	opLBU     = 0x24
	opLHU     = 0x25
	opSB      = 0x28
	opSH      = 0x29
	opSW      = 0x2B
	opLWC2    = 0x32
	opSWC2    = 0x3A
)

const (
	fnSLL   = 0x00
	fnSRL   = 0x02
	fnSRA   = 0x03
	fnSLLV  = 0x04
	fnJR    = 0x08
	fnBREAK = 0x0D
	fnADD   = 0x20
	fnSUB   = 0x22
	fnAND   = 0x24
	fnOR    = 0x25
	fnNOR   = 0x27
)

const (
	riBLTZ = 0x00
	riBGEZ = 0x01
)

// VU compute (arithmetic) funct values.
const (
	vuVMULF = 0x00
	vuVMACF = 0x08
	vuVXOR  = 0x2C
)

// VU load/store sub-opcodes (share the element field's neighboring bits).
const (
	vuLDV = 0x03
	vuLQV = 0x04
	vuSSV = 0x01
	vuSDV = 0x03
	vuSQV = 0x04
)

func opField(instr uint32) uint32    { return instr >> 26 }
func rsField(instr uint32) uint32    { return (instr >> 21) & 0x1F }
func rtField(instr uint32) uint32    { return (instr >> 16) & 0x1F }
func rdField(instr uint32) uint32    { return (instr >> 11) & 0x1F }
func saField(instr uint32) uint32    { return (instr >> 6) & 0x1F }
func funcField(instr uint32) uint32  { return instr & 0x3F }
func imm16Field(instr uint32) uint32 { return instr & 0xFFFF }
func signExt16(v uint32) uint32      { return uint32(int32(int16(uint16(v)))) }

func unknown(pc uint32, what string) error {
	return &FatalError{PC: pc, Message: "unknown " + what}
}

func (c *Core) execute(instrPC, instr uint32, inDelaySlot bool) error {
	switch opField(instr) {
	case opSPECIAL:
		return c.execSpecial(instrPC, instr, inDelaySlot)
	case opREGIMM:
		return c.execRegimm(instrPC, instr, inDelaySlot)
	case opJ:
		target := uint32(target26Field(instr)) << 2 & 0xFFF
		return c.branch(instrPC, target, true, inDelaySlot)
	case opJAL:
		target := uint32(target26Field(instr)) << 2 & 0xFFF
		c.setGPR(31, instrPC+8)
		return c.branch(instrPC, target, true, inDelaySlot)
	case opBEQ:
		return c.branchCond(instrPC, instr, inDelaySlot, c.GPR[rsField(instr)] == c.GPR[rtField(instr)])
	case opBNE:
		return c.branchCond(instrPC, instr, inDelaySlot, c.GPR[rsField(instr)] != c.GPR[rtField(instr)])
	case opBLEZ:
		return c.branchCond(instrPC, instr, inDelaySlot, int32(c.GPR[rsField(instr)]) <= 0)
	case opBGTZ:
		return c.branchCond(instrPC, instr, inDelaySlot, int32(c.GPR[rsField(instr)]) > 0)
	case opADDI:
		c.setGPR(rtField(instr), c.GPR[rsField(instr)]+signExt16(imm16Field(instr)))
		return nil
	case opANDI:
		c.setGPR(rtField(instr), c.GPR[rsField(instr)]&imm16Field(instr))
		return nil
	case opORI:
		c.setGPR(rtField(instr), c.GPR[rsField(instr)]|imm16Field(instr))
		return nil
	case opLUI:
		c.setGPR(rtField(instr), imm16Field(instr)<<16)
		return nil
	case opCOP0:
		return c.execCop0(instrPC, instr)
	case opCOP2:
		return c.execCop2(instrPC, instr)
	case opLB, opLH, opLW, opLBU, opLHU:
		return c.execLoad(instrPC, instr)
	case opSB, opSH, opSW:
		return c.execStore(instrPC, instr)
	case opLWC2:
		return c.execVULoad(instrPC, instr)
	case opSWC2:
		return c.execVUStore(instrPC, instr)
	default:
		return unknown(instrPC, "primary opcode")
	}
}

func target26Field(instr uint32) uint32 { return instr & 0x03FF_FFFF }

func (c *Core) execSpecial(instrPC, instr uint32, inDelaySlot bool) error {
	rs, rt, rd, sa := rsField(instr), rtField(instr), rdField(instr), saField(instr)
	switch funcField(instr) {
	case fnSLL:
		c.setGPR(rd, c.GPR[rt]<<sa)
	case fnSRL:
		c.setGPR(rd, c.GPR[rt]>>sa)
	case fnSRA:
		c.setGPR(rd, uint32(int32(c.GPR[rt])>>sa))
	case fnSLLV:
		c.setGPR(rd, c.GPR[rt]<<(c.GPR[rs]&0x1F))
	case fnJR:
		return c.branch(instrPC, c.GPR[rs]&0xFFF, true, inDelaySlot)
	case fnBREAK:
		c.doBreak()
	case fnADD:
		c.setGPR(rd, c.GPR[rs]+c.GPR[rt])
	case fnSUB:
		c.setGPR(rd, c.GPR[rs]-c.GPR[rt])
	case fnAND:
		c.setGPR(rd, c.GPR[rs]&c.GPR[rt])
	case fnOR:
		c.setGPR(rd, c.GPR[rs]|c.GPR[rt])
	case fnNOR:
		c.setGPR(rd, ^(c.GPR[rs] | c.GPR[rt]))
	default:
		return unknown(instrPC, "SPECIAL function")
	}
	return nil
}

func (c *Core) execRegimm(instrPC, instr uint32, inDelaySlot bool) error {
	rs := rsField(instr)
	switch rtField(instr) {
	case riBLTZ:
		return c.branchCond(instrPC, instr, inDelaySlot, int32(c.GPR[rs]) < 0)
	case riBGEZ:
		return c.branchCond(instrPC, instr, inDelaySlot, int32(c.GPR[rs]) >= 0)
	default:
		return unknown(instrPC, "REGIMM rt")
	}
}

func (c *Core) branchCond(instrPC, instr uint32, inDelaySlot, taken bool) error {
	offset := signExt16(imm16Field(instr)) << 2
	target := (instrPC + 4 + offset) & 0xFFF
	return c.branch(instrPC, target, taken, inDelaySlot)
}

func (c *Core) execLoad(instrPC, instr uint32) error {
	rt := rtField(instr)
	addr := (c.GPR[rsField(instr)] + signExt16(imm16Field(instr))) & 0xFFF
	switch opField(instr) {
	case opLB:
		c.setGPR(rt, uint32(int32(int8(c.DMEM[addr]))))
	case opLBU:
		c.setGPR(rt, uint32(c.DMEM[addr]))
	case opLH:
		c.setGPR(rt, uint32(int32(int16(uint16(c.DMEM[addr])<<8|uint16(c.DMEM[addr+1])))))
	case opLHU:
		c.setGPR(rt, uint32(c.DMEM[addr])<<8|uint32(c.DMEM[addr+1]))
	case opLW:
		c.setGPR(rt, uint32(c.DMEM[addr])<<24|uint32(c.DMEM[addr+1])<<16|uint32(c.DMEM[addr+2])<<8|uint32(c.DMEM[addr+3]))
	}
	return nil
}

func (c *Core) execStore(instrPC, instr uint32) error {
	rt := rtField(instr)
	v := c.GPR[rt]
	addr := (c.GPR[rsField(instr)] + signExt16(imm16Field(instr))) & 0xFFF
	switch opField(instr) {
	case opSB:
		c.DMEM[addr] = byte(v)
	case opSH:
		c.DMEM[addr] = byte(v >> 8)
		c.DMEM[addr+1] = byte(v)
	case opSW:
		c.DMEM[addr] = byte(v >> 24)
		c.DMEM[addr+1] = byte(v >> 16)
		c.DMEM[addr+2] = byte(v >> 8)
		c.DMEM[addr+3] = byte(v)
	}
	return nil
}

// execCop0 implements MFC0/MTC0 against the SP/DP IO register space (rd<8
// selects an SP register, 8<=rd<16 a DP register), per rsp.cpp's
// doCoprocessor<Coprocessor::IO>.
func (c *Core) execCop0(instrPC, instr uint32) error {
	rs, rt, rd := rsField(instr), rtField(instr), rdField(instr)
	switch rs {
	case 0x00: // MFC0
		v, err := c.readSPOrDPRegister(rd)
		if err != nil {
			return err
		}
		c.setGPR(rt, v)
	case 0x04: // MTC0
		return c.writeSPOrDPRegister(rd, c.GPR[rt])
	default:
		return unknown(instrPC, "COP0 rs field")
	}
	return nil
}

func (c *Core) execCop2(instrPC, instr uint32) error {
	rs, rt, rd := rsField(instr), rtField(instr), rdField(instr)
	switch rs {
	case 0x00: // MFC2
		elem := (instr >> 7) & 0xF
		c.setGPR(rt, uint32(int32(int16(c.V[rd].Lane(elem>>1)))))
		return nil
	case 0x04: // MTC2
		elem := (instr >> 7) & 0xF
		c.V[rd].SetLane(elem>>1, uint16(c.GPR[rt]))
		return nil
	default:
		if rs >= 0x10 {
			return c.execVUCompute(instr)
		}
		return unknown(instrPC, "COP2 rs field")
	}
}

func vuOpcode(instr uint32) uint32    { return instr & 0x3F }
func vuVD(instr uint32) uint32        { return (instr >> 6) & 0x1F }
func vuVS(instr uint32) uint32        { return (instr >> 11) & 0x1F }
func vuVT(instr uint32) uint32        { return (instr >> 16) & 0x1F }
func vuBroadcast(instr uint32) uint32 { return (instr >> 21) & 0xF }

func (c *Core) execVUCompute(instr uint32) error {
	vd, vs, vt, mod := vuVD(instr), vuVS(instr), vuVT(instr), vuBroadcast(instr)
	vtData := broadcast(c.V[vt], mod)
	switch vuOpcode(instr) {
	case vuVMULF:
		for i := uint32(0); i < numLanes; i++ {
			product := int64(c.V[vs].SignedLane(i))*int64(int16(vtData[laneIndex(i)]))*2 + 0x8000
			c.Acc.SetSigned(i, product)
			c.V[vd].SetLane(i, clampSigned(c.Acc.Signed(i)>>16))
		}
	case vuVMACF:
		for i := uint32(0); i < numLanes; i++ {
			product := int64(c.V[vs].SignedLane(i)) * int64(int16(vtData[laneIndex(i)])) * 2
			c.Acc.SetSigned(i, c.Acc.Signed(i)+product)
			c.V[vd].SetLane(i, clampSigned(c.Acc.Signed(i)>>16))
		}
	case vuVXOR:
		for i := uint32(0); i < numLanes; i++ {
			c.Acc.SetShort(i, 0, c.V[vs].Lane(i)^vtData[laneIndex(i)])
			c.V[vd].SetLane(i, c.Acc.Short(i, 0))
		}
	default:
		return unknown(c.pc, "VU compute opcode")
	}
	return nil
}

func vuLoadStoreOpcode(instr uint32) uint32 { return (instr >> 11) & 0x1F }
func vuBase(instr uint32) uint32            { return (instr >> 21) & 0x1F }
func vuVT2(instr uint32) uint32             { return (instr >> 16) & 0x1F }
func vuElement(instr uint32) uint32         { return (instr >> 7) & 0xF }
func vuOffset7(instr uint32) uint32         { return instr & 0x7F }

func signExtOffset(offset7, shift uint32) uint32 {
	// A 7-bit field, sign-extended then scaled by 2^shift, per spec §4.4's
	// "offset multiplied by the access granularity".
	v := int32(offset7<<25) >> 25
	return uint32(v << shift)
}

func (c *Core) execVULoad(instrPC, instr uint32) error {
	base, vt, element, offset := vuBase(instr), vuVT2(instr), vuElement(instr), vuOffset7(instr)
	switch vuLoadStoreOpcode(instr) {
	case vuLDV:
		addr := (c.GPR[base] + signExtOffset(offset, 3)) & 0xFFF
		last := element + 7
		if last > 15 {
			last = 15
		}
		for e := element; e <= last; e, addr = e+1, addr+1 {
			c.V[vt].setByteAt(e, c.DMEM[addr&0xFFF])
		}
	case vuLQV:
		addr := (c.GPR[base] + signExtOffset(offset, 4)) & 0xFFF
		for i := uint32(0); addr+i <= (addr&0xFF0)+15; i++ {
			c.V[vt].setByteAt((element+i)&15, c.DMEM[addr+i])
		}
	default:
		return unknown(instrPC, "VU load opcode")
	}
	return nil
}

func (c *Core) execVUStore(instrPC, instr uint32) error {
	base, vt, element, offset := vuBase(instr), vuVT2(instr), vuElement(instr), vuOffset7(instr)
	switch vuLoadStoreOpcode(instr) {
	case vuSSV:
		addr := (c.GPR[base] + signExtOffset(offset, 1)) & 0xFFF
		lane := c.V[vt].Lane(element >> 1)
		c.DMEM[addr] = byte(lane >> 8)
		c.DMEM[(addr+1)&0xFFF] = byte(lane)
	case vuSDV:
		addr := (c.GPR[base] + signExtOffset(offset, 3)) & 0xFFF
		for i := uint32(0); i < 8; i++ {
			c.DMEM[(addr+i)&0xFFF] = c.V[vt].byteAt((element + i) & 15)
		}
	case vuSQV:
		addr := (c.GPR[base] + signExtOffset(offset, 4)) & 0xFFF
		for i := uint32(0); addr+i <= (addr&0xFF0)+15; i++ {
			c.DMEM[addr+i] = c.V[vt].byteAt((element + i) & 15)
		}
	default:
		return unknown(instrPC, "VU store opcode")
	}
	return nil
}
