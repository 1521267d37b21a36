package cpu

// Primary opcode field values.
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
	opADDIU   = 0x09
	opSLTI    = 0x0A
	opSLTIU   = 0x0B
	opANDI    = 0x0C
	opORI     = 0x0D
	opXORI    = 0x0E
	opLUI     = 0x0F
	opCOP0    = 0x10
	opCOP1    = 0x11
	opBEQL    = 0x14
	opBNEL    = 0x15
	opBLEZL   = 0x16
	opBGTZL   = 0x17
	opLB      = 0x20
	opLH      = 0x21
	opLW      = 0x23
	opLBU     = 0x24
	opLHU     = 0x25
	opLWU     = 0x27
	opSB      = 0x28
	opSH      = 0x29
	opSW      = 0x2B
	opCACHE   = 0x2F
	opLWC1    = 0x31
	opLDC1    = 0x35
	opLD      = 0x37
	opSWC1    = 0x39
	opSDC1    = 0x3D
	opSD      = 0x3F
)

// SPECIAL function field values.
const (
	fnSLL     = 0x00
	fnSRL     = 0x02
	fnSRA     = 0x03
	fnSLLV    = 0x04
	fnSRLV    = 0x06
	fnSRAV    = 0x07
	fnJR      = 0x08
	fnJALR    = 0x09
	fnSYSCALL = 0x0C
	fnBREAK   = 0x0D
	fnMFHI    = 0x10
	fnMTHI    = 0x11
	fnMFLO    = 0x12
	fnMTLO    = 0x13
	fnMULT    = 0x18
	fnMULTU   = 0x19
	fnDIV     = 0x1A
	fnDIVU    = 0x1B
	fnADD     = 0x20
	fnADDU    = 0x21
	fnSUB     = 0x22
	fnSUBU    = 0x23
	fnAND     = 0x24
	fnOR      = 0x25
	fnXOR     = 0x26
	fnNOR     = 0x27
	fnSLT     = 0x2A
	fnSLTU    = 0x2B
	fnDADD    = 0x2C
	fnDADDU   = 0x2D
	fnDSUB    = 0x2E
	fnDSUBU   = 0x2F
	fnDSLL    = 0x38
	fnDSRL    = 0x3A
	fnDSRA    = 0x3B
	fnDSLL32  = 0x3C
	fnDSRL32  = 0x3E
	fnDSRA32  = 0x3F
)

// REGIMM rt field values.
const (
	riBLTZ   = 0x00
	riBGEZ   = 0x01
	riBLTZL  = 0x02
	riBGEZL  = 0x03
	riBLTZAL = 0x10
	riBGEZAL = 0x11
)

func unknown(pc uint64, what string) error {
	return &FatalError{PC: pc, Message: "unknown " + what}
}

// execute decodes and runs a single instruction. instrPC is the address it
// was fetched from; inDelaySlot reports whether it is itself a delay slot.
func (c *Core) execute(instrPC uint64, instr uint32, inDelaySlot bool) error {
	switch opField(instr) {
	case opSPECIAL:
		return c.execSpecial(instrPC, instr, inDelaySlot)
	case opREGIMM:
		return c.execRegimm(instrPC, instr, inDelaySlot)
	case opJ:
		target := (instrPC &^ 0x0FFF_FFFF) | uint64(target26Field(instr))<<2
		return c.branch(instrPC, target, true, inDelaySlot, false)
	case opJAL:
		target := (instrPC &^ 0x0FFF_FFFF) | uint64(target26Field(instr))<<2
		c.setGPR(31, instrPC+8)
		return c.branch(instrPC, target, true, inDelaySlot, false)
	case opBEQ:
		return c.branchCond(instrPC, instr, inDelaySlot, false, c.GPR[rsField(instr)] == c.GPR[rtField(instr)])
	case opBNE:
		return c.branchCond(instrPC, instr, inDelaySlot, false, c.GPR[rsField(instr)] != c.GPR[rtField(instr)])
	case opBLEZ:
		return c.branchCond(instrPC, instr, inDelaySlot, false, int64(c.GPR[rsField(instr)]) <= 0)
	case opBGTZ:
		return c.branchCond(instrPC, instr, inDelaySlot, false, int64(c.GPR[rsField(instr)]) > 0)
	case opBEQL:
		return c.branchCond(instrPC, instr, inDelaySlot, true, c.GPR[rsField(instr)] == c.GPR[rtField(instr)])
	case opBNEL:
		return c.branchCond(instrPC, instr, inDelaySlot, true, c.GPR[rsField(instr)] != c.GPR[rtField(instr)])
	case opBLEZL:
		return c.branchCond(instrPC, instr, inDelaySlot, true, int64(c.GPR[rsField(instr)]) <= 0)
	case opBGTZL:
		return c.branchCond(instrPC, instr, inDelaySlot, true, int64(c.GPR[rsField(instr)]) > 0)
	case opADDI:
		rs, rt := rsField(instr), rtField(instr)
		result := int32(c.GPR[rs]) + int32(signExt16(imm16Field(instr)))
		c.setGPR(rt, uint64(int64(result)))
		return nil
	case opADDIU:
		rs, rt := rsField(instr), rtField(instr)
		result := int32(c.GPR[rs]) + int32(signExt16(imm16Field(instr)))
		c.setGPR(rt, uint64(int64(result)))
		return nil
	case opSLTI:
		rs, rt := rsField(instr), rtField(instr)
		if int64(c.GPR[rs]) < int64(signExt16(imm16Field(instr))) {
			c.setGPR(rt, 1)
		} else {
			c.setGPR(rt, 0)
		}
		return nil
	case opSLTIU:
		rs, rt := rsField(instr), rtField(instr)
		if c.GPR[rs] < signExt16(imm16Field(instr)) {
			c.setGPR(rt, 1)
		} else {
			c.setGPR(rt, 0)
		}
		return nil
	case opANDI:
		c.setGPR(rtField(instr), c.GPR[rsField(instr)]&zeroExt16(imm16Field(instr)))
		return nil
	case opORI:
		c.setGPR(rtField(instr), c.GPR[rsField(instr)]|zeroExt16(imm16Field(instr)))
		return nil
	case opXORI:
		c.setGPR(rtField(instr), c.GPR[rsField(instr)]^zeroExt16(imm16Field(instr)))
		return nil
	case opLUI:
		c.setGPR(rtField(instr), uint64(int64(int32(imm16Field(instr)<<16))))
		return nil
	case opCOP0:
		return c.execCop0(instrPC, instr)
	case opCOP1:
		if c.FPU == nil {
			return unknown(instrPC, "COP1 instruction, no FPU attached")
		}
		if rsField(instr) == 0x08 { // BC1F/BC1T/BC1FL/BC1TL: rt bit 0 = tf, bit 1 = likely
			tf := rtField(instr)&1 != 0
			return c.branchCond(instrPC, instr, inDelaySlot, rtField(instr)&2 != 0, c.FPU.ConditionTrue() == tf)
		}
		return c.FPU.Execute(instr, &c.GPR)
	case opLB, opLH, opLW, opLBU, opLHU, opLWU, opLD, opLWC1, opLDC1:
		return c.execLoad(instrPC, instr)
	case opSB, opSH, opSW, opSD, opSWC1, opSDC1:
		return c.execStore(instrPC, instr)
	case opCACHE:
		return nil // no cache model; CACHE is a documented no-op
	default:
		return unknown(instrPC, "primary opcode")
	}
}

func (c *Core) execSpecial(instrPC uint64, instr uint32, inDelaySlot bool) error {
	rs, rt, rd, sa := rsField(instr), rtField(instr), rdField(instr), saField(instr)
	switch funcField(instr) {
	case fnSLL:
		c.setGPR(rd, uint64(int64(int32(uint32(c.GPR[rt])<<sa))))
		return nil
	case fnSRL:
		c.setGPR(rd, uint64(int64(int32(uint32(c.GPR[rt])>>sa))))
		return nil
	case fnSRA:
		c.setGPR(rd, uint64(int64(int32(c.GPR[rt])>>sa)))
		return nil
	case fnSLLV:
		c.setGPR(rd, uint64(int64(int32(uint32(c.GPR[rt])<<(c.GPR[rs]&0x1F)))))
		return nil
	case fnSRLV:
		c.setGPR(rd, uint64(int64(int32(uint32(c.GPR[rt])>>(c.GPR[rs]&0x1F)))))
		return nil
	case fnSRAV:
		c.setGPR(rd, uint64(int64(int32(c.GPR[rt])>>(c.GPR[rs]&0x1F))))
		return nil
	case fnJR:
		return c.branch(instrPC, c.GPR[rs], true, inDelaySlot, false)
	case fnJALR:
		link := rd
		if link == 0 {
			link = 31
		}
		target := c.GPR[rs]
		c.setGPR(link, instrPC+8)
		return c.branch(instrPC, target, true, inDelaySlot, false)
	case fnSYSCALL:
		c.raiseException(ExcSyscall, instrPC, inDelaySlot)
		return nil
	case fnBREAK:
		c.raiseException(ExcBreakpoint, instrPC, inDelaySlot)
		return nil
	case fnMFHI:
		c.setGPR(rd, c.HI)
		return nil
	case fnMTHI:
		c.HI = c.GPR[rs]
		return nil
	case fnMFLO:
		c.setGPR(rd, c.LO)
		return nil
	case fnMTLO:
		c.LO = c.GPR[rs]
		return nil
	case fnMULT:
		result := int64(int32(c.GPR[rs])) * int64(int32(c.GPR[rt]))
		c.LO = uint64(int64(int32(result)))
		c.HI = uint64(int64(int32(result >> 32)))
		return nil
	case fnMULTU:
		result := uint64(uint32(c.GPR[rs])) * uint64(uint32(c.GPR[rt]))
		c.LO = uint64(int64(int32(uint32(result))))
		c.HI = uint64(int64(int32(uint32(result >> 32))))
		return nil
	case fnDIV:
		return c.execDiv(rs, rt, false)
	case fnDIVU:
		return c.execDiv(rs, rt, true)
	case fnADD, fnADDU:
		result := int32(c.GPR[rs]) + int32(c.GPR[rt])
		c.setGPR(rd, uint64(int64(result)))
		return nil
	case fnSUB, fnSUBU:
		result := int32(c.GPR[rs]) - int32(c.GPR[rt])
		c.setGPR(rd, uint64(int64(result)))
		return nil
	case fnDADD, fnDADDU:
		c.setGPR(rd, c.GPR[rs]+c.GPR[rt])
		return nil
	case fnDSUB, fnDSUBU:
		c.setGPR(rd, c.GPR[rs]-c.GPR[rt])
		return nil
	case fnAND:
		c.setGPR(rd, c.GPR[rs]&c.GPR[rt])
		return nil
	case fnOR:
		c.setGPR(rd, c.GPR[rs]|c.GPR[rt])
		return nil
	case fnXOR:
		c.setGPR(rd, c.GPR[rs]^c.GPR[rt])
		return nil
	case fnNOR:
		c.setGPR(rd, ^(c.GPR[rs] | c.GPR[rt]))
		return nil
	case fnSLT:
		if int64(c.GPR[rs]) < int64(c.GPR[rt]) {
			c.setGPR(rd, 1)
		} else {
			c.setGPR(rd, 0)
		}
		return nil
	case fnSLTU:
		if c.GPR[rs] < c.GPR[rt] {
			c.setGPR(rd, 1)
		} else {
			c.setGPR(rd, 0)
		}
		return nil
	case fnDSLL:
		c.setGPR(rd, c.GPR[rt]<<sa)
		return nil
	case fnDSRL:
		c.setGPR(rd, c.GPR[rt]>>sa)
		return nil
	case fnDSRA:
		c.setGPR(rd, uint64(int64(c.GPR[rt])>>sa))
		return nil
	case fnDSLL32:
		c.setGPR(rd, c.GPR[rt]<<(sa+32))
		return nil
	case fnDSRL32:
		c.setGPR(rd, c.GPR[rt]>>(sa+32))
		return nil
	case fnDSRA32:
		c.setGPR(rd, uint64(int64(c.GPR[rt])>>(sa+32)))
		return nil
	default:
		return unknown(instrPC, "SPECIAL function")
	}
}

// execDiv implements the two canonical edge cases required by spec §4.2:
// division by zero and INT_MIN / -1 overflow.
func (c *Core) execDiv(rs, rt uint32, unsigned bool) error {
	if unsigned {
		divisor := uint32(c.GPR[rt])
		dividend := uint32(c.GPR[rs])
		if divisor == 0 {
			c.LO = 0xFFFF_FFFF_FFFF_FFFF
			c.HI = uint64(int64(int32(dividend)))
			return nil
		}
		c.LO = uint64(int64(int32(dividend / divisor)))
		c.HI = uint64(int64(int32(dividend % divisor)))
		return nil
	}

	divisor := int32(c.GPR[rt])
	dividend := int32(c.GPR[rs])
	if divisor == 0 {
		if dividend >= 0 {
			c.LO = uint64(int64(int32(1)))
		} else {
			var negOne int32 = -1
			c.LO = uint64(int64(negOne))
		}
		c.HI = uint64(int64(dividend))
		return nil
	}
	if dividend == -0x8000_0000 && divisor == -1 {
		var minInt32 int32 = -0x8000_0000
		c.LO = uint64(int64(minInt32))
		c.HI = 0
		return nil
	}
	c.LO = uint64(int64(dividend / divisor))
	c.HI = uint64(int64(dividend % divisor))
	return nil
}

func (c *Core) execRegimm(instrPC uint64, instr uint32, inDelaySlot bool) error {
	rs := rsField(instr)
	switch rtField(instr) {
	case riBLTZ:
		return c.branchCond(instrPC, instr, inDelaySlot, false, int64(c.GPR[rs]) < 0)
	case riBGEZ:
		return c.branchCond(instrPC, instr, inDelaySlot, false, int64(c.GPR[rs]) >= 0)
	case riBLTZL:
		return c.branchCond(instrPC, instr, inDelaySlot, true, int64(c.GPR[rs]) < 0)
	case riBGEZL:
		return c.branchCond(instrPC, instr, inDelaySlot, true, int64(c.GPR[rs]) >= 0)
	case riBLTZAL:
		c.setGPR(31, instrPC+8)
		return c.branchCond(instrPC, instr, inDelaySlot, false, int64(c.GPR[rs]) < 0)
	case riBGEZAL:
		c.setGPR(31, instrPC+8)
		return c.branchCond(instrPC, instr, inDelaySlot, false, int64(c.GPR[rs]) >= 0)
	default:
		return unknown(instrPC, "REGIMM rt")
	}
}

// branchCond computes the branch target per spec §4.2 and dispatches to
// branch, honoring the "likely" skip-delay-slot semantics.
func (c *Core) branchCond(instrPC uint64, instr uint32, inDelaySlot, likely, taken bool) error {
	offset := int64(int16(uint16(imm16Field(instr)))) << 2
	target := uint64(int64(instrPC+4) + offset)
	return c.branch(instrPC, target, taken, inDelaySlot, likely)
}

// branch is the single choke point for every control-transfer instruction.
// It fails fatally if the branch instruction itself occupies a delay slot
// (spec §4.2: "if the branch already executes inside a delay slot, fail
// fatally").
func (c *Core) branch(instrPC uint64, target uint64, taken, inDelaySlot, likely bool) error {
	if inDelaySlot {
		return &FatalError{PC: instrPC, Message: "branch in delay slot"}
	}
	if !taken && likely {
		// Likely-not-taken: the delay slot is fetched but annulled, never
		// reaching execute (no register, memory, or coprocessor side effects).
		c.branchPending = true
		c.branchTarget = instrPC + 8
		c.nextIsDelaySlot = false
		c.annulNext = true
		return nil
	}
	if !taken {
		return nil
	}
	c.branchPending = true
	c.branchTarget = target
	c.nextIsDelaySlot = true
	return nil
}

func (c *Core) execCop0(instrPC uint64, instr uint32) error {
	rs, rt, rd := rsField(instr), rtField(instr), rdField(instr)
	switch rs {
	case 0x00: // MFC0
		c.setGPR(rt, uint64(c.cop0Read(rd)))
		return nil
	case 0x04: // MTC0
		c.cop0Write(rd, uint32(c.GPR[rt]))
		return nil
	case 0x10: // CO subspace
		if funcField(instr) == 0x18 { // ERET
			c.returnFromException()
			return nil
		}
		return unknown(instrPC, "COP0 CO function")
	default:
		return unknown(instrPC, "COP0 rs field")
	}
}

func (c *Core) cop0Read(reg uint32) uint32 {
	switch reg {
	case 9:
		return c.COP0.Count()
	case 11:
		return c.COP0.Compare()
	case 12:
		return c.COP0.Status()
	case 13:
		return c.COP0.Cause()
	case 14:
		return uint32(c.COP0.EPC())
	case 16:
		return c.COP0.config
	default:
		return 0
	}
}

func (c *Core) cop0Write(reg uint32, v uint32) {
	switch reg {
	case 9:
		c.COP0.SetCount(v)
	case 11:
		c.COP0.SetCompare(v)
	case 12:
		c.COP0.SetStatus(v)
	case 13:
		c.COP0.cause = v
	case 14:
		c.COP0.SetEPC(uint64(v))
	case 16:
		c.COP0.config = v
	}
}
