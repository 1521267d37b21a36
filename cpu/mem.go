package cpu

// effectiveAddr computes a load/store's virtual address (base + sign-extended
// offset); translation to a physical address happens later, per access.
func (c *Core) effectiveAddr(instr uint32) uint64 {
	base := rsField(instr)
	return c.GPR[base] + signExt16(imm16Field(instr))
}

func (c *Core) checkAlign(instrPC uint64, vaddr uint64, size uint64, inDelaySlot bool, isStore bool) bool {
	if vaddr%size == 0 {
		return true
	}
	if isStore {
		c.raiseException(ExcAddressErrorStore, instrPC, inDelaySlot)
	} else {
		c.raiseException(ExcAddressErrorLoad, instrPC, inDelaySlot)
	}
	return false
}

func (c *Core) execLoad(instrPC uint64, instr uint32) error {
	rt := rtField(instr)
	vaddr := c.effectiveAddr(instr)

	switch opField(instr) {
	case opLB:
		paddr, err := c.translate(vaddr)
		if err != nil {
			return err
		}
		v, err := c.mem.Read8(paddr)
		if err != nil {
			return &FatalError{PC: instrPC, Message: err.Error()}
		}
		c.setGPR(rt, uint64(int64(int8(v))))
	case opLBU:
		paddr, err := c.translate(vaddr)
		if err != nil {
			return err
		}
		v, err := c.mem.Read8(paddr)
		if err != nil {
			return &FatalError{PC: instrPC, Message: err.Error()}
		}
		c.setGPR(rt, uint64(v))
	case opLH, opLHU:
		if !c.checkAlign(instrPC, vaddr, 2, false, false) {
			return nil
		}
		paddr, err := c.translate(vaddr)
		if err != nil {
			return err
		}
		v, err := c.mem.Read16(paddr)
		if err != nil {
			return &FatalError{PC: instrPC, Message: err.Error()}
		}
		if opField(instr) == opLH {
			c.setGPR(rt, uint64(int64(int16(v))))
		} else {
			c.setGPR(rt, uint64(v))
		}
	case opLW, opLWU, opLWC1:
		if !c.checkAlign(instrPC, vaddr, 4, false, false) {
			return nil
		}
		paddr, err := c.translate(vaddr)
		if err != nil {
			return err
		}
		v, err := c.mem.Read32(paddr)
		if err != nil {
			return &FatalError{PC: instrPC, Message: err.Error()}
		}
		switch opField(instr) {
		case opLW:
			c.setGPR(rt, uint64(int64(int32(v))))
		case opLWU:
			c.setGPR(rt, uint64(v))
		case opLWC1:
			if c.FPU != nil {
				c.FPU.LoadWord(rt, v)
			}
		}
	case opLD, opLDC1:
		if !c.checkAlign(instrPC, vaddr, 8, false, false) {
			return nil
		}
		paddr, err := c.translate(vaddr)
		if err != nil {
			return err
		}
		v, err := c.mem.Read64(paddr)
		if err != nil {
			return &FatalError{PC: instrPC, Message: err.Error()}
		}
		if opField(instr) == opLDC1 {
			if c.FPU != nil {
				c.FPU.LoadDouble(rt, v)
			}
		} else {
			c.setGPR(rt, v)
		}
	}
	return nil
}

func (c *Core) execStore(instrPC uint64, instr uint32) error {
	rt := rtField(instr)
	vaddr := c.effectiveAddr(instr)

	switch opField(instr) {
	case opSB:
		paddr, err := c.translate(vaddr)
		if err != nil {
			return err
		}
		if err := c.mem.Write8(paddr, byte(c.GPR[rt])); err != nil {
			return &FatalError{PC: instrPC, Message: err.Error()}
		}
	case opSH:
		if !c.checkAlign(instrPC, vaddr, 2, false, true) {
			return nil
		}
		paddr, err := c.translate(vaddr)
		if err != nil {
			return err
		}
		if err := c.mem.Write16(paddr, uint16(c.GPR[rt])); err != nil {
			return &FatalError{PC: instrPC, Message: err.Error()}
		}
	case opSW, opSWC1:
		if !c.checkAlign(instrPC, vaddr, 4, false, true) {
			return nil
		}
		paddr, err := c.translate(vaddr)
		if err != nil {
			return err
		}
		v := uint32(c.GPR[rt])
		if opField(instr) == opSWC1 && c.FPU != nil {
			v = c.FPU.StoreWord(rt)
		}
		if err := c.mem.Write32(paddr, v); err != nil {
			return &FatalError{PC: instrPC, Message: err.Error()}
		}
	case opSD, opSDC1:
		if !c.checkAlign(instrPC, vaddr, 8, false, true) {
			return nil
		}
		paddr, err := c.translate(vaddr)
		if err != nil {
			return err
		}
		v := c.GPR[rt]
		if opField(instr) == opSDC1 && c.FPU != nil {
			v = c.FPU.StoreDouble(rt)
		}
		if err := c.mem.Write64(paddr, v); err != nil {
			return &FatalError{PC: instrPC, Message: err.Error()}
		}
	}
	return nil
}
