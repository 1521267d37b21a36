package pi

// PI register offsets, relative to the peripheral interface's register
// block base. DRAMADDR/CARTADDR/STATUS and the domain timing sets match
// pi.cpp's IORegister exactly; RDLEN fills the gap pi.cpp leaves at 0x08
// (present on hardware and in clktmr-n64/rcp/periph/regs.go's readLen, never
// wired by pi.cpp because that source only ever exercises cart->RAM DMA).
const (
	regDRAMAddr  = 0x00
	regCartAddr  = 0x04
	regRdLen     = 0x08
	regWrLen     = 0x0C
	regStatus    = 0x10
	regBSDDom1Lat = 0x14
	regBSDDom1Pwd = 0x18
	regBSDDom1Pgs = 0x1C
	regBSDDom1Rls = 0x20
	regBSDDom2Lat = 0x24
	regBSDDom2Pwd = 0x28
	regBSDDom2Pgs = 0x2C
	regBSDDom2Rls = 0x30
)

// ReadIO and WriteIO implement bus.IOBlock.
func (c *Core) ReadIO(offset uint32) (uint32, error) {
	switch offset {
	case regDRAMAddr:
		return c.dramAddr, nil
	case regCartAddr:
		return c.cartAddr, nil
	case regStatus:
		return c.status, nil
	case regBSDDom1Lat:
		return c.dom[0].latch, nil
	case regBSDDom1Pwd:
		return c.dom[0].pulseWidth, nil
	case regBSDDom1Pgs:
		return c.dom[0].pageSize, nil
	case regBSDDom1Rls:
		return c.dom[0].release, nil
	case regBSDDom2Lat:
		return c.dom[1].latch, nil
	case regBSDDom2Pwd:
		return c.dom[1].pulseWidth, nil
	case regBSDDom2Pgs:
		return c.dom[1].pageSize, nil
	case regBSDDom2Rls:
		return c.dom[1].release, nil
	default:
		return 0, &FatalError{Offset: offset, Message: "unmapped PI register read"}
	}
}

func (c *Core) WriteIO(offset uint32, v uint32) error {
	switch offset {
	case regDRAMAddr:
		c.dramAddr = v & 0xFF_FFFF
	case regCartAddr:
		c.cartAddr = v
	case regRdLen:
		c.doDMAToCart((v & 0xFF_FFFF) + 1)
	case regWrLen:
		c.doDMAToRAM((v & 0xFF_FFFF) + 1)
	case regStatus:
		if v&1 != 0 {
			c.status &^= statusDMABusy | statusError
		}
		if v&2 != 0 {
			c.intr.Clear()
		}
	case regBSDDom1Lat:
		c.dom[0].latch = v & 0xFF
	case regBSDDom1Pwd:
		c.dom[0].pulseWidth = v & 0xFF
	case regBSDDom1Pgs:
		c.dom[0].pageSize = v & 0xF
	case regBSDDom1Rls:
		c.dom[0].release = v & 0x3
	case regBSDDom2Lat:
		c.dom[1].latch = v & 0xFF
	case regBSDDom2Pwd:
		c.dom[1].pulseWidth = v & 0xFF
	case regBSDDom2Pgs:
		c.dom[1].pageSize = v & 0xF
	case regBSDDom2Rls:
		c.dom[1].release = v & 0x3
	default:
		return &FatalError{Offset: offset, Message: "unmapped PI register write"}
	}
	return nil
}
