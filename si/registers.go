package si

// SI register offsets, per si.hpp's IORegister.
const (
	regDRAMAddr = 0x00
	regPIFAddrRD64B = 0x04
	regPIFAddrWR64B = 0x10
	regStatus       = 0x18
)

func (c *Core) ReadIO(offset uint32) (uint32, error) {
	switch offset {
	case regDRAMAddr:
		return c.dramAddr, nil
	case regStatus:
		return c.status, nil
	default:
		return 0, &FatalError{Offset: offset, Message: "unmapped SI register read"}
	}
}

func (c *Core) WriteIO(offset uint32, v uint32) error {
	switch offset {
	case regDRAMAddr:
		c.dramAddr = v & 0xFF_FFFF
	case regPIFAddrRD64B:
		c.pifAddr = v &^ 3 // ADRD64B's addr field excludes the low 2 bits
		c.startDMA(false)
	case regPIFAddrWR64B:
		c.pifAddr = v &^ 3
		c.startDMA(true)
	case regStatus:
		c.intr.Clear()
	default:
		return &FatalError{Offset: offset, Message: "unmapped SI register write"}
	}
	return nil
}
