package ai

// AI register offsets, per ai.hpp's IORegister.
const (
	regDRAMAddr = 0x00
	regLength   = 0x04
	regControl  = 0x08
	regStatus   = 0x0C
	regDACRate  = 0x10
	regBitRate  = 0x14
)

const (
	statusFull = 1 << 31
	statusBusy = 1 << 30 // modeled bit; hardware reuses bit 24, folded here for clarity
)

func (c *Core) ReadIO(offset uint32) (uint32, error) {
	switch offset {
	case regLength:
		return c.desc[0].length, nil
	case regStatus:
		v := uint32(0)
		if c.activeDMAs > 0 {
			v |= 1 << 24 // busy
			v |= statusBusy
		}
		if c.activeDMAs > 1 {
			v |= 1 << 0 // full, low bit per ai.cpp's readIO
			v |= statusFull
		}
		if c.dmaEnable {
			v |= 1 << 25
		}
		return v, nil
	default:
		return 0, &FatalError{Offset: offset, Message: "unmapped AI register read"}
	}
}

func (c *Core) WriteIO(offset uint32, v uint32) error {
	switch offset {
	case regDRAMAddr:
		if c.activeDMAs < 2 {
			c.desc[c.activeDMAs].dramAddr = (v >> 3) & 0x1F_FFFF
		}
	case regLength:
		if c.activeDMAs < 2 && v != 0 {
			c.desc[c.activeDMAs].length = (v >> 3) & 0x7FFF

			c.activeDMAs++
			if c.activeDMAs == 1 && c.dmaEnable {
				c.intr.Request()
				c.sched.AddEvent(c.sampleID, 0, aiCycles(c.dacRate))
			}
		}
		c.updateStatus()
	case regControl:
		c.dmaEnable = v&1 != 0
		if !c.dmaEnable {
			c.currentSamples = 0
		}
	case regStatus:
		c.intr.Clear()
	case regDACRate:
		c.dacRate = v & 0x3FFF
	case regBitRate:
		c.bitRate = v & 0x3FFF
	default:
		return &FatalError{Offset: offset, Message: "unmapped AI register write"}
	}
	return nil
}
