package ri

// RI control-block register offsets, per ri.hpp's IORegister.
const (
	regMode        = 0x00
	regConfig      = 0x04
	regCurrentLoad = 0x08
	regSelect      = 0x0C
	regRefresh     = 0x10
)

// RDRAM module register offsets, per ri.hpp's RDRAMRegister. The broadcast
// alias sets bit 19 on top of the same offsets.
const (
	regDeviceID = 0x04
	regDelay    = 0x08
	regModeMod  = 0x0C
	regRefRow   = 0x14

	broadcastBit = 1 << 19
)

// ReadIO and WriteIO implement bus.IOBlock for the RI control registers.
func (c *Core) ReadIO(offset uint32) (uint32, error) {
	switch offset {
	case regSelect:
		return c.select_, nil
	case regRefresh:
		return c.refresh, nil
	default:
		return 0, &FatalError{Offset: offset, Message: "unmapped RI register read"}
	}
}

func (c *Core) WriteIO(offset uint32, v uint32) error {
	switch offset {
	case regMode:
		c.mode = v
	case regConfig:
		c.config = v
	case regCurrentLoad:
		// No effect modeled; write-only calibration trigger on real hardware.
	case regSelect:
		c.select_ = v
	case regRefresh:
		c.refresh = v
	default:
		return &FatalError{Offset: offset, Message: "unmapped RI register write"}
	}
	return nil
}

// ReadIO and WriteIO implement bus.IOBlock for the RDRAM module window.
func (b *ModuleBlock) ReadIO(offset uint32) (uint32, error) {
	switch offset &^ broadcastBit {
	case regModeMod:
		return b.c.moduleMode, nil
	default:
		return 0, &FatalError{Offset: offset, Message: "unmapped RDRAM module register read"}
	}
}

func (b *ModuleBlock) WriteIO(offset uint32, v uint32) error {
	broadcast := offset&broadcastBit != 0
	switch offset &^ broadcastBit {
	case regDeviceID:
		b.c.deviceID = v
	case regDelay:
		if broadcast && b.c.delay == 0 {
			// IPL3 rotates this value by 16 during boot; ri.cpp's
			// writeRDRAMBroadcast carries this as an explicit hack to
			// compensate, applied only on the module's first delay write.
			b.c.delay = (v << 16) | (v >> 16)
		} else {
			b.c.delay = v
		}
	case regModeMod:
		b.c.moduleMode = v
	case regRefRow:
		b.c.refRow = v
	default:
		return &FatalError{Offset: offset, Message: "unmapped RDRAM module register write"}
	}
	return nil
}
