package vi

import "fmt"

// VI register offsets, per vi.hpp's IORegister.
const (
	regControl = 0x00
	regOrigin  = 0x04
	regWidth   = 0x08
	regIntr    = 0x0C
	regCurrent = 0x10
	regBurst   = 0x14
	regVSync   = 0x18
	regHSync   = 0x1C
	regLeap    = 0x20
	regHStart  = 0x24
	regVStart  = 0x28
	regVBurst  = 0x2C
	regXScale  = 0x30
	regYScale  = 0x34
)

type FatalError struct {
	Offset  uint32
	Message string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("vi: %s (offset=%#x)", e.Message, e.Offset)
}

func (c *Core) ReadIO(offset uint32) (uint32, error) {
	switch offset {
	case regCurrent:
		return c.current & 0x3FF, nil
	default:
		return 0, &FatalError{Offset: offset, Message: "unmapped VI register read"}
	}
}

func (c *Core) WriteIO(offset uint32, v uint32) error {
	switch offset {
	case regControl:
		c.control = v
	case regOrigin:
		c.origin = v & 0xFF_FFFF
	case regWidth:
		c.width = v & 0xFFF
	case regIntr:
		c.intr = v & 0x3FF
	case regCurrent:
		// No effect: this package does not clear the vertical interrupt;
		// see Core's doc comment for where it is raised.
	case regBurst:
		c.burst = v
	case regVSync:
		c.vsync = v & 0x3FF
	case regHSync:
		c.hsync = v
	case regLeap:
		c.leap = v
	case regHStart:
		c.hstart = v
	case regVStart:
		c.vstart = v
	case regVBurst:
		c.vburst = v
	case regXScale:
		c.xscale = v
	case regYScale:
		c.yscale = v
	default:
		return &FatalError{Offset: offset, Message: "unmapped VI register write"}
	}
	return nil
}
