// Package vi implements the video interface: the raster-timing and
// framebuffer-pointer registers the presentation stub reads to know what to
// draw.
package vi

// FramebufferFormat is VI CONTROL's pixel-type field.
type FramebufferFormat uint32

const (
	FormatBlank FramebufferFormat = iota
	formatReserved
	FormatRGBA5551
	FormatRGBA8888
)

// Core is the video interface: every raster-timing register plus the
// framebuffer origin/width/format the presentation stub samples. This
// package raises and clears no interrupt (a CURRENT write changes nothing);
// package system requests mi.VideoInterface from its scheduled vblank event.
type Core struct {
	control uint32
	origin  uint32
	width   uint32
	intr    uint32
	current uint32
	burst   uint32
	vsync   uint32
	hsync   uint32
	leap    uint32
	hstart  uint32
	vstart  uint32
	vburst  uint32
	xscale  uint32
	yscale  uint32
}

func New() *Core { return &Core{} }

func (c *Core) Reset() { *c = Core{} }

// Format returns the framebuffer pixel format currently configured.
func (c *Core) Format() FramebufferFormat { return FramebufferFormat(c.control & 0x3) }

// Origin returns the framebuffer's DRAM address.
func (c *Core) Origin() uint32 { return c.origin }

// Width returns the framebuffer's pixel width.
func (c *Core) Width() uint32 { return c.width }
