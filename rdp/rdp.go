// Package rdp implements the display processor: a command-stream rasterizer
// that reads 64-bit command words from main RAM between a start/end pointer
// pair, maintains texture-memory staging, tile descriptors, and the
// color/texture image descriptors, and rasterizes fill and texture
// rectangles into the framebuffer.
package rdp

import "fmt"

// DRAM is the subset of the physical bus the command processor and
// rasterizer need to read command words and move pixels.
type DRAM interface {
	Read64(addr uint32) (uint64, error)
	Read16(addr uint32) (uint16, error)
	Write16(addr uint32, v uint16) error
}

// Interrupt requests this core's bit on the aggregated peripheral interrupt
// line. *mi.Line satisfies it.
type Interrupt interface {
	Request()
}

// FatalError is a host/implementation error: an unrecognized command or an
// out-of-range TMEM access.
type FatalError struct {
	Addr    uint32
	Message string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("rdp: %s (addr=%#08x)", e.Message, e.Addr)
}

// Image format codes, per the command stream's SetColorImage/SetTextureImage
// headers.
const (
	FormatRGBA = iota
	FormatYUV
	FormatColorIndexed
	FormatIntensityAlpha
	FormatIntensity
)

// Pixel size codes.
const (
	Size4BPP = iota
	Size8BPP
	Size16BPP
	Size32BPP
)

// Image describes a color or texture image: its DRAM location and pixel
// layout.
type Image struct {
	DRAMAddr uint32
	Width    uint32
	Size     uint32
	Format   uint32
}

// Scissor is the clipping box, in 10.2 fixed-point pixel coordinates.
type Scissor struct {
	X0, Y0, X1, Y1 uint32
}

// TileDescriptor is one of the 8 texture tile slots set by SetTile.
type TileDescriptor struct {
	SShift, SMask   uint32
	SMirror, SClamp bool
	TShift, TMask   uint32
	TMirror, TClamp bool

	Palette  uint32
	TMEMAddr uint32
	Line     uint32 // row stride within TMEM, in TMEM words
	Size     uint32
	Format   uint32
}

const numTMEMWords = 0x200 // 512 64-bit words = 4 KiB

// Core is the display processor: command-list cursor, rasterizer context,
// and TMEM.
type Core struct {
	colorImage, textureImage Image
	scissor                  Scissor
	combineMode uint64
	tiles       [8]TileDescriptor
	fillColor   uint32

	tmem [numTMEMWords]uint64

	start, end, current uint32
	status              uint32

	dram DRAM
	intr Interrupt
}

// New returns a display processor core wired to dram for command-list and
// pixel access and intr for the Sync Full interrupt.
func New(dram DRAM, intr Interrupt) *Core {
	c := &Core{dram: dram, intr: intr}
	c.Reset()
	return c
}

func (c *Core) Reset() {
	c.colorImage, c.textureImage = Image{}, Image{}
	c.scissor = Scissor{}
	c.combineMode = 0
	c.tiles = [8]TileDescriptor{}
	c.fillColor = 0
	c.tmem = [numTMEMWords]uint64{}
	c.start, c.end, c.current = 0, 0, 0
	c.status = 0
}

// Command codes, the low 6 bits of the command word's top byte. Values
// match hw/rdp/rdp.cpp's Command enum; FillRectangle and SetFillColor are
// supplemental (present on hardware, absent from that source's dispatch
// table, required by this package's fill-rectangle support).
const (
	cmdTextureRectangle = 0x24
	cmdSyncLoad         = 0x26
	cmdSyncPipe         = 0x27
	cmdSyncTile         = 0x28
	cmdSyncFull         = 0x29
	cmdSetScissor       = 0x2D
	cmdSetOtherModes    = 0x2F
	cmdLoadTLUT         = 0x30
	cmdFillRectangle    = 0x36
	cmdSetFillColor     = 0x37
	cmdLoadTile         = 0x34
	cmdSetTile          = 0x35
	cmdSetCombineMode   = 0x3C
	cmdSetTextureImage  = 0x3D
	cmdSetColorImage    = 0x3F
)

// ProcessCommandList reads and dispatches command words from startAddr up
// to (not including) endAddr, returning the new start pointer: the end
// address once every word has been consumed, per dp.cpp's writeIO(END).
func (c *Core) ProcessCommandList(startAddr, endAddr uint32) (uint32, error) {
	if startAddr >= endAddr {
		return startAddr, nil
	}

	addr := startAddr
	for addr < endAddr {
		data, err := c.dram.Read64(addr)
		if err != nil {
			return addr, err
		}

		command := byte(data>>56) & 0x3F
		advance := uint32(8)
		switch command {
		case cmdTextureRectangle:
			next, err := c.dram.Read64(addr + 8)
			if err != nil {
				return addr, err
			}
			if err := c.cmdTextureRectangle(data, next); err != nil {
				return addr, err
			}
			advance = 16
		case cmdSyncLoad, cmdSyncPipe, cmdSyncTile:
			// No pipeline stalls are modeled; these are no-ops.
		case cmdSyncFull:
			c.intr.Request()
		case cmdSetScissor:
			c.cmdSetScissor(data)
		case cmdSetOtherModes:
			// Mode bits are recorded nowhere; the rasterizer always runs a
			// fixed pipeline. See combine2ndCycle for the same limitation.
		case cmdLoadTLUT:
			if err := c.cmdLoadTLUT(data); err != nil {
				return addr, err
			}
		case cmdFillRectangle:
			if err := c.cmdFillRectangle(data); err != nil {
				return addr, err
			}
		case cmdSetFillColor:
			c.fillColor = uint32(data)
		case cmdLoadTile:
			if err := c.cmdLoadTile(data); err != nil {
				return addr, err
			}
		case cmdSetTile:
			c.cmdSetTile(data)
		case cmdSetCombineMode:
			c.combineMode = data
		case cmdSetTextureImage:
			c.textureImage = decodeImageHeader(data)
		case cmdSetColorImage:
			c.colorImage = decodeImageHeader(data)
		default:
			return addr, &FatalError{Addr: addr, Message: fmt.Sprintf("unrecognized command %#02x", command)}
		}

		addr += advance
	}

	return addr, nil
}

func decodeImageHeader(data uint64) Image {
	return Image{
		DRAMAddr: uint32(data & 0xFF_FFFF),
		Width:    uint32((data>>32)&0x3FF) + 1,
		Size:     uint32((data >> 51) & 0x3),
		Format:   uint32((data >> 53) & 0x7),
	}
}

func (c *Core) cmdSetScissor(data uint64) {
	c.scissor = Scissor{
		X0: uint32((data >> 36) & 0xFFF),
		Y0: uint32((data >> 24) & 0xFFF),
		X1: uint32((data >> 12) & 0xFFF),
		Y1: uint32(data & 0xFFF),
	}
}

func (c *Core) cmdSetTile(data uint64) {
	index := (data >> 24) & 0x7
	c.tiles[index] = TileDescriptor{
		SShift:  uint32(data & 0xF),
		SMask:   uint32((data >> 4) & 0xF),
		SMirror: data&(1<<8) != 0,
		SClamp:  data&(1<<9) != 0,
		TShift:  uint32((data >> 10) & 0xF),
		TMask:   uint32((data >> 14) & 0xF),
		TMirror: data&(1<<18) != 0,
		TClamp:  data&(1<<19) != 0,

		Palette:  uint32((data >> 20) & 0xF),
		TMEMAddr: uint32((data >> 32) & 0x1FF),
		Line:     uint32((data >> 41) & 0x1FF),
		Size:     uint32((data >> 51) & 0x3),
		Format:   uint32((data >> 53) & 0x7),
	}
}

func loadTLUTHeader(data uint64) (tile, x0, y0, x1, y1 uint32) {
	return uint32((data >> 24) & 0x7), uint32((data >> 44) & 0xFFF), uint32((data >> 32) & 0xFFF), uint32((data >> 12) & 0xFFF), uint32(data & 0xFFF)
}

func (c *Core) cmdLoadTile(data uint64) error {
	tile, x0, y0, x1, y1 := loadTLUTHeader(data)
	return c.loadTile(tile, x0, y0, x1, y1)
}

func (c *Core) cmdLoadTLUT(data uint64) error {
	tile, x0, y0, x1, y1 := loadTLUTHeader(data)
	return c.loadTLUT(tile, x0, y0, x1, y1)
}

func (c *Core) cmdFillRectangle(data uint64) error {
	x1 := uint32((data >> 44) & 0xFFF)
	y1 := uint32((data >> 32) & 0xFFF)
	x0 := uint32((data >> 12) & 0xFFF)
	y0 := uint32(data & 0xFFF)
	return c.fillRectangle(x0, y0, x1, y1)
}

func (c *Core) cmdTextureRectangle(data, next uint64) error {
	header := textureRectangleHeader{
		Y0:   uint32(data & 0xFFF),
		X0:   uint32((data >> 12) & 0xFFF),
		Tile: uint32((data >> 24) & 0x7),
		Y1:   uint32((data >> 32) & 0xFFF),
		X1:   uint32((data >> 44) & 0xFFF),
	}
	params := textureRectangleParams{
		DTDY: uint16(next),
		DSDX: uint16(next >> 16),
		T:    uint16(next >> 32),
		S:    uint16(next >> 48),
	}
	return c.textureRectangle(header, params)
}
