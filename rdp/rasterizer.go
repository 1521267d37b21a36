package rdp

// textureRectangleHeader is the first command word of a Texture Rectangle,
// per rasterizer.hpp's TextureRectangleHeader (coordinates in 10.2
// fixed-point).
type textureRectangleHeader struct {
	Y0, X0, Tile, Y1, X1 uint32
}

// textureRectangleParams is the second command word: 16.16-ish texture
// coordinate and per-step deltas, per TextureRectangleParameters.
type textureRectangleParams struct {
	DTDY, DSDX, T, S uint16
}

func (c *Core) readTMEM4(tmemAddr, x, y, width uint32) uint32 {
	idx := tmemAddr + width*y + x/16
	return uint32(c.tmem[idx]>>(4*(15-(x&15)))) & 0xF
}

func (c *Core) readTMEM8(tmemAddr, x, y, width uint32) uint32 {
	idx := tmemAddr + width*y + x/8
	return uint32(c.tmem[idx]>>(8*(7-(x&7)))) & 0xFF
}

func (c *Core) readTMEM16(tmemAddr, x, y, width uint32) uint32 {
	idx := tmemAddr + width*y + x/4
	return uint32(c.tmem[idx]>>(16*(3-(x&3)))) & 0xFFFF
}

// loadTMEM8RGBA copies 4 RGBA/color-indexed texels at a time from the
// texture image into TMEM, per rasterizer.cpp's loadTMEM<RGBA, _8BPP,
// false>.
func (c *Core) loadTMEM8RGBA(dramaddr, tmemAddr, x0, y0, x1, y1, dramWidth, tmemWidth uint32) error {
	for y := y0; y <= y1; y++ {
		for x := x0; x < (x1+1)/4; x += 8 {
			texels, err := c.dram.Read64(dramaddr + dramWidth*y + 8*(x/8))
			if err != nil {
				return err
			}
			addr := tmemAddr + tmemWidth*(y-y0) + (x-x0)/8
			if addr >= numTMEMWords {
				return &FatalError{Addr: addr, Message: "TMEM address out of range"}
			}
			c.tmem[addr] = texels
		}
	}
	return nil
}

func (c *Core) loadTMEM16RGBA(dramaddr, tmemAddr, x0, y0, x1, y1, dramWidth, tmemWidth uint32) error {
	for y := y0; y <= y1; y++ {
		for x := x0; x < (x1+1)/4; x += 4 {
			texels, err := c.dram.Read64(dramaddr + 2*dramWidth*y + 8*(x/4))
			if err != nil {
				return err
			}
			addr := tmemAddr + tmemWidth*(y-y0) + (x-x0)/4
			if addr >= numTMEMWords {
				return &FatalError{Addr: addr, Message: "TMEM address out of range"}
			}
			c.tmem[addr] = texels
		}
	}
	return nil
}

// loadTMEM16RGBATLUT loads a palette: each 16-bit entry is quadrupled
// across the TMEM word's four lanes so a single 16-bit fetch later finds
// the palette color regardless of lane, per loadTMEM<RGBA, _16BPP, true>.
func (c *Core) loadTMEM16RGBATLUT(dramaddr, tmemAddr, x0, y0, x1, y1, dramWidth, tmemWidth uint32) error {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			texel, err := c.dram.Read16(dramaddr + 2*(dramWidth*y+x))
			if err != nil {
				return err
			}
			addr := tmemAddr + tmemWidth*(y-y0) + (x - x0)
			if addr >= numTMEMWords {
				return &FatalError{Addr: addr, Message: "TMEM address out of range"}
			}
			c.tmem[addr] = 0x0001_0001_0001_0001 * uint64(texel)
		}
	}
	return nil
}

func (c *Core) loadTile(tileIndex, x0, y0, x1, y1 uint32) error {
	tile := c.tiles[tileIndex]
	dramaddr := c.textureImage.DRAMAddr

	switch tile.Format {
	case FormatRGBA, FormatColorIndexed:
		switch tile.Size {
		case Size8BPP:
			return c.loadTMEM8RGBA(dramaddr, tile.TMEMAddr, x0>>2, y0>>2, x1>>2, y1>>2, c.textureImage.Width, tile.Line)
		case Size16BPP:
			return c.loadTMEM16RGBA(dramaddr, tile.TMEMAddr, x0>>2, y0>>2, x1>>2, y1>>2, c.textureImage.Width, tile.Line)
		default:
			return &FatalError{Message: "unrecognized tile size for Load Tile"}
		}
	default:
		return &FatalError{Message: "unrecognized tile format for Load Tile"}
	}
}

func (c *Core) loadTLUT(tileIndex, x0, y0, x1, y1 uint32) error {
	tile := c.tiles[tileIndex]
	dramaddr := c.textureImage.DRAMAddr
	width := ((x1-x0)>>2)+1

	switch tile.Format {
	case FormatRGBA:
		switch c.textureImage.Size {
		case Size16BPP:
			return c.loadTMEM16RGBATLUT(dramaddr, tile.TMEMAddr, x0>>2, y0>>2, x1>>2, y1>>2, width, width)
		default:
			return &FatalError{Message: "unrecognized TLUT size"}
		}
	default:
		return &FatalError{Message: "unrecognized TLUT format"}
	}
}

// combine2ndCycle documents the rasterizer's known limitation: the combine
// mode descriptor is recorded by SetCombineMode but every pixel's second
// cycle simply passes texel0 through, per rasterizer.cpp's
// combine2ndCycle<_16BPP>, which computes its four inputs and discards
// them.
func (c *Core) combine2ndCycle(texel0 uint32) uint32 {
	return texel0
}

// fillRectangle writes the low 16 bits of the fill-color register to every
// pixel in [x0/4, x1/4) x [y0/4, y1/4) of the color image.
func (c *Core) fillRectangle(x0, y0, x1, y1 uint32) error {
	fillColor := uint16(c.fillColor)
	for y := y0 >> 2; y < y1>>2; y++ {
		for x := x0 >> 2; x < x1>>2; x++ {
			addr := c.colorImage.DRAMAddr + 2*(c.colorImage.Width*y+x)
			if err := c.dram.Write16(addr, fillColor); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Core) fetchTexel(tile TileDescriptor, u, v uint32) (uint32, error) {
	switch tile.Format {
	case FormatColorIndexed:
		switch tile.Size {
		case Size4BPP:
			index := c.readTMEM4(tile.TMEMAddr, u, v, tile.Line)
			return c.readTMEM16(0x100+16*tile.Palette, 4*index, 0, 1), nil
		case Size8BPP:
			index := c.readTMEM8(tile.TMEMAddr, u, v, tile.Line)
			return c.readTMEM16(0x100, 4*index, 0, 1), nil
		default:
			return 0, &FatalError{Message: "unrecognized texture size"}
		}
	default:
		return 0, &FatalError{Message: "unrecognized texture format"}
	}
}

// textureRectangle iterates the destination pixels in the header's box,
// stepping the 16.16-ish texture coordinate by (dsdx, 0)/(0, dtdy) per
// column/row, and additively blends the fetched texel into the color
// image -- except tile palette 13, which overwrites. This is the deliberate
// simplification spec'd in place of the full blender.
func (c *Core) textureRectangle(header textureRectangleHeader, params textureRectangleParams) error {
	s := int64(int16(params.S))
	t := int64(int16(params.T))
	dsdx := int64(int16(params.DSDX))
	dtdy := int64(int16(params.DTDY))

	if dsdx>>10 == 4 {
		dsdx = 1 << 10
	}

	tile := c.tiles[header.Tile]

	v := t
	for y := header.Y0 >> 2; y < header.Y1>>2; y++ {
		u := s
		for x := header.X0 >> 2; x < header.X1>>2; x++ {
			texel, err := c.fetchTexel(tile, uint32(u>>5), uint32(v>>5))
			if err != nil {
				return err
			}
			texel = c.combine2ndCycle(texel)

			if c.colorImage.Format != FormatRGBA || c.colorImage.Size != Size16BPP {
				return &FatalError{Message: "unhandled frame buffer configuration"}
			}

			addr := c.colorImage.DRAMAddr + 2*(c.colorImage.Width*y+x)
			if tile.Palette != 0xD {
				oldColor, err := c.dram.Read16(addr)
				if err != nil {
					return err
				}

				b := (texel>>1)&0x1F + (uint32(oldColor)>>1)&0x1F
				g := (texel>>6)&0x1F + (uint32(oldColor)>>6)&0x1F
				r := (texel>>11)&0x1F + (uint32(oldColor)>>11)&0x1F
				if b > 0x1F {
					b = 0x1F
				}
				if g > 0x1F {
					g = 0x1F
				}
				if r > 0x1F {
					r = 0x1F
				}

				newColor := (texel & 1) | b<<1 | g<<6 | r<<11
				if err := c.dram.Write16(addr, uint16(newColor)); err != nil {
					return err
				}
			} else {
				if err := c.dram.Write16(addr, uint16(texel)); err != nil {
					return err
				}
			}

			u = ((u << 5) + dsdx) >> 5
		}
		v = ((v << 5) + dtdy) >> 5
	}
	return nil
}
