package rdp

import (
	"encoding/binary"
	"testing"
)

type fakeDRAM struct {
	mem [0x10000]byte
}

func (d *fakeDRAM) Read64(addr uint32) (uint64, error) {
	return binary.BigEndian.Uint64(d.mem[addr:]), nil
}

func (d *fakeDRAM) Read16(addr uint32) (uint16, error) {
	return binary.BigEndian.Uint16(d.mem[addr:]), nil
}

func (d *fakeDRAM) Write16(addr uint32, v uint16) error {
	binary.BigEndian.PutUint16(d.mem[addr:], v)
	return nil
}

func (d *fakeDRAM) putWord(addr uint32, v uint64) {
	binary.BigEndian.PutUint64(d.mem[addr:], v)
}

type fakeLine struct{ requested int }

func (l *fakeLine) Request() { l.requested++ }

func TestDecodeImageHeaderExtractsFields(t *testing.T) {
	// dramaddr=0x1234, width-1=319 (width=320), size=Size16BPP, format=FormatRGBA.
	data := uint64(0x123456) | uint64(319)<<32 | uint64(Size16BPP)<<51 | uint64(FormatRGBA)<<53
	img := decodeImageHeader(data)
	if img.DRAMAddr != 0x123456 || img.Width != 320 || img.Size != Size16BPP || img.Format != FormatRGBA {
		t.Fatalf("decodeImageHeader = %+v", img)
	}
}

func TestFillRectangleWritesFillColorAcrossBox(t *testing.T) {
	dram := &fakeDRAM{}
	c := New(dram, &fakeLine{})
	c.colorImage = Image{DRAMAddr: 0, Width: 4, Size: Size16BPP, Format: FormatRGBA}
	c.fillColor = 0xBEEF_BEEF

	// Rectangle [0,0)-[2,2) in pixels, encoded as 10.2 fixed point (<<2).
	if err := c.fillRectangle(0, 0, 2<<2, 2<<2); err != nil {
		t.Fatal(err)
	}
	for y := uint32(0); y < 2; y++ {
		for x := uint32(0); x < 2; x++ {
			got, _ := dram.Read16(2 * (4*y + x))
			if got != 0xBEEF {
				t.Fatalf("pixel(%d,%d) = %#x, want 0xbeef", x, y, got)
			}
		}
	}
}

func TestLoadTLUTQuadruplesPaletteEntry(t *testing.T) {
	dram := &fakeDRAM{}
	binary.BigEndian.PutUint16(dram.mem[0:], 0xABCD)

	c := New(dram, &fakeLine{})
	c.textureImage = Image{DRAMAddr: 0, Width: 1, Size: Size16BPP, Format: FormatRGBA}
	c.tiles[0] = TileDescriptor{Format: FormatRGBA, TMEMAddr: 0x100}

	if err := c.loadTLUT(0, 0, 0, 0, 0); err != nil {
		t.Fatal(err)
	}
	want := uint64(0xABCD)<<48 | uint64(0xABCD)<<32 | uint64(0xABCD)<<16 | uint64(0xABCD)
	if got := c.tmem[0x100]; got != want {
		t.Fatalf("tmem[0x100] = %#x, want %#x", got, want)
	}
}

func TestProcessCommandListDispatchesSetColorImageAndSyncFull(t *testing.T) {
	dram := &fakeDRAM{}
	line := &fakeLine{}
	c := New(dram, line)

	// SetColorImage(dramaddr=0x1000, width-1=0x4F (width=80), size=16BPP, format=RGBA).
	setColorImage := uint64(cmdSetColorImage)<<56 | uint64(0x1000) | uint64(0x4F)<<32 | uint64(Size16BPP)<<51 | uint64(FormatRGBA)<<53
	dram.putWord(0, setColorImage)
	dram.putWord(8, uint64(cmdSyncFull)<<56)

	newStart, err := c.ProcessCommandList(0, 16)
	if err != nil {
		t.Fatal(err)
	}
	if newStart != 16 {
		t.Fatalf("new start = %#x, want 0x10", newStart)
	}
	if c.colorImage.DRAMAddr != 0x1000 || c.colorImage.Width != 80 {
		t.Fatalf("colorImage = %+v", c.colorImage)
	}
	if line.requested != 1 {
		t.Fatalf("interrupt requested %d times, want 1", line.requested)
	}
}

func TestWriteIOEndTriggersCommandList(t *testing.T) {
	dram := &fakeDRAM{}
	line := &fakeLine{}
	c := New(dram, line)

	dram.putWord(0, uint64(cmdSyncFull)<<56)

	if err := c.WriteIO(regStart, 0); err != nil {
		t.Fatal(err)
	}
	if err := c.WriteIO(regEnd, 8); err != nil {
		t.Fatal(err)
	}
	if c.start != 8 {
		t.Fatalf("start = %#x after processing, want 8", c.start)
	}
	if line.requested != 1 {
		t.Fatal("Sync Full did not raise the interrupt")
	}
	v, err := c.ReadIO(regCurrent)
	if err != nil {
		t.Fatal(err)
	}
	if v != c.end {
		t.Fatalf("CURRENT = %#x, want END = %#x", v, c.end)
	}
}
