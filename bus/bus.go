// Package bus implements the N64's physical address space: a page table over
// the bulk memory regions (main RAM, signal-processor local memory, the
// cartridge image) and a region dispatcher for the memory-mapped peripheral
// register blocks.
package bus

import (
	"encoding/binary"
	"fmt"
)

// Physical address space layout. I/O blocks are dispatched by the 1 MiB
// region containing their base, so a block whose base is not region-aligned
// (SPRegsBase) receives offsets from the region start. The bulk memory
// regions are page-table backed.
const (
	RAMBase = 0x0000_0000
	RAMSize = 8 * 1024 * 1024

	RDRAMRegsBase = 0x03F0_0000 // per-module RDRAM tuning registers, broadcast-aliased

	SPDMEMBase = 0x0400_0000
	SPIMEMBase = 0x0400_1000
	SPMemSize  = 4 * 1024

	SPRegsBase = 0x0404_0000
	DPRegsBase = 0x0410_0000
	MIRegsBase = 0x0430_0000
	VIRegsBase = 0x0440_0000
	AIRegsBase = 0x0450_0000
	PIRegsBase = 0x0460_0000
	RIRegsBase = 0x0470_0000
	SIRegsBase = 0x0480_0000

	CartBase    = 0x1000_0000
	CartMaxSize = 64 * 1024 * 1024

	PIFBase     = 0x1FC0_0000
	PIFROMSize  = 1984
	PIFRAMBase  = 0x1FC0_07C0
	PIFRAMSize  = 64

	regionSize = 1 << 20 // 1 MiB

	pageSize  = 4096
	pageShift = 12
	addrBits  = 31
	numPages  = 1 << (addrBits - pageShift) // 2^19
)

// IOBlock is a memory-mapped peripheral register block. offset is the
// address with the region's 1 MiB-aligned base already subtracted.
type IOBlock interface {
	ReadIO(offset uint32) (uint32, error)
	WriteIO(offset uint32, value uint32) error
}

// Bus is the N64 physical address space. It owns the backing arrays for main
// RAM and the cartridge image directly, borrows the signal-processor's
// DMEM/IMEM backing arrays so the scalar CPU can address them like ordinary
// memory, and dispatches everything else to the registered IOBlocks.
type Bus struct {
	ram  [RAMSize]byte
	cart []byte

	pages [numPages][]byte // nil entry = not page-backed, fall through to regions

	regions map[uint32]IOBlock
}

// New returns a Bus with main RAM zeroed and no cartridge or peripheral
// blocks attached yet. Use Install and InstallCart to wire the rest of the
// system before running.
func New() *Bus {
	b := &Bus{regions: make(map[uint32]IOBlock)}
	b.mapPages(RAMBase, b.ram[:])
	return b
}

// Install maps an IOBlock to handle the 1 MiB region starting at base.
func (b *Bus) Install(base uint32, block IOBlock) {
	b.regions[base&^uint32(regionSize-1)] = block
}

// InstallMemory page-maps a borrowed backing array (signal-processor DMEM or
// IMEM) at base. The slice must be a multiple of the page size.
func (b *Bus) InstallMemory(base uint32, mem []byte) {
	b.mapPages(base, mem)
}

// InstallCart page-maps the cartridge image at CartBase. The image is used
// directly as the backing array; the bus does not copy it.
func (b *Bus) InstallCart(image []byte) {
	b.cart = image
	b.mapPages(CartBase, image)
}

func (b *Bus) mapPages(base uint32, mem []byte) {
	page := base >> pageShift
	for off := 0; off < len(mem); off += pageSize {
		end := off + pageSize
		if end > len(mem) {
			end = len(mem)
		}
		b.pages[page] = mem[off:end]
		page++
	}
}

func (b *Bus) lookupPage(addr uint32) ([]byte, uint32) {
	page := addr >> pageShift
	if int(page) >= numPages {
		return nil, 0
	}
	return b.pages[page], addr & (pageSize - 1)
}

func (b *Bus) lookupRegion(addr uint32) (IOBlock, uint32, bool) {
	base := addr &^ uint32(regionSize-1)
	block, ok := b.regions[base]
	return block, addr - base, ok
}

// BusError reports an access to an address neither page-backed nor claimed by
// an IOBlock. It is always a host/implementation fatal error (spec §7).
type BusError struct {
	Addr  uint32
	Write bool
}

func (e *BusError) Error() string {
	op := "read"
	if e.Write {
		op = "write"
	}
	return fmt.Sprintf("bus: unmapped %s at %#08x", op, e.Addr)
}

// Read8 reads a single byte at addr.
func (b *Bus) Read8(addr uint32) (byte, error) {
	if page, off := b.lookupPage(addr); page != nil {
		return page[off], nil
	}
	v, err := b.read32Aligned(addr &^ 3)
	if err != nil {
		return 0, err
	}
	shift := 24 - 8*(addr&3)
	return byte(v >> shift), nil
}

// Write8 writes a single byte at addr.
func (b *Bus) Write8(addr uint32, v byte) error {
	if page, off := b.lookupPage(addr); page != nil {
		page[off] = v
		return nil
	}
	word, err := b.read32Aligned(addr &^ 3)
	if err != nil {
		return err
	}
	shift := 24 - 8*(addr&3)
	word = (word &^ (0xFF << shift)) | uint32(v)<<shift
	return b.write32Aligned(addr&^3, word)
}

// Read16 reads a big-endian halfword at addr, which must be 2-byte aligned.
func (b *Bus) Read16(addr uint32) (uint16, error) {
	if page, off := b.lookupPage(addr); page != nil {
		return binary.BigEndian.Uint16(page[off : off+2]), nil
	}
	v, err := b.read32Aligned(addr &^ 3)
	if err != nil {
		return 0, err
	}
	if addr&3 == 0 {
		return uint16(v >> 16), nil
	}
	return uint16(v), nil
}

// Write16 writes a big-endian halfword at addr, which must be 2-byte aligned.
func (b *Bus) Write16(addr uint32, v uint16) error {
	if page, off := b.lookupPage(addr); page != nil {
		binary.BigEndian.PutUint16(page[off:off+2], v)
		return nil
	}
	word, err := b.read32Aligned(addr &^ 3)
	if err != nil {
		return err
	}
	if addr&3 == 0 {
		word = (word &^ 0xFFFF0000) | uint32(v)<<16
	} else {
		word = (word &^ 0x0000FFFF) | uint32(v)
	}
	return b.write32Aligned(addr&^3, word)
}

// Read32 reads a big-endian word at addr, which must be 4-byte aligned.
func (b *Bus) Read32(addr uint32) (uint32, error) {
	if page, off := b.lookupPage(addr); page != nil {
		return binary.BigEndian.Uint32(page[off : off+4]), nil
	}
	return b.read32Aligned(addr)
}

// Write32 writes a big-endian word at addr, which must be 4-byte aligned.
func (b *Bus) Write32(addr uint32, v uint32) error {
	if page, off := b.lookupPage(addr); page != nil {
		binary.BigEndian.PutUint32(page[off:off+4], v)
		return nil
	}
	return b.write32Aligned(addr, v)
}

// Read64 reads a big-endian doubleword at addr, which must be 8-byte aligned.
func (b *Bus) Read64(addr uint32) (uint64, error) {
	if page, off := b.lookupPage(addr); page != nil {
		return binary.BigEndian.Uint64(page[off : off+8]), nil
	}
	hi, err := b.read32Aligned(addr)
	if err != nil {
		return 0, err
	}
	lo, err := b.read32Aligned(addr + 4)
	if err != nil {
		return 0, err
	}
	return uint64(hi)<<32 | uint64(lo), nil
}

// Write64 writes a big-endian doubleword at addr, which must be 8-byte aligned.
func (b *Bus) Write64(addr uint32, v uint64) error {
	if page, off := b.lookupPage(addr); page != nil {
		binary.BigEndian.PutUint64(page[off:off+8], v)
		return nil
	}
	if err := b.write32Aligned(addr, uint32(v>>32)); err != nil {
		return err
	}
	return b.write32Aligned(addr+4, uint32(v))
}

func (b *Bus) read32Aligned(addr uint32) (uint32, error) {
	block, off, ok := b.lookupRegion(addr)
	if !ok {
		return 0, &BusError{Addr: addr}
	}
	return block.ReadIO(off)
}

func (b *Bus) write32Aligned(addr uint32, v uint32) error {
	block, off, ok := b.lookupRegion(addr)
	if !ok {
		return &BusError{Addr: addr, Write: true}
	}
	return block.WriteIO(off, v)
}

// ReadBytes copies len(dst) bytes starting at addr into dst, for use by DMA
// engines that move bulk data between main RAM and a peripheral's local
// memory. addr need not be aligned.
func (b *Bus) ReadBytes(addr uint32, dst []byte) {
	for i := range dst {
		page, off := b.lookupPage(addr + uint32(i))
		if page == nil {
			dst[i] = 0
			continue
		}
		dst[i] = page[off]
	}
}

// WriteBytes copies src into the bus starting at addr.
func (b *Bus) WriteBytes(addr uint32, src []byte) {
	for i, v := range src {
		page, off := b.lookupPage(addr + uint32(i))
		if page == nil {
			continue
		}
		page[off] = v
	}
}
