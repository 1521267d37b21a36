// Package pi implements the peripheral interface: the cartridge DMA engine
// and the two cartridge-domain bus-timing register sets.
package pi

import "fmt"

// DRAM is the subset of the physical bus the DMA engine copies through.
type DRAM interface {
	ReadBytes(addr uint32, dst []byte)
	WriteBytes(addr uint32, src []byte)
}

// Cart is the cartridge image the DMA engine's other end reads and writes.
type Cart interface {
	ReadBytes(addr uint32, dst []byte)
	WriteBytes(addr uint32, src []byte)
}

// Interrupt requests or clears this core's bit on the aggregated peripheral
// interrupt line. *mi.Line satisfies it.
type Interrupt interface {
	Request()
	Clear()
}

// domain holds one cartridge bus domain's timing registers (1 = ROM, 2 =
// SRAM/flash). They have no effect on DMA timing in this model; they are
// stored and echoed back verbatim, per pi.cpp.
type domain struct {
	latch, pulseWidth, pageSize, release uint32
}

// Core is the peripheral interface: cartridge DMA address/length registers,
// status, and the two domain timing register sets.
type Core struct {
	dramAddr uint32
	cartAddr uint32
	status   uint32

	dom [2]domain

	dram DRAM
	cart Cart
	intr Interrupt
}

// New returns a peripheral interface core wired to dram and cart for DMA and
// intr for the PI interrupt.
func New(dram DRAM, cart Cart, intr Interrupt) *Core {
	return &Core{dram: dram, cart: cart, intr: intr}
}

func (c *Core) Reset() {
	c.dramAddr, c.cartAddr, c.status = 0, 0, 0
	c.dom = [2]domain{}
}

const (
	statusDMABusy = 1 << 0
	statusIOBusy  = 1 << 1
	statusError   = 1 << 2
)

// doDMAToRAM copies wrlen+1 bytes from the cartridge image to DRAM, per
// pi.cpp's doDMAToRAM.
func (c *Core) doDMAToRAM(length uint32) {
	buf := make([]byte, length)
	c.cart.ReadBytes(c.cartAddr, buf)
	c.dram.WriteBytes(c.dramAddr, buf)
	c.intr.Request()
}

// doDMAToCart copies rdlen+1 bytes from DRAM to the cartridge image. This is
// the RAM->cart direction the instantaneous-DMA model in spec-land supports
// symmetrically with WRLEN; original_source's pi.cpp never implements it
// (it never wires an RDLEN register), but the cartridge-domain-2 SRAM/flash
// save path any real game uses needs it, so it is supplemented here.
func (c *Core) doDMAToCart(length uint32) {
	buf := make([]byte, length)
	c.dram.ReadBytes(c.dramAddr, buf)
	c.cart.WriteBytes(c.cartAddr, buf)
	c.intr.Request()
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("pi: %s (offset=%#x)", e.Message, e.Offset)
}

// FatalError is a host/implementation error: an unrecognized register.
type FatalError struct {
	Offset  uint32
	Message string
}
