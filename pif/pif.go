// Package pif implements the microcontroller that drives the N64's boot
// handshake and controller joybus: a 4-bit stored-program core (modeled on
// Sharp SM5-family microcontrollers), the boot-security device it talks to
// over two pins, and the joybus command protocol it talks to over a set of
// memory-mapped ports. The scalar CPU's own view of this subsystem is just
// 1984 bytes of boot ROM and 64 bytes of RAM at the top of the physical
// address space; everything else happens inside this package between one
// HALT and the next.
package pif

import "fmt"

// RAMSize is the microcontroller's data RAM as the bus and the serial
// interface see it: 64 bytes. The microcontroller's own instruction set
// addresses this storage as 128 nibbles (§4.8); nibble i lives in the high
// half of byte i/2 when i is even, the low half when i is odd.
const RAMSize = 64

// nibbleCount is the microcontroller-side view of the same storage.
const nibbleCount = 2 * RAMSize

// ROMSize is the boot ROM window exposed on the bus (§3 of the expanded
// design: 1984 bytes at 0x1FC0_0000).
const ROMSize = 1984

// SerialDMA is the subset of the serial interface's surface the HALT
// handler needs: the deferred half of a DMA the scalar CPU already started
// via SI's ADRD64B/ADWR64B registers. *si.Core satisfies it.
type SerialDMA interface {
	Execute()
}

// ControllerState is the button/axis snapshot a joybus controller-state
// command reports, in the wire format real N64 controllers use: a 16-bit
// button bitmask followed by two signed analog-stick bytes.
type ControllerState struct {
	Buttons      uint16
	StickX, StickY int8
}

// Inputs supplies the controller state the joybus core reports on a
// ControllerState command. host.Host satisfies it through PollInputs.
type Inputs interface {
	PollInputs() ControllerState
}

// Core is the microcontroller: its SM5-style register file, its 128-nibble
// RAM (doubling as the joybus mailbox), its boot ROM, the boot-security
// device on port 5, and the joybus channel state machine on ports 0-4.
type Core struct {
	regs registers

	rom [ROMSize]byte
	ram [RAMSize]byte // nibble-addressed; two nibbles packed per byte

	standby bool

	rcpPortWrite   bool
	rcpPortPending bool

	cic    cicDevice
	joybus joybusDevice

	serial SerialDMA
	inputs Inputs
}

// New builds a microcontroller core. rom is the boot image (copied
// verbatim, truncated/zero-padded to ROMSize); serial and inputs are the
// cross-package collaborators wired by package system. Interrupt A is the
// only interrupt source the rest of the system can assert into this core
// (via RequestInterruptA, called by the serial interface on DMA start and
// completion); nothing in this core raises an outward interrupt of its own.
func New(rom []byte, serial SerialDMA, inputs Inputs) *Core {
	c := &Core{serial: serial, inputs: inputs}
	n := copy(c.rom[:], rom)
	_ = n
	c.Reset()
	return c
}

// Reset reinitializes register state, RAM, and both embedded devices, but
// leaves the boot ROM image untouched.
func (c *Core) Reset() {
	c.regs = registers{}
	c.ram = [RAMSize]byte{}
	c.standby = false
	c.rcpPortWrite = false
	c.rcpPortPending = false
	c.cic.reset()
	c.joybus.reset(c.inputs)
}

// Run executes up to cycles instructions, honoring standby: while in
// standby the core does not fetch, it only checks for an asserted
// interrupt A, which is what wakes it (per §4.8, "the core leaves standby
// on the next asserted interrupt A").
func (c *Core) Run(cycles int64) error {
	for i := int64(0); i < cycles; i++ {
		if c.standby {
			if !c.regs.ifa {
				continue
			}
			c.standby = false
		}
		if err := c.enterInterruptIfPending(); err != nil {
			return err
		}
		if c.standby {
			continue
		}
		if err := c.step(); err != nil {
			return err
		}
	}
	return nil
}

// enterInterruptIfPending implements §4.8's "interrupt entry": if IME is
// set and any of IE&IF is set, push PC, route to the fixed page-2 vector
// for the highest-priority pending source (A, then B, then Timer), and
// clear IME. RTNI is the only way IME is set again.
func (c *Core) enterInterruptIfPending() error {
	r := &c.regs
	if !r.ime {
		return nil
	}
	var vectorOffset uint16
	switch {
	case r.ie.a && r.ifa:
		vectorOffset = 0
		r.ifa = false
	case r.ie.b && r.ifb:
		vectorOffset = 2
		r.ifb = false
	case r.ie.t && r.ift:
		vectorOffset = 4
		r.ift = false
	default:
		return nil
	}
	if err := c.push(); err != nil {
		return err
	}
	r.pc = (2 << 6) | (vectorOffset & 0x3F)
	r.ime = false
	return nil
}

// RequestInterruptA sets the microcontroller's interrupt-A flag, waking it
// from standby on the next Run tick. *pif.Core satisfies si.PIF with this
// and the mailbox/RCP-port methods below.
func (c *Core) RequestInterruptA() { c.regs.ifa = true }

// SetRCPPort mirrors the serial interface's view of an in-flight DMA into
// the microcontroller's RCP-port-shadow port (port 7), so the HALT handler
// and port reads can observe direction and pendingness.
func (c *Core) SetRCPPort(write, pending bool) {
	c.rcpPortWrite = write
	c.rcpPortPending = pending
}

// ReadMailbox and WriteMailbox give the serial interface's deferred DMA
// direct byte access to the 64-byte RAM window, the same packed storage
// the microcontroller's own nibble-addressed readRAM/writeRAM operate on.
func (c *Core) ReadMailbox(addr uint32, dst []byte) {
	for i := range dst {
		dst[i] = c.ram[(addr+uint32(i))%RAMSize]
	}
}

func (c *Core) WriteMailbox(addr uint32, src []byte) {
	for i, b := range src {
		c.ram[(addr+uint32(i))%RAMSize] = b
	}
}

// FatalError is a host/implementation error in the microcontroller: an
// unrecognized opcode, port, or bus address.
type FatalError struct {
	PC      uint16
	Message string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("pif: %s (pc=%#03x)", e.Message, e.PC)
}
