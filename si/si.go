// Package si implements the serial interface: the 64-byte DMA engine
// between main RAM and the microcontroller's PIF-RAM mailbox.
package si

import "fmt"

// DRAM is the subset of the physical bus the DMA engine copies through.
type DRAM interface {
	ReadBytes(addr uint32, dst []byte)
	WriteBytes(addr uint32, src []byte)
}

// Interrupt requests or clears this core's bit on the aggregated peripheral
// interrupt line. *mi.Line satisfies it.
type Interrupt interface {
	Request()
	Clear()
}

// PIF is the microcontroller side of the transfer: its mailbox memory, and
// the RCP-port/interrupt-A signaling the microcontroller observes so it can
// run the pending transfer on its next HALT (per pif.cpp's setRCPPort and
// setInterruptAPending).
type PIF interface {
	ReadMailbox(addr uint32, dst []byte)
	WriteMailbox(addr uint32, src []byte)
	SetRCPPort(write, pending bool)
	RequestInterruptA()
}

// Core is the serial interface: DMA address registers, status, and the
// pending-transfer direction the microcontroller's HALT instruction will
// eventually drain via Execute.
type Core struct {
	dramAddr uint32
	pifAddr  uint32
	status   uint32

	pending      bool
	pendingWrite bool // true: DRAM -> PIF RAM. false: PIF RAM -> DRAM.

	dram DRAM
	pif  PIF
	intr Interrupt
}

func New(dram DRAM, pif PIF, intr Interrupt) *Core {
	return &Core{dram: dram, pif: pif, intr: intr}
}

// SetPIF rewires the microcontroller collaborator after construction. It
// exists for package system's wiring order: si.New and pif.New each need the
// other's result (si.PIF and pif.SerialDMA), so the aggregate constructs one
// side with a nil PIF and fills it in once the microcontroller core exists.
func (c *Core) SetPIF(pif PIF) { c.pif = pif }

func (c *Core) Reset() {
	c.dramAddr, c.pifAddr, c.status = 0, 0, 0
	c.pending, c.pendingWrite = false, false
}

const (
	statusDMABusy = 1 << 0
	statusIOBusy  = 1 << 1
	statusError   = 1 << 3
)

// startDMA records a pending transfer and wakes the microcontroller, per
// si.cpp's startDMAFromPIF/startDMAToPIF -- the copy itself is deferred to
// Execute, which pif calls from its HALT opcode handler.
func (c *Core) startDMA(write bool) {
	c.status |= statusDMABusy
	c.pending = true
	c.pendingWrite = write
	c.pif.SetRCPPort(write, true)
	c.pif.RequestInterruptA()
}

// Execute performs a pending 64-byte transfer, called by the microcontroller
// core when it executes HALT (per spec's "performs the pending serial DMA
// to/from the microcontroller's mailbox" on standby exit). A no-op when
// nothing is pending.
func (c *Core) Execute() {
	if !c.pending {
		return
	}

	buf := make([]byte, 64)
	if c.pendingWrite {
		c.dram.ReadBytes(c.dramAddr, buf)
		c.pif.WriteMailbox(c.pifAddr&0x3F, buf) // offset within the 64-byte mailbox
	} else {
		c.pif.ReadMailbox(c.pifAddr&0x3F, buf)
		c.dram.WriteBytes(c.dramAddr, buf)
	}

	c.dramAddr += 64
	c.status &^= statusDMABusy
	c.pending = false
	c.pif.SetRCPPort(c.pendingWrite, false)
	c.pif.RequestInterruptA()

	c.intr.Request()
}

type FatalError struct {
	Offset  uint32
	Message string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("si: %s (offset=%#x)", e.Message, e.Offset)
}
