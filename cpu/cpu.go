// Package cpu implements the N64's MIPS-style 64-bit scalar CPU: the
// general-purpose register file, the single-delay-slot program counter
// pipeline with its branch-annulment bookkeeping, the fetch-decode-execute
// interpreter, and the system-control coprocessor (COP0).
package cpu

import "fmt"

// Memory is the subset of the physical bus the scalar CPU needs. Any type
// satisfying it (notably *bus.Bus) can back a Core.
type Memory interface {
	Read8(addr uint32) (byte, error)
	Write8(addr uint32, v byte) error
	Read16(addr uint32) (uint16, error)
	Write16(addr uint32, v uint16) error
	Read32(addr uint32) (uint32, error)
	Write32(addr uint32, v uint32) error
	Read64(addr uint32) (uint64, error)
	Write64(addr uint32, v uint64) error
}

// InterruptLine reports whether the aggregated peripheral interrupt line is
// currently asserted. *mi.Controller satisfies this.
type InterruptLine interface {
	Asserted() bool
}

// FloatUnit is the subset of the FPU coprocessor the scalar decoder routes
// COP1 instructions and coprocessor loads/stores to. *fpu.Unit satisfies it.
type FloatUnit interface {
	Execute(instr uint32, gpr *[32]uint64) error
	ConditionTrue() bool
	LoadWord(fr uint32, v uint32)
	StoreWord(fr uint32) uint32
	LoadDouble(fr uint32, v uint64)
	StoreDouble(fr uint32) uint64
}

// FatalError is a host/implementation error: an opcode, register, or address
// the interpreter does not (or cannot) handle. Per spec §7 these terminate
// the run loop; there is no guest-visible recovery.
type FatalError struct {
	PC      uint64
	Message string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("cpu: %s (pc=%#016x)", e.Message, e.PC)
}

// ResetVector is where the scalar CPU's PC is seeded on reset, per spec §6.
const ResetVector = 0xFFFF_FFFF_BFC0_0000

// Core is the scalar CPU: 32 general-purpose registers, HI/LO, the
// single-delay-slot PC pipeline, and the embedded system-control
// coprocessor.
type Core struct {
	GPR [32]uint64
	HI  uint64
	LO  uint64

	pc uint64 // address of the instruction about to execute

	branchPending   bool
	branchTarget    uint64
	nextIsDelaySlot bool // true if the instruction fetched next is a delay slot
	annulNext       bool // true if the instruction fetched next must be annulled (likely-not-taken)

	COP0 COP0
	FPU  FloatUnit

	mem  Memory
	intr InterruptLine
}

// New returns a Core wired to mem for bus access and intr for the aggregated
// external-interrupt line.
func New(mem Memory, intr InterruptLine) *Core {
	c := &Core{mem: mem, intr: intr}
	c.Reset()
	return c
}

// Reset zeroes all architectural state and seeds the PC at ResetVector.
func (c *Core) Reset() {
	for i := range c.GPR {
		c.GPR[i] = 0
	}
	c.HI, c.LO = 0, 0
	c.pc = ResetVector
	c.branchPending = false
	c.nextIsDelaySlot = false
	c.annulNext = false
	c.COP0.Reset()
}

// setGPR writes v to register r, enforcing that register 0 always reads 0.
func (c *Core) setGPR(r uint32, v uint64) {
	if r == 0 {
		return
	}
	c.GPR[r] = v
}

// PC returns the address of the instruction about to execute.
func (c *Core) PC() uint64 { return c.pc }

// Run advances the core by exactly n instructions, charging the
// system-control coprocessor's Count register at half rate (spec §4.2).
// It stops early and returns a *FatalError on a host/implementation error;
// guest exceptions are handled internally and never returned.
func (c *Core) Run(n int) error {
	for i := 0; i < n; i++ {
		if err := c.step(); err != nil {
			return err
		}
		c.COP0.tickCount(c.intr)
	}
	return nil
}

func (c *Core) step() error {
	instrPC := c.pc
	inDelaySlot := c.nextIsDelaySlot
	c.nextIsDelaySlot = false
	annul := c.annulNext
	c.annulNext = false

	if c.COP0.pendingInterrupt() {
		c.raiseException(ExcInterrupt, instrPC, inDelaySlot)
		return nil
	}

	// fallthroughPC is where c.pc lands once this instruction (or, if annul
	// is set, the delay slot it annuls) is done: sequential, unless a branch
	// that executed one step ago — immediately before its own delay slot —
	// is now due to land.
	fallthroughPC := instrPC + 4
	if c.branchPending {
		fallthroughPC = c.branchTarget
		c.branchPending = false
	}

	if annul {
		c.pc = fallthroughPC
		return nil
	}

	paddr, err := c.translate(instrPC)
	if err != nil {
		return err
	}
	word, err := c.mem.Read32(paddr)
	if err != nil {
		return &FatalError{PC: instrPC, Message: err.Error()}
	}

	if err := c.execute(instrPC, word, inDelaySlot); err != nil {
		return err
	}
	c.pc = fallthroughPC
	return nil
}

// translate implements the identity mapping for the unmapped KSEG0/KSEG1
// window (0x8000_0000-0xBFFF_FFFF after stripping the top nibble) and fails
// fatally for every other virtual window, per spec §3.
func (c *Core) translate(vaddr uint64) (uint32, error) {
	switch {
	case vaddr >= 0xFFFF_FFFF_8000_0000 && vaddr < 0xFFFF_FFFF_C000_0000:
		return uint32(vaddr) & 0x1FFF_FFFF, nil
	case vaddr < 0x8000_0000:
		return uint32(vaddr), nil
	default:
		return 0, &FatalError{PC: vaddr, Message: "unimplemented TLB translation"}
	}
}
