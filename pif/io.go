package pif

// Bus-region layout, offsets relative to the microcontroller window's base
// (0x1FC0_0000), per §3's data model.
const (
	ramBase    = 0x7C0
	seedsAddr  = 0x7E4
	statusAddr = 0x7FC
)

// pifSeeds is the fixed IPL2/IPL3 seed word the Seeds mailbox register
// returns, per §4.13.
const pifSeeds = 0x3F3F

// Command bit flags decoded by a write to the Status/Command mailbox
// register, per §4.13 (grounded on original_source/src/hw/pif.cpp).
const (
	cmdSendJoyBus         = 1 << 0
	cmdChallengeResponse  = 1 << 1
	cmdTerminateBoot      = 1 << 3
	cmdLockBootROM        = 1 << 4
	cmdAcquireChecksum    = 1 << 5
	cmdRunChecksum        = 1 << 6
)

// ReadIO and WriteIO implement bus.IOBlock for the microcontroller's boot
// ROM + RAM window, including the two bus-level mailbox registers that
// bypass the microcontroller's own fetch-decode loop (§4.13).
func (c *Core) ReadIO(offset uint32) (uint32, error) {
	switch offset {
	case seedsAddr:
		return pifSeeds, nil
	case statusAddr:
		return 0, nil
	}

	if offset < ROMSize {
		return c.readWord(c.rom[:], offset), nil
	}
	if offset >= ramBase && offset < ramBase+RAMSize {
		return c.readWord(c.ram[:], offset-ramBase), nil
	}
	return 0, &FatalError{Message: "unmapped PIF bus read"}
}

func (c *Core) WriteIO(offset uint32, v uint32) error {
	switch offset {
	case statusAddr:
		return c.doCommand(v)
	case seedsAddr:
		return &FatalError{Message: "write to read-only Seeds mailbox register"}
	}

	if offset < ROMSize {
		return &FatalError{Message: "write to read-only microcontroller boot ROM"}
	}
	if offset >= ramBase && offset < ramBase+RAMSize {
		c.writeWord(c.ram[:], offset-ramBase, v)
		return nil
	}
	return &FatalError{Message: "unmapped PIF bus write"}
}

func (c *Core) readWord(mem []byte, offset uint32) uint32 {
	var v uint32
	for i := uint32(0); i < 4; i++ {
		addr := offset + i
		var b byte
		if int(addr) < len(mem) {
			b = mem[addr]
		}
		v = v<<8 | uint32(b)
	}
	return v
}

func (c *Core) writeWord(mem []byte, offset uint32, v uint32) {
	for i := uint32(0); i < 4; i++ {
		addr := offset + i
		if int(addr) < len(mem) {
			mem[addr] = byte(v >> (8 * (3 - i)))
		}
	}
}

// doCommand decodes the Status/Command mailbox write, per §4.13: only
// TerminateBoot and LockBootROM are implemented, as no-ops; the rest are
// host/implementation errors because no traced boot ROM issues them.
func (c *Core) doCommand(command uint32) error {
	if command&cmdSendJoyBus != 0 {
		return &FatalError{Message: "unimplemented Send JoyBus command"}
	}
	if command&cmdChallengeResponse != 0 {
		return &FatalError{Message: "unimplemented Challenge/Response command"}
	}
	if command&cmdAcquireChecksum != 0 {
		return &FatalError{Message: "unimplemented Acquire Checksum command"}
	}
	if command&cmdRunChecksum != 0 {
		return &FatalError{Message: "unimplemented Run Checksum command"}
	}
	// TerminateBoot and LockBootROM are advisory no-ops: nothing in this
	// core models boot ROM becoming unmapped or the CPU halting outside
	// the scheduler's own control.
	return nil
}
