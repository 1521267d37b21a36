package pif

import "testing"

type fakeSerial struct{ executed int }

func (f *fakeSerial) Execute() { f.executed++ }

type fakeInputs struct{ state ControllerState }

func (f *fakeInputs) PollInputs() ControllerState { return f.state }

func newTestCore(rom []byte) (*Core, *fakeSerial) {
	serial := &fakeSerial{}
	c := New(rom, serial, &fakeInputs{})
	return c, serial
}

func TestBootSecurityRoundtripSendsIDThenScrambledSeeds(t *testing.T) {
	c, _ := newTestCore(nil)

	var id uint8
	for i := 0; i < 4; i++ {
		id <<= 1
		if c.cic.read()&cicPinDOUT != 0 {
			id |= 1
		}
	}
	if id != cicID {
		t.Fatalf("ID = %#x, want %#x", id, cicID)
	}

	want := cicScramble(cicScramble(cicSeeds, cicLenSeeds), cicLenSeeds)
	var got uint64
	for i := 0; i < cicLenSeeds; i++ {
		got <<= 1
		if c.cic.read()&cicPinDOUT != 0 {
			got |= 1
		}
	}
	if got != want {
		t.Fatalf("seeds = %#x, want %#x", got, want)
	}
}

func TestLAXThenADXSkipsOnCarry(t *testing.T) {
	c, _ := newTestCore([]byte{
		0x1A,       // LAX #A  (imm4 op=1, imm=0xA)
		0x0C,       // ADX #C  (imm4 op=0, imm=0xC): A=0xA+0xC=0x16 -> carries, skips next byte
		0x00, 0x00, // would-be skipped instruction slot + landing instruction
	})
	if err := c.step(); err != nil {
		t.Fatal(err)
	}
	if c.regs.a != 0xA {
		t.Fatalf("A after LAX = %#x, want 0xA", c.regs.a)
	}
	if err := c.step(); err != nil {
		t.Fatal(err)
	}
	if c.regs.a != 0x6 {
		t.Fatalf("A after ADX = %#x, want 0x6", c.regs.a)
	}
	if c.regs.pl() != 3 {
		t.Fatalf("pl after carry-skip = %d, want 3 (fetch, fetch, skip)", c.regs.pl())
	}
}

// TestSkipOverTwoByteInstructionConsumesBothBytes covers skip()'s
// peek-and-conditionally-double-advance rule: a conditional skip landing on
// a TL or CALL must consume that instruction's operand byte too, or the
// next fetch decodes the operand as if it were its own opcode.
func TestSkipOverTwoByteInstructionConsumesBothBytes(t *testing.T) {
	tests := []struct {
		name string
		skip byte // the 2-byte opcode ADX's carry-skip must jump clean over
	}{
		{"TL", 0xE0},
		{"CALL", 0xF0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestCore([]byte{
				0x1A,     // LAX #A  (imm4 op=1, imm=0xA)
				0x0C,     // ADX #C  (imm4 op=0, imm=0xC): A=0xA+0xC=0x16 -> carries, skips next instruction
				tc.skip,  // would-be skipped instruction's opcode byte
				0x99,     // would-be skipped instruction's operand byte
				0x1B,     // LAX #B: must be the next instruction actually decoded
			})
			if err := c.step(); err != nil { // LAX
				t.Fatal(err)
			}
			if err := c.step(); err != nil { // ADX, carries, skips
				t.Fatal(err)
			}
			if c.regs.pl() != 4 {
				t.Fatalf("pl after skipping a 2-byte %s = %d, want 4 (both its bytes consumed)", tc.name, c.regs.pl())
			}
			if err := c.step(); err != nil { // LAX #B
				t.Fatal(err)
			}
			if c.regs.a != 0xB {
				t.Fatalf("A after landing instruction = %#x, want 0xB (operand byte was misdecoded as an opcode)", c.regs.a)
			}
		})
	}
}

func TestHaltMarksStandbyAndDrainsPendingSerialDMA(t *testing.T) {
	c, serial := newTestCore([]byte{opHALT})
	c.regs.ime = true
	if err := c.Run(1); err != nil {
		t.Fatal(err)
	}
	if !c.standby {
		t.Fatal("expected standby after HALT")
	}
	if serial.executed != 1 {
		t.Fatalf("Execute() called %d times, want 1", serial.executed)
	}
}

func TestStandbyWakesOnlyOnInterruptA(t *testing.T) {
	c, _ := newTestCore([]byte{opHALT, opRC})
	if err := c.Run(1); err != nil {
		t.Fatal(err)
	}
	if !c.standby {
		t.Fatal("expected standby after HALT")
	}

	if err := c.Run(5); err != nil {
		t.Fatal(err)
	}
	if !c.standby {
		t.Fatal("core should still be in standby with no interrupt A asserted")
	}

	c.RequestInterruptA()
	if err := c.Run(1); err != nil {
		t.Fatal(err)
	}
	if c.standby {
		t.Fatal("expected standby to clear once interrupt A is asserted")
	}
}

func TestInterruptEntryPushesPCAndRoutesToPage2VectorA(t *testing.T) {
	c, _ := newTestCore(nil)
	c.regs.pc = 0x123
	c.regs.ime = true
	c.regs.ie.a = true
	c.regs.ifa = true

	if err := c.enterInterruptIfPending(); err != nil {
		t.Fatal(err)
	}
	if c.regs.pc != (2<<6)|0 {
		t.Fatalf("pc = %#x, want page-2 vector A offset 0", c.regs.pc)
	}
	if c.regs.ime {
		t.Fatal("IME should be cleared on interrupt entry")
	}
	if c.regs.ifa {
		t.Fatal("IFA should be cleared once serviced")
	}

	if err := c.pop(); err != nil {
		t.Fatal(err)
	}
	if c.regs.pc != 0x123 {
		t.Fatalf("RTNI-equivalent pop restored pc = %#x, want 0x123", c.regs.pc)
	}
}

func TestNibbleAddressedRAMPacksTwoPerByte(t *testing.T) {
	c, _ := newTestCore(nil)
	c.writeRAM(0, 0xA)
	c.writeRAM(1, 0x5)
	if c.ram[0] != 0xA5 {
		t.Fatalf("ram[0] = %#x, want 0xA5", c.ram[0])
	}
	if c.readRAM(0) != 0xA || c.readRAM(1) != 0x5 {
		t.Fatalf("readRAM = %#x, %#x, want 0xA, 0x5", c.readRAM(0), c.readRAM(1))
	}
}

func TestJoybusInfoCommandReportsStandardController(t *testing.T) {
	c, _ := newTestCore(nil)
	// Info is command byte 0x00; a single nibble write of 0 already
	// dispatches it, since hw/pif/joybus.cpp's writeTransmit runs
	// doCommand on every write while a command is being received, not
	// just once the byte is fully assembled.
	if err := c.joybus.writeChannel(0); err != nil { // select the controller on channel 0
		t.Fatal(err)
	}
	if err := c.joybus.writeTransmit(0x0); err != nil {
		t.Fatal(err)
	}
	if c.joybus.tx[0] != 0x05 || c.joybus.tx[1] != 0x00 {
		t.Fatalf("info response = %#x %#x, want identifier 0x0500", c.joybus.tx[0], c.joybus.tx[1])
	}
	if c.joybus.tx[2] != joybusStatusNoAccessory {
		t.Fatalf("status byte = %#x, want NoControllerPak", c.joybus.tx[2])
	}
}

func TestSeedsMailboxReadIsFixedConstant(t *testing.T) {
	c, _ := newTestCore(nil)
	v, err := c.ReadIO(seedsAddr)
	if err != nil {
		t.Fatal(err)
	}
	if v != pifSeeds {
		t.Fatalf("Seeds = %#x, want %#x", v, pifSeeds)
	}
}

func TestStatusWriteTerminateBootIsNoOp(t *testing.T) {
	c, _ := newTestCore(nil)
	if err := c.WriteIO(statusAddr, cmdTerminateBoot); err != nil {
		t.Fatal(err)
	}
}

func TestStatusWriteSendJoyBusIsFatal(t *testing.T) {
	c, _ := newTestCore(nil)
	if err := c.WriteIO(statusAddr, cmdSendJoyBus); err == nil {
		t.Fatal("expected fatal error for unimplemented Send JoyBus command")
	}
}

func TestMailboxRoundTripThroughBus(t *testing.T) {
	c, _ := newTestCore(nil)
	if err := c.WriteIO(ramBase, 0xDEADBEEF); err != nil {
		t.Fatal(err)
	}
	v, err := c.ReadIO(ramBase)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0xDEADBEEF {
		t.Fatalf("RAM word = %#x, want 0xDEADBEEF", v)
	}

	var dst [4]byte
	c.ReadMailbox(0, dst[:])
	if dst != [4]byte{0xDE, 0xAD, 0xBE, 0xEF} {
		t.Fatalf("ReadMailbox = %v, want DE AD BE EF", dst)
	}
}
