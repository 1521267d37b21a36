package rsp

import "testing"

type fakeDRAM struct {
	mem [0x10000]byte
}

func (d *fakeDRAM) ReadBytes(addr uint32, dst []byte)  { copy(dst, d.mem[addr:]) }
func (d *fakeDRAM) WriteBytes(addr uint32, src []byte) { copy(d.mem[addr:], src) }

type fakeLine struct{ requested, cleared int }

func (l *fakeLine) Request() { l.requested++ }
func (l *fakeLine) Clear()   { l.cleared++ }

func TestBroadcastWholeVectorIsIdentity(t *testing.T) {
	var v VectorRegister
	for i := 0; i < numLanes; i++ {
		v[i] = uint16(i + 1)
	}
	out := broadcast(v, 0)
	if out != v {
		t.Fatalf("broadcast(0) = %v, want identity %v", out, v)
	}
}

func TestBroadcastSplatElement(t *testing.T) {
	var v VectorRegister
	for i := 0; i < numLanes; i++ {
		v[i] = uint16(i + 1)
	}
	out := broadcast(v, 8) // modifier 8: splat host-storage lane 0
	for i := 0; i < numLanes; i++ {
		if out[i] != v[0] {
			t.Fatalf("splat lane %d = %d, want %d", i, out[i], v[0])
		}
	}
}

func TestVMULFWritesSaturatedProduct(t *testing.T) {
	c := New(&fakeDRAM{}, nil)
	// v1 lane(elem=7) = 2 (host index 0), v2 lane(elem=7) = 3, broadcast mod 0 (identity).
	c.V[1].SetLane(7, 2)
	c.V[2].SetLane(7, 3)
	instr := uint32(0x12)<<26 | uint32(0x10)<<21 /*rs=0x10+mod, mod=0*/ | 2<<16 /*vt*/ | 1<<11 /*vs*/ | 3<<6 /*vd*/ | vuVMULF
	if err := c.execute(0, instr, false); err != nil {
		t.Fatal(err)
	}
	want := clampSigned((2*3*2 + 0x8000) >> 16)
	if got := c.V[3].Lane(7); got != want {
		t.Fatalf("VMULF lane = %#x, want %#x", got, want)
	}
}

func TestVXORIsLanewiseXOR(t *testing.T) {
	c := New(&fakeDRAM{}, nil)
	c.V[1].SetLane(0, 0x0F0F)
	c.V[2].SetLane(0, 0x00FF)
	instr := uint32(0x12)<<26 | uint32(0x10)<<21 | 2<<16 | 1<<11 | 3<<6 | vuVXOR
	if err := c.execute(0, instr, false); err != nil {
		t.Fatal(err)
	}
	if got := c.V[3].Lane(0); got != 0x0FF0 {
		t.Fatalf("VXOR lane = %#x, want 0x0FF0", got)
	}
}

func TestBreakHaltsAndRaisesInterruptWhenEnabled(t *testing.T) {
	c := New(&fakeDRAM{}, &fakeLine{})
	line := c.intr.(*fakeLine)
	c.writeStatus(1 << 8) // two-bit toggle at bit7: '10' sets interrupt-on-break
	if err := c.execSpecial(0, fnBREAK, false); err != nil {
		t.Fatal(err)
	}
	if !c.Halted() {
		t.Fatal("BREAK did not halt the core")
	}
	if line.requested != 1 {
		t.Fatalf("interrupt requested %d times, want 1", line.requested)
	}
}

func TestDMAToRSPCopiesDRAMIntoDMEM(t *testing.T) {
	dram := &fakeDRAM{}
	for i := range dram.mem[:16] {
		dram.mem[i] = byte(i + 1)
	}
	c := New(dram, nil)
	c.ramAddr = 0
	c.spAddr, c.isIMEM = 0, false
	c.rdLen = 1 << 3 // rdlen field = 1 -> length = 2 eight-byte words (16 bytes), count field 0 -> +1 = 1
	c.doDMAToRSP()
	for i := 0; i < 16; i++ {
		if c.DMEM[i] != byte(i+1) {
			t.Fatalf("DMEM[%d] = %d, want %d", i, c.DMEM[i], i+1)
		}
	}
}
