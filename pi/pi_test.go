package pi

import "testing"

type fakeMem struct{ mem [0x10000]byte }

func (m *fakeMem) ReadBytes(addr uint32, dst []byte)  { copy(dst, m.mem[addr:]) }
func (m *fakeMem) WriteBytes(addr uint32, src []byte) { copy(m.mem[addr:], src) }

type fakeLine struct{ requested, cleared int }

func (l *fakeLine) Request() { l.requested++ }
func (l *fakeLine) Clear()   { l.cleared++ }

func TestWriteLenDMACopiesCartToRAM(t *testing.T) {
	dram, cart := &fakeMem{}, &fakeMem{}
	copy(cart.mem[0x1000:], []byte{1, 2, 3, 4})
	line := &fakeLine{}
	c := New(dram, cart, line)

	c.dramAddr, c.cartAddr = 0x2000, 0x1000
	if err := c.WriteIO(regWrLen, 3); err != nil {
		t.Fatal(err)
	}
	if got := dram.mem[0x2000:0x2004]; string(got) != "\x01\x02\x03\x04" {
		t.Fatalf("dram = %v", got)
	}
	if line.requested != 1 {
		t.Fatalf("interrupt requested %d times, want 1", line.requested)
	}
}

func TestWriteLenPlusOneIsTransferLength(t *testing.T) {
	dram, cart := &fakeMem{}, &fakeMem{}
	for i := range cart.mem[:8] {
		cart.mem[i] = byte(i + 1)
	}
	c := New(dram, cart, &fakeLine{})

	if err := c.WriteIO(regWrLen, 7); err != nil { // length field 7 -> 8 bytes
		t.Fatal(err)
	}
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if got := dram.mem[:8]; string(got) != string(want) {
		t.Fatalf("dram = %v, want %v", got, want)
	}
}

func TestStatusWriteClearsInterrupt(t *testing.T) {
	line := &fakeLine{}
	c := New(&fakeMem{}, &fakeMem{}, line)

	if err := c.WriteIO(regStatus, 2); err != nil {
		t.Fatal(err)
	}
	if line.cleared != 1 {
		t.Fatalf("interrupt cleared %d times, want 1", line.cleared)
	}
}

func TestUnmappedRegisterIsFatal(t *testing.T) {
	c := New(&fakeMem{}, &fakeMem{}, &fakeLine{})
	if _, err := c.ReadIO(0xFF); err == nil {
		t.Fatal("expected error for unmapped register")
	}
}
