package ri

import "testing"

func TestSelectAndRefreshRoundTrip(t *testing.T) {
	c := New()
	if err := c.WriteIO(regSelect, 0x12); err != nil {
		t.Fatal(err)
	}
	if err := c.WriteIO(regRefresh, 0x3456); err != nil {
		t.Fatal(err)
	}
	if v, err := c.ReadIO(regSelect); err != nil || v != 0x12 {
		t.Fatalf("SELECT = %#x, err = %v", v, err)
	}
	if v, err := c.ReadIO(regRefresh); err != nil || v != 0x3456 {
		t.Fatalf("REFRESH = %#x, err = %v", v, err)
	}
}

func TestBroadcastDelayWriteRotatesOnFirstWriteOnly(t *testing.T) {
	c := New()
	mod := c.Module()

	if err := mod.WriteIO(regDelay|broadcastBit, 0x0000_1234); err != nil {
		t.Fatal(err)
	}
	if c.delay != 0x1234_0000 {
		t.Fatalf("delay = %#x after first broadcast write, want rotated 0x12340000", c.delay)
	}

	if err := mod.WriteIO(regDelay|broadcastBit, 0x0000_5678); err != nil {
		t.Fatal(err)
	}
	if c.delay != 0x0000_5678 {
		t.Fatalf("delay = %#x after second broadcast write, want verbatim 0x5678", c.delay)
	}
}

func TestModuleModeRoundTrip(t *testing.T) {
	c := New()
	mod := c.Module()
	if err := mod.WriteIO(regModeMod, 0xDEADBEEF); err != nil {
		t.Fatal(err)
	}
	if v, err := mod.ReadIO(regModeMod); err != nil || v != 0xDEADBEEF {
		t.Fatalf("module MODE = %#x, err = %v", v, err)
	}
}
