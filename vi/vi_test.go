package vi

import "testing"

func TestWidthAndOriginWritesAreReadableViaAccessors(t *testing.T) {
	c := New()
	if err := c.WriteIO(regOrigin, 0x1234); err != nil {
		t.Fatal(err)
	}
	if err := c.WriteIO(regWidth, 320); err != nil {
		t.Fatal(err)
	}
	if c.Origin() != 0x1234 || c.Width() != 320 {
		t.Fatalf("Origin()=%#x Width()=%d", c.Origin(), c.Width())
	}
}

func TestControlLowTwoBitsSelectFormat(t *testing.T) {
	c := New()
	if err := c.WriteIO(regControl, uint32(FormatRGBA5551)); err != nil {
		t.Fatal(err)
	}
	if c.Format() != FormatRGBA5551 {
		t.Fatalf("Format() = %d, want FormatRGBA5551", c.Format())
	}
}

func TestUnmappedRegisterIsFatal(t *testing.T) {
	c := New()
	if _, err := c.ReadIO(0xFF); err == nil {
		t.Fatal("expected error for unmapped register")
	}
}
