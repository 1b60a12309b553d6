package input

import "testing"

func readAll(c *Controller) uint8 {
	var v uint8
	for i := 0; i < 8; i++ {
		v |= c.Read() << i
	}
	return v
}

func TestSetButton(t *testing.T) {
	c := New()
	buttons := []Button{
		ButtonA, ButtonB, ButtonSelect, ButtonStart,
		ButtonUp, ButtonDown, ButtonLeft, ButtonRight,
	}
	for _, b := range buttons {
		c.SetButton(b, true)
		if !c.IsPressed(b) || c.State() != uint8(b) {
			t.Errorf("%v: state $%02X", b, c.State())
		}
		c.SetButton(b, false)
		if c.IsPressed(b) {
			t.Errorf("%v still pressed after release", b)
		}
	}
}

func TestShiftOrder(t *testing.T) {
	tests := []uint8{0x00, 0x01, 0x08, 0x81, 0xA5, 0xFF}
	for _, state := range tests {
		c := New()
		c.SetState(state)
		c.Write(1)
		c.Write(0)
		if got := readAll(c); got != state {
			t.Errorf("shifted out $%02X, want $%02X", got, state)
		}
	}
}

func TestReadsAfterEight(t *testing.T) {
	c := New()
	c.Write(1)
	c.Write(0)
	readAll(c)
	for i := 0; i < 4; i++ {
		if c.Read() != 1 {
			t.Fatal("reads past the eighth bit should return 1")
		}
	}
}

func TestStrobeHigh(t *testing.T) {
	c := New()
	c.SetState(uint8(ButtonA | ButtonStart))
	c.Write(1)
	for i := 0; i < 3; i++ {
		if c.Read() != 1 {
			t.Fatal("strobe high should keep returning A")
		}
	}

	// A change while strobe is high is visible once strobe falls
	c.SetState(uint8(ButtonB))
	c.Write(0)
	if c.Read() != 0 || c.Read() != 1 {
		t.Error("latched state did not follow the last SetState")
	}
}

func TestLatchHoldsDuringRead(t *testing.T) {
	c := New()
	c.SetState(0xFF)
	c.Write(1)
	c.Write(0)
	c.SetState(0x00)
	if got := readAll(c); got != 0xFF {
		t.Errorf("read $%02X, want the latched $FF", got)
	}
}

func TestPorts(t *testing.T) {
	p := NewPorts()
	p.Controller1.SetState(0x01)
	p.Controller2.SetState(0x02)
	p.Write(0x4016, 1)
	p.Write(0x4016, 0)

	if p.Read(0x4016) != 1 || p.Read(0x4017) != 0 {
		t.Error("first bits wrong")
	}
	if p.Read(0x4016) != 0 || p.Read(0x4017) != 1 {
		t.Error("second bits wrong")
	}

	p.Write(0x4017, 1)
	if p.Controller1.strobe {
		t.Error("$4017 write strobed the controllers")
	}

	p.Reset()
	if p.Controller1.State() != 0 || p.Controller2.State() != 0 {
		t.Error("Reset left buttons pressed")
	}
}

func TestButtonNames(t *testing.T) {
	if s := (ButtonA | ButtonStart).String(); s != "A+Start" {
		t.Errorf("String() = %q", s)
	}
	b, ok := ParseButton("right")
	if !ok || b != ButtonRight {
		t.Errorf("ParseButton(right) = %v, %v", b, ok)
	}
	if _, ok := ParseButton("turbo"); ok {
		t.Error("unknown button parsed")
	}
}
