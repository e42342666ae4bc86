package trigger

import "testing"

func TestGate_DefaultEnabled(t *testing.T) {
	g := NewGate()
	if !g.EnabledAt(100) {
		t.Error("gate should default to enabled")
	}
}

func TestGate_ToggleAppliesAfterArrival(t *testing.T) {
	g := NewGate()
	g.Apply(100, false)

	if !g.EnabledAt(50) {
		t.Error("state before the toggle's arrival should be unaffected")
	}
	if g.EnabledAt(150) {
		t.Error("state after the toggle's arrival should be disabled")
	}
	if !g.EnabledAt(100) {
		t.Error("toggle should not affect an event at its own timestamp")
	}
}

func TestGate_MultipleToggles(t *testing.T) {
	g := NewGate()
	g.Apply(100, false)
	g.Apply(200, true)
	g.Apply(300, false)

	cases := []struct {
		monoNS int64
		want   bool
	}{
		{50, true},
		{150, false},
		{250, true},
		{350, false},
	}
	for _, c := range cases {
		if got := g.EnabledAt(c.monoNS); got != c.want {
			t.Errorf("EnabledAt(%d) = %v, want %v", c.monoNS, got, c.want)
		}
	}
}

func TestParseControlValue(t *testing.T) {
	cases := []struct {
		in     string
		wantOn bool
		wantOK bool
	}{
		{"on", true, true},
		{"ON", true, true},
		{"Off", false, true},
		{"", false, false},
		{"garbage", false, false},
	}
	for _, c := range cases {
		on, ok := ParseControlValue(c.in)
		if on != c.wantOn || ok != c.wantOK {
			t.Errorf("ParseControlValue(%q) = (%v, %v), want (%v, %v)", c.in, on, ok, c.wantOn, c.wantOK)
		}
	}
}
