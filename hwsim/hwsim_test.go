package hwsim_test

import (
	"strings"
	"testing"

	hw "github.com/db47h/ethdemux/hwsim"
)

// reg is a register: out takes the value of in on the next cycle.
var reg = (&hw.PartSpec{
	Name:    "REG",
	Inputs:  hw.IO("in[8]"),
	Outputs: hw.IO("out[8]"),
	Mount: func(s *hw.Socket) []hw.Component {
		in, out := s.Pin("in"), s.Pin("out")
		return []hw.Component{
			func(c *hw.Circuit) { c.Set(out, c.Get(in)) },
		}
	},
}).NewPart

func counter(bits int) hw.NewPartFn {
	var n uint64
	return hw.InputN(bits, func() uint64 {
		v := n
		n++
		return v
	})
}

func newCircuit(t *testing.T, workers int, parts ...hw.Part) *hw.Circuit {
	t.Helper()
	c, err := hw.NewCircuit(workers, parts...)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func wire(t *testing.T, c *hw.Circuit, name string) int {
	t.Helper()
	n, ok := c.Wire(name)
	if !ok {
		t.Fatalf("wire %s not found", name)
	}
	return n
}

func TestCircuit_delay(t *testing.T) {
	var seen []uint64
	c := newCircuit(t, 1,
		counter(8)("out=a"),
		reg("in=a, out=b"),
		hw.OutputN(8, func(v uint64) { seen = append(seen, v) })("in=b"),
	)
	defer c.Dispose()

	c.Run(5)
	if c.Cycles() != 5 {
		t.Fatalf("expected 5 cycles, got %d", c.Cycles())
	}
	if a := c.Get(wire(t, c, "a")); a != 4 {
		t.Errorf("a = %d, expected 4", a)
	}
	if b := c.Get(wire(t, c, "b")); b != 3 {
		t.Errorf("b = %d, expected 3", b)
	}
	// the probe sees b as it was at the start of each cycle
	exp := []uint64{0, 0, 0, 1, 2}
	for i := range exp {
		if seen[i] != exp[i] {
			t.Fatalf("probe: got %v, expected %v", seen, exp)
		}
	}
}

func TestCircuit_mask(t *testing.T) {
	c := newCircuit(t, 1,
		hw.InputN(4, func() uint64 { return 0x1f })("out=a"),
		hw.OutputN(4, func(uint64) {})("in=a"),
	)
	defer c.Dispose()
	c.Step()
	if a := c.Get(wire(t, c, "a")); a != 0xf {
		t.Errorf("a = %#x, expected 0xf", a)
	}
}

func TestCircuit_constants(t *testing.T) {
	var hi, lo uint64 = 0, 1
	var bit bool
	c := newCircuit(t, 1,
		hw.OutputN(8, func(v uint64) { hi = v })("in=true"),
		hw.OutputN(8, func(v uint64) { lo = v })(""),
		hw.Output(func(v bool) { bit = v })("in=true"),
	)
	defer c.Dispose()
	c.Step()
	if hi != 0xff {
		t.Errorf("true: got %#x", hi)
	}
	if lo != 0 {
		t.Errorf("unconnected input: got %#x", lo)
	}
	if !bit {
		t.Error("1 bit true input is false")
	}
}

func TestCircuit_RunUntil(t *testing.T) {
	c := newCircuit(t, 1, counter(8)("out=a"))
	defer c.Dispose()
	a := wire(t, c, "a")
	if !c.RunUntil(func() bool { return c.Get(a) == 10 }, 100) {
		t.Fatal("condition not met")
	}
	if c.Cycles() != 11 {
		t.Errorf("expected 11 cycles, got %d", c.Cycles())
	}
	if c.RunUntil(func() bool { return false }, 5) {
		t.Fatal("RunUntil returned true")
	}
	if c.Cycles() != 16 {
		t.Errorf("expected 16 cycles, got %d", c.Cycles())
	}
}

func TestCircuit_workers(t *testing.T) {
	const stages = 32
	run := func(workers int) []uint64 {
		parts := hw.Parts{counter(8)("out=w0")}
		for i := 0; i < stages; i++ {
			parts = append(parts, reg("in=w"+itoa(i)+", out=w"+itoa(i+1)))
		}
		c := newCircuit(t, workers, parts...)
		defer c.Dispose()
		if c.Size() != stages+1 {
			t.Fatalf("expected %d components, got %d", stages+1, c.Size())
		}
		c.Run(stages + 10)
		out := make([]uint64, stages+1)
		for i := range out {
			out[i] = c.Get(wire(t, c, "w"+itoa(i)))
		}
		return out
	}
	ref := run(1)
	for i, v := range ref {
		if exp := uint64(stages + 9 - i); v != exp {
			t.Fatalf("w%d = %d, expected %d", i, v, exp)
		}
	}
	for _, w := range []int{2, 5, 0} {
		got := run(w)
		for i := range ref {
			if got[i] != ref[i] {
				t.Fatalf("%d workers: w%d = %d, expected %d", w, i, got[i], ref[i])
			}
		}
	}
}

func itoa(i int) string {
	const digits = "0123456789"
	if i < 10 {
		return digits[i : i+1]
	}
	return itoa(i/10) + digits[i%10:i%10+1]
}

func TestNewCircuit_errors(t *testing.T) {
	nop := func(bool) {}
	td := []struct {
		name  string
		parts hw.Parts
		err   string
	}{
		{"empty", nil, "empty part list"},
		{"pin", hw.Parts{reg("foo=a")}, "invalid pin name foo"},
		{"twice", hw.Parts{reg("in=a, in=b")}, "connected more than once"},
		{"width", hw.Parts{counter(8)("out=a"), hw.OutputN(4, func(uint64) {})("in=a")}, "does not match wire width"},
		{"driven", hw.Parts{counter(8)("out=a"), counter(8)("out=a")}, "already driven"},
		{"true", hw.Parts{hw.Input(func() bool { return true })("out=true")}, "constant true"},
		{"false", hw.Parts{hw.Input(func() bool { return true })("out=false")}, "constant false"},
		{"floating", hw.Parts{hw.Output(nop)("in=x")}, "wire x not connected"},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			c, err := hw.NewCircuit(1, d.parts...)
			if err == nil {
				c.Dispose()
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), d.err) {
				t.Fatalf("got %q, expected %q", err, d.err)
			}
		})
	}
}

func TestSocket_Pin(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	bad := (&hw.PartSpec{
		Name:    "BAD",
		Outputs: hw.IO("out"),
		Mount: func(s *hw.Socket) []hw.Component {
			s.Pin("nope")
			return nil
		},
	}).NewPart
	c, err := hw.NewCircuit(1, bad("out=x"))
	if err == nil {
		c.Dispose()
	}
}
