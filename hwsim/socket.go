// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim

// A Socket maps a part's pin names to wire numbers in a circuit.
//
type Socket struct {
	m map[string]int
	c *Circuit
}

// Pin returns the wire number connected to the given pin.
// This function panics if the pin does not exist.
//
func (s *Socket) Pin(name string) int {
	n, ok := s.m[name]
	if !ok {
		panic("pin " + name + " does not exist")
	}
	return n
}

// Pins returns the wire numbers connected to the given pins.
//
func (s *Socket) Pins(names ...string) []int {
	out := make([]int, len(names))
	for i, n := range names {
		out[i] = s.Pin(n)
	}
	return out
}
