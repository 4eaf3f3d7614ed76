// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package hwsim provides a naive cycle based simulator for synchronous logic.

A circuit is built from parts. Each part is an instance of a PartSpec (its
blueprint) together with a description of how its pins are connected to the
wires of the circuit:

	reg := &hwsim.PartSpec{
		Name:    "Reg8",
		Inputs:  hwsim.IO("d[8]"),
		Outputs: hwsim.IO("q[8]"),
		Mount: func(s *hwsim.Socket) []hwsim.Component {
			d, q := s.Pin("d"), s.Pin("q")
			return []hwsim.Component{
				func(c *hwsim.Circuit) { c.Set(q, c.Get(d)) },
			}
		}}

	c, err := hwsim.NewCircuit(0,
		hwsim.InputN(8, func() uint64 { return in })("out=x"),
		reg.NewPart("d=x, q=y"),
		hwsim.OutputN(8, func(v uint64) { out = v })("in=y"),
	)

Wires carry up to 64 bits. The circuit keeps two copies of the wire states:
components read the state of the current clock cycle with Get and write the
state of the next cycle with Set. Step runs all components once and advances
the clock by one cycle, so every component behaves like a block of registers
clocked by a single global clock. Components must set all of their outputs on
every step.

Custom parts can also be built from a struct type with tagged fields, see
MakePart.

The special wire names "false" and "true" can be connected to any input pin.
They drive respectively all zeroes and all ones.
*/
package hwsim
