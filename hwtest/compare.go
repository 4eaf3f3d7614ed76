// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwtest provides utility functions for testing circuits.
//
package hwtest

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/db47h/ethdemux/hwsim"
)

// A Generator returns the value of an input pin for the next cycle.
//
type Generator func(rng *rand.Rand, pin hwsim.Pin) uint64

// Uniform is a Generator returning uniformly distributed values.
//
func Uniform(rng *rand.Rand, pin hwsim.Pin) uint64 {
	return rng.Uint64()
}

func connString(pins hwsim.Pins, prefix string) string {
	var b strings.Builder
	for _, p := range pins {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		b.WriteByte('=')
		b.WriteString(prefix)
		b.WriteString(p.Name)
	}
	return b.String()
}

func samePins(t *testing.T, what string, p1, p2 hwsim.Pins) {
	t.Helper()
	if len(p1) != len(p2) {
		t.Fatalf("%s: %d pins != %d pins", what, len(p1), len(p2))
	}
	for i := range p1 {
		if p1[i] != p2[i] {
			t.Fatalf("%s: pin %d: %v != %v", what, i, p1[i], p2[i])
		}
	}
}

// ComparePart takes two parts and compares their outputs given the same
// inputs for the given number of cycles. Both parts must have the same
// Input/Output interface. If gen is nil, Uniform is used.
//
func ComparePart(t *testing.T, cycles int, seed int64, gen Generator, part1, part2 hwsim.NewPartFn) {
	t.Helper()
	if gen == nil {
		gen = Uniform
	}
	rng := rand.New(rand.NewSource(seed))

	ps1, ps2 := part1("").PartSpec, part2("").PartSpec
	samePins(t, "inputs", ps1.Inputs, ps2.Inputs)
	samePins(t, "outputs", ps1.Outputs, ps2.Outputs)

	inputs := make([]uint64, len(ps1.Inputs))
	prev := make([]uint64, len(ps1.Inputs))
	var parts hwsim.Parts
	for i, p := range ps1.Inputs {
		k := i
		parts = append(parts, hwsim.InputN(p.Width, func() uint64 { return inputs[k] })("out="+p.Name))
	}
	ins := connString(ps1.Inputs, "")
	parts = append(parts,
		part1(ins+", "+connString(ps1.Outputs, "a_")),
		part2(ins+", "+connString(ps1.Outputs, "b_")),
	)

	c, err := hwsim.NewCircuit(0, parts...)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	outs := make([][2]int, len(ps1.Outputs))
	for i, p := range ps1.Outputs {
		a, _ := c.Wire("a_" + p.Name)
		b, _ := c.Wire("b_" + p.Name)
		outs[i] = [2]int{a, b}
	}

	errString := func(o int) string {
		var b strings.Builder
		for i, p := range ps1.Inputs {
			if b.Len() > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%#x", p.Name, prev[i])
		}
		return fmt.Sprintf("cycle %d: %s: %s = %#x, %s = %#x\nInputs: %s", c.Cycles(), ps1.Outputs[o].Name,
			ps1.Name, c.Get(outs[o][0]), ps2.Name, c.Get(outs[o][1]), b.String())
	}

	// one extra cycle for the inputs to reach the parts
	for i := 0; i < cycles+1; i++ {
		copy(prev, inputs)
		for in, p := range ps1.Inputs {
			inputs[in] = gen(rng, p)
		}
		c.Step()
		for o, w := range outs {
			if c.Get(w[0]) != c.Get(w[1]) {
				t.Fatal(errString(o))
			}
		}
	}
}
