// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

// A Component is a component in a circuit that can Get and Set wire states.
//
type Component func(c *Circuit)

// A MountFn mounts a part into socket s. MountFn's should query
// the socket for assigned wire numbers and return closures around
// these wire numbers.
//
// For example, a 1 bit register can be defined like this:
//
//	reg := &PartSpec{
//		Name: "DFF",
//		Inputs: IO("in"),
//		Outputs: IO("out"),
//		Mount: func (s *Socket) []Component {
//			in, out := s.Pin("in"), s.Pin("out")
//			return []Component{
//				func (c *Circuit) { c.Set(out, c.Get(in)) }
//			}
//		}}
//
type MountFn func(s *Socket) []Component

// A PartSpec wraps a part specification (its blueprint).
//
type PartSpec struct {
	// Part name.
	Name string
	// Input pins. Must be distinct pin names. Use the IO() function to build
	// the pin list from a description like "a, b, bus[16]".
	Inputs Pins
	// Output pins. Must be distinct pin names.
	Outputs Pins
	// Mount function (see MountFn).
	Mount MountFn
}

// NewPart is a NewPartFn that wraps p with the given connections into a Part.
// See ParseConnections for the syntax of the connection string.
// NewPart panics if the connection string cannot be parsed.
//
func (p *PartSpec) NewPart(connections string) Part {
	conns, err := ParseConnections(connections)
	if err != nil {
		panic(err)
	}
	return Part{p, conns}
}

// Wire wraps p with the given connections into a Part.
//
func (p *PartSpec) Wire(conns []Connection) Part {
	return Part{p, conns}
}

// pin returns the pin named name and whether or not it is an output.
func (p *PartSpec) pin(name string) (Pin, bool, bool) {
	if pin, ok := p.Inputs.Find(name); ok {
		return pin, false, true
	}
	if pin, ok := p.Outputs.Find(name); ok {
		return pin, true, true
	}
	return Pin{}, false, false
}

// A NewPartFn is a function that takes a connection configuration and returns a
// new Part. See ParseConnections for the syntax of the connection configuration
// string.
//
type NewPartFn func(c string) Part

// A Part wraps a part specification together with its connections within a
// circuit.
//
type Part struct {
	*PartSpec
	Conns []Connection
}

// Parts is a convenience wrapper for []Part.
//
type Parts []Part

// Circuit is a runnable circuit simulation.
//
type Circuit struct {
	s0    []uint64 // wire states, current cycle
	s1    []uint64 // wire states, next cycle
	mask  []uint64 // wire masks
	wires map[string]int
	cs    []Component
	cycle uint64

	wc []chan struct{}
	wg sync.WaitGroup
}

// NewCircuit builds a new circuit based on the given parts.
//
// workers is the number of goroutines used to update the state of the Circuit
// each step of the simulation. If less or equal to 0, the value of GOMAXPROCS
// will be used.
//
// Callers must make sure to call Dispose() once the circuit is no longer needed
// in order to release allocated resources.
//
func NewCircuit(workers int, parts ...Part) (*Circuit, error) {
	if len(parts) == 0 {
		return nil, errors.New("empty part list")
	}

	wr, err := buildWiring(parts)
	if err != nil {
		return nil, err
	}

	cc := &Circuit{
		s0:    make([]uint64, len(wr.nets)),
		s1:    make([]uint64, len(wr.nets)),
		mask:  make([]uint64, len(wr.nets)),
		wires: make(map[string]int, len(wr.nets)),
	}
	for i, n := range wr.nets {
		cc.mask[i] = widthMask(n.width)
		if n.constant {
			cc.s0[i] = cc.mask[i]
			cc.s1[i] = cc.mask[i]
		}
		if !n.private {
			cc.wires[n.name] = i
		}
	}

	var ups []Component
	for i, p := range parts {
		if p.Mount == nil {
			return nil, errors.New("part " + p.Name + " has no mount function")
		}
		ups = append(ups, p.Mount(&Socket{m: wr.sockets[i], c: cc})...)
	}
	cc.cs = ups

	// workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(-1)
	}
	if workers <= 0 {
		workers = 1
	}
	for len(ups) > 0 {
		size := len(ups) / workers
		if size*workers < len(ups) {
			size++
		}
		wc := make(chan struct{}, 1)
		cc.wc = append(cc.wc, wc)
		go worker(cc, ups[:size], wc)
		ups = ups[size:]
	}

	return cc, nil
}

func widthMask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(width) - 1
}

// Dispose releases all resources allocated for a circuit and stops
// worker goroutines.
//
func (c *Circuit) Dispose() {
	c.wg.Add(len(c.wc))
	for _, wc := range c.wc {
		close(wc)
	}
	c.wg.Wait()
	c.wc = nil
}

func worker(c *Circuit, cs []Component, wc <-chan struct{}) {
	for {
		_, ok := <-wc
		if !ok {
			c.wg.Done()
			return
		}
		for _, f := range cs {
			f(c)
		}
		c.wg.Done()
	}
}

// Cycles returns the number of clock cycles simulated so far.
//
func (c *Circuit) Cycles() uint64 {
	return c.cycle
}

// Get returns the state of wire n during the current clock cycle. The value
// of n should be obtained in a MountFn by a call to one of the Socket methods.
//
func (c *Circuit) Get(n int) uint64 {
	return c.s0[n]
}

// GetBool returns true if any bit of wire n is set.
//
func (c *Circuit) GetBool(n int) bool {
	return c.s0[n] != 0
}

// Set sets the state of wire n for the next clock cycle. Bits beyond the wire
// width are discarded.
//
func (c *Circuit) Set(n int, v uint64) {
	c.s1[n] = v & c.mask[n]
}

// SetBool sets wire n to 1 if v is true, 0 otherwise.
//
func (c *Circuit) SetBool(n int, v bool) {
	if v {
		c.s1[n] = 1
	} else {
		c.s1[n] = 0
	}
}

// Wire returns the number of the named wire.
//
func (c *Circuit) Wire(name string) (int, bool) {
	n, ok := c.wires[name]
	return n, ok
}

// Step advances the simulation by one clock cycle.
//
func (c *Circuit) Step() {
	c.wg.Add(len(c.wc))
	for _, wc := range c.wc {
		wc <- struct{}{}
	}

	c.wg.Wait()
	c.cycle++
	c.s0, c.s1 = c.s1, c.s0
}

// Run advances the simulation by n clock cycles.
//
func (c *Circuit) Run(n int) {
	for ; n > 0; n-- {
		c.Step()
	}
}

// RunUntil steps the simulation until done returns true or limit cycles have
// been simulated. done is checked before each step. It returns the value of
// the last call to done.
//
func (c *Circuit) RunUntil(done func() bool, limit uint64) bool {
	for i := uint64(0); i < limit; i++ {
		if done() {
			return true
		}
		c.Step()
	}
	return done()
}

// Size returns the component count in the circuit.
//
func (c *Circuit) Size() int { return len(c.cs) }
