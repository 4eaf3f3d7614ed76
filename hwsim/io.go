// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim

import "strconv"

// common pin names
const (
	pIn  = "in"
	pOut = "out"
)

// Input creates a function based 1 bit input. f is called on every step and
// its result is visible on the out pin during the next cycle.
//
//	Outputs: out
//	Function: out = f()
//
func Input(f func() bool) NewPartFn {
	p := &PartSpec{
		Name:    "Input",
		Outputs: Pins{{pOut, 1}},
		Mount: func(s *Socket) []Component {
			pin := s.Pin(pOut)
			return []Component{
				func(c *Circuit) {
					c.SetBool(pin, f())
				},
			}
		},
	}
	return p.NewPart
}

// Output creates an output or probe. The fn function is
// called with the connected wire state on every circuit update.
//
//	Inputs: in
//	Function: f(in)
//
func Output(f func(bool)) NewPartFn {
	p := &PartSpec{
		Name:   "Output",
		Inputs: Pins{{pIn, 1}},
		Mount: func(s *Socket) []Component {
			pin := s.Pin(pIn)
			return []Component{
				func(c *Circuit) { f(c.GetBool(pin)) },
			}
		},
	}
	return p.NewPart
}

// InputN creates an input bus of the given bits size.
//
func InputN(bits int, f func() uint64) NewPartFn {
	return (&PartSpec{
		Name:    "Input" + strconv.Itoa(bits),
		Outputs: Pins{{pOut, bits}},
		Mount: func(s *Socket) []Component {
			pin := s.Pin(pOut)
			return []Component{func(c *Circuit) {
				c.Set(pin, f())
			}}
		}}).NewPart
}

// OutputN creates an output bus of the given bits size.
//
func OutputN(bits int, f func(uint64)) NewPartFn {
	return (&PartSpec{
		Name:   "Output" + strconv.Itoa(bits),
		Inputs: Pins{{pIn, bits}},
		Mount: func(s *Socket) []Component {
			pin := s.Pin(pIn)
			return []Component{func(c *Circuit) {
				f(c.Get(pin))
			}}
		}}).NewPart
}
