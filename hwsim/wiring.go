// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim

import (
	"strconv"

	"github.com/pkg/errors"
)

// Constant wire names.
//
var (
	True  = "true"
	False = "false"
	GND   = "false"
)

const cstFalse = 0

// a net is a wire in the circuit.
type net struct {
	name     string
	width    int
	driver   string // part.pin driving the net
	readers  []string
	constant bool // drives all ones
	private  bool // net allocated for an unconnected output
}

type wiring struct {
	nets    []*net
	byName  map[string]int
	trues   map[int]int // true constant nets by width
	sockets []map[string]int
}

func pinName(p Part, pin string) string {
	return p.Name + "." + pin
}

func (wr *wiring) alloc(n *net) int {
	i := len(wr.nets)
	wr.nets = append(wr.nets, n)
	if !n.private && !n.constant {
		wr.byName[n.name] = i
	}
	return i
}

func (wr *wiring) trueNet(width int) int {
	if i, ok := wr.trues[width]; ok {
		return i
	}
	i := wr.alloc(&net{name: True, width: width, constant: true, private: true})
	wr.trues[width] = i
	return i
}

// connect connects pin of part p to the named wire.
func (wr *wiring) connect(p Part, pin Pin, output bool, wire string) (int, error) {
	pn := pinName(p, pin.Name)
	switch wire {
	case False:
		if output {
			return 0, errors.New(pn + ":" + wire + ": output pin connected to constant false input")
		}
		return cstFalse, nil
	case True:
		if output {
			return 0, errors.New(pn + ":" + wire + ": output pin connected to constant true input")
		}
		return wr.trueNet(pin.Width), nil
	}
	i, ok := wr.byName[wire]
	if !ok {
		i = wr.alloc(&net{name: wire, width: pin.Width})
	}
	n := wr.nets[i]
	if n.width != pin.Width {
		return 0, errors.Errorf("%s:%s: pin width %d does not match wire width %d", pn, wire, pin.Width, n.width)
	}
	if output {
		if n.driver != "" {
			return 0, errors.Errorf("%s:%s: wire already driven by %s", pn, wire, n.driver)
		}
		n.driver = pn
	} else {
		n.readers = append(n.readers, pn)
	}
	return i, nil
}

func buildWiring(parts []Part) (*wiring, error) {
	wr := &wiring{
		byName:  make(map[string]int),
		trues:   make(map[int]int),
		sockets: make([]map[string]int, len(parts)),
	}
	wr.alloc(&net{name: False, width: 64, private: true})

	private := 0
	for pnum, p := range parts {
		if p.PartSpec == nil {
			return nil, errors.New("part " + strconv.Itoa(pnum) + " has no spec")
		}
		// check that all keys match one of the part's input or output pins
		conns := make(map[string]string, len(p.Conns))
		for _, c := range p.Conns {
			if _, _, ok := p.pin(c.Pin); !ok {
				return nil, errors.New("invalid pin name " + c.Pin + " for part " + p.Name)
			}
			if _, ok := conns[c.Pin]; ok {
				return nil, errors.New("pin " + pinName(p, c.Pin) + " connected more than once")
			}
			conns[c.Pin] = c.Wire
		}

		m := make(map[string]int, len(p.Inputs)+len(p.Outputs))
		for _, in := range p.Inputs {
			w, ok := conns[in.Name]
			if !ok {
				// unconnected inputs are grounded
				w = False
			}
			i, err := wr.connect(p, in, false, w)
			if err != nil {
				return nil, err
			}
			m[in.Name] = i
		}
		for _, out := range p.Outputs {
			w, ok := conns[out.Name]
			var i int
			if !ok {
				i = wr.alloc(&net{name: "__" + strconv.Itoa(private), width: out.Width, driver: pinName(p, out.Name), private: true})
				private++
			} else {
				var err error
				if i, err = wr.connect(p, out, true, w); err != nil {
					return nil, err
				}
			}
			m[out.Name] = i
		}
		wr.sockets[pnum] = m
	}

	for _, n := range wr.nets {
		if n.driver == "" && !n.constant && n.name != False {
			return nil, errors.New("wire " + n.name + " not connected to any output")
		}
	}

	return wr, nil
}
