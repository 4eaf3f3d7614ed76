// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package testbench

import (
	"github.com/db47h/ethdemux"
	"github.com/db47h/ethdemux/hwsim"
	"github.com/pkg/errors"
)

// monitor watches the handshake signals of the demux. It stops at the first
// violation.
type monitor struct {
	inFlight    int
	maxInFlight int
	err         error
}

type handshake struct {
	valid, ready int
}

func newMonitor(p ethdemux.Params) (*monitor, hwsim.Part) {
	m := new(monitor)
	var pins hwsim.Pins
	var conns []hwsim.Connection
	add := func(name string) {
		pins = append(pins, hwsim.Pin{Name: name, Width: 1})
		conns = append(conns, hwsim.Connection{Pin: name, Wire: name})
	}
	for _, pfx := range append([]string{ethdemux.InputPrefix}, outputPrefixes(p)...) {
		for _, sfx := range []string{ethdemux.HdrValid, ethdemux.PayloadValid, ethdemux.PayloadReady} {
			add(ethdemux.ChannelSignal(pfx, sfx))
		}
	}
	add(ethdemux.Rst)

	spec := &hwsim.PartSpec{
		Name:   "MONITOR",
		Inputs: pins,
		Mount: func(s *hwsim.Socket) []hwsim.Component {
			return []hwsim.Component{m.mount(s, p)}
		},
	}
	return m, spec.Wire(conns)
}

func outputPrefixes(p ethdemux.Params) []string {
	out := make([]string, len(p.Ports))
	for i, n := range p.Ports {
		out[i] = ethdemux.OutputPrefix(n)
	}
	return out
}

func mountHandshake(s *hwsim.Socket, prefix string) handshake {
	return handshake{
		valid: s.Pin(ethdemux.ChannelSignal(prefix, ethdemux.PayloadValid)),
		ready: s.Pin(ethdemux.ChannelSignal(prefix, ethdemux.PayloadReady)),
	}
}

func (h handshake) fire(c *hwsim.Circuit) bool {
	return c.GetBool(h.valid) && c.GetBool(h.ready)
}

func (m *monitor) mount(s *hwsim.Socket, p ethdemux.Params) hwsim.Component {
	rst := s.Pin(ethdemux.Rst)
	in := mountHandshake(s, ethdemux.InputPrefix)
	outs := make([]handshake, len(p.Ports))
	hdrValid := make([]int, len(p.Ports))
	for i, pfx := range outputPrefixes(p) {
		outs[i] = mountHandshake(s, pfx)
		hdrValid[i] = s.Pin(ethdemux.ChannelSignal(pfx, ethdemux.HdrValid))
	}

	return func(c *hwsim.Circuit) {
		if m.err != nil {
			return
		}
		cycle := c.Cycles()
		active := -1
		for i := range outs {
			if !c.GetBool(hdrValid[i]) && !c.GetBool(outs[i].valid) {
				continue
			}
			if active >= 0 {
				m.err = errors.Wrapf(ErrProtocol, "cycle %d: ports %d and %d active", cycle, p.Ports[active], p.Ports[i])
				return
			}
			active = i
		}

		if in.fire(c) {
			m.inFlight++
		}
		if active >= 0 && outs[active].fire(c) {
			m.inFlight--
		}
		if m.inFlight > m.maxInFlight {
			m.maxInFlight = m.inFlight
		}
		switch {
		case m.inFlight > 2:
			m.err = errors.Wrapf(ErrProtocol, "cycle %d: %d beats held", cycle, m.inFlight)
		case m.inFlight < 0:
			m.err = errors.Wrapf(ErrProtocol, "cycle %d: beat delivered before being received", cycle)
		}
		if c.GetBool(rst) {
			m.inFlight = 0
		}
	}
}
