// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package demux

import (
	"github.com/db47h/ethdemux"
	"github.com/pkg/errors"
)

// State is the frame state of a Demux.
//
type State int

// Frame states.
//
const (
	Idle State = iota
	InFrame
)

func (s State) String() string {
	if s == Idle {
		return "IDLE"
	}
	return "FRAME"
}

// Inputs holds the input signals of a Demux during one clock cycle.
//
type Inputs struct {
	Enable bool
	Select int

	HdrValid     bool
	Header       Header
	PayloadValid bool
	Payload      Beat

	// Per port ready inputs. Both must have one entry per output port.
	HdrReady     []bool
	PayloadReady []bool
}

// NewInputs returns Inputs sized for n output ports.
//
func NewInputs(n int) *Inputs {
	return &Inputs{
		HdrReady:     make([]bool, n),
		PayloadReady: make([]bool, n),
	}
}

// Port is the view of the output channel of one port.
//
type Port struct {
	HdrValid     bool
	Header       Header
	PayloadValid bool
	Payload      Beat
}

// A Demux is a cycle accurate model of the generated demultiplexer. All its
// outputs are registers, so its outputs during a cycle only depend on the
// inputs of previous cycles.
//
// The header registers and the payload pipeline are shared by all output
// ports. They are tagged with the select register and only the selected port
// sees its valid flags asserted.
//
type Demux struct {
	n     int
	frame bool
	sel   int

	hdrReady bool // input header ready register
	payReady bool // input payload ready register
	hdrValid bool // header valid register of the selected port
	hdr      Header

	skid SkidBuffer
}

// New returns a new Demux with the given number of output ports, in reset
// state.
//
func New(ports int) (*Demux, error) {
	if ports <= 0 {
		return nil, errors.Wrapf(ethdemux.ErrInvalidPorts, "demux with %d ports", ports)
	}
	return &Demux{n: ports}, nil
}

// Ports returns the number of output ports.
//
func (d *Demux) Ports() int { return d.n }

// State returns the current frame state.
//
func (d *Demux) State() State {
	if d.frame {
		return InFrame
	}
	return Idle
}

// Selected returns the value of the select register.
//
func (d *Demux) Selected() int { return d.sel }

// HdrReady returns the input header ready output.
//
func (d *Demux) HdrReady() bool { return d.hdrReady }

// PayloadReady returns the input payload ready output.
//
func (d *Demux) PayloadReady() bool { return d.payReady }

// Buffered returns the number of payload beats held in the skid buffer.
//
func (d *Demux) Buffered() int { return d.skid.Len() }

// Skid returns a copy of the payload pipeline state.
//
func (d *Demux) Skid() SkidBuffer { return d.skid }

// Port returns the output channel of port p. Data fields are the same for
// every port, valid flags are only set for the selected port.
//
func (d *Demux) Port(p int) Port {
	out := d.skid.Out()
	return Port{
		HdrValid:     d.hdrValid && p == d.sel,
		Header:       d.hdr,
		PayloadValid: out.Valid && p == d.sel,
		Payload:      out.Beat,
	}
}

// Reset clears every register.
//
func (d *Demux) Reset() {
	*d = Demux{n: d.n}
}

// Step applies one clock edge with the given inputs.
//
func (d *Demux) Step(in *Inputs) {
	// read-back of the port held in the select register
	curHdrValid := d.hdrValid
	curHdrReady := in.HdrReady[d.sel]
	curValid := d.skid.Out().Valid
	curReady := in.PayloadReady[d.sel]

	sel, frame := d.sel, d.frame
	hdrReady := d.hdrReady && !in.HdrValid
	hdrValid := d.hdrValid && !curHdrReady
	hdr := d.hdr

	accepted := in.PayloadValid && d.payReady
	if d.frame {
		if accepted {
			frame = !in.Payload.Last
		}
	} else if in.Enable && in.HdrValid && !curHdrValid && !curValid && in.Select >= 0 && in.Select < d.n {
		frame = true
		sel = in.Select
		hdrReady = true
		hdrValid = true
		hdr = in.Header
	}

	d.payReady = d.skid.ReadyEarly(curReady, accepted) && frame
	d.skid.Clock(Slot{in.Payload, accepted}, curReady)

	d.sel, d.frame = sel, frame
	d.hdrReady, d.hdrValid, d.hdr = hdrReady, hdrValid, hdr
}
