// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"math/rand"

	"github.com/db47h/ethdemux"
	"github.com/db47h/ethdemux/demux"
	"github.com/db47h/ethdemux/hwsim"
)

// SourceConfig configures a frame source.
//
type SourceConfig struct {
	// Frames to send, in order.
	Frames []Routed
	// Width of the select output.
	Width int
	// Probability of an idle cycle before raising a valid signal. Also the
	// probability of enable being low during a cycle.
	Gap float64
	// Drive random values on select when no header is presented.
	Scramble bool
	Seed     int64
}

// A Source sends frames on a demux input channel. Headers are sent at most
// one frame ahead of the payload, and the payload of a frame is only sent
// after its header has been accepted. Valid signals are held until the
// matching ready is seen.
//
// Pins: the channel pins, plus the enable and select outputs. select is set
// to the port of the frame whose header is presented.
//
type Source struct {
	cfg SourceConfig
	rng *rand.Rand

	hdr   int // headers accepted
	frame int // frames whose payload is completely sent
	beat  int // next beat of frame

	hdrValid bool
	valid    bool
	sel      uint64
	header   demux.Header
	out      demux.Beat

	beats uint64
	stall uint64
}

// NewSource returns a new Source and a NewPartFn that mounts it. The part
// must be mounted only once.
//
func NewSource(cfg SourceConfig) (*Source, hwsim.NewPartFn) {
	s := &Source{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
	outs := append(hwsim.Pins{{ethdemux.Enable, 1}, {ethdemux.Select, cfg.Width}}, senderOut...)
	spec := &hwsim.PartSpec{
		Name:    "SOURCE",
		Inputs:  senderIn,
		Outputs: outs,
		Mount: func(sk *hwsim.Socket) []hwsim.Component {
			return []hwsim.Component{s.mount(sk)}
		},
	}
	return s, spec.NewPart
}

// Done returns true once every frame has been sent.
//
func (s *Source) Done() bool { return s.frame == len(s.cfg.Frames) }

// Sent returns the number of frames whose payload has been sent.
//
func (s *Source) Sent() int { return s.frame }

// Beats returns the number of payload beats sent.
//
func (s *Source) Beats() uint64 { return s.beats }

// Stalls returns the number of cycles where a payload beat was presented but
// not accepted.
//
func (s *Source) Stalls() uint64 { return s.stall }

func (s *Source) gap() bool {
	return s.cfg.Gap > 0 && s.rng.Float64() < s.cfg.Gap
}

func (s *Source) mount(sk *hwsim.Socket) hwsim.Component {
	p := mountPins(sk)
	enable, sel := sk.Pin(ethdemux.Enable), sk.Pin(ethdemux.Select)
	frames := s.cfg.Frames

	return func(c *hwsim.Circuit) {
		// transfers during this cycle
		if s.hdrValid && c.GetBool(p.hdrReady) {
			s.hdrValid = false
			s.hdr++
		}
		if s.valid {
			if c.GetBool(p.ready) {
				s.valid = false
				s.beats++
				s.beat++
				if s.beat == len(frames[s.frame].Frame.Beats) {
					s.frame++
					s.beat = 0
				}
			} else {
				s.stall++
			}
		}

		if !s.hdrValid && s.hdr < len(frames) && s.hdr <= s.frame+1 && !s.gap() {
			s.hdrValid = true
		}
		if !s.valid && s.frame < s.hdr && !s.gap() {
			s.valid = true
		}

		switch {
		case s.hdrValid:
			s.sel = uint64(frames[s.hdr].Port)
			s.header = frames[s.hdr].Frame.Header
		case s.cfg.Scramble:
			s.sel = uint64(s.rng.Int63())
		}
		if s.valid {
			s.out = frames[s.frame].Frame.Beats[s.beat]
		}

		c.SetBool(enable, !s.gap())
		c.Set(sel, s.sel)
		c.SetBool(p.hdrValid, s.hdrValid)
		p.setHeader(c, s.header)
		c.SetBool(p.valid, s.valid)
		p.setBeat(c, s.out)
	}
}

// Expected returns the frames routed to the given port, in order, as a sink
// connected to that port should receive them.
//
func Expected(frames []Routed, port int) []demux.Frame {
	var out []demux.Frame
	for _, r := range frames {
		if r.Port == port {
			f := r.Frame
			f.Header = f.Header.Masked()
			out = append(out, f)
		}
	}
	return out
}
