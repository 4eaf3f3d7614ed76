// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"math/rand"

	"github.com/db47h/ethdemux/demux"
	"github.com/db47h/ethdemux/hwsim"
	"github.com/pkg/errors"
)

// SinkConfig configures a frame sink.
//
type SinkConfig struct {
	// Probability of a ready output being low during a cycle.
	Stall float64
	// If not nil, Ready overrides Stall. It is called on every step with the
	// number of cycles simulated so far and returns the next state of the
	// header (hdr == true) or payload ready output.
	Ready func(cycle uint64, hdr bool) bool
	Seed  int64
}

// A Sink receives frames from a demux output channel. It also checks that
// the sender obeys the valid/ready rule: once raised, a valid signal must
// stay high with stable data until ready is seen.
//
type Sink struct {
	cfg SinkConfig
	rng *rand.Rand

	hdrReady bool
	ready    bool

	hdrPending bool
	pendHdr    demux.Header
	pending    bool
	pendBeat   demux.Beat

	headers  []demux.Header
	payloads [][]demux.Beat
	cur      []demux.Beat
	beats    uint64
	stall    uint64
	errs     []error
}

// NewSink returns a new Sink and a NewPartFn that mounts it. The part must be
// mounted only once.
//
func NewSink(cfg SinkConfig) (*Sink, hwsim.NewPartFn) {
	s := &Sink{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
	spec := &hwsim.PartSpec{
		Name:    "SINK",
		Inputs:  senderOut,
		Outputs: senderIn,
		Mount: func(sk *hwsim.Socket) []hwsim.Component {
			return []hwsim.Component{s.mount(sk)}
		},
	}
	return s, spec.NewPart
}

func (s *Sink) nextReady(cycle uint64, hdr bool) bool {
	if s.cfg.Ready != nil {
		return s.cfg.Ready(cycle, hdr)
	}
	return s.cfg.Stall <= 0 || s.rng.Float64() >= s.cfg.Stall
}

func (s *Sink) mount(sk *hwsim.Socket) hwsim.Component {
	p := mountPins(sk)
	return func(c *hwsim.Circuit) {
		cycle := c.Cycles()
		hv, h := c.GetBool(p.hdrValid), p.header(c)
		v, b := c.GetBool(p.valid), p.beat(c)

		if s.hdrPending && (!hv || h != s.pendHdr) {
			s.errs = append(s.errs, errors.Errorf("cycle %d: header changed before ready", cycle))
		}
		if s.pending && (!v || b != s.pendBeat) {
			s.errs = append(s.errs, errors.Errorf("cycle %d: payload changed before ready", cycle))
		}

		s.hdrPending = hv && !s.hdrReady
		s.pendHdr = h
		if hv && s.hdrReady {
			s.headers = append(s.headers, h)
		}

		s.pending = v && !s.ready
		s.pendBeat = b
		switch {
		case v && s.ready:
			s.beats++
			s.cur = append(s.cur, b)
			if b.Last {
				s.payloads = append(s.payloads, s.cur)
				s.cur = nil
			}
		case v:
			s.stall++
		}

		s.hdrReady = s.nextReady(cycle, true)
		s.ready = s.nextReady(cycle, false)
		c.SetBool(p.hdrReady, s.hdrReady)
		c.SetBool(p.ready, s.ready)
	}
}

// Frames returns the frames received so far. A frame is complete once both
// its header and its last payload beat have been received.
//
func (s *Sink) Frames() []demux.Frame {
	n := len(s.headers)
	if len(s.payloads) < n {
		n = len(s.payloads)
	}
	out := make([]demux.Frame, n)
	for i := range out {
		out[i] = demux.Frame{Header: s.headers[i], Beats: s.payloads[i]}
	}
	return out
}

// Headers returns the number of headers received.
//
func (s *Sink) Headers() int { return len(s.headers) }

// Beats returns the number of payload beats received.
//
func (s *Sink) Beats() uint64 { return s.beats }

// Stalls returns the number of cycles where a payload beat was presented but
// not accepted.
//
func (s *Sink) Stalls() uint64 { return s.stall }

// Idle returns true if the sink holds no partial frame and has no pending
// transfer.
//
func (s *Sink) Idle() bool {
	return !s.hdrPending && !s.pending && len(s.cur) == 0 && len(s.headers) == len(s.payloads)
}

// Err returns the first valid/ready rule violation seen, if any.
//
func (s *Sink) Err() error {
	if len(s.errs) == 0 {
		return nil
	}
	return s.errs[0]
}
