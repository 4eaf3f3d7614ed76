// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package testbench runs a demux model on generated traffic and checks its
// output.
//
// A bench is a hwsim circuit made of a frame source driving the demux input
// channel, the demux part, one frame sink per output port and a monitor
// checking, on every cycle, that at most one output port is active and that
// no more than two payload beats are held by the demux.
//
package testbench

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/db47h/ethdemux"
	"github.com/db47h/ethdemux/demux"
	"github.com/db47h/ethdemux/hwlib"
	"github.com/db47h/ethdemux/hwsim"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// Bench errors.
//
var (
	ErrTimeout  = errors.New("simulation timeout")
	ErrProtocol = errors.New("protocol violation")
	ErrMismatch = errors.New("frame mismatch")
)

// Config configures a Bench.
//
type Config struct {
	Frames   []hwlib.Routed
	Gap      float64 // source idle probability
	Stall    float64 // sink back-pressure probability
	Scramble bool    // random select outside of frame start
	Seed     int64
	Workers  int
	// Number of cycles rst is held high at startup.
	ResetCycles int
}

// Generate returns n random frames of 1 to maxBeats beats, routed to random
// ports in [0, ports).
//
func Generate(seed int64, ports, n, maxBeats int) []hwlib.Routed {
	if maxBeats < 1 {
		maxBeats = 1
	}
	rng := rand.New(rand.NewSource(seed))
	out := make([]hwlib.Routed, n)
	for i := range out {
		f := demux.Frame{
			Header: demux.Header{
				Dest: rng.Uint64() & demux.MACMask,
				Src:  rng.Uint64() & demux.MACMask,
				Type: uint16(rng.Intn(demux.TypeMask + 1)),
			},
			Beats: make([]demux.Beat, 1+rng.Intn(maxBeats)),
		}
		for j := range f.Beats {
			f.Beats[j] = demux.Beat{Data: rng.Uint64(), Keep: 0xff}
		}
		last := &f.Beats[len(f.Beats)-1]
		last.Last = true
		last.Keep = uint8(1<<uint(1+rng.Intn(8)) - 1)
		last.User = rng.Intn(16) == 0
		out[i] = hwlib.Routed{Port: rng.Intn(ports), Frame: f}
	}
	return out
}

// A Bench is a runnable demux test circuit.
//
type Bench struct {
	p     ethdemux.Params
	cfg   Config
	c     *hwsim.Circuit
	src   *hwlib.Source
	sinks []*hwlib.Sink
	mon   *monitor

	beats uint64 // expected beat count
}

// New builds a bench for a demux with parameters p.
//
func New(p ethdemux.Params, cfg Config) (*Bench, error) {
	for i := range cfg.Frames {
		r := &cfg.Frames[i]
		if r.Port < 0 || r.Port >= p.N {
			return nil, errors.Errorf("frame %d: port %d out of range", i, r.Port)
		}
		if err := r.Frame.Validate(); err != nil {
			return nil, errors.Wrapf(err, "frame %d", i)
		}
	}

	b := &Bench{p: p, cfg: cfg, sinks: make([]*hwlib.Sink, p.N)}
	for _, r := range cfg.Frames {
		b.beats += uint64(len(r.Frame.Beats))
	}

	parts := hwsim.Parts{
		hwsim.MakePart(&resetGen{Cycles: cfg.ResetCycles}).NewPart("rst=" + ethdemux.Rst),
	}
	var newSrc hwsim.NewPartFn
	b.src, newSrc = hwlib.NewSource(hwlib.SourceConfig{
		Frames:   cfg.Frames,
		Width:    p.VectorWidth(),
		Gap:      cfg.Gap,
		Scramble: cfg.Scramble,
		Seed:     cfg.Seed,
	})
	parts = append(parts, newSrc(hwlib.Conns(ethdemux.InputPrefix)+", enable="+ethdemux.Enable+", select="+ethdemux.Select))
	for i, n := range p.Ports {
		var newSink hwsim.NewPartFn
		b.sinks[i], newSink = hwlib.NewSink(hwlib.SinkConfig{
			Stall: cfg.Stall,
			Seed:  cfg.Seed + int64(i) + 1,
		})
		parts = append(parts, newSink(hwlib.Conns(ethdemux.OutputPrefix(n))))
	}
	parts = append(parts, demux.NewPart(p)(demuxConns(p)))
	var mp hwsim.Part
	b.mon, mp = newMonitor(p)
	parts = append(parts, mp)

	c, err := hwsim.NewCircuit(cfg.Workers, parts...)
	if err != nil {
		return nil, errors.Wrap(err, "build circuit")
	}
	b.c = c
	return b, nil
}

// resetGen holds rst high during the first Cycles cycles.
type resetGen struct {
	Rst    int `hw:"out"`
	Cycles int
}

func (r *resetGen) Update(c *hwsim.Circuit) {
	c.SetBool(r.Rst, r.Cycles > 0)
	if r.Cycles > 0 {
		r.Cycles--
	}
}

// demuxConns connects every pin of the demux part to the wire of the same
// name.
func demuxConns(p ethdemux.Params) string {
	var conns []string
	for _, s := range p.Signals() {
		if s.Name != ethdemux.Clk {
			conns = append(conns, s.Name+"="+s.Name)
		}
	}
	return strings.Join(conns, ", ")
}

// Close releases the resources held by the bench.
//
func (b *Bench) Close() {
	b.c.Dispose()
}

// Circuit returns the bench circuit.
//
func (b *Bench) Circuit() *hwsim.Circuit { return b.c }

func (b *Bench) done() bool {
	if b.mon.err != nil {
		return true
	}
	if !b.src.Done() {
		return false
	}
	var beats uint64
	for _, s := range b.sinks {
		if !s.Idle() {
			return false
		}
		beats += s.Beats()
	}
	return beats == b.beats
}

// Run runs the simulation until every frame has been delivered. It fails if
// the monitor detects a protocol violation or if all frames are not
// delivered after limit cycles.
//
func (b *Bench) Run(limit uint64) error {
	return b.RunContext(context.Background(), limit)
}

// cycles simulated between two context checks
const runChunk = 4096

// RunContext is like Run but stops early if ctx is cancelled.
//
func (b *Bench) RunContext(ctx context.Context, limit uint64) error {
	end := b.c.Cycles() + limit
	if end < limit {
		end = math.MaxUint64
	}
	for {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "simulation stopped after %d cycles", b.c.Cycles())
		}
		n := end - b.c.Cycles()
		if n > runChunk {
			n = runChunk
		}
		if b.c.RunUntil(b.done, n) {
			return b.mon.err
		}
		if b.c.Cycles() >= end {
			return errors.Wrapf(ErrTimeout, "%d of %d frames sent after %d cycles", b.src.Sent(), len(b.cfg.Frames), b.c.Cycles())
		}
	}
}

// Check verifies that every port received exactly the frames routed to it,
// in order, and that the demux obeyed the valid/ready rule.
//
func (b *Bench) Check() error {
	if b.mon.err != nil {
		return b.mon.err
	}
	for i, n := range b.p.Ports {
		s := b.sinks[i]
		if err := s.Err(); err != nil {
			return errors.Wrapf(ErrProtocol, "port %d: %v", n, err)
		}
		got, exp := s.Frames(), hwlib.Expected(b.cfg.Frames, n)
		if slices.EqualFunc(got, exp, func(g, e demux.Frame) bool { return g.Equal(&e) }) {
			continue
		}
		if len(got) != len(exp) {
			return errors.Wrapf(ErrMismatch, "port %d: received %d frames, expected %d", n, len(got), len(exp))
		}
		for k := range got {
			if !got[k].Equal(&exp[k]) {
				return errors.Wrapf(ErrMismatch, "port %d: frame %d: got %s, expected %s", n, k, summary(&got[k]), summary(&exp[k]))
			}
		}
	}
	return nil
}

func summary(f *demux.Frame) string {
	return fmt.Sprintf("{dest %012x src %012x type %04x, %d beats}", f.Dest, f.Src, f.Type, len(f.Beats))
}

// Stats returns the simulation statistics.
//
func (b *Bench) Stats() Stats {
	st := Stats{
		Ports:       b.p.N,
		Frames:      len(b.cfg.Frames),
		Cycles:      b.c.Cycles(),
		Beats:       b.src.Beats(),
		InputStalls: b.src.Stalls(),
		MaxInFlight: b.mon.maxInFlight,
		PerPort:     make([]PortStats, len(b.sinks)),
	}
	for i, s := range b.sinks {
		st.PerPort[i] = PortStats{
			Port:   b.p.Ports[i],
			Frames: len(s.Frames()),
			Beats:  s.Beats(),
			Stalls: s.Stalls(),
		}
		st.OutputStalls += s.Stalls()
	}
	if st.Cycles > 0 {
		st.Throughput = float64(st.Beats) / float64(st.Cycles)
	}
	return st
}

// Stats holds simulation statistics.
//
type Stats struct {
	Ports        int         `toml:"ports"`
	Frames       int         `toml:"frames"`
	Cycles       uint64      `toml:"cycles"`
	Beats        uint64      `toml:"beats"`
	InputStalls  uint64      `toml:"input_stalls"`
	OutputStalls uint64      `toml:"output_stalls"`
	MaxInFlight  int         `toml:"max_in_flight"`
	Throughput   float64     `toml:"throughput"`
	PerPort      []PortStats `toml:"port"`
}

// PortStats holds the statistics of one output port.
//
type PortStats struct {
	Port   int    `toml:"port"`
	Frames int    `toml:"frames"`
	Beats  uint64 `toml:"beats"`
	Stalls uint64 `toml:"stalls"`
}
