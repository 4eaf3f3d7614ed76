package demux_test

import (
	"math/rand"
	"testing"

	"github.com/db47h/ethdemux/demux"
)

type routed struct {
	port  int
	frame demux.Frame
}

// harness drives a Demux directly: one frame source on the input channel
// and one sink per output port.
type harness struct {
	t  *testing.T
	d  *demux.Demux
	in *demux.Inputs

	queue   []routed
	hdrDone bool
	beat    int

	// ready returns the sink ready state of a port's header (hdr == true)
	// or payload channel. nil means always ready.
	ready func(port int, hdr bool) bool
	// scramble returns the select value when no header is presented.
	scramble func() int

	hdrs      [][]demux.Header
	hdrCycles [][]int
	beats     [][]demux.Beat
	cycle     int

	stalled int // cycles with a payload beat presented but not accepted
	full    int // cycles with both pipeline stages occupied
}

func newHarness(t *testing.T, ports int, frames ...routed) *harness {
	t.Helper()
	d, err := demux.New(ports)
	if err != nil {
		t.Fatal(err)
	}
	return &harness{
		t:         t,
		d:         d,
		in:        demux.NewInputs(ports),
		queue:     frames,
		hdrs:      make([][]demux.Header, ports),
		hdrCycles: make([][]int, ports),
		beats:     make([][]demux.Beat, ports),
	}
}

func (h *harness) step() {
	t, d, in := h.t, h.d, h.in
	t.Helper()

	in.Enable = true
	in.HdrValid, in.PayloadValid = false, false
	if len(h.queue) > 0 {
		r := &h.queue[0]
		in.Select = r.port
		in.Header = r.frame.Header
		in.HdrValid = !h.hdrDone
		if h.hdrDone {
			in.PayloadValid = true
			in.Payload = r.frame.Beats[h.beat]
		}
	}
	if !in.HdrValid && h.scramble != nil {
		in.Select = h.scramble()
	}
	for p := range in.HdrReady {
		in.HdrReady[p] = h.ready == nil || h.ready(p, true)
		in.PayloadReady[p] = h.ready == nil || h.ready(p, false)
	}

	active := 0
	for p := 0; p < d.Ports(); p++ {
		v := d.Port(p)
		if v.HdrValid || v.PayloadValid {
			active++
		}
		if v.HdrValid && in.HdrReady[p] {
			h.hdrs[p] = append(h.hdrs[p], v.Header)
			h.hdrCycles[p] = append(h.hdrCycles[p], h.cycle)
		}
		if v.PayloadValid && in.PayloadReady[p] {
			h.beats[p] = append(h.beats[p], v.Payload)
		}
	}
	if active > 1 {
		t.Fatalf("cycle %d: %d ports active", h.cycle, active)
	}
	sk := d.Skid()
	if sk.Pending().Valid && (!sk.Out().Valid || sk.Ready()) {
		t.Fatalf("cycle %d: bad pipeline state %+v", h.cycle, sk)
	}
	if d.Buffered() == 2 {
		h.full++
		if d.PayloadReady() {
			t.Fatalf("cycle %d: ready with full pipeline", h.cycle)
		}
	}

	if in.HdrValid && d.HdrReady() {
		h.hdrDone = true
	}
	if in.PayloadValid {
		switch {
		case !d.PayloadReady():
			h.stalled++
		case h.beat+1 == len(h.queue[0].frame.Beats):
			h.queue = h.queue[1:]
			h.hdrDone, h.beat = false, 0
		default:
			h.beat++
		}
	}

	d.Step(in)
	h.cycle++
}

func (h *harness) idle() bool {
	if len(h.queue) > 0 || h.d.Buffered() > 0 {
		return false
	}
	for p := 0; p < h.d.Ports(); p++ {
		if h.d.Port(p).HdrValid {
			return false
		}
	}
	return true
}

func (h *harness) run(limit int) {
	h.t.Helper()
	for !h.idle() {
		if h.cycle >= limit {
			h.t.Fatalf("not done after %d cycles, %d frames left", limit, len(h.queue))
		}
		h.step()
	}
}

// check verifies that every port received exactly the frames routed to it.
func (h *harness) check(frames []routed) {
	h.t.Helper()
	for p := range h.beats {
		var hdrs []demux.Header
		var beats []demux.Beat
		for _, r := range frames {
			if r.port == p {
				hdrs = append(hdrs, r.frame.Header)
				beats = append(beats, r.frame.Beats...)
			}
		}
		if len(hdrs) != len(h.hdrs[p]) {
			h.t.Fatalf("port %d: got %d headers, expected %d", p, len(h.hdrs[p]), len(hdrs))
		}
		for i := range hdrs {
			if hdrs[i] != h.hdrs[p][i] {
				h.t.Fatalf("port %d: header %d: got %+v, expected %+v", p, i, h.hdrs[p][i], hdrs[i])
			}
		}
		if len(beats) != len(h.beats[p]) {
			h.t.Fatalf("port %d: got %d beats, expected %d", p, len(h.beats[p]), len(beats))
		}
		for i := range beats {
			if beats[i] != h.beats[p][i] {
				h.t.Fatalf("port %d: beat %d: got %+v, expected %+v", p, i, h.beats[p][i], beats[i])
			}
		}
	}
}

func randFrame(rng *rand.Rand, maxBeats int) demux.Frame {
	f := demux.Frame{
		Header: demux.Header{
			Dest: rng.Uint64() & demux.MACMask,
			Src:  rng.Uint64() & demux.MACMask,
			Type: uint16(rng.Intn(1 << 16)),
		},
		Beats: make([]demux.Beat, 1+rng.Intn(maxBeats)),
	}
	for i := range f.Beats {
		f.Beats[i] = demux.Beat{
			Data: rng.Uint64(),
			Keep: 0xff,
			User: rng.Intn(8) == 0,
		}
	}
	last := &f.Beats[len(f.Beats)-1]
	last.Last = true
	last.Keep = uint8(1<<uint(1+rng.Intn(8)) - 1)
	return f
}

func seqFrame(n int) demux.Frame {
	f := demux.Frame{
		Header: demux.Header{Dest: 0x0123456789ab, Src: 0x5a5a5a5a5a5a, Type: 0x0800},
		Beats:  make([]demux.Beat, n),
	}
	for i := range f.Beats {
		f.Beats[i] = demux.Beat{Data: uint64(i + 1), Keep: 0xff}
	}
	f.Beats[n-1].Last = true
	return f
}
