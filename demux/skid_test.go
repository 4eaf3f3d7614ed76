package demux_test

import (
	"testing"

	"github.com/db47h/ethdemux/demux"
)

type skidState struct {
	b    demux.SkidBuffer
	sent uint64 // beats accepted
	recv uint64 // beats consumed downstream
}

// step runs one cycle with the given upstream valid and downstream ready
// states. Beat data carry their sequence number.
func (s *skidState) step(t *testing.T, inValid, outReady bool) {
	t.Helper()
	if out := s.b.Out(); out.Valid && outReady {
		if out.Data != s.recv {
			t.Fatalf("received beat %d, expected %d", out.Data, s.recv)
		}
		s.recv++
	}
	in := demux.Slot{Beat: demux.Beat{Data: s.sent}}
	if inValid && s.b.Ready() {
		in.Valid = true
		s.sent++
	}
	s.b.Clock(in, outReady)

	out, temp := s.b.Out(), s.b.Pending()
	if temp.Valid && !out.Valid {
		t.Fatal("temp valid with empty output")
	}
	if temp.Valid && s.b.Ready() {
		t.Fatal("ready with temp valid")
	}
	if held := s.sent - s.recv; held != uint64(s.b.Len()) {
		t.Fatalf("%d beats in flight, %d held", held, s.b.Len())
	}
}

// Enumerate every valid/ready sequence of the given depth.
func TestSkidBuffer_exhaustive(t *testing.T) {
	const depth = 8
	var walk func(s skidState, d int)
	count := 0
	walk = func(s skidState, d int) {
		if d == depth {
			// drain
			for i := 0; i < 3; i++ {
				s.step(t, false, true)
			}
			if s.recv != s.sent || s.b.Len() != 0 {
				t.Fatalf("sent %d beats, received %d", s.sent, s.recv)
			}
			count++
			return
		}
		for i := 0; i < 4; i++ {
			next := s
			next.step(t, i&1 != 0, i&2 != 0)
			walk(next, d+1)
		}
	}
	walk(skidState{}, 0)
	if count != 1<<(2*depth) {
		t.Fatalf("walked %d sequences", count)
	}
}

// the input is never stalled for more than one cycle after downstream becomes
// ready again.
func TestSkidBuffer_throughput(t *testing.T) {
	var s skidState
	for i := 0; i < 4; i++ {
		s.step(t, true, false)
	}
	if s.b.Len() != 2 || s.b.Ready() {
		t.Fatalf("expected full buffer, got %d beats, ready %v", s.b.Len(), s.b.Ready())
	}
	s.step(t, true, true)
	if !s.b.Ready() {
		t.Fatal("not ready after downstream accepted a beat")
	}
	before := s.sent
	for i := 0; i < 10; i++ {
		s.step(t, true, true)
	}
	if s.sent-before != 10 {
		t.Fatalf("accepted %d beats in 10 cycles", s.sent-before)
	}
}

func TestSkidBuffer_Reset(t *testing.T) {
	var s skidState
	s.step(t, true, false)
	s.step(t, true, false)
	s.step(t, true, false)
	s.b.Reset()
	if s.b != (demux.SkidBuffer{}) {
		t.Fatalf("not cleared: %+v", s.b)
	}
}
