package demux_test

import (
	"testing"

	"github.com/db47h/ethdemux/demux"
	"github.com/pkg/errors"
)

func TestFrame_Validate(t *testing.T) {
	td := []struct {
		name  string
		beats []demux.Beat
		err   error
	}{
		{"empty", nil, demux.ErrEmptyFrame},
		{"single", []demux.Beat{{Data: 1, Last: true}}, nil},
		{"three", []demux.Beat{{}, {}, {Last: true}}, nil},
		{"noLast", []demux.Beat{{}, {}}, demux.ErrNoLast},
		{"early", []demux.Beat{{}, {Last: true}, {Last: true}}, demux.ErrEarlyLast},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			f := demux.Frame{Beats: d.beats}
			err := f.Validate()
			if !errors.Is(err, d.err) {
				t.Fatalf("got %v, expected %v", err, d.err)
			}
		})
	}
}

func TestFrame_Equal(t *testing.T) {
	a, b := seqFrame(3), seqFrame(3)
	if !a.Equal(&b) {
		t.Fatal("equal frames differ")
	}
	b.Beats[1].User = true
	if a.Equal(&b) {
		t.Fatal("beat difference not detected")
	}
	c := seqFrame(3)
	c.Type = 0x86dd
	if a.Equal(&c) {
		t.Fatal("header difference not detected")
	}
	d := seqFrame(2)
	if a.Equal(&d) {
		t.Fatal("length difference not detected")
	}
}

func TestHeader_Masked(t *testing.T) {
	h := demux.Header{Dest: 0xffff123456789abc, Src: 1 << 48, Type: 7}.Masked()
	if h.Dest != 0x123456789abc || h.Src != 0 || h.Type != 7 {
		t.Fatalf("got %+v", h)
	}
}
