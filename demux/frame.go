// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package demux

import (
	"github.com/db47h/ethdemux"
	"github.com/pkg/errors"
)

// Field masks.
//
const (
	MACMask  = 1<<ethdemux.MACWidth - 1
	TypeMask = 1<<ethdemux.TypeWidth - 1
)

// Header is an Ethernet frame header.
//
type Header struct {
	Dest uint64 // 48 bits
	Src  uint64 // 48 bits
	Type uint16
}

// Masked returns h with the MAC addresses truncated to 48 bits.
//
func (h Header) Masked() Header {
	h.Dest &= MACMask
	h.Src &= MACMask
	return h
}

// Beat is one 64 bit payload transfer.
//
type Beat struct {
	Data uint64
	Keep uint8
	Last bool
	User bool
}

// Frame is a header together with its payload beats.
//
type Frame struct {
	Header
	Beats []Beat
}

// Frame errors.
//
var (
	ErrEmptyFrame = errors.New("frame has no payload")
	ErrNoLast     = errors.New("last beat not marked last")
	ErrEarlyLast  = errors.New("beat marked last before end of frame")
)

// Validate checks that f is well formed: at least one beat and only the
// final beat marked last.
//
func (f *Frame) Validate() error {
	if len(f.Beats) == 0 {
		return ErrEmptyFrame
	}
	for i, b := range f.Beats[:len(f.Beats)-1] {
		if b.Last {
			return errors.Wrapf(ErrEarlyLast, "beat %d of %d", i, len(f.Beats))
		}
	}
	if !f.Beats[len(f.Beats)-1].Last {
		return ErrNoLast
	}
	return nil
}

// Equal returns true if f and g have the same header and beats.
//
func (f *Frame) Equal(g *Frame) bool {
	if f.Header != g.Header || len(f.Beats) != len(g.Beats) {
		return false
	}
	for i := range f.Beats {
		if f.Beats[i] != g.Beats[i] {
			return false
		}
	}
	return true
}

// Slot is a payload register: a beat and its valid flag.
//
type Slot struct {
	Beat
	Valid bool
}
