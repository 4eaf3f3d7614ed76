// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package demux

// SkidBuffer is the two stage payload pipeline between the input channel and
// the selected output. The out slot is presented downstream, the temp slot
// holds at most one beat received while out was stalled.
//
// Invariants, in every reachable state:
//
//	temp.Valid implies out.Valid
//	temp.Valid implies !Ready()
//
type SkidBuffer struct {
	out   Slot
	temp  Slot
	ready bool // registered early ready
}

// Ready returns the registered ready flag. A beat presented to Clock is only
// stored if Ready was true during that cycle.
//
func (b *SkidBuffer) Ready() bool { return b.ready }

// Out returns the slot presented downstream.
//
func (b *SkidBuffer) Out() Slot { return b.out }

// Pending returns the temp slot.
//
func (b *SkidBuffer) Pending() Slot { return b.temp }

// Len returns the number of valid beats held.
//
func (b *SkidBuffer) Len() int {
	n := 0
	if b.out.Valid {
		n++
	}
	if b.temp.Valid {
		n++
	}
	return n
}

// ReadyEarly returns the next value of the ready register: true if
// downstream is ready, or both slots are free, or temp is free and no beat
// is coming in.
//
func (b *SkidBuffer) ReadyEarly(outReady, inValid bool) bool {
	return outReady || (!b.temp.Valid && !b.out.Valid) || (!b.temp.Valid && !inValid)
}

// Clock applies one clock edge. in is the incoming beat, its Valid flag set
// only for an accepted transfer; outReady is the downstream ready input
// during the cycle. Beats are consumed downstream on cycles where both
// Out().Valid and outReady are true.
//
func (b *SkidBuffer) Clock(in Slot, outReady bool) {
	early := b.ReadyEarly(outReady, in.Valid)
	switch {
	case b.ready:
		if outReady || !b.out.Valid {
			b.out = in
		} else {
			b.temp = in
		}
	case outReady:
		b.out = b.temp
		b.temp = Slot{}
	}
	b.ready = early
}

// Reset clears all registers.
//
func (b *SkidBuffer) Reset() {
	*b = SkidBuffer{}
}
