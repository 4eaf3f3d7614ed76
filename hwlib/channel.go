// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strings"

	"github.com/db47h/ethdemux"
	"github.com/db47h/ethdemux/demux"
	"github.com/db47h/ethdemux/hwsim"
)

// Routed is a frame and the output port it is sent to.
//
type Routed struct {
	Port  int
	Frame demux.Frame
}

// Conns returns the connection string binding the channel pins of a part to
// the wires of the channel with the given prefix.
//
//	Conns("output_1") // "hdr_valid=output_1_eth_hdr_valid, hdr_ready=output_1_eth_hdr_ready, ..."
//
func Conns(prefix string) string {
	var b strings.Builder
	for _, sfx := range ethdemux.ChannelSuffixes() {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(sfx)
		b.WriteByte('=')
		b.WriteString(ethdemux.ChannelSignal(prefix, sfx))
	}
	return b.String()
}

// channel pin declarations, as seen by the sender.
var (
	senderOut = hwsim.Pins{
		{ethdemux.HdrValid, 1},
		{ethdemux.DestMAC, ethdemux.MACWidth},
		{ethdemux.SrcMAC, ethdemux.MACWidth},
		{ethdemux.Type, ethdemux.TypeWidth},
		{ethdemux.PayloadData, ethdemux.DataWidth},
		{ethdemux.PayloadKeep, ethdemux.KeepWidth},
		{ethdemux.PayloadValid, 1},
		{ethdemux.PayloadLast, 1},
		{ethdemux.PayloadUser, 1},
	}
	senderIn = hwsim.Pins{
		{ethdemux.HdrReady, 1},
		{ethdemux.PayloadReady, 1},
	}
)

type pins struct {
	hdrValid, dest, src, typ      int
	data, keep, valid, last, user int
	hdrReady, ready               int
}

func mountPins(s *hwsim.Socket) *pins {
	return &pins{
		hdrValid: s.Pin(ethdemux.HdrValid),
		dest:     s.Pin(ethdemux.DestMAC),
		src:      s.Pin(ethdemux.SrcMAC),
		typ:      s.Pin(ethdemux.Type),
		data:     s.Pin(ethdemux.PayloadData),
		keep:     s.Pin(ethdemux.PayloadKeep),
		valid:    s.Pin(ethdemux.PayloadValid),
		last:     s.Pin(ethdemux.PayloadLast),
		user:     s.Pin(ethdemux.PayloadUser),
		hdrReady: s.Pin(ethdemux.HdrReady),
		ready:    s.Pin(ethdemux.PayloadReady),
	}
}

func (p *pins) header(c *hwsim.Circuit) demux.Header {
	return demux.Header{
		Dest: c.Get(p.dest),
		Src:  c.Get(p.src),
		Type: uint16(c.Get(p.typ)),
	}
}

func (p *pins) setHeader(c *hwsim.Circuit, h demux.Header) {
	c.Set(p.dest, h.Dest)
	c.Set(p.src, h.Src)
	c.Set(p.typ, uint64(h.Type))
}

func (p *pins) beat(c *hwsim.Circuit) demux.Beat {
	return demux.Beat{
		Data: c.Get(p.data),
		Keep: uint8(c.Get(p.keep)),
		Last: c.GetBool(p.last),
		User: c.GetBool(p.user),
	}
}

func (p *pins) setBeat(c *hwsim.Circuit, b demux.Beat) {
	c.Set(p.data, b.Data)
	c.Set(p.keep, uint64(b.Keep))
	c.SetBool(p.last, b.Last)
	c.SetBool(p.user, b.User)
}
