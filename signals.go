// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package ethdemux

import "strconv"

// Dir is a signal direction, as seen from the demux.
//
type Dir int

// Signal directions.
//
const (
	In Dir = iota
	Out
)

func (d Dir) String() string {
	if d == In {
		return "input"
	}
	return "output"
}

// Flip returns the opposite direction.
//
func (d Dir) Flip() Dir {
	if d == In {
		return Out
	}
	return In
}

// Signal is a port of the generated module.
//
type Signal struct {
	Name  string
	Dir   Dir
	Width int
}

// Range returns the Verilog range declaration of the signal, "" for 1 bit
// signals.
//
func (s Signal) Range() string {
	if s.Width <= 1 {
		return ""
	}
	return "[" + strconv.Itoa(s.Width-1) + ":0]"
}

// Clock and reset signal names.
//
const (
	Clk = "clk"
	Rst = "rst"
)

// Control signal names.
//
const (
	Enable = "enable"
	Select = "select"
)

// Channel signal suffixes. The full name of a channel signal is
// <prefix>_eth_<suffix>, see ChannelSignal.
//
const (
	HdrValid     = "hdr_valid"
	HdrReady     = "hdr_ready"
	DestMAC      = "dest_mac"
	SrcMAC       = "src_mac"
	Type         = "type"
	PayloadData  = "payload_tdata"
	PayloadKeep  = "payload_tkeep"
	PayloadValid = "payload_tvalid"
	PayloadReady = "payload_tready"
	PayloadLast  = "payload_tlast"
	PayloadUser  = "payload_tuser"
)

// Field widths of a frame channel.
//
const (
	MACWidth  = 48
	TypeWidth = 16
	DataWidth = 64
	KeepWidth = DataWidth / 8
)

// channel describes one frame channel from the sender's point of view.
var channel = []Signal{
	{HdrValid, Out, 1},
	{HdrReady, In, 1},
	{DestMAC, Out, MACWidth},
	{SrcMAC, Out, MACWidth},
	{Type, Out, TypeWidth},
	{PayloadData, Out, DataWidth},
	{PayloadKeep, Out, KeepWidth},
	{PayloadValid, Out, 1},
	{PayloadReady, In, 1},
	{PayloadLast, Out, 1},
	{PayloadUser, Out, 1},
}

// InputPrefix is the name prefix of the input channel signals.
//
const InputPrefix = "input"

// OutputPrefix returns the name prefix of the signals of output port p.
//
func OutputPrefix(p int) string {
	return "output_" + strconv.Itoa(p)
}

// ChannelSignal returns the full name of a channel signal.
//
//	ChannelSignal("output_2", PayloadData) // "output_2_eth_payload_tdata"
//
func ChannelSignal(prefix, suffix string) string {
	return prefix + "_eth_" + suffix
}

// ChannelSuffixes returns the channel signal suffixes in declaration order.
//
func ChannelSuffixes() []string {
	s := make([]string, len(channel))
	for i := range channel {
		s[i] = channel[i].Name
	}
	return s
}

// channelSignals returns the signals of a channel. If sender is true, the
// demux drives the channel.
func channelSignals(prefix string, sender bool) []Signal {
	out := make([]Signal, len(channel))
	for i, s := range channel {
		s.Name = ChannelSignal(prefix, s.Name)
		if !sender {
			s.Dir = s.Dir.Flip()
		}
		out[i] = s
	}
	return out
}

// ClockSignals returns the clock and reset inputs.
//
func (p Params) ClockSignals() []Signal {
	return []Signal{{Clk, In, 1}, {Rst, In, 1}}
}

// InputSignals returns the signals of the input frame channel.
//
func (p Params) InputSignals() []Signal {
	return channelSignals(InputPrefix, false)
}

// PortSignals returns the signals of output port n.
//
func (p Params) PortSignals(n int) []Signal {
	return channelSignals(OutputPrefix(n), true)
}

// ControlSignals returns the enable and select inputs.
//
func (p Params) ControlSignals() []Signal {
	return []Signal{{Enable, In, 1}, {Select, In, p.VectorWidth()}}
}

// Signals returns every port of the generated module in declaration order.
//
func (p Params) Signals() []Signal {
	s := p.ClockSignals()
	s = append(s, p.InputSignals()...)
	for _, n := range p.Ports {
		s = append(s, p.PortSignals(n)...)
	}
	return append(s, p.ControlSignals()...)
}
