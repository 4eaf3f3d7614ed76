// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package demux

import (
	"github.com/db47h/ethdemux"
	"github.com/db47h/ethdemux/hwsim"
)

// channel holds the wire numbers of a frame channel, keyed by signal suffix.
type channel map[string]int

func mountChannel(s *hwsim.Socket, prefix string) channel {
	ch := make(channel)
	for _, sfx := range ethdemux.ChannelSuffixes() {
		ch[sfx] = s.Pin(ethdemux.ChannelSignal(prefix, sfx))
	}
	return ch
}

// Spec returns a part wrapping a Demux. Its pins are the ports of the
// generated module, except clk: the part is clocked by the circuit. A high
// rst input resets the model on the next clock edge.
//
func Spec(p ethdemux.Params) *hwsim.PartSpec {
	var ins, outs hwsim.Pins
	for _, s := range p.Signals() {
		if s.Name == ethdemux.Clk {
			continue
		}
		pin := hwsim.Pin{Name: s.Name, Width: s.Width}
		if s.Dir == ethdemux.In {
			ins = append(ins, pin)
		} else {
			outs = append(outs, pin)
		}
	}
	return &hwsim.PartSpec{
		Name:    p.Name,
		Inputs:  ins,
		Outputs: outs,
		Mount: func(s *hwsim.Socket) []hwsim.Component {
			d, err := New(p.N)
			if err != nil {
				panic(err)
			}
			return []hwsim.Component{mount(s, p, d)}
		},
	}
}

// NewPart returns a NewPartFn for a demux with the given parameters.
//
func NewPart(p ethdemux.Params) hwsim.NewPartFn {
	return Spec(p).NewPart
}

func mount(s *hwsim.Socket, p ethdemux.Params, d *Demux) hwsim.Component {
	rst := s.Pin(ethdemux.Rst)
	enable, sel := s.Pin(ethdemux.Enable), s.Pin(ethdemux.Select)
	input := mountChannel(s, ethdemux.InputPrefix)
	outputs := make([]channel, len(p.Ports))
	for i, n := range p.Ports {
		outputs[i] = mountChannel(s, ethdemux.OutputPrefix(n))
	}
	in := NewInputs(p.N)

	return func(c *hwsim.Circuit) {
		if c.GetBool(rst) {
			d.Reset()
		} else {
			in.Enable = c.GetBool(enable)
			in.Select = int(c.Get(sel))
			in.HdrValid = c.GetBool(input[ethdemux.HdrValid])
			in.Header = Header{
				Dest: c.Get(input[ethdemux.DestMAC]),
				Src:  c.Get(input[ethdemux.SrcMAC]),
				Type: uint16(c.Get(input[ethdemux.Type])),
			}
			in.PayloadValid = c.GetBool(input[ethdemux.PayloadValid])
			in.Payload = Beat{
				Data: c.Get(input[ethdemux.PayloadData]),
				Keep: uint8(c.Get(input[ethdemux.PayloadKeep])),
				Last: c.GetBool(input[ethdemux.PayloadLast]),
				User: c.GetBool(input[ethdemux.PayloadUser]),
			}
			for i, o := range outputs {
				in.HdrReady[i] = c.GetBool(o[ethdemux.HdrReady])
				in.PayloadReady[i] = c.GetBool(o[ethdemux.PayloadReady])
			}
			d.Step(in)
		}

		c.SetBool(input[ethdemux.HdrReady], d.HdrReady())
		c.SetBool(input[ethdemux.PayloadReady], d.PayloadReady())
		for i, o := range outputs {
			port := d.Port(i)
			c.SetBool(o[ethdemux.HdrValid], port.HdrValid)
			c.Set(o[ethdemux.DestMAC], port.Header.Dest)
			c.Set(o[ethdemux.SrcMAC], port.Header.Src)
			c.Set(o[ethdemux.Type], uint64(port.Header.Type))
			c.SetBool(o[ethdemux.PayloadValid], port.PayloadValid)
			c.Set(o[ethdemux.PayloadData], port.Payload.Data)
			c.Set(o[ethdemux.PayloadKeep], uint64(port.Payload.Keep))
			c.SetBool(o[ethdemux.PayloadLast], port.Payload.Last)
			c.SetBool(o[ethdemux.PayloadUser], port.Payload.User)
		}
	}
}
