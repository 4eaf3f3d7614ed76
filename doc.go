// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package ethdemux generates the Verilog description of a single input, N output
Ethernet frame demultiplexer with a 64 bits payload datapath.

Generation is a two step process: Resolve computes the select width and port
list for a given port count, then Emit renders the module text.

	p, err := ethdemux.Resolve(4, "")
	if err != nil {
		// invalid port count or module name
	}
	err = ethdemux.Emit(os.Stdout, p)

The interface of the generated module is described by Params.Signals. The same
table is used by the cycle accurate Go model in package demux, so a circuit
simulated with hwsim and the emitted Verilog share pin names and widths.
*/
package ethdemux
