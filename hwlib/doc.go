// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwlib provides frame stream parts for hwsim circuits: a frame
// source driving a demux input channel and a frame sink consuming one output
// channel.
//
// Channel pins are named after the channel signal suffixes (hdr_valid,
// dest_mac, payload_tdata, ...). Use Conns to bind them to the wires of a
// named channel:
//
//	src, newSrc := hwlib.NewSource(hwlib.SourceConfig{Frames: frames, Width: 2})
//	part := newSrc(hwlib.Conns(ethdemux.InputPrefix) + ", enable=enable, select=select")
//
package hwlib
