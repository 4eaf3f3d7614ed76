// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command ethdemux generates the Verilog description of an N port Ethernet
// frame demultiplexer with a 64 bit datapath, and runs the cycle accurate Go
// model of the same design against random traffic.
//
// Usage:
//
//	ethdemux [-p ports] [-n name] [-o output]
//	ethdemux simulate [--frames n] [--seed s] [--stall p] [--report file]
//
// Exit status is 0 on success, 1 on I/O errors, 2 on configuration or usage
// errors and 3 when a simulation check fails. An interrupted simulation exits
// with status 130.
//
package main

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/pkg/errors"
)

// Version is set via -ldflags.
var Version = "dev"

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := fang.Execute(ctx, root,
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
	)
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitIO
}
