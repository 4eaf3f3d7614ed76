// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwtest

import (
	"testing"

	"github.com/db47h/ethdemux"
	"github.com/db47h/ethdemux/testbench"
	"github.com/pkg/errors"
)

// Trace logs the stack trace of err, if any.
//
func Trace(t testing.TB, err error) {
	t.Helper()
	if err, ok := err.(interface {
		StackTrace() errors.StackTrace
	}); ok {
		for _, f := range err.StackTrace() {
			t.Logf("%+v ", f)
		}
	}
}

// RunBench builds a testbench for a demux with the given number of ports,
// runs it for at most limit cycles and checks the frames received.
//
func RunBench(t testing.TB, ports int, cfg testbench.Config, limit uint64) testbench.Stats {
	t.Helper()
	p, err := ethdemux.Resolve(ports, "")
	if err != nil {
		t.Fatal(err)
	}
	b, err := testbench.New(p, cfg)
	if err != nil {
		Trace(t, err)
		t.Fatal(err)
	}
	defer b.Close()
	if err = b.Run(limit); err != nil {
		Trace(t, err)
		t.Fatal(err)
	}
	if err = b.Check(); err != nil {
		Trace(t, err)
		t.Fatal(err)
	}
	return b.Stats()
}
