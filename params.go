// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package ethdemux

import (
	"math/bits"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

// Errors returned by Resolve.
//
var (
	ErrInvalidPorts = errors.New("invalid port count")
	ErrInvalidName  = errors.New("invalid module name")
)

// DefaultPorts is the port count used when none is specified.
//
const DefaultPorts = 4

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// Params holds the resolved generation parameters.
//
type Params struct {
	Name  string // module name
	N     int    // number of output ports
	Width int    // select width, ceil(log2(N))
	Ports []int  // port indices 0..N-1
}

// SelectWidth returns the smallest w such that 1<<w >= n. It returns 0 for
// n <= 1.
//
func SelectWidth(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// DefaultName returns the default module name for a port count.
//
func DefaultName(ports int) string {
	return "eth_demux_64_" + strconv.Itoa(ports)
}

// Resolve validates the port count and module name and computes the
// generation parameters. An empty name is replaced by DefaultName(ports).
//
func Resolve(ports int, name string) (Params, error) {
	if ports <= 0 {
		return Params{}, errors.Wrapf(ErrInvalidPorts, "resolve %d ports", ports)
	}
	if name == "" {
		name = DefaultName(ports)
	}
	if !identRe.MatchString(name) {
		return Params{}, errors.Wrapf(ErrInvalidName, "%q", name)
	}
	p := Params{
		Name:  name,
		N:     ports,
		Width: SelectWidth(ports),
		Ports: make([]int, ports),
	}
	for i := range p.Ports {
		p.Ports[i] = i
	}
	return p, nil
}

// VectorWidth returns the declared width of the select input. A single port
// demux has a zero bits select value but is still declared with a 1 bit wide
// select input.
//
func (p Params) VectorWidth() int {
	if p.Width < 1 {
		return 1
	}
	return p.Width
}

// Sparse returns true if some select values do not map to a port.
//
func (p Params) Sparse() bool {
	return p.N < 1<<uint(p.VectorWidth())
}
