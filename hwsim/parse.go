// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Pin is a part pin declaration.
//
type Pin struct {
	Name  string
	Width int
}

// Pins is a list of pin declarations.
//
type Pins []Pin

// Find returns the pin with the given name.
//
func (ps Pins) Find(name string) (Pin, bool) {
	for _, p := range ps {
		if p.Name == name {
			return p, true
		}
	}
	return Pin{}, false
}

// Names returns the pin names.
//
func (ps Pins) Names() []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

// IO parses a pin specification string and panics on error. It is intended
// for pin lists of PartSpecs defined as package variables. See ParseIO.
//
func IO(spec string) Pins {
	ps, err := ParseIO(spec)
	if err != nil {
		panic(err)
	}
	return ps
}

// ParseIO parses a comma separated list of pin declarations. A pin
// declaration is a pin name, optionally followed by its width in bits
// between brackets:
//
//	ParseIO("a, b, data[64]") // a and b are 1 bit wide, data is 64 bits wide
//
func ParseIO(spec string) (Pins, error) {
	var out Pins
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}
	pos := 0
	for _, item := range strings.Split(spec, ",") {
		at := pos + len(item) - len(strings.TrimLeft(item, " \t\n"))
		pos += len(item) + 1
		item = strings.TrimSpace(item)
		name, width := item, 1
		if i := strings.IndexByte(item, '['); i >= 0 {
			if !strings.HasSuffix(item, "]") {
				return nil, parseError(spec, at+len(item), "missing close bracket")
			}
			w, err := strconv.Atoi(item[i+1 : len(item)-1])
			if err != nil || w < 1 || w > 64 {
				return nil, parseError(spec, at+i+1, "invalid pin width")
			}
			name, width = item[:i], w
		}
		if !isIdent(name) {
			return nil, parseError(spec, at, "expected pin name")
		}
		if _, ok := out.Find(name); ok {
			return nil, parseError(spec, at, "duplicate pin name "+name)
		}
		out = append(out, Pin{name, width})
	}
	return out, nil
}

// A Connection connects a part's pin to a wire of the circuit.
//
type Connection struct {
	Pin  string
	Wire string
}

// ParseConnections parses a connection configuration string of the form
// "pin=wire, pin2=wire2".
//
func ParseConnections(c string) ([]Connection, error) {
	var out []Connection
	if strings.TrimSpace(c) == "" {
		return nil, nil
	}
	pos := 0
	for _, item := range strings.Split(c, ",") {
		at := pos + len(item) - len(strings.TrimLeft(item, " \t\n"))
		pos += len(item) + 1
		i := strings.IndexByte(item, '=')
		if i < 0 {
			return nil, parseError(c, at, "expected pin=wire")
		}
		pin, wire := strings.TrimSpace(item[:i]), strings.TrimSpace(item[i+1:])
		if !isIdent(pin) {
			return nil, parseError(c, at, "expected pin name")
		}
		if !isIdent(wire) {
			return nil, parseError(c, at+i+1, "expected wire name")
		}
		out = append(out, Connection{pin, wire})
	}
	return out, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z':
		case i > 0 && '0' <= r && r <= '9':
		default:
			return false
		}
	}
	return true
}

func parseError(in string, pos int, msg string) error {
	return errors.Errorf("in %q at pos %d: %s", in, pos+1, msg)
}
