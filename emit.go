// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package ethdemux

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"text/template"

	"github.com/pkg/errors"
)

//go:embed eth_demux_64.v.tmpl
var moduleText string

var moduleTmpl = template.Must(template.New("eth_demux_64").Funcs(template.FuncMap{
	"decl": decl,
}).Parse(moduleText))

// decl renders a port declaration.
func decl(s Signal, comma bool) string {
	d := fmt.Sprintf("    %-6s wire %-6s %s", s.Dir, s.Range(), s.Name)
	if comma {
		d += ","
	}
	return d
}

// tmplData is the template view of Params.
type tmplData struct {
	Params
	W       int // declared select width
	Msb     int
	Clock   []Signal
	Input   []Signal
	Outputs [][]Signal
	Control []Signal
}

func newTmplData(p Params) *tmplData {
	d := &tmplData{
		Params:  p,
		W:       p.VectorWidth(),
		Msb:     p.VectorWidth() - 1,
		Clock:   p.ClockSignals(),
		Input:   p.InputSignals(),
		Outputs: make([][]Signal, len(p.Ports)),
		Control: p.ControlSignals(),
	}
	for i, n := range p.Ports {
		d.Outputs[i] = p.PortSignals(n)
	}
	return d
}

// Emit writes the Verilog description of the demux to w. The output only
// depends on p.
//
func Emit(w io.Writer, p Params) error {
	if p.N <= 0 || len(p.Ports) != p.N {
		return errors.Wrapf(ErrInvalidPorts, "emit %d ports", p.N)
	}
	if !identRe.MatchString(p.Name) {
		return errors.Wrapf(ErrInvalidName, "%q", p.Name)
	}
	if err := moduleTmpl.Execute(w, newTmplData(p)); err != nil {
		return errors.Wrap(err, "render module "+p.Name)
	}
	return nil
}

// Render returns the Verilog description of the demux.
//
func Render(p Params) ([]byte, error) {
	var b bytes.Buffer
	if err := Emit(&b, p); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
