// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/db47h/ethdemux"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newSignalsCmd(a *app) *cobra.Command {
	var raw bool
	var width int
	cmd := &cobra.Command{
		Use:   "signals",
		Short: "Print the port list of the generated module",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			p, err := a.resolve(cfg)
			if err != nil {
				return err
			}
			md := signalTable(p)
			if !raw {
				if md, err = renderMarkdown(md, width); err != nil {
					return exitError(ExitIO, err)
				}
			}
			if _, err = fmt.Fprint(a.stdout, md); err != nil {
				return exitError(ExitIO, errors.Wrap(err, "write output"))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown source")
	cmd.Flags().IntVar(&width, "width", 80, "word wrap width")
	return cmd
}

// signalTable returns the markdown description of the module interface.
func signalTable(p ethdemux.Params) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", p.Name)
	fmt.Fprintf(&sb, "%d output ports, %d bit select.\n\n", p.N, p.VectorWidth())
	sb.WriteString("| Signal | Direction | Width |\n|---|---|---|\n")
	for _, s := range p.Signals() {
		fmt.Fprintf(&sb, "| `%s` | %s | %d |\n", s.Name, s.Dir, s.Width)
	}
	return sb.String()
}

func renderMarkdown(md string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", errors.Wrap(err, "markdown renderer")
	}
	out, err := r.Render(md)
	return out, errors.Wrap(err, "render markdown")
}
