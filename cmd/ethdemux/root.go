// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/db47h/ethdemux"
	"github.com/db47h/ethdemux/internal/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// app holds the state shared by all commands.
type app struct {
	stdout  io.Writer
	log     *log.Logger
	cfgFile string
}

// configuration keys shared by all commands, mapped to flag names
var commonBindings = map[string]string{
	"ports":   "ports",
	"name":    "name",
	"verbose": "verbose",
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		stdout: stdout,
		log: log.NewWithOptions(stderr, log.Options{
			Prefix: "ethdemux",
		}),
	}

	root := &cobra.Command{
		Use:   "ethdemux",
		Short: "Ethernet frame demultiplexer generator",
		Long: titleStyle.Render("ethdemux") + ` generates the Verilog description of a 1 to N Ethernet frame
demultiplexer with a 64 bit AXI stream payload. The select input is sampled
when a frame starts and held until its last beat; payload flow control goes
through a two stage skid buffer.

Settings are read from flags, ETHDEMUX_* environment variables and an
optional config file (--config), in that order of precedence.`,
		Example: `  ethdemux -p 8                 write eth_demux_64_8.v
  ethdemux -p 5 -n demux -o -   print module demux to stdout
  ethdemux simulate -p 5        check the model on random traffic
  ethdemux signals -p 2         list the ports of eth_demux_64_2`,
		Args: noArgs,
		RunE: a.generate,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return exitError(ExitConfig, err)
	})

	pf := root.PersistentFlags()
	pf.IntP("ports", "p", ethdemux.DefaultPorts, "number of output ports")
	pf.StringP("name", "n", "", "module name (default eth_demux_64_<ports>)")
	pf.StringVar(&a.cfgFile, "config", "", "config file (toml, yaml or json)")
	pf.BoolP("verbose", "v", false, "enable debug logging")
	root.Flags().StringP("output", "o", "", `output file (default <name>.v, "-" for stdout)`)

	root.AddCommand(newSimulateCmd(a), newSignalsCmd(a))
	return root
}

// noArgs rejects positional arguments with a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return exitError(ExitConfig, errors.Errorf("unexpected argument %q for %q", args[0], cmd.CommandPath()))
	}
	return nil
}

// loadConfig loads the configuration of cmd. Extra bindings map
// configuration keys to cmd's flags.
func (a *app) loadConfig(cmd *cobra.Command, extra map[string]string) (*config.Config, error) {
	b := make(map[string]string, len(commonBindings)+len(extra))
	for k, v := range commonBindings {
		b[k] = v
	}
	for k, v := range extra {
		b[k] = v
	}
	cfg, err := config.Load(config.Options{
		File:     a.cfgFile,
		Flags:    cmd.Flags(),
		Bindings: b,
	})
	if err != nil {
		return nil, exitError(ExitConfig, err)
	}
	if cfg.Verbose {
		a.log.SetLevel(log.DebugLevel)
	}
	a.log.Debug("configuration loaded", "file", a.cfgFile, "ports", cfg.Ports, "name", cfg.Name)
	return cfg, nil
}

func (a *app) resolve(cfg *config.Config) (ethdemux.Params, error) {
	p, err := ethdemux.Resolve(cfg.Ports, cfg.Name)
	if err != nil {
		return p, exitError(ExitConfig, err)
	}
	a.log.Debug("parameters resolved", "ports", p.N, "select_width", p.Width)
	return p, nil
}

func (a *app) generate(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig(cmd, map[string]string{"output": "output"})
	if err != nil {
		return err
	}
	p, err := a.resolve(cfg)
	if err != nil {
		return err
	}
	src, err := ethdemux.Render(p)
	if err != nil {
		return exitError(ExitIO, err)
	}

	out := cfg.OutputPath(p.Name)
	if out == "-" {
		a.log.Infof("Generating %d port Ethernet demux %s...", p.N, p.Name)
		if _, err = a.stdout.Write(src); err != nil {
			return exitError(ExitIO, errors.Wrap(err, "write output"))
		}
		a.log.Info("Done")
		return nil
	}

	a.log.Infof("Opening file '%s'...", out)
	f, err := os.Create(out)
	if err != nil {
		return exitError(ExitIO, err)
	}
	a.log.Infof("Generating %d port Ethernet demux %s...", p.N, p.Name)
	if _, err = f.Write(src); err != nil {
		f.Close()
		os.Remove(out)
		return exitError(ExitIO, errors.Wrapf(err, "write %s", out))
	}
	if err = f.Close(); err != nil {
		os.Remove(out)
		return exitError(ExitIO, errors.Wrapf(err, "close %s", out))
	}
	a.log.Info("Done")
	return nil
}
