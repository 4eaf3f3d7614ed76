// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/db47h/ethdemux/internal/config"
	"github.com/db47h/ethdemux/testbench"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// report is the simulation report written by --report.
type report struct {
	Module string          `toml:"module"`
	Seed   int64           `toml:"seed"`
	Passed bool            `toml:"passed"`
	Error  string          `toml:"error,omitempty"`
	Stats  testbench.Stats `toml:"stats"`
}

var simulateBindings = map[string]string{
	"simulate.frames":     "frames",
	"simulate.max_beats":  "max-beats",
	"simulate.seed":       "seed",
	"simulate.stall":      "stall",
	"simulate.gap":        "gap",
	"simulate.scramble":   "scramble",
	"simulate.workers":    "workers",
	"simulate.max_cycles": "max-cycles",
	"simulate.report":     "report",
}

func newSimulateCmd(a *app) *cobra.Command {
	def := config.Default().Simulate
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the cycle accurate demux model on random traffic",
		Long: `Simulate runs the demux model with the same parameters as the generated
module. Random frames are routed to random ports while the output ports apply
random back-pressure. Every frame must arrive, unmodified and in order, on the
port it was routed to.`,
		Args: noArgs,
		RunE: a.simulate,
	}
	f := cmd.Flags()
	f.Int("frames", def.Frames, "number of frames to send")
	f.Int("max-beats", def.MaxBeats, "maximum payload beats per frame")
	f.Int64("seed", def.Seed, "random seed")
	f.Float64("stall", def.Stall, "output back-pressure probability")
	f.Float64("gap", def.Gap, "input idle probability")
	f.Bool("scramble", def.Scramble, "drive random select values between frames")
	f.Int("workers", def.Workers, "simulation goroutines (0 for GOMAXPROCS)")
	f.Uint64("max-cycles", def.MaxCycles, "cycle limit")
	f.String("report", def.Report, "write a TOML report to this file")
	return cmd
}

func (a *app) simulate(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig(cmd, simulateBindings)
	if err != nil {
		return err
	}
	p, err := a.resolve(cfg)
	if err != nil {
		return err
	}
	s := &cfg.Simulate

	a.log.Infof("Simulating %d port Ethernet demux %s with %d frames...", p.N, p.Name, s.Frames)
	b, err := testbench.New(p, testbench.Config{
		Frames:      testbench.Generate(s.Seed, p.N, s.Frames, s.MaxBeats),
		Gap:         s.Gap,
		Stall:       s.Stall,
		Scramble:    s.Scramble,
		Seed:        s.Seed,
		Workers:     s.Workers,
		ResetCycles: 2,
	})
	if err != nil {
		return exitError(ExitConfig, err)
	}
	defer b.Close()

	err = b.RunContext(cmd.Context(), s.MaxCycles)
	if err == nil {
		err = b.Check()
	}
	st := b.Stats()
	a.log.Debug("simulation finished", "cycles", st.Cycles, "beats", st.Beats)
	fmt.Fprintln(a.stdout, summarize(p.Name, st, err))

	if s.Report != "" {
		r := report{Module: p.Name, Seed: s.Seed, Passed: err == nil, Stats: st}
		if err != nil {
			r.Error = err.Error()
		}
		if werr := writeReport(s.Report, &r); werr != nil {
			return exitError(ExitIO, werr)
		}
		a.log.Infof("Report written to '%s'", s.Report)
	}
	switch {
	case interrupted(err):
		return exitError(ExitInterrupted, err)
	case err != nil:
		return exitError(ExitCheck, err)
	}
	a.log.Info("Done")
	return nil
}

// interrupted returns true if err reports a cancelled simulation.
func interrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func writeReport(name string, r *report) error {
	data, err := toml.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "encode report")
	}
	if err = os.WriteFile(name, data, 0o644); err != nil {
		return errors.Wrap(err, "write report")
	}
	return nil
}

func summarize(module string, st testbench.Stats, err error) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(module))
	sb.WriteByte('\n')
	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(label))
		sb.WriteString(value)
		sb.WriteByte('\n')
	}
	row("ports", fmt.Sprint(st.Ports))
	row("frames", fmt.Sprint(st.Frames))
	row("cycles", fmt.Sprint(st.Cycles))
	row("beats", fmt.Sprint(st.Beats))
	row("throughput", fmt.Sprintf("%.3f beats/cycle", st.Throughput))
	row("input stalls", fmt.Sprint(st.InputStalls))
	row("output stalls", fmt.Sprint(st.OutputStalls))
	row("max in flight", fmt.Sprint(st.MaxInFlight))
	for _, ps := range st.PerPort {
		row(fmt.Sprintf("port %d", ps.Port), fmt.Sprintf("%d frames, %d beats, %d stalls", ps.Frames, ps.Beats, ps.Stalls))
	}
	switch {
	case interrupted(err):
		sb.WriteString(failStyle.Render("STOPPED"))
		sb.WriteString(" " + err.Error())
	case err != nil:
		sb.WriteString(failStyle.Render("FAIL"))
		sb.WriteString(" " + err.Error())
	default:
		sb.WriteString(passStyle.Render("PASS"))
	}
	return boxStyle.Render(sb.String())
}
