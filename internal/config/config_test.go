package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/db47h/ethdemux/internal/config"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

func flags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.IntP("ports", "p", 4, "")
	fs.StringP("name", "n", "", "")
	fs.Int64("seed", 1, "")
	fs.Float64("stall", 0.25, "")
	if err := fs.Parse(args); err != nil {
		t.Fatal(err)
	}
	return fs
}

var bindings = map[string]string{
	"ports":          "ports",
	"name":           "name",
	"simulate.seed":  "seed",
	"simulate.stall": "stall",
}

func TestLoad_defaults(t *testing.T) {
	cfg, err := config.Load(config.Options{Flags: flags(t), Bindings: bindings})
	if err != nil {
		t.Fatal(err)
	}
	if *cfg != config.Default() {
		t.Fatalf("got %+v, expected %+v", *cfg, config.Default())
	}
	if cfg.OutputPath("eth_demux_64_4") != "eth_demux_64_4.v" {
		t.Error("bad default output path")
	}
}

func TestLoad_sources(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "ethdemux.toml")
	data := "ports = 6\nname = \"from_file\"\n\n[simulate]\nseed = 9\nframes = 10\nmax_beats = 3\n"
	if err := os.WriteFile(file, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ETHDEMUX_SIMULATE_FRAMES", "12")
	t.Setenv("ETHDEMUX_OUTPUT", "out.v")

	cfg, err := config.Load(config.Options{File: file, Flags: flags(t, "-p", "7"), Bindings: bindings})
	if err != nil {
		t.Fatal(err)
	}
	switch {
	case cfg.Ports != 7:
		t.Errorf("flag did not override file: ports = %d", cfg.Ports)
	case cfg.Name != "from_file":
		t.Errorf("name = %q", cfg.Name)
	case cfg.Simulate.Seed != 9 || cfg.Simulate.MaxBeats != 3:
		t.Errorf("file values not loaded: %+v", cfg.Simulate)
	case cfg.Simulate.Frames != 12:
		t.Errorf("env did not override file: frames = %d", cfg.Simulate.Frames)
	case cfg.OutputPath("x") != "out.v":
		t.Errorf("output = %q", cfg.Output)
	case cfg.Simulate.Stall != 0.25:
		t.Errorf("default not applied: stall = %v", cfg.Simulate.Stall)
	}
}

func TestLoad_env(t *testing.T) {
	t.Setenv("ETHDEMUX_PORTS", "16")
	t.Setenv("ETHDEMUX_SIMULATE_SCRAMBLE", "true")
	cfg, err := config.Load(config.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ports != 16 || !cfg.Simulate.Scramble {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestLoad_errors(t *testing.T) {
	if _, err := config.Load(config.Options{File: filepath.Join(t.TempDir(), "missing.toml")}); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(bad, []byte("ports = [[["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(config.Options{File: bad}); err == nil {
		t.Error("expected error for malformed file")
	}

	td := []struct {
		name string
		args []string
		env  [2]string
	}{
		{"ports", []string{"--ports", "0"}, [2]string{}},
		{"stall", []string{"--stall", "1"}, [2]string{}},
		{"gap", nil, [2]string{"ETHDEMUX_SIMULATE_GAP", "-0.5"}},
		{"beats", nil, [2]string{"ETHDEMUX_SIMULATE_MAX_BEATS", "0"}},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			if d.env[0] != "" {
				t.Setenv(d.env[0], d.env[1])
			}
			_, err := config.Load(config.Options{Flags: flags(t, d.args...), Bindings: bindings})
			if !errors.Is(err, config.ErrInvalid) {
				t.Fatalf("got %v, expected ErrInvalid", err)
			}
		})
	}

	t.Run("fraction", func(t *testing.T) {
		t.Setenv("ETHDEMUX_PORTS", "2.5")
		if _, err := config.Load(config.Options{}); err == nil {
			t.Fatal("fractional port count accepted")
		}
	})

	files := []struct {
		name, data string
	}{
		{"fraction.toml", "ports = 2.5\n"},
		{"fraction.yaml", "ports: 2.5\n"},
		{"fraction.json", `{"ports": 2.5}`},
		{"beats.toml", "[simulate]\nmax_beats = 3.25\n"},
	}
	for _, f := range files {
		t.Run(f.name, func(t *testing.T) {
			name := filepath.Join(t.TempDir(), f.name)
			if err := os.WriteFile(name, []byte(f.data), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := config.Load(config.Options{File: name})
			if err == nil || !strings.Contains(err.Error(), "not an integer") {
				t.Fatalf("got %v, expected a non integer error", err)
			}
		})
	}
}

func TestLoad_integralFloat(t *testing.T) {
	name := filepath.Join(t.TempDir(), "ports.json")
	if err := os.WriteFile(name, []byte(`{"ports": 6, "simulate": {"stall": 0.5}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(config.Options{File: name})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ports != 6 || cfg.Simulate.Stall != 0.5 {
		t.Fatalf("got ports %d, stall %v", cfg.Ports, cfg.Simulate.Stall)
	}
}

func TestLoad_unknownFlag(t *testing.T) {
	_, err := config.Load(config.Options{Flags: flags(t), Bindings: map[string]string{"ports": "nope"}})
	if err == nil {
		t.Fatal("expected error")
	}
}
