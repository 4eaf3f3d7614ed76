// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package config loads the ethdemux configuration from defaults, an optional
// config file, ETHDEMUX_* environment variables and command line flags, in
// increasing order of precedence.
//
package config

import (
	"math"
	"reflect"
	"strings"

	"github.com/db47h/ethdemux"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables. Nested keys use '_' as
// separator: ETHDEMUX_SIMULATE_SEED.
//
const EnvPrefix = "ETHDEMUX"

// ErrInvalid is returned for out of range configuration values.
//
var ErrInvalid = errors.New("invalid configuration")

// Simulate holds the settings of the simulate command.
//
type Simulate struct {
	Frames    int     `mapstructure:"frames"`
	MaxBeats  int     `mapstructure:"max_beats"`
	Seed      int64   `mapstructure:"seed"`
	Stall     float64 `mapstructure:"stall"`
	Gap       float64 `mapstructure:"gap"`
	Scramble  bool    `mapstructure:"scramble"`
	Workers   int     `mapstructure:"workers"`
	MaxCycles uint64  `mapstructure:"max_cycles"`
	Report    string  `mapstructure:"report"`
}

// Config is the ethdemux configuration.
//
type Config struct {
	Ports    int      `mapstructure:"ports"`
	Name     string   `mapstructure:"name"`
	Output   string   `mapstructure:"output"`
	Verbose  bool     `mapstructure:"verbose"`
	Simulate Simulate `mapstructure:"simulate"`
}

// Default returns the default configuration.
//
func Default() Config {
	return Config{
		Ports: ethdemux.DefaultPorts,
		Simulate: Simulate{
			Frames:    64,
			MaxBeats:  8,
			Seed:      1,
			Stall:     0.25,
			Gap:       0.1,
			Workers:   1,
			MaxCycles: 1000000,
		},
	}
}

// Options configures Load.
//
type Options struct {
	// Config file path. Empty for none. The format is deduced from the file
	// extension (toml, yaml, json).
	File string
	// Flags to bind. Only flags that were explicitly set override other
	// sources.
	Flags *pflag.FlagSet
	// Bindings maps configuration keys to flag names.
	Bindings map[string]string
}

// Load loads the configuration.
//
func Load(opts Options) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("ports", def.Ports)
	v.SetDefault("name", def.Name)
	v.SetDefault("output", def.Output)
	v.SetDefault("verbose", def.Verbose)
	v.SetDefault("simulate.frames", def.Simulate.Frames)
	v.SetDefault("simulate.max_beats", def.Simulate.MaxBeats)
	v.SetDefault("simulate.seed", def.Simulate.Seed)
	v.SetDefault("simulate.stall", def.Simulate.Stall)
	v.SetDefault("simulate.gap", def.Simulate.Gap)
	v.SetDefault("simulate.scramble", def.Simulate.Scramble)
	v.SetDefault("simulate.workers", def.Simulate.Workers)
	v.SetDefault("simulate.max_cycles", def.Simulate.MaxCycles)
	v.SetDefault("simulate.report", def.Simulate.Report)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", opts.File)
		}
	}

	if opts.Flags != nil {
		for key, name := range opts.Bindings {
			f := opts.Flags.Lookup(name)
			if f == nil {
				return nil, errors.Errorf("no flag %q for key %s", name, key)
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errors.Wrapf(err, "bind flag %s", name)
			}
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		integralFloatHook,
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, errors.Wrap(err, "decode configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// integralFloatHook rejects floating point values with a fractional part
// decoded into integer fields. Config files in JSON only carry float numbers,
// so integral values are let through.
func integralFloatHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	switch from.Kind() {
	case reflect.Float32, reflect.Float64:
	default:
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return data, nil
	}
	f := reflect.ValueOf(data).Float()
	if f != math.Trunc(f) {
		return nil, errors.Wrapf(ErrInvalid, "%v is not an integer", data)
	}
	return data, nil
}

// Validate checks that configuration values are in range.
//
func (c *Config) Validate() error {
	s := &c.Simulate
	switch {
	case c.Ports < 1:
		return errors.Wrapf(ErrInvalid, "ports must be at least 1, got %d", c.Ports)
	case s.Frames < 0:
		return errors.Wrapf(ErrInvalid, "simulate.frames must not be negative, got %d", s.Frames)
	case s.MaxBeats < 1:
		return errors.Wrapf(ErrInvalid, "simulate.max_beats must be at least 1, got %d", s.MaxBeats)
	case s.Stall < 0 || s.Stall >= 1:
		return errors.Wrapf(ErrInvalid, "simulate.stall must be in [0, 1), got %v", s.Stall)
	case s.Gap < 0 || s.Gap >= 1:
		return errors.Wrapf(ErrInvalid, "simulate.gap must be in [0, 1), got %v", s.Gap)
	case s.Workers < 0:
		return errors.Wrapf(ErrInvalid, "simulate.workers must not be negative, got %d", s.Workers)
	}
	return nil
}

// OutputPath returns the output file path: Output if set, or the module name
// with a .v extension.
//
func (c *Config) OutputPath(module string) string {
	if c.Output != "" {
		return c.Output
	}
	return module + ".v"
}
