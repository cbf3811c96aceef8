//go:build linux

package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	serial "github.com/luhtfiimanal/go-serialline"
)

// lineFlags are the command line overrides of a YAML line config.
type lineFlags struct {
	configPath string
	device     string
	baudRate   int
	parity     bool
	stopBits   int
	dataBits   int
	drain      bool
}

func (f *lineFlags) register(fs *pflag.FlagSet) {
	def := serial.DefaultConfig("")
	fs.StringVarP(&f.configPath, "config", "c", "", "YAML file with the line configuration")
	fs.StringVarP(&f.device, "device", "d", "/dev/ttyUSB0", "serial device")
	fs.IntVarP(&f.baudRate, "baud", "b", def.BaudRate, "baud rate")
	fs.BoolVar(&f.parity, "parity", def.Parity, "enable even parity")
	fs.IntVar(&f.stopBits, "stop-bits", def.StopBits, "stop bits (1 or 2)")
	fs.IntVar(&f.dataBits, "data-bits", def.DataBits, "data bits (5 to 8)")
	fs.BoolVar(&f.drain, "drain", false, "wait for pending output before applying the configuration")
}

// config builds the line configuration: defaults, then the YAML file,
// then every flag given explicitly.
func (f *lineFlags) config(fs *pflag.FlagSet) (serial.Config, error) {
	cfg := serial.DefaultConfig(f.device)

	if f.configPath != "" {
		var err error
		cfg, err = loadConfig(f.configPath, cfg)
		if err != nil {
			return cfg, err
		}
	}

	if fs.Changed("device") || cfg.Device == "" {
		cfg.Device = f.device
	}
	if fs.Changed("baud") {
		cfg.BaudRate = f.baudRate
	}
	if fs.Changed("parity") {
		cfg.Parity = f.parity
	}
	if fs.Changed("stop-bits") {
		cfg.StopBits = f.stopBits
	}
	if fs.Changed("data-bits") {
		cfg.DataBits = f.dataBits
	}
	if fs.Changed("drain") {
		cfg.Drain = f.drain
	}
	return cfg, nil
}

func loadConfig(path string, base serial.Config) (serial.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read config: %w", err)
	}
	cfg := base
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return base, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
