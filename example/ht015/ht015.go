// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"fmt"

	"github.com/warthog618/config"
	"github.com/warthog618/config/blob"
	"github.com/warthog618/config/blob/decoder/json"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
	"github.com/warthog618/config/pflag"
	"github.com/warthog618/onewire"
	"github.com/warthog618/onewire/gpio"
	"github.com/warthog618/onewire/ht015"
)

// This example reads the ROM code and temperature from an HT015 or DS18B20
// connected to the RPI by a single data line with a 4.7k pull-up to 3.3V.
// The default pin is defined in loadConfig, but can be altered via
// configuration (env, flag or config file).
// The pin is driven low so do not run this example on a board where the pin
// serves other purposes.
func main() {
	cfg := loadConfig()
	err := gpio.Open()
	if err != nil {
		panic(err)
	}
	defer gpio.Close()
	pin := gpio.NewOpenDrain(cfg.MustGet("pin").Int())
	defer pin.High()
	timing := onewire.DefaultTiming
	timing.CheckPresence = true
	bus := onewire.New(pin, onewire.SystemClock{}, timing)
	opts := ht015.DefaultOptions
	opts.ConversionDelay = cfg.MustGet("tconvert").Duration()
	d, err := ht015.New(bus, &opts)
	if err != nil {
		panic(err)
	}
	sn, err := d.SerialNumber()
	if err != nil {
		panic(err)
	}
	t, err := d.Temperature()
	if err != nil {
		panic(err)
	}
	fmt.Printf("rom=%s, temp=%s\n", ht015.ROMCode(sn), t)
}

func loadConfig() *config.Config {
	defaultConfig := map[string]interface{}{
		"pin":      gpio.GPIO4,
		"tconvert": "750ms",
	}
	def := dict.New(dict.WithMap(defaultConfig))
	cfg := config.New(
		pflag.New(pflag.WithFlags(
			[]pflag.Flag{{Short: 'c', Name: "config-file"}})),
		env.New(env.WithEnvPrefix("HT015_")),
		config.WithDefault(def))
	cfg.Append(
		blob.NewConfigFile(cfg, "config.file", "ht015.json", json.NewDecoder()))
	cfg = cfg.GetConfig("", config.WithMust)
	return cfg
}
