// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

// ht015 reads an HT015/DS18B20 temperature sensor bit banged on a GPIO pin.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	prefixed "github.com/BertoldVdb/logrus-prefixed-formatter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/warthog618/config"
	"github.com/warthog618/config/blob"
	"github.com/warthog618/config/blob/decoder/json"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
	"github.com/warthog618/onewire"
	"github.com/warthog618/onewire/gpio"
	"github.com/warthog618/onewire/ht015"
	"github.com/warthog618/onewire/periphio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

var version = "undefined"

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("config-file", "c", "", "read configuration from the json file")
	pf.StringP("pin", "p", "", "the pin the sensor is connected to (default J8p7)")
	pf.StringP("backend", "b", "", "the GPIO backend, mem or periph (default mem)")
	pf.Int("polls", 0, "the maximum conversion polls, 0 for unbounded (default 10)")
	pf.Bool("presence", false, "fail if the sensor does not answer the reset")
	pf.StringP("loglevel", "l", "", "the log level (default info)")
}

var rootCmd = &cobra.Command{
	Use:   "ht015",
	Short: "ht015 is a utility to read an HT015/DS18B20 temperature sensor",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	SilenceUsage: true,
	Version:      version,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ht015: %s\n", err)
		os.Exit(1)
	}
}

// loadConfig layers the explicitly set flags over the environment, the config
// file and the defaults.
func loadConfig(cmd *cobra.Command) *config.Config {
	defaultConfig := map[string]interface{}{
		"pin":      "J8p7",
		"backend":  "mem",
		"polls":    ht015.DefaultOptions.MaxPolls,
		"presence": false,
		"loglevel": "info",
		"tconvert": ht015.DefaultOptions.ConversionDelay.String(),
		"treset":   onewire.DefaultTiming.ResetLow.String(),
	}
	flags := map[string]interface{}{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		flags[strings.Replace(f.Name, "-", ".", -1)] = f.Value.String()
	})
	def := dict.New(dict.WithMap(defaultConfig))
	cfg := config.New(
		dict.New(dict.WithMap(flags)),
		env.New(env.WithEnvPrefix("HT015_")),
		config.WithDefault(def))
	cfg.Append(
		blob.NewConfigFile(cfg, "config.file", "ht015.json", json.NewDecoder()))
	cfg = cfg.GetConfig("", config.WithMust)
	return cfg
}

func newLogger(cfg *config.Config) (*logrus.Entry, error) {
	level, err := logrus.ParseLevel(cfg.MustGet("loglevel").String())
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)
	formatter := new(prefixed.TextFormatter)
	formatter.TimestampFormat = "2006-01-02 15:04:05"
	formatter.FullTimestamp = true
	logger.SetFormatter(formatter)
	return logrus.NewEntry(logger).WithField("prefix", "ht015"), nil
}

// session holds everything a command needs to talk to the sensor.
type session struct {
	cfg    *config.Config
	log    *logrus.Entry
	bus    *onewire.Bus
	pinErr func() error
	close  func()
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg := loadConfig(cmd)
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	timing := onewire.DefaultTiming
	timing.ResetLow = cfg.MustGet("treset").Duration()
	timing.CheckPresence = cfg.MustGet("presence").Bool()
	s := &session{cfg: cfg, log: log, pinErr: func() error { return nil }}
	pinName := cfg.MustGet("pin").String()
	backend := cfg.MustGet("backend").String()
	var pin onewire.Pin
	switch backend {
	case "mem":
		o, err := parseOffset(pinName)
		if err != nil {
			return nil, err
		}
		if err = gpio.Open(); err != nil {
			return nil, err
		}
		od := gpio.NewOpenDrain(o)
		pin = od
		s.close = func() {
			od.High()
			gpio.Close()
		}
	case "periph":
		if _, err := host.Init(); err != nil {
			return nil, err
		}
		gp := gpioreg.ByName(pinName)
		if gp == nil {
			return nil, fmt.Errorf("unknown pin '%s'", pinName)
		}
		pp := periphio.New(gp)
		pin = pp
		s.pinErr = pp.Err
		s.close = func() {
			pp.High()
			gp.Halt()
		}
	default:
		return nil, fmt.Errorf("unknown backend '%s'", backend)
	}
	s.bus = onewire.New(pin, onewire.SystemClock{}, timing)
	log.WithFields(logrus.Fields{
		"backend":  backend,
		"pin":      pinName,
		"presence": timing.CheckPresence,
	}).Debug("opened bus")
	return s, nil
}

func (s *session) device() (*ht015.Device, error) {
	opts := ht015.DefaultOptions
	opts.MaxPolls = s.cfg.MustGet("polls").Int()
	opts.ConversionDelay = s.cfg.MustGet("tconvert").Duration()
	opts.Logger = s.log
	return ht015.New(s.bus, &opts)
}

// check wraps a transaction error with any error latched by the pin, which
// would explain it.
func (s *session) check(err error) error {
	if perr := s.pinErr(); perr != nil {
		return fmt.Errorf("pin: %w", perr)
	}
	return err
}

var pinNames = map[string]int{
	"J8P3":  gpio.J8p3,
	"J8P03": gpio.J8p3,
	"J8P5":  gpio.J8p5,
	"J8P05": gpio.J8p5,
	"J8P7":  gpio.J8p7,
	"J8P07": gpio.J8p7,
	"J8P8":  gpio.J8p8,
	"J8P08": gpio.J8p8,
	"J8P10": gpio.J8p10,
	"J8P11": gpio.J8p11,
	"J8P12": gpio.J8p12,
	"J8P13": gpio.J8p13,
	"J8P15": gpio.J8p15,
	"J8P16": gpio.J8p16,
	"J8P18": gpio.J8p18,
	"J8P19": gpio.J8p19,
	"J8P21": gpio.J8p21,
	"J8P22": gpio.J8p22,
	"J8P23": gpio.J8p23,
	"J8P24": gpio.J8p24,
	"J8P26": gpio.J8p26,
	"J8P27": gpio.J8p27,
	"J8P28": gpio.J8p28,
	"J8P29": gpio.J8p29,
	"J8P31": gpio.J8p31,
	"J8P32": gpio.J8p32,
	"J8P33": gpio.J8p33,
	"J8P35": gpio.J8p35,
	"J8P36": gpio.J8p36,
	"J8P37": gpio.J8p37,
	"J8P38": gpio.J8p38,
	"J8P40": gpio.J8p40,
}

func parseOffset(arg string) (int, error) {
	if o, ok := pinNames[strings.ToUpper(arg)]; ok {
		return o, nil
	}
	o, err := strconv.ParseUint(strings.TrimPrefix(strings.ToUpper(arg), "GPIO"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("can't parse pin '%s'", arg)
	}
	if o >= gpio.MaxGPIOPin {
		return 0, fmt.Errorf("unknown pin '%d'", o)
	}
	return int(o), nil
}
