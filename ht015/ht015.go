// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

// Package ht015 reads a 5306HT015, or a DS18B20 which it is a functional
// analogue of, over a bit banged single wire bus.
//
// The device is assumed to be the only one on the bus, so all commands are
// addressed with skip ROM. Nothing read from the device is checked: the
// scratchpad CRC is not read, and the returned ROM code is not validated
// (see ROMCode.Valid for callers wanting that).
package ht015

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warthog618/onewire"
)

// Command is a command code understood by the device.
type Command byte

// Commands. SearchROM is defined for completeness but never issued.
const (
	SkipROM        Command = 0xcc
	SearchROM      Command = 0x0f
	ReadROM        Command = 0x33
	ConvertT       Command = 0x44
	ReadScratchpad Command = 0xbe
)

// Options contains options to pass to the constructor.
type Options struct {
	// ConversionDelay is the wait between polls of a running conversion.
	ConversionDelay time.Duration
	// MaxPolls bounds the polls of a running conversion.
	// Zero polls until the device reports completion, however long that takes.
	MaxPolls int
	// Logger, if set, receives Debug level traces of each transaction.
	Logger *logrus.Entry
}

// DefaultOptions polls once a second for up to 10 seconds, well beyond the
// 750ms a 12 bit conversion takes.
var DefaultOptions = Options{
	ConversionDelay: time.Second,
	MaxPolls:        10,
}

// Device is a handle to a sensor on a single wire bus.
type Device struct {
	bus  *onewire.Bus
	opts Options
}

// New initialises the bus pin and returns a Device on it.
// A nil opts selects DefaultOptions.
func New(bus *onewire.Bus, opts *Options) (*Device, error) {
	if opts == nil {
		opts = &DefaultOptions
	}
	d := &Device{bus: bus, opts: *opts}
	bus.Mu.Lock()
	defer bus.Mu.Unlock()
	if err := bus.Init(); err != nil {
		return nil, err
	}
	return d, nil
}

// Temperature starts a conversion, waits for it to complete and returns the
// result.
//
// The bus is held for the whole transaction, which typically blocks the
// caller for one ConversionDelay.
func (d *Device) Temperature() (Temperature, error) {
	d.bus.Mu.Lock()
	defer d.bus.Mu.Unlock()
	if err := d.command(SkipROM, ConvertT); err != nil {
		return Temperature{}, err
	}
	polls, err := d.waitConversion()
	if err != nil {
		return Temperature{}, err
	}
	if err := d.command(SkipROM, ReadScratchpad); err != nil {
		return Temperature{}, err
	}
	raw := uint16(d.bus.ReadBits(16))
	t := DecodeTemperature(raw)
	if l := d.opts.Logger; l != nil {
		l.WithFields(logrus.Fields{
			"raw":   raw,
			"polls": polls,
		}).Debugf("temperature %s", t)
	}
	return t, nil
}

// SerialNumber returns the 64 bit ROM code of the device, exactly as read.
func (d *Device) SerialNumber() (uint64, error) {
	d.bus.Mu.Lock()
	defer d.bus.Mu.Unlock()
	if err := d.command(ReadROM); err != nil {
		return 0, err
	}
	sn := d.bus.ReadBits(64)
	if l := d.opts.Logger; l != nil {
		l.Debugf("serial number 0x%016x", sn)
	}
	return sn, nil
}

// command resets the bus then writes the commands.
// Assumes caller already holds the bus lock.
func (d *Device) command(cc ...Command) error {
	if err := d.bus.Reset(); err != nil {
		return err
	}
	for _, c := range cc {
		d.bus.WriteByte(byte(c))
	}
	return nil
}

// waitConversion polls the device until it reads high, signalling the
// conversion is complete, and returns the number of polls taken.
// Assumes caller already holds the bus lock.
func (d *Device) waitConversion() (int, error) {
	for polls := 1; ; polls++ {
		if d.bus.ReadBit() {
			return polls, nil
		}
		if d.opts.MaxPolls > 0 && polls >= d.opts.MaxPolls {
			return polls, ErrConversionTimeout
		}
		d.bus.Clock.Delay(d.opts.ConversionDelay)
	}
}

var (
	// ErrConversionTimeout indicates the device did not complete a
	// conversion within MaxPolls.
	ErrConversionTimeout = errors.New("conversion timeout")
)
