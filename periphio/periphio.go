// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

// Package periphio adapts a periph.io GPIO pin to drive a single wire bus.
//
// This allows the bus to run on any host periph supports, not only the
// Raspberry Pi registers driven by the gpio package.
package periphio

import (
	owgpio "github.com/warthog618/onewire/gpio"
	"periph.io/x/conn/v3/gpio"
)

// Pin emulates an open drain output on a periph gpio.PinIO.
//
// The line is released by switching the pin to input, with the pull-up
// enabled, and is only ever driven low.
//
// The bus pin interface has no error returns, so the first error returned by
// the underlying pin is latched and available from Err.
type Pin struct {
	pin      gpio.PinIO
	released bool
	err      error
}

// New creates a Pin wrapping p.
func New(p gpio.PinIO) *Pin {
	return &Pin{pin: p}
}

// ConfigureOpenDrain releases the line with the pull-up enabled.
func (p *Pin) ConfigureOpenDrain() error {
	p.released = true
	return p.pin.In(gpio.PullUp, gpio.NoEdge)
}

// High releases the line.
func (p *Pin) High() {
	p.released = true
	p.latch(p.pin.In(gpio.PullUp, gpio.NoEdge))
}

// Low drives the line low.
func (p *Pin) Low() {
	p.released = false
	p.latch(p.pin.Out(gpio.Low))
}

// Input stops driving the line so it can be sampled.
func (p *Pin) Input() {
	if p.released {
		return
	}
	p.latch(p.pin.In(gpio.PullUp, gpio.NoEdge))
}

// Output resumes driving the line, which is a no-op while it is released.
func (p *Pin) Output() {
	if p.released {
		return
	}
	p.latch(p.pin.Out(gpio.Low))
}

// Read samples the line.
func (p *Pin) Read() owgpio.Level {
	return owgpio.Level(p.pin.Read())
}

// Err returns the first error returned by the underlying pin, if any.
func (p *Pin) Err() error {
	return p.err
}

func (p *Pin) latch(err error) {
	if p.err == nil {
		p.err = err
	}
}
