// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

// Package onewiretest provides a simulated single wire bus for testing.
//
// Clock advances a simulated time rather than blocking. Pin decodes the
// pulses driven onto it by the bus master, using the simulated time, into
// resets and time slots which it passes to a Device, and returns the level
// the Device holds the line at when the master samples it.
package onewiretest

import (
	"time"

	"github.com/warthog618/onewire/gpio"
)

// Clock is a simulated onewire.Clock.
type Clock struct {
	Now    time.Duration
	Delays []time.Duration
}

// Delay advances the simulated time by d and records the delay.
func (c *Clock) Delay(d time.Duration) {
	c.Now += d
	c.Delays = append(c.Delays, d)
}

// Count returns the number of delays of exactly d.
func (c *Clock) Count(d time.Duration) int {
	n := 0
	for _, v := range c.Delays {
		if v == d {
			n++
		}
	}
	return n
}

// Device is the slave side of the simulated bus.
type Device interface {
	// Reset is called at the end of a reset pulse and returns true if the
	// device answers with a presence pulse.
	Reset() bool
	// Slot is called when the master releases the line at the end of the
	// low pulse opening a time slot. l is the bit written by the master,
	// High for a short pulse (a write 1 or a read), Low for a long one.
	// It returns the level the device holds the line at for the slot.
	Slot(l gpio.Level) gpio.Level
}

// Op identifies an operation the master performed on a Pin.
type Op int

// Pin operations.
const (
	OpHigh Op = iota
	OpLow
	OpRead
	OpInput
	OpOutput
)

// Event records an operation on a Pin.
type Event struct {
	Op    Op
	At    time.Duration
	Level gpio.Level // level sampled by OpRead
}

// Pulse classification thresholds, from the device side of the protocol.
const (
	ResetMin    = 480 * time.Microsecond
	SlotSample  = 15 * time.Microsecond
	SlotHold    = 60 * time.Microsecond
	PresenceMin = 15 * time.Microsecond
	PresenceMax = 255 * time.Microsecond
)

// Pin is a simulated onewire.Pin connected to a Device through a pulled up line.
type Pin struct {
	Clock  *Clock
	Device Device
	Events []Event

	mode      gpio.Mode
	driven    bool
	fellAt    time.Duration
	slotLevel gpio.Level
	slotEnd   time.Duration
	present   bool
	releaseAt time.Duration
}

// NewPin creates a Pin on the clock connected to the device.
// A nil device simulates an empty bus.
func NewPin(c *Clock, d Device) *Pin {
	return &Pin{Clock: c, Device: d, mode: gpio.Input}
}

func (p *Pin) record(op Op, l gpio.Level) {
	p.Events = append(p.Events, Event{Op: op, At: p.Clock.Now, Level: l})
}

// High stops the master driving the line.
func (p *Pin) High() {
	p.record(OpHigh, gpio.High)
	if !p.driven {
		return
	}
	p.driven = false
	p.release()
}

// Low drives the line low, if the pin is an output.
func (p *Pin) Low() {
	p.record(OpLow, gpio.Low)
	if p.mode != gpio.Output || p.driven {
		return
	}
	p.driven = true
	p.fellAt = p.Clock.Now
}

// Input switches the pin to input, releasing the line if it was driven.
func (p *Pin) Input() {
	p.record(OpInput, gpio.Low)
	p.mode = gpio.Input
	if p.driven {
		p.driven = false
		p.release()
	}
}

// Output switches the pin to output.
func (p *Pin) Output() {
	p.record(OpOutput, gpio.Low)
	p.mode = gpio.Output
}

// Mode returns the current direction of the pin.
func (p *Pin) Mode() gpio.Mode {
	return p.mode
}

// Read samples the line.
func (p *Pin) Read() gpio.Level {
	l := p.level()
	p.record(OpRead, l)
	return l
}

func (p *Pin) level() gpio.Level {
	now := p.Clock.Now
	if p.driven {
		return gpio.Low
	}
	if p.present && now >= p.releaseAt+PresenceMin && now < p.releaseAt+PresenceMax {
		return gpio.Low
	}
	if now < p.slotEnd {
		return p.slotLevel
	}
	return gpio.High
}

func (p *Pin) release() {
	now := p.Clock.Now
	p.releaseAt = now
	p.present = false
	p.slotEnd = 0
	if p.Device == nil {
		return
	}
	width := now - p.fellAt
	switch {
	case width >= ResetMin:
		p.present = p.Device.Reset()
	case width >= SlotSample:
		p.Device.Slot(gpio.Low)
	default:
		p.slotLevel = p.Device.Slot(gpio.High)
		p.slotEnd = p.fellAt + SlotHold
	}
}

// Count returns the number of events of the op.
func (p *Pin) Count(op Op) int {
	n := 0
	for _, e := range p.Events {
		if e.Op == op {
			n++
		}
	}
	return n
}
