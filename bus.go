// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

// Package onewire bit bangs a single wire bus on one GPIO line.
//
// The Bus provides the slot level transport (write bit, read bit, reset) and
// the byte framing above it. Device protocols, such as the ht015 temperature
// sensor, are layered on top.
//
// A single device on the bus is assumed. There is no ROM search and nothing
// the bus reads is checked, so a missing device reads as whatever level the
// line floats to.
package onewire

import (
	"errors"
	"sync"

	"github.com/warthog618/onewire/gpio"
)

// Pin is the GPIO line the bus is driven through.
//
// High must release the line so the pull-up can raise it, as an open drain
// output does. *gpio.Pin, *gpio.OpenDrain and periphio.Pin all satisfy Pin.
type Pin interface {
	High()
	Low()
	Read() gpio.Level
	Input()
	Output()
}

// Configurer is implemented by pins that need one time configuration,
// such as selecting open drain output or enabling a pull-up, before use.
type Configurer interface {
	ConfigureOpenDrain() error
}

// Bus represents a single wire bus bit banged on a GPIO pin.
// It is not safe for concurrent use; holders of the bus must serialize
// complete transactions using Mu, as a slot interrupted mid way corrupts
// the transaction.
type Bus struct {
	Mu     sync.Mutex
	Pin    Pin
	Clock  Clock
	Timing Timing
}

// New creates a Bus.
func New(pin Pin, clock Clock, timing Timing) *Bus {
	return &Bus{Pin: pin, Clock: clock, Timing: timing}
}

// Init performs the one time pin setup and leaves the line released.
func (b *Bus) Init() error {
	if c, ok := b.Pin.(Configurer); ok {
		if err := c.ConfigureOpenDrain(); err != nil {
			return err
		}
	}
	b.Pin.High()
	b.Pin.Output()
	return nil
}

// Reset issues the reset pulse.
//
// By default the presence pulse is not sampled and a device is assumed to be
// present. With Timing.CheckPresence set the line is sampled once within the
// presence window and ErrNoDevice returned if no device pulled it low. The
// reset takes the same time either way.
// Assumes caller already holds the Mu lock.
func (b *Bus) Reset() error {
	t := &b.Timing
	b.Pin.Low()
	b.Clock.Delay(t.ResetLow)
	b.Pin.High()
	if !t.CheckPresence {
		b.Clock.Delay(t.PresenceWindow)
		return nil
	}
	b.Clock.Delay(t.PresenceSample)
	b.Pin.Input()
	present := b.Pin.Read() == gpio.Low
	b.Clock.Delay(t.PresenceWindow - t.PresenceSample)
	b.Pin.Output()
	if !present {
		return ErrNoDevice
	}
	return nil
}

// WriteBit writes a bit in a write slot.
//
// A 1 is a short low pulse and a 0 a long one. The recovery after the pulse
// complements the pulse so every write slot has the same duration.
// Assumes caller already holds the Mu lock.
func (b *Bus) WriteBit(l gpio.Level) {
	t := &b.Timing
	low, recovery := t.Write0Low, t.Write0Recovery
	if l {
		low, recovery = t.Write1Low, t.Write1Recovery
	}
	b.Pin.Low()
	b.Clock.Delay(low)
	b.Pin.High()
	b.Clock.Delay(recovery)
}

// ReadBit reads a bit in a read slot.
//
// The pin is switched to input to sample the line and always switched back
// to output before returning.
// Assumes caller already holds the Mu lock.
func (b *Bus) ReadBit() gpio.Level {
	t := &b.Timing
	b.Pin.Low()
	b.Clock.Delay(t.ReadLow)
	b.Pin.High()
	b.Pin.Input()
	b.Clock.Delay(t.ReadSettle)
	l := b.Pin.Read()
	b.Clock.Delay(t.ReadRecovery)
	b.Pin.Output()
	return l
}

// WriteByte writes a byte, LSB first, relaxing the bus after every bit.
// Assumes caller already holds the Mu lock.
func (b *Bus) WriteByte(v byte) error {
	for i := uint(0); i < 8; i++ {
		b.WriteBit(v>>i&1 == 1)
		b.Clock.Delay(b.Timing.Relaxation)
	}
	return nil
}

// Write writes the bytes in order.
// Assumes caller already holds the Mu lock.
func (b *Bus) Write(buf []byte) {
	for _, v := range buf {
		b.WriteByte(v)
	}
}

// ReadByte reads a byte, LSB first.
// Assumes caller already holds the Mu lock.
func (b *Bus) ReadByte() (byte, error) {
	return byte(b.ReadBits(8)), nil
}

// Read fills buf with bytes read from the bus.
// Assumes caller already holds the Mu lock.
func (b *Bus) Read(buf []byte) {
	for i := range buf {
		buf[i] = byte(b.ReadBits(8))
	}
}

// ReadBits reads n bits, up to 64, with the first bit read placed in bit 0
// of the result.
// Assumes caller already holds the Mu lock.
func (b *Bus) ReadBits(n int) uint64 {
	if n > 64 {
		n = 64
	}
	var d uint64
	for i := 0; i < n; i++ {
		if b.ReadBit() {
			d |= 1 << uint(i)
		}
	}
	return d
}

var (
	// ErrNoDevice indicates no device answered the reset with a presence pulse.
	ErrNoDevice = errors.New("no device present")
)
