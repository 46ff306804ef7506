// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

package onewiretest

import (
	"github.com/warthog618/onewire/gpio"
)

// Command codes understood by the Sensor.
const (
	cmdSkipROM         = 0xcc
	cmdReadROM         = 0x33
	cmdConvertT        = 0x44
	cmdReadScratchpad  = 0xbe
	scratchpadReserved = 0xff
)

// Transaction records a reset or command seen by a Sensor.
type Transaction struct {
	Reset   bool
	Command byte
}

// Sensor simulates a single temperature sensor on the bus.
type Sensor struct {
	// ROM is the 64 bit ROM code returned by read ROM.
	ROM uint64
	// Raw is the temperature register returned in the first two bytes of the
	// scratchpad.
	Raw uint16
	// BusyPolls is the number of read slots during a conversion that return
	// busy (low) before the conversion completes.
	BusyPolls int
	// Absent suppresses the presence pulse.
	Absent bool

	// Log records resets and commands in the order they are seen.
	Log []Transaction
	// Polls counts the read slots seen during conversions.
	Polls int

	state     sensorState
	rx        byte
	rxBits    uint
	tx        []gpio.Level
	remaining int
}

type sensorState int

const (
	stateIdle sensorState = iota
	stateROMCommand
	stateFunctionCommand
	stateTransmit
	stateConverting
)

// Reset implements Device.
func (s *Sensor) Reset() bool {
	s.Log = append(s.Log, Transaction{Reset: true})
	s.state = stateROMCommand
	s.rx, s.rxBits = 0, 0
	s.tx = nil
	return !s.Absent
}

// Slot implements Device.
func (s *Sensor) Slot(l gpio.Level) gpio.Level {
	switch s.state {
	case stateROMCommand, stateFunctionCommand:
		s.receive(l)
		return gpio.High
	case stateTransmit:
		if len(s.tx) == 0 {
			return gpio.High
		}
		b := s.tx[0]
		s.tx = s.tx[1:]
		return b
	case stateConverting:
		s.Polls++
		if s.remaining > 0 {
			s.remaining--
			return gpio.Low
		}
		return gpio.High
	}
	return gpio.High
}

func (s *Sensor) receive(l gpio.Level) {
	if l {
		s.rx |= 1 << s.rxBits
	}
	s.rxBits++
	if s.rxBits < 8 {
		return
	}
	cmd := s.rx
	s.rx, s.rxBits = 0, 0
	s.Log = append(s.Log, Transaction{Command: cmd})
	switch {
	case s.state == stateROMCommand && cmd == cmdSkipROM:
		s.state = stateFunctionCommand
	case s.state == stateROMCommand && cmd == cmdReadROM:
		s.transmit(s.ROM, 64)
	case s.state == stateFunctionCommand && cmd == cmdConvertT:
		s.state = stateConverting
		s.remaining = s.BusyPolls
	case s.state == stateFunctionCommand && cmd == cmdReadScratchpad:
		s.transmit(uint64(s.Raw)|scratchpadReserved<<16, 24)
	default:
		// unknown commands leave the device waiting for the next reset
		s.state = stateIdle
	}
}

func (s *Sensor) transmit(v uint64, n uint) {
	s.state = stateTransmit
	s.tx = make([]gpio.Level, n)
	for i := uint(0); i < n; i++ {
		s.tx[i] = v>>i&1 == 1
	}
}

// Commands returns the commands seen, without the resets.
func (s *Sensor) Commands() []byte {
	var cc []byte
	for _, t := range s.Log {
		if !t.Reset {
			cc = append(cc, t.Command)
		}
	}
	return cc
}
