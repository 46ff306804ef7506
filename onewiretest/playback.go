// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

package onewiretest

import (
	"github.com/warthog618/onewire/gpio"
)

// Playback is a Device that records the slots written by the master and
// plays back a queue of bits on the slots it opens.
type Playback struct {
	// Tx is the queue of bits to play back, consumed one per short slot.
	// The line floats high once it is empty.
	Tx []gpio.Level
	// Rx records the bit of every slot opened by the master.
	Rx []gpio.Level
	// Resets counts the reset pulses seen.
	Resets int
	// Absent suppresses the presence pulse.
	Absent bool
}

// Reset implements Device.
func (p *Playback) Reset() bool {
	p.Resets++
	return !p.Absent
}

// Slot implements Device.
func (p *Playback) Slot(l gpio.Level) gpio.Level {
	p.Rx = append(p.Rx, l)
	if !l || len(p.Tx) == 0 {
		return gpio.High
	}
	b := p.Tx[0]
	p.Tx = p.Tx[1:]
	return b
}

// Queue appends the n low bits of v to Tx, LSB first.
func (p *Playback) Queue(v uint64, n int) {
	for i := 0; i < n; i++ {
		p.Tx = append(p.Tx, v>>uint(i)&1 == 1)
	}
}

// Bytes returns the recorded slots packed into bytes, LSB first.
// Trailing bits that do not fill a byte are dropped.
func (p *Playback) Bytes() []byte {
	buf := make([]byte, len(p.Rx)/8)
	for i := range buf {
		for j := 0; j < 8; j++ {
			if p.Rx[i*8+j] {
				buf[i] |= 1 << uint(j)
			}
		}
	}
	return buf
}
