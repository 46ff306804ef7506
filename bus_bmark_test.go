// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

package onewire_test

import (
	"testing"
	"time"

	"github.com/warthog618/onewire"
	"github.com/warthog618/onewire/onewiretest"
)

// nullClock measures the bus overhead without the slot delays.
type nullClock struct{}

func (nullClock) Delay(time.Duration) {}

func BenchmarkWriteByte(b *testing.B) {
	pb := &onewiretest.Playback{}
	p := onewiretest.NewPin(&onewiretest.Clock{}, pb)
	bus := onewire.New(p, nullClock{}, onewire.DefaultTiming)
	bus.Init()
	for i := 0; i < b.N; i++ {
		bus.WriteByte(byte(i))
		p.Events = p.Events[:0]
		pb.Rx = pb.Rx[:0]
	}
}

func BenchmarkReadBits(b *testing.B) {
	p := onewiretest.NewPin(&onewiretest.Clock{}, nil)
	bus := onewire.New(p, nullClock{}, onewire.DefaultTiming)
	bus.Init()
	for i := 0; i < b.N; i++ {
		bus.ReadBits(64)
		p.Events = p.Events[:0]
	}
}

func BenchmarkSystemClockDelay(b *testing.B) {
	c := onewire.SystemClock{}
	for i := 0; i < b.N; i++ {
		c.Delay(5 * time.Microsecond)
	}
}
