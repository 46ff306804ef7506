// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

package onewire

import (
	"time"
)

// Timing contains the slot timings for the bus.
type Timing struct {
	ResetLow       time.Duration // reset pulse
	PresenceWindow time.Duration // wait after releasing the reset pulse
	Write0Low      time.Duration // low time of a 0 write slot
	Write0Recovery time.Duration // released time of a 0 write slot
	Write1Low      time.Duration // low time of a 1 write slot
	Write1Recovery time.Duration // released time of a 1 write slot
	ReadLow        time.Duration // low pulse that starts a read slot
	ReadSettle     time.Duration // wait between release and sample
	ReadRecovery   time.Duration // remainder of the read slot after the sample
	Relaxation     time.Duration // between the bits of a written byte

	// CheckPresence enables sampling of the presence pulse.
	// PresenceSample is the offset of the sample into the PresenceWindow.
	CheckPresence  bool
	PresenceSample time.Duration
}

// DefaultTiming is the standard speed timing for the sensor.
var DefaultTiming = Timing{
	ResetLow:       500 * time.Microsecond,
	PresenceWindow: 500 * time.Microsecond,
	Write0Low:      60 * time.Microsecond,
	Write0Recovery: 10 * time.Microsecond,
	Write1Low:      10 * time.Microsecond,
	Write1Recovery: 60 * time.Microsecond,
	ReadLow:        5 * time.Microsecond,
	ReadSettle:     2 * time.Microsecond,
	ReadRecovery:   50 * time.Microsecond,
	Relaxation:     5 * time.Microsecond,
	PresenceSample: 70 * time.Microsecond,
}

// WriteSlot returns the duration of a write slot, excluding relaxation.
func (t Timing) WriteSlot() time.Duration {
	return t.Write0Low + t.Write0Recovery
}

// Clock provides the blocking delays that time the slots.
// Delay must block for at least d.
type Clock interface {
	Delay(d time.Duration)
}

// SystemClock delays using the system monotonic clock.
//
// Delays shorter than Threshold busy wait, as the scheduler cannot wake a
// sleeping goroutine with microsecond precision. Longer delays sleep.
type SystemClock struct {
	Threshold time.Duration
}

// Delay blocks for at least d.
func (c SystemClock) Delay(d time.Duration) {
	threshold := c.Threshold
	if threshold == 0 {
		threshold = time.Millisecond
	}
	if d >= threshold {
		time.Sleep(d)
		return
	}
	start := time.Now()
	for time.Since(start) < d {
	}
}
