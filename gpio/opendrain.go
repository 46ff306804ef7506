// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

package gpio

// OpenDrain emulates an open drain output on a push-pull Pin.
//
// The line is only ever driven low. Writing it high releases it by switching
// the pin to input and leaving the pull-up to raise the line, so a device
// holding the line low never fights an active high output.
type OpenDrain struct {
	*Pin
	released bool
}

// NewOpenDrain creates an OpenDrain on the BCM GPIO pin number.
// The line starts released.
func NewOpenDrain(pin int) *OpenDrain {
	p := NewPin(pin)
	if p == nil {
		return nil
	}
	od := &OpenDrain{Pin: p}
	od.High()
	return od
}

// High releases the line.
func (od *OpenDrain) High() {
	od.released = true
	od.Pin.SetMode(Input)
}

// Low drives the line low.
func (od *OpenDrain) Low() {
	od.released = false
	od.Pin.Write(Low)
	od.Pin.SetMode(Output)
}

// Input stops driving the line so it can be sampled.
func (od *OpenDrain) Input() {
	od.Pin.SetMode(Input)
}

// Output resumes driving the line, which is a no-op while it is released.
func (od *OpenDrain) Output() {
	if od.released {
		return
	}
	od.Pin.SetMode(Output)
}

// Released returns true if the line is not being driven low.
func (od *OpenDrain) Released() bool {
	return od.released
}
