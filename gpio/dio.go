// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

// Package gpio provides the Raspberry Pi GPIO line a single wire bus is bit
// banged on.
//
// Pins are driven through the memory mapped BCM2835/BCM2711 registers, which
// is the only path on the Pi fast enough for microsecond timed slots.
//
// Example of use:
//
//	gpio.Open()
//	defer gpio.Close()
//
//	pin := gpio.NewOpenDrain(gpio.GPIO4)
//	bus := onewire.New(pin, onewire.SystemClock{}, onewire.DefaultTiming)
//
// The library uses the raw BCM2835 pin numbers, not the ports as they are mapped
// on the J8 output pins for the Raspberry Pi.
// A mapping from J8 to BCM is provided for those wanting to use the J8 numbering.
package gpio

import (
	"sync"
	"time"
)

// Chipset identifies the GPIO controller.
type Chipset int

const (
	// BCM2835 covers the BCM2835, BCM2836 and BCM2837 controllers.
	BCM2835 Chipset = iota
	// BCM2711 is the Raspberry Pi 4 controller.
	BCM2711
)

// Registers and a semaphore for write locking.
var (
	// The memlock covers read/modify/write access to the mem block.
	// Individual reads and writes can skip the lock on the assumption that
	// concurrent register writes are atomic. e.g. Read, Write and Mode.
	memlock sync.Mutex
	mem     []uint32
	chipset Chipset
)

// Pin represents a single GPIO pin.
type Pin struct {
	// Immutable fields
	pin         int
	fsel        int
	levelReg    int
	clearReg    int
	setReg      int
	pullReg2711 int
	bank        int
	mask        uint32
	// Mutable fields
	shadow Level
}

// Level represents the high (true) or low (false) level of a Pin.
type Level bool

// Mode defines the IO mode of a Pin.
type Mode int

// Pull defines the pull up/down state of a Pin.
type Pull int

const (
	memLength = 4096

	modeMask uint32 = 7 // pin mode is 3 bits wide
	pullMask uint32 = 3 // pull mode is 2 bits wide
	// BCM2835 pullReg is the same for all pins.
	pullReg2835 = 37
)

// Pin Mode, a pin can be set in Input or Output mode.
// The alternate functions are never selected for a bus line.
const (
	Input Mode = iota
	Output
)

// Level of pin, High / Low
const (
	Low  Level = false
	High Level = true
)

// Pull Up / Down / Off
const (
	// Values match bcm pull field.
	PullNone Pull = iota
	PullDown
	PullUp
)

// Convenience mapping from J8 pinouts to BCM pinouts.
const (
	J8p27 = iota
	J8p28
	J8p3
	J8p5
	J8p7
	J8p29
	J8p31
	J8p26
	J8p24
	J8p21
	J8p19
	J8p23
	J8p32
	J8p33
	J8p8
	J8p10
	J8p36
	J8p11
	J8p12
	J8p35
	J8p38
	J8p40
	J8p15
	J8p16
	J8p18
	J8p22
	J8p37
	J8p13
	MaxGPIOPin
)

// GPIO aliases to J8 pins
const (
	GPIO2  = J8p3
	GPIO3  = J8p5
	GPIO4  = J8p7 // the kernel w1-gpio default, so the usual sensor wiring
	GPIO5  = J8p29
	GPIO6  = J8p31
	GPIO7  = J8p26
	GPIO8  = J8p24
	GPIO9  = J8p21
	GPIO10 = J8p19
	GPIO11 = J8p23
	GPIO12 = J8p32
	GPIO13 = J8p33
	GPIO14 = J8p8
	GPIO15 = J8p10
	GPIO16 = J8p36
	GPIO17 = J8p11
	GPIO18 = J8p12
	GPIO19 = J8p35
	GPIO20 = J8p38
	GPIO21 = J8p40
	GPIO22 = J8p15
	GPIO23 = J8p16
	GPIO24 = J8p18
	GPIO25 = J8p22
	GPIO26 = J8p37
	GPIO27 = J8p13
)

// NewPin creates a new pin object.
// The pin number provided is the BCM GPIO number.
// Returns nil if the pin number is out of range.
func NewPin(pin int) *Pin {
	if len(mem) == 0 {
		panic("GPIO not initialised.")
	}
	if pin < 0 || pin >= MaxGPIOPin {
		return nil
	}
	// All the J8 pins are on the first bank, but the maths costs nothing.
	bank := pin / 32
	levelReg := 13 + bank
	mask := uint32(1 << uint(pin&0x1f))
	shadow := Low
	if mem[levelReg]&mask != 0 {
		shadow = High
	}
	return &Pin{
		pin:         pin,
		fsel:        pin / 10,
		bank:        bank,
		mask:        mask,
		levelReg:    levelReg,
		clearReg:    10 + bank,
		setReg:      7 + bank,
		pullReg2711: 57 + pin/16,
		shadow:      shadow,
	}
}

// Input sets pin as Input.
func (pin *Pin) Input() {
	pin.SetMode(Input)
}

// Output sets pin as Output.
func (pin *Pin) Output() {
	pin.SetMode(Output)
}

// High sets pin High.
func (pin *Pin) High() {
	pin.Write(High)
}

// Low sets pin Low.
func (pin *Pin) Low() {
	pin.Write(Low)
}

// Mode returns the mode of the pin in the Function Select register.
func (pin *Pin) Mode() Mode {
	modeShift := uint(pin.pin%10) * 3
	return Mode(mem[pin.fsel] >> modeShift & modeMask)
}

// Shadow returns the value of the last write to an output pin or the last read on an input pin.
func (pin *Pin) Shadow() Level {
	return pin.shadow
}

// Pin returns the pin number that this Pin represents.
func (pin *Pin) Pin() int {
	return pin.pin
}

// SetMode sets the pin Mode.
func (pin *Pin) SetMode(mode Mode) {
	// shift for pin mode field within fsel register.
	modeShift := uint(pin.pin%10) * 3

	memlock.Lock()
	defer memlock.Unlock()

	mem[pin.fsel] = mem[pin.fsel]&^(modeMask<<modeShift) | uint32(mode)<<modeShift
}

// Read pin state (high/low)
func (pin *Pin) Read() (level Level) {
	if (mem[pin.levelReg] & pin.mask) != 0 {
		level = High
	}
	pin.shadow = level
	return
}

// Write sets the pin state (high/low).
func (pin *Pin) Write(level Level) {
	if level == Low {
		mem[pin.clearReg] = pin.mask
	} else {
		mem[pin.setReg] = pin.mask
	}
	pin.shadow = level
}

// SetPull sets the pull up/down mode for a Pin.
// Unlike the mode, the pull value cannot be read back from hardware and
// so must be remembered by the caller.
func (pin *Pin) SetPull(pull Pull) {
	switch chipset {
	case BCM2711:
		pin.setPull2711(pull)
	default:
		pin.setPull2835(pull)
	}
}

func (pin *Pin) setPull2835(pull Pull) {
	clkReg := pin.bank + 38
	memlock.Lock()
	defer memlock.Unlock()

	mem[pullReg2835] = mem[pullReg2835]&^pullMask | uint32(pull)
	// Wait for value to clock in, this is ugly, sorry :(
	// This wait corresponds to at least 150 clock cycles.
	time.Sleep(time.Microsecond)
	mem[clkReg] = pin.mask
	// Wait for value to clock in
	time.Sleep(time.Microsecond)
	mem[pullReg2835] = mem[pullReg2835] &^ pullMask
	mem[clkReg] = 0
}

func (pin *Pin) setPull2711(pull Pull) {
	// 2711 reverses up/down sense
	switch pull {
	case PullUp:
		pull = PullDown
	case PullDown:
		pull = PullUp
	}
	shift := uint(pin.pin&0x0f) << 1
	memlock.Lock()
	defer memlock.Unlock()
	mem[pin.pullReg2711] = mem[pin.pullReg2711]&^(pullMask<<shift) | uint32(pull)<<shift
}

// PullUp sets the pull state of the pin to PullUp.
func (pin *Pin) PullUp() {
	pin.SetPull(PullUp)
}

// PullNone disables pullup/down on pin, leaving it floating.
func (pin *Pin) PullNone() {
	pin.SetPull(PullNone)
}

// ConfigureOpenDrain prepares a push-pull pin for use as a bus line.
//
// The BCM controllers have no open drain output, so this only enables the
// internal pull-up as a fallback for a missing external resistor.
// Wrap the pin with NewOpenDrain to avoid driving the line high.
func (pin *Pin) ConfigureOpenDrain() error {
	pin.PullUp()
	return nil
}
