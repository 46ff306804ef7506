// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

package ht015

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// Sign is the polarity of a Temperature.
type Sign byte

// Signs
const (
	Plus  Sign = '+'
	Minus Sign = '-'
)

// Temperature is a reading in tenths of a degree Celsius.
// The magnitude and sign are held separately, so 247 Plus is 24.7°C.
type Temperature struct {
	Tenths uint16
	Sign   Sign
}

// DecodeTemperature converts the raw temperature register, which has 4
// fractional bits (1/16°C), into a Temperature.
//
// Any of the top four bits set marks the reading as negative, and the
// magnitude is then taken from the one's complement of the register, as the
// device firmware this driver was written against expects. Note that for a
// two's complement register this reads 1/16°C closer to zero.
// The magnitude is truncated to whole tenths.
func DecodeTemperature(raw uint16) Temperature {
	s := Plus
	if raw&0xf000 != 0 {
		s = Minus
		raw = ^raw
	}
	// raw*10/16 in integer maths truncates exactly as raw/16.0*10.0 would.
	return Temperature{Tenths: uint16(uint32(raw) * 10 / 16), Sign: s}
}

// Celsius returns the temperature in degrees Celsius.
func (t Temperature) Celsius() float64 {
	c := float64(t.Tenths) / 10
	if t.Sign == Minus {
		return -c
	}
	return c
}

// Physic returns the temperature as a periph physic.Temperature.
func (t Temperature) Physic() physic.Temperature {
	v := physic.Temperature(t.Tenths) * 100 * physic.MilliKelvin
	if t.Sign == Minus {
		v = -v
	}
	return v + physic.ZeroCelsius
}

func (t Temperature) String() string {
	return fmt.Sprintf("%c%d.%d", t.Sign, t.Tenths/10, t.Tenths%10)
}
