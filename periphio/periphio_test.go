// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

package periphio_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/onewire"
	owgpio "github.com/warthog618/onewire/gpio"
	"github.com/warthog618/onewire/periphio"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

var _ onewire.Pin = &periphio.Pin{}
var _ onewire.Configurer = &periphio.Pin{}

func TestPin(t *testing.T) {
	gp := &gpiotest.Pin{N: "GPIO4", Num: 4, L: gpio.High}
	p := periphio.New(gp)
	require.Nil(t, p.ConfigureOpenDrain())
	assert.Equal(t, gpio.PullUp, gp.P)

	p.Low()
	assert.Equal(t, gpio.Low, gp.L)
	assert.Equal(t, owgpio.Low, p.Read())

	gp.P = gpio.PullNoChange
	p.High()
	assert.Equal(t, gpio.PullUp, gp.P)

	// a released line stays undriven
	gp.L = gpio.High
	p.Output()
	p.Input()
	assert.Equal(t, owgpio.High, p.Read())
	assert.Nil(t, p.Err())
}

type failingPin struct {
	gpiotest.Pin
	count int
}

var errOut = errors.New("out failed")

func (f *failingPin) Out(l gpio.Level) error {
	f.count++
	return errOut
}

func TestPinErr(t *testing.T) {
	fp := &failingPin{}
	p := periphio.New(fp)
	p.Low()
	p.Low()
	assert.Equal(t, 2, fp.count)
	assert.Equal(t, errOut, p.Err())
}
