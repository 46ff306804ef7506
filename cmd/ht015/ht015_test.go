// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/onewire"
	"github.com/warthog618/onewire/gpio"
	"github.com/warthog618/onewire/onewiretest"
)

func TestParseOffset(t *testing.T) {
	patterns := []struct {
		arg string
		o   int
		err bool
	}{
		{"J8p7", gpio.GPIO4, false},
		{"j8p07", gpio.GPIO4, false},
		{"J8P13", gpio.GPIO27, false},
		{"17", 17, false},
		{"GPIO22", gpio.GPIO22, false},
		{"gpio4", gpio.GPIO4, false},
		{"28", 0, true},
		{"J8p1", 0, true},
		{"nope", 0, true},
	}
	for _, p := range patterns {
		o, err := parseOffset(p.arg)
		if p.err {
			assert.NotNil(t, err, p.arg)
			continue
		}
		require.Nil(t, err, p.arg)
		assert.Equal(t, p.o, o, p.arg)
	}
}

func TestProbe(t *testing.T) {
	for _, absent := range []bool{false, true} {
		c := &onewiretest.Clock{}
		s := &onewiretest.Sensor{Absent: absent}
		bus := onewire.New(onewiretest.NewPin(c, s), c, onewire.DefaultTiming)
		present, err := probe(bus)
		require.Nil(t, err)
		assert.Equal(t, !absent, present)
		assert.Len(t, s.Log, 1)
	}
}

func TestFormatROM(t *testing.T) {
	assert.Equal(t, "0x740000070e41ac28 28-0000070e41ac", formatROM(0x740000070e41ac28))
}

func TestSessionCheck(t *testing.T) {
	errTx := errors.New("tx")
	s := &session{pinErr: func() error { return nil }}
	assert.Nil(t, s.check(nil))
	assert.Equal(t, errTx, s.check(errTx))

	errPin := errors.New("pin failed")
	s.pinErr = func() error { return errPin }
	err := s.check(errTx)
	assert.True(t, errors.Is(err, errPin))
}
