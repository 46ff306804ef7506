// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

package ht015_test

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/onewire"
	"github.com/warthog618/onewire/ht015"
	"github.com/warthog618/onewire/onewiretest"
)

const rom = 0x740000070e41ac28

func setup(t *testing.T, d onewiretest.Device, opts *ht015.Options) (*ht015.Device, *onewire.Bus, *onewiretest.Clock) {
	c := &onewiretest.Clock{}
	bus := onewire.New(onewiretest.NewPin(c, d), c, onewire.DefaultTiming)
	dev, err := ht015.New(bus, opts)
	require.Nil(t, err)
	require.NotNil(t, dev)
	return dev, bus, c
}

func reset() onewiretest.Transaction {
	return onewiretest.Transaction{Reset: true}
}

func cmd(c ht015.Command) onewiretest.Transaction {
	return onewiretest.Transaction{Command: byte(c)}
}

func TestTemperature(t *testing.T) {
	patterns := []struct {
		name string
		raw  uint16
		temp ht015.Temperature
	}{
		{"positive", 0x0190, ht015.Temperature{Tenths: 250, Sign: ht015.Plus}},
		{"negative", 0xfe6f, ht015.Temperature{Tenths: 250, Sign: ht015.Minus}},
		{"zero", 0x0000, ht015.Temperature{Tenths: 0, Sign: ht015.Plus}},
		{"max", 0x07d0, ht015.Temperature{Tenths: 1250, Sign: ht015.Plus}},
		{"min", 0xfc90, ht015.Temperature{Tenths: 549, Sign: ht015.Minus}},
	}
	for _, p := range patterns {
		t.Run(p.name, func(t *testing.T) {
			s := &onewiretest.Sensor{Raw: p.raw, BusyPolls: 2}
			dev, _, _ := setup(t, s, nil)
			temp, err := dev.Temperature()
			require.Nil(t, err)
			assert.Equal(t, p.temp, temp)
			assert.Equal(t, []onewiretest.Transaction{
				reset(), cmd(ht015.SkipROM), cmd(ht015.ConvertT),
				reset(), cmd(ht015.SkipROM), cmd(ht015.ReadScratchpad),
			}, s.Log)
		})
	}
}

func TestConversionWait(t *testing.T) {
	for _, busy := range []int{0, 1, 3, 9} {
		s := &onewiretest.Sensor{Raw: 0x0190, BusyPolls: busy}
		dev, _, c := setup(t, s, nil)
		_, err := dev.Temperature()
		require.Nil(t, err)
		// the wait ends on the first poll that reads done, not before
		assert.Equal(t, busy+1, s.Polls)
		assert.Equal(t, busy, c.Count(ht015.DefaultOptions.ConversionDelay))
	}
}

func TestConversionTimeout(t *testing.T) {
	s := &onewiretest.Sensor{Raw: 0x0190, BusyPolls: 100}
	opts := ht015.Options{ConversionDelay: time.Second, MaxPolls: 5}
	dev, _, c := setup(t, s, &opts)
	_, err := dev.Temperature()
	assert.Equal(t, ht015.ErrConversionTimeout, err)
	assert.Equal(t, 5, s.Polls)
	assert.Equal(t, 4, c.Count(time.Second))
	assert.Equal(t, []onewiretest.Transaction{
		reset(), cmd(ht015.SkipROM), cmd(ht015.ConvertT),
	}, s.Log)
}

func TestConversionUnbounded(t *testing.T) {
	s := &onewiretest.Sensor{Raw: 0x0190, BusyPolls: 50}
	opts := ht015.Options{ConversionDelay: time.Millisecond}
	dev, _, c := setup(t, s, &opts)
	temp, err := dev.Temperature()
	require.Nil(t, err)
	assert.Equal(t, uint16(250), temp.Tenths)
	assert.Equal(t, 51, s.Polls)
	assert.Equal(t, 50, c.Count(time.Millisecond))
}

func TestSerialNumber(t *testing.T) {
	s := &onewiretest.Sensor{ROM: rom}
	dev, _, _ := setup(t, s, nil)
	sn, err := dev.SerialNumber()
	require.Nil(t, err)
	assert.Equal(t, uint64(rom), sn)
	assert.Equal(t, []onewiretest.Transaction{reset(), cmd(ht015.ReadROM)}, s.Log)
}

func TestResetPrecedesCommands(t *testing.T) {
	s := &onewiretest.Sensor{ROM: rom, Raw: 0x0190, BusyPolls: 1}
	dev, _, _ := setup(t, s, nil)
	for i := 0; i < 3; i++ {
		_, err := dev.SerialNumber()
		require.Nil(t, err)
		_, err = dev.Temperature()
		require.Nil(t, err)
	}
	require.NotEmpty(t, s.Log)
	assert.True(t, s.Log[0].Reset)
	valid := map[byte]bool{
		byte(ht015.SkipROM):        true,
		byte(ht015.ReadROM):        true,
		byte(ht015.ConvertT):       true,
		byte(ht015.ReadScratchpad): true,
	}
	for _, c := range s.Commands() {
		assert.True(t, valid[c], "unexpected command 0x%02x", c)
		assert.NotEqual(t, byte(ht015.SearchROM), c)
	}
	assert.Equal(t, 9, len(s.Log)-len(s.Commands()))
}

func TestNoDevice(t *testing.T) {
	// Without the presence check an empty bus reads as all ones.
	dev, _, _ := setup(t, nil, nil)
	temp, err := dev.Temperature()
	require.Nil(t, err)
	assert.Equal(t, ht015.Temperature{Tenths: 0, Sign: ht015.Minus}, temp)
	sn, err := dev.SerialNumber()
	require.Nil(t, err)
	assert.Equal(t, ^uint64(0), sn)
	assert.False(t, ht015.ROMCode(sn).Valid())
}

func TestNoDevicePresence(t *testing.T) {
	s := &onewiretest.Sensor{Absent: true}
	dev, bus, _ := setup(t, s, nil)
	bus.Timing.CheckPresence = true
	_, err := dev.Temperature()
	assert.Equal(t, onewire.ErrNoDevice, err)
	_, err = dev.SerialNumber()
	assert.Equal(t, onewire.ErrNoDevice, err)
	assert.Empty(t, s.Commands())
}

func TestPresence(t *testing.T) {
	s := &onewiretest.Sensor{ROM: rom, Raw: 0xff9c}
	dev, bus, _ := setup(t, s, nil)
	bus.Timing.CheckPresence = true
	temp, err := dev.Temperature()
	require.Nil(t, err)
	assert.Equal(t, ht015.Temperature{Tenths: 61, Sign: ht015.Minus}, temp)
	sn, err := dev.SerialNumber()
	require.Nil(t, err)
	assert.Equal(t, uint64(rom), sn)
}

func TestConcurrentTransactions(t *testing.T) {
	s := &onewiretest.Sensor{ROM: rom, Raw: 0x0190, BusyPolls: 1}
	dev, _, _ := setup(t, s, nil)
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			temp, err := dev.Temperature()
			if err == nil && temp.Tenths != 250 {
				err = assert.AnError
			}
			errs <- err
		}()
		go func() {
			defer wg.Done()
			sn, err := dev.SerialNumber()
			if err == nil && sn != rom {
				err = assert.AnError
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.Nil(t, err)
	}
}

func TestLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	s := &onewiretest.Sensor{ROM: rom, Raw: 0x0190}
	opts := ht015.DefaultOptions
	opts.Logger = logrus.NewEntry(logger)
	dev, _, _ := setup(t, s, &opts)

	_, err := dev.Temperature()
	require.Nil(t, err)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "temperature +25.0", entry.Message)
	assert.Equal(t, uint16(0x0190), entry.Data["raw"])
	assert.Equal(t, 1, entry.Data["polls"])

	_, err = dev.SerialNumber()
	require.Nil(t, err)
	assert.Equal(t, "serial number 0x740000070e41ac28", hook.LastEntry().Message)
}
