// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warthog618/onewire"
)

func init() {
	rootCmd.AddCommand(detectCmd)
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Check for a presence pulse from the sensor",
	Args:  cobra.NoArgs,
	RunE:  detect,
}

func detect(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()
	present, err := probe(s.bus)
	if err = s.check(err); err != nil {
		return err
	}
	if present {
		fmt.Println("present")
	} else {
		fmt.Println("absent")
	}
	return nil
}

// probe resets the bus with the presence check enabled.
func probe(bus *onewire.Bus) (bool, error) {
	bus.Mu.Lock()
	defer bus.Mu.Unlock()
	if err := bus.Init(); err != nil {
		return false, err
	}
	bus.Timing.CheckPresence = true
	err := bus.Reset()
	if errors.Is(err, onewire.ErrNoDevice) {
		return false, nil
	}
	return err == nil, err
}
