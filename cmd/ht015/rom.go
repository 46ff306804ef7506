// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warthog618/onewire/ht015"
)

func init() {
	rootCmd.AddCommand(romCmd)
}

var romCmd = &cobra.Command{
	Use:   "rom",
	Short: "Read the 64 bit ROM code (serial number)",
	Args:  cobra.NoArgs,
	RunE:  rom,
}

func rom(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()
	dev, err := s.device()
	if err != nil {
		return s.check(err)
	}
	sn, err := dev.SerialNumber()
	if err = s.check(err); err != nil {
		return err
	}
	r := ht015.ROMCode(sn)
	if !r.Valid() {
		s.log.WithField("crc", fmt.Sprintf("0x%02x", r.CRC())).Warn("ROM code CRC mismatch")
	}
	fmt.Println(formatROM(sn))
	return nil
}

func formatROM(sn uint64) string {
	return fmt.Sprintf("0x%016x %s", sn, ht015.ROMCode(sn))
}
