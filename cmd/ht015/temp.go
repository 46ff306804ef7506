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
	tempCmd.Flags().BoolVarP(&tempOpts.Short, "short", "s", false, "print the magnitude in tenths and the sign")
	tempCmd.SetHelpTemplate(tempCmd.HelpTemplate() + extendedTempHelp)
	rootCmd.AddCommand(tempCmd)
}

var (
	tempCmd = &cobra.Command{
		Use:     "temp",
		Short:   "Read the temperature",
		Args:    cobra.NoArgs,
		RunE:    temp,
		Example: "  ht015 temp -p J8p7",
	}
	tempOpts = struct {
		Short bool
	}{}
)

var extendedTempHelp = `
The temperature is printed in degrees Celsius with one decimal place.

Note that the conversion takes up to a second, during which the bus is held.
`

func temp(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()
	dev, err := s.device()
	if err != nil {
		return s.check(err)
	}
	t, err := dev.Temperature()
	if err = s.check(err); err != nil {
		return err
	}
	printTemperature(t, tempOpts.Short)
	return nil
}

func printTemperature(t ht015.Temperature, short bool) {
	if short {
		fmt.Printf("%d %c\n", t.Tenths, t.Sign)
		return
	}
	fmt.Println(t)
}
