// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package gpio

import (
	"bytes"
	"errors"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// mem8 is the mapping backing mem.
var mem8 []uint8

// Open and memory map GPIO memory range from /dev/gpiomem .
func Open() (err error) {
	if len(mem) != 0 {
		return ErrAlreadyOpen
	}
	file, err := os.OpenFile(
		"/dev/gpiomem",
		os.O_RDWR|os.O_SYNC,
		0)
	if err != nil {
		return
	}
	defer file.Close()

	memlock.Lock()
	defer memlock.Unlock()

	mem8, err = unix.Mmap(
		int(file.Fd()),
		0,
		memLength,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED)
	if err != nil {
		return
	}
	mem = unsafe.Slice((*uint32)(unsafe.Pointer(&mem8[0])), len(mem8)/4)
	chipset = detectChipset()
	return nil
}

// Close unmaps GPIO memory.
func Close() error {
	memlock.Lock()
	defer memlock.Unlock()
	mem = make([]uint32, 0)
	if mem8 == nil {
		return nil
	}
	err := unix.Munmap(mem8)
	mem8 = nil
	return err
}

// Chip returns the GPIO controller detected by Open.
func Chip() Chipset {
	return chipset
}

func detectChipset() Chipset {
	compat, err := os.ReadFile("/proc/device-tree/compatible")
	if err != nil {
		return BCM2835
	}
	if bytes.Contains(compat, []byte("bcm2711")) {
		return BCM2711
	}
	return BCM2835
}

var (
	// ErrAlreadyOpen indicates the mem is already open.
	ErrAlreadyOpen = errors.New("already open")
)
