// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

package ht015

import (
	"encoding/binary"
	"fmt"

	"github.com/sigurn/crc8"
	"periph.io/x/conn/v3/onewire"
)

// ROMCode interprets a serial number returned by Device.SerialNumber.
//
// The code is read LSB first, so the family code is the low byte and the
// CRC the high byte:
//
//	 MSB                                    LSB
//	+-----------+------------------+--------------+
//	| 8-bit crc | 48-bit serial    | 8-bit family |
//	+-----------+------------------+--------------+
type ROMCode uint64

// FamilyDS18B20 is the family code of the DS18B20 and its analogues.
const FamilyDS18B20 = 0x28

var crcTable = crc8.MakeTable(crc8.CRC8_MAXIM)

// Family returns the family code.
func (r ROMCode) Family() byte {
	return byte(r)
}

// Serial returns the 48 bit serial number.
func (r ROMCode) Serial() uint64 {
	return uint64(r) >> 8 & 0xffffffffffff
}

// CRC returns the CRC byte.
func (r ROMCode) CRC() byte {
	return byte(r >> 56)
}

// Valid returns true if the CRC matches the family code and serial number.
// A ROM read from an empty bus, all ones or all zeros, is never valid.
func (r ROMCode) Valid() bool {
	if r == 0 || r == ^ROMCode(0) {
		return false
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(r))
	return crc8.Checksum(buf[:7], crcTable) == r.CRC()
}

// Address returns the code as a periph onewire address, which shares the
// same byte order.
func (r ROMCode) Address() onewire.Address {
	return onewire.Address(r)
}

// String returns the code in the family-serial form used by the Linux w1
// subsystem, e.g. 28-0000070e41ac.
func (r ROMCode) String() string {
	return fmt.Sprintf("%02x-%012x", r.Family(), r.Serial())
}
