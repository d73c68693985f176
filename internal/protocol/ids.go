// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package protocol implements the vendor protocol spoken by the glasses'
// IMU endpoint: the control envelope used for request/response commands
// and the fixed 64-byte streaming report. All values here must match the
// device firmware exactly.
package protocol

// USB identifiers of the supported product family.
const (
	VendorID uint16 = 0x3318

	ProductIDAir       uint16 = 0x0424
	ProductIDAir2      uint16 = 0x0428
	ProductIDAir2Pro   uint16 = 0x0432
	ProductIDAir2Ultra uint16 = 0x0426
)

// Control message ids understood by the IMU interface.
const (
	MsgGetCalDataLength      byte = 0x14
	MsgCalDataGetNextSegment byte = 0x15
	MsgAllocateCalDataBuffer byte = 0x16
	MsgWriteCalDataSegment   byte = 0x17
	MsgFreeCalBuffer         byte = 0x18
	MsgStartIMUData          byte = 0x19
	MsgGetStaticID           byte = 0x1A
)

// StaticIDFallback is reported when the device does not answer the
// static id request.
const StaticIDFallback uint32 = 0x20220101

// IMUInterfaceID returns the HID interface number carrying IMU traffic
// for the given product, or -1 if the product is not recognized.
func IMUInterfaceID(productID uint16) int {
	switch productID {
	case ProductIDAir, ProductIDAir2, ProductIDAir2Pro:
		return 3
	case ProductIDAir2Ultra:
		return 2
	}
	return -1
}
