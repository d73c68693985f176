// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package transport wraps the raw HID access the driver needs: interface
// enumeration by vendor/product id and blocking read/write on one opened
// interface. The device package talks to the Transport interface only,
// which keeps the session testable without hardware.
package transport

import (
	"fmt"
	"time"

	"github.com/sstallion/go-hid"
)

// DeviceInfo describes one enumerated HID interface.
type DeviceInfo struct {
	ProductID       uint16
	InterfaceNumber int
	Path            string
}

// Transport is one opened HID interface.
//
// Read fills p from the interrupt endpoint. timeout <= 0 blocks
// indefinitely. A return of (0, nil) means no report arrived within the
// timeout; an error means the device is gone or the read failed.
type Transport interface {
	Write(p []byte) (int, error)
	Read(p []byte, timeout time.Duration) (int, error)
	Close() error
}

// Enumerate lists HID interfaces matching vendorID. productID 0 matches
// any product.
func Enumerate(vendorID, productID uint16) ([]DeviceInfo, error) {
	if err := hid.Init(); err != nil {
		return nil, fmt.Errorf("hid init: %w", err)
	}

	var found []DeviceInfo
	err := hid.Enumerate(vendorID, productID, func(info *hid.DeviceInfo) error {
		found = append(found, DeviceInfo{
			ProductID:       info.ProductID,
			InterfaceNumber: info.InterfaceNbr,
			Path:            info.Path,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("hid enumerate: %w", err)
	}
	return found, nil
}

// Open opens the interface at path for exclusive use.
func Open(path string) (Transport, error) {
	if err := hid.Init(); err != nil {
		return nil, fmt.Errorf("hid init: %w", err)
	}
	dev, err := hid.OpenPath(path)
	if err != nil {
		return nil, fmt.Errorf("hid open %s: %w", path, err)
	}
	return &hidTransport{dev: dev}, nil
}

// Shutdown releases the HID library. Call after the last transport is
// closed.
func Shutdown() {
	hid.Exit()
}

type hidTransport struct {
	dev *hid.Device
}

func (t *hidTransport) Write(p []byte) (int, error) {
	return t.dev.Write(p)
}

func (t *hidTransport) Read(p []byte, timeout time.Duration) (int, error) {
	if timeout <= 0 {
		return t.dev.Read(p)
	}
	return t.dev.ReadWithTimeout(p, timeout)
}

func (t *hidTransport) Close() error {
	return t.dev.Close()
}
