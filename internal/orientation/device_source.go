// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"fmt"
	"time"

	"github.com/relabs-tech/hmd_tracker/internal/ahrs"
	"github.com/relabs-tech/hmd_tracker/internal/device"
)

type deviceSource struct {
	session *device.Session
	timeout time.Duration
}

// NewDeviceSource wraps an open headset session as an orientation.Source.
// Next blocks until one sample has been fused or the session errors. The
// source takes over the session's event callback.
func NewDeviceSource(session *device.Session, timeout time.Duration) Source {
	return &deviceSource{session: session, timeout: timeout}
}

func (d *deviceSource) Next() (Pose, error) {
	updated := false
	d.session.SetCallback(func(_ uint64, event device.EventKind, _ *ahrs.AHRS) {
		if event == device.EventUpdate {
			updated = true
		}
	})

	for !updated {
		if err := d.session.Read(d.timeout); err != nil {
			return Pose{}, fmt.Errorf("headset read: %w", err)
		}
	}
	return FromQuaternion(d.session.Filter().Quaternion()), nil
}
