// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/relabs-tech/hmd_tracker/internal/config"
	"github.com/relabs-tech/hmd_tracker/internal/device"
	"github.com/relabs-tech/hmd_tracker/internal/orientation"
)

// RunTracker streams the headset to the console: fused pose, linear
// acceleration and die temperature at the configured log interval.
func RunTracker() error {
	cfg := config.Get()

	// The pose source installs its own event callback, so none is needed
	// here.
	session, err := device.Open(nil)
	if err != nil {
		return err
	}
	defer session.Close()

	log.Printf("headset open: product 0x%04x, static id 0x%08x", session.ProductID(), session.StaticID())

	if cfg.CalibrationPath != "" {
		if _, err := os.Stat(cfg.CalibrationPath); err == nil {
			if err := session.LoadCalibration(cfg.CalibrationPath); err != nil {
				log.Printf("WARNING: calibration load failed, using factory profile: %v", err)
			} else {
				log.Printf("loaded calibration from %s", cfg.CalibrationPath)
			}
		}
	}

	src := orientation.NewDeviceSource(session, time.Duration(cfg.ReadTimeoutMS)*time.Millisecond)
	logEvery := time.Duration(cfg.LogIntervalMS) * time.Millisecond

	var poses uint64
	var lastLog time.Time

	for {
		pose, err := src.Next()
		if err != nil {
			if errors.Is(err, device.ErrUnplugged) {
				return err
			}
			log.Printf("headset read error: %v", err)
			continue
		}
		poses++

		if now := time.Now(); now.Sub(lastLog) >= logEvery {
			lastLog = now
			lin := session.Filter().LinearAcceleration()
			log.Printf("pose R=%.2f P=%.2f Y=%.2f | lin %.3f %.3f %.3f g | %.1f°C | %d samples",
				pose.Roll, pose.Pitch, pose.Yaw,
				lin.X, lin.Y, lin.Z,
				session.Temperature(), poses,
			)
		}
	}
}
