// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"fmt"
	"log"
	"os"

	"github.com/relabs-tech/hmd_tracker/internal/ahrs"
	"github.com/relabs-tech/hmd_tracker/internal/config"
	"github.com/relabs-tech/hmd_tracker/internal/device"
)

// RunCalibration walks the user through a two-phase capture: headset at
// rest for gyroscope and accelerometer bias, then slow rotation through
// all orientations for the magnetometer iron window. The merged profile
// is written to the configured calibration path.
func RunCalibration() error {
	cfg := config.Get()
	if cfg.CalibrationPath == "" {
		return fmt.Errorf("CALIBRATION_PATH is not configured")
	}

	session, err := device.Open(func(_ uint64, _ device.EventKind, _ *ahrs.AHRS) {})
	if err != nil {
		return fmt.Errorf("open headset: %w", err)
	}
	defer session.Close()

	log.Printf("headset open: product 0x%04x, static id 0x%08x", session.ProductID(), session.StaticID())

	iterations := cfg.CalibrationIterations
	if iterations <= 0 {
		iterations = 2 * device.SampleRate // ~2 seconds of samples
	}

	stdin := bufio.NewReader(os.Stdin)

	fmt.Println("Place the headset on a flat surface and keep it completely still.")
	fmt.Print("Press Enter to capture gyroscope and accelerometer bias... ")
	if _, err := stdin.ReadString('\n'); err != nil {
		return fmt.Errorf("read prompt: %w", err)
	}

	log.Printf("capturing %d samples at rest", iterations)
	if err := session.Calibrate(iterations, true, true, false); err != nil {
		return fmt.Errorf("inertial capture: %w", err)
	}
	log.Println("inertial bias captured")

	fmt.Println("Now pick the headset up and rotate it slowly through all orientations.")
	fmt.Print("Press Enter to start the magnetometer capture... ")
	if _, err := stdin.ReadString('\n'); err != nil {
		return fmt.Errorf("read prompt: %w", err)
	}

	log.Printf("capturing %d samples while rotating", iterations)
	if err := session.Calibrate(iterations, false, false, true); err != nil {
		return fmt.Errorf("magnetometer capture: %w", err)
	}
	log.Println("magnetometer window captured")

	if err := session.SaveCalibration(cfg.CalibrationPath); err != nil {
		return fmt.Errorf("save calibration: %w", err)
	}
	log.Printf("calibration saved to %s", cfg.CalibrationPath)
	return nil
}
