// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package ahrs provides the attitude-and-heading filter fed by the
// streaming pipeline. It is a complementary filter: the gyroscope is
// integrated and the accelerometer (and optionally magnetometer) pull
// the estimate back toward the measured gravity and heading, with
// configurable rejection of transient disturbances and a timed recovery
// path when a sensor has been rejected for too long.
package ahrs

import (
	"math"

	"github.com/relabs-tech/hmd_tracker/internal/geom"
)

// Convention selects the earth frame of the orientation output.
type Convention int

const (
	// ConventionNWU is north-west-up.
	ConventionNWU Convention = iota
	// ConventionENU is east-north-up.
	ConventionENU
	// ConventionNED is north-east-down.
	ConventionNED
)

// Settings configure the filter.
type Settings struct {
	Convention Convention
	// Gain of the accelerometer/magnetometer correction.
	Gain float64
	// AccelerationRejection is the error threshold in degrees beyond
	// which an accelerometer sample is ignored. Zero disables rejection.
	AccelerationRejection float64
	// MagneticRejection is the equivalent threshold for the
	// magnetometer.
	MagneticRejection float64
	// RecoveryTriggerPeriod is the number of consecutive rejected
	// samples after which the rejected sensor is forced back in. Zero
	// disables rejection entirely.
	RecoveryTriggerPeriod int
}

const (
	initialGain          = 10.0
	initializationPeriod = 3.0 // seconds of gain ramp after reset
)

// AHRS is the filter state. Not safe for concurrent use.
type AHRS struct {
	settings Settings

	// Preprocessed rejection thresholds, squared feedback magnitudes.
	accelerationRejection float64
	magneticRejection     float64

	quaternion    geom.Quaternion
	accelerometer geom.Vector3

	initialising   bool
	rampedGain     float64
	rampedGainStep float64

	accelerometerIgnored        bool
	accelerationRecoveryTrigger int
	accelerationRecoveryTimeout int

	magnetometerIgnored     bool
	magneticRecoveryTrigger int
	magneticRecoveryTimeout int
}

// New returns a filter with default settings, reset to identity.
func New() *AHRS {
	a := &AHRS{}
	a.SetSettings(Settings{
		Convention:            ConventionNWU,
		Gain:                  0.5,
		AccelerationRejection: 90,
		MagneticRejection:     90,
	})
	a.Reset()
	return a
}

// SetSettings applies new settings without resetting the orientation.
func (a *AHRS) SetSettings(s Settings) {
	a.settings = s

	a.accelerationRejection = rejectionThreshold(s.AccelerationRejection, s.RecoveryTriggerPeriod)
	a.magneticRejection = rejectionThreshold(s.MagneticRejection, s.RecoveryTriggerPeriod)
	a.accelerationRecoveryTimeout = s.RecoveryTriggerPeriod
	a.magneticRecoveryTimeout = s.RecoveryTriggerPeriod

	if !a.initialising {
		a.rampedGain = s.Gain
	}
	a.rampedGainStep = (initialGain - s.Gain) / initializationPeriod
}

func rejectionThreshold(degrees float64, recoveryPeriod int) float64 {
	if degrees == 0 || recoveryPeriod == 0 {
		return math.MaxFloat64
	}
	half := 0.5 * math.Sin(geom.Radians(degrees))
	return half * half
}

// Reset restores the identity orientation and restarts the
// initialisation gain ramp.
func (a *AHRS) Reset() {
	a.quaternion = geom.IdentityQuaternion()
	a.accelerometer = geom.Vector3{}
	a.initialising = true
	a.rampedGain = initialGain

	a.accelerometerIgnored = false
	a.accelerationRecoveryTrigger = 0
	a.accelerationRecoveryTimeout = a.settings.RecoveryTriggerPeriod

	a.magnetometerIgnored = false
	a.magneticRecoveryTrigger = 0
	a.magneticRecoveryTimeout = a.settings.RecoveryTriggerPeriod
}

// Update advances the filter by dt seconds using a gyroscope sample in
// deg/s, an accelerometer sample in g and a magnetometer sample in any
// consistent unit.
func (a *AHRS) Update(gyroscope, accelerometer, magnetometer geom.Vector3, dt float64) {
	a.accelerometer = accelerometer

	if a.initialising {
		a.rampedGain -= a.rampedGainStep * dt
		if a.rampedGain < a.settings.Gain || a.settings.Gain == 0 {
			a.rampedGain = a.settings.Gain
			a.initialising = false
		}
	}

	halfGravity := a.halfGravity()

	var halfAccelFeedback geom.Vector3
	a.accelerometerIgnored = true
	if !accelerometer.IsZero() {
		feedback := feedback(accelerometer.Normalized(), halfGravity)
		if a.initialising || feedback.NormSquared() <= a.accelerationRejection {
			a.accelerometerIgnored = false
			a.accelerationRecoveryTrigger -= 9
		} else {
			a.accelerationRecoveryTrigger++
		}
		if a.accelerationRecoveryTrigger > a.accelerationRecoveryTimeout {
			a.accelerationRecoveryTimeout = 0
			a.accelerometerIgnored = false
		} else {
			a.accelerationRecoveryTimeout = a.settings.RecoveryTriggerPeriod
		}
		a.accelerationRecoveryTrigger = clamp(a.accelerationRecoveryTrigger, 0, a.settings.RecoveryTriggerPeriod)
		if !a.accelerometerIgnored {
			halfAccelFeedback = feedback
		}
	}

	var halfMagFeedback geom.Vector3
	a.magnetometerIgnored = true
	if !magnetometer.IsZero() {
		halfMagnetic := a.halfMagnetic()
		feedback := feedback(halfGravity.Cross(magnetometer).Normalized(), halfMagnetic)
		if a.initialising || feedback.NormSquared() <= a.magneticRejection {
			a.magnetometerIgnored = false
			a.magneticRecoveryTrigger -= 9
		} else {
			a.magneticRecoveryTrigger++
		}
		if a.magneticRecoveryTrigger > a.magneticRecoveryTimeout {
			a.magneticRecoveryTimeout = 0
			a.magnetometerIgnored = false
		} else {
			a.magneticRecoveryTimeout = a.settings.RecoveryTriggerPeriod
		}
		a.magneticRecoveryTrigger = clamp(a.magneticRecoveryTrigger, 0, a.settings.RecoveryTriggerPeriod)
		if !a.magnetometerIgnored {
			halfMagFeedback = feedback
		}
	}

	halfGyroscope := gyroscope.Scale(geom.Radians(0.5))
	adjusted := halfGyroscope.Add(halfAccelFeedback.Add(halfMagFeedback).Scale(a.rampedGain))

	a.quaternion = a.quaternion.Add(a.quaternion.MulVector(adjusted.Scale(dt))).Normalized()
}

// UpdateNoMagnetometer advances the filter without magnetometer input.
// During initialisation the heading is pinned to zero since nothing can
// observe it.
func (a *AHRS) UpdateNoMagnetometer(gyroscope, accelerometer geom.Vector3, dt float64) {
	a.Update(gyroscope, accelerometer, geom.Vector3{}, dt)
	if a.initialising {
		a.SetHeading(0)
	}
}

// SetHeading rotates the orientation about the vertical axis so its yaw
// equals heading (degrees).
func (a *AHRS) SetHeading(heading float64) {
	q := a.quaternion
	yaw := math.Atan2(q.W*q.Z+q.X*q.Y, 0.5-q.Y*q.Y-q.Z*q.Z)
	half := 0.5 * (yaw - geom.Radians(heading))
	rotation := geom.Quaternion{W: math.Cos(half), Z: -math.Sin(half)}
	a.quaternion = rotation.Mul(q)
}

// Quaternion returns the current orientation estimate.
func (a *AHRS) Quaternion() geom.Quaternion {
	return a.quaternion
}

// EarthAcceleration returns the latest accelerometer sample rotated into
// the earth frame with gravity removed, in g.
func (a *AHRS) EarthAcceleration() geom.Vector3 {
	earth := a.quaternion.Rotate(a.accelerometer)
	if a.settings.Convention == ConventionNED {
		earth.Z += 1
	} else {
		earth.Z -= 1
	}
	return earth
}

// LinearAcceleration returns the latest accelerometer sample with the
// gravity direction removed, in the sensor frame, in g.
func (a *AHRS) LinearAcceleration() geom.Vector3 {
	gravity := a.halfGravity().Scale(2)
	return a.accelerometer.Sub(gravity)
}

// halfGravity is the direction of gravity in the sensor frame indicated
// by the current orientation, scaled by 0.5.
func (a *AHRS) halfGravity() geom.Vector3 {
	q := a.quaternion
	if a.settings.Convention == ConventionNED {
		return geom.Vector3{
			X: q.W*q.Y - q.X*q.Z,
			Y: -(q.Y*q.Z + q.W*q.X),
			Z: 0.5 - q.W*q.W - q.Z*q.Z,
		}
	}
	return geom.Vector3{
		X: q.X*q.Z - q.W*q.Y,
		Y: q.Y*q.Z + q.W*q.X,
		Z: q.W*q.W - 0.5 + q.Z*q.Z,
	}
}

// halfMagnetic is the expected direction of the magnetic reference axis
// in the sensor frame, scaled by 0.5.
func (a *AHRS) halfMagnetic() geom.Vector3 {
	q := a.quaternion
	switch a.settings.Convention {
	case ConventionENU:
		return geom.Vector3{
			X: 0.5 - q.W*q.W - q.X*q.X,
			Y: q.W*q.Z - q.X*q.Y,
			Z: -(q.X*q.Z + q.W*q.Y),
		}
	case ConventionNED:
		return geom.Vector3{
			X: -(q.X*q.Y + q.W*q.Z),
			Y: 0.5 - q.W*q.W - q.Y*q.Y,
			Z: q.W*q.X - q.Y*q.Z,
		}
	}
	return geom.Vector3{
		X: q.X*q.Y + q.W*q.Z,
		Y: q.W*q.W - 0.5 + q.Y*q.Y,
		Z: q.Y*q.Z - q.W*q.X,
	}
}

// feedback is the rotational error between a measured and a reference
// direction. Beyond 90 degrees of error the cross product shrinks again,
// so it is normalized to keep the correction monotonic.
func feedback(sensor, reference geom.Vector3) geom.Vector3 {
	if sensor.Dot(reference) < 0 {
		return sensor.Cross(reference).Normalized()
	}
	return sensor.Cross(reference)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
