// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package calibration holds the per-device calibration profile: the
// misalignment/sensitivity/offset triple for each sensor, the
// magnetometer iron-distortion correction refined online, persistence of
// the whole profile as a binary blob, and ingestion of the factory
// calibration document fetched from the device.
package calibration

import (
	"math"

	"github.com/relabs-tech/hmd_tracker/internal/geom"
)

// GravityG is standard gravity in m/s^2, used to convert accelerometer
// offsets between device gravity units and filter units.
const GravityG = 9.806

// Profile is the full calibration state of one device session.
type Profile struct {
	GyroscopeMisalignment geom.Matrix3
	GyroscopeSensitivity  geom.Vector3
	GyroscopeOffset       geom.Vector3

	AccelerometerMisalignment geom.Matrix3
	AccelerometerSensitivity  geom.Vector3
	AccelerometerOffset       geom.Vector3

	MagnetometerMisalignment geom.Matrix3
	MagnetometerSensitivity  geom.Vector3
	MagnetometerOffset       geom.Vector3

	SoftIronMatrix geom.Matrix3
	HardIronOffset geom.Vector3

	// Noises is stored for provenance from the factory document; the
	// filter does not consume it.
	Noises geom.Quaternion

	// Running min/max window of the iron-distortion estimator. Owned by
	// the profile so concurrent sessions cannot contaminate each other.
	ironMin geom.Vector3
	ironMax geom.Vector3
}

// NewProfile allocates a profile in the reset state.
func NewProfile() *Profile {
	p := &Profile{}
	p.Reset()
	return p
}

// Reset restores the identity state: identity misalignment, unit
// sensitivity, zero offset, identity soft-iron, zero hard-iron, and an
// empty iron-estimation window.
func (p *Profile) Reset() {
	p.GyroscopeMisalignment = geom.Identity()
	p.GyroscopeSensitivity = geom.Ones()
	p.GyroscopeOffset = geom.Vector3{}

	p.AccelerometerMisalignment = geom.Identity()
	p.AccelerometerSensitivity = geom.Ones()
	p.AccelerometerOffset = geom.Vector3{}

	p.MagnetometerMisalignment = geom.Identity()
	p.MagnetometerSensitivity = geom.Ones()
	p.MagnetometerOffset = geom.Vector3{}

	p.SoftIronMatrix = geom.Identity()
	p.HardIronOffset = geom.Vector3{}

	p.Noises = geom.Quaternion{}

	inf := math.Inf(1)
	p.ironMin = geom.Vector3{X: inf, Y: inf, Z: inf}
	p.ironMax = geom.Vector3{X: -inf, Y: -inf, Z: -inf}
}

// Apply runs one raw sample through the per-sample transform chain:
// sensor axes to body axes, inertial calibration, iron-distortion
// refresh and magnetic correction, then body axes to the filter's
// convention. The soft/hard-iron fields are updated in place with the
// estimate that includes this sample.
func (p *Profile) Apply(gyroscope, accelerometer, magnetometer geom.Vector3) (g, a, m geom.Vector3) {
	// Offsets are stored in filter units; prescale into the units the
	// raw samples arrive in (deg/s for the gyroscope, g for the
	// accelerometer).
	gyroscopeOffset := p.GyroscopeOffset.Scale(geom.Degrees(1))
	accelerometerOffset := p.AccelerometerOffset.Scale(1 / GravityG)

	g = geom.SensorToBody(gyroscope)
	a = geom.SensorToBody(accelerometer)
	m = geom.SensorToBody(magnetometer)

	g = inertial(g, p.GyroscopeMisalignment, p.GyroscopeSensitivity, gyroscopeOffset)
	a = inertial(a, p.AccelerometerMisalignment, p.AccelerometerSensitivity, accelerometerOffset)
	m = inertial(m, p.MagnetometerMisalignment, p.MagnetometerSensitivity, p.MagnetometerOffset)

	soft, hard := p.ObserveMagnetometer(m)
	p.SoftIronMatrix = soft
	p.HardIronOffset = hard
	m = magnetic(m, soft, hard)

	return geom.BodyToFilter(g), geom.BodyToFilter(a), geom.BodyToFilter(m)
}

// inertial is the standard calibration transform:
// misalignment * (sensitivity .* (raw - offset)).
func inertial(v geom.Vector3, misalignment geom.Matrix3, sensitivity, offset geom.Vector3) geom.Vector3 {
	return misalignment.MulVector(v.Sub(offset).Hadamard(sensitivity))
}

// magnetic applies the iron-distortion correction:
// softIron * raw - hardIron.
func magnetic(v geom.Vector3, softIron geom.Matrix3, hardIron geom.Vector3) geom.Vector3 {
	return softIron.MulVector(v).Sub(hardIron)
}
