// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ahrs

import (
	"math"
	"testing"

	"github.com/relabs-tech/hmd_tracker/internal/geom"
)

const dt = 1.0 / 1000.0

func newTestFilter() *AHRS {
	a := New()
	a.SetSettings(Settings{
		Convention:            ConventionNED,
		Gain:                  0.5,
		AccelerationRejection: 10,
		MagneticRejection:     20,
		RecoveryTriggerPeriod: 5 * 1000,
	})
	return a
}

// restAccelerometer is the accelerometer reading of a level, stationary
// device in the NED sensor frame.
var restAccelerometer = geom.Vector3{Z: -1}

func TestNewDefaults(t *testing.T) {
	a := New()
	if a.Quaternion() != geom.IdentityQuaternion() {
		t.Errorf("initial quaternion = %+v, want identity", a.Quaternion())
	}
	if !a.initialising {
		t.Error("filter should start in the initialisation ramp")
	}
	if a.rampedGain != initialGain {
		t.Errorf("ramped gain = %v, want %v", a.rampedGain, initialGain)
	}
}

func TestStableAtRest(t *testing.T) {
	a := newTestFilter()

	for i := 0; i < 10_000; i++ {
		a.UpdateNoMagnetometer(geom.Vector3{}, restAccelerometer, dt)
	}

	q := a.Quaternion()
	if !q.IsFinite() {
		t.Fatalf("quaternion not finite: %+v", q)
	}
	e := q.ToEuler()
	if math.Abs(e.Roll) > 0.1 || math.Abs(e.Pitch) > 0.1 || math.Abs(e.Yaw) > 0.1 {
		t.Errorf("euler at rest = %+v, want near zero", e)
	}

	lin := a.LinearAcceleration()
	if lin.Norm() > 0.01 {
		t.Errorf("linear acceleration at rest = %+v, want near zero", lin)
	}
	earth := a.EarthAcceleration()
	if earth.Norm() > 0.01 {
		t.Errorf("earth acceleration at rest = %+v, want near zero", earth)
	}
}

func TestInitialisationRampEnds(t *testing.T) {
	a := newTestFilter()

	// Half the ramp: still initialising, gain between start and target.
	for i := 0; i < int(initializationPeriod/2/dt); i++ {
		a.UpdateNoMagnetometer(geom.Vector3{}, restAccelerometer, dt)
	}
	if !a.initialising {
		t.Fatal("ramp ended early")
	}
	if a.rampedGain >= initialGain || a.rampedGain <= a.settings.Gain {
		t.Errorf("mid-ramp gain = %v, want between %v and %v", a.rampedGain, a.settings.Gain, initialGain)
	}

	// Past the full ramp period the gain settles at the configured value.
	for i := 0; i < int(initializationPeriod/dt); i++ {
		a.UpdateNoMagnetometer(geom.Vector3{}, restAccelerometer, dt)
	}
	if a.initialising {
		t.Error("ramp did not end")
	}
	if a.rampedGain != a.settings.Gain {
		t.Errorf("post-ramp gain = %v, want %v", a.rampedGain, a.settings.Gain)
	}
}

func TestHeadingPinnedWhileInitialising(t *testing.T) {
	a := newTestFilter()

	// Spin about the vertical axis during the ramp; without a
	// magnetometer the heading stays pinned at zero.
	for i := 0; i < 1000; i++ {
		a.UpdateNoMagnetometer(geom.Vector3{Z: 90}, restAccelerometer, dt)
	}
	if yaw := a.Quaternion().ToEuler().Yaw; math.Abs(yaw) > 1e-6 {
		t.Errorf("yaw during initialisation = %v, want 0", yaw)
	}
}

func TestGyroscopeIntegration(t *testing.T) {
	a := newTestFilter()

	// Run the ramp out first so the heading is no longer pinned.
	for i := 0; i < int(initializationPeriod/dt)+1000; i++ {
		a.UpdateNoMagnetometer(geom.Vector3{}, restAccelerometer, dt)
	}

	// One second at 90 deg/s about the vertical axis.
	for i := 0; i < 1000; i++ {
		a.UpdateNoMagnetometer(geom.Vector3{Z: 90}, restAccelerometer, dt)
	}
	yaw := a.Quaternion().ToEuler().Yaw
	if math.Abs(math.Abs(yaw)-90) > 2 {
		t.Errorf("yaw after 1s at 90 deg/s = %v, want magnitude near 90", yaw)
	}
}

func TestSetHeading(t *testing.T) {
	a := newTestFilter()
	for i := 0; i < int(initializationPeriod/dt)+1000; i++ {
		a.UpdateNoMagnetometer(geom.Vector3{}, restAccelerometer, dt)
	}
	for i := 0; i < 500; i++ {
		a.UpdateNoMagnetometer(geom.Vector3{Z: 90}, restAccelerometer, dt)
	}

	a.SetHeading(0)
	if yaw := a.Quaternion().ToEuler().Yaw; math.Abs(yaw) > 1e-6 {
		t.Errorf("yaw after SetHeading(0) = %v, want 0", yaw)
	}

	a.SetHeading(45)
	if yaw := a.Quaternion().ToEuler().Yaw; math.Abs(yaw-45) > 1e-6 {
		t.Errorf("yaw after SetHeading(45) = %v, want 45", yaw)
	}
}

func TestAccelerationRejection(t *testing.T) {
	a := newTestFilter()
	for i := 0; i < int(initializationPeriod/dt)+1000; i++ {
		a.UpdateNoMagnetometer(geom.Vector3{}, restAccelerometer, dt)
	}

	// A sideways jolt far outside the 10 degree threshold is rejected.
	a.UpdateNoMagnetometer(geom.Vector3{}, geom.Vector3{X: 1}, dt)
	if !a.accelerometerIgnored {
		t.Error("disturbed accelerometer sample was not rejected")
	}

	// Agreement with gravity is accepted again.
	a.UpdateNoMagnetometer(geom.Vector3{}, restAccelerometer, dt)
	if a.accelerometerIgnored {
		t.Error("clean accelerometer sample was rejected")
	}
}

func TestRejectionRecovery(t *testing.T) {
	a := newTestFilter()
	a.SetSettings(Settings{
		Convention:            ConventionNED,
		Gain:                  0.5,
		AccelerationRejection: 10,
		MagneticRejection:     20,
		RecoveryTriggerPeriod: 100,
	})
	for i := 0; i < int(initializationPeriod/dt)+1000; i++ {
		a.UpdateNoMagnetometer(geom.Vector3{}, restAccelerometer, dt)
	}

	// A sustained disturbance trips the recovery path and the sensor is
	// forced back in rather than being ignored forever.
	recovered := false
	for i := 0; i < 200; i++ {
		a.UpdateNoMagnetometer(geom.Vector3{}, geom.Vector3{X: 1}, dt)
		if !a.accelerometerIgnored {
			recovered = true
			break
		}
	}
	if !recovered {
		t.Error("accelerometer never recovered from sustained rejection")
	}
}

func TestZeroAccelerometerIgnored(t *testing.T) {
	a := newTestFilter()
	a.UpdateNoMagnetometer(geom.Vector3{}, geom.Vector3{}, dt)
	if !a.accelerometerIgnored {
		t.Error("zero accelerometer sample should be ignored")
	}
	if !a.Quaternion().IsFinite() {
		t.Error("quaternion not finite after zero accelerometer sample")
	}
}

func TestResetRestartsRamp(t *testing.T) {
	a := newTestFilter()
	for i := 0; i < int(initializationPeriod/dt)+1000; i++ {
		a.UpdateNoMagnetometer(geom.Vector3{}, restAccelerometer, dt)
	}
	for i := 0; i < 500; i++ {
		a.UpdateNoMagnetometer(geom.Vector3{X: 45}, restAccelerometer, dt)
	}

	a.Reset()
	if a.Quaternion() != geom.IdentityQuaternion() {
		t.Errorf("quaternion after reset = %+v, want identity", a.Quaternion())
	}
	if !a.initialising || a.rampedGain != initialGain {
		t.Error("reset did not restart the initialisation ramp")
	}
}
