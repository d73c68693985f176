package calibration

import (
	"math"
	"testing"

	"github.com/relabs-tech/hmd_tracker/internal/geom"
)

func TestCaptureZeroIterations(t *testing.T) {
	p := NewProfile()
	c := NewCapture(0)
	c.Merge(p, true, true, true)

	if p.GyroscopeOffset != (geom.Vector3{}) {
		t.Error("gyroscope offset changed by zero-iteration merge")
	}
	if p.SoftIronMatrix != geom.Identity() {
		t.Error("soft iron changed by zero-iteration merge")
	}
}

func TestCaptureGyroscopeMean(t *testing.T) {
	p := NewProfile()
	c := NewCapture(4)

	for i := 0; i < 4; i++ {
		c.Observe(p, geom.Vector3{X: 2}, geom.Vector3{}, geom.Vector3{})
	}
	c.Merge(p, true, false, false)

	// A steady 2 deg/s reading becomes a 2 deg/s offset, stored in rad/s.
	want := geom.Radians(2)
	if math.Abs(p.GyroscopeOffset.X-want) > 1e-12 {
		t.Errorf("gyroscope offset x = %v, want %v", p.GyroscopeOffset.X, want)
	}
	if p.AccelerometerOffset != (geom.Vector3{}) {
		t.Error("accelerometer offset changed without its merge flag")
	}
}

func TestCaptureGyroscopeMergeAccumulates(t *testing.T) {
	p := NewProfile()
	p.GyroscopeOffset = geom.Vector3{X: 0.5}

	c := NewCapture(2)
	c.Observe(p, geom.Vector3{X: 1}, geom.Vector3{}, geom.Vector3{})
	c.Observe(p, geom.Vector3{X: 1}, geom.Vector3{}, geom.Vector3{})
	c.Merge(p, true, false, false)

	want := 0.5 + geom.Radians(1)
	if math.Abs(p.GyroscopeOffset.X-want) > 1e-12 {
		t.Errorf("gyroscope offset x = %v, want %v", p.GyroscopeOffset.X, want)
	}
}

func TestCaptureAccelerometerIgnoresConstantReading(t *testing.T) {
	p := NewProfile()
	c := NewCapture(100)

	// A stationary device reads constant gravity; the delta mean must not
	// fold gravity into the offset.
	for i := 0; i < 100; i++ {
		c.Observe(p, geom.Vector3{}, geom.Vector3{Z: -1}, geom.Vector3{})
	}
	c.Merge(p, false, true, false)

	if p.AccelerometerOffset != (geom.Vector3{}) {
		t.Errorf("accelerometer offset = %+v, want zero", p.AccelerometerOffset)
	}
}

func TestCaptureAccelerometerDeltaMean(t *testing.T) {
	p := NewProfile()
	c := NewCapture(4)

	// Readings drifting 1, 2, 3, 4 on x: deltas are 0, 1, 1, 1.
	for i := 1; i <= 4; i++ {
		c.Observe(p, geom.Vector3{}, geom.Vector3{X: float64(i)}, geom.Vector3{})
	}
	c.Merge(p, false, true, false)

	want := (3.0 / 4.0) * GravityG
	if math.Abs(p.AccelerometerOffset.X-want) > 1e-12 {
		t.Errorf("accelerometer offset x = %v, want %v", p.AccelerometerOffset.X, want)
	}
}

func TestCaptureMagnetometerReplacesIron(t *testing.T) {
	p := NewProfile()
	p.SoftIronMatrix = geom.Diagonal(geom.Vector3{X: 9, Y: 9, Z: 9})
	p.HardIronOffset = geom.Vector3{X: 9, Y: 9, Z: 9}

	c := NewCapture(2)
	c.Observe(p, geom.Vector3{}, geom.Vector3{}, geom.Vector3{X: -2, Y: -2, Z: -2})
	c.Observe(p, geom.Vector3{}, geom.Vector3{}, geom.Vector3{X: 4, Y: 4, Z: 4})
	c.Merge(p, false, false, true)

	if p.HardIronOffset != (geom.Vector3{X: 1, Y: 1, Z: 1}) {
		t.Errorf("hard iron = %+v, want {1 1 1}", p.HardIronOffset)
	}
	wantScale := 1.0 / 3.0
	if math.Abs(p.SoftIronMatrix.XX-wantScale) > 1e-12 {
		t.Errorf("soft iron XX = %v, want %v", p.SoftIronMatrix.XX, wantScale)
	}
}
