package device

import (
	"errors"
	"math"
	"testing"

	"github.com/relabs-tech/hmd_tracker/internal/geom"
	"github.com/relabs-tech/hmd_tracker/internal/protocol"
)

func TestCalibrateZeroIterations(t *testing.T) {
	mock := &mockTransport{}
	s := newTestSession(mock, nil)

	if err := s.Calibrate(0, true, true, true); err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}
	if s.profile.GyroscopeOffset != (geom.Vector3{}) {
		t.Errorf("gyroscope offset = %+v, want zero", s.profile.GyroscopeOffset)
	}
	if s.profile.SoftIronMatrix != geom.Identity() {
		t.Errorf("soft iron changed by zero-iteration calibrate")
	}
}

func TestCalibrateGyroscopeBias(t *testing.T) {
	mock := &mockTransport{}
	s := newTestSession(mock, nil)

	// Two still samples with a steady 2 deg/s reading on the raw x axis.
	bias := geom.Vector3{X: 2}
	mock.push(sampleFrame(1, bias, geom.Vector3{X: 1}))
	mock.push(sampleFrame(2, bias, geom.Vector3{X: 1}))

	if err := s.Calibrate(2, true, false, false); err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}

	// Raw x maps to body -x; the mean lands in the offset in rad/s.
	want := -geom.Radians(2)
	if math.Abs(s.profile.GyroscopeOffset.X-want) > 1e-12 {
		t.Errorf("gyroscope offset x = %v, want %v", s.profile.GyroscopeOffset.X, want)
	}
	if s.profile.AccelerometerOffset != (geom.Vector3{}) {
		t.Errorf("accelerometer offset = %+v, want zero", s.profile.AccelerometerOffset)
	}
}

func TestCalibrateSkipsNonSampleFrames(t *testing.T) {
	mock := &mockTransport{}
	s := newTestSession(mock, nil)

	init := make([]byte, protocol.ReportSize)
	init[0], init[1] = 0xAA, 0x53

	mock.push(sampleFrame(1, geom.Vector3{X: 2}, geom.Vector3{}))
	mock.push(init)
	mock.push(sampleFrame(2, geom.Vector3{X: 2}, geom.Vector3{}))

	if err := s.Calibrate(2, true, false, false); err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}
	want := -geom.Radians(2)
	if math.Abs(s.profile.GyroscopeOffset.X-want) > 1e-12 {
		t.Errorf("gyroscope offset x = %v, want %v", s.profile.GyroscopeOffset.X, want)
	}
}

func TestCalibrateStillAccelerometer(t *testing.T) {
	mock := &mockTransport{}
	s := newTestSession(mock, nil)

	// A constant gravity reading must not produce an accelerometer
	// offset; only sample-to-sample drift does.
	for i := 0; i < 4; i++ {
		mock.push(sampleFrame(uint64(i), geom.Vector3{}, geom.Vector3{X: 1}))
	}
	if err := s.Calibrate(4, false, true, false); err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}
	if s.profile.AccelerometerOffset != (geom.Vector3{}) {
		t.Errorf("accelerometer offset = %+v, want zero", s.profile.AccelerometerOffset)
	}
}

func TestCalibrateTransportFailure(t *testing.T) {
	mock := &mockTransport{failReads: true}
	s := newTestSession(mock, nil)

	if err := s.Calibrate(1, true, true, true); !errors.Is(err, ErrUnplugged) {
		t.Errorf("Calibrate = %v, want ErrUnplugged", err)
	}
}

func TestCalibrateShortReport(t *testing.T) {
	mock := &mockTransport{}
	mock.push(make([]byte, 16))
	s := newTestSession(mock, nil)

	if err := s.Calibrate(1, true, true, true); !errors.Is(err, ErrUnexpectedSize) {
		t.Errorf("Calibrate = %v, want ErrUnexpectedSize", err)
	}
}
