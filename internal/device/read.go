package device

import (
	"fmt"
	"time"

	"github.com/relabs-tech/hmd_tracker/internal/imu"
	"github.com/relabs-tech/hmd_tracker/internal/protocol"
)

// Read pulls at most one streaming report within timeout and runs it
// through the pipeline: decode, calibrate, drift-compensate, feed the
// orientation filter, fire the callback. No report within the timeout is
// a success without an event.
func (s *Session) Read(timeout time.Duration) error {
	if s == nil {
		return ErrNoSession
	}
	if s.handle == nil {
		return ErrNoHandle
	}

	buf := make([]byte, protocol.ReportSize)
	n, err := s.handle.Read(buf, timeout)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnplugged, err)
	}
	if n == 0 {
		return nil
	}
	if n != protocol.ReportSize {
		return fmt.Errorf("%w: %d bytes", ErrUnexpectedSize, n)
	}

	timestamp := protocol.Timestamp(buf)

	switch protocol.KindOf(buf) {
	case protocol.ReportInit:
		s.fire(timestamp, EventInit)
		return nil
	case protocol.ReportSample:
	default:
		return fmt.Errorf("%w: % 02x", ErrWrongSignature, buf[:2])
	}

	delta := timestamp - s.lastTimestamp
	dt := float64(delta) / 1e9
	s.lastTimestamp = timestamp
	s.lastDelta = dt

	s.temperature = protocol.Temperature(protocol.RawTemperature(buf))

	gyroscope, accelerometer, magnetometer := protocol.DecodeSensors(buf)
	gyroscope, accelerometer, magnetometer = s.profile.Apply(gyroscope, accelerometer, magnetometer)

	if s.offset != nil {
		gyroscope = s.offset.Update(gyroscope)
	}

	s.sample = imu.Sample{
		Timestamp:     timestamp,
		Temperature:   s.temperature,
		Gyroscope:     gyroscope,
		Accelerometer: accelerometer,
		Magnetometer:  magnetometer,
	}

	if s.filter != nil {
		// Fusing the magnetometer made the orientation estimate worse on
		// this hardware, so both branches take the no-magnetometer path.
		if !magnetometer.IsFinite() {
			s.filter.UpdateNoMagnetometer(gyroscope, accelerometer, dt)
		} else {
			s.filter.UpdateNoMagnetometer(gyroscope, accelerometer, dt)
		}

		if !s.filter.Quaternion().IsFinite() {
			return ErrInvalidValue
		}
	}

	s.fire(timestamp, EventUpdate)
	return nil
}

func (s *Session) fire(timestamp uint64, event EventKind) {
	if s.callback == nil {
		return
	}
	s.callback(timestamp, event, s.filter)
}
