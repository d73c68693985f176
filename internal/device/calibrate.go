package device

import (
	"fmt"

	"github.com/relabs-tech/hmd_tracker/internal/calibration"
	"github.com/relabs-tech/hmd_tracker/internal/geom"
	"github.com/relabs-tech/hmd_tracker/internal/protocol"
)

// Calibrate reads iterations raw reports straight off the transport,
// bypassing drift compensation and the filter, and accumulates bias
// estimates with the device held still: gyroscope straight mean,
// accelerometer consecutive-delta mean, plus iron-distortion estimation
// on every magnetometer sample. The accumulated estimates are merged
// into the profile per-sensor according to the flags. Zero iterations is
// a no-op.
func (s *Session) Calibrate(iterations int, gyroscope, accelerometer, magnetometer bool) error {
	if s == nil {
		return ErrNoSession
	}
	if s.handle == nil {
		return ErrNoHandle
	}
	if s.profile == nil {
		return ErrNoProfile
	}

	capture := calibration.NewCapture(iterations)
	buf := make([]byte, protocol.ReportSize)

	remaining := iterations
	for remaining > 0 {
		n, err := s.handle.Read(buf, 0)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnplugged, err)
		}
		if n == 0 {
			// No report ready yet; not a sample.
			continue
		}
		if n != protocol.ReportSize {
			return fmt.Errorf("%w: %d bytes", ErrUnexpectedSize, n)
		}
		if protocol.KindOf(buf) != protocol.ReportSample {
			continue
		}

		g, a, m := protocol.DecodeSensors(buf)
		capture.Observe(s.profile,
			geom.SensorToBody(g),
			geom.SensorToBody(a),
			geom.SensorToBody(m),
		)
		remaining--
	}

	capture.Merge(s.profile, gyroscope, accelerometer, magnetometer)
	return nil
}
