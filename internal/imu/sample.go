package imu

import "github.com/relabs-tech/hmd_tracker/internal/geom"

// Sample represents one calibrated IMU sample in the filter's frame.
type Sample struct {
	// Timestamp is the device clock in nanoseconds.
	Timestamp uint64 `json:"timestamp"`
	// Temperature of the sensor die in degC.
	Temperature float64 `json:"temperature"`

	Gyroscope     geom.Vector3 `json:"gyroscope"`     // deg/s
	Accelerometer geom.Vector3 `json:"accelerometer"` // g
	Magnetometer  geom.Vector3 `json:"magnetometer"`  // device units
}

type SampleSource interface {
	Next() (Sample, error)
}
