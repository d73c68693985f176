package ahrs

import (
	"math"

	"github.com/relabs-tech/hmd_tracker/internal/geom"
)

// Gyroscope drift compensation: a slowly adapting bias estimate is
// subtracted from every sample. The bias only adapts while the device
// has been stationary (all axes under a rate threshold) for a timeout,
// so motion never leaks into the estimate.
const (
	offsetCutoffHz      = 0.02
	offsetTimeoutSecs   = 5
	offsetThresholdDegS = 3.0
)

// Offset is the drift compensator state. Not safe for concurrent use.
type Offset struct {
	filterCoefficient float64
	timeout           int
	timer             int
	offset            geom.Vector3
}

// NewOffset creates a compensator for the given sample rate in Hz.
func NewOffset(sampleRate int) *Offset {
	return &Offset{
		filterCoefficient: 2 * math.Pi * offsetCutoffHz / float64(sampleRate),
		timeout:           offsetTimeoutSecs * sampleRate,
	}
}

// Update subtracts the current bias estimate from a gyroscope sample in
// deg/s and returns the corrected sample, adapting the estimate if the
// device has been still long enough.
func (o *Offset) Update(gyroscope geom.Vector3) geom.Vector3 {
	gyroscope = gyroscope.Sub(o.offset)

	if math.Abs(gyroscope.X) > offsetThresholdDegS ||
		math.Abs(gyroscope.Y) > offsetThresholdDegS ||
		math.Abs(gyroscope.Z) > offsetThresholdDegS {
		o.timer = 0
		return gyroscope
	}

	if o.timer < o.timeout {
		o.timer++
		return gyroscope
	}

	o.offset = o.offset.Add(gyroscope.Scale(o.filterCoefficient))
	return gyroscope
}
