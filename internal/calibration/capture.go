package calibration

import "github.com/relabs-tech/hmd_tracker/internal/geom"

// Capture accumulates bias statistics over a bounded run of raw samples
// taken with the device held still. The gyroscope contributes a straight
// mean; the accelerometer contributes the mean of consecutive-sample
// differences, which averages toward zero for a stationary device
// instead of toward gravity. Every observed magnetometer sample also
// advances the profile's iron-distortion window.
type Capture struct {
	iterations int

	gyroscopeSum  geom.Vector3
	accelDeltaSum geom.Vector3
	prevAccel     geom.Vector3
	started       bool

	softIron geom.Matrix3
	hardIron geom.Vector3
}

// NewCapture prepares an accumulator for the given sample count. A count
// of zero produces a capture whose Merge is a no-op.
func NewCapture(iterations int) *Capture {
	return &Capture{iterations: iterations}
}

// Observe folds one body-frame sample into the accumulator.
func (c *Capture) Observe(p *Profile, gyroscope, accelerometer, magnetometer geom.Vector3) {
	if c.started {
		c.gyroscopeSum = c.gyroscopeSum.Add(gyroscope)
		c.accelDeltaSum = c.accelDeltaSum.Add(accelerometer.Sub(c.prevAccel))
	} else {
		c.gyroscopeSum = gyroscope
		c.accelDeltaSum = geom.Vector3{}
		c.started = true
	}
	c.prevAccel = accelerometer

	c.softIron, c.hardIron = p.ObserveMagnetometer(magnetometer)
}

// Merge folds the accumulated estimates into the profile, selecting each
// sensor independently. Gyroscope and accelerometer means accumulate
// onto the existing offsets; the iron correction replaces the profile's
// outright. With zero iterations requested nothing changes.
func (c *Capture) Merge(p *Profile, gyroscope, accelerometer, magnetometer bool) {
	if c.iterations <= 0 {
		return
	}
	factor := 1.0 / float64(c.iterations)

	if gyroscope {
		p.GyroscopeOffset = p.GyroscopeOffset.Add(c.gyroscopeSum.Scale(geom.Radians(factor)))
	}
	if accelerometer {
		p.AccelerometerOffset = p.AccelerometerOffset.Add(c.accelDeltaSum.Scale(factor * GravityG))
	}
	if magnetometer {
		p.SoftIronMatrix = c.softIron
		p.HardIronOffset = c.hardIron
	}
}
