package calibration

import (
	"math"

	"github.com/relabs-tech/hmd_tracker/internal/geom"
)

// ObserveMagnetometer folds one body-frame magnetometer sample into the
// running min/max window and returns the soft/hard-iron correction the
// window implies: a diagonal soft-iron matrix of 1/((max-min)/2) per axis
// and a hard-iron offset of (min+max)/2.
//
// An axis with zero span yields an infinite scale factor; the device has
// to be moved through a few orientations before the estimate is usable.
func (p *Profile) ObserveMagnetometer(m geom.Vector3) (geom.Matrix3, geom.Vector3) {
	p.ironMin = geom.Vector3{
		X: math.Min(p.ironMin.X, m.X),
		Y: math.Min(p.ironMin.Y, m.Y),
		Z: math.Min(p.ironMin.Z, m.Z),
	}
	p.ironMax = geom.Vector3{
		X: math.Max(p.ironMax.X, m.X),
		Y: math.Max(p.ironMax.Y, m.Y),
		Z: math.Max(p.ironMax.Z, m.Z),
	}

	span := p.ironMax.Sub(p.ironMin).Scale(0.5)
	soft := geom.Diagonal(geom.Vector3{X: 1 / span.X, Y: 1 / span.Y, Z: 1 / span.Z})
	hard := p.ironMin.Add(p.ironMax).Scale(0.5)
	return soft, hard
}
