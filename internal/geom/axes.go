package geom

// Axis conventions between the sensor die, the intermediate frame the
// calibration operates in, and the frame the orientation filter expects.
// The glasses mount the IMU rotated relative to the display, so raw
// readings pass through SensorToBody before calibration and BodyToFilter
// after it.

// SensorToBody remaps a raw sensor vector into the body frame:
// x' = -x, y' = -z, z' = -y.
func SensorToBody(v Vector3) Vector3 {
	return Vector3{X: -v.X, Y: -v.Z, Z: -v.Y}
}

// BodyToFilter remaps a calibrated body-frame vector into the frame the
// orientation filter expects: x' = y, y' = z, z' = x.
func BodyToFilter(v Vector3) Vector3 {
	return Vector3{X: v.Y, Y: v.Z, Z: v.X}
}
