package geom

// Matrix3 is a row-major 3x3 matrix.
type Matrix3 struct {
	XX, XY, XZ float64
	YX, YY, YZ float64
	ZX, ZY, ZZ float64
}

// Identity returns the 3x3 identity matrix.
func Identity() Matrix3 {
	return Matrix3{XX: 1, YY: 1, ZZ: 1}
}

// MulVector returns m * v.
func (m Matrix3) MulVector(v Vector3) Vector3 {
	return Vector3{
		X: m.XX*v.X + m.XY*v.Y + m.XZ*v.Z,
		Y: m.YX*v.X + m.YY*v.Y + m.YZ*v.Z,
		Z: m.ZX*v.X + m.ZY*v.Y + m.ZZ*v.Z,
	}
}

// Diagonal returns a matrix with d on the diagonal and zeros elsewhere.
func Diagonal(d Vector3) Matrix3 {
	return Matrix3{XX: d.X, YY: d.Y, ZZ: d.Z}
}
