package geom

import "math"

// Quaternion with scalar part W and vector part X, Y, Z.
type Quaternion struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Euler holds roll/pitch/yaw in degrees (ZYX order).
type Euler struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// IdentityQuaternion returns the unit quaternion (1, 0, 0, 0).
func IdentityQuaternion() Quaternion {
	return Quaternion{W: 1}
}

// Mul returns the Hamilton product q * o.
func (q Quaternion) Mul(o Quaternion) Quaternion {
	return Quaternion{
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
	}
}

// MulVector treats v as a pure quaternion and returns q * v.
func (q Quaternion) MulVector(v Vector3) Quaternion {
	return Quaternion{
		W: -q.X*v.X - q.Y*v.Y - q.Z*v.Z,
		X: q.W*v.X + q.Y*v.Z - q.Z*v.Y,
		Y: q.W*v.Y - q.X*v.Z + q.Z*v.X,
		Z: q.W*v.Z + q.X*v.Y - q.Y*v.X,
	}
}

func (q Quaternion) Add(o Quaternion) Quaternion {
	return Quaternion{W: q.W + o.W, X: q.X + o.X, Y: q.Y + o.Y, Z: q.Z + o.Z}
}

func (q Quaternion) Normalized() Quaternion {
	n := math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
	if n == 0 {
		return q
	}
	return Quaternion{W: q.W / n, X: q.X / n, Y: q.Y / n, Z: q.Z / n}
}

// IsFinite reports whether all components are neither NaN nor infinite.
func (q Quaternion) IsFinite() bool {
	for _, c := range [4]float64{q.W, q.X, q.Y, q.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Rotate returns v rotated by q (computed as q v q*).
func (q Quaternion) Rotate(v Vector3) Vector3 {
	m := q.ToMatrix()
	return m.MulVector(v)
}

// ToMatrix converts a unit quaternion into its rotation matrix.
func (q Quaternion) ToMatrix() Matrix3 {
	ww := q.W * q.W
	wx := q.W * q.X
	wy := q.W * q.Y
	wz := q.W * q.Z
	xx := q.X * q.X
	xy := q.X * q.Y
	xz := q.X * q.Z
	yy := q.Y * q.Y
	yz := q.Y * q.Z
	zz := q.Z * q.Z
	return Matrix3{
		XX: 2 * (ww - 0.5 + xx),
		XY: 2 * (xy - wz),
		XZ: 2 * (xz + wy),
		YX: 2 * (xy + wz),
		YY: 2 * (ww - 0.5 + yy),
		YZ: 2 * (yz - wx),
		ZX: 2 * (xz - wy),
		ZY: 2 * (yz + wx),
		ZZ: 2 * (ww - 0.5 + zz),
	}
}

// ToEuler converts a unit quaternion into ZYX Euler angles in degrees.
func (q Quaternion) ToEuler() Euler {
	halfMinusQySq := 0.5 - q.Y*q.Y
	return Euler{
		Roll:  Degrees(math.Atan2(q.W*q.X+q.Y*q.Z, halfMinusQySq-q.X*q.X)),
		Pitch: Degrees(math.Asin(2 * (q.W*q.Y - q.Z*q.X))),
		Yaw:   Degrees(math.Atan2(q.W*q.Z+q.X*q.Y, halfMinusQySq-q.Z*q.Z)),
	}
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * (180.0 / math.Pi)
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
