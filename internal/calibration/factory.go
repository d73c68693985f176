package calibration

import (
	"encoding/json"

	"github.com/relabs-tech/hmd_tracker/internal/geom"
)

// factoryDocument mirrors the JSON calibration document stored on the
// device. Fields the firmware omits simply stay nil and degrade to safe
// defaults below.
type factoryDocument struct {
	IMU struct {
		Device1 struct {
			AccelBias  []float64 `json:"accel_bias"`
			AccelQGyro []float64 `json:"accel_q_gyro"`
			GyroBias   []float64 `json:"gyro_bias"`
			GyroQMag   []float64 `json:"gyro_q_mag"`
			MagBias    []float64 `json:"mag_bias"`
			IMUNoises  []float64 `json:"imu_noises"`
			ScaleAccel []float64 `json:"scale_accel"`
			ScaleGyro  []float64 `json:"scale_gyro"`
			ScaleMag   []float64 `json:"scale_mag"`
		} `json:"device_1"`
	} `json:"IMU"`
}

// vectorOf returns the 3-element array as a vector, or zero if the array
// is missing or malformed.
func vectorOf(a []float64) geom.Vector3 {
	if len(a) != 3 {
		return geom.Vector3{}
	}
	return geom.Vector3{X: a[0], Y: a[1], Z: a[2]}
}

// quaternionOf returns the 4-element array as a quaternion (stored
// x,y,z,w), or identity if missing or malformed.
func quaternionOf(a []float64) geom.Quaternion {
	if len(a) != 4 {
		return geom.IdentityQuaternion()
	}
	return geom.Quaternion{X: a[0], Y: a[1], Z: a[2], W: a[3]}
}

// ApplyFactoryJSON populates the profile from the factory calibration
// document. A document that does not parse leaves the profile unchanged;
// missing fields inside a parsed document fall back to zero vectors and
// identity quaternions. The magnetometer misalignment is derived from
// the two supplied frame rotations (accel-to-gyro composed with
// gyro-to-mag).
func (p *Profile) ApplyFactoryJSON(data []byte) error {
	var doc factoryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	dev := doc.IMU.Device1

	accelQGyro := quaternionOf(dev.AccelQGyro)
	accelQMag := accelQGyro.Mul(quaternionOf(dev.GyroQMag))

	p.GyroscopeMisalignment = accelQGyro.ToMatrix()
	p.GyroscopeSensitivity = vectorOf(dev.ScaleGyro)
	p.GyroscopeOffset = vectorOf(dev.GyroBias)

	p.AccelerometerMisalignment = geom.Identity()
	p.AccelerometerSensitivity = vectorOf(dev.ScaleAccel)
	p.AccelerometerOffset = vectorOf(dev.AccelBias)

	p.MagnetometerMisalignment = accelQMag.ToMatrix()
	p.MagnetometerSensitivity = vectorOf(dev.ScaleMag)
	p.MagnetometerOffset = vectorOf(dev.MagBias)

	p.Noises = quaternionOf(dev.IMUNoises)
	return nil
}
