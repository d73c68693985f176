package calibration

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/relabs-tech/hmd_tracker/internal/geom"
)

// ErrTruncated reports that a profile file transferred fewer bytes than
// the fixed blob size. It is distinct from open/close failures so callers
// can tell a corrupt file from unavailable I/O.
var ErrTruncated = errors.New("calibration: short profile transfer")

// profileBlob is the on-disk layout: float64 fields in declaration
// order, little-endian, no header or version. Any structural change
// breaks previously saved files silently.
type profileBlob struct {
	GyroscopeMisalignment [9]float64
	GyroscopeSensitivity  [3]float64
	GyroscopeOffset       [3]float64

	AccelerometerMisalignment [9]float64
	AccelerometerSensitivity  [3]float64
	AccelerometerOffset       [3]float64

	MagnetometerMisalignment [9]float64
	MagnetometerSensitivity  [3]float64
	MagnetometerOffset       [3]float64

	SoftIronMatrix [9]float64
	HardIronOffset [3]float64

	Noises [4]float64
}

// BlobSize is the exact size in bytes of a saved profile.
const BlobSize = 61 * 8

func matrixArray(m geom.Matrix3) [9]float64 {
	return [9]float64{m.XX, m.XY, m.XZ, m.YX, m.YY, m.YZ, m.ZX, m.ZY, m.ZZ}
}

func arrayMatrix(a [9]float64) geom.Matrix3 {
	return geom.Matrix3{
		XX: a[0], XY: a[1], XZ: a[2],
		YX: a[3], YY: a[4], YZ: a[5],
		ZX: a[6], ZY: a[7], ZZ: a[8],
	}
}

func vectorArray(v geom.Vector3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func arrayVector(a [3]float64) geom.Vector3 {
	return geom.Vector3{X: a[0], Y: a[1], Z: a[2]}
}

func (p *Profile) blob() profileBlob {
	return profileBlob{
		GyroscopeMisalignment:     matrixArray(p.GyroscopeMisalignment),
		GyroscopeSensitivity:      vectorArray(p.GyroscopeSensitivity),
		GyroscopeOffset:           vectorArray(p.GyroscopeOffset),
		AccelerometerMisalignment: matrixArray(p.AccelerometerMisalignment),
		AccelerometerSensitivity:  vectorArray(p.AccelerometerSensitivity),
		AccelerometerOffset:       vectorArray(p.AccelerometerOffset),
		MagnetometerMisalignment:  matrixArray(p.MagnetometerMisalignment),
		MagnetometerSensitivity:   vectorArray(p.MagnetometerSensitivity),
		MagnetometerOffset:        vectorArray(p.MagnetometerOffset),
		SoftIronMatrix:            matrixArray(p.SoftIronMatrix),
		HardIronOffset:            vectorArray(p.HardIronOffset),
		Noises:                    [4]float64{p.Noises.W, p.Noises.X, p.Noises.Y, p.Noises.Z},
	}
}

func (p *Profile) setBlob(b profileBlob) {
	p.GyroscopeMisalignment = arrayMatrix(b.GyroscopeMisalignment)
	p.GyroscopeSensitivity = arrayVector(b.GyroscopeSensitivity)
	p.GyroscopeOffset = arrayVector(b.GyroscopeOffset)
	p.AccelerometerMisalignment = arrayMatrix(b.AccelerometerMisalignment)
	p.AccelerometerSensitivity = arrayVector(b.AccelerometerSensitivity)
	p.AccelerometerOffset = arrayVector(b.AccelerometerOffset)
	p.MagnetometerMisalignment = arrayMatrix(b.MagnetometerMisalignment)
	p.MagnetometerSensitivity = arrayVector(b.MagnetometerSensitivity)
	p.MagnetometerOffset = arrayVector(b.MagnetometerOffset)
	p.SoftIronMatrix = arrayMatrix(b.SoftIronMatrix)
	p.HardIronOffset = arrayVector(b.HardIronOffset)
	p.Noises = geom.Quaternion{W: b.Noises[0], X: b.Noises[1], Y: b.Noises[2], Z: b.Noises[3]}
}

// Save writes the profile to path as a fixed-size binary blob.
func (p *Profile) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("calibration: open %s: %w", path, err)
	}

	blob := p.blob()
	werr := binary.Write(f, binary.LittleEndian, &blob)
	cerr := f.Close()

	if werr != nil {
		return fmt.Errorf("calibration: saving %s: %w", path, werr)
	}
	if cerr != nil {
		return fmt.Errorf("calibration: close %s: %w", path, cerr)
	}
	return nil
}

// Load replaces the profile's fields with the blob stored at path. The
// iron-estimation window is left untouched.
func (p *Profile) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("calibration: open %s: %w", path, err)
	}

	var blob profileBlob
	rerr := binary.Read(f, binary.LittleEndian, &blob)
	cerr := f.Close()

	if rerr != nil {
		if errors.Is(rerr, io.EOF) || errors.Is(rerr, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: %s", ErrTruncated, path)
		}
		return fmt.Errorf("calibration: loading %s: %w", path, rerr)
	}
	if cerr != nil {
		return fmt.Errorf("calibration: close %s: %w", path, cerr)
	}

	p.setBlob(blob)
	return nil
}
