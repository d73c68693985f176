package protocol

import (
	"encoding/binary"

	"github.com/relabs-tech/hmd_tracker/internal/geom"
)

// ReportSize is the exact size of every streaming frame. Anything else on
// the interrupt endpoint is a transport-level desync.
const ReportSize = 64

// ReportKind classifies a streaming frame by its 2-byte signature.
type ReportKind int

const (
	ReportUnknown ReportKind = iota
	// ReportSample is a sensor sample frame (signature 0x01 0x02).
	ReportSample
	// ReportInit is the handshake frame the firmware emits when the
	// stream (re)starts (signature 0xAA 0x53).
	ReportInit
)

// KindOf classifies a raw report by signature. The caller must have
// checked the frame size already.
func KindOf(buf []byte) ReportKind {
	switch {
	case buf[0] == 0x01 && buf[1] == 0x02:
		return ReportSample
	case buf[0] == 0xAA && buf[1] == 0x53:
		return ReportInit
	}
	return ReportUnknown
}

// Timestamp extracts the device clock (nanoseconds, little-endian).
func Timestamp(buf []byte) uint64 {
	return binary.LittleEndian.Uint64(buf[4:12])
}

// RawTemperature extracts the raw temperature reading.
func RawTemperature(buf []byte) int16 {
	return int16(Int16LE(buf[2:4]))
}

// Temperature converts a raw reading to degrees Celsius. Offset and
// sensitivity are from the ICM-42688-P datasheet (25 degC, 132.48 LSB/degC).
func Temperature(raw int16) float64 {
	return float64(raw)/132.48 + 25.0
}

// Int32LE decodes 4 bytes, little-endian, two's complement.
func Int32LE(b []byte) int32 {
	return int32(binary.LittleEndian.Uint32(b[:4]))
}

// Int24LE decodes 3 bytes, little-endian, sign-extended from bit 23.
func Int24LE(b []byte) int32 {
	u := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
	if b[2]&0x80 != 0 {
		u |= 0xFF << 24
	}
	return int32(u)
}

// Int16LE decodes 2 bytes, little-endian, two's complement.
func Int16LE(b []byte) int32 {
	return int32(int16(binary.LittleEndian.Uint16(b[:2])))
}

// Int32BE decodes 4 bytes in big-endian order. Only the magnetometer
// scale divisor uses this order.
func Int32BE(b []byte) int32 {
	return int32(binary.BigEndian.Uint32(b[:4]))
}

// Int16BE decodes 2 bytes in big-endian order. Only the magnetometer
// scale multiplier uses this order.
func Int16BE(b []byte) int32 {
	return int32(int16(binary.BigEndian.Uint16(b[:2])))
}

// Int16Bizarre decodes the magnetometer axis encoding: low byte as-is,
// high byte XORed with 0x80 before assembly. A firmware quirk, carried
// verbatim.
func Int16Bizarre(b []byte) int32 {
	return int32(int16(uint16(b[0]) | uint16(b[1]^0x80)<<8))
}

// sensorLayout describes where one sensor's fields live in the report
// and how each is encoded. The gyroscope and accelerometer share an
// encoding; the magnetometer path is byte-swapped and XOR-biased. The
// table keeps that asymmetry auditable in one place.
type sensorLayout struct {
	multOff, divOff int
	axisOff         [3]int
	axisSize        int
	mult, div, axis func([]byte) int32
}

var (
	gyroscopeLayout = sensorLayout{
		multOff: 12, divOff: 14, axisOff: [3]int{18, 21, 24}, axisSize: 3,
		mult: Int16LE, div: Int32LE, axis: Int24LE,
	}
	accelerometerLayout = sensorLayout{
		multOff: 27, divOff: 29, axisOff: [3]int{33, 36, 39}, axisSize: 3,
		mult: Int16LE, div: Int32LE, axis: Int24LE,
	}
	magnetometerLayout = sensorLayout{
		multOff: 42, divOff: 44, axisOff: [3]int{48, 50, 52}, axisSize: 2,
		mult: Int16BE, div: Int32BE, axis: Int16Bizarre,
	}
)

func (l sensorLayout) decode(buf []byte) geom.Vector3 {
	m := float64(l.mult(buf[l.multOff : l.multOff+2]))
	d := float64(l.div(buf[l.divOff : l.divOff+4]))

	var out [3]float64
	for i, off := range l.axisOff {
		out[i] = float64(l.axis(buf[off:off+l.axisSize])) * m / d
	}
	return geom.Vector3{X: out[0], Y: out[1], Z: out[2]}
}

// DecodeSensors unpacks the three raw sensor vectors from a sample
// frame, already scaled by the device-supplied multiplier/divisor pairs:
// gyroscope in deg/s, accelerometer in g, magnetometer in device units.
func DecodeSensors(buf []byte) (gyroscope, accelerometer, magnetometer geom.Vector3) {
	gyroscope = gyroscopeLayout.decode(buf)
	accelerometer = accelerometerLayout.decode(buf)
	magnetometer = magnetometerLayout.decode(buf)
	return
}
