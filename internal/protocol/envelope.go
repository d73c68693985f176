package protocol

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Envelope wire layout:
//
//	offset 0  header byte (0xAA)
//	offset 1  CRC32, little-endian
//	offset 5  length, little-endian (= 3 + payload length)
//	offset 7  message id
//	offset 8  payload (up to 56 bytes)
//
// The checksum covers everything the length field declares, starting at
// the length field itself.
const (
	EnvelopeHeader byte = 0xAA

	envelopeOverhead = 8
	// MaxPayload is bounded by the 64-byte HID report size.
	MaxPayload = 56
)

// Checksum computes the CRC32 (IEEE polynomial) of data.
func Checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// Envelope is one parsed control frame.
type Envelope struct {
	Checksum uint32
	MsgID    byte
	Payload  []byte
}

// BuildEnvelope assembles a control frame for msgID carrying data. The
// returned slice is freshly allocated per call.
func BuildEnvelope(msgID byte, data []byte) []byte {
	if len(data) > MaxPayload {
		data = data[:MaxPayload]
	}
	declared := uint16(3 + len(data))

	buf := make([]byte, envelopeOverhead+len(data))
	buf[0] = EnvelopeHeader
	binary.LittleEndian.PutUint16(buf[5:7], declared)
	buf[7] = msgID
	copy(buf[8:], data)
	binary.LittleEndian.PutUint32(buf[1:5], Checksum(buf[5:5+int(declared)]))
	return buf
}

// ParseEnvelope splits a received control frame. The received checksum is
// returned but deliberately not verified; the device is identified by
// message id alone and a mismatched id is treated as "no reply" by the
// caller. The payload slice is limited to what the length field declares.
func ParseEnvelope(buf []byte) (Envelope, error) {
	if len(buf) < envelopeOverhead {
		return Envelope{}, fmt.Errorf("envelope too short: %d bytes", len(buf))
	}
	declared := binary.LittleEndian.Uint16(buf[5:7])
	if declared < 3 {
		return Envelope{}, fmt.Errorf("envelope length field %d below minimum", declared)
	}
	payloadLen := int(declared) - 3
	if envelopeOverhead+payloadLen > len(buf) {
		payloadLen = len(buf) - envelopeOverhead
	}
	return Envelope{
		Checksum: binary.LittleEndian.Uint32(buf[1:5]),
		MsgID:    buf[7],
		Payload:  buf[8 : 8+payloadLen],
	}, nil
}

// EnvelopeSize returns the wire size of an envelope carrying payloadLen
// bytes.
func EnvelopeSize(payloadLen int) int {
	return envelopeOverhead + payloadLen
}
