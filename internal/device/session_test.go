// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package device

import (
	"encoding/binary"
	"testing"

	"github.com/relabs-tech/hmd_tracker/internal/geom"
	"github.com/relabs-tech/hmd_tracker/internal/protocol"
)

const testFactoryDoc = `{"IMU": {"device_1": {
	"gyro_bias": [0.001, 0.002, 0.003],
	"accel_bias": [0.01, 0.02, 0.03],
	"scale_gyro": [1, 1, 1],
	"scale_accel": [1, 1, 1]
}}}`

// queueHandshake loads the replies the init sequence consumes: the
// static id answer, the calibration length answer and the calibration
// document in payload-sized segments.
func queueHandshake(m *mockTransport, staticID uint32, doc []byte) {
	id := make([]byte, 4)
	binary.LittleEndian.PutUint32(id, staticID)
	m.push(protocol.BuildEnvelope(protocol.MsgGetStaticID, id))

	length := make([]byte, 4)
	binary.LittleEndian.PutUint32(length, uint32(len(doc)))
	m.push(protocol.BuildEnvelope(protocol.MsgGetCalDataLength, length))

	for off := 0; off < len(doc); off += protocol.MaxPayload {
		end := off + protocol.MaxPayload
		if end > len(doc) {
			end = len(doc)
		}
		m.push(protocol.BuildEnvelope(protocol.MsgCalDataGetNextSegment, doc[off:end]))
	}
}

func TestOpenSessionHandshake(t *testing.T) {
	mock := &mockTransport{}
	queueHandshake(mock, 0xDEADBEEF, []byte(testFactoryDoc))

	s, err := openSession(mock, protocol.ProductIDAir, nil)
	if err != nil {
		t.Fatalf("openSession failed: %v", err)
	}

	if s.StaticID() != 0xDEADBEEF {
		t.Errorf("static id = 0x%08X, want 0xDEADBEEF", s.StaticID())
	}
	if s.ProductID() != protocol.ProductIDAir {
		t.Errorf("product id = 0x%04X, want 0x%04X", s.ProductID(), protocol.ProductIDAir)
	}
	if s.Filter() == nil || s.Profile() == nil {
		t.Fatal("filter or profile missing after open")
	}

	// The factory document landed in the profile.
	if s.Profile().GyroscopeOffset != (geom.Vector3{X: 0.001, Y: 0.002, Z: 0.003}) {
		t.Errorf("gyroscope offset = %+v", s.Profile().GyroscopeOffset)
	}

	// Command sequence on the wire: stop stream, static id, calibration
	// length, one segment request per segment, start stream.
	wantIDs := []byte{
		protocol.MsgStartIMUData,
		protocol.MsgGetStaticID,
		protocol.MsgGetCalDataLength,
	}
	for off := 0; off < len(testFactoryDoc); off += protocol.MaxPayload {
		wantIDs = append(wantIDs, protocol.MsgCalDataGetNextSegment)
	}
	wantIDs = append(wantIDs, protocol.MsgStartIMUData)

	if len(mock.writes) != len(wantIDs) {
		t.Fatalf("wrote %d envelopes, want %d", len(mock.writes), len(wantIDs))
	}
	for i, w := range mock.writes {
		if w[7] != wantIDs[i] {
			t.Errorf("write %d: message id 0x%02X, want 0x%02X", i, w[7], wantIDs[i])
		}
	}

	// Stop and start signals carry the expected payload bytes.
	if first := mock.writes[0]; first[8] != 0x0 {
		t.Errorf("stop signal payload = 0x%02X, want 0x0", first[8])
	}
	if last := mock.writes[len(mock.writes)-1]; last[8] != 0x1 {
		t.Errorf("start signal payload = 0x%02X, want 0x1", last[8])
	}
}

func TestOpenSessionStaticIDFallback(t *testing.T) {
	// A device that never answers anything: every blocking read comes up
	// empty. The static id falls back and the missing calibration
	// document is tolerated.
	mock := &mockTransport{}

	s, err := openSession(mock, protocol.ProductIDAir2, nil)
	if err != nil {
		t.Fatalf("openSession failed: %v", err)
	}
	if s.StaticID() != protocol.StaticIDFallback {
		t.Errorf("static id = 0x%08X, want fallback 0x%08X", s.StaticID(), protocol.StaticIDFallback)
	}
	// Profile stays at the reset state.
	if s.Profile().GyroscopeOffset != (geom.Vector3{}) {
		t.Errorf("gyroscope offset = %+v, want zero", s.Profile().GyroscopeOffset)
	}
}

func TestOpenSessionWriteFailure(t *testing.T) {
	mock := &mockTransport{failWrites: true}

	if _, err := openSession(mock, protocol.ProductIDAir, nil); err == nil {
		t.Fatal("expected error when the stop signal cannot be sent")
	}
	if !mock.closed {
		t.Error("transport not closed after failed open")
	}
}

func TestOpenSessionMismatchedReply(t *testing.T) {
	// The device answers the static id request with the wrong message
	// id; the session treats that as no reply and falls back.
	mock := &mockTransport{}
	mock.push(protocol.BuildEnvelope(protocol.MsgStartIMUData, []byte{0, 0, 0, 0}))

	s, err := openSession(mock, protocol.ProductIDAir, nil)
	if err != nil {
		t.Fatalf("openSession failed: %v", err)
	}
	if s.StaticID() != protocol.StaticIDFallback {
		t.Errorf("static id = 0x%08X, want fallback", s.StaticID())
	}
}

func TestSessionGuards(t *testing.T) {
	var s *Session
	if err := s.ResetCalibration(); err != ErrNoSession {
		t.Errorf("nil session ResetCalibration = %v, want ErrNoSession", err)
	}
	if err := s.Read(0); err != ErrNoSession {
		t.Errorf("nil session Read = %v, want ErrNoSession", err)
	}
	if err := s.Calibrate(1, true, true, true); err != ErrNoSession {
		t.Errorf("nil session Calibrate = %v, want ErrNoSession", err)
	}

	s = &Session{}
	if err := s.ResetCalibration(); err != ErrNoProfile {
		t.Errorf("ResetCalibration without profile = %v, want ErrNoProfile", err)
	}
	if err := s.Read(0); err != ErrNoHandle {
		t.Errorf("Read without handle = %v, want ErrNoHandle", err)
	}
}
