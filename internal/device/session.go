// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package device implements the IMU session: discovery and handshake
// over the control envelope, factory calibration fetch, the streaming
// pipeline feeding the orientation filter, and explicit calibration
// capture. One session owns one HID interface exclusively; concurrent
// use of a session must be serialized by the caller.
package device

import (
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/hmd_tracker/internal/ahrs"
	"github.com/relabs-tech/hmd_tracker/internal/calibration"
	"github.com/relabs-tech/hmd_tracker/internal/imu"
	"github.com/relabs-tech/hmd_tracker/internal/protocol"
	"github.com/relabs-tech/hmd_tracker/internal/transport"
)

// SampleRate is the rate the firmware streams at. The filter and drift
// compensator are configured for it.
const SampleRate = 1000

// EventKind distinguishes the events delivered to the callback.
type EventKind int

const (
	// EventInit: the device emitted a handshake frame; no sample data.
	EventInit EventKind = iota
	// EventUpdate: a sample was processed and the filter state advanced.
	EventUpdate
)

// Callback receives one event per accepted frame, with the device
// timestamp in nanoseconds and the filter carrying the current estimate.
type Callback func(timestamp uint64, event EventKind, filter *ahrs.AHRS)

// Session is a live connection to one headset IMU.
type Session struct {
	handle    transport.Transport
	vendorID  uint16
	productID uint16
	staticID  uint32

	lastTimestamp uint64
	lastDelta     float64
	temperature   float64
	sample        imu.Sample

	profile  *calibration.Profile
	filter   *ahrs.AHRS
	offset   *ahrs.Offset
	callback Callback
}

// Open enumerates the vendor's HID interfaces, opens the first matching
// IMU interface and runs the full init sequence: silence any in-flight
// stream, flush stale reports, read the static id, fetch the factory
// calibration and start streaming. On success the session is ready for
// Read.
func Open(callback Callback) (*Session, error) {
	infos, err := transport.Enumerate(protocol.VendorID, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoHandle, err)
	}

	for _, info := range infos {
		iface := protocol.IMUInterfaceID(info.ProductID)
		if iface == -1 || info.InterfaceNumber != iface {
			continue
		}
		handle, err := transport.Open(info.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoHandle, err)
		}
		log.Printf("device: found IMU interface %d on product 0x%04x", iface, info.ProductID)
		return openSession(handle, info.ProductID, callback)
	}

	return nil, fmt.Errorf("%w: no IMU interface for vendor 0x%04x", ErrNoHandle, protocol.VendorID)
}

// openSession runs the handshake and stream start on an already opened
// transport. Split from Open so the sequence is testable without
// hardware.
func openSession(handle transport.Transport, productID uint16, callback Callback) (*Session, error) {
	s := &Session{
		handle:    handle,
		vendorID:  protocol.VendorID,
		productID: productID,
		callback:  callback,
	}

	if err := s.sendSignal(protocol.MsgStartIMUData, 0x0); err != nil {
		handle.Close()
		return nil, fmt.Errorf("stop stream: %w", err)
	}
	s.flush()

	if err := s.sendMsg(protocol.MsgGetStaticID, nil); err != nil {
		handle.Close()
		return nil, fmt.Errorf("request static id: %w", err)
	}
	if payload, err := s.recvMsg(protocol.MsgGetStaticID, 4); err == nil {
		s.staticID = uint32(payload[0]) | uint32(payload[1])<<8 | uint32(payload[2])<<16 | uint32(payload[3])<<24
	} else {
		// Older firmware does not answer; not fatal.
		log.Printf("device: static id unavailable, using fallback: %v", err)
		s.staticID = protocol.StaticIDFallback
	}

	s.profile = calibration.NewProfile()
	if err := s.fetchFactoryCalibration(); err != nil {
		handle.Close()
		return nil, err
	}

	if err := s.sendSignal(protocol.MsgStartIMUData, 0x1); err != nil {
		handle.Close()
		return nil, fmt.Errorf("start stream: %w", err)
	}

	s.offset = ahrs.NewOffset(SampleRate)
	s.filter = ahrs.New()
	s.filter.SetSettings(ahrs.Settings{
		Convention:            ahrs.ConventionNED,
		Gain:                  0.5,
		AccelerationRejection: 10,
		MagneticRejection:     20,
		RecoveryTriggerPeriod: 5 * SampleRate, // 5 seconds
	})
	return s, nil
}

// fetchFactoryCalibration pulls the calibration document off the device
// in segments and populates the profile from it. A device that answers
// the length request but stalls mid-transfer leaves the profile with
// whatever was populated so far; only a failed send is fatal.
func (s *Session) fetchFactoryCalibration() error {
	if err := s.sendMsg(protocol.MsgGetCalDataLength, nil); err != nil {
		return fmt.Errorf("request calibration length: %w", err)
	}
	payload, err := s.recvMsg(protocol.MsgGetCalDataLength, 4)
	if err != nil {
		log.Printf("device: calibration length unavailable: %v", err)
		return nil
	}
	length := int(payload[0]) | int(payload[1])<<8 | int(payload[2])<<16 | int(payload[3])<<24

	data := make([]byte, 0, length)
	for len(data) < length {
		if err := s.sendMsg(protocol.MsgCalDataGetNextSegment, nil); err != nil {
			break
		}
		next := length - len(data)
		if next > protocol.MaxPayload {
			next = protocol.MaxPayload
		}
		segment, err := s.recvMsg(protocol.MsgCalDataGetNextSegment, next)
		if err != nil {
			break
		}
		data = append(data, segment...)
	}
	if len(data) < length {
		log.Printf("device: calibration document truncated at %d of %d bytes", len(data), length)
	}

	if err := s.profile.ApplyFactoryJSON(data); err != nil {
		log.Printf("device: factory calibration unusable: %v", err)
	}
	return nil
}

// flush discards up to 10 pending streaming reports so the handshake
// does not race against frames queued before the stop signal landed.
func (s *Session) flush() {
	buf := make([]byte, protocol.ReportSize)
	for i := 0; i < 10; i++ {
		n, err := s.handle.Read(buf, 10*time.Millisecond)
		if err != nil || n == 0 {
			return
		}
	}
}

// sendMsg writes one control envelope. Exactly one transport call; a
// short write is a hard failure.
func (s *Session) sendMsg(msgID byte, data []byte) error {
	buf := protocol.BuildEnvelope(msgID, data)
	n, err := s.handle.Write(buf)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEnvelope, err)
	}
	if n != len(buf) {
		return fmt.Errorf("%w: wrote %d of %d bytes", ErrEnvelope, n, len(buf))
	}
	return nil
}

// sendSignal sends a single-byte command.
func (s *Session) sendSignal(msgID byte, signal byte) error {
	return s.sendMsg(msgID, []byte{signal})
}

// recvMsg reads one control envelope and returns its payload. Exactly
// one transport call; a short read or a mismatched message id means "no
// reply" and fails the call.
func (s *Session) recvMsg(msgID byte, length int) ([]byte, error) {
	buf := make([]byte, protocol.EnvelopeSize(length))
	n, err := s.handle.Read(buf, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnvelope, err)
	}
	if n != len(buf) {
		return nil, fmt.Errorf("%w: read %d of %d bytes", ErrEnvelope, n, len(buf))
	}

	env, err := protocol.ParseEnvelope(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnvelope, err)
	}
	if env.MsgID != msgID {
		return nil, fmt.Errorf("%w: got message id 0x%02x, want 0x%02x", ErrEnvelope, env.MsgID, msgID)
	}
	if len(env.Payload) < length {
		return nil, fmt.Errorf("%w: payload %d bytes, want %d", ErrEnvelope, len(env.Payload), length)
	}
	return env.Payload[:length], nil
}

// ResetCalibration restores the profile to its identity state.
func (s *Session) ResetCalibration() error {
	if s == nil {
		return ErrNoSession
	}
	if s.profile == nil {
		return ErrNoProfile
	}
	s.profile.Reset()
	return nil
}

// LoadCalibration replaces the profile with a previously saved blob.
func (s *Session) LoadCalibration(path string) error {
	if s == nil {
		return ErrNoSession
	}
	if s.profile == nil {
		return ErrNoProfile
	}
	return s.profile.Load(path)
}

// SaveCalibration persists the profile to path.
func (s *Session) SaveCalibration(path string) error {
	if s == nil {
		return ErrNoSession
	}
	if s.profile == nil {
		return ErrNoProfile
	}
	return s.profile.Save(path)
}

// SetCallback replaces the registered event sink. The session holds at
// most one; nil unregisters.
func (s *Session) SetCallback(callback Callback) {
	s.callback = callback
}

// StaticID returns the device's static identifier (or the fallback).
func (s *Session) StaticID() uint32 { return s.staticID }

// ProductID returns the resolved USB product id.
func (s *Session) ProductID() uint16 { return s.productID }

// Temperature returns the last decoded die temperature in degC.
func (s *Session) Temperature() float64 { return s.temperature }

// LastSample returns the most recent calibrated sample.
func (s *Session) LastSample() imu.Sample { return s.sample }

// Filter exposes the orientation filter for reading pose state.
func (s *Session) Filter() *ahrs.AHRS { return s.filter }

// Profile exposes the calibration profile.
func (s *Session) Profile() *calibration.Profile { return s.profile }

// Close releases everything the session owns. The session is empty
// afterwards and a new one can be opened.
func (s *Session) Close() error {
	if s == nil {
		return ErrNoSession
	}
	var err error
	if s.handle != nil {
		err = s.handle.Close()
		transport.Shutdown()
	}
	s.handle = nil
	s.profile = nil
	s.filter = nil
	s.offset = nil
	s.callback = nil
	s.lastTimestamp = 0
	s.temperature = 0
	return err
}
