package device

import "errors"

// Error taxonomy of the driver. Callers classify with errors.Is; call
// sites wrap these with context via fmt.Errorf and %w.
var (
	// ErrNoSession: operation on a nil or closed session.
	ErrNoSession = errors.New("device: no session")
	// ErrNoHandle: the transport is not open, or discovery found no
	// matching IMU interface.
	ErrNoHandle = errors.New("device: no transport handle")
	// ErrNoProfile: a calibration operation was requested before the
	// profile was allocated.
	ErrNoProfile = errors.New("device: calibration profile not allocated")
	// ErrEnvelope: a control send/receive moved the wrong byte count or
	// the reply carried a mismatched message id.
	ErrEnvelope = errors.New("device: envelope transfer failed")
	// ErrUnplugged: the transport reported device removal.
	ErrUnplugged = errors.New("device: unplugged")
	// ErrUnexpectedSize: a streaming frame was not exactly 64 bytes.
	ErrUnexpectedSize = errors.New("device: unexpected report size")
	// ErrWrongSignature: a streaming frame matched no known frame kind.
	ErrWrongSignature = errors.New("device: unrecognized report signature")
	// ErrInvalidValue: the orientation filter produced a non-finite
	// orientation. The session stays usable.
	ErrInvalidValue = errors.New("device: non-finite orientation")
)
