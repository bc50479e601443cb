package robovac

import "errors"

// Domain-specific errors for device sessions.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when a command is issued while the
	// session has no usable broker connection.
	ErrNotConnected = errors.New("robovac: session not connected")

	// ErrSessionClosed is returned after an explicit Disconnect; a closed
	// session never reconnects.
	ErrSessionClosed = errors.New("robovac: session closed")

	// ErrAlreadyConnected is returned when Connect is called twice.
	ErrAlreadyConnected = errors.New("robovac: session already connected")

	// ErrNoRooms is returned when a room clean is requested with an empty
	// room list.
	ErrNoRooms = errors.New("robovac: at least one room id is required")

	// ErrNoZones is returned when a zone clean is requested with an empty
	// zone list.
	ErrNoZones = errors.New("robovac: at least one zone is required")

	// ErrUnknownDevice is returned when a manager lookup names a device
	// that is not in the roster.
	ErrUnknownDevice = errors.New("robovac: unknown device")
)
