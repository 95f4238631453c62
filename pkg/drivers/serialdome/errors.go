package serialdome

import "errors"

var (
	// ErrNotConnected is returned when an operation is attempted before
	// the serial link has been established.
	ErrNotConnected = errors.New("dome is not connected")

	// ErrLinkDown is returned when the serial link drops while a command
	// is being sent or an operation is waiting for its completion event.
	ErrLinkDown = errors.New("serial link is down")

	// ErrLinkUnavailable is returned when the serial port cannot be opened.
	ErrLinkUnavailable = errors.New("serial link unavailable")

	// ErrOutOfRange is returned for azimuth arguments outside [0, 360].
	ErrOutOfRange = errors.New("azimuth out of range")

	// ErrSlaved is returned when FindHome is requested while the dome is
	// slaved to the telescope.
	ErrSlaved = errors.New("dome is slaved")

	// ErrTimeout is returned when the device never reports the state
	// change that would complete an operation.
	ErrTimeout = errors.New("operation timed out")

	// ErrAborted is returned to a waiting operation when AbortSlew is
	// issued before its completion event arrives.
	ErrAborted = errors.New("operation aborted")

	// ErrNotImplemented is returned for operations the dome hardware has
	// no physical counterpart for, such as altitude control.
	ErrNotImplemented = errors.New("operation not implemented")
)
