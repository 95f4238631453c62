package alpaca

import "errors"

// Sentinel errors drivers return through the device interfaces. The HTTP
// handlers map them to the corresponding Alpaca error numbers.
var (
	ErrNotConnected           = errors.New("device is not connected")
	ErrInvalidValue           = errors.New("invalid value")
	ErrPropertyNotImplemented = errors.New("property not implemented")
	ErrInvalidWhileSlaved     = errors.New("invalid while slaved")
	ErrInvalidOperation       = errors.New("invalid operation")
)

// Alpaca/ASCOM error numbers.
const (
	errNumNotImplemented     = 0x400
	errNumInvalidValue       = 0x401
	errNumNotConnected       = 0x407
	errNumInvalidWhileSlaved = 0x409
	errNumInvalidOperation   = 0x40B
	errNumDriverError        = 0x500
)

// errorNumber maps a driver error to its Alpaca error number.
func errorNumber(err error) int {
	switch {
	case errors.Is(err, ErrNotConnected):
		return errNumNotConnected
	case errors.Is(err, ErrInvalidValue):
		return errNumInvalidValue
	case errors.Is(err, ErrPropertyNotImplemented):
		return errNumNotImplemented
	case errors.Is(err, ErrInvalidWhileSlaved):
		return errNumInvalidWhileSlaved
	case errors.Is(err, ErrInvalidOperation):
		return errNumInvalidOperation
	}
	return errNumDriverError
}
