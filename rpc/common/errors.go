package common

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Connection errors (fatal for the client instance)
// --------------------------------------------------------------------------

var (
	ErrInvalidAddress   = errors.New("invalid address")
	ErrConnectFailed    = errors.New("connect failed")
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
	ErrConnectionClosed = errors.New("connection closed")

	// ErrConnectionBroken is returned once a framing or io error left the stream
	// in an unknown state. It matches ErrConnectionClosed as well.
	ErrConnectionBroken = fmt.Errorf("connection broken: %w", ErrConnectionClosed)
)

// --------------------------------------------------------------------------
// Framing errors (break the connection)
// --------------------------------------------------------------------------

var (
	ErrTruncatedHeader  = errors.New("truncated frame header")
	ErrTruncatedPayload = errors.New("truncated frame payload")
	ErrFrameTooLarge    = errors.New("frame too large")

	// ErrProtocolViolation is returned when the server answers outside of the command contract
	ErrProtocolViolation = errors.New("protocol violation")
)

// --------------------------------------------------------------------------
// Command errors (recoverable, the connection stays usable)
// --------------------------------------------------------------------------

var (
	ErrSetFailed       = errors.New("set failed")
	ErrGetFailed       = errors.New("get failed")
	ErrDeleteFailed    = errors.New("delete failed")
	ErrExpiresInFailed = errors.New("expires in failed")
	ErrDisposeFailed   = errors.New("dispose failed")
	ErrInvalidArgument = errors.New("invalid argument")
)

// CommandError describes a command the server answered with a failure sentinel.
// It unwraps to one of the command errors above.
type CommandError struct {
	Command  string // SET, GET, DEL, EXIN
	Key      string
	Response string // raw response payload
	Err      error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	return fmt.Sprintf("%s %s: %v (response %q)", e.Command, e.Key, e.Err, e.Response)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err leaves the connection unusable
func IsFatal(err error) bool {
	return errors.Is(err, ErrConnectionClosed) ||
		errors.Is(err, ErrTruncatedHeader) ||
		errors.Is(err, ErrTruncatedPayload) ||
		errors.Is(err, ErrFrameTooLarge) ||
		errors.Is(err, ErrProtocolViolation)
}
