package ant

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Error is an error reported by a Runner, either returned from Run or emitted as an
// Error event.
type Error struct {
	Type    ErrorType
	Message string
	Base    error
}

func (e Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Base != nil {
		return e.Base.Error()
	}
	return "ant - no error message"
}

// Unwrap returns the error the Error was derived from.
func (e Error) Unwrap() error { return e.Base }

type ErrorType byte

const (
	ErrUnknown ErrorType = iota
	// ErrTransport is a failure to open, read from, or write to the dongle.
	ErrTransport
	// ErrDecode is a frame that could not be decoded. The frame is skipped.
	ErrDecode
	// ErrChannelExists is returned when opening a channel on an occupied slot.
	ErrChannelExists
	// ErrInvalidChannel is returned for a channel number outside the dongle's slots.
	ErrInvalidChannel
	// ErrReset is returned when the dongle stops responding to reset commands.
	ErrReset
	// ErrAlreadyRunning is returned when Run is called on a Runner that is running.
	ErrAlreadyRunning
	// ErrClosed is returned when sending a command to a closed Dongle.
	ErrClosed
	// ErrInvalidMessage is a caller supplied message that cannot be encoded.
	ErrInvalidMessage
	// ErrChannel is a channel that received a response it did not expect.
	ErrChannel
)

var errorTypeNames = [...]string{
	ErrUnknown:        "Unknown",
	ErrTransport:      "Transport",
	ErrDecode:         "Decode",
	ErrChannelExists:  "ChannelExists",
	ErrInvalidChannel: "InvalidChannel",
	ErrReset:          "Reset",
	ErrAlreadyRunning: "AlreadyRunning",
	ErrClosed:         "Closed",
	ErrInvalidMessage: "InvalidMessage",
	ErrChannel:        "Channel",
}

func (t ErrorType) String() string {
	if int(t) < len(errorTypeNames) {
		return errorTypeNames[t]
	}
	return fmt.Sprintf("ErrorType(%d)", byte(t))
}

// IsErrorOfType returns true if err is, or wraps, an Error of type t.
func IsErrorOfType(err error, t ErrorType) bool {
	var e Error
	return errors.As(err, &e) && e.Type == t
}

func newDerivedError(t ErrorType, base error) error {
	return Error{Type: t, Message: base.Error(), Base: base}
}

func newSimpleError(t ErrorType, msg string) error {
	return Error{Type: t, Message: msg}
}

func newUnknownError(base error) error {
	return newDerivedError(ErrUnknown, base)
}
