// Package errs defines the error taxonomy shared by every binding package.
//
// Three kinds of failure exist:
//   - ConfigurationError: a caller-supplied value violates a precondition. Detected
//     locally, before any host round-trip.
//   - HostBridgeError: the host rejected a request, the window label no longer
//     resolves, or the transport failed.
//   - SerializationError: a payload could not be converted to or from the wire
//     representation. Propagates like HostBridgeError but is kept distinct.
//
// None of them are retried by the bindings.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidScaleFactor is returned for scale factors <= 0 (or NaN).
	ErrInvalidScaleFactor = errors.New("scale factor must be greater than zero")

	// ErrWindowNotFound is reported by the host when a label no longer resolves.
	ErrWindowNotFound = errors.New("window not found")

	// ErrWindowClosed is returned locally once a handle has observed its window closing.
	ErrWindowClosed = errors.New("window is closed")

	// ErrBridgeClosed is returned when the transport has been shut down.
	ErrBridgeClosed = errors.New("host bridge is closed")

	// ErrUnavailable is returned when the bridge refuses calls (circuit open, unreachable host).
	ErrUnavailable = errors.New("host bridge unavailable")
)

// Host error codes carried on the wire.
const (
	CodeWindowNotFound = "window_not_found"
	CodeInvalidArgs    = "invalid_args"
	CodeUnknownCommand = "unknown_command"
	CodeListenerGone   = "listener_not_found"
	CodeInternal       = "internal"
)

// ConfigurationError reports a caller-supplied value that violates a precondition.
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

// Error names the offending field when known.
func (e *ConfigurationError) Error() string {
	msg := e.Reason
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Field == "" {
		return "configuration error: " + msg
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, msg)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Configuration builds a ConfigurationError.
func Configuration(field, format string, args ...interface{}) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// HostBridgeError reports a failed host round-trip.
type HostBridgeError struct {
	Op      string // command sent to the host
	Label   string // window label, when the op targets one
	Code    string // host error code, empty for transport failures
	Message string
	Err     error
}

// Error includes the command and any host error code.
func (e *HostBridgeError) Error() string {
	target := e.Op
	if e.Label != "" {
		target = fmt.Sprintf("%s (window %q)", e.Op, e.Label)
	}
	switch {
	case e.Message != "" && e.Code != "":
		return fmt.Sprintf("host bridge error: %s: %s: %s", target, e.Code, e.Message)
	case e.Message != "":
		return fmt.Sprintf("host bridge error: %s: %s", target, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("host bridge error: %s: %v", target, e.Err)
	default:
		return fmt.Sprintf("host bridge error: %s", target)
	}
}

// Unwrap exposes the cause. Window-not-found host errors unwrap to ErrWindowNotFound.
func (e *HostBridgeError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	if e.Code == CodeWindowNotFound {
		return ErrWindowNotFound
	}
	return nil
}

// SerializationError reports a payload that could not be encoded or decoded.
type SerializationError struct {
	Op  string
	Err error
}

// Error names the operation whose payload failed.
func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization error: %s: %v", e.Op, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// IsConfiguration reports whether err is (or wraps) a ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsHostBridge reports whether err is (or wraps) a HostBridgeError.
func IsHostBridge(err error) bool {
	var target *HostBridgeError
	return errors.As(err, &target)
}

// IsSerialization reports whether err is (or wraps) a SerializationError.
func IsSerialization(err error) bool {
	var target *SerializationError
	return errors.As(err, &target)
}

// IsWindowGone reports whether err means the target window no longer exists.
func IsWindowGone(err error) bool {
	return errors.Is(err, ErrWindowNotFound) || errors.Is(err, ErrWindowClosed)
}
