// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package vnc

import (
	"errors"
	"fmt"
)

// ErrorCode represents the behavioural category of a protocol-level error.
// The set and names are fixed by the RFB core's error taxonomy; they
// describe what went wrong, not which Go type raised it.
type ErrorCode int

const (
	// CodeInvalidValue indicates a primitive assignment out of range, or a
	// malformed enum value at encode time.
	CodeInvalidValue ErrorCode = iota
	// CodeInvalidExpectedData indicates received bytes do not match a known
	// constant where one is required (unknown server order type, unsupported
	// encoding).
	CodeInvalidExpectedData
	// CodeNegotiationFailure indicates no mutually supported protocol
	// version or security scheme could be agreed with the peer.
	CodeNegotiationFailure
	// CodeInvalidSize indicates a stream read requested more bytes than the
	// buffer held. Under correct dispatcher use this never happens; seeing
	// it is a dispatcher bug.
	CodeInvalidSize
	// CodeInvalidType indicates a composite field type mismatch at wiring
	// time.
	CodeInvalidType
	// CodeErrorReportedFromPeer indicates the security result was failure;
	// carries the server-supplied reason string on protocol 3.8.
	CodeErrorReportedFromPeer
	// CodeDisconnectLayer indicates a send was attempted after the
	// transport closed.
	CodeDisconnectLayer
	// CodeUnregisteredObject indicates an observer method was invoked
	// before the observer was attached to a controller.
	CodeUnregisteredObject
)

// String returns the string representation of the error code.
func (e ErrorCode) String() string {
	switch e {
	case CodeInvalidValue:
		return "invalid_value"
	case CodeInvalidExpectedData:
		return "invalid_expected_data"
	case CodeNegotiationFailure:
		return "negotiation_failure"
	case CodeInvalidSize:
		return "invalid_size"
	case CodeInvalidType:
		return "invalid_type"
	case CodeErrorReportedFromPeer:
		return "error_reported_from_peer"
	case CodeDisconnectLayer:
		return "disconnect_layer"
	case CodeUnregisteredObject:
		return "unregistered_object"
	default:
		return "unknown"
	}
}

// VNCError provides structured error information with operation context,
// an error code, and message wrapping for comprehensive error handling.
type VNCError struct {
	Op      string
	Code    ErrorCode
	Message string
	Err     error
}

// Error returns the formatted error message.
func (e *VNCError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vnc %s: %s: %s: %v", e.Code.String(), e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("vnc %s: %s: %s", e.Code.String(), e.Op, e.Message)
}

// Unwrap returns the underlying error for error chain unwrapping.
func (e *VNCError) Unwrap() error {
	return e.Err
}

// Is reports whether this error matches the target error.
func (e *VNCError) Is(target error) bool {
	var vncErr *VNCError
	if errors.As(target, &vncErr) {
		return e.Code == vncErr.Code && e.Op == vncErr.Op
	}
	return false
}

// NewVNCError creates a new VNCError with the specified parameters.
func NewVNCError(op string, code ErrorCode, message string, err error) *VNCError {
	return &VNCError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WrapError wraps an existing error with VNC-specific context.
// Returns nil if the input error is nil, otherwise creates a new VNCError.
func WrapError(op string, code ErrorCode, message string, err error) error {
	if err == nil {
		return nil
	}
	return &VNCError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsVNCError checks if an error is a VNCError and optionally matches specific
// error codes. If no codes are provided, returns true for any VNCError.
func IsVNCError(err error, code ...ErrorCode) bool {
	var vncErr *VNCError
	if !errors.As(err, &vncErr) {
		return false
	}

	if len(code) == 0 {
		return true
	}

	for _, c := range code {
		if vncErr.Code == c {
			return true
		}
	}
	return false
}

// GetErrorCode extracts the error code from a VNCError.
// Returns -1 if the error is not a VNCError.
func GetErrorCode(err error) ErrorCode {
	var vncErr *VNCError
	if errors.As(err, &vncErr) {
		return vncErr.Code
	}
	return ErrorCode(-1)
}

func invalidValueError(op, message string, err error) error {
	return NewVNCError(op, CodeInvalidValue, message, err)
}

func invalidExpectedDataError(op, message string, err error) error {
	return NewVNCError(op, CodeInvalidExpectedData, message, err)
}

func negotiationFailureError(op, message string, err error) error {
	return NewVNCError(op, CodeNegotiationFailure, message, err)
}

func invalidSizeError(op, message string, err error) error {
	return NewVNCError(op, CodeInvalidSize, message, err)
}

func invalidTypeError(op, message string, err error) error {
	return NewVNCError(op, CodeInvalidType, message, err)
}

func errorReportedFromPeer(op, message string, err error) error {
	return NewVNCError(op, CodeErrorReportedFromPeer, message, err)
}

func disconnectLayerError(op, message string, err error) error {
	return NewVNCError(op, CodeDisconnectLayer, message, err)
}

func unregisteredObjectError(op, message string, err error) error {
	return NewVNCError(op, CodeUnregisteredObject, message, err)
}
