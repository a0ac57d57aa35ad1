package errors

import (
	"errors"
	"fmt"
)

// New creates a new Error with the specified code and message.
// Use this for creating errors without an underlying cause.
//
// Example:
//
//	err := errors.New(errors.CodeInvalidParameter, "parameters must be a JSON object")
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with the specified code and formatted message.
// Use this for creating errors with dynamic content in the message.
//
// Example:
//
//	err := errors.Newf(errors.CodeUnknownTypeTag, "unknown type tag %q", tag)
func Newf(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context.
// The wrapped error becomes the Cause of the new error.
// If err is nil, Wrap returns nil.
//
// Example:
//
//	summary, err := result.Consume(ctx)
//	if err != nil {
//	    return errors.Wrap(err, errors.CodeDatabase, "failed to consume result")
//	}
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with a formatted message.
// The wrapped error becomes the Cause of the new error.
// If err is nil, Wrapf returns nil.
//
// Example:
//
//	err := errors.Wrapf(err, errors.CodeDatabase, "statement %d failed", i)
func Wrapf(err error, code Code, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// InvalidQuery creates a new invalid-query error. The message is the
// normalized query text, per the gateway's HTTP error contract.
//
// Example:
//
//	err := errors.InvalidQuery("MATCH n RETURN n")
func InvalidQuery(normalizedText string) *Error {
	return New(CodeInvalidQuery, normalizedText)
}

// InvalidParameter creates a new invalid-parameter error.
//
// Example:
//
//	err := errors.InvalidParameter("parameter list elements must be scalar")
func InvalidParameter(message string) *Error {
	return New(CodeInvalidParameter, message)
}

// InvalidParameterf creates a new invalid-parameter error with a formatted
// message.
func InvalidParameterf(format string, args ...any) *Error {
	return Newf(CodeInvalidParameter, format, args...)
}

// Unauthorized creates a new authentication error.
// Use this when Basic credentials are rejected.
//
// Example:
//
//	err := errors.Unauthorized("invalid credentials")
func Unauthorized(message string) *Error {
	return New(CodeAuthentication, message)
}

// Database creates a new database error for a server-reported failure.
//
// Example:
//
//	err := errors.Database("constraint violation")
func Database(message string) *Error {
	return New(CodeDatabase, message)
}

// Transport creates a new transport error for a lost Bolt connection.
func Transport(message string) *Error {
	return New(CodeTransport, message)
}

// Internal creates a new internal error.
// Use this for unexpected gateway failures that should not expose details
// to clients.
//
// Example:
//
//	err := errors.Internal("an unexpected error occurred")
func Internal(message string) *Error {
	return New(CodeInternal, message)
}

// Internalf creates a new internal error with a formatted message.
func Internalf(format string, args ...any) *Error {
	return Newf(CodeInternal, format, args...)
}

// FromError converts a standard error to an Error.
// If the error is already an *Error, it is returned as-is.
// Otherwise, it is wrapped as an internal error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return Wrap(err, CodeInternal, "an unexpected error occurred")
}
