package errors

import (
	"errors"
)

// AsError attempts to convert an error to an *Error.
// Returns the Error and true if successful, nil and false otherwise.
// This function traverses the error chain using errors.As.
//
// Example:
//
//	if e, ok := errors.AsError(err); ok {
//	    log.Printf("error code: %s, message: %s", e.Code, e.Message)
//	}
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// GetCode returns the error code from an error.
// If the error is not an *Error or is nil, returns an empty string.
func GetCode(err error) Code {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// HasCode checks if an error has the specified error code.
// Returns false if the error is nil or not an *Error.
func HasCode(err error, code Code) bool {
	return GetCode(err) == code
}

// IsInvalidQuery checks if the error is an invalid-query error (QRY_xxx).
//
// Example:
//
//	if errors.IsInvalidQuery(err) {
//	    // return 400 with the normalized query text
//	}
func IsInvalidQuery(err error) bool {
	e, ok := AsError(err)
	return ok && e.Code.Category() == "QRY"
}

// IsInvalidParameter checks if the error is an invalid-parameter error
// (PARAM_xxx).
func IsInvalidParameter(err error) bool {
	e, ok := AsError(err)
	return ok && e.Code.Category() == "PARAM"
}

// IsAuthentication checks if the error is an authentication error (AUTH_xxx).
//
// Example:
//
//	if errors.IsAuthentication(err) {
//	    // return 401 Unauthorized
//	}
func IsAuthentication(err error) bool {
	e, ok := AsError(err)
	return ok && e.Code.Category() == "AUTH"
}

// IsDatabase checks if the error is a server-reported database error
// (DB_xxx). Database errors are the only kind the batch API captures per
// statement; every other kind aborts the batch.
func IsDatabase(err error) bool {
	e, ok := AsError(err)
	return ok && e.Code.Category() == "DB"
}

// IsTransport checks if the error is a transport error (TRANSPORT_xxx).
func IsTransport(err error) bool {
	e, ok := AsError(err)
	return ok && e.Code.Category() == "TRANSPORT"
}

// IsInternal checks if the error is an internal error (INT_xxx).
func IsInternal(err error) bool {
	e, ok := AsError(err)
	return ok && e.Code.Category() == "INT"
}

// IsClientError checks if the error maps to a 4xx HTTP status.
// Client errors include invalid queries, invalid parameters, and
// authentication failures.
func IsClientError(err error) bool {
	e, ok := AsError(err)
	if !ok {
		return false
	}
	switch e.Code.Category() {
	case "QRY", "PARAM", "AUTH":
		return true
	default:
		return false
	}
}

// IsServerError checks if the error maps to a 5xx HTTP status.
// Server errors include database, transport, and internal errors.
func IsServerError(err error) bool {
	e, ok := AsError(err)
	if !ok {
		return false
	}
	switch e.Code.Category() {
	case "DB", "TRANSPORT", "INT":
		return true
	default:
		return false
	}
}
