package errors

// Code represents a machine-readable error code for categorizing errors.
// Error codes follow the pattern CATEGORY_XXX where CATEGORY is a short
// identifier (e.g., QRY, AUTH, DB) and XXX is a three-digit numeric code.
//
// Error codes are designed to be:
//   - Stable: Codes do not change once assigned
//   - Unique: Each error condition has a distinct code
//   - Machine-readable: Suitable for automated error handling
type Code string

// Error code categories and their HTTP mappings:
//
//	QRY_xxx       - Invalid query (400 Bad Request)
//	PARAM_xxx     - Invalid parameter (400 Bad Request)
//	AUTH_xxx      - Authentication errors (401 Unauthorized)
//	DB_xxx        - Server-reported database errors (500)
//	TRANSPORT_xxx - Bolt connection errors (500)
//	INT_xxx       - Internal gateway errors (500)
const (
	// Invalid query (QRY_xxx) - HTTP 400
	// Used when EXPLAIN reports a Cypher compilation failure.

	// CodeInvalidQuery indicates the statement failed Cypher compilation.
	// The error message carries the normalized query text so the HTTP
	// layer can echo it back to the client.
	CodeInvalidQuery Code = "QRY_001"

	// Invalid parameter (PARAM_xxx) - HTTP 400
	// Used when a JSON parameter fails type-codec validation.

	// CodeInvalidParameter indicates a general parameter mapping failure.
	CodeInvalidParameter Code = "PARAM_001"

	// CodeUnknownTypeTag indicates an unrecognized $type tag on a
	// parameter wrapper. The message enumerates the supported tags.
	CodeUnknownTypeTag Code = "PARAM_002"

	// CodeInvalidTypeLiteral indicates a _value that is not a string or
	// does not parse according to its tag's literal format.
	CodeInvalidTypeLiteral Code = "PARAM_003"

	// Authentication (AUTH_xxx) - HTTP 401
	// Used when Basic credentials are rejected.

	// CodeAuthentication indicates the credentials matched neither the
	// service identity nor a database user via the impersonation probe.
	CodeAuthentication Code = "AUTH_001"

	// CodeAuthenticationMissing indicates the request carried no Basic
	// authorization header.
	CodeAuthenticationMissing Code = "AUTH_002"

	// CodeImpersonationUnavailable indicates the impersonation helper
	// function is not installed on the database.
	CodeImpersonationUnavailable Code = "AUTH_003"

	// Database (DB_xxx) - HTTP 500, captured per statement in batch mode.
	// Used for any other server-reported error.

	// CodeDatabase indicates a server-reported query execution failure.
	CodeDatabase Code = "DB_001"

	// Transport (TRANSPORT_xxx) - HTTP 500
	// Used when the Bolt connection is lost.

	// CodeTransport indicates a lost Bolt connection (dial, DNS, TLS).
	CodeTransport Code = "TRANSPORT_001"

	// CodeTransportTimeout indicates the operation exceeded the driver's
	// deadline before the server answered.
	CodeTransportTimeout Code = "TRANSPORT_002"

	// Internal (INT_xxx) - HTTP 500
	// Used for unexpected gateway failures.

	// CodeInternal indicates a general internal error.
	CodeInternal Code = "INT_001"

	// CodeInternalConfiguration indicates a configuration error.
	CodeInternalConfiguration Code = "INT_003"
)

// String returns the string representation of the error code.
func (c Code) String() string {
	return string(c)
}

// Category returns the category prefix of the error code (e.g., "QRY", "DB").
func (c Code) Category() string {
	s := string(c)
	for i, r := range s {
		if r == '_' {
			return s[:i]
		}
	}
	return s
}
