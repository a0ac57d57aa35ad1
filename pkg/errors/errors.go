// Package errors provides the structured error types used throughout the
// bolt-gateway. It defines the gateway's error taxonomy, machine-readable
// error codes, and helpers for creating, wrapping, and classifying errors
// on their way from the Bolt driver back to the HTTP surface.
//
// # Error Taxonomy
//
// Every failure in the query pipeline falls into one of six kinds:
//
//   - Invalid query: the statement failed Cypher compilation (EXPLAIN
//     reported a syntax error). Never retried, surfaced as HTTP 400.
//   - Invalid parameter: a JSON parameter failed codec validation (unknown
//     $type tag, non-string literal, unparseable literal). HTTP 400.
//   - Authentication: Basic credentials were rejected by both the service
//     identity and the impersonation probe. HTTP 401.
//   - Database: any other server-reported error. In the batch API these are
//     captured per statement; in the streaming API they terminate the
//     response.
//   - Transport: the Bolt connection was lost (dial, DNS, TLS). HTTP 500.
//   - Internal: unexpected gateway failures and configuration problems.
//
// # Error Codes
//
// Each error carries a machine-readable code (e.g. "QRY_001") following the
// pattern CATEGORY_XXX. The category determines the HTTP status via
// [Error.HTTPStatus].
//
// # Usage
//
// Create a new error:
//
//	err := errors.New(errors.CodeInvalidParameter, "unknown type tag")
//
// Wrap a driver error:
//
//	err := errors.Wrap(err, errors.CodeDatabase, "statement failed")
//
// Classify at the HTTP boundary:
//
//	if errors.IsInvalidQuery(err) {
//	    // respond 400 with the normalized query text
//	}
package errors
