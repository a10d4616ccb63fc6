/*
Package errs provides custom error types and application-level error code constants.

These codes identify specific request-handling failures both in server logs and in
responses sent to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrNotFound indicates that the requested route does not exist.
	ErrNotFound = 1002

	// ErrMethodNotAllowed indicates an unsupported HTTP method for the route.
	ErrMethodNotAllowed = 1003
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified server internal error.
	ErrUnknown = 5000
)
