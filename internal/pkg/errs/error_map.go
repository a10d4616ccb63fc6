/*
Package errs provides custom error types and application-level error code constants.

This file maps every error code to its CustomError template, used to standardize
HTTP responses.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	ErrInvalidParams:    {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrNotFound:         {Code: ErrNotFound, Message: "Resource not found.", Status: http.StatusNotFound},
	ErrMethodNotAllowed: {Code: ErrMethodNotAllowed, Message: "Method not allowed.", Status: http.StatusMethodNotAllowed},

	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again later.", Status: http.StatusInternalServerError},
}
