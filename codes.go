package tmdb

import (
	"fmt"

	coreErrors "github.com/angelospk/tmdb-go/pkg/core/errors"
)

// Status codes reported in response payloads.
const (
	CodeSuccess              = 1
	CodeInvalidService       = 2
	CodeAuthenticationFailed = 3
	CodeInvalidFormat        = 4
	CodeInvalidParameters    = 5
	CodeInvalidPrerequisite  = 6
	CodeInvalidAPIKey        = 7
	CodeDuplicateEntry       = 8
	CodeServiceOffline       = 9
	CodeSuspendedAPIKey      = 10
	CodeInternalError        = 11
	CodeUpdated              = 12
	CodeDeleted              = 13
	CodeAuthFailed           = 14
	CodeFailed               = 15
	CodeDeviceDenied         = 16
	CodeSessionDenied        = 17
)

var statusMessages = map[int]string{
	CodeSuccess:              "Success.",
	CodeInvalidService:       "Invalid service - This service does not exist.",
	CodeAuthenticationFailed: "Authentication Failed - You do not have permissions to access the service.",
	CodeInvalidFormat:        "Invalid format - This service doesn't exist in that format.",
	CodeInvalidParameters:    "Invalid parameters - Your request parameters are incorrect.",
	CodeInvalidPrerequisite:  "Invalid pre-requisite id - The pre-requisite id is invalid or not found.",
	CodeInvalidAPIKey:        "Invalid API key - You must be granted a valid key.",
	CodeDuplicateEntry:       "Duplicate entry - The data you tried to submit already exists.",
	CodeServiceOffline:       "Service Offline - This service is temporarily offline. Try again later.",
	CodeSuspendedAPIKey:      "Suspended API key - Access to your account has been suspended, contact TMDb.",
	CodeInternalError:        "Internal error - Something went wrong. Contact TMDb.",
	CodeUpdated:              "The item/record was updated successfully.",
	CodeDeleted:              "The item/record was deleted successfully.",
	CodeAuthFailed:           "Authentication Failed.",
	CodeFailed:               "Failed.",
	CodeDeviceDenied:         "Device Denied.",
	CodeSessionDenied:        "Session Denied.",
}

// StatusMessage returns the human-readable text for a status code.
func StatusMessage(code int) string {
	if msg, ok := statusMessages[code]; ok {
		return msg
	}
	return fmt.Sprintf("Unknown status code %d.", code)
}

// IsSuccessCode reports whether code denotes a successful call.
func IsSuccessCode(code int) bool {
	return code == CodeSuccess || code == CodeUpdated || code == CodeDeleted
}

// StatusError is returned when the payload carries a non-success status code.
type StatusError struct {
	Method  string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb: %s failed with status %d: %s", e.Method, e.Code, e.Message)
}

// Is lets callers match status errors against the shared sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case coreErrors.ErrInvalidAPIKey:
		return e.Code == CodeInvalidAPIKey || e.Code == CodeSuspendedAPIKey
	case coreErrors.ErrUnauthorized:
		return e.Code == CodeAuthenticationFailed || e.Code == CodeAuthFailed ||
			e.Code == CodeDeviceDenied || e.Code == CodeSessionDenied
	case coreErrors.ErrInvalidParameters:
		return e.Code == CodeInvalidParameters || e.Code == CodeInvalidFormat
	case coreErrors.ErrNotFound:
		return e.Code == CodeInvalidPrerequisite
	case coreErrors.ErrServiceUnavailable:
		return e.Code == CodeServiceOffline || e.Code == CodeInternalError
	case coreErrors.ErrUnknownMethod:
		return e.Code == CodeInvalidService
	}
	return false
}

func newStatusError(method string, code int) *StatusError {
	return &StatusError{Method: method, Code: code, Message: StatusMessage(code)}
}

// TransportError wraps a network-level failure.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("tmdb: transport failure calling %s: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
