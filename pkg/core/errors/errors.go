package errors

import "errors"

// API-related errors
var (
	ErrMissingAPIKey      = errors.New("tmdb: api key is not configured")
	ErrUnknownMethod      = errors.New("tmdb: method is not supported")
	ErrInvalidAPIKey      = errors.New("tmdb: invalid or suspended api key")
	ErrUnauthorized       = errors.New("tmdb: authentication failed")
	ErrInvalidParameters  = errors.New("tmdb: invalid request parameters")
	ErrNotFound           = errors.New("tmdb: resource not found")
	ErrRateLimited        = errors.New("tmdb: rate limit exceeded")
	ErrServiceUnavailable = errors.New("tmdb: service unavailable or internal server error")
	ErrMalformedPayload   = errors.New("tmdb: malformed response payload")
	ErrNoSession          = errors.New("tmdb: no session key, write calls need one")
)

// Host and workflow errors
var (
	ErrItemNotFound = errors.New("host: item not found")
	ErrForbidden    = errors.New("host: missing edit capability")
	ErrInvalidNonce = errors.New("host: invalid or expired security token")
)

// Sideload errors
var (
	ErrNotAnImage      = errors.New("sideload: downloaded content is not an image")
	ErrInFlight        = errors.New("sideload: a task is already in flight for this item")
	ErrQueueDone       = errors.New("sideload: no tasks left in session")
	ErrNoQueueSession  = errors.New("sideload: no session started for this item")
	ErrSessionFinished = errors.New("sideload: session already reported")
)
