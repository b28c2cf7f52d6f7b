package request

import "errors"

var (
	// ErrInternalServer is returned to the client when something unexpected happens.
	ErrInternalServer = errors.New("internal server error")

	// ErrUnauthorized is returned when the request has no valid session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the session does not have access to the resource.
	ErrForbidden = errors.New("access denied")

	// ErrTooManyRequests is returned when the session is rate limited.
	ErrTooManyRequests = errors.New("too many requests")
)
