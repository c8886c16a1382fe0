package remote

import "errors"

var (
	// ErrUnavailable means the remote store could not be reached or answered
	// with a server error. Sync treats it as a transient condition.
	ErrUnavailable = errors.New("remote store unavailable")
	// ErrUnauthorized means the access token was rejected.
	ErrUnauthorized = errors.New("unauthorized")
)
