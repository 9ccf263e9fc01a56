package strava

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized - the access token is invalid or expired
	ErrUnauthorized = errors.New("unauthorized: invalid or expired access token")
	// ErrRateLimited - strava request quota exceeded, the limit window resets every 15 minutes
	ErrRateLimited = errors.New("rate limited: strava API quota exceeded, please wait ~15 minutes and try again")
)

// RemoteError covers every other non-2xx reply from the strava API.
type RemoteError struct {
	StatusCode int
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("strava API error: status %d", e.StatusCode)
}

// NetworkError covers transport level failures (DNS, timeout, refused connection).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("strava API network error: %s", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
