package client

import (
	"errors"
	"fmt"
)

// ErrNotInitialized is returned by calls on a nil Client.
var ErrNotInitialized = errors.New("leaderboard client not initialized")

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("leaderboard api: status %d", e.Status)
	}
	return fmt.Sprintf("leaderboard api: status %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
