package api

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized = errors.New("api: unauthorized")
	ErrNotFound     = errors.New("api: not found")
)

// Error is a response envelope with success=false, carrying the server's
// message verbatim.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.StatusCode)
}

// IsUnauthorized reports whether err is a 401, from either the sentinel
// or an envelope error.
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == 401
}
