package httpclient

import (
	"errors"
	"fmt"
)

// StatusError reports a non-2xx response. Only the numeric code
// is surfaced; the backend's error body is not interpreted.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error, status: %d", e.Code)
}

// StatusCode extracts the HTTP status from err, or 0 when err is
// not a *StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
