package backend

import "fmt"

// ShapeError reports a successful response whose payload does not
// have the expected shape: not an object, a missing envelope
// field, or a field of the wrong type.
type ShapeError struct {
	Endpoint string
	Field    string
	Reason   string
	Err      error
}

func (e *ShapeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid response format from %s: %s", e.Endpoint, e.Reason)
	}
	return fmt.Sprintf("invalid response format from %s: %s %s", e.Endpoint, e.Field, e.Reason)
}

func (e *ShapeError) Unwrap() error { return e.Err }

// Detail describes the problem without the endpoint, for display
// next to the affected list.
func (e *ShapeError) Detail() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + " " + e.Reason
}
