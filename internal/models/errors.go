package models

import (
	"fmt"
)

// ErrEmptyLocation is returned when raw location text has nothing to resolve
var ErrEmptyLocation = ErrInvalidInput("location is required")

// ErrInvalidInput creates a validation error
func ErrInvalidInput(message string) error {
	return &ValidationError{Message: message}
}

// ValidationError represents a validation error
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// FormatError is returned when a route request is not of the form "source;destination"
type FormatError struct {
	Request string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("request %q is in an invalid format, expected \"source;destination\"", e.Request)
}

// DuplicateStopError reports a stop that appears more than once in a single route.
// It means the route data is corrupt and the request cannot be answered.
type DuplicateStopError struct {
	RouteID  int64
	StopID   int64
	StopName string
	Count    int
}

func (e *DuplicateStopError) Error() string {
	return fmt.Sprintf("route %d contains busstop %d (%s) %d times", e.RouteID, e.StopID, e.StopName, e.Count)
}
