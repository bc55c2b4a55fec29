package validator

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyLocation indicates the location text has nothing to resolve
	ErrEmptyLocation = errors.New("location cannot be empty")

	// ErrInvalidRequestFormat indicates a route request without exactly one ";" separator
	ErrInvalidRequestFormat = errors.New(`request must be of the form "source;destination"`)
)

const (
	// FuzzySentinel marks location text that describes a place rather than naming a busstop
	FuzzySentinel = '*'

	areaSeparator    = ","
	requestSeparator = ";"
)

// LocationValidator validates and normalizes rider-typed location text
type LocationValidator struct{}

// NewLocationValidator creates a new location validator instance
func NewLocationValidator() *LocationValidator {
	return &LocationValidator{}
}

// Sanitize lower-cases location text and trims whitespace around the area separator,
// so "Ojuelegba , Surulere " becomes "ojuelegba,surulere"
func (v *LocationValidator) Sanitize(raw string) string {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(raw)), areaSeparator)
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return strings.Join(parts, areaSeparator)
}

// Parse splits location text into its target and area.
// A leading FuzzySentinel is stripped and reported through fuzzy.
// Text after a second comma is ignored; a missing area is returned as "".
func (v *LocationValidator) Parse(raw string) (target, area string, fuzzy bool, err error) {
	location := v.Sanitize(raw)
	if location == "" {
		return "", "", false, ErrEmptyLocation
	}

	if location[0] == FuzzySentinel {
		fuzzy = true
		location = strings.TrimSpace(location[1:])
	}

	parts := strings.Split(location, areaSeparator)
	target = parts[0]
	if len(parts) > 1 {
		area = parts[1]
	}
	if target == "" {
		return "", "", fuzzy, ErrEmptyLocation
	}

	return target, area, fuzzy, nil
}

// SplitRequest splits a raw "source;destination" message into its two locations
func (v *LocationValidator) SplitRequest(message string) (string, string, error) {
	parts := strings.Split(message, requestSeparator)
	if len(parts) != 2 {
		return "", "", ErrInvalidRequestFormat
	}

	source := strings.TrimSpace(parts[0])
	destination := strings.TrimSpace(parts[1])
	if source == "" || destination == "" {
		return "", "", ErrInvalidRequestFormat
	}

	return source, destination, nil
}

// IsValid is a convenience method that returns true if location text can be parsed
func (v *LocationValidator) IsValid(raw string) bool {
	_, _, _, err := v.Parse(raw)
	return err == nil
}
