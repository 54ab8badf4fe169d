package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// GeofenceViolation is returned when a check-in happens outside the allowed
// radius around the class location. It carries the computed distance so the
// caller can tell the user how far off they are.
type GeofenceViolation struct {
	DistanceMeters float64
	RadiusMeters   float64
}

func NewGeofenceViolation(distance, radius float64) error {
	return &GeofenceViolation{DistanceMeters: distance, RadiusMeters: radius}
}

func (err GeofenceViolation) Error() string {
	return "device is outside the class geofence"
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
