package errors

import "errors"

var (
	ErrInvalidRequest   = errors.New("invalid incident request")
	ErrIncidentNotFound = errors.New("incident not found")
)
