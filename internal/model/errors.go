package model

import "errors"

// Domain errors shared across handlers and services.
var (
	// ErrNotFound covers both a missing entity and an entity owned by
	// another farm; callers must not be able to tell the two apart.
	ErrNotFound = errors.New("not found")

	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrDuplicateIdentifier = errors.New("duplicate identifier")

	// ErrUpstreamUnavailable marks a weather provider network/HTTP failure.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrAdvisorNotConfigured is returned when no advisor API key is set.
	ErrAdvisorNotConfigured = errors.New("advisor not configured")
	ErrAdvisorFailed        = errors.New("advisor call failed")

	// ErrModelUnavailable means the classifier artifact could not be
	// loaded. Fatal at startup.
	ErrModelUnavailable = errors.New("crop model unavailable")
)
