package handler

import (
	"errors"
	"fmt"

	"agrointel-service/internal/model"
)

// User-facing error messages shared across handlers
var (
	errLatitudeRange      = errors.New("latitude must be between -90 and 90")
	errLongitudeRange     = errors.New("longitude must be between -180 and 180")
	errWeatherUnavailable = errors.New("failed to fetch weather data")
	errPredictionFailed   = errors.New("prediction failed")
	errAdvisorFailed      = errors.New("advisor call failed")
)

// Registration conflicts, both matchable as ErrDuplicateIdentifier
var (
	errTaxIDInUse = fmt.Errorf("this tax id is already registered: %w", model.ErrDuplicateIdentifier)
	errEmailInUse = fmt.Errorf("this email is already in use: %w", model.ErrDuplicateIdentifier)
)
