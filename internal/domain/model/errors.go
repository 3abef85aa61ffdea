package model

import "errors"

// Sentinel kinds for model validation errors.
var (
	ErrInvalidPosition  = errors.New("invalid position")
	ErrInvalidEventType = errors.New("invalid event type")
)
