package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrGoalNotFound  = errors.New("training goal not found")
	ErrUnknownDriver = errors.New("unknown store driver")
)
