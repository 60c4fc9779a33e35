package scheduler

import "errors"

// Module-specific errors for scheduler module.
var (
	ErrUnknownJob       = errors.New("job is not configured")
	ErrNoHandler        = errors.New("job has no handler")
	ErrHandlerExists    = errors.New("job already has a handler")
	ErrInvalidSchedule  = errors.New("invalid job schedule")
	ErrInvalidLocation  = errors.New("invalid time zone")
	ErrSchedulerMissing = errors.New("scheduler is not initialized")
)
