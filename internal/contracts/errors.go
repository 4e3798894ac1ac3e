package contracts

import "errors"

var (
	ErrNotFound             = errors.New("contract not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrTooLarge             = errors.New("file exceeds upload limit")
	ErrStorage              = errors.New("object storage failure")
	ErrAlreadyScheduled     = errors.New("contract run already queued or running")
	ErrSchedulerUnavailable = errors.New("scheduler unavailable")
)

const (
	ErrorCodeValidation  = "VALIDATION_ERROR"
	ErrorCodeNotFound    = "NOT_FOUND"
	ErrorCodeConflict    = "CONFLICT"
	ErrorCodeTooLarge    = "PAYLOAD_TOO_LARGE"
	ErrorCodeUnavailable = "SERVICE_UNAVAILABLE"
	ErrorCodeStorage     = "STORAGE_ERROR"
	ErrorCodeInternal    = "INTERNAL_ERROR"
)
