package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidWeight = errors.New("weight must be between 0 and 100")
	ErrEmptyPayload  = errors.New("payload must not be empty")
	ErrRateLimited   = errors.New("submission rate limit exceeded, try again later")
)
