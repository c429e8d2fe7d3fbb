package service

import "fmt"

// ValidationError means a referenced entity is missing or invalid. Jobs
// failing this way are terminal; nothing external will fix them by retrying.
type ValidationError struct {
	msg string
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return e.msg
}

// ExternalServiceError wraps a failure of a consumed capability (content
// generation, image generation, platform publishing). Retrying requires a
// fresh job.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// SkipResult is a structured scheduling skip. It is a job result, not an
// error: the site was not due, had nothing to post, or already posted this
// period, and no state was changed.
type SkipResult struct {
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason"`
}
