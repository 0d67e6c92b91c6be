package domain

import "errors"

// Common domain errors
var (
	ErrConfigInvalid      = errors.New("invalid configuration")
	ErrMissingAppID       = errors.New("replay app id not configured")
	ErrPlaceholderAppID   = errors.New("replay app id is the placeholder value")
	ErrNotInitialized     = errors.New("replay SDK not initialized")
	ErrAlreadyInitialized = errors.New("replay SDK already initialized")
	ErrInitFailed         = errors.New("replay SDK initialization failed earlier")
	ErrInvalidTag         = errors.New("invalid replay tag")
	ErrSDKPanic           = errors.New("replay SDK panicked")
)

// DomainError wraps errors with additional context.
//
//nolint:revive // Name is intentionally verbose to distinguish domain-layer errors
type DomainError struct {
	Err     error
	Code    string
	Message string
	Details map[string]any
}

func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewTagError reports a tag whose value does not match its declared type.
func NewTagError(name string, typ TagType, value any) *DomainError {
	return &DomainError{
		Err:     ErrInvalidTag,
		Code:    "INVALID_TAG",
		Message: "invalid replay tag " + name + ": value does not match type " + string(typ),
		Details: map[string]any{
			"name":  name,
			"type":  string(typ),
			"value": value,
		},
	}
}
