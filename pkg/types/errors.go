package types

import (
	"errors"
	"fmt"
)

// Domain errors for knowledge validation
var (
	ErrTitleRequired       = errors.New("title is required")
	ErrContentRequired     = errors.New("content is required")
	ErrInvalidScope        = errors.New("scope must be one of global, project, all")
	ErrProjectPathRequired = errors.New("project_path is required for project scope")
	ErrMissingID           = errors.New("record has no id")
	ErrIncompatibleSchema  = errors.New("record schema version is not supported")
)

// ValidationError reports a caller-supplied field that failed validation
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is, or wraps, a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
