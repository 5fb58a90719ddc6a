package server

import "fmt"

// StartupError prevents the service from serving: the model file is missing,
// holds no artifact, or holds an artifact that was never fitted.
type StartupError struct {
	Path   string
	Reason string
	Err    error
}

func (e *StartupError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cannot serve model %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("cannot serve model %s: %s: %v", e.Path, e.Reason, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// Validation failure reasons, used as metric labels.
const (
	reasonBody       = "body"
	reasonEmpty      = "empty"
	reasonVocabulary = "vocabulary"
)

// ValidationError is a rejected prediction request. Detail is returned to the
// caller verbatim.
type ValidationError struct {
	Reason string
	Detail string
	Err    error
}

func (e *ValidationError) Error() string {
	return e.Detail
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
