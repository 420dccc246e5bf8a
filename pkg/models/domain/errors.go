package domain

import "fmt"

// ConfigError reports invalid engine input (missing rules or configs,
// unknown severity names, malformed rc grammar). It is always returned
// before any rule starts executing.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return e.Reason
}

// NewConfigError builds a ConfigError from a format string.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// Failure marks a rule check that did not pass at some level. It is the
// recoverable branch of the outcome classification: captured and recorded
// on the rule's execution, never propagated as a crash.
type Failure struct {
	Message string
	// Payload carries the violation details the check produced, e.g. the
	// offending files or the measured value vs the configured threshold.
	Payload any
}

func (f *Failure) Error() string {
	return f.Message
}

// NewFailure builds a recoverable failure with an optional payload.
func NewFailure(message string, payload any) *Failure {
	return &Failure{Message: message, Payload: payload}
}

// Failuref builds a recoverable failure from a format string.
func Failuref(format string, args ...any) *Failure {
	return &Failure{Message: fmt.Sprintf(format, args...)}
}
