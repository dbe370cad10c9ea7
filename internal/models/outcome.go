package models

import (
	"errors"
	"time"
)

// Step statuses
const (
	StatusOK     = "ok"
	StatusCaught = "caught" // the step demonstrated an engine error and recovered
	StatusFailed = "failed"
)

// StepOutcome records how a single tutorial step ended
type StepOutcome struct {
	Index     int           `json:"index"`
	Name      string        `json:"name"`
	Status    string        `json:"status"`
	ErrorKind string        `json:"error_kind,omitempty"` // TypeMismatch, SchemaMismatch, IncompatibleCast, ShapeMismatch
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Validate checks that all outcome fields are valid
func (o *StepOutcome) Validate() error {
	if o.Name == "" {
		return errors.New("step name must not be empty")
	}
	if o.Index < 0 {
		return errors.New("step index must be non-negative")
	}
	switch o.Status {
	case StatusOK:
	case StatusCaught:
		if o.ErrorKind == "" {
			return errors.New("caught step must record an error kind")
		}
	case StatusFailed:
		if o.Message == "" {
			return errors.New("failed step must record a message")
		}
	default:
		return errors.New("status must be 'ok', 'caught' or 'failed'")
	}
	if o.Duration < 0 {
		return errors.New("duration must be non-negative")
	}
	return nil
}
