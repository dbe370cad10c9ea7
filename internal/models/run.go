// Package models defines the records produced by a tutorial run.
// A Run collects the outcome of every step and the regime scores of the
// final report; runs are what the storage archive persists.
// All models include built-in validation to ensure data integrity throughout the application.
package models

import (
	"errors"
	"fmt"
	"time"
)

// Run is the archived result of one execution of the walkthrough.
type Run struct {
	ID         string        `json:"id"`
	Source     string        `json:"source"` // CSV path or URL the run loaded
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Steps      []StepOutcome `json:"steps"`
	Scores     []RegimeScore `json:"scores,omitempty"`
	Report     string        `json:"report,omitempty"` // Markdown z-score table
}

// Validate checks that all run fields are valid.
func (r *Run) Validate() error {
	if r.ID == "" {
		return errors.New("run ID must not be empty")
	}
	if r.Source == "" {
		return errors.New("run source must not be empty")
	}
	if r.StartedAt.IsZero() {
		return errors.New("started at must be set")
	}
	if r.StartedAt.After(time.Now()) {
		return errors.New("started at must not be in the future")
	}
	if !r.FinishedAt.IsZero() && r.FinishedAt.Before(r.StartedAt) {
		return errors.New("finished at must not be before started at")
	}
	for i := range r.Steps {
		if err := r.Steps[i].Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	for i := range r.Scores {
		if err := r.Scores[i].Validate(); err != nil {
			return fmt.Errorf("score %d: %w", i, err)
		}
	}
	return nil
}

// Failed reports whether any step aborted the run.
func (r *Run) Failed() bool {
	for _, s := range r.Steps {
		if s.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Caught returns the steps whose demonstrated error was caught.
func (r *Run) Caught() []StepOutcome {
	var out []StepOutcome
	for _, s := range r.Steps {
		if s.Status == StatusCaught {
			out = append(out, s)
		}
	}
	return out
}
