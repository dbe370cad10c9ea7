package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestStepOutcomeValidate(t *testing.T) {
	tests := []struct {
		name    string
		outcome StepOutcome
		wantErr bool
	}{
		{
			name:    "valid ok step",
			outcome: StepOutcome{Index: 0, Name: "construct", Status: StatusOK},
			wantErr: false,
		},
		{
			name:    "valid caught step",
			outcome: StepOutcome{Index: 2, Name: "strict-mismatch", Status: StatusCaught, ErrorKind: "TypeMismatch", Message: "type mismatch"},
			wantErr: false,
		},
		{
			name:    "empty name",
			outcome: StepOutcome{Status: StatusOK},
			wantErr: true,
		},
		{
			name:    "caught without kind",
			outcome: StepOutcome{Name: "conversions", Status: StatusCaught},
			wantErr: true,
		},
		{
			name:    "failed without message",
			outcome: StepOutcome{Name: "load", Status: StatusFailed},
			wantErr: true,
		},
		{
			name:    "unknown status",
			outcome: StepOutcome{Name: "load", Status: "skipped"},
			wantErr: true,
		},
		{
			name:    "negative duration",
			outcome: StepOutcome{Name: "load", Status: StatusOK, Duration: -time.Second},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.outcome.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegimeScore(t *testing.T) {
	s := NewRegimeScore("pirate", map[string]float64{
		"vitamin_c":   -0.42,
		"vitamin_b12": math.NaN(),
	})
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if s.Metrics["vitamin_b12"] != nil {
		t.Error("NaN metric should be stored as nil")
	}
	if got := s.Value("vitamin_c"); got != -0.42 {
		t.Errorf("Value(vitamin_c) = %v, want -0.42", got)
	}
	if !math.IsNaN(s.Value("vitamin_b12")) || !math.IsNaN(s.Value("unknown")) {
		t.Error("missing metrics should read as NaN")
	}

	// NaN must not break JSON persistence
	if _, err := json.Marshal(s); err != nil {
		t.Errorf("Marshal() error = %v", err)
	}

	inf := math.Inf(1)
	bad := RegimeScore{Regime: "raw", Metrics: map[string]*float64{"vitamin_c": &inf}}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for infinite metric")
	}
	if err := (&RegimeScore{Regime: "raw"}).Validate(); err == nil {
		t.Error("expected error for empty metrics")
	}
}

func TestRunValidate(t *testing.T) {
	now := time.Now()
	valid := func() Run {
		return Run{
			ID:         "run-1",
			Source:     "./testdata/swiss-food.csv",
			StartedAt:  now.Add(-time.Second),
			FinishedAt: now,
			Steps: []StepOutcome{
				{Index: 0, Name: "construct", Status: StatusOK},
				{Index: 1, Name: "strict-mismatch", Status: StatusCaught, ErrorKind: "TypeMismatch"},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(r *Run)
		wantErr bool
	}{
		{"valid run", func(r *Run) {}, false},
		{"empty ID", func(r *Run) { r.ID = "" }, true},
		{"empty source", func(r *Run) { r.Source = "" }, true},
		{"future start", func(r *Run) { r.StartedAt = now.Add(time.Hour); r.FinishedAt = time.Time{} }, true},
		{"finish before start", func(r *Run) { r.FinishedAt = r.StartedAt.Add(-time.Minute) }, true},
		{"invalid step", func(r *Run) { r.Steps[0].Name = "" }, true},
		{"invalid score", func(r *Run) { r.Scores = []RegimeScore{{Regime: ""}} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.mutate(&r)
			err := r.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunStatusHelpers(t *testing.T) {
	r := Run{Steps: []StepOutcome{
		{Name: "construct", Status: StatusOK},
		{Name: "strict-mismatch", Status: StatusCaught, ErrorKind: "TypeMismatch"},
	}}
	if r.Failed() {
		t.Error("run without failed steps reported as failed")
	}
	if got := len(r.Caught()); got != 1 {
		t.Errorf("Caught() returned %d steps, want 1", got)
	}

	r.Steps = append(r.Steps, StepOutcome{Name: "load", Status: StatusFailed, Message: "no such file"})
	if !r.Failed() {
		t.Error("run with failed step not reported as failed")
	}
}
