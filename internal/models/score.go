package models

import (
	"errors"
	"fmt"
	"math"
)

// RegimeScore holds the normalized metrics of one dietary regime.
// A nil value marks a metric that could not be computed (NaN).
type RegimeScore struct {
	Regime  string              `json:"regime"`
	Metrics map[string]*float64 `json:"metrics"`
}

// NewRegimeScore builds a score from raw values, mapping NaN to nil
func NewRegimeScore(regime string, values map[string]float64) RegimeScore {
	metrics := make(map[string]*float64, len(values))
	for name, v := range values {
		if math.IsNaN(v) {
			metrics[name] = nil
			continue
		}
		v := v
		metrics[name] = &v
	}
	return RegimeScore{Regime: regime, Metrics: metrics}
}

// Value returns the metric value, NaN when missing.
func (s *RegimeScore) Value(metric string) float64 {
	if v := s.Metrics[metric]; v != nil {
		return *v
	}
	return math.NaN()
}

// Validate checks that all score fields are valid
func (s *RegimeScore) Validate() error {
	if s.Regime == "" {
		return errors.New("regime must not be empty")
	}
	if len(s.Metrics) == 0 {
		return errors.New("score must contain at least one metric")
	}
	for name, v := range s.Metrics {
		if name == "" {
			return errors.New("metric name must not be empty")
		}
		if v != nil && (math.IsInf(*v, 0) || math.IsNaN(*v)) {
			return fmt.Errorf("metric %s must be finite", name)
		}
	}
	return nil
}
