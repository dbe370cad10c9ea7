package nutrition

import (
	"fmt"
	"math"

	"github.com/rewired-gh/nutriframe/internal/frame"
)

// Source columns of the food-composition dataset.
const (
	ColEPA         = "Eicosapentaenoic acid EPA (g)"
	ColDHA         = "Docosahexaenoic acid (DHA) (g)"
	ColALA         = "Alpha-linolenic acid (g)"
	ColLinoleic    = "Linoleic acid (g)"
	ColCholesterol = "Cholesterol (mg)"
)

// ratioEpsilon keeps ratio denominators away from zero.
const ratioEpsilon = 1e-6

// Metric is a named per-row nutrient expression.
type Metric struct {
	Name string
	Eval func(f *frame.Frame) (*frame.Series, error)
}

// Metrics returns the regime metrics in report order.
func Metrics() []Metric {
	return []Metric{
		{"vitamin_c", firstContaining("vitamin_c", "Vitamin C")},
		{"vitamin_b12", firstContaining("vitamin_b12", "Vitamin B12")},
		{"omega3_per_cholesterol", omega3PerCholesterol},
		{"omega6_per_omega3", omega6PerOmega3},
	}
}

// MetricNames returns the names of Metrics in order.
func MetricNames() []string {
	ms := Metrics()
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.Name
	}
	return names
}

func firstContaining(alias, substr string) func(*frame.Frame) (*frame.Series, error) {
	return func(f *frame.Frame) (*frame.Series, error) {
		names, err := frame.Contains(substr).Resolve(f.Schema())
		if err != nil {
			return nil, err
		}
		if len(names) == 0 {
			return nil, fmt.Errorf("metric %s: no column contains %q: %w", alias, substr, frame.ErrSchemaMismatch)
		}
		c, err := f.Column(names[0])
		if err != nil {
			return nil, err
		}
		return c.MapFloat(alias, func(v float64) float64 { return v }), nil
	}
}

func columns(f *frame.Frame, names ...string) ([]*frame.Series, error) {
	out := make([]*frame.Series, len(names))
	for i, n := range names {
		c, err := f.Column(n)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// Omega3 is EPA + DHA + ALA. A null in any term makes the row null.
func Omega3(f *frame.Frame) (*frame.Series, error) {
	cols, err := columns(f, ColEPA, ColDHA, ColALA)
	if err != nil {
		return nil, err
	}
	return frame.Combine("omega3", func(v []float64) float64 {
		return v[0] + v[1] + v[2]
	}, cols...)
}

// Omega6 is the linoleic acid content.
func Omega6(f *frame.Frame) (*frame.Series, error) {
	c, err := f.Column(ColLinoleic)
	if err != nil {
		return nil, err
	}
	return c.MapFloat("omega6", func(v float64) float64 { return v }), nil
}

func omega3PerCholesterol(f *frame.Frame) (*frame.Series, error) {
	o3, err := Omega3(f)
	if err != nil {
		return nil, err
	}
	chol, err := f.Column(ColCholesterol)
	if err != nil {
		return nil, err
	}
	return frame.Combine("omega3_per_cholesterol", func(v []float64) float64 {
		return ratio(v[0], v[1])
	}, o3, chol)
}

func omega6PerOmega3(f *frame.Frame) (*frame.Series, error) {
	o6, err := Omega6(f)
	if err != nil {
		return nil, err
	}
	o3, err := Omega3(f)
	if err != nil {
		return nil, err
	}
	return frame.Combine("omega6_per_omega3", func(v []float64) float64 {
		return ratio(v[0], v[1])
	}, o6, o3)
}

func ratio(num, den float64) float64 {
	if math.IsNaN(num) || math.IsNaN(den) {
		return math.NaN()
	}
	return num / (den + ratioEpsilon)
}
