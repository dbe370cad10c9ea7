// Package analysis aggregates the tagged food dataset: per-regime metric
// means, per-regime z-scores and per-category summaries.
//
// The z-score of a metric for a regime is
//
//	z = (mean(metric | regime) - mean(metric)) / std(metric)
//
// where std is the sample standard deviation over all rows. Nulls are skipped
// in every mean, and a degenerate denominator yields NaN.
package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/rewired-gh/nutriframe/internal/frame"
	"github.com/rewired-gh/nutriframe/internal/logger"
	"github.com/rewired-gh/nutriframe/internal/nutrition"
)

// ColRegime names the regime column of the regime tables.
const ColRegime = "regime"

// Analyzer builds the aggregate tables of the walkthrough.
type Analyzer struct {
	engine  frame.Engine
	regimes []nutrition.Regime
	metrics []nutrition.Metric
}

// New creates an Analyzer over the standard regimes and metrics.
func New(engine frame.Engine) *Analyzer {
	return &Analyzer{
		engine:  engine,
		regimes: nutrition.Regimes(),
		metrics: nutrition.Metrics(),
	}
}

// evaluation holds every metric column and regime mask of one dataset.
type evaluation struct {
	values map[string][]float64
	masks  map[string][]bool
}

func (a *Analyzer) evaluate(f *frame.Frame) (*evaluation, error) {
	ev := &evaluation{
		values: make(map[string][]float64, len(a.metrics)),
		masks:  make(map[string][]bool, len(a.regimes)),
	}
	for _, m := range a.metrics {
		s, err := m.Eval(f)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate metric %s: %w", m.Name, err)
		}
		ev.values[m.Name] = s.Floats()
	}
	for _, r := range a.regimes {
		mask, err := r.Mask(f)
		if err != nil {
			return nil, err
		}
		ev.masks[r.Name] = mask
		logger.Debug("regime %s: %d of %d rows", r.Name, countTrue(mask), len(mask))
	}
	return ev, nil
}

func countTrue(mask []bool) int {
	n := 0
	for _, b := range mask {
		if b {
			n++
		}
	}
	return n
}

// table builds a regime × metric frame from cell, sorted by sortBy descending.
func (a *Analyzer) table(ev *evaluation, sortBy string, cell func(vals []float64, mask []bool) float64) (*frame.Frame, error) {
	cols := make([]frame.Column, 0, len(a.metrics)+1)
	names := make([]any, len(a.regimes))
	for i, r := range a.regimes {
		names[i] = r.Name
	}
	cols = append(cols, frame.Column{Name: ColRegime, Values: names})

	schema := []frame.Field{{Name: ColRegime, Type: frame.Utf8}}
	for _, m := range a.metrics {
		vals := make([]any, len(a.regimes))
		for i, r := range a.regimes {
			v := cell(ev.values[m.Name], ev.masks[r.Name])
			if !math.IsNaN(v) {
				vals[i] = v
			}
		}
		cols = append(cols, frame.Column{Name: m.Name, Values: vals})
		schema = append(schema, frame.Field{Name: m.Name, Type: frame.Float64})
	}

	out, err := a.engine.FromColumns(cols, frame.WithSchema(schema...))
	if err != nil {
		return nil, fmt.Errorf("failed to build regime table: %w", err)
	}
	return out.Sort(sortBy, true)
}

// RegimeStats returns the mean of each metric over the rows of each regime,
// sorted by omega3_per_cholesterol descending.
func (a *Analyzer) RegimeStats(f *frame.Frame) (*frame.Frame, error) {
	ev, err := a.evaluate(f)
	if err != nil {
		return nil, err
	}
	return a.table(ev, "omega3_per_cholesterol", func(vals []float64, mask []bool) float64 {
		return Mean(masked(vals, mask))
	})
}

// ZScores returns the z-score of each metric for each regime, sorted by
// vitamin_c descending.
func (a *Analyzer) ZScores(f *frame.Frame) (*frame.Frame, error) {
	ev, err := a.evaluate(f)
	if err != nil {
		return nil, err
	}
	return a.table(ev, "vitamin_c", func(vals []float64, mask []bool) float64 {
		return ZScore(masked(vals, mask), vals)
	})
}

// Column names of the category summary.
const (
	ColMeanCalories    = "mean_calories"
	ColTotalFattyAcids = "total_fatty_acids"
)

// CategorySummary groups rows by top-level category and reports the mean
// calories and the summed fatty acids of each group, ordered by category.
// Rows without a category are left out, as in DistinctTopLevel.
func (a *Analyzer) CategorySummary(f *frame.Frame) (*frame.Frame, error) {
	fatty, err := nutrition.FattyAcidsTotal(f)
	if err != nil {
		return nil, err
	}
	top, err := nutrition.WithTopLevelCategory(f)
	if err != nil {
		return nil, err
	}
	top, err = top.WithColumns(fatty)
	if err != nil {
		return nil, err
	}
	top, err = top.Filter(func(r frame.Row) bool { return !r.IsNull(nutrition.ColCategory) })
	if err != nil {
		return nil, err
	}
	return top.GroupBy(nutrition.ColCategory).Agg(
		frame.MeanOf(nutrition.ColCalories, ColMeanCalories),
		frame.SumOf(nutrition.ColFattyTotal, ColTotalFattyAcids),
	)
}

// DistinctTopLevel returns the sorted distinct top-level categories of f.
func DistinctTopLevel(f *frame.Frame) ([]string, error) {
	cat, err := f.Column(nutrition.ColCategory)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for i, c := range cat.Strings() {
		if cat.IsNull(i) {
			continue
		}
		top := nutrition.TopLevelCategory(c)
		if !seen[top] {
			seen[top] = true
			out = append(out, top)
		}
	}
	sort.Strings(out)
	return out, nil
}
