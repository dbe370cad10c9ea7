// Package tutorial runs the narrated DataFrame walkthrough. Steps execute in
// a fixed order; each reads the bindings left by earlier steps and binds its
// own results under a name.
//
// Errors of the kinds a step declares it demonstrates are caught, narrated
// and recorded as outcomes. Any other error aborts the run.
package tutorial

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rewired-gh/nutriframe/internal/frame"
	"github.com/rewired-gh/nutriframe/internal/logger"
	"github.com/rewired-gh/nutriframe/internal/models"
	"github.com/rewired-gh/nutriframe/internal/report"
)

// Step is one narrated unit of the walkthrough.
type Step struct {
	Name  string
	Title string
	// Demonstrates lists the error kinds this step raises on purpose.
	Demonstrates []error
	Run          func(c *Context) error
}

func (s Step) demonstrates(err error) bool {
	for _, kind := range s.Demonstrates {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// Options configures a run.
type Options struct {
	Strict   bool
	HeadRows int
	Report   report.Options
}

// DefaultOptions returns strict construction, five preview rows and the
// default report format.
func DefaultOptions() Options {
	return Options{Strict: true, HeadRows: 5, Report: report.DefaultOptions()}
}

// Result is the outcome of a run.
type Result struct {
	Outcomes []models.StepOutcome
	// Report is the formatted z-score table, empty if the run stopped early.
	Report  string
	ZScores *frame.Frame
	// Bindings holds every value bound during the run.
	Bindings map[string]any
}

// Runner executes steps in order.
type Runner struct {
	engine frame.Engine
	out    io.Writer
	opts   Options
	steps  []Step
}

// NewRunner returns a runner over the full walkthrough.
func NewRunner(engine frame.Engine, out io.Writer, opts Options) *Runner {
	return NewRunnerWithSteps(engine, out, opts, Steps())
}

// NewRunnerWithSteps returns a runner over an explicit step list.
func NewRunnerWithSteps(engine frame.Engine, out io.Writer, opts Options, steps []Step) *Runner {
	if opts.HeadRows <= 0 {
		opts.HeadRows = 5
	}
	return &Runner{engine: engine, out: out, opts: opts, steps: steps}
}

// Run executes every step against the CSV read from input. On abort the
// result holds the outcomes recorded so far, including the failed step.
func (r *Runner) Run(input io.Reader) (*Result, error) {
	c := newContext(r.engine, input, r.out, r.opts)
	res := &Result{Bindings: c.bindings}

	for i, step := range r.steps {
		c.begin(step)
		fmt.Fprintf(r.out, "\nSTEP %d: %s\n", i+1, step.Title)
		fmt.Fprintln(r.out, strings.Repeat("-", 80))

		start := time.Now()
		err := step.Run(c)
		outcome := models.StepOutcome{
			Index:    i,
			Name:     step.Name,
			Status:   models.StatusOK,
			Duration: time.Since(start),
		}

		switch {
		case err != nil && !errors.Is(err, ErrMissingBinding) && step.demonstrates(err):
			c.narrateCaught(err)
			outcome.Status = models.StatusCaught
			outcome.ErrorKind = frame.Kind(err)
			outcome.Message = err.Error()
		case err != nil:
			outcome.Status = models.StatusFailed
			outcome.ErrorKind = frame.Kind(err)
			outcome.Message = err.Error()
			res.Outcomes = append(res.Outcomes, outcome)
			logger.Error("step %s failed: %v", step.Name, err)
			return res, fmt.Errorf("step %d (%s): %w", i+1, step.Name, err)
		case c.caught != nil:
			outcome.Status = models.StatusCaught
			outcome.ErrorKind = frame.Kind(c.caught)
			outcome.Message = c.caught.Error()
		}

		logger.Debug("step %s finished in %s (%s)", step.Name, outcome.Duration, outcome.Status)
		res.Outcomes = append(res.Outcomes, outcome)
	}

	if z, ok := c.bindings[BindZScores].(*frame.Frame); ok {
		res.ZScores = z
	}
	if s, ok := c.bindings[BindReport].(string); ok {
		res.Report = s
	}
	return res, nil
}
