package tutorial

import (
	"errors"
	"fmt"
	"io"

	"github.com/rewired-gh/nutriframe/internal/frame"
	"github.com/rewired-gh/nutriframe/internal/report"
)

// ErrMissingBinding is returned when a step reads a name no earlier step
// bound. It also matches frame.ErrSchemaMismatch.
var ErrMissingBinding = errors.New("missing binding")

type missingBindingError struct {
	name string
	step string
}

func (e *missingBindingError) Error() string {
	return fmt.Sprintf("step %s: missing binding %q: %v", e.step, e.name, frame.ErrSchemaMismatch)
}

func (e *missingBindingError) Is(target error) bool {
	return target == ErrMissingBinding || target == frame.ErrSchemaMismatch
}

// Context is what a step sees: the engine, the input CSV, the output writer
// and the bindings of earlier steps.
type Context struct {
	Engine frame.Engine
	Input  io.Reader
	Out    io.Writer
	Opts   Options

	bindings map[string]any
	step     Step
	caught   error
}

func newContext(engine frame.Engine, input io.Reader, out io.Writer, opts Options) *Context {
	return &Context{
		Engine:   engine,
		Input:    input,
		Out:      out,
		Opts:     opts,
		bindings: make(map[string]any),
	}
}

func (c *Context) begin(step Step) {
	c.step = step
	c.caught = nil
}

// Bind stores v under name for later steps.
func (c *Context) Bind(name string, v any) {
	c.bindings[name] = v
}

// Lookup returns the value bound under name.
func (c *Context) Lookup(name string) (any, error) {
	v, ok := c.bindings[name]
	if !ok {
		return nil, &missingBindingError{name: name, step: c.step.Name}
	}
	return v, nil
}

// Frame returns the frame bound under name.
func (c *Context) Frame(name string) (*frame.Frame, error) {
	v, err := c.Lookup(name)
	if err != nil {
		return nil, err
	}
	f, ok := v.(*frame.Frame)
	if !ok {
		return nil, fmt.Errorf("binding %q holds %T, not a frame: %w", name, v, frame.ErrSchemaMismatch)
	}
	return f, nil
}

// Printf writes narration.
func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

// Show prints a labelled frame.
func (c *Context) Show(label string, f *frame.Frame) {
	rows, cols := f.Shape()
	fmt.Fprintf(c.Out, "\n%s (%d rows × %d columns):\n%s\n", label, rows, cols, f.String())
}

// ShowTable prints a frame through the report formatter.
func (c *Context) ShowTable(label string, f *frame.Frame) error {
	opts := c.Opts.Report
	opts.MaxRows = c.Opts.HeadRows
	out, err := report.Render(f, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "\n%s:\n%s", label, out)
	return nil
}

// Expect runs fn, which must fail with kind. The error is caught and narrated
// when the current step demonstrates kind. A nil error is itself a failure.
func (c *Context) Expect(kind error, fn func() error) error {
	err := fn()
	if err == nil {
		return fmt.Errorf("expected %v, operation succeeded", kind)
	}
	if !errors.Is(err, kind) || !c.step.demonstrates(err) {
		return err
	}
	c.narrateCaught(err)
	if c.caught == nil {
		c.caught = err
	}
	return nil
}

func (c *Context) narrateCaught(err error) {
	fmt.Fprintf(c.Out, "caught %s: %v\n", frame.Kind(err), err)
}
