package tutorial

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rewired-gh/nutriframe/internal/analysis"
	"github.com/rewired-gh/nutriframe/internal/frame"
	"github.com/rewired-gh/nutriframe/internal/models"
	"github.com/rewired-gh/nutriframe/internal/nutrition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_CatchesDeclaredErrors(t *testing.T) {
	steps := []Step{
		{
			Name:         "raises",
			Title:        "Raises a declared error",
			Demonstrates: []error{frame.ErrTypeMismatch},
			Run: func(c *Context) error {
				return fmt.Errorf("wrapped: %w", frame.ErrTypeMismatch)
			},
		},
		{
			Name:         "expects",
			Title:        "Expects a declared error",
			Demonstrates: []error{frame.ErrIncompatibleCast},
			Run: func(c *Context) error {
				if err := c.Expect(frame.ErrIncompatibleCast, func() error { return frame.ErrIncompatibleCast }); err != nil {
					return err
				}
				c.Bind("after", 42)
				return nil
			},
		},
		{Name: "plain", Title: "Does nothing", Run: func(c *Context) error { return nil }},
	}

	var out bytes.Buffer
	res, err := NewRunnerWithSteps(frame.NewGota(), &out, DefaultOptions(), steps).Run(nil)
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 3)

	assert.Equal(t, models.StatusCaught, res.Outcomes[0].Status)
	assert.Equal(t, "TypeMismatch", res.Outcomes[0].ErrorKind)
	assert.Equal(t, models.StatusCaught, res.Outcomes[1].Status)
	assert.Equal(t, "IncompatibleCast", res.Outcomes[1].ErrorKind)
	assert.Equal(t, models.StatusOK, res.Outcomes[2].Status)
	assert.Equal(t, 42, res.Bindings["after"])

	for _, o := range res.Outcomes {
		assert.NoError(t, o.Validate())
	}
	assert.Contains(t, out.String(), "STEP 1: Raises a declared error")
	assert.Contains(t, out.String(), "caught TypeMismatch")
	assert.Contains(t, out.String(), strings.Repeat("-", 80))
}

func TestRunner_UndeclaredErrorAborts(t *testing.T) {
	ran := false
	steps := []Step{
		{
			Name:         "wrong-kind",
			Title:        "Raises an undeclared error",
			Demonstrates: []error{frame.ErrTypeMismatch},
			Run:          func(c *Context) error { return frame.ErrShapeMismatch },
		},
		{Name: "never", Title: "Never runs", Run: func(c *Context) error { ran = true; return nil }},
	}

	res, err := NewRunnerWithSteps(frame.NewGota(), &bytes.Buffer{}, DefaultOptions(), steps).Run(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, frame.ErrShapeMismatch))
	assert.Contains(t, err.Error(), "wrong-kind")
	assert.False(t, ran)

	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, models.StatusFailed, res.Outcomes[0].Status)
	assert.Equal(t, "ShapeMismatch", res.Outcomes[0].ErrorKind)
}

func TestRunner_ExpectRequiresFailure(t *testing.T) {
	steps := []Step{{
		Name:         "no-error",
		Title:        "Expects an error that never comes",
		Demonstrates: []error{frame.ErrTypeMismatch},
		Run: func(c *Context) error {
			return c.Expect(frame.ErrTypeMismatch, func() error { return nil })
		},
	}}
	_, err := NewRunnerWithSteps(frame.NewGota(), &bytes.Buffer{}, DefaultOptions(), steps).Run(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operation succeeded")
}

func TestRunner_MissingBinding(t *testing.T) {
	// A step that declares SchemaMismatch still fails on a missing binding.
	steps := []Step{{
		Name:         "reads-early",
		Title:        "Reads a binding nobody set",
		Demonstrates: []error{frame.ErrSchemaMismatch},
		Run: func(c *Context) error {
			_, err := c.Frame(BindFood)
			return err
		},
	}}
	_, err := NewRunnerWithSteps(frame.NewGota(), &bytes.Buffer{}, DefaultOptions(), steps).Run(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingBinding))
	assert.True(t, errors.Is(err, frame.ErrSchemaMismatch))
	assert.Equal(t, "SchemaMismatch", frame.Kind(err))
}

func TestRunner_StepsCannotBeReordered(t *testing.T) {
	all := Steps()
	reordered := append([]Step{all[8]}, all[:8]...) // preparation before load

	_, err := NewRunnerWithSteps(frame.NewGota(), &bytes.Buffer{}, DefaultOptions(), reordered).Run(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingBinding))
	assert.Contains(t, err.Error(), "preparation")
}

func TestContext_FrameWrongType(t *testing.T) {
	c := newContext(frame.NewGota(), nil, &bytes.Buffer{}, DefaultOptions())
	c.Bind("n", 3)
	_, err := c.Frame("n")
	require.Error(t, err)
	assert.True(t, errors.Is(err, frame.ErrSchemaMismatch))
	assert.False(t, errors.Is(err, ErrMissingBinding))
}

func TestSteps_Order(t *testing.T) {
	names := make([]string, 0, 16)
	for _, s := range Steps() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		"construct", "schema", "strict-mismatch", "lenient-coercion",
		"explicit-schema", "conversions", "selection", "load",
		"preparation", "cleanup", "expressions", "tagging",
		"grouping", "regimes", "normalization", "report",
	}, names)
}

func runSample(t *testing.T) (*Result, string) {
	t.Helper()
	f, err := os.Open(filepath.Join("..", "..", "testdata", "swiss-food.csv"))
	require.NoError(t, err)
	defer f.Close()

	var out bytes.Buffer
	res, err := NewRunner(frame.NewGota(), &out, DefaultOptions()).Run(f)
	require.NoError(t, err)
	return res, out.String()
}

func TestRun_EndToEnd(t *testing.T) {
	res, out := runSample(t)

	require.Len(t, res.Outcomes, 16)
	statuses := make(map[string]string)
	kinds := make(map[string]string)
	for _, o := range res.Outcomes {
		statuses[o.Name] = o.Status
		kinds[o.Name] = o.ErrorKind
	}
	for _, name := range []string{"strict-mismatch", "explicit-schema"} {
		assert.Equal(t, models.StatusCaught, statuses[name], name)
		assert.Equal(t, "TypeMismatch", kinds[name], name)
	}
	assert.Equal(t, models.StatusCaught, statuses["conversions"])
	assert.Equal(t, "IncompatibleCast", kinds["conversions"])
	for _, name := range []string{"construct", "load", "tagging", "grouping", "report"} {
		assert.Equal(t, models.StatusOK, statuses[name], name)
	}

	assert.Contains(t, out, "STEP 16: Formatting the report")
	assert.Contains(t, out, "set strict=false to coerce")
}

func TestRun_LenientWidensToFloat(t *testing.T) {
	res, _ := runSample(t)
	f, ok := res.Bindings[BindLenient].(*frame.Frame)
	require.True(t, ok)
	dtype, _ := f.Schema().Lookup("a")
	assert.Equal(t, frame.Float64, dtype)

	typed := res.Bindings[BindTyped].(*frame.Frame)
	assert.Equal(t, frame.Schema{
		{Name: "a", Type: frame.Int64},
		{Name: "b", Type: frame.Float64},
		{Name: "c", Type: frame.Utf8},
		{Name: "d", Type: frame.Date},
		{Name: "e", Type: frame.Datetime},
	}, typed.Schema())
}

func TestRun_GroupsMatchTopLevelCategories(t *testing.T) {
	res, _ := runSample(t)

	food := res.Bindings[BindFood].(*frame.Frame)
	assert.Equal(t, 18, food.Height())

	tops, err := analysis.DistinctTopLevel(food)
	require.NoError(t, err)
	assert.Len(t, tops, 10)

	summary := res.Bindings[BindCategories].(*frame.Frame)
	assert.Equal(t, len(tops), summary.Height())
}

func TestRun_RowWithoutCategory(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "swiss-food.csv"))
	require.NoError(t, err)
	input := string(data) + "19,\"Mystery, raw\",,10,0.0,0.0,0.0,0.0,0.0,0.0,0.0,0.0,0.0,0.0\n"

	res, err := NewRunner(frame.NewGota(), &bytes.Buffer{}, DefaultOptions()).Run(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 16)

	food := res.Bindings[BindFood].(*frame.Frame)
	assert.Equal(t, 19, food.Height())
	summary := res.Bindings[BindCategories].(*frame.Frame)
	assert.Equal(t, 10, summary.Height())

	tagged := res.Bindings[BindTagged].(*frame.Frame)
	tags, err := tagged.Column(nutrition.ColTags)
	require.NoError(t, err)
	assert.Equal(t, "", tags.Strings()[18])
}

func TestRun_PreparationAndCleanup(t *testing.T) {
	res, _ := runSample(t)

	clean := res.Bindings[BindClean].(*frame.Frame)
	cols := clean.Columns()
	assert.Equal(t, []string{
		nutrition.ColID, nutrition.ColName, nutrition.ColCategory,
		nutrition.ColPreparation, nutrition.ColCalories,
	}, cols[:5])

	prep, err := clean.Column(nutrition.ColPreparation)
	require.NoError(t, err)
	assert.Equal(t, "raw", prep.Strings()[0])
	assert.True(t, prep.IsNull(11), "Emmental has no preparation")
}

func TestRun_LogOfZeroCalories(t *testing.T) {
	res, _ := runSample(t)

	expr := res.Bindings[BindExpressions].(*frame.Frame)
	rows := expr.ToMaps()
	require.Len(t, rows, 18)
	logged, ok := rows[17]["kcal, log10"].(float64)
	require.True(t, ok, "tap water log10 should not be null")
	assert.True(t, math.IsInf(logged, -1))
}

func TestRun_TagDerivationsAgree(t *testing.T) {
	res, _ := runSample(t)

	clean := res.Bindings[BindClean].(*frame.Frame)
	joined, err := nutrition.DeriveTagsByJoin(frame.NewGota(), clean)
	require.NoError(t, err)
	tagged := res.Bindings[BindTagged].(*frame.Frame)
	require.NoError(t, sameTags(tagged, joined))

	tags, err := tagged.Column(nutrition.ColTags)
	require.NoError(t, err)
	assert.Equal(t, "eggs,fish,meat", tags.Strings()[6])
	assert.Equal(t, "fruit", tags.Strings()[0])
}

func TestRun_ReportAndScores(t *testing.T) {
	res, _ := runSample(t)

	require.NotNil(t, res.ZScores)
	assert.Equal(t, 9, res.ZScores.Height())
	assert.Equal(t, append([]string{analysis.ColRegime}, nutrition.MetricNames()...), res.ZScores.Columns())

	lines := strings.Split(strings.TrimRight(res.Report, "\n"), "\n")
	require.Len(t, lines, 11)
	assert.True(t, strings.HasPrefix(lines[0], "| regime"))
	assert.Contains(t, lines[0], "vitamin_c")
	assert.NotContains(t, res.Report, "f64")
}
