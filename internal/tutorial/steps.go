package tutorial

import (
	"fmt"
	"strings"
	"time"

	"github.com/rewired-gh/nutriframe/internal/analysis"
	"github.com/rewired-gh/nutriframe/internal/frame"
	"github.com/rewired-gh/nutriframe/internal/nutrition"
	"github.com/rewired-gh/nutriframe/internal/report"
)

// Binding names shared between steps.
const (
	BindConstructed = "constructed"
	BindLenient     = "lenient"
	BindTyped       = "typed"
	BindFood        = "food"
	BindPrepared    = "prepared"
	BindClean       = "clean"
	BindExpressions = "expressions"
	BindTagged      = "tagged"
	BindCategories  = "categories"
	BindRegimeStats = "regime_stats"
	BindZScores     = "zscores"
	BindReport      = "report"
)

// Steps returns the walkthrough in execution order.
func Steps() []Step {
	return []Step{
		{Name: "construct", Title: "Constructing a dataset from literal columns", Run: construct},
		{Name: "schema", Title: "Inspecting the inferred schema", Run: schema},
		{
			Name:         "strict-mismatch",
			Title:        "Mixed literals under strict validation",
			Demonstrates: []error{frame.ErrTypeMismatch},
			Run:          strictMismatch,
		},
		{Name: "lenient-coercion", Title: "Mixed literals with strict validation off", Run: lenientCoercion},
		{
			Name:         "explicit-schema",
			Title:        "Constructing with an explicit schema",
			Demonstrates: []error{frame.ErrTypeMismatch},
			Run:          explicitSchema,
		},
		{
			Name:         "conversions",
			Title:        "Converting to records and matrices",
			Demonstrates: []error{frame.ErrIncompatibleCast},
			Run:          conversions,
		},
		{Name: "selection", Title: "Selecting columns and rows", Run: selection},
		{Name: "load", Title: "Loading the food-composition CSV", Run: load},
		{Name: "preparation", Title: "Deriving the preparation from the name", Run: preparation},
		{Name: "cleanup", Title: "Cleaning up columns", Run: cleanup},
		{Name: "expressions", Title: "Evaluating column expressions", Run: expressions},
		{Name: "tagging", Title: "Tagging foods from their category", Run: tagging},
		{Name: "grouping", Title: "Grouping by category", Run: grouping},
		{Name: "regimes", Title: "Comparing dietary regimes", Run: regimes},
		{Name: "normalization", Title: "Normalizing regime means to z-scores", Run: normalization},
		{Name: "report", Title: "Formatting the report", Run: formatReport},
	}
}

// literalColumns are the columns a..e of the construction examples.
func literalColumns() []frame.Column {
	return []frame.Column{
		{Name: "a", Values: []any{1, 2, 4}},
		{Name: "b", Values: []any{2.0, 3.0, 5.0}},
		{Name: "c", Values: []any{"string1", "string2", "string3"}},
		{Name: "d", Values: []any{
			frame.NewDate(2000, time.January, 1),
			frame.NewDate(2000, time.February, 1),
			frame.NewDate(2000, time.March, 1),
		}},
		{Name: "e", Values: []any{
			time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC),
			time.Date(2000, time.January, 2, 12, 0, 0, 0, time.UTC),
			time.Date(2000, time.January, 3, 12, 0, 0, 0, time.UTC),
		}},
	}
}

// mixedColumns holds an int column with one float literal in it.
func mixedColumns() []frame.Column {
	return []frame.Column{
		{Name: "a", Values: []any{1, 2.0, 4}},
		{Name: "b", Values: []any{2.0, 3.0, 5.0}},
		{Name: "c", Values: []any{"string1", "string2", "string3"}},
	}
}

var literalSchema = []frame.Field{
	{Name: "a", Type: frame.Int64},
	{Name: "b", Type: frame.Float64},
	{Name: "c", Type: frame.Utf8},
	{Name: "d", Type: frame.Date},
	{Name: "e", Type: frame.Datetime},
}

func construct(c *Context) error {
	f, err := c.Engine.FromColumns(literalColumns(), frame.Strict(c.Opts.Strict))
	if err != nil {
		return err
	}
	c.Show("Constructed dataset", f)
	c.Bind(BindConstructed, f)
	return nil
}

func schema(c *Context) error {
	f, err := c.Frame(BindConstructed)
	if err != nil {
		return err
	}
	c.Printf("%s\n", f.Schema())
	return nil
}

func strictMismatch(c *Context) error {
	return c.Expect(frame.ErrTypeMismatch, func() error {
		_, err := c.Engine.FromColumns(mixedColumns(), frame.Strict(true))
		return err
	})
}

func lenientCoercion(c *Context) error {
	f, err := c.Engine.FromColumns(mixedColumns(), frame.Strict(false))
	if err != nil {
		return err
	}
	if t, _ := f.Schema().Lookup("a"); t != frame.Float64 {
		return fmt.Errorf("column a widened to %s, want %s: %w", t, frame.Float64, frame.ErrTypeMismatch)
	}
	c.Printf("%s\n", f.Schema())
	c.Show("Coerced dataset", f)
	c.Bind(BindLenient, f)
	return nil
}

func explicitSchema(c *Context) error {
	f, err := c.Engine.FromColumns(literalColumns(), frame.WithSchema(literalSchema...))
	if err != nil {
		return err
	}
	c.Printf("%s\n", f.Schema())
	c.Bind(BindTyped, f)

	return c.Expect(frame.ErrTypeMismatch, func() error {
		_, err := c.Engine.FromColumns(
			[]frame.Column{{Name: "a", Values: []any{"1", "2", "four"}}},
			frame.WithSchema(frame.Field{Name: "a", Type: frame.Int64}),
		)
		return err
	})
}

func conversions(c *Context) error {
	f, err := c.Frame(BindTyped)
	if err != nil {
		return err
	}

	records := f.ToMaps()
	c.Printf("%d records, first: %v\n", len(records), records[0])

	if err := c.Expect(frame.ErrIncompatibleCast, func() error {
		_, err := f.ToMatrix()
		return err
	}); err != nil {
		return err
	}

	numeric, err := f.Select(frame.Numeric())
	if err != nil {
		return err
	}
	m, err := numeric.ToMatrix()
	if err != nil {
		return err
	}
	c.Printf("matrix of %v: %v\n", numeric.Columns(), m)
	return nil
}

func selection(c *Context) error {
	f, err := c.Frame(BindTyped)
	if err != nil {
		return err
	}

	numeric, err := f.Select(frame.Numeric())
	if err != nil {
		return err
	}
	c.Printf("numeric columns: %v\n", numeric.Columns())

	rest, err := f.Select(frame.Exclude("c"))
	if err != nil {
		return err
	}
	c.Printf("all but c: %v\n", rest.Columns())

	series, err := f.Column("a")
	if err != nil {
		return err
	}
	single, err := f.SelectNames("a")
	if err != nil {
		return err
	}
	c.Printf("Column(\"a\") is a %T: %s\n", series, series)
	c.Printf("Select(\"a\") is a %T:\n%s\n", single, single)

	rows, cols := f.Shape()
	c.Printf("shape: (%d, %d)\ncolumns: %v\n", rows, cols, f.Columns())
	c.Show("Head", f.Head(2))
	c.Show("Tail", f.Tail(2))
	c.Printf("\n%s", f.Glimpse())
	return nil
}

func load(c *Context) error {
	if c.Input == nil {
		return fmt.Errorf("no input CSV")
	}
	f, err := c.Engine.ReadCSV(c.Input)
	if err != nil {
		return fmt.Errorf("failed to load CSV: %w", err)
	}
	rows, cols := f.Shape()
	c.Printf("loaded %d rows × %d columns\n", rows, cols)
	c.Printf("%s", f.Glimpse())
	c.Bind(BindFood, f)
	return nil
}

func preparation(c *Context) error {
	f, err := c.Frame(BindFood)
	if err != nil {
		return err
	}
	out, err := nutrition.DerivePreparation(f)
	if err != nil {
		return err
	}
	view, err := out.SelectNames(nutrition.ColName, nutrition.ColRawPrep)
	if err != nil {
		return err
	}
	if err := c.ShowTable("Name and preparation", view); err != nil {
		return err
	}
	c.Bind(BindPrepared, out)
	return nil
}

func cleanup(c *Context) error {
	f, err := c.Frame(BindPrepared)
	if err != nil {
		return err
	}
	out, err := nutrition.Cleanup(f)
	if err != nil {
		return err
	}
	c.Printf("columns: %s\n", strings.Join(out.Columns(), " | "))
	c.Bind(BindClean, out)
	return nil
}

func expressions(c *Context) error {
	f, err := c.Frame(BindClean)
	if err != nil {
		return err
	}
	out, err := nutrition.Expressions(f)
	if err != nil {
		return err
	}
	if err := c.ShowTable("Expressions", out); err != nil {
		return err
	}
	c.Bind(BindExpressions, out)
	return nil
}

func tagging(c *Context) error {
	f, err := c.Frame(BindClean)
	if err != nil {
		return err
	}
	perRow, err := nutrition.DeriveTags(f)
	if err != nil {
		return err
	}
	joined, err := nutrition.DeriveTagsByJoin(c.Engine, f)
	if err != nil {
		return err
	}
	if err := sameTags(perRow, joined); err != nil {
		return err
	}

	view, err := perRow.SelectNames(nutrition.ColCategory, nutrition.ColTags)
	if err != nil {
		return err
	}
	if err := c.ShowTable("Tags", view); err != nil {
		return err
	}
	c.Printf("per-row and join-based tags agree on %d rows\n", perRow.Height())
	c.Bind(BindTagged, perRow)
	return nil
}

// sameTags checks that two tagged frames assign the same tags to every ID.
func sameTags(a, b *frame.Frame) error {
	if a.Height() != b.Height() {
		return fmt.Errorf("tag derivations differ in height: %d vs %d", a.Height(), b.Height())
	}
	want := make(map[string]string, a.Height())
	if err := a.Rows(func(r frame.Row) {
		want[r.Str(nutrition.ColID)] = r.Str(nutrition.ColTags)
	}); err != nil {
		return err
	}
	var mismatch error
	if err := b.Rows(func(r frame.Row) {
		id := r.Str(nutrition.ColID)
		if got := r.Str(nutrition.ColTags); mismatch == nil && got != want[id] {
			mismatch = fmt.Errorf("tag derivations disagree on ID %s: %q vs %q", id, want[id], got)
		}
	}); err != nil {
		return err
	}
	return mismatch
}

func grouping(c *Context) error {
	f, err := c.Frame(BindClean)
	if err != nil {
		return err
	}

	means, err := f.GroupBy(nutrition.ColCategory).Mean()
	if err != nil {
		return err
	}
	if err := c.ShowTable("Mean per category", means); err != nil {
		return err
	}

	summary, err := analysis.New(c.Engine).CategorySummary(f)
	if err != nil {
		return err
	}
	tops, err := analysis.DistinctTopLevel(f)
	if err != nil {
		return err
	}
	if summary.Height() != len(tops) {
		return fmt.Errorf("%d category groups for %d top-level categories: %w", summary.Height(), len(tops), frame.ErrShapeMismatch)
	}
	c.Show("Top-level categories", summary)
	c.Bind(BindCategories, summary)
	return nil
}

func regimes(c *Context) error {
	f, err := c.Frame(BindTagged)
	if err != nil {
		return err
	}
	stats, err := analysis.New(c.Engine).RegimeStats(f)
	if err != nil {
		return err
	}
	c.Show("Regime means", stats)
	c.Bind(BindRegimeStats, stats)
	return nil
}

func normalization(c *Context) error {
	f, err := c.Frame(BindTagged)
	if err != nil {
		return err
	}
	z, err := analysis.New(c.Engine).ZScores(f)
	if err != nil {
		return err
	}
	c.Show("Regime z-scores", z)
	c.Bind(BindZScores, z)
	return nil
}

func formatReport(c *Context) error {
	z, err := c.Frame(BindZScores)
	if err != nil {
		return err
	}
	out, err := report.Render(z, c.Opts.Report)
	if err != nil {
		return err
	}
	c.Printf("%s", out)
	c.Bind(BindReport, out)
	return nil
}
