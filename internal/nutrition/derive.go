package nutrition

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/rewired-gh/nutriframe/internal/frame"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Column names produced by the derivations.
const (
	ColID          = "ID"
	ColName        = "Name"
	ColCategory    = "Category"
	ColRawPrep     = "preparation"
	ColPreparation = "Preparation"
	ColCalories    = "Calories"
	ColTags        = "tags"
	ColFattyTotal  = "Fatty acids, total (g)"

	caloriesMarker = "kcal"
	fattyMarker    = "Fatty acids"
	categorySep    = "/"
	namePartSep    = ","
)

var upper = cases.Upper(language.Und)

// SplitPart returns the i-th part of s split on sep, and false when s has
// fewer parts.
func SplitPart(s, sep string, i int) (string, bool) {
	parts := strings.Split(s, sep)
	if i < 0 || i >= len(parts) {
		return "", false
	}
	return parts[i], true
}

// TopLevelCategory returns the text before the first "/" of a category path.
func TopLevelCategory(category string) string {
	top, _ := SplitPart(category, categorySep, 0)
	return top
}

// DerivePreparation adds the raw preparation column: the second
// comma-separated part of Name, null when Name has no comma.
func DerivePreparation(f *frame.Frame) (*frame.Frame, error) {
	name, err := f.Column(ColName)
	if err != nil {
		return nil, err
	}
	vals := name.Strings()
	valid := make([]bool, len(vals))
	for i, v := range vals {
		if name.IsNull(i) {
			continue
		}
		vals[i], valid[i] = SplitPart(v, namePartSep, 1)
	}
	return f.WithColumns(frame.Strings(ColRawPrep, vals, valid))
}

// Cleanup keeps ID, Name, Category, the trimmed Preparation and the calorie
// column renamed to Calories, followed by every other numeric column.
func Cleanup(f *frame.Frame) (*frame.Frame, error) {
	raw, err := f.Column(ColRawPrep)
	if err != nil {
		return nil, err
	}
	prep, err := raw.Map(ColPreparation, frame.Utf8, func(v any) any {
		return strings.TrimSpace(v.(string))
	})
	if err != nil {
		return nil, err
	}

	kcal, err := frame.Contains(caloriesMarker).Resolve(f.Schema())
	if err != nil {
		return nil, err
	}
	if len(kcal) == 0 {
		return nil, fmt.Errorf("no %q column: %w", caloriesMarker, frame.ErrSchemaMismatch)
	}

	out, err := f.WithColumns(prep)
	if err != nil {
		return nil, err
	}
	if out, err = out.Rename(kcal[0], ColCalories); err != nil {
		return nil, err
	}
	return out.Select(
		frame.ByName(ColID, ColName, ColCategory, ColPreparation, ColCalories),
		frame.Except(frame.Numeric(), frame.ByName(ColID, ColCalories)),
	)
}

// Expressions evaluates the column expressions of the walkthrough: name
// length, upper-cased preparation, log10 calories and the horizontal sum of
// the fatty-acid columns.
func Expressions(f *frame.Frame) (*frame.Frame, error) {
	name, err := f.Column(ColName)
	if err != nil {
		return nil, err
	}
	nameLen, err := name.Map("name_length", frame.Int64, func(v any) any {
		return utf8.RuneCountInString(v.(string))
	})
	if err != nil {
		return nil, err
	}

	prep, err := f.Column(ColPreparation)
	if err != nil {
		return nil, err
	}
	prepUpper, err := prep.Map("PREPARATION", frame.Utf8, func(v any) any {
		return upper.String(v.(string))
	})
	if err != nil {
		return nil, err
	}

	cal, err := f.Column(ColCalories)
	if err != nil {
		return nil, err
	}
	logCal := cal.MapFloat("kcal, log10", math.Log10)

	fatty, err := FattyAcidsTotal(f)
	if err != nil {
		return nil, err
	}

	base, err := f.SelectNames(ColName)
	if err != nil {
		return nil, err
	}
	out, err := base.WithColumns(nameLen, prepUpper, logCal, fatty)
	if err != nil {
		return nil, err
	}
	return out.Select(frame.Exclude(ColName))
}

// FattyAcidsTotal sums every column whose name mentions fatty acids.
func FattyAcidsTotal(f *frame.Frame) (*frame.Series, error) {
	names, err := frame.Contains(fattyMarker).Resolve(f.Schema())
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no %q columns: %w", fattyMarker, frame.ErrSchemaMismatch)
	}
	cols, err := columns(f, names...)
	if err != nil {
		return nil, err
	}
	return frame.SumHorizontal(ColFattyTotal, cols...)
}

// DeriveTags adds the tags column by matching each Category against the
// vocabulary. Null categories get the empty set.
func DeriveTags(f *frame.Frame) (*frame.Frame, error) {
	cat, err := f.Column(ColCategory)
	if err != nil {
		return nil, err
	}
	vals := cat.Strings()
	for i, v := range vals {
		vals[i] = CategoriesToTags(v).Encode()
	}
	return f.WithColumns(frame.Strings(ColTags, vals, nil))
}

// DeriveTagsByJoin computes the same tags column with frame operations only:
// unique categories are cross joined with the vocabulary, pairs whose category
// contains the tag are kept and collected per category, and the result is
// left joined back. Categories without tags get the empty set.
func DeriveTagsByJoin(engine frame.Engine, f *frame.Frame) (*frame.Frame, error) {
	cats, err := f.Unique(ColCategory)
	if err != nil {
		return nil, err
	}
	cats, err = cats.Filter(func(r frame.Row) bool { return !r.IsNull(ColCategory) })
	if err != nil {
		return nil, err
	}

	vocab := make([]any, len(Vocabulary))
	for i, t := range Vocabulary {
		vocab[i] = t
	}
	tags, err := engine.FromColumns([]frame.Column{{Name: "tag", Values: vocab}})
	if err != nil {
		return nil, err
	}

	pairs, err := cats.Join(tags, frame.Cross)
	if err != nil {
		return nil, err
	}
	pairs, err = pairs.Filter(func(r frame.Row) bool {
		return strings.Contains(lower.String(r.Str(ColCategory)), r.Str("tag"))
	})
	if err != nil {
		return nil, err
	}

	grouped, err := pairs.GroupBy(ColCategory).Agg(frame.ListOf("tag", ColTags, tagSeparator))
	if err != nil {
		return nil, err
	}
	joined, err := f.Join(grouped, frame.Left, ColCategory)
	if err != nil {
		return nil, err
	}
	return joined.FillNull(ColTags, "")
}

// WithTopLevelCategory replaces Category with its top-level segment.
func WithTopLevelCategory(f *frame.Frame) (*frame.Frame, error) {
	cat, err := f.Column(ColCategory)
	if err != nil {
		return nil, err
	}
	top, err := cat.Map(ColCategory, frame.Utf8, func(v any) any {
		return TopLevelCategory(v.(string))
	})
	if err != nil {
		return nil, err
	}
	return f.WithColumns(top)
}
