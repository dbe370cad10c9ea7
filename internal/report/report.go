// Package report renders frames as text tables for the console, Markdown
// documents and chat messages.
package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rewired-gh/nutriframe/internal/frame"
)

// Style selects the table layout.
type Style string

const (
	Markdown Style = "markdown"
	ASCII    Style = "ascii"
)

// Options controls table rendering.
type Options struct {
	Precision int   // digits after the decimal point for floats; negative keeps full precision
	Style     Style // markdown or ascii
	HideTypes bool  // omit the dtype row under the header
	MaxRows   int   // 0 renders every row
}

// DefaultOptions returns two-digit Markdown with column types hidden.
func DefaultOptions() Options {
	return Options{Precision: 2, Style: Markdown, HideTypes: true}
}

// ParseStyle validates a style name.
func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(s)) {
	case Markdown:
		return Markdown, nil
	case ASCII:
		return ASCII, nil
	default:
		return "", fmt.Errorf("invalid table style %q: must be markdown or ascii", s)
	}
}

type table struct {
	header  []string
	types   []string
	rows    [][]string
	numeric []bool
	widths  []int
}

func build(f *frame.Frame, opt Options) (*table, error) {
	schema := f.Schema()
	t := &table{
		header:  make([]string, len(schema)),
		types:   make([]string, len(schema)),
		numeric: make([]bool, len(schema)),
		widths:  make([]int, len(schema)),
	}

	n := f.Height()
	if opt.MaxRows > 0 && opt.MaxRows < n {
		n = opt.MaxRows
	}
	cols := make([][]string, len(schema))
	for j, fld := range schema {
		t.header[j] = escapePipes(fld.Name)
		t.types[j] = fld.Type.String()
		if !opt.HideTypes && opt.Style != ASCII {
			// Markdown allows a single header row.
			t.header[j] += " (" + t.types[j] + ")"
		}
		t.numeric[j] = fld.Type.IsNumeric()
		c, err := f.Column(fld.Name)
		if err != nil {
			return nil, err
		}
		cols[j] = formatColumn(c, n, opt.Precision)
	}

	t.rows = make([][]string, n)
	for i := range t.rows {
		t.rows[i] = make([]string, len(schema))
		for j := range schema {
			t.rows[i][j] = cols[j][i]
		}
	}

	for j := range schema {
		t.widths[j] = runewidth.StringWidth(t.header[j])
		if !opt.HideTypes && opt.Style == ASCII {
			t.widths[j] = max(t.widths[j], runewidth.StringWidth(t.types[j]))
		}
		for _, r := range t.rows {
			t.widths[j] = max(t.widths[j], runewidth.StringWidth(r[j]))
		}
	}
	return t, nil
}

func formatColumn(c *frame.Series, n, precision int) []string {
	out := make([]string, n)
	vals := c.Values()
	for i := 0; i < n; i++ {
		out[i] = escapePipes(FormatValue(vals[i], precision))
	}
	return out
}

// FormatValue renders one cell. Nulls print as "null" and NaN as "NaN".
func FormatValue(v any, precision int) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case float64:
		if math.IsNaN(x) {
			return "NaN"
		}
		return strconv.FormatFloat(x, 'f', precision, 64)
	case string:
		return strings.ReplaceAll(x, "\n", " ")
	default:
		return fmt.Sprint(x)
	}
}

func pad(s string, width int, right bool) string {
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}

// Render formats f as a table according to opt.
func Render(f *frame.Frame, opt Options) (string, error) {
	t, err := build(f, opt)
	if err != nil {
		return "", err
	}
	switch opt.Style {
	case ASCII:
		return t.ascii(opt.HideTypes), nil
	case Markdown, "":
		return t.markdown(), nil
	default:
		return "", fmt.Errorf("invalid table style %q", opt.Style)
	}
}

func (t *table) line(b *strings.Builder, cells []string, alignNumeric bool) {
	b.WriteString("|")
	for j, c := range cells {
		b.WriteString(" ")
		b.WriteString(pad(c, t.widths[j], alignNumeric && t.numeric[j]))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func (t *table) markdown() string {
	var b strings.Builder
	t.line(&b, t.header, false)
	b.WriteString("|")
	for j, w := range t.widths {
		if t.numeric[j] {
			b.WriteString(" " + strings.Repeat("-", max(w-1, 2)) + ": |")
		} else {
			b.WriteString(" " + strings.Repeat("-", max(w, 3)) + " |")
		}
	}
	b.WriteString("\n")
	for _, r := range t.rows {
		t.line(&b, r, true)
	}
	return b.String()
}

func (t *table) rule(b *strings.Builder, fill string) {
	b.WriteString("+")
	for _, w := range t.widths {
		b.WriteString(strings.Repeat(fill, w+2))
		b.WriteString("+")
	}
	b.WriteString("\n")
}

func (t *table) ascii(hideTypes bool) string {
	var b strings.Builder
	t.rule(&b, "-")
	t.line(&b, t.header, false)
	if !hideTypes {
		t.line(&b, t.types, false)
	}
	t.rule(&b, "=")
	for _, r := range t.rows {
		t.line(&b, r, true)
	}
	t.rule(&b, "-")
	return b.String()
}
