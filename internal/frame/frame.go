// Package frame adapts the gota DataFrame engine to the small capability
// surface the tutorial needs: construct, load, select, filter, group, join
// and display. Frames are immutable; every operation returns a new Frame.
//
// The engine stores four physical types (string, int, float, bool). Frame
// keeps a logical Schema next to it so dates, datetimes and strict type
// validation survive the round trip.
package frame

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Engine is the capability set the runner needs to create datasets.
type Engine interface {
	FromColumns(cols []Column, opts ...Option) (*Frame, error)
	ReadCSV(r io.Reader) (*Frame, error)
}

// Frame is an immutable, column-oriented table.
type Frame struct {
	df     dataframe.DataFrame
	schema Schema
}

// Schema returns a copy of the frame's schema.
func (f *Frame) Schema() Schema {
	return append(Schema(nil), f.schema...)
}

// Shape returns (rows, columns).
func (f *Frame) Shape() (int, int) {
	return f.Height(), len(f.schema)
}

// Height returns the number of rows.
func (f *Frame) Height() int {
	if len(f.schema) == 0 {
		return 0
	}
	return f.df.Nrow()
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	return f.schema.Names()
}

// Column returns a single column as a Series.
func (f *Frame) Column(name string) (*Series, error) {
	dtype, ok := f.schema.Lookup(name)
	if !ok {
		return nil, unknownColumn(name)
	}
	return &Series{s: f.df.Col(name), dtype: dtype}, nil
}

// Select returns a frame holding the columns matched by sels, in order.
func (f *Frame) Select(sels ...Selector) (*Frame, error) {
	names, err := resolveAll(f.schema, sels)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, errors.Wrap(ErrSchemaMismatch, "selection matched no columns")
	}
	df := f.df.Select(names)
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "select")
	}
	return &Frame{df: df, schema: f.schema.project(names)}, nil
}

// SelectNames is Select(ByName(names...)).
func (f *Frame) SelectNames(names ...string) (*Frame, error) {
	return f.Select(ByName(names...))
}

// WithColumns appends cols, replacing existing columns of the same name.
func (f *Frame) WithColumns(cols ...*Series) (*Frame, error) {
	df := f.df
	schema := f.Schema()
	for _, c := range cols {
		if c.Len() != f.Height() {
			return nil, errors.Wrapf(ErrShapeMismatch, "column %q has %d rows, frame has %d", c.Name(), c.Len(), f.Height())
		}
		df = df.Mutate(c.s)
		if df.Err != nil {
			return nil, errors.Wrapf(df.Err, "add column %q", c.Name())
		}
		replaced := false
		for i := range schema {
			if schema[i].Name == c.Name() {
				schema[i].Type = c.dtype
				replaced = true
			}
		}
		if !replaced {
			schema = append(schema, Field{Name: c.Name(), Type: c.dtype})
		}
	}
	return &Frame{df: df, schema: schema}, nil
}

// Rename returns a frame with column from renamed to to.
func (f *Frame) Rename(from, to string) (*Frame, error) {
	if _, ok := f.schema.Lookup(from); !ok {
		return nil, unknownColumn(from)
	}
	df := f.df.Rename(to, from)
	if df.Err != nil {
		return nil, errors.Wrapf(df.Err, "rename %q", from)
	}
	schema := f.Schema()
	for i := range schema {
		if schema[i].Name == from {
			schema[i].Name = to
		}
	}
	return &Frame{df: df, schema: schema}, nil
}

// Row is a read-only cursor over one row of a frame. Accessors given an
// unknown column return the zero value; Rows and Filter report the first such
// name as ErrSchemaMismatch.
type Row struct {
	f   *Frame
	i   int
	err *error
}

// Index returns the row position in its frame.
func (r Row) Index() int { return r.i }

func (r Row) elem(name string) (series.Element, bool) {
	if _, ok := r.f.schema.Lookup(name); !ok {
		if *r.err == nil {
			*r.err = unknownColumn(name)
		}
		return nil, false
	}
	return r.f.df.Col(name).Elem(r.i), true
}

// Str returns the string value of column name, "" for nulls.
func (r Row) Str(name string) string {
	el, ok := r.elem(name)
	if !ok || el.IsNA() {
		return ""
	}
	return el.String()
}

// Float returns the numeric value of column name, NaN for nulls.
func (r Row) Float(name string) float64 {
	el, ok := r.elem(name)
	if !ok {
		return math.NaN()
	}
	return el.Float()
}

// IsNull reports whether column name is missing in this row.
func (r Row) IsNull(name string) bool {
	el, ok := r.elem(name)
	return !ok || el.IsNA()
}

// Rows calls fn for every row in order. It stops at the first row that
// references an unknown column.
func (f *Frame) Rows(fn func(Row)) error {
	var err error
	for i := 0; i < f.Height() && err == nil; i++ {
		fn(Row{f: f, i: i, err: &err})
	}
	return err
}

// Filter keeps the rows for which keep returns true.
func (f *Frame) Filter(keep func(Row) bool) (*Frame, error) {
	var idx []int
	err := f.Rows(func(r Row) {
		if keep(r) {
			idx = append(idx, r.i)
		}
	})
	if err != nil {
		return nil, err
	}
	return f.take(idx), nil
}

// Head returns the first n rows.
func (f *Frame) Head(n int) *Frame {
	n = min(max(n, 0), f.Height())
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return f.take(idx)
}

// Tail returns the last n rows.
func (f *Frame) Tail(n int) *Frame {
	n = min(max(n, 0), f.Height())
	idx := make([]int, n)
	for i := range idx {
		idx[i] = f.Height() - n + i
	}
	return f.take(idx)
}

// take returns the rows at idx, in that order.
func (f *Frame) take(idx []int) *Frame {
	if len(idx) == 0 {
		cols := make([]series.Series, len(f.schema))
		for i, fld := range f.schema {
			cols[i] = series.New([]string{}, fld.Type.seriesType(), fld.Name)
		}
		return &Frame{df: dataframe.New(cols...), schema: f.Schema()}
	}
	return &Frame{df: f.df.Subset(idx), schema: f.Schema()}
}

// Sort orders rows by a column. Nulls always sort last and ties keep their
// order.
func (f *Frame) Sort(by string, descending bool) (*Frame, error) {
	if _, ok := f.schema.Lookup(by); !ok {
		return nil, unknownColumn(by)
	}
	if f.Height() == 0 {
		return f, nil
	}
	order := dataframe.Sort(by)
	if descending {
		order = dataframe.RevSort(by)
	}
	df := f.df.Arrange(order)
	if df.Err != nil {
		return nil, errors.Wrapf(ErrTypeMismatch, "sort by %q: %v", by, df.Err)
	}
	return &Frame{df: df, schema: f.Schema()}, nil
}

// Unique returns the distinct values of a column in first-seen order.
func (f *Frame) Unique(name string) (*Frame, error) {
	single, err := f.SelectNames(name)
	if err != nil {
		return nil, err
	}
	col := single.df.Col(name)
	records, nulls := col.Records(), col.IsNaN()
	idx := lo.UniqBy(lo.Range(col.Len()), func(i int) string {
		if nulls[i] {
			return "\x00null"
		}
		return records[i]
	})
	return single.take(idx), nil
}

// FillNull replaces nulls in a Utf8 column with value.
func (f *Frame) FillNull(name, value string) (*Frame, error) {
	col, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	if col.dtype != Utf8 {
		return nil, errors.Wrapf(ErrTypeMismatch, "fill null on %s column %q", col.dtype, name)
	}
	vals := col.Strings()
	for i := range vals {
		if col.IsNull(i) {
			vals[i] = value
		}
	}
	return f.WithColumns(Strings(name, vals, nil))
}

// ToMaps returns one map per row keyed by column name; nulls are nil.
func (f *Frame) ToMaps() []map[string]any {
	cols := make([]*Series, len(f.schema))
	for i, fld := range f.schema {
		cols[i], _ = f.Column(fld.Name)
	}
	out := make([]map[string]any, f.Height())
	for r := range out {
		row := make(map[string]any, len(cols))
		for _, c := range cols {
			row[c.Name()] = c.value(r)
		}
		out[r] = row
	}
	return out
}

// ToMatrix returns the frame as a row-major float64 matrix. Every column
// must be numeric; mixed frames fail with ErrIncompatibleCast.
func (f *Frame) ToMatrix() ([][]float64, error) {
	for _, fld := range f.schema {
		if !fld.Type.IsNumeric() && fld.Type != Bool {
			return nil, errors.Wrapf(ErrIncompatibleCast,
				"cannot convert frame with column %q of type %s to a homogeneous float64 matrix; select numeric columns first",
				fld.Name, fld.Type)
		}
	}
	cols := make([][]float64, len(f.schema))
	for j, fld := range f.schema {
		c, _ := f.Column(fld.Name)
		cols[j] = c.Floats()
	}
	out := make([][]float64, f.Height())
	for i := range out {
		out[i] = make([]float64, len(cols))
		for j := range cols {
			out[i][j] = cols[j][i]
		}
	}
	return out, nil
}

// Glimpse renders one line per column: name, dtype and the first values.
func (f *Frame) Glimpse() string {
	const maxValues = 5
	rows, cols := f.Shape()
	var b strings.Builder
	fmt.Fprintf(&b, "Rows: %d\nColumns: %d\n", rows, cols)
	width := 0
	for _, fld := range f.schema {
		width = max(width, len(fld.Name))
	}
	for _, fld := range f.schema {
		c, _ := f.Column(fld.Name)
		vals := make([]string, 0, maxValues)
		for i := 0; i < min(maxValues, c.Len()); i++ {
			cell := renderCell(c, i)
			if fld.Type == Utf8 && !c.IsNull(i) {
				cell = fmt.Sprintf("%q", cell)
			}
			vals = append(vals, cell)
		}
		fmt.Fprintf(&b, "$ %-*s <%s> %s\n", width, fld.Name, fld.Type, strings.Join(vals, ", "))
	}
	return b.String()
}

func renderCell(c *Series, i int) string {
	v := c.value(i)
	switch x := v.(type) {
	case nil:
		return "null"
	case float64:
		if math.IsNaN(x) {
			return "NaN"
		}
		return fmt.Sprintf("%g", x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// Cell returns the display form of row i, column name.
func (f *Frame) Cell(i int, name string) (string, error) {
	c, err := f.Column(name)
	if err != nil {
		return "", err
	}
	if i < 0 || i >= c.Len() {
		return "", errors.Wrapf(ErrShapeMismatch, "row %d out of range", i)
	}
	return renderCell(c, i), nil
}

// String renders the frame with the engine's own formatter.
func (f *Frame) String() string {
	return f.df.String()
}
