package frame

import (
	"math"
	"strconv"
	"strings"

	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
)

// Series is a single named, homogeneous column.
type Series struct {
	s     series.Series
	dtype DType
}

// NewSeries builds a series of dtype from literals. Literals must be castable
// to dtype without widening into Utf8.
func NewSeries(name string, dtype DType, values []any) (*Series, error) {
	cells := make([]string, len(values))
	for i, v := range values {
		cell, err := castLiteral(v, dtype, false)
		if err != nil {
			return nil, errors.Wrapf(err, "series %q, row %d", name, i)
		}
		cells[i] = cell
	}
	return newSeriesFromCells(name, dtype, cells)
}

// Floats builds a Float64 series. NaN values are stored as nulls; ±Inf is kept.
func Floats(name string, values []float64) *Series {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = formatFloatCell(v)
	}
	s, _ := newSeriesFromCells(name, Float64, cells)
	return s
}

// Strings builds a Utf8 series. When valid is non-nil, false entries are nulls.
func Strings(name string, values []string, valid []bool) *Series {
	cells := make([]string, len(values))
	for i, v := range values {
		if valid != nil && !valid[i] {
			cells[i] = naLiteral
			continue
		}
		cells[i] = v
	}
	s, _ := newSeriesFromCells(name, Utf8, cells)
	return s
}

func newSeriesFromCells(name string, dtype DType, cells []string) (*Series, error) {
	s := series.New(cells, dtype.seriesType(), name)
	if s.Err != nil {
		return nil, errors.Wrapf(ErrTypeMismatch, "series %q: %v", name, s.Err)
	}
	return &Series{s: s, dtype: dtype}, nil
}

func formatFloatCell(v float64) string {
	if math.IsNaN(v) {
		return naLiteral
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Name returns the series name.
func (s *Series) Name() string { return s.s.Name }

// Len returns the number of values.
func (s *Series) Len() int { return s.s.Len() }

// DType returns the logical type.
func (s *Series) DType() DType { return s.dtype }

// IsNull reports whether value i is missing.
func (s *Series) IsNull(i int) bool { return s.s.Elem(i).IsNA() }

// Rename returns a copy of the series under a new name.
func (s *Series) Rename(name string) *Series {
	c := s.s.Copy()
	c.Name = name
	return &Series{s: c, dtype: s.dtype}
}

// Floats returns the values as float64 with NaN for nulls and non-numeric values.
func (s *Series) Floats() []float64 {
	if !s.dtype.IsNumeric() && s.dtype != Bool {
		out := make([]float64, s.Len())
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	return s.s.Float()
}

// Strings returns the string form of each value; nulls render as "".
func (s *Series) Strings() []string {
	out := make([]string, s.Len())
	for i := range out {
		if s.IsNull(i) {
			continue
		}
		out[i] = s.s.Elem(i).String()
	}
	return out
}

// Values returns the values as Go literals, nil for nulls.
func (s *Series) Values() []any {
	out := make([]any, s.Len())
	for i := range out {
		out[i] = s.value(i)
	}
	return out
}

func (s *Series) value(i int) any {
	el := s.s.Elem(i)
	if el.IsNA() {
		return nil
	}
	switch s.dtype {
	case Bool:
		b, err := el.Bool()
		if err != nil {
			return nil
		}
		return b
	case Int64:
		n, err := el.Int()
		if err != nil {
			return nil
		}
		return int64(n)
	case Float64:
		return el.Float()
	default:
		return el.String()
	}
}

// Map applies fn to every non-null value and builds a series of dtype out.
// fn returning nil yields a null.
func (s *Series) Map(name string, out DType, fn func(v any) any) (*Series, error) {
	values := make([]any, s.Len())
	for i := range values {
		v := s.value(i)
		if v == nil {
			continue
		}
		values[i] = fn(v)
	}
	return NewSeries(name, out, values)
}

// MapFloat applies fn element-wise over the float view of the series.
func (s *Series) MapFloat(name string, fn func(float64) float64) *Series {
	in := s.Floats()
	out := make([]float64, len(in))
	for i, v := range in {
		if math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}
		out[i] = fn(v)
	}
	return Floats(name, out)
}

func (s *Series) String() string {
	var b strings.Builder
	b.WriteString("shape: (")
	b.WriteString(strconv.Itoa(s.Len()))
	b.WriteString(",)\nSeries: '")
	b.WriteString(s.Name())
	b.WriteString("' [")
	b.WriteString(s.dtype.String())
	b.WriteString("]\n[\n")
	for i := 0; i < s.Len(); i++ {
		b.WriteString("\t")
		if s.IsNull(i) {
			b.WriteString("null")
		} else {
			b.WriteString(s.s.Elem(i).String())
		}
		b.WriteString("\n")
	}
	b.WriteString("]")
	return b.String()
}

// Combine evaluates fn row-wise over the float views of cols. NaN inputs are
// passed through to fn so callers decide null propagation.
func Combine(name string, fn func(vals []float64) float64, cols ...*Series) (*Series, error) {
	if len(cols) == 0 {
		return nil, errors.Wrapf(ErrShapeMismatch, "combine %q: no input columns", name)
	}
	n := cols[0].Len()
	views := make([][]float64, len(cols))
	for i, c := range cols {
		if c.Len() != n {
			return nil, errors.Wrapf(ErrShapeMismatch, "combine %q: column %q has %d rows, want %d", name, c.Name(), c.Len(), n)
		}
		if !c.dtype.IsNumeric() && c.dtype != Bool {
			return nil, errors.Wrapf(ErrTypeMismatch, "combine %q: column %q is %s", name, c.Name(), c.dtype)
		}
		views[i] = c.Floats()
	}
	out := make([]float64, n)
	row := make([]float64, len(cols))
	for r := 0; r < n; r++ {
		for i := range views {
			row[i] = views[i][r]
		}
		out[r] = fn(row)
	}
	return Floats(name, out), nil
}

// SumHorizontal adds cols row-wise, treating nulls as zero.
func SumHorizontal(name string, cols ...*Series) (*Series, error) {
	return Combine(name, func(vals []float64) float64 {
		var total float64
		for _, v := range vals {
			if !math.IsNaN(v) {
				total += v
			}
		}
		return total
	}, cols...)
}
