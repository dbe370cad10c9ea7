package frame

import (
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
)

// Column is a named list of literals used to construct a frame.
type Column struct {
	Name   string
	Values []any
}

// Option configures frame construction.
type Option func(*buildOptions)

type buildOptions struct {
	strict bool
	schema Schema
}

// Strict toggles type validation. When off, mixed literals are widened to the
// narrowest type that holds them all. Strict is on by default.
func Strict(on bool) Option {
	return func(o *buildOptions) {
		o.strict = on
	}
}

// WithSchema fixes the dtype of the named columns instead of inferring it.
func WithSchema(fields ...Field) Option {
	return func(o *buildOptions) {
		o.schema = append(o.schema, fields...)
	}
}

// Gota is the Engine backed by github.com/go-gota/gota.
type Gota struct{}

// NewGota returns the gota-backed engine.
func NewGota() *Gota {
	return &Gota{}
}

// FromColumns builds a frame from literal columns.
func (g *Gota) FromColumns(cols []Column, opts ...Option) (*Frame, error) {
	o := buildOptions{strict: true}
	for _, opt := range opts {
		opt(&o)
	}

	if len(cols) == 0 {
		return &Frame{df: dataframe.New(), schema: Schema{}}, nil
	}

	height := len(cols[0].Values)
	built := make([]series.Series, 0, len(cols))
	schema := make(Schema, 0, len(cols))
	seen := make(map[string]bool, len(cols))

	for _, col := range cols {
		if seen[col.Name] {
			return nil, errors.Wrapf(ErrSchemaMismatch, "duplicate column %q", col.Name)
		}
		seen[col.Name] = true

		if len(col.Values) != height {
			return nil, errors.Wrapf(ErrShapeMismatch, "column %q has %d values, want %d", col.Name, len(col.Values), height)
		}

		dtype, explicit := o.schema.Lookup(col.Name)
		if !explicit {
			var err error
			dtype, err = inferColumn(col, o.strict)
			if err != nil {
				return nil, err
			}
		}

		cells := make([]string, len(col.Values))
		for i, v := range col.Values {
			cell, err := castLiteral(v, dtype, !o.strict && !explicit)
			if err != nil {
				return nil, errors.Wrapf(err, "column %q, row %d", col.Name, i)
			}
			cells[i] = cell
		}

		s, err := newSeriesFromCells(col.Name, dtype, cells)
		if err != nil {
			return nil, err
		}
		built = append(built, s.s)
		schema = append(schema, Field{Name: col.Name, Type: dtype})
	}

	for _, f := range o.schema {
		if !seen[f.Name] {
			return nil, unknownColumn(f.Name)
		}
	}

	df := dataframe.New(built...)
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "build frame")
	}
	return &Frame{df: df, schema: schema}, nil
}

// inferColumn picks the dtype of a literal column. In strict mode every
// non-null literal must share one dtype.
func inferColumn(col Column, strict bool) (DType, error) {
	dtype := Null
	for i, v := range col.Values {
		t, err := literalType(v)
		if err != nil {
			return Null, errors.Wrapf(err, "column %q, row %d", col.Name, i)
		}
		if t == Null {
			continue
		}
		if strict && dtype != Null && t != dtype {
			return Null, errors.Wrapf(ErrTypeMismatch,
				"column %q: unexpected value %v of type %s at row %d, column is %s (set strict=false to coerce)",
				col.Name, v, t, i, dtype)
		}
		dtype = widen(dtype, t)
	}
	if dtype == Null {
		// All-null columns are stored as strings.
		dtype = Utf8
	}
	return dtype, nil
}

// ReadCSV loads a CSV with a header row, letting the engine infer column types.
func (g *Gota) ReadCSV(r io.Reader) (*Frame, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues([]string{"", "NA", "NaN", "null", "n/a"}),
	)
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "read csv")
	}
	return &Frame{df: df, schema: schemaOf(df)}, nil
}
