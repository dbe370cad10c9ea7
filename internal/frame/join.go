package frame

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// JoinKind selects the join strategy.
type JoinKind int

const (
	Inner JoinKind = iota
	Left
	Cross
)

func (k JoinKind) String() string {
	switch k {
	case Inner:
		return "inner"
	case Left:
		return "left"
	case Cross:
		return "cross"
	default:
		return "unknown"
	}
}

// Join combines f with right. Inner and Left match rows on the key columns
// named in on, which must exist on both sides with the same dtype. Cross takes
// no keys. The result keeps f's columns first, then right's non-key columns.
func (f *Frame) Join(right *Frame, how JoinKind, on ...string) (*Frame, error) {
	if how == Cross {
		if len(on) > 0 {
			return nil, errors.Wrap(ErrSchemaMismatch, "cross join takes no keys")
		}
	} else if len(on) == 0 {
		return nil, errors.Wrapf(ErrSchemaMismatch, "%s join needs at least one key", how)
	}

	for _, k := range on {
		lt, ok := f.schema.Lookup(k)
		if !ok {
			return nil, unknownColumn(k)
		}
		rt, ok := right.schema.Lookup(k)
		if !ok {
			return nil, errors.Wrapf(ErrSchemaMismatch, "join key %q missing on right side", k)
		}
		if lt != rt {
			return nil, errors.Wrapf(ErrSchemaMismatch, "join key %q is %s on the left and %s on the right", k, lt, rt)
		}
	}

	rightOnly := lo.Without(right.Columns(), on...)
	if clash := lo.Intersect(lo.Without(f.Columns(), on...), rightOnly); len(clash) > 0 {
		return nil, errors.Wrapf(ErrSchemaMismatch, "column %q exists on both sides of the join", clash[0])
	}

	var df dataframe.DataFrame
	switch how {
	case Inner:
		df = f.df.InnerJoin(right.df, on...)
	case Left:
		df = f.df.LeftJoin(right.df, on...)
	case Cross:
		df = f.df.CrossJoin(right.df)
	default:
		return nil, errors.Errorf("unknown join kind %d", how)
	}
	if df.Err != nil {
		return nil, errors.Wrapf(df.Err, "%s join", how)
	}

	order := append(f.Columns(), rightOnly...)
	if df.Nrow() == 0 {
		return emptyLike(order, f.schema, right.schema), nil
	}
	df = df.Select(order)
	if df.Err != nil {
		return nil, errors.Wrapf(df.Err, "%s join", how)
	}
	return &Frame{df: df, schema: schemaOf(df, f.schema, right.schema)}, nil
}

// emptyLike builds a zero-row frame with the columns in order, typed from hints.
func emptyLike(order []string, hints ...Schema) *Frame {
	schema := make(Schema, 0, len(order))
	for _, n := range order {
		for _, h := range hints {
			if t, ok := h.Lookup(n); ok {
				schema = append(schema, Field{Name: n, Type: t})
				break
			}
		}
	}
	return (&Frame{schema: schema}).take(nil)
}
