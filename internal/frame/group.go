package frame

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Aggregation reduces one group to a single value of type Type.
type Aggregation struct {
	Alias string
	Type  DType
	Apply func(group *Frame) any
}

// MeanOf averages a numeric column, skipping nulls.
func MeanOf(col, alias string) Aggregation {
	return Aggregation{
		Alias: alias,
		Type:  Float64,
		Apply: func(g *Frame) any {
			c, err := g.Column(col)
			if err != nil {
				return nil
			}
			return nanToNil(NanMean(c.Floats()))
		},
	}
}

// SumOf adds a numeric column, skipping nulls.
func SumOf(col, alias string) Aggregation {
	return Aggregation{
		Alias: alias,
		Type:  Float64,
		Apply: func(g *Frame) any {
			c, err := g.Column(col)
			if err != nil {
				return nil
			}
			var total float64
			for _, v := range c.Floats() {
				if !math.IsNaN(v) {
					total += v
				}
			}
			return total
		},
	}
}

// CountRows counts the rows of each group.
func CountRows(alias string) Aggregation {
	return Aggregation{
		Alias: alias,
		Type:  Int64,
		Apply: func(g *Frame) any { return g.Height() },
	}
}

// ListOf joins the non-null string values of a column with sep.
func ListOf(col, alias, sep string) Aggregation {
	return Aggregation{
		Alias: alias,
		Type:  Utf8,
		Apply: func(g *Frame) any {
			c, err := g.Column(col)
			if err != nil {
				return nil
			}
			var vals []string
			for i, v := range c.Strings() {
				if !c.IsNull(i) {
					vals = append(vals, v)
				}
			}
			return strings.Join(vals, sep)
		},
	}
}

// NanMean is the mean of the non-NaN values, NaN when there are none.
func NanMean(vals []float64) float64 {
	var sum float64
	n := 0
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

func nanToNil(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

// GroupBy partitions a frame by the values of key columns.
type GroupBy struct {
	f    *Frame
	keys []string
	err  error
}

// GroupBy starts a grouped aggregation over keys.
func (f *Frame) GroupBy(keys ...string) *GroupBy {
	if len(keys) == 0 {
		return &GroupBy{f: f, err: errors.Wrap(ErrSchemaMismatch, "group by needs at least one key")}
	}
	for _, k := range keys {
		if _, ok := f.schema.Lookup(k); !ok {
			return &GroupBy{f: f, keys: keys, err: unknownColumn(k)}
		}
	}
	return &GroupBy{f: f, keys: keys}
}

type partition struct {
	key  []string
	rows []int
}

// partitions returns the groups ordered by key values ascending.
func (g *GroupBy) partitions() []partition {
	keyCols := lo.Map(g.keys, func(k string, _ int) *Series {
		c, _ := g.f.Column(k)
		return c
	})
	index := make(map[string]int)
	var parts []partition
	for i := 0; i < g.f.Height(); i++ {
		key := make([]string, len(keyCols))
		for j, c := range keyCols {
			if c.IsNull(i) {
				key[j] = ""
				continue
			}
			key[j] = renderCell(c, i)
		}
		id := strings.Join(key, "\x1f")
		p, ok := index[id]
		if !ok {
			p = len(parts)
			index[id] = p
			parts = append(parts, partition{key: key})
		}
		parts[p].rows = append(parts[p].rows, i)
	}
	sort.SliceStable(parts, func(a, b int) bool {
		for j := range parts[a].key {
			if parts[a].key[j] != parts[b].key[j] {
				return parts[a].key[j] < parts[b].key[j]
			}
		}
		return false
	})
	return parts
}

// Agg reduces each group with aggs. The result has one row per group: the
// key columns followed by one column per aggregation.
func (g *GroupBy) Agg(aggs ...Aggregation) (*Frame, error) {
	if g.err != nil {
		return nil, g.err
	}
	parts := g.partitions()

	cols := make([]Column, 0, len(g.keys)+len(aggs))
	for _, k := range g.keys {
		c, _ := g.f.Column(k)
		vals := make([]any, len(parts))
		for i, p := range parts {
			vals[i] = c.value(p.rows[0])
		}
		cols = append(cols, Column{Name: k, Values: vals})
	}
	for _, a := range aggs {
		vals := make([]any, len(parts))
		for i, p := range parts {
			vals[i] = a.Apply(g.f.take(p.rows))
		}
		cols = append(cols, Column{Name: a.Alias, Values: vals})
	}

	schema := make([]Field, 0, len(cols))
	for _, k := range g.keys {
		t, _ := g.f.schema.Lookup(k)
		schema = append(schema, Field{Name: k, Type: t})
	}
	for _, a := range aggs {
		schema = append(schema, Field{Name: a.Alias, Type: a.Type})
	}
	return buildTyped(cols, schema)
}

// Mean averages every numeric non-key column per group.
func (g *GroupBy) Mean() (*Frame, error) {
	if g.err != nil {
		return nil, g.err
	}
	var aggs []Aggregation
	for _, fld := range g.f.schema {
		if lo.Contains(g.keys, fld.Name) || !fld.Type.IsNumeric() {
			continue
		}
		aggs = append(aggs, MeanOf(fld.Name, fld.Name))
	}
	return g.Agg(aggs...)
}

// buildTyped constructs a frame from aggregated values with a known schema.
func buildTyped(cols []Column, schema Schema) (*Frame, error) {
	for i := range cols {
		for j, v := range cols[i].Values {
			switch x := v.(type) {
			case float64:
				if math.IsNaN(x) {
					cols[i].Values[j] = nil
				}
			case string:
				cols[i].Values[j] = parseTemporal(x, schema[i].Type)
			}
		}
	}
	return NewGota().FromColumns(cols, WithSchema(schema...))
}

// parseTemporal turns the stored form of a date or datetime back into a literal.
func parseTemporal(v string, t DType) any {
	switch t {
	case Date:
		if d, err := time.Parse(dateLayout, v); err == nil {
			return NewDate(d.Year(), d.Month(), d.Day())
		}
	case Datetime:
		if d, err := time.Parse(datetimeLayout, v); err == nil {
			return d
		}
	}
	return v
}
