package frame

import (
	"strings"

	"github.com/samber/lo"
)

// Selector resolves to an ordered list of column names against a schema.
type Selector interface {
	Resolve(s Schema) ([]string, error)
}

type selectorFunc func(s Schema) ([]string, error)

func (f selectorFunc) Resolve(s Schema) ([]string, error) { return f(s) }

// ByName selects the named columns. Unknown names are a schema mismatch.
func ByName(names ...string) Selector {
	return selectorFunc(func(s Schema) ([]string, error) {
		for _, n := range names {
			if _, ok := s.Lookup(n); !ok {
				return nil, unknownColumn(n)
			}
		}
		return names, nil
	})
}

// Numeric selects every integer and float column.
func Numeric() Selector {
	return selectorFunc(func(s Schema) ([]string, error) {
		var out []string
		for _, f := range s {
			if f.Type.IsNumeric() {
				out = append(out, f.Name)
			}
		}
		return out, nil
	})
}

// Contains selects columns whose name contains any of substrs.
func Contains(substrs ...string) Selector {
	return selectorFunc(func(s Schema) ([]string, error) {
		var out []string
		for _, f := range s {
			if lo.SomeBy(substrs, func(sub string) bool { return strings.Contains(f.Name, sub) }) {
				out = append(out, f.Name)
			}
		}
		return out, nil
	})
}

// Exclude selects every column except the named ones.
func Exclude(names ...string) Selector {
	return Except(All(), ByName(names...))
}

// All selects every column.
func All() Selector {
	return selectorFunc(func(s Schema) ([]string, error) {
		return s.Names(), nil
	})
}

// Except selects the columns of base not matched by any of minus.
func Except(base Selector, minus ...Selector) Selector {
	return selectorFunc(func(s Schema) ([]string, error) {
		names, err := base.Resolve(s)
		if err != nil {
			return nil, err
		}
		for _, m := range minus {
			drop, err := m.Resolve(s)
			if err != nil {
				return nil, err
			}
			names = lo.Without(names, drop...)
		}
		return names, nil
	})
}

func resolveAll(s Schema, sels []Selector) ([]string, error) {
	var names []string
	for _, sel := range sels {
		got, err := sel.Resolve(s)
		if err != nil {
			return nil, err
		}
		names = append(names, got...)
	}
	return lo.Uniq(names), nil
}
