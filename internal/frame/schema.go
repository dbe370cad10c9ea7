package frame

import (
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"
)

// Field is a named, typed column slot.
type Field struct {
	Name string
	Type DType
}

// Schema is the ordered list of a frame's fields.
type Schema []Field

// Names returns the field names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Lookup returns the dtype of name.
func (s Schema) Lookup(name string) (DType, bool) {
	for _, f := range s {
		if f.Name == name {
			return f.Type, true
		}
	}
	return Null, false
}

func (s Schema) String() string {
	parts := make([]string, len(s))
	for i, f := range s {
		parts[i] = fmt.Sprintf("%q: %s", f.Name, f.Type)
	}
	return "Schema({" + strings.Join(parts, ", ") + "})"
}

func (s Schema) project(names []string) Schema {
	out := make(Schema, 0, len(names))
	for _, n := range names {
		if t, ok := s.Lookup(n); ok {
			out = append(out, Field{Name: n, Type: t})
		}
	}
	return out
}

// schemaOf rebuilds a schema for df, preferring logical types from hints
// and falling back to the engine's storage type.
func schemaOf(df dataframe.DataFrame, hints ...Schema) Schema {
	names := df.Names()
	types := df.Types()
	out := make(Schema, len(names))
	for i, n := range names {
		t := dtypeFromSeries(types[i])
		for _, h := range hints {
			if ht, ok := h.Lookup(n); ok && ht.seriesType() == types[i] {
				t = ht
				break
			}
		}
		out[i] = Field{Name: n, Type: t}
	}
	return out
}
