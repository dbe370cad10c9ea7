package nutrition

import (
	"fmt"

	"github.com/rewired-gh/nutriframe/internal/frame"
	"github.com/samber/lo"
)

// Regime is a dietary filter over a row's tags.
type Regime struct {
	Name  string
	Match func(tags TagSet) bool
}

func none(tags ...string) func(TagSet) bool {
	return func(t TagSet) bool {
		return !lo.SomeBy(tags, t.Contains)
	}
}

func anyOf(tags ...string) func(TagSet) bool {
	return func(t TagSet) bool {
		return lo.SomeBy(tags, t.Contains)
	}
}

func all(preds ...func(TagSet) bool) func(TagSet) bool {
	return func(t TagSet) bool {
		return lo.EveryBy(preds, func(p func(TagSet) bool) bool { return p(t) })
	}
}

// Regimes returns the dietary regimes in report order.
// "seafood" is not in the vocabulary, so pirate only ever matches on fish or oils.
func Regimes() []Regime {
	return []Regime{
		{"vegetarian", none("meat", "fish")},
		{"vegan", none("meat", "fish", "dairy", "eggs")},
		{"paleo", all(
			none("dairy", "cereal", "cereals", "bread", "prepared"),
			anyOf("meat", "fish", "fruit", "vegetables", "nuts", "seeds"),
		)},
		{"low_carb", none("bread", "cereal", "cereals", "potatoes", "sweets", "snacks")},
		{"high_protein", anyOf("meat", "fish", "eggs", "dairy", "nuts", "seeds")},
		{"low_fat", none("oils", "oleaginous", "nuts", "seeds")},
		{"dairy_free", none("dairy", "milk")},
		{"raw", all(
			none("prepared"),
			anyOf("fruit", "vegetables", "nuts", "seeds"),
		)},
		{"pirate", anyOf("fish", "seafood", "oils")},
	}
}

// RegimeByName looks up a regime.
func RegimeByName(name string) (Regime, bool) {
	return lo.Find(Regimes(), func(r Regime) bool { return r.Name == name })
}

// Mask evaluates the regime on every row of f using its tags column.
func (r Regime) Mask(f *frame.Frame) ([]bool, error) {
	tags, err := f.Column(ColTags)
	if err != nil {
		return nil, fmt.Errorf("regime %s: %w", r.Name, err)
	}
	return lo.Map(tags.Strings(), func(s string, _ int) bool {
		return r.Match(DecodeTags(s))
	}), nil
}

// Filter keeps the rows of f that satisfy the regime.
func (r Regime) Filter(f *frame.Frame) (*frame.Frame, error) {
	mask, err := r.Mask(f)
	if err != nil {
		return nil, err
	}
	return f.Filter(func(row frame.Row) bool { return mask[row.Index()] })
}
