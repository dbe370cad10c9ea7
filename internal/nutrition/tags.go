// Package nutrition holds the domain content of the walkthrough: the tag
// vocabulary matched against food categories, the dietary regimes defined
// over those tags, the nutrient metrics and the column derivations applied
// to the food-composition dataset.
package nutrition

import (
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Vocabulary is the fixed, ordered tag list matched against categories.
var Vocabulary = []string{
	"alcoholic", "bread", "cereal", "cereals", "cold", "dairy", "eggs", "fish",
	"flakes", "fruit", "meat", "milk", "nuts", "oils", "oleaginous", "plant",
	"potatoes", "prepared", "products", "seeds", "snacks", "sweets", "vegetables",
}

const tagSeparator = ","

var lower = cases.Lower(language.Und)

// TagSet is an ordered set of vocabulary tags.
type TagSet []string

// CategoriesToTags returns the vocabulary terms that occur in category as a
// case-insensitive substring, in vocabulary order.
func CategoriesToTags(category string) TagSet {
	folded := lower.String(category)
	return lo.Filter(Vocabulary, func(tag string, _ int) bool {
		return strings.Contains(folded, tag)
	})
}

// Contains reports whether tag is in the set.
func (t TagSet) Contains(tag string) bool {
	return lo.Contains(t, tag)
}

// Encode renders the set in the form stored in the tags column.
func (t TagSet) Encode() string {
	return strings.Join(t, tagSeparator)
}

// DecodeTags parses a tags column value. The empty string is the empty set.
func DecodeTags(s string) TagSet {
	if s == "" {
		return TagSet{}
	}
	return strings.Split(s, tagSeparator)
}
