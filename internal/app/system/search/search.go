// internal/app/system/search/search.go
package search

import (
	"regexp"
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NamePrefix builds a Mongo filter matching the case-folded name_ci
// field by prefix. The query is folded the same way the stores fold
// names on write, so "Río" finds "rio grande chess club". Returns nil
// for a blank query so callers can skip the clause entirely.
//
// The regex is anchored and quoted, which keeps it on the name_ci
// index and stops callers from injecting regex syntax.
func NamePrefix(q string) bson.M {
	folded := strings.TrimSpace(text.Fold(q))
	if folded == "" {
		return nil
	}
	return bson.M{"name_ci": primitive.Regex{
		Pattern: "^" + regexp.QuoteMeta(folded),
	}}
}
