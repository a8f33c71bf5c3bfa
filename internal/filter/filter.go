// Package filter derives the visible subset of the catalog from a search
// term and a committed category selection.
package filter

import (
	"strings"

	"github.com/starford/vitrine/internal/models"
	"github.com/starford/vitrine/internal/selection"
)

// Apply returns the records matching both the search term and the
// selection, in their original order. It never ranks or reorders.
func Apply(records []models.Record, term string, sel selection.Selection) []models.Record {
	term = strings.ToLower(term)
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if matchesSearch(r, term) && sel.Matches(r.Category()) {
			out = append(out, r)
		}
	}
	return out
}

func matchesSearch(r models.Record, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Title), term) ||
		strings.Contains(strings.ToLower(r.Description), term) ||
		strings.Contains(r.Category(), term)
}
