// Package query resolves a listing request into the effective
// predicate set: explicit filters always win over stored
// personalization, which only augments an otherwise unfiltered
// request.
package query

import (
	"strings"
	"time"

	"newsagg/internal/models"
)

// Effective is the resolved predicate set for one listing request.
// All dimensions are AND-combined; Keyword and PrefKeywords each form
// an OR-group over title, description and content.
type Effective struct {
	Keyword      string
	Sources      []string
	Categories   []string
	Authors      []string
	DateFrom     *time.Time
	DateTo       *time.Time
	PrefKeywords []string
}

// HasExplicitFilters reports whether the request carried any explicit
// filter input. A date-only request counts as explicit and therefore
// suppresses preference narrowing; see the dedicated test before
// changing this.
func HasExplicitFilters(c models.FilterCriteria) bool {
	return c.Keyword != "" ||
		len(c.Sources) > 0 ||
		len(c.Categories) > 0 ||
		len(c.Authors) > 0 ||
		c.DateFrom != nil ||
		c.DateTo != nil
}

// Resolve combines explicit criteria with the caller's stored
// preference. Pass a nil preference for anonymous callers. The stored
// preference is applied only when no explicit filter is present, the
// ignore flag is off, and the bundle is non-empty.
func Resolve(c models.FilterCriteria, pref *models.UserPreference) Effective {
	eff := Effective{
		Keyword:    c.Keyword,
		Sources:    c.Sources,
		Categories: c.Categories,
		Authors:    c.Authors,
		DateFrom:   c.DateFrom,
		DateTo:     c.DateTo,
	}

	if HasExplicitFilters(c) || c.IgnorePreferences || pref.IsEmpty() {
		return eff
	}

	eff.Sources = pref.PreferredSources
	eff.Categories = pref.PreferredCategories
	eff.Authors = pref.PreferredAuthors
	eff.PrefKeywords = pref.Keywords
	return eff
}

// SplitList normalizes one-or-many filter input: comma-separated
// values are split, trimmed and empties dropped.
func SplitList(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
