package filter

import (
	"fmt"
	"sort"
	"time"

	"github.com/citeworthy/paperdex/internal/domain/search/window"
)

// MaxCategories is the maximum number of category restrictions per filter.
const MaxCategories = 16

// Filter is the candidate-filtering predicate: a publication time window
// plus an optional category restriction set. Pure value object, constructed
// per request. The zero value is unrestricted (all-time, any category).
type Filter struct {
	window     window.Window
	categories []string
}

// New validates and creates a Filter. An empty window is "unspecified":
// the calling query fills in its own default via WithDefaultWindow.
// Categories are deduplicated and sorted; an empty set means unrestricted.
func New(w window.Window, categories []string) (Filter, error) {
	if w != "" && !w.IsValid() {
		return Filter{}, fmt.Errorf("invalid time window %q", w)
	}
	normalized := normalizeCategories(categories)
	if len(normalized) > MaxCategories {
		return Filter{}, fmt.Errorf("too many categories (max %d)", MaxCategories)
	}
	return Filter{window: w, categories: normalized}, nil
}

// Window returns the time window. Unspecified reads as all-time.
func (f Filter) Window() window.Window {
	if f.window == "" {
		return window.AllTime
	}
	return f.window
}

// WithDefaultWindow returns a copy with the window set to w if the filter
// was built without one. Which default applies is the calling query's
// policy: keyword browsing defaults to all-time, similarity to last-week.
func (f Filter) WithDefaultWindow(w window.Window) Filter {
	if f.window == "" && w.IsValid() {
		f.window = w
	}
	return f
}

// Categories returns the category restriction set (empty = unrestricted).
func (f Filter) Categories() []string { return f.categories }

// Cutoff returns the inclusive published-date lower bound, zero for all-time.
func (f Filter) Cutoff(now time.Time) time.Time {
	return f.Window().Cutoff(now)
}

// Matches reports whether a paper with the given published date and
// categories survives the filter at the given instant.
func (f Filter) Matches(now, published time.Time, categories []string) bool {
	if cutoff := f.Cutoff(now); !cutoff.IsZero() && published.Before(cutoff) {
		return false
	}
	if len(f.categories) == 0 {
		return true
	}
	for _, want := range f.categories {
		for _, have := range categories {
			if want == have {
				return true
			}
		}
	}
	return false
}

func normalizeCategories(categories []string) []string {
	seen := make(map[string]struct{}, len(categories))
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
