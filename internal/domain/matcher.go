package domain

import "strings"

// HasAllCategories evaluates the category-set predicate in memory. It holds
// when the number of distinct held categories named in requested equals the
// number of distinct catalog categories named in requested. Requested names
// are expected lower-cased. A nil set matches everything.
//
// Names absent from the catalog contribute to neither side, so they never
// exclude a restaurant.
func HasAllCategories(held, catalog []Category, requested []string) bool {
	if requested == nil {
		return true
	}
	want := make(map[string]struct{}, len(requested))
	for _, n := range requested {
		want[n] = struct{}{}
	}
	return countNamed(held, want) == countNamed(catalog, want)
}

func countNamed(cats []Category, want map[string]struct{}) int {
	seen := make(map[int64]struct{}, len(cats))
	for _, c := range cats {
		if _, ok := want[strings.ToLower(c.Name)]; !ok {
			continue
		}
		seen[c.ID] = struct{}{}
	}
	return len(seen)
}
