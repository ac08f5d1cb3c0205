package browser

import "strings"

// Filter returns the collections visible under category and search.
//
// A collection is kept when the category is All or equals the collection's
// category, and the search text is empty or is a case-insensitive substring
// of the title or the description. The relative order of collections is
// preserved. The result is never nil so callers can tell "nothing matched"
// from "nothing loaded" by other means.
func Filter(collections []Collection, category Category, search string) []Collection {
	needle := strings.ToLower(search)
	out := make([]Collection, 0, len(collections))
	for _, c := range collections {
		if category != All && c.Category != category {
			continue
		}
		if needle != "" && !containsFold(c.Title, needle) && !containsFold(c.Description, needle) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// containsFold reports whether lowered needle occurs in s, ignoring case.
func containsFold(s, needle string) bool {
	return strings.Contains(strings.ToLower(s), needle)
}

// CategoryCounts counts collections per filterable category. The All entry
// is the total length, so collections with an unrecognised category are
// counted there and nowhere else.
func CategoryCounts(collections []Collection) map[Category]int {
	counts := make(map[Category]int, len(Categories))
	for _, c := range Categories {
		counts[c] = 0
	}
	counts[All] = len(collections)
	for _, c := range collections {
		if c.Category.Known() {
			counts[c.Category]++
		}
	}
	return counts
}
