package saved

import "sort"

// keepLast returns the last max entries of items by storage position.
func keepLast(items []SavedItem, max int) []SavedItem {
	if len(items) <= max {
		return items
	}
	return items[len(items)-max:]
}

// indexOfURL returns the position of the item with url, or -1.
func indexOfURL(items []SavedItem, url string) int {
	for i, it := range items {
		if it.URL == url {
			return i
		}
	}
	return -1
}

// mergeFirstWins concatenates existing and imported, drops every item whose
// url was already seen earlier in that sequence, and keeps the last max.
func mergeFirstWins(existing, imported []SavedItem, max int) []SavedItem {
	seen := make(map[string]bool, len(existing)+len(imported))
	merged := make([]SavedItem, 0, len(existing)+len(imported))
	for _, group := range [][]SavedItem{existing, imported} {
		for _, it := range group {
			if seen[it.URL] {
				continue
			}
			seen[it.URL] = true
			merged = append(merged, it)
		}
	}
	return keepLast(merged, max)
}

// removeURL returns items without any entry for url and how many were dropped.
func removeURL(items []SavedItem, url string) ([]SavedItem, int) {
	kept := make([]SavedItem, 0, len(items))
	for _, it := range items {
		if it.URL != url {
			kept = append(kept, it)
		}
	}
	return kept, len(items) - len(kept)
}

// newestFirst returns a copy of items ordered by SavedTime descending.
// Items with equal times keep their storage order.
func newestFirst(items []SavedItem) []SavedItem {
	sorted := make([]SavedItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SavedTime().After(sorted[j].SavedTime())
	})
	return sorted
}

// filterByTags keeps the items matching at least one filter tag.
func filterByTags(items []SavedItem, filters []string) []SavedItem {
	if len(filters) == 0 {
		return items
	}
	result := []SavedItem{}
	for _, it := range items {
		if it.MatchesAnyTag(filters) {
			result = append(result, it)
		}
	}
	return result
}
