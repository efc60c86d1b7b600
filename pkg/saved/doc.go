// Package saved manages the collection of bookmarked pages ("saved items").
//
// A collection is an ordered list of at most MaxItems items, unique by URL,
// persisted as one blob under StorageKey in an injected Backend. The Store
// exposes the only ways to change it:
//
//   - Add appends a new item unless its URL is already stored
//   - Delete removes an item by URL
//   - ImportMerge merges an exported payload, stored items winning
//
// and two read-only views:
//
//   - List sorts newest first and narrows by tag substrings
//   - Export renders the whole collection as indented JSON
//
// Usage:
//
//	store := saved.New(backend.NewMemory())
//	_, _, err := store.Add(ctx, saved.Candidate{
//		URL:          "https://go.dev/blog",
//		Tags:         "Go, Blog",
//		DefaultTitle: "The Go Blog",
//	})
//	items, err := store.List(ctx, "go")
package saved
