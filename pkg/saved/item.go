package saved

import (
	"strings"
	"time"

	"github.com/entrhq/websaver/pkg/saved/wire"
)

const (
	// MaxItems is the capacity of a collection.
	MaxItems = 200

	// StorageKey is the backend key holding the serialized collection.
	StorageKey = "savedTabs"

	// TimestampLayout is the savedAt format written for new items
	// (UTC, millisecond precision).
	TimestampLayout = "2006-01-02T15:04:05.000Z"
)

// SavedItem is one bookmarked page. SavedAt stays a string so imported
// values that are not valid timestamps survive a round trip unchanged.
type SavedItem struct {
	URL     string
	Title   string
	Notes   string
	Tags    []string
	SavedAt string
}

// Candidate is the raw user input for Add.
type Candidate struct {
	URL   string
	Title string
	Notes string
	// Tags is the free-text, comma separated tag field
	Tags string
	// DefaultTitle replaces Title when Title is blank (the page's own title)
	DefaultTitle string
}

// ParseTags splits comma separated text into trimmed, lowercased,
// non-empty tags in the order they were typed. Duplicates are kept.
func ParseTags(text string) []string {
	tags := []string{}
	for _, part := range strings.Split(text, ",") {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// savedAtLayouts are tried in order when interpreting SavedAt.
var savedAtLayouts = []string{
	time.RFC3339, // accepts fractional seconds too
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// epoch is the instant used for SavedAt values that cannot be parsed.
var epoch = time.Unix(0, 0).UTC()

// SavedTime returns SavedAt as an instant, or the Unix epoch if it cannot
// be parsed. Zone-less values are read as UTC.
func (it SavedItem) SavedTime() time.Time {
	s := strings.TrimSpace(it.SavedAt)
	for _, layout := range savedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return epoch
}

// MatchesAnyTag reports whether at least one of the item's tags contains at
// least one filter as a substring. An empty filter list matches everything.
func (it SavedItem) MatchesAnyTag(filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	for _, filter := range filters {
		for _, tag := range it.Tags {
			if strings.Contains(tag, filter) {
				return true
			}
		}
	}
	return false
}

func (it SavedItem) clone() SavedItem {
	it.Tags = append([]string{}, it.Tags...)
	return it
}

func toRecords(items []SavedItem) []wire.Record {
	records := make([]wire.Record, len(items))
	for i, it := range items {
		records[i] = wire.Record{URL: it.URL, Title: it.Title, Notes: it.Notes, Tags: it.Tags, SavedAt: it.SavedAt}
	}
	return records
}

func fromRecords(records []wire.Record) []SavedItem {
	items := make([]SavedItem, len(records))
	for i, r := range records {
		items[i] = SavedItem{URL: r.URL, Title: r.Title, Notes: r.Notes, Tags: r.Tags, SavedAt: r.SavedAt}
	}
	return items
}
