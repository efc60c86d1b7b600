package saved

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/entrhq/websaver/pkg/logging"
	"github.com/entrhq/websaver/pkg/saved/wire"
)

// Backend is the key-value persistence the Store reads from and writes to.
type Backend interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

// Store owns the saved-item collection. Every operation is one
// read-modify-write cycle against the backend; operations are serialized so
// two callers can never interleave their cycles.
type Store struct {
	backend Backend
	codec   wire.Codec
	now     func() time.Time
	log     *logging.Logger
	mu      sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for SavedAt.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithCodec sets the wire shape used when persisting.
func WithCodec(c wire.Codec) Option { return func(s *Store) { s.codec = c } }

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option { return func(s *Store) { s.log = l } }

// New creates a Store on top of backend.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		codec:   wire.Canonical,
		now:     time.Now,
		log:     logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// load reads the persisted collection; an absent key is an empty collection.
func (s *Store) load(ctx context.Context) ([]SavedItem, error) {
	raw, ok, err := s.backend.Get(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("saved: load collection: %w", err)
	}
	if !ok || len(raw) == 0 {
		return []SavedItem{}, nil
	}
	records, err := s.codec.Decode(raw)
	if err != nil {
		return nil, &DataFormatError{Source: "stored", Err: err}
	}
	return fromRecords(records), nil
}

// persist writes the whole collection in one Set.
func (s *Store) persist(ctx context.Context, items []SavedItem) error {
	data, err := s.codec.Encode(toRecords(items))
	if err != nil {
		return fmt.Errorf("saved: encode collection: %w", err)
	}
	if err := s.backend.Set(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("saved: persist collection: %w", err)
	}
	return nil
}

// Add saves the candidate as a new item. If an item with the same URL is
// already stored the candidate is discarded and the stored item is returned
// with added=false.
//
// Before the duplicate check the collection is cut down to its last MaxItems
// stored entries; after an insert the oldest stored entry is dropped again if
// the cap would otherwise be exceeded.
func (s *Store) Add(ctx context.Context, c Candidate) (item SavedItem, added bool, err error) {
	if strings.TrimSpace(c.URL) == "" {
		return SavedItem{}, false, ErrMissingURL
	}

	title := c.Title
	if strings.TrimSpace(title) == "" {
		title = c.DefaultTitle
	}
	candidate := SavedItem{
		URL:     c.URL,
		Title:   title,
		Notes:   c.Notes,
		Tags:    ParseTags(c.Tags),
		SavedAt: s.now().UTC().Format(TimestampLayout),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return SavedItem{}, false, err
	}

	if len(items) > MaxItems {
		s.log.Debugf("evicting %d oldest item(s) before add", len(items)-MaxItems)
	}
	items = keepLast(items, MaxItems)

	if i := indexOfURL(items, candidate.URL); i >= 0 {
		s.log.Debugf("discarding duplicate %s", candidate.URL)
		if err := s.persist(ctx, items); err != nil {
			return SavedItem{}, false, err
		}
		return items[i].clone(), false, nil
	}

	items = keepLast(append(items, candidate), MaxItems)
	if err := s.persist(ctx, items); err != nil {
		return SavedItem{}, false, err
	}
	s.log.Infof("saved %s (%d tag(s), %d item(s) stored)", candidate.URL, len(candidate.Tags), len(items))
	return candidate.clone(), true, nil
}

// List returns the collection newest first, narrowed by the comma separated
// filter tags. An item is kept when any of its tags contains any filter tag
// as a substring, so "new" selects "renewal". A blank filter returns all.
func (s *Store) List(ctx context.Context, filterTagsText string) ([]SavedItem, error) {
	filters := ParseTags(filterTagsText)

	s.mu.Lock()
	items, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return filterByTags(newestFirst(items), filters), nil
}

// Delete removes the item stored under url. Deleting an unknown url is a
// no-op that still rewrites the unchanged collection.
func (s *Store) Delete(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return err
	}

	items, removed := removeURL(items, url)
	if err := s.persist(ctx, items); err != nil {
		return err
	}
	s.log.Debugf("delete %s removed %d item(s)", url, removed)
	return nil
}

// Export renders the full collection, in storage order, as indented JSON
// with canonical field names.
func (s *Store) Export(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	items, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	data, err := wire.Pretty(toRecords(items))
	if err != nil {
		return nil, fmt.Errorf("saved: export: %w", err)
	}
	return data, nil
}

// ImportMerge merges the items in payload into the collection. Stored items
// come first and win over imported items with the same URL; the merged
// sequence is then cut to its last MaxItems entries. A payload that does not
// parse returns a *DataFormatError and leaves the collection untouched.
func (s *Store) ImportMerge(ctx context.Context, payload []byte) ([]SavedItem, error) {
	records, err := wire.Decode(payload)
	if err != nil {
		return nil, &DataFormatError{Source: "import", Err: err}
	}
	imported := fromRecords(records)

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	merged := mergeFirstWins(existing, imported, MaxItems)
	if err := s.persist(ctx, merged); err != nil {
		return nil, err
	}
	s.log.Infof("imported %d record(s): %d existing, %d after merge", len(imported), len(existing), len(merged))

	out := make([]SavedItem, len(merged))
	for i, it := range merged {
		out[i] = it.clone()
	}
	return out, nil
}

// Count returns the number of stored items.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	items, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return len(items), nil
}
