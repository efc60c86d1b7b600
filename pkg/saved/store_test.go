package saved

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/websaver/pkg/backend"
	"github.com/entrhq/websaver/pkg/saved/wire"
)

// stepClock returns a clock that advances one minute per call.
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(time.Minute)
		return now
	}
}

var base = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, opts ...Option) (*Store, *backend.Memory) {
	t.Helper()
	mem := backend.NewMemory()
	opts = append([]Option{WithClock(stepClock(base))}, opts...)
	return New(mem, opts...), mem
}

// seed writes items straight to the backend, bypassing Store rules.
func seed(t *testing.T, mem *backend.Memory, items []SavedItem) {
	t.Helper()
	data, err := wire.Canonical.Encode(toRecords(items))
	require.NoError(t, err)
	require.NoError(t, mem.Set(context.Background(), StorageKey, data))
}

func numbered(n int) []SavedItem {
	items := make([]SavedItem, n)
	for i := range items {
		items[i] = SavedItem{
			URL:     fmt.Sprintf("https://example.com/%d", i),
			Title:   fmt.Sprintf("page %d", i),
			Tags:    []string{},
			SavedAt: base.Add(time.Duration(i) * time.Second).Format(TimestampLayout),
		}
	}
	return items
}

func urls(items []SavedItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.URL
	}
	return out
}

func stored(t *testing.T, s *Store) []SavedItem {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load(context.Background())
	require.NoError(t, err)
	return items
}

func TestStoreAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("creates item from candidate", func(t *testing.T) {
		s, _ := newTestStore(t)

		item, added, err := s.Add(ctx, Candidate{
			URL:          "https://go.dev/",
			Title:        "Go",
			Notes:        "home page",
			Tags:         " Lang, GO ,, ",
			DefaultTitle: "ignored",
		})
		require.NoError(t, err)
		assert.True(t, added)
		assert.Equal(t, SavedItem{
			URL:     "https://go.dev/",
			Title:   "Go",
			Notes:   "home page",
			Tags:    []string{"lang", "go"},
			SavedAt: "2024-05-01T09:00:00.000Z",
		}, item)
		assert.Equal(t, []SavedItem{item}, stored(t, s))
	})

	t.Run("blank title falls back to default", func(t *testing.T) {
		s, _ := newTestStore(t)

		for _, title := range []string{"", "   "} {
			item, _, err := s.Add(ctx, Candidate{URL: "https://a/" + title, Title: title, DefaultTitle: "Page Title"})
			require.NoError(t, err)
			assert.Equal(t, "Page Title", item.Title)
		}
	})

	t.Run("optional fields default to empty", func(t *testing.T) {
		s, _ := newTestStore(t)

		item, added, err := s.Add(ctx, Candidate{URL: "https://a"})
		require.NoError(t, err)
		assert.True(t, added)
		assert.Equal(t, "", item.Title)
		assert.Equal(t, "", item.Notes)
		assert.Equal(t, []string{}, item.Tags)
	})

	t.Run("missing url", func(t *testing.T) {
		s, mem := newTestStore(t)

		_, _, err := s.Add(ctx, Candidate{URL: "  ", Title: "x"})
		assert.ErrorIs(t, err, ErrMissingURL)

		_, ok, _ := mem.Get(ctx, StorageKey)
		assert.False(t, ok, "nothing should be written")
	})

	t.Run("url is not normalized", func(t *testing.T) {
		s, _ := newTestStore(t)

		for _, u := range []string{"https://Example.com", "https://example.com", "http://example.com"} {
			_, added, err := s.Add(ctx, Candidate{URL: u})
			require.NoError(t, err)
			assert.True(t, added, u)
		}
		assert.Len(t, stored(t, s), 3)
	})
}

func TestStoreAddDuplicateIsNoOp(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	first, added, err := s.Add(ctx, Candidate{URL: "X", Title: "first", Notes: "n1", Tags: "a"})
	require.NoError(t, err)
	require.True(t, added)

	again, added, err := s.Add(ctx, Candidate{URL: "X", Title: "second", Notes: "n2", Tags: "b,c"})
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, first, again, "the stored item is returned")

	assert.Equal(t, []SavedItem{first}, stored(t, s))
}

func TestStoreAddKeepsURLsUnique(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	sequence := []string{"a", "b", "a", "c", "b", "b", "d", "a"}
	for _, u := range sequence {
		_, _, err := s.Add(ctx, Candidate{URL: u})
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"a", "b", "c", "d"}, urls(stored(t, s)))
}

func TestStoreAddCapacity(t *testing.T) {
	ctx := context.Background()

	t.Run("full collection drops the oldest stored item", func(t *testing.T) {
		s, mem := newTestStore(t)
		seed(t, mem, numbered(MaxItems))

		_, added, err := s.Add(ctx, Candidate{URL: "new"})
		require.NoError(t, err)
		require.True(t, added)

		items := stored(t, s)
		require.Len(t, items, MaxItems)
		assert.Equal(t, "https://example.com/1", items[0].URL)
		assert.Equal(t, "new", items[MaxItems-1].URL)
	})

	t.Run("position decides, not savedAt", func(t *testing.T) {
		s, mem := newTestStore(t)
		items := numbered(MaxItems)
		// The first stored item claims to be the newest
		items[0].SavedAt = "2099-01-01T00:00:00.000Z"
		seed(t, mem, items)

		_, _, err := s.Add(ctx, Candidate{URL: "new"})
		require.NoError(t, err)
		assert.NotContains(t, urls(stored(t, s)), "https://example.com/0")
	})

	t.Run("oversized collection is cut to the last entries", func(t *testing.T) {
		s, mem := newTestStore(t)
		seed(t, mem, numbered(MaxItems+5))

		_, _, err := s.Add(ctx, Candidate{URL: "new"})
		require.NoError(t, err)

		items := stored(t, s)
		require.Len(t, items, MaxItems)
		assert.Equal(t, "https://example.com/6", items[0].URL)
		assert.Equal(t, "new", items[MaxItems-1].URL)
	})

	t.Run("duplicate at capacity evicts nothing", func(t *testing.T) {
		s, mem := newTestStore(t)
		seed(t, mem, numbered(MaxItems))

		_, added, err := s.Add(ctx, Candidate{URL: "https://example.com/0"})
		require.NoError(t, err)
		assert.False(t, added)
		assert.Equal(t, urls(numbered(MaxItems)), urls(stored(t, s)))
	})

	t.Run("duplicate in evicted head is re-added", func(t *testing.T) {
		s, mem := newTestStore(t)
		seed(t, mem, numbered(MaxItems+1))

		_, added, err := s.Add(ctx, Candidate{URL: "https://example.com/0"})
		require.NoError(t, err)
		assert.True(t, added)

		items := stored(t, s)
		assert.Len(t, items, MaxItems)
		assert.Equal(t, "https://example.com/0", items[MaxItems-1].URL)
	})
}

func TestStoreList(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) *Store {
		s, mem := newTestStore(t)
		seed(t, mem, []SavedItem{
			{URL: "old", Tags: []string{"renewal", "urgent"}, SavedAt: "2024-01-01T00:00:00.000Z"},
			{URL: "broken", Tags: []string{"party"}, SavedAt: "not a date"},
			{URL: "newest", Tags: []string{"go"}, SavedAt: "2024-06-01T00:00:00.000Z"},
			{URL: "middle", Tags: []string{}, SavedAt: "2024-03-01T00:00:00.000Z"},
		})
		return s
	}

	t.Run("blank filter returns everything newest first", func(t *testing.T) {
		s := setup(t)
		for _, filter := range []string{"", " , "} {
			items, err := s.List(ctx, filter)
			require.NoError(t, err)
			assert.Equal(t, []string{"newest", "middle", "old", "broken"}, urls(items))
		}
	})

	t.Run("substring match on any tag", func(t *testing.T) {
		s := setup(t)

		items, err := s.List(ctx, "new")
		require.NoError(t, err)
		assert.Equal(t, []string{"old"}, urls(items))

		items, err = s.List(ctx, " ART ")
		require.NoError(t, err)
		assert.Equal(t, []string{"broken"}, urls(items))
	})

	t.Run("filters are OR-ed", func(t *testing.T) {
		s := setup(t)
		items, err := s.List(ctx, "go, urgent")
		require.NoError(t, err)
		assert.Equal(t, []string{"newest", "old"}, urls(items))
	})

	t.Run("no match is an empty result", func(t *testing.T) {
		s := setup(t)
		items, err := s.List(ctx, "xyz")
		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})

	t.Run("does not mutate storage", func(t *testing.T) {
		s := setup(t)
		before := urls(stored(t, s))
		_, err := s.List(ctx, "go")
		require.NoError(t, err)
		assert.Equal(t, before, urls(stored(t, s)))
	})

	t.Run("empty backend", func(t *testing.T) {
		s, _ := newTestStore(t)
		items, err := s.List(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestStoreListOrderFollowsAdds(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	for _, u := range []string{"first", "second", "third"} {
		_, _, err := s.Add(ctx, Candidate{URL: u})
		require.NoError(t, err)
	}

	items, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "second", "first"}, urls(items))
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)
	seed(t, mem, numbered(3))

	require.NoError(t, s.Delete(ctx, "https://example.com/1"))
	assert.Equal(t, []string{"https://example.com/0", "https://example.com/2"}, urls(stored(t, s)))

	// Unknown url is a no-op
	require.NoError(t, s.Delete(ctx, "https://nowhere"))
	assert.Len(t, stored(t, s), 2)

	// Empty backend too
	empty, _ := newTestStore(t)
	assert.NoError(t, empty.Delete(ctx, "x"))
}

func TestStoreExport(t *testing.T) {
	ctx := context.Background()

	t.Run("storage order with canonical keys", func(t *testing.T) {
		s, _ := newTestStore(t, WithCodec(wire.Compact))
		_, _, err := s.Add(ctx, Candidate{URL: "b", Title: "B", Tags: "x"})
		require.NoError(t, err)
		_, _, err = s.Add(ctx, Candidate{URL: "a", Title: "A"})
		require.NoError(t, err)

		data, err := s.Export(ctx)
		require.NoError(t, err)
		assert.JSONEq(t, `[
			{"url":"b","title":"B","notes":"","tags":["x"],"savedAt":"2024-05-01T09:00:00.000Z"},
			{"url":"a","title":"A","notes":"","tags":[],"savedAt":"2024-05-01T09:01:00.000Z"}
		]`, string(data))
		assert.Contains(t, string(data), "\n  {", "export is indented")
	})

	t.Run("empty collection", func(t *testing.T) {
		s, _ := newTestStore(t)
		data, err := s.Export(ctx)
		require.NoError(t, err)
		assert.Equal(t, "[]", string(data))
	})
}

func TestStoreImportMerge(t *testing.T) {
	ctx := context.Background()

	t.Run("existing items win and new ones are appended", func(t *testing.T) {
		s, mem := newTestStore(t)
		seed(t, mem, []SavedItem{{URL: "a", Title: "old", Tags: []string{}}})

		merged, err := s.ImportMerge(ctx, []byte(`[{"url":"a","title":"new"},{"url":"b","title":"B"}]`))
		require.NoError(t, err)

		want := []SavedItem{
			{URL: "a", Title: "old", Tags: []string{}},
			{URL: "b", Title: "B", Tags: []string{}},
		}
		assert.Equal(t, want, merged)
		assert.Equal(t, want, stored(t, s))
	})

	t.Run("first occurrence wins inside the payload", func(t *testing.T) {
		s, _ := newTestStore(t)
		merged, err := s.ImportMerge(ctx, []byte(`[{"url":"x","title":"1"},{"url":"y"},{"url":"x","title":"2"}]`))
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y"}, urls(merged))
		assert.Equal(t, "1", merged[0].Title)
	})

	t.Run("compact payload", func(t *testing.T) {
		s, _ := newTestStore(t)
		merged, err := s.ImportMerge(ctx, []byte(`[{"u":"c","t":"C","n":"note","g":["t1"],"s":"2024-01-01T00:00:00.000Z"}]`))
		require.NoError(t, err)
		assert.Equal(t, []SavedItem{{URL: "c", Title: "C", Notes: "note", Tags: []string{"t1"}, SavedAt: "2024-01-01T00:00:00.000Z"}}, merged)
	})

	t.Run("keeps the last entries of the merged sequence", func(t *testing.T) {
		s, mem := newTestStore(t)
		existing := numbered(150)
		seed(t, mem, existing)

		var imported []wire.Record
		for i := 0; i < 100; i++ {
			imported = append(imported, wire.Record{URL: fmt.Sprintf("https://imported/%d", i)})
		}
		payload, err := wire.Canonical.Encode(imported)
		require.NoError(t, err)

		merged, err := s.ImportMerge(ctx, payload)
		require.NoError(t, err)
		require.Len(t, merged, MaxItems)
		assert.Equal(t, "https://example.com/50", merged[0].URL)
		assert.Equal(t, "https://imported/99", merged[MaxItems-1].URL)
	})

	t.Run("empty payload array keeps collection", func(t *testing.T) {
		s, mem := newTestStore(t)
		seed(t, mem, numbered(2))

		merged, err := s.ImportMerge(ctx, []byte("[]"))
		require.NoError(t, err)
		assert.Equal(t, urls(numbered(2)), urls(merged))
	})
}

func TestStoreImportMergeIsAtomic(t *testing.T) {
	ctx := context.Background()

	for _, payload := range []string{
		"not json",
		"null",
		`{"url":"a"}`,
		`[{"URL":"a"}]`,
		`[{"url":"ok"},{"title":"missing url"}]`,
		`[{"url":"a","tags":"not-a-list"}]`,
	} {
		t.Run(payload, func(t *testing.T) {
			s, mem := newTestStore(t)
			seed(t, mem, numbered(3))
			before, _, err := mem.Get(ctx, StorageKey)
			require.NoError(t, err)

			_, err = s.ImportMerge(ctx, []byte(payload))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDataFormat)

			var formatErr *DataFormatError
			require.True(t, errors.As(err, &formatErr))
			assert.Equal(t, "import", formatErr.Source)

			after, _, err := mem.Get(ctx, StorageKey)
			require.NoError(t, err)
			assert.Equal(t, before, after, "stored bytes must be unchanged")
		})
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()

	for _, codec := range []wire.Codec{wire.Canonical, wire.Compact} {
		t.Run(codec.Name(), func(t *testing.T) {
			src, mem := newTestStore(t, WithCodec(codec))
			collection := numbered(5)
			collection[2].Tags = []string{"a", "b"}
			collection[3].Notes = "with <html> & \"quotes\""
			collection[4].SavedAt = "garbage"
			data, err := codec.Encode(toRecords(collection))
			require.NoError(t, err)
			require.NoError(t, mem.Set(ctx, StorageKey, data))

			exported, err := src.Export(ctx)
			require.NoError(t, err)

			dst, _ := newTestStore(t, WithCodec(codec))
			merged, err := dst.ImportMerge(ctx, exported)
			require.NoError(t, err)
			assert.Equal(t, collection, merged)
			assert.Equal(t, collection, stored(t, dst))
		})
	}
}

func TestStoreCount(t *testing.T) {
	s, mem := newTestStore(t)
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	seed(t, mem, numbered(7))
	n, err = s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestStoreCorruptCollection(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)
	require.NoError(t, mem.Set(ctx, StorageKey, []byte("{broken")))

	_, err := s.List(ctx, "")
	require.Error(t, err)

	var formatErr *DataFormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, "stored", formatErr.Source)

	_, _, err = s.Add(ctx, Candidate{URL: "a"})
	assert.ErrorIs(t, err, ErrDataFormat)

	raw, _, _ := mem.Get(ctx, StorageKey)
	assert.Equal(t, "{broken", string(raw), "corrupt data is never overwritten")
}

// failingBackend fails reads and/or writes on demand.
type failingBackend struct {
	*backend.Memory
	failGet bool
	failSet bool
	sets    int
}

func (f *failingBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.failGet {
		return nil, false, fmt.Errorf("%w: disk gone", backend.ErrUnavailable)
	}
	return f.Memory.Get(ctx, key)
}

func (f *failingBackend) Set(ctx context.Context, key string, value []byte) error {
	if f.failSet {
		return fmt.Errorf("%w: disk full", backend.ErrUnavailable)
	}
	f.sets++
	return f.Memory.Set(ctx, key, value)
}

func TestStoreBackendFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("read failure aborts before any write", func(t *testing.T) {
		fb := &failingBackend{Memory: backend.NewMemory(), failGet: true}
		s := New(fb)

		_, _, err := s.Add(ctx, Candidate{URL: "a"})
		assert.ErrorIs(t, err, backend.ErrUnavailable)
		_, err = s.List(ctx, "")
		assert.ErrorIs(t, err, backend.ErrUnavailable)
		assert.ErrorIs(t, s.Delete(ctx, "a"), backend.ErrUnavailable)
		_, err = s.ImportMerge(ctx, []byte(`[{"url":"a"}]`))
		assert.ErrorIs(t, err, backend.ErrUnavailable)
		_, err = s.Export(ctx)
		assert.ErrorIs(t, err, backend.ErrUnavailable)

		assert.Zero(t, fb.sets)
	})

	t.Run("write failure is reported", func(t *testing.T) {
		fb := &failingBackend{Memory: backend.NewMemory(), failSet: true}
		s := New(fb)

		_, added, err := s.Add(ctx, Candidate{URL: "a"})
		assert.ErrorIs(t, err, backend.ErrUnavailable)
		assert.False(t, added)

		fb.failSet = false
		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestStoreSerializesConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := s.Add(ctx, Candidate{URL: fmt.Sprintf("u%d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, n)
}

func TestStoreWithFileBackend(t *testing.T) {
	ctx := context.Background()
	fb, err := backend.NewFile(t.TempDir())
	require.NoError(t, err)

	s := New(fb, WithCodec(wire.Compact), WithClock(stepClock(base)))
	_, _, err = s.Add(ctx, Candidate{URL: "https://go.dev", Tags: "go"})
	require.NoError(t, err)

	// A fresh store over the same directory sees the item
	reopened := New(fb)
	items, err := reopened.List(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://go.dev"}, urls(items))
}
