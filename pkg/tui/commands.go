package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/websaver/pkg/saved"
)

// Messages produced by the commands below. Each store call runs off the
// update loop and reports back with exactly one of these.
type (
	// itemsLoadedMsg carries the List result for filter; total is the size
	// of the whole collection.
	itemsLoadedMsg struct {
		filter string
		items  []saved.SavedItem
		total  int
		err    error
	}

	savedMsg struct {
		item  saved.SavedItem
		added bool
		err   error
	}

	deletedMsg struct {
		url string
		err error
	}

	exportedMsg struct {
		path  string
		bytes int
		err   error
	}

	importedMsg struct {
		path  string
		count int
		err   error
	}

	copiedMsg struct {
		url string
		err error
	}

	// copyResetMsg ends the "Copied!" feedback started by copy number seq.
	copyResetMsg struct {
		seq int
	}
)

func (m *Model) loadItems() tea.Cmd {
	ctx, store := m.ctx, m.store
	filter := m.inputs[fieldFilter].Value()
	return func() tea.Msg {
		items, err := store.List(ctx, filter)
		if err != nil {
			return itemsLoadedMsg{filter: filter, err: err}
		}
		total, err := store.Count(ctx)
		return itemsLoadedMsg{filter: filter, items: items, total: total, err: err}
	}
}

func (m *Model) saveItem() tea.Cmd {
	ctx, store, titles, log := m.ctx, m.store, m.opts.Titles, m.log
	c := saved.Candidate{
		URL:   strings.TrimSpace(m.inputs[fieldURL].Value()),
		Title: m.inputs[fieldTitle].Value(),
		Notes: m.inputs[fieldNotes].Value(),
		Tags:  m.inputs[fieldTags].Value(),
	}
	return func() tea.Msg {
		if c.URL != "" && strings.TrimSpace(c.Title) == "" {
			c.DefaultTitle = c.URL
			if titles != nil {
				if title, err := titles.Fetch(ctx, c.URL); err == nil {
					c.DefaultTitle = title
				} else {
					log.Warnf("title lookup for %s failed: %v", c.URL, err)
				}
			}
		}
		item, added, err := store.Add(ctx, c)
		return savedMsg{item: item, added: added, err: err}
	}
}

func (m *Model) deleteItem(url string) tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		return deletedMsg{url: url, err: store.Delete(ctx, url)}
	}
}

func (m *Model) exportItems() tea.Cmd {
	ctx, store, path := m.ctx, m.store, m.opts.ExportPath
	return func() tea.Msg {
		data, err := store.Export(ctx)
		if err != nil {
			return exportedMsg{path: path, err: err}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return exportedMsg{path: path, err: fmt.Errorf("write export: %w", err)}
		}
		return exportedMsg{path: path, bytes: len(data)}
	}
}

func (m *Model) importItems(path string) tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return importedMsg{path: path, err: fmt.Errorf("read import: %w", err)}
		}
		merged, err := store.ImportMerge(ctx, data)
		return importedMsg{path: path, count: len(merged), err: err}
	}
}

func (m *Model) copyURL(url string) tea.Cmd {
	write := m.opts.Clipboard
	return func() tea.Msg {
		return copiedMsg{url: url, err: write(url)}
	}
}

func copyReset(after time.Duration, seq int) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return copyResetMsg{seq: seq}
	})
}
