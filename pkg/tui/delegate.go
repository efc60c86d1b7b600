package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/websaver/pkg/saved"
)

const (
	copiedLabel   = "Copied!"
	savedAtFormat = "2006-01-02 15:04:05"
)

// savedListItem adapts a saved item to the bubbles list.
type savedListItem struct {
	item saved.SavedItem
}

func (i savedListItem) FilterValue() string {
	return strings.Join(i.item.Tags, " ")
}

// lines renders the item as exactly itemHeight lines: title, url, the
// optional notes and tags, and the saved date in local time.
func (i savedListItem) lines(copied bool) []string {
	title := i.item.Title
	if strings.TrimSpace(title) == "" {
		title = "(untitled)"
	}

	url := "URL: " + i.item.URL
	if copied {
		url += "  " + copiedStyle.Render(copiedLabel)
	}

	var details []string
	if i.item.Notes != "" {
		details = append(details, "Notes: "+strings.ReplaceAll(i.item.Notes, "\n", " "))
	}
	if len(i.item.Tags) > 0 {
		details = append(details, tagStyle.Render("Tags: "+strings.Join(i.item.Tags, ", ")))
	}

	savedLine := "Saved: " + i.item.SavedTime().Local().Format(savedAtFormat)

	return []string{title, url, strings.Join(details, "  "), savedLine}
}

const itemHeight = 4

// savedItemDelegate draws one saved item per entry. copiedURL points at the
// model's copy feedback state so the label follows the item, not the cursor.
type savedItemDelegate struct {
	copiedURL *string
}

func (d savedItemDelegate) Height() int  { return itemHeight }
func (d savedItemDelegate) Spacing() int { return 1 }
func (d savedItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d savedItemDelegate) Render(w io.Writer, m list.Model, index int, li list.Item) {
	it, ok := li.(savedListItem)
	if !ok {
		return
	}

	copied := d.copiedURL != nil && *d.copiedURL != "" && *d.copiedURL == it.item.URL
	lines := it.lines(copied)

	prefix := "  "
	if index == m.Index() {
		prefix = selectedTitleStyle.Render("▌ ")
		lines[0] = selectedTitleStyle.Render(lines[0])
	} else {
		lines[0] = titleStyle.Render(lines[0])
	}
	lines[1] = detailStyle.Render(lines[1])
	lines[3] = detailStyle.Render(lines[3])

	width := m.Width() - lipgloss.Width(prefix)
	for i, line := range lines {
		if width > 0 {
			line = lipgloss.NewStyle().MaxWidth(width).Render(line)
		}
		lines[i] = prefix + line
	}
	fmt.Fprint(w, strings.Join(lines, "\n"))
}
