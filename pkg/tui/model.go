// Package tui is the interactive terminal front end for a saved-item store.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/websaver/pkg/logging"
	"github.com/entrhq/websaver/pkg/saved"
)

const (
	emptyListText    = "No saved tabs found."
	importFailedText = "Failed to import tabs. Please check the file format."
)

// Store is the subset of *saved.Store the interface drives.
type Store interface {
	Add(ctx context.Context, c saved.Candidate) (saved.SavedItem, bool, error)
	List(ctx context.Context, filterTagsText string) ([]saved.SavedItem, error)
	Delete(ctx context.Context, url string) error
	Export(ctx context.Context) ([]byte, error)
	ImportMerge(ctx context.Context, payload []byte) ([]saved.SavedItem, error)
	Count(ctx context.Context) (int, error)
}

// TitleSource resolves a page title for items saved without one.
type TitleSource interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Options configures a Model. Zero values fall back to sensible defaults.
type Options struct {
	// ExportPath is where ctrl+e writes the exported collection
	ExportPath string
	// CopyFeedback is how long "Copied!" stays next to a copied URL
	CopyFeedback time.Duration
	// Titles is optional
	Titles TitleSource
	// Clipboard defaults to the system clipboard
	Clipboard func(string) error
	Logger    *logging.Logger
	// InitialURL pre-fills the URL field
	InitialURL string
}

// Text fields in focus order. The saved list follows the last one.
const (
	fieldURL = iota
	fieldTitle
	fieldNotes
	fieldTags
	fieldFilter
	fieldCount
)

const focusList = fieldCount

var fieldLabels = [fieldCount]string{"URL", "Title", "Notes", "Tags", "Filter"}

// Model is the bubbletea model for the saved-tabs screen.
type Model struct {
	ctx   context.Context
	store Store
	opts  Options
	log   *logging.Logger
	keys  keyMap
	help  help.Model

	inputs      []textinput.Model
	importInput textinput.Model
	importing   bool
	focus       int

	list  list.Model
	items []saved.SavedItem
	total int

	copiedURL string
	copySeq   int

	status    string
	statusErr bool

	width  int
	height int
}

// New creates a Model over store.
func New(ctx context.Context, store Store, opts Options) *Model {
	if opts.CopyFeedback <= 0 {
		opts.CopyFeedback = 2 * time.Second
	}
	if opts.ExportPath == "" {
		opts.ExportPath = "websaver_tabs_export.json"
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	log := opts.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}

	m := &Model{
		ctx:    ctx,
		store:  store,
		opts:   opts,
		log:    log,
		keys:   defaultKeyMap(),
		help:   help.New(),
		width:  80,
		height: 24,
	}

	placeholders := [fieldCount]string{
		"https://example.com",
		"leave blank to use the page title",
		"optional notes",
		"comma, separated, tags",
		"filter by tags",
	}
	m.inputs = make([]textinput.Model, fieldCount)
	for i := range m.inputs {
		m.inputs[i] = newInput(placeholders[i])
	}
	m.inputs[fieldURL].SetValue(opts.InitialURL)
	m.importInput = newInput("path to an exported .json file")

	m.list = list.New(nil, savedItemDelegate{copiedURL: &m.copiedURL}, m.width, 0)
	m.list.SetShowTitle(false)
	m.list.SetShowStatusBar(false)
	m.list.SetShowHelp(false)
	m.list.SetFilteringEnabled(false)
	m.list.DisableQuitKeybindings()
	m.resize()

	m.setFocus(fieldURL)
	return m
}

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = ""
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

// Init loads the collection.
func (m *Model) Init() tea.Cmd {
	return m.loadItems()
}

// Update handles all state updates.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case itemsLoadedMsg:
		// Results for an older filter text can arrive after newer ones
		if msg.filter != m.inputs[fieldFilter].Value() {
			return m, nil
		}
		if msg.err != nil {
			m.setError("Could not load saved tabs", msg.err)
			return m, nil
		}
		m.setItems(msg.items)
		m.total = msg.total
		return m, nil

	case savedMsg:
		switch {
		case errors.Is(msg.err, saved.ErrMissingURL):
			m.setStatus("Enter a URL to save.", true)
			return m, nil
		case msg.err != nil:
			m.setError("Could not save tab", msg.err)
			return m, nil
		case msg.added:
			m.setStatus("Saved "+msg.item.URL, false)
		default:
			m.setStatus("Already saved: "+msg.item.URL, false)
		}
		m.inputs[fieldNotes].Reset()
		m.inputs[fieldTags].Reset()
		return m, m.loadItems()

	case deletedMsg:
		if msg.err != nil {
			m.setError("Could not delete tab", msg.err)
			return m, nil
		}
		m.setStatus("Deleted "+msg.url, false)
		return m, m.loadItems()

	case exportedMsg:
		if msg.err != nil {
			m.setError("Export failed", msg.err)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Exported to %s", msg.path), false)
		return m, nil

	case importedMsg:
		switch {
		case errors.Is(msg.err, saved.ErrDataFormat):
			m.log.Warnf("import of %s rejected: %v", msg.path, msg.err)
			m.setStatus(importFailedText, true)
			return m, nil
		case msg.err != nil:
			m.setError("Import failed", msg.err)
			return m, nil
		}
		m.stopImport()
		m.setStatus(fmt.Sprintf("Imported %s (%d saved tabs)", msg.path, msg.count), false)
		return m, m.loadItems()

	case copiedMsg:
		if msg.err != nil {
			m.setError("Could not copy URL", msg.err)
			return m, nil
		}
		m.copiedURL = msg.url
		m.copySeq++
		return m, copyReset(m.opts.CopyFeedback, m.copySeq)

	case copyResetMsg:
		if msg.seq == m.copySeq {
			m.copiedURL = ""
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Cancel):
		if m.importing {
			m.stopImport()
			return m, nil
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.Export):
		return m, m.exportItems()
	case key.Matches(msg, m.keys.Import):
		m.startImport()
		return m, nil
	}

	if m.importing {
		if msg.String() == keyEnter {
			path := strings.TrimSpace(m.importInput.Value())
			if path == "" {
				return m, nil
			}
			return m, m.importItems(path)
		}
		var cmd tea.Cmd
		m.importInput, cmd = m.importInput.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Next):
		m.setFocus(m.focus + 1)
		return m, nil
	case key.Matches(msg, m.keys.Prev):
		m.setFocus(m.focus - 1)
		return m, nil
	}

	if m.focus == focusList {
		return m.handleListKey(msg)
	}

	if key.Matches(msg, m.keys.Save) && m.focus != fieldFilter {
		return m, m.saveItem()
	}

	before := m.inputs[fieldFilter].Value()
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if m.focus == fieldFilter && m.inputs[fieldFilter].Value() != before {
		return m, tea.Batch(cmd, m.loadItems())
	}
	return m, cmd
}

func (m *Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	selected, ok := m.selected()
	switch {
	case key.Matches(msg, m.keys.Delete):
		if ok {
			return m, m.deleteItem(selected.URL)
		}
		return m, nil
	case key.Matches(msg, m.keys.Copy):
		if ok {
			return m, m.copyURL(selected.URL)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) selected() (saved.SavedItem, bool) {
	it, ok := m.list.SelectedItem().(savedListItem)
	if !ok {
		return saved.SavedItem{}, false
	}
	return it.item, true
}

func (m *Model) setItems(items []saved.SavedItem) {
	m.items = items
	listItems := make([]list.Item, len(items))
	for i, it := range items {
		listItems[i] = savedListItem{item: it}
	}
	m.list.SetItems(listItems)
}

func (m *Model) setFocus(i int) {
	n := fieldCount + 1
	m.focus = ((i % n) + n) % n
	for j := range m.inputs {
		if j == m.focus {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

func (m *Model) startImport() {
	m.importing = true
	m.importInput.Reset()
	m.importInput.Focus()
	for j := range m.inputs {
		m.inputs[j].Blur()
	}
}

func (m *Model) stopImport() {
	m.importing = false
	m.importInput.Blur()
	m.setFocus(m.focus)
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m *Model) setError(prefix string, err error) {
	m.log.Errorf("%s: %v", prefix, err)
	m.setStatus(fmt.Sprintf("%s: %v", prefix, err), true)
}

// formRows is the height taken by everything but the list.
const formRows = 14

func (m *Model) resize() {
	inputWidth := m.width - 16
	if inputWidth < 10 {
		inputWidth = 10
	}
	for i := range m.inputs {
		m.inputs[i].Width = inputWidth
	}
	m.importInput.Width = inputWidth

	listHeight := m.height - formRows
	if listHeight < itemHeight {
		listHeight = itemHeight
	}
	m.list.SetSize(m.width-4, listHeight)
}

// View renders the screen.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("WebSaver"))
	b.WriteString(" ")
	b.WriteString(helpStyle.Render(m.countLine()))
	b.WriteString("\n")

	form := make([]string, 0, fieldFilter)
	for i := fieldURL; i < fieldFilter; i++ {
		form = append(form, m.renderField(i))
	}
	b.WriteString(formBoxStyle.Render(strings.Join(form, "\n")))
	b.WriteString("\n")
	b.WriteString(m.renderField(fieldFilter))
	b.WriteString("\n")

	box := listBoxStyle
	if m.focus == focusList && !m.importing {
		box = focusedListBoxStyle
	}
	if len(m.items) == 0 {
		b.WriteString(box.Render(emptyStyle.Render(emptyListText)))
	} else {
		b.WriteString(box.Render(m.list.View()))
	}
	b.WriteString("\n")

	if m.importing {
		b.WriteString(focusedLabelStyle.Render("Import") + m.importInput.View())
		b.WriteString("\n")
	}

	if m.status != "" {
		if m.statusErr {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(statusStyle.Render(m.status))
		}
		b.WriteString("\n")
	}

	bindings := m.keys.formHelp()
	if m.focus == focusList {
		bindings = m.keys.listHelp()
	}
	b.WriteString(helpStyle.Render(m.help.ShortHelpView(bindings)))

	return b.String()
}

// countLine summarizes how many saved tabs are stored and shown.
func (m *Model) countLine() string {
	if len(m.items) == m.total {
		return fmt.Sprintf("%d/%d saved tabs", m.total, saved.MaxItems)
	}
	return fmt.Sprintf("showing %d of %d saved tabs", len(m.items), m.total)
}

func (m *Model) renderField(i int) string {
	label := labelStyle.Render(fieldLabels[i])
	if i == m.focus && !m.importing {
		label = focusedLabelStyle.Render(fieldLabels[i])
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, label, m.inputs[i].View())
}
