package tui

import "github.com/charmbracelet/bubbles/key"

const (
	keyEnter = "enter"
	keyEsc   = "esc"
)

type keyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Save   key.Binding
	Copy   key.Binding
	Delete key.Binding
	Export key.Binding
	Import key.Binding
	Cancel key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous field"),
		),
		Save: key.NewBinding(
			key.WithKeys(keyEnter),
			key.WithHelp("enter", "save"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c", keyEnter),
			key.WithHelp("c", "copy url"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "export"),
		),
		Import: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "import"),
		),
		Cancel: key.NewBinding(
			key.WithKeys(keyEsc),
			key.WithHelp("esc", "cancel/quit"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// formHelp lists the bindings shown while a text field has focus.
func (k keyMap) formHelp() []key.Binding {
	return []key.Binding{k.Next, k.Save, k.Export, k.Import, k.Cancel}
}

// listHelp lists the bindings shown while the saved list has focus.
func (k keyMap) listHelp() []key.Binding {
	return []key.Binding{k.Next, k.Copy, k.Delete, k.Export, k.Import, k.Cancel}
}
