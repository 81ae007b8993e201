// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// PromptKeyMap defines the keybindings for the approval prompt.
type PromptKeyMap struct {
	// Focus movement
	Next  key.Binding
	Prev  key.Binding
	Left  key.Binding
	Right key.Binding

	// Actions
	Submit key.Binding
	Cancel key.Binding
}

// DefaultPromptKeyMap returns the default approval prompt keybindings.
func DefaultPromptKeyMap() PromptKeyMap {
	return PromptKeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "down", "ctrl+n"),
			key.WithHelp("tab", "next"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up", "ctrl+p"),
			key.WithHelp("shift+tab", "previous"),
		),
		Left: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "proceed"),
		),
		Right: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "abort"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// ShortHelp returns keybindings for the short help view.
func (k PromptKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Submit, k.Cancel}
}

// FullHelp returns keybindings for the expanded help view.
func (k PromptKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev},
		{k.Left, k.Right},
		{k.Submit, k.Cancel},
	}
}
