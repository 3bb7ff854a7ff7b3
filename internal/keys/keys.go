package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Folder switching
	Inbox   key.Binding
	Starred key.Binding
	Sent    key.Binding
	Drafts  key.Binding
	Trash   key.Binding

	// Pagination
	NextPage key.Binding
	PrevPage key.Binding

	// Mail actions
	Compose  key.Binding
	Reply    key.Binding
	ReplyAll key.Binding
	Forward  key.Binding
	Star     key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open email"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh folder"),
		),
		Inbox: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "inbox"),
		),
		Starred: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "starred"),
		),
		Sent: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "sent"),
		),
		Drafts: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "drafts"),
		),
		Trash: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "trash"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("n", "right"),
			key.WithHelp("n/→", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("p", "left"),
			key.WithHelp("p/←", "previous page"),
		),
		Compose: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "compose"),
		),
		Reply: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reply"),
		),
		ReplyAll: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "reply all"),
		),
		Forward: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "forward"),
		),
		Star: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "toggle star"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Compose, k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Inbox, k.Starred, k.Sent, k.Drafts, k.Trash},
		{k.NextPage, k.PrevPage, k.Refresh},
		{k.Compose, k.Reply, k.ReplyAll, k.Forward, k.Star},
		{k.Command, k.Help},
	}
}
