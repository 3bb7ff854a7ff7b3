package maillist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/webmail/internal/keys"
	"github.com/nhle/webmail/internal/model"
	"github.com/nhle/webmail/internal/theme"
)

// SelectedEmailMsg is sent when the user opens an email from the list.
type SelectedEmailMsg struct {
	Folder model.Folder
	ID     string
}

// Model is the per-folder mail list view component.
type Model struct {
	list      list.Model
	keys      *keys.KeyMap
	folder    model.Folder
	page      int
	pageCount int
	total     int
	loading   bool
	width     int
	height    int
}

// New creates a new mail list model for the given folder.
func New(folder model.Folder, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = folderTitle(folder)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:      l,
		keys:      k,
		folder:    folder,
		page:      1,
		pageCount: 1,
		width:     width,
		height:    height,
	}
}

// Update handles messages for the mail list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(keyMsg, m.keys.Select) {
			item, ok := m.list.SelectedItem().(EmailItem)
			if !ok {
				return m, nil
			}
			folder := m.folder
			id := item.Email.ID
			return m, func() tea.Msg {
				return SelectedEmailMsg{Folder: folder, ID: id}
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the mail list with a pagination footer.
func (m Model) View() string {
	if m.loading {
		return m.renderCentered("Loading " + string(m.folder) + "…")
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.list.View(),
		m.renderFooter(),
	)
}

// renderFooter shows the current page, page count, and total messages.
func (m Model) renderFooter() string {
	return theme.PaginationStyle.Render(fmt.Sprintf(
		"Page %d/%d · %d messages", m.page, m.pageCount, m.total,
	))
}

// renderEmptyState shows guidance text when the folder has no messages.
func (m Model) renderEmptyState() string {
	switch m.folder {
	case model.FolderStarred:
		return m.renderCentered("No starred messages.\n\nPress s on a message to star it.")
	case model.FolderDrafts:
		return m.renderCentered("No drafts.\n\nPress c to compose a message.")
	default:
		return m.renderCentered("This folder is empty.")
	}
}

func (m Model) renderCentered(text string) string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(text)
}

// SetEmails replaces the list contents and restores the selection to
// the email with selectedID when it is still present.
func (m *Model) SetEmails(emails []model.Email, selectedID string) tea.Cmd {
	items := make([]list.Item, len(emails))
	selectIndex := 0
	for i, e := range emails {
		items[i] = EmailItem{Email: e}
		if e.ID == selectedID {
			selectIndex = i
		}
	}
	m.loading = false
	cmd := m.list.SetItems(items)
	m.list.Select(selectIndex)
	return cmd
}

// SetPageInfo updates the pagination footer values.
func (m *Model) SetPageInfo(page, pageCount, total int) {
	m.page = page
	m.pageCount = pageCount
	m.total = total
}

// SetLoading toggles the loading placeholder.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// SelectedEmail returns the currently highlighted email, if any.
func (m Model) SelectedEmail() (model.Email, bool) {
	item, ok := m.list.SelectedItem().(EmailItem)
	if !ok {
		return model.Email{}, false
	}
	return item.Email, true
}

// Folder returns the folder this list displays.
func (m Model) Folder() model.Folder {
	return m.folder
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}

// folderTitle returns the display title for a folder.
func folderTitle(f model.Folder) string {
	s := string(f)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
