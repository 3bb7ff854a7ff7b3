package mailview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/webmail/internal/compose"
	"github.com/nhle/webmail/internal/keys"
	"github.com/nhle/webmail/internal/model"
	"github.com/nhle/webmail/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// ComposeRequestMsg asks the parent to open a compose session derived
// from the displayed email.
type ComposeRequestMsg struct {
	Mode  compose.Mode
	Email model.Email
}

// StarRequestMsg asks the parent to toggle the star on the displayed email.
type StarRequestMsg struct {
	ID string
}

// Model is the email reading view component.
type Model struct {
	email    *model.Email
	folder   model.Folder
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new mail reading view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the reading view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the reading view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(keyMsg, m.keys.Reply):
			return m, m.composeCmd(compose.ModeReply)

		case key.Matches(keyMsg, m.keys.ReplyAll):
			return m, m.composeCmd(compose.ModeReplyAll)

		case key.Matches(keyMsg, m.keys.Forward):
			return m, m.composeCmd(compose.ModeForward)

		case key.Matches(keyMsg, m.keys.Star):
			if m.email != nil {
				id := m.email.ID
				return m, func() tea.Msg {
					return StarRequestMsg{ID: id}
				}
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// composeCmd returns a command that requests a compose session for the
// displayed email in the given mode.
func (m Model) composeCmd(mode compose.Mode) tea.Cmd {
	if m.email == nil {
		return nil
	}
	email := *m.email
	return func() tea.Msg {
		return ComposeRequestMsg{Mode: mode, Email: email}
	}
}

// View renders the reading view.
func (m Model) View() string {
	if m.email == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No message selected")
	}

	return m.viewport.View()
}

// renderContent builds the full message content string for the viewport.
func (m Model) renderContent() string {
	if m.email == nil {
		return ""
	}

	email := m.email
	var sections []string

	// Subject line, with star marker when set
	subject := email.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	titleLine := titleStyle.Render(subject)
	if email.Starred {
		titleLine = theme.StarStyle.Render("★ ") + titleLine
	}
	sections = append(sections, titleLine)
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)

	sections = append(sections, fmt.Sprintf(
		"%s  %s",
		metaStyle.Render("From:"),
		theme.AddressStyle.Render(email.From),
	))
	if email.To != "" {
		sections = append(sections, fmt.Sprintf(
			"%s    %s",
			metaStyle.Render("To:"),
			theme.AddressStyle.Render(email.To),
		))
	}
	if email.Cc != "" {
		sections = append(sections, fmt.Sprintf(
			"%s    %s",
			metaStyle.Render("Cc:"),
			theme.AddressStyle.Render(email.Cc),
		))
	}
	if email.Bcc != "" {
		sections = append(sections, fmt.Sprintf(
			"%s   %s",
			metaStyle.Render("Bcc:"),
			theme.AddressStyle.Render(email.Bcc),
		))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", min(m.width-4, 80)))
	sections = append(sections, "")
	sections = append(sections, separator)
	sections = append(sections, "")

	body := email.Body
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No content")
	}
	sections = append(sections, body)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetEmail updates the message being displayed and re-renders the content.
func (m *Model) SetEmail(folder model.Folder, email model.Email) {
	m.folder = folder
	m.email = &email
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// UpdateEmail refreshes the displayed message in place, preserving the
// scroll position. Used when a star toggle is confirmed.
func (m *Model) UpdateEmail(email model.Email) {
	if m.email == nil || m.email.ID != email.ID {
		return
	}
	offset := m.viewport.YOffset
	m.email = &email
	m.viewport.SetContent(m.renderContent())
	m.viewport.SetYOffset(offset)
}

// Email returns the currently displayed message, if any.
func (m Model) Email() (model.Email, bool) {
	if m.email == nil {
		return model.Email{}, false
	}
	return *m.email, true
}

// Folder returns the folder the displayed message belongs to.
func (m Model) Folder() model.Folder {
	return m.folder
}

// SetSize updates the reading view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.email != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
