package composeform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/webmail/internal/address"
	"github.com/nhle/webmail/internal/compose"
	"github.com/nhle/webmail/internal/model"
	"github.com/nhle/webmail/internal/theme"
)

// SendRequestMsg is dispatched when the user submits the compose form.
type SendRequestMsg struct{}

// SaveDraftRequestMsg is dispatched when the user saves the form as a draft.
type SaveDraftRequestMsg struct{}

// CancelMsg is dispatched when the user abandons the compose form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	to      string
	cc      string
	bcc     string
	subject string
	body    string
}

// Model is the Bubble Tea model for the compose/reply/forward form.
type Model struct {
	form      *huh.Form
	fb        *formBindings
	session   *compose.Session
	showCcBcc bool
	width     int
	height    int
}

// New creates a new compose form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start initializes the form for the given compose session. Prefilled
// reply/forward fields are loaded from the session.
func (m *Model) Start(session *compose.Session) tea.Cmd {
	m.session = session
	m.fb.to = session.Recipients(model.FieldTo)
	m.fb.cc = session.Recipients(model.FieldCc)
	m.fb.bcc = session.Recipients(model.FieldBcc)
	m.fb.subject = session.Subject()
	m.fb.body = session.Body()
	m.showCcBcc = m.fb.cc != "" || m.fb.bcc != ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Active reports whether a compose session is in progress.
func (m Model) Active() bool {
	return m.session != nil && m.form != nil
}

// Session returns the compose session backing the form.
func (m Model) Session() *compose.Session {
	return m.session
}

// Update handles messages for the compose form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "ctrl+s":
			m.syncSession()
			return m, func() tea.Msg { return SaveDraftRequestMsg{} }

		case "ctrl+b":
			m.syncSession()
			m.showCcBcc = !m.showCcBcc
			m.form = m.buildForm()
			return m, m.form.Init()
		}
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.syncSession()
		return m, func() tea.Msg { return SendRequestMsg{} }
	}
	if m.form.State == huh.StateAborted {
		m.syncSession()
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// Reopen rebuilds the form with the current field values. The huh form
// is consumed once it completes, so a rejected send needs a fresh form
// for the user to correct and retry.
func (m *Model) Reopen() tea.Cmd {
	if m.session == nil {
		return nil
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// Reset clears the form after the session reaches a terminal state.
func (m *Model) Reset() {
	m.form = nil
	m.session = nil
	m.showCcBcc = false
	*m.fb = formBindings{}
}

// syncSession copies the current field values into the compose session.
func (m *Model) syncSession() {
	if m.session == nil {
		return
	}
	m.session.SetRecipients(model.FieldTo, m.fb.to)
	m.session.SetRecipients(model.FieldCc, m.fb.cc)
	m.session.SetRecipients(model.FieldBcc, m.fb.bcc)
	m.session.SetSubject(m.fb.subject)
	m.session.SetBody(m.fb.body)
}

// View renders the compose form with an error banner when the last
// send or draft attempt failed.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	var sections []string
	sections = append(sections, titleStyle.Render(m.title()))

	if m.session != nil && m.session.BackendError() != "" {
		sections = append(sections,
			theme.BackendErrorStyle.Render(m.session.BackendError()))
	}

	sections = append(sections, m.form.View())
	sections = append(sections, theme.HelpStyle.Render(
		"enter submit · ctrl+s save draft · ctrl+b toggle cc/bcc · esc discard",
	))

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m Model) title() string {
	if m.session != nil && m.session.DraftID() != "" {
		return "Edit Draft"
	}
	return "New Message"
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("To").
			Placeholder("alice@example.com; bob@example.com").
			Value(&m.fb.to).
			Validate(validateRecipients("To", true)),
	}

	if m.showCcBcc {
		fields = append(fields,
			huh.NewInput().
				Title("Cc").
				Value(&m.fb.cc).
				Validate(validateRecipients("Cc", false)),
			huh.NewInput().
				Title("Bcc").
				Value(&m.fb.bcc).
				Validate(validateRecipients("Bcc", false)),
		)
	}

	fields = append(fields,
		huh.NewInput().
			Title("Subject").
			Value(&m.fb.subject),
		huh.NewText().
			Title("Body").
			Value(&m.fb.body),
	)

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 6
	if h < 10 {
		h = 10
	}
	return h
}

// validateRecipients rejects fields containing malformed addresses.
// When required is set, at least one address must be present.
func validateRecipients(fieldName string, required bool) func(string) error {
	return func(s string) error {
		result := address.Validate(s)
		if len(result.Invalid) > 0 {
			return fmt.Errorf(
				"%s contains invalid addresses: %s",
				fieldName, strings.Join(result.Invalid, ", "),
			)
		}
		if required && len(address.Tokens(s)) == 0 {
			return fmt.Errorf("%s requires at least one recipient", fieldName)
		}
		return nil
	}
}
