package app

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/webmail/internal/compose"
	"github.com/nhle/webmail/internal/identity"
	"github.com/nhle/webmail/internal/mail"
	"github.com/nhle/webmail/internal/model"
	"github.com/nhle/webmail/internal/state"
	appsync "github.com/nhle/webmail/internal/sync"
	"github.com/nhle/webmail/internal/ui"
	"github.com/nhle/webmail/internal/ui/command"
	"github.com/nhle/webmail/internal/ui/composeform"
	helpview "github.com/nhle/webmail/internal/ui/help"
	"github.com/nhle/webmail/internal/ui/maillist"
	"github.com/nhle/webmail/internal/ui/mailview"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewMail
	ViewCompose
	ViewHelp
	ViewCommand
)

// Model is the root Bubble Tea model that owns the folder state and
// routes messages between the coordinator and the views.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *KeyMap

	mailState state.State
	folder    model.Folder

	lists       map[model.Folder]*maillist.Model
	mailView    mailview.Model
	composeView composeform.Model
	helpView    helpview.Model
	commandView command.Model

	coordinator *appsync.Coordinator
	identity    identity.Provider
	logger      *zap.Logger

	toast string
	ready bool
}

// New creates the root application model.
func New(
	store mail.Store,
	ident identity.Provider,
	logger *zap.Logger,
	pageSize int,
) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	keys := DefaultKeyMap()

	lists := make(map[model.Folder]*maillist.Model, len(model.Folders))
	for _, f := range model.Folders {
		l := maillist.New(f, keys, 80, 24)
		lists[f] = &l
	}

	return Model{
		currentView: ViewList,
		keys:        keys,
		mailState:   state.New(pageSize),
		folder:      model.FolderInbox,
		lists:       lists,
		mailView:    mailview.New(keys, 80, 24),
		composeView: composeform.New(80, 24),
		helpView:    helpview.New(keys, 80, 24),
		commandView: command.New(80, 24),
		coordinator: appsync.New(store, logger),
		identity:    ident,
		logger:      logger,
	}
}

// Init fetches the first inbox page.
func (m Model) Init() tea.Cmd {
	return m.fetchFolder(m.folder, 1)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w := m.layout.ContentWidth()
		h := m.layout.ContentHeight()
		for _, l := range m.lists {
			l.SetSize(w, h)
		}
		m.mailView.SetSize(w, h)
		m.composeView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward to the active view so huh forms can lay themselves out.
		return m.updateActiveView(msg)

	case appsync.PageFetchedMsg:
		return m.handlePageFetched(msg)

	case appsync.FetchFailedMsg:
		m.toast = "Fetch failed: " + userMessage(msg.Err)
		m.lists[msg.Folder].SetLoading(false)
		return m, nil

	case appsync.StarToggledMsg:
		return m.handleStarToggled(msg)

	case appsync.StarFailedMsg:
		m.toast = "Star not changed: " + userMessage(msg.Err)
		return m, nil

	case appsync.SendDoneMsg:
		return m.handleSendDone(msg)

	case appsync.SendFailedMsg:
		if session := m.composeView.Session(); session != nil {
			session.SetBackendError("Send failed: " + userMessage(msg.Err))
		}
		return m, m.composeView.Reopen()

	case appsync.DraftSavedMsg:
		m.toast = "Draft saved"
		return m, nil

	case appsync.DraftFailedMsg:
		m.toast = "Draft not saved: " + userMessage(msg.Err)
		return m, nil

	case maillist.SelectedEmailMsg:
		return m.handleEmailSelected(msg)

	case mailview.BackMsg:
		m.currentView = ViewList
		return m, nil

	case mailview.ComposeRequestMsg:
		return m.openReplyCompose(msg.Mode, msg.Email)

	case mailview.StarRequestMsg:
		return m, m.coordinator.ToggleStar(m.mailView.Folder(), msg.ID)

	case composeform.SendRequestMsg:
		return m.handleSendRequest()

	case composeform.SaveDraftRequestMsg:
		return m.handleDraftRequest()

	case composeform.CancelMsg:
		if session := m.composeView.Session(); session != nil {
			session.Cancel()
		}
		m.composeView.Reset()
		m.currentView = ViewList
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(string(msg))

	case tea.KeyMsg:
		m.toast = ""
		if mdl, cmd, handled := m.handleGlobalKeys(msg); handled {
			return mdl, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handlePageFetched applies a fetched page unless a newer fetch for the
// same folder has been dispatched since; stale pages are dropped.
func (m Model) handlePageFetched(msg appsync.PageFetchedMsg) (tea.Model, tea.Cmd) {
	if !m.coordinator.IsCurrent(msg.Folder, msg.Seq) {
		m.logger.Debug("dropping superseded page",
			zap.String("folder", string(msg.Folder)),
			zap.Int("page", msg.Page),
			zap.Uint64("seq", msg.Seq),
		)
		return m, nil
	}

	m.mailState = state.Apply(m.mailState, state.SetEmails{
		Folder:     msg.Folder,
		Emails:     msg.Result.Emails,
		TotalCount: msg.Result.TotalCount,
		Page:       msg.Page,
	})

	return m, m.refreshList(msg.Folder)
}

// handleStarToggled flips the confirmed star in local state and keeps
// the open views in sync.
func (m Model) handleStarToggled(msg appsync.StarToggledMsg) (tea.Model, tea.Cmd) {
	m.mailState = state.Apply(m.mailState, state.ToggleStar{
		Folder: msg.Folder,
		ID:     msg.ID,
	})

	cmds := []tea.Cmd{m.refreshList(msg.Folder)}

	fs := m.mailState.Folder(msg.Folder)
	for _, e := range fs.Emails {
		if e.ID == msg.ID {
			m.mailView.UpdateEmail(e)
			break
		}
	}

	// Unstarring while looking at the starred view: refetch so the
	// message leaves the list.
	if msg.Folder == model.FolderStarred && m.folder == model.FolderStarred {
		cmds = append(cmds, m.fetchFolder(model.FolderStarred, m.currentPage()))
	}

	return m, tea.Batch(cmds...)
}

// handleSendDone records the server copy in the sent folder and closes
// the compose session.
func (m Model) handleSendDone(msg appsync.SendDoneMsg) (tea.Model, tea.Cmd) {
	m.mailState = state.Apply(m.mailState, state.AddEmail{
		Folder: model.FolderSent,
		Email:  msg.Email,
	})

	if session := m.composeView.Session(); session != nil {
		session.MarkSent()
	}
	m.composeView.Reset()
	m.currentView = ViewList
	m.toast = "Message sent"

	return m, m.refreshList(model.FolderSent)
}

// handleEmailSelected opens the selected message, or resumes the draft
// when browsing the drafts folder.
func (m Model) handleEmailSelected(msg maillist.SelectedEmailMsg) (tea.Model, tea.Cmd) {
	m.mailState = state.Apply(m.mailState, state.SelectEmail{
		Folder: msg.Folder,
		ID:     msg.ID,
	})

	selected, ok := m.mailState.Folder(msg.Folder).Selected()
	if !ok {
		return m, nil
	}

	if msg.Folder == model.FolderDrafts {
		session := compose.NewFromDraft(selected)
		m.previousView = ViewList
		m.currentView = ViewCompose
		return m, m.composeView.Start(session)
	}

	m.mailView.SetEmail(msg.Folder, selected)
	m.previousView = m.currentView
	m.currentView = ViewMail
	return m, nil
}

// openReplyCompose records the reply intention and opens a compose
// session prefilled from the source message.
func (m Model) openReplyCompose(mode compose.Mode, email model.Email) (tea.Model, tea.Cmd) {
	viewer, err := m.identity.Address()
	if err != nil {
		m.toast = "Cannot compose: " + userMessage(err)
		return m, nil
	}

	m.mailState = state.Apply(m.mailState, state.ReplyEmail{
		Folder: m.folder,
		Mode:   mode,
		Email:  email,
	})

	session := compose.NewFromPrefill(compose.Derive(email, mode, viewer))
	m.previousView = m.currentView
	m.currentView = ViewCompose
	return m, m.composeView.Start(session)
}

// openBlankCompose opens an empty compose session.
func (m Model) openBlankCompose() (tea.Model, tea.Cmd) {
	if _, err := m.identity.Address(); err != nil {
		m.toast = "Cannot compose: " + userMessage(err)
		return m, nil
	}

	m.previousView = m.currentView
	m.currentView = ViewCompose
	return m, m.composeView.Start(compose.NewBlank())
}

// handleSendRequest builds the outgoing message and submits it. A
// rejected build keeps the form open with an inline error.
func (m Model) handleSendRequest() (tea.Model, tea.Cmd) {
	session := m.composeView.Session()
	if session == nil {
		return m, nil
	}

	from, err := m.identity.Address()
	if err != nil {
		session.SetBackendError("Cannot send: " + userMessage(err))
		return m, m.composeView.Reopen()
	}

	email, err := session.BuildSend(from)
	if err != nil {
		session.SetBackendError("Add at least one valid recipient before sending")
		return m, m.composeView.Reopen()
	}

	return m, m.coordinator.Send(email)
}

// handleDraftRequest saves the session as a draft without closing it.
func (m Model) handleDraftRequest() (tea.Model, tea.Cmd) {
	session := m.composeView.Session()
	if session == nil {
		return m, nil
	}

	from, err := m.identity.Address()
	if err != nil {
		m.toast = "Draft not saved: " + userMessage(err)
		return m, nil
	}

	return m, m.coordinator.SaveDraft(session.BuildDraft(from))
}

// handleGlobalKeys processes keys that apply regardless of the active
// view. The third return value reports whether the key was consumed.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	// Never steal keystrokes from the compose form or command input.
	typing := m.currentView == ViewCompose || m.currentView == ViewCommand

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit, true

	case "q":
		if m.currentView == ViewList {
			return m, tea.Quit, true
		}

	case "?":
		if typing {
			break
		}
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case ":":
		if typing {
			break
		}
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus(), true

	case "esc":
		if m.currentView == ViewCommand {
			m.currentView = m.previousView
			return m, nil, true
		}
	}

	if typing || m.currentView == ViewHelp {
		if msg.String() == "esc" && m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		return m, nil, false
	}

	switch msg.String() {
	case "1", "2", "3", "4", "5":
		folders := map[string]model.Folder{
			"1": model.FolderInbox,
			"2": model.FolderStarred,
			"3": model.FolderSent,
			"4": model.FolderDrafts,
			"5": model.FolderTrash,
		}
		mdl, cmd := m.switchFolder(folders[msg.String()])
		return mdl, cmd, true

	case "c":
		mdl, cmd := m.openBlankCompose()
		return mdl, cmd, true

	case "r":
		if m.currentView == ViewList {
			return m, m.fetchFolder(m.folder, m.currentPage()), true
		}

	case "n", "right":
		if m.currentView == ViewList {
			if page := m.currentPage(); page < m.mailState.PageCount(m.folder) {
				return m, m.fetchFolder(m.folder, page+1), true
			}
			return m, nil, true
		}

	case "p", "left":
		if m.currentView == ViewList {
			if page := m.currentPage(); page > 1 {
				return m, m.fetchFolder(m.folder, page-1), true
			}
			return m, nil, true
		}

	case "s":
		if m.currentView == ViewList {
			if email, ok := m.lists[m.folder].SelectedEmail(); ok {
				return m, m.coordinator.ToggleStar(m.folder, email.ID), true
			}
			return m, nil, true
		}

	case "R", "A", "F":
		if m.currentView == ViewList && m.folder != model.FolderDrafts {
			email, ok := m.lists[m.folder].SelectedEmail()
			if !ok {
				return m, nil, true
			}
			mode := compose.ModeReply
			switch msg.String() {
			case "A":
				mode = compose.ModeReplyAll
			case "F":
				mode = compose.ModeForward
			}
			mdl, cmd := m.openReplyCompose(mode, email)
			return mdl, cmd, true
		}
	}

	return m, nil, false
}

// switchFolder makes f the active folder and fetches its first page.
func (m Model) switchFolder(f model.Folder) (Model, tea.Cmd) {
	m.folder = f
	m.currentView = ViewList
	m.lists[f].SetLoading(true)
	return m, m.fetchFolder(f, 1)
}

// fetchFolder dispatches a sequenced page fetch for the folder.
func (m Model) fetchFolder(f model.Folder, page int) tea.Cmd {
	return m.coordinator.FetchPage(f, page, m.mailState.PageSize())
}

// currentPage returns the loaded page of the active folder, at least 1.
func (m Model) currentPage() int {
	page := m.mailState.Folder(m.folder).Page
	if page < 1 {
		page = 1
	}
	return page
}

// refreshList pushes a folder's state into its list view.
func (m Model) refreshList(f model.Folder) tea.Cmd {
	fs := m.mailState.Folder(f)
	l := m.lists[f]
	cmd := l.SetEmails(fs.Emails, fs.SelectedID)

	page := fs.Page
	if page < 1 {
		page = 1
	}
	l.SetPageInfo(page, m.mailState.PageCount(f), fs.TotalCount)
	return cmd
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		l := m.lists[m.folder]
		*l, cmd = l.Update(msg)
	case ViewMail:
		m.mailView, cmd = m.mailView.Update(msg)
	case ViewCompose:
		m.composeView, cmd = m.composeView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Webmail", m.headerStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.lists[m.folder].View()
	case ViewMail:
		return m.mailView.View()
	case ViewCompose:
		return m.composeView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// headerStatus summarizes the active folder for the header's right side.
func (m Model) headerStatus() string {
	fs := m.mailState.Folder(m.folder)
	if fs.TotalCount == 0 {
		return string(m.folder)
	}
	return fmt.Sprintf("%s · %d messages", m.folder, fs.TotalCount)
}

// keyHints returns keyboard shortcut hints for the status bar. A
// transient toast takes priority over the hints.
func (m Model) keyHints() string {
	if m.toast != "" {
		return m.toast
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewMail:
		return "esc back | R reply | A reply all | F forward | s star | j/k scroll"
	case ViewCompose:
		return "enter submit | ctrl+s draft | ctrl+b cc/bcc | esc discard"
	default:
		return "q quit | ? help | 1-5 folders | c compose | s star | n/p page | r refresh"
	}
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	switch cmd {
	case "inbox", "starred", "sent", "drafts", "trash":
		f := model.Folder(cmd)
		m.folder = f
		m.currentView = ViewList
		m.lists[f].SetLoading(true)
		return m.fetchFolder(f, 1)
	case "compose", "new":
		if _, err := m.identity.Address(); err != nil {
			m.toast = "Cannot compose: " + userMessage(err)
			return nil
		}
		m.previousView = m.currentView
		m.currentView = ViewCompose
		return m.composeView.Start(compose.NewBlank())
	case "refresh", "sync":
		return m.fetchFolder(m.folder, m.currentPage())
	case "quit", "q":
		return tea.Quit
	default:
		m.toast = "Unknown command: " + cmd
		return nil
	}
}

// userMessage converts store errors into a short user-facing string.
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	if mail.IsAuthError(err) {
		return "authentication required, sign in again"
	}
	var remote *mail.RemoteError
	if errors.As(err, &remote) {
		return remote.UserMessage()
	}
	if errors.Is(err, identity.ErrNoIdentity) {
		return "no signed-in address available"
	}
	return err.Error()
}
