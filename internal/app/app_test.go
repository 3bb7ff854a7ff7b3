package app

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/webmail/internal/compose"
	"github.com/nhle/webmail/internal/identity"
	"github.com/nhle/webmail/internal/mail"
	"github.com/nhle/webmail/internal/model"
	appsync "github.com/nhle/webmail/internal/sync"
	"github.com/nhle/webmail/internal/ui/composeform"
	"github.com/nhle/webmail/internal/ui/maillist"
	"github.com/nhle/webmail/internal/ui/mailview"
	"github.com/nhle/webmail/tests/testutil"
)

func pagedStore(perFolder map[model.Folder][]model.Email) *testutil.FakeStore {
	return &testutil.FakeStore{
		FetchPageFunc: func(folder model.Folder, page, pageSize int) (mail.Page, error) {
			all := perFolder[folder]
			start := (page - 1) * pageSize
			if start > len(all) {
				start = len(all)
			}
			end := start + pageSize
			if end > len(all) {
				end = len(all)
			}
			return mail.Page{Emails: all[start:end], TotalCount: len(all)}, nil
		},
	}
}

func inboxEmails(n int) []model.Email {
	emails := make([]model.Email, n)
	for i := range emails {
		emails[i] = model.Email{
			ID:      fmt.Sprintf("m%d", i+1),
			From:    "alice@example.com",
			To:      "me@example.com",
			Subject: fmt.Sprintf("message %d", i+1),
		}
	}
	return emails
}

func newTestApp(store mail.Store) Model {
	return New(store, identity.StaticIdentity("me@example.com"), nil, 10)
}

func runUpdate(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	mdl, cmd := m.Update(msg)
	next, ok := mdl.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want app.Model", mdl)
	}
	return next, cmd
}

func TestInitLoadsFirstInboxPage(t *testing.T) {
	store := pagedStore(map[model.Folder][]model.Email{
		model.FolderInbox: inboxEmails(25),
	})
	m := newTestApp(store)

	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Init returned nil command")
	}

	msg, ok := cmd().(appsync.PageFetchedMsg)
	if !ok {
		t.Fatal("Init command did not produce a page")
	}
	m, _ = runUpdate(t, m, msg)

	fs := m.mailState.Folder(model.FolderInbox)
	if len(fs.Emails) != 10 {
		t.Fatalf("loaded %d emails, want 10", len(fs.Emails))
	}
	if fs.TotalCount != 25 {
		t.Fatalf("TotalCount = %d, want 25", fs.TotalCount)
	}
	if fs.Page != 1 {
		t.Fatalf("Page = %d, want 1", fs.Page)
	}
}

func TestSupersededPageIsDropped(t *testing.T) {
	store := pagedStore(map[model.Folder][]model.Email{
		model.FolderInbox: inboxEmails(25),
	})
	m := newTestApp(store)

	// Two fetches for the same folder; the first response arrives after
	// the second fetch was dispatched and must not be applied.
	stale := m.fetchFolder(model.FolderInbox, 1)()
	fresh := m.fetchFolder(model.FolderInbox, 2)()

	m, _ = runUpdate(t, m, stale)
	fs := m.mailState.Folder(model.FolderInbox)
	if len(fs.Emails) != 0 {
		t.Fatalf("stale page was applied: %d emails", len(fs.Emails))
	}

	m, _ = runUpdate(t, m, fresh)
	fs = m.mailState.Folder(model.FolderInbox)
	if fs.Page != 2 {
		t.Fatalf("Page = %d, want 2", fs.Page)
	}
	if len(fs.Emails) != 10 {
		t.Fatalf("loaded %d emails, want 10", len(fs.Emails))
	}
}

func TestStarToggleConfirmedBeforeApply(t *testing.T) {
	store := pagedStore(map[model.Folder][]model.Email{
		model.FolderInbox: inboxEmails(3),
	})
	m := newTestApp(store)
	m, _ = runUpdate(t, m, m.Init()())

	m, _ = runUpdate(t, m, appsync.StarToggledMsg{
		Folder: model.FolderInbox,
		ID:     "m2",
	})

	fs := m.mailState.Folder(model.FolderInbox)
	for _, e := range fs.Emails {
		if e.ID == "m2" && !e.Starred {
			t.Fatal("confirmed toggle did not flip star")
		}
		if e.ID != "m2" && e.Starred {
			t.Fatalf("toggle leaked onto %s", e.ID)
		}
	}
}

func TestStarFailureLeavesStateUntouched(t *testing.T) {
	store := pagedStore(map[model.Folder][]model.Email{
		model.FolderInbox: inboxEmails(3),
	})
	m := newTestApp(store)
	m, _ = runUpdate(t, m, m.Init()())

	m, _ = runUpdate(t, m, appsync.StarFailedMsg{
		Folder: model.FolderInbox,
		ID:     "m2",
		Err:    fmt.Errorf("server said no"),
	})

	for _, e := range m.mailState.Folder(model.FolderInbox).Emails {
		if e.Starred {
			t.Fatalf("failed toggle changed %s", e.ID)
		}
	}
	if m.toast == "" {
		t.Fatal("failure was not surfaced to the user")
	}
}

func TestSendAppendsToSentAndClosesCompose(t *testing.T) {
	store := pagedStore(nil)
	m := newTestApp(store)

	session := compose.NewBlank()
	session.SetRecipients(model.FieldTo, "bob@example.com")
	session.SetSubject("hello")
	session.SetBody("hi there")
	_ = m.composeView.Start(session)
	m.currentView = ViewCompose

	mdl, cmd := m.Update(composeform.SendRequestMsg{})
	m = mdl.(Model)
	if cmd == nil {
		t.Fatal("send request produced no command")
	}

	done, ok := cmd().(appsync.SendDoneMsg)
	if !ok {
		t.Fatal("send command did not complete")
	}
	if done.Email.From != "me@example.com" {
		t.Fatalf("From = %q, want viewer address", done.Email.From)
	}

	m, _ = runUpdate(t, m, done)
	if m.currentView != ViewList {
		t.Fatal("compose view still open after send")
	}
	sent := m.mailState.Folder(model.FolderSent)
	if len(sent.Emails) != 1 || sent.TotalCount != 1 {
		t.Fatalf("sent folder has %d emails, want 1", len(sent.Emails))
	}
	if session.Status() != compose.StatusSent {
		t.Fatalf("session status = %v, want sent", session.Status())
	}
}

func TestSendFailureKeepsSessionOpen(t *testing.T) {
	store := pagedStore(nil)
	store.SendFunc = func(model.Email) (model.Email, error) {
		return model.Email{}, &mail.RemoteError{Op: "send", Message: "relay down"}
	}
	m := newTestApp(store)

	session := compose.NewBlank()
	session.SetRecipients(model.FieldTo, "bob@example.com")
	_ = m.composeView.Start(session)
	m.currentView = ViewCompose

	mdl, cmd := m.Update(composeform.SendRequestMsg{})
	m = mdl.(Model)
	failed, ok := cmd().(appsync.SendFailedMsg)
	if !ok {
		t.Fatal("expected a send failure")
	}

	m, _ = runUpdate(t, m, failed)
	if m.currentView != ViewCompose {
		t.Fatal("compose view closed on failure")
	}
	if session.BackendError() == "" {
		t.Fatal("backend error not recorded on session")
	}
	if session.Status() != compose.StatusEditing {
		t.Fatal("session left editing state on failure")
	}
}

func TestOpeningDraftResumesSession(t *testing.T) {
	draft := model.Email{
		ID:      "d1",
		To:      "bob@example.com",
		Subject: "half-written",
		Body:    "dear bob",
	}
	store := pagedStore(map[model.Folder][]model.Email{
		model.FolderDrafts: {draft},
	})
	m := newTestApp(store)

	m, _ = runUpdate(t, m, m.fetchFolder(model.FolderDrafts, 1)())
	m.folder = model.FolderDrafts

	m, _ = runUpdate(t, m, maillist.SelectedEmailMsg{Folder: model.FolderDrafts, ID: "d1"})

	if m.currentView != ViewCompose {
		t.Fatal("opening a draft did not enter compose")
	}
	session := m.composeView.Session()
	if session == nil {
		t.Fatal("no session started")
	}
	if session.DraftID() != "d1" {
		t.Fatalf("DraftID = %q, want d1", session.DraftID())
	}
	if session.Subject() != "half-written" {
		t.Fatalf("Subject = %q", session.Subject())
	}
}

func TestReplyRecordsIntentionAndPrefills(t *testing.T) {
	src := model.Email{
		ID:      "m1",
		From:    "alice@example.com",
		To:      "me@example.com; carol@example.com",
		Subject: "plans",
		Body:    "lunch?",
	}
	store := pagedStore(map[model.Folder][]model.Email{
		model.FolderInbox: {src},
	})
	m := newTestApp(store)
	m, _ = runUpdate(t, m, m.Init()())

	m, _ = runUpdate(t, m, mailview.ComposeRequestMsg{Mode: compose.ModeReplyAll, Email: src})

	if m.currentView != ViewCompose {
		t.Fatal("reply did not enter compose")
	}
	session := m.composeView.Session()
	to := session.Recipients(model.FieldTo)
	if to != "alice@example.com; carol@example.com" {
		t.Fatalf("To = %q", to)
	}
	if session.Subject() != "Re: plans" {
		t.Fatalf("Subject = %q", session.Subject())
	}
}
