package sync

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nhle/webmail/internal/mail"
	"github.com/nhle/webmail/internal/model"
	"github.com/nhle/webmail/internal/state"
	"github.com/nhle/webmail/tests/testutil"
)

func TestFetchPageSequencing(t *testing.T) {
	store := &testutil.FakeStore{}
	c := New(store, nil)

	first := c.FetchPage(model.FolderInbox, 1, 10)
	second := c.FetchPage(model.FolderInbox, 2, 10)

	// Resolve out of order: the older response must no longer be current.
	secondMsg := second().(PageFetchedMsg)
	firstMsg := first().(PageFetchedMsg)

	if !c.IsCurrent(model.FolderInbox, secondMsg.Seq) {
		t.Error("latest fetch must be current")
	}
	if c.IsCurrent(model.FolderInbox, firstMsg.Seq) {
		t.Error("superseded fetch must not be current")
	}
}

func TestFetchPageSequencingIsPerFolder(t *testing.T) {
	store := &testutil.FakeStore{}
	c := New(store, nil)

	inboxMsg := c.FetchPage(model.FolderInbox, 1, 10)().(PageFetchedMsg)
	_ = c.FetchPage(model.FolderSent, 1, 10)()

	if !c.IsCurrent(model.FolderInbox, inboxMsg.Seq) {
		t.Error("a fetch for another folder must not supersede this one")
	}
}

func TestFetchPageFailure(t *testing.T) {
	boom := &mail.RemoteError{Op: "GET /api/emails/inbox", Message: "backend down"}
	store := &testutil.FakeStore{
		FetchPageFunc: func(model.Folder, int, int) (mail.Page, error) {
			return mail.Page{}, boom
		},
	}
	c := New(store, nil)

	msg := c.FetchPage(model.FolderInbox, 1, 10)()
	failed, ok := msg.(FetchFailedMsg)
	if !ok {
		t.Fatalf("msg = %T, want FetchFailedMsg", msg)
	}
	if !errors.Is(failed.Err, boom) {
		t.Errorf("Err = %v", failed.Err)
	}
}

func TestToggleStarConfirmThenApply(t *testing.T) {
	store := &testutil.FakeStore{}
	c := New(store, nil)

	msg := c.ToggleStar(model.FolderStarred, "m1")()
	toggled, ok := msg.(StarToggledMsg)
	if !ok {
		t.Fatalf("msg = %T, want StarToggledMsg", msg)
	}
	if toggled.Folder != model.FolderStarred || toggled.ID != "m1" {
		t.Errorf("msg = %+v", toggled)
	}
	if len(store.StarredIDs) != 1 || store.StarredIDs[0] != "m1" {
		t.Errorf("remote calls = %v", store.StarredIDs)
	}
}

func TestToggleStarFailureLeavesStateUntouched(t *testing.T) {
	store := &testutil.FakeStore{
		ToggleStarFunc: func(string) error {
			return &mail.RemoteError{Op: "PUT star", Message: "nope"}
		},
	}
	c := New(store, nil)

	s := state.New(10)
	s = state.Apply(s, state.SetEmails{
		Folder:     model.FolderStarred,
		Emails:     []model.Email{{ID: "m1", Starred: true}},
		TotalCount: 1,
		Page:       1,
	})
	before := s.Folder(model.FolderStarred)

	msg := c.ToggleStar(model.FolderStarred, "m1")()
	failed, ok := msg.(StarFailedMsg)
	if !ok {
		t.Fatalf("msg = %T, want StarFailedMsg", msg)
	}
	if failed.Err == nil {
		t.Error("failure must carry the error for display")
	}

	// The protocol produced no state action; the folder is unchanged.
	if !reflect.DeepEqual(before, s.Folder(model.FolderStarred)) {
		t.Error("folder state changed despite a rejected toggle")
	}
}

func TestSendReturnsServerCopy(t *testing.T) {
	store := &testutil.FakeStore{
		SendFunc: func(email model.Email) (model.Email, error) {
			email.Subject = "server says: " + email.Subject
			return email, nil
		},
	}
	c := New(store, nil)

	msg := c.Send(model.Email{ID: "x", Subject: "hi"})()
	done, ok := msg.(SendDoneMsg)
	if !ok {
		t.Fatalf("msg = %T, want SendDoneMsg", msg)
	}
	if done.Email.Subject != "server says: hi" {
		t.Errorf("saved copy = %+v", done.Email)
	}
}

func TestSendFailure(t *testing.T) {
	store := &testutil.FakeStore{
		SendFunc: func(model.Email) (model.Email, error) {
			return model.Email{}, &mail.RemoteError{Op: "send", Message: "rejected"}
		},
	}
	c := New(store, nil)

	msg := c.Send(model.Email{ID: "x"})()
	if _, ok := msg.(SendFailedMsg); !ok {
		t.Fatalf("msg = %T, want SendFailedMsg", msg)
	}
}

func TestSaveDraft(t *testing.T) {
	store := &testutil.FakeStore{}
	c := New(store, nil)

	msg := c.SaveDraft(model.Email{ID: "d1"})()
	if saved, ok := msg.(DraftSavedMsg); !ok || saved.ID != "d1" {
		t.Fatalf("msg = %v", msg)
	}

	store.SaveDraftFunc = func(model.Email) error {
		return &mail.RemoteError{Op: "draft", Message: "disk full"}
	}
	msg = c.SaveDraft(model.Email{ID: "d1"})()
	if failed, ok := msg.(DraftFailedMsg); !ok || failed.ID != "d1" {
		t.Fatalf("msg = %v", msg)
	}
}
