// Package testutil provides shared test doubles for the mail store.
package testutil

import (
	"context"
	"sync"

	"github.com/nhle/webmail/internal/mail"
	"github.com/nhle/webmail/internal/model"
)

// FakeStore is a scriptable in-memory mail.Store. Zero-value methods
// succeed with empty results; assign the *Func fields to script
// behavior. All calls are recorded for assertions.
type FakeStore struct {
	mu sync.Mutex

	FetchPageFunc  func(folder model.Folder, page, pageSize int) (mail.Page, error)
	SendFunc       func(email model.Email) (model.Email, error)
	SaveDraftFunc  func(email model.Email) error
	ToggleStarFunc func(id string) error

	FetchCalls  []FetchCall
	SentEmails  []model.Email
	SavedDrafts []model.Email
	StarredIDs  []string
}

// FetchCall records one FetchPage invocation.
type FetchCall struct {
	Folder   model.Folder
	Page     int
	PageSize int
}

var _ mail.Store = (*FakeStore)(nil)

// FetchPage implements mail.Store.
func (f *FakeStore) FetchPage(
	_ context.Context, folder model.Folder, page, pageSize int,
) (mail.Page, error) {
	f.mu.Lock()
	f.FetchCalls = append(f.FetchCalls, FetchCall{folder, page, pageSize})
	fn := f.FetchPageFunc
	f.mu.Unlock()

	if fn != nil {
		return fn(folder, page, pageSize)
	}
	return mail.Page{}, nil
}

// Send implements mail.Store.
func (f *FakeStore) Send(_ context.Context, email model.Email) (model.Email, error) {
	f.mu.Lock()
	f.SentEmails = append(f.SentEmails, email)
	fn := f.SendFunc
	f.mu.Unlock()

	if fn != nil {
		return fn(email)
	}
	return email, nil
}

// SaveDraft implements mail.Store.
func (f *FakeStore) SaveDraft(_ context.Context, email model.Email) error {
	f.mu.Lock()
	f.SavedDrafts = append(f.SavedDrafts, email)
	fn := f.SaveDraftFunc
	f.mu.Unlock()

	if fn != nil {
		return fn(email)
	}
	return nil
}

// ToggleStar implements mail.Store.
func (f *FakeStore) ToggleStar(_ context.Context, id string) error {
	f.mu.Lock()
	f.StarredIDs = append(f.StarredIDs, id)
	fn := f.ToggleStarFunc
	f.mu.Unlock()

	if fn != nil {
		return fn(id)
	}
	return nil
}
