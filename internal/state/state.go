// Package state holds the per-folder mail view state and the pure
// transition function that applies the closed action set to it.
//
// Exactly one State exists per running session. It is created at
// startup, owned by the root application model, and passed into every
// consumer; there is no ambient singleton. All writes funnel through
// Apply on the single Bubble Tea control thread, so no locking is
// needed; callers must treat a State passed to Apply as immutable
// afterwards and adopt the returned value.
package state

import (
	"fmt"

	"github.com/nhle/webmail/internal/model"
)

// FolderState is the loaded view of one folder: the current page of
// emails in server order, the selection, and pagination bookkeeping.
type FolderState struct {
	// Emails is the currently loaded page, in server-returned order.
	Emails []model.Email

	// SelectedID identifies the selected email; it always names an
	// element of Emails, or is empty.
	SelectedID string

	// Page is the 1-based current page number.
	Page int

	// TotalCount is the server-reported folder total.
	TotalCount int
}

// Selected returns the selected email, if any.
func (f FolderState) Selected() (model.Email, bool) {
	for _, e := range f.Emails {
		if e.ID == f.SelectedID && f.SelectedID != "" {
			return e, true
		}
	}
	return model.Email{}, false
}

func (f FolderState) contains(id string) bool {
	for _, e := range f.Emails {
		if e.ID == id {
			return true
		}
	}
	return false
}

// State is the whole-session mail view: one FolderState per folder plus
// the fixed page size.
type State struct {
	pageSize int
	folders  map[model.Folder]FolderState
}

// New creates the session state with the given page size.
func New(pageSize int) State {
	if pageSize <= 0 {
		pageSize = 10
	}
	folders := make(map[model.Folder]FolderState, len(model.Folders))
	for _, f := range model.Folders {
		folders[f] = FolderState{Page: 1}
	}
	return State{pageSize: pageSize, folders: folders}
}

// PageSize returns the fixed page size.
func (s State) PageSize() int { return s.pageSize }

// Folder returns the loaded state of one folder.
func (s State) Folder(f model.Folder) FolderState {
	return s.folders[f]
}

// PageCount returns the number of pages the folder's total spans.
func (s State) PageCount(f model.Folder) int {
	total := s.folders[f].TotalCount
	return (total + s.pageSize - 1) / s.pageSize
}

// Apply computes the next state for a recognized action. The input
// state is never mutated. Dispatching an unrecognized Action
// implementation is a programming error and panics.
func Apply(s State, action Action) State {
	switch a := action.(type) {
	case SetEmails:
		folder := s.folders[a.Folder]
		next := FolderState{
			Emails:     append([]model.Email(nil), a.Emails...),
			Page:       a.Page,
			TotalCount: a.TotalCount,
		}
		if next.Page <= 0 {
			next.Page = 1
		}
		// Selection survives only if the new page still holds it.
		if folder.SelectedID != "" && next.contains(folder.SelectedID) {
			next.SelectedID = folder.SelectedID
		}
		return s.withFolder(a.Folder, next)

	case SelectEmail:
		folder := s.folders[a.Folder]
		if folder.contains(a.ID) {
			folder.SelectedID = a.ID
		} else {
			folder.SelectedID = ""
		}
		return s.withFolder(a.Folder, folder)

	case AddEmail:
		folder := s.folders[a.Folder]
		emails := make([]model.Email, 0, len(folder.Emails)+1)
		emails = append(emails, folder.Emails...)
		emails = append(emails, a.Email)
		folder.Emails = emails
		folder.TotalCount++
		return s.withFolder(a.Folder, folder)

	case ToggleStar:
		folder := s.folders[a.Folder]
		emails := append([]model.Email(nil), folder.Emails...)
		for i := range emails {
			if emails[i].ID == a.ID {
				emails[i].Starred = !emails[i].Starred
			}
		}
		folder.Emails = emails
		return s.withFolder(a.Folder, folder)

	case ReplyEmail:
		// A signal for the screen layer; folder state is unchanged.
		return s

	default:
		panic(fmt.Sprintf("state: unrecognized action %T", action))
	}
}

// withFolder returns a copy of s with one folder replaced.
func (s State) withFolder(f model.Folder, fs FolderState) State {
	folders := make(map[model.Folder]FolderState, len(s.folders))
	for k, v := range s.folders {
		folders[k] = v
	}
	folders[f] = fs
	return State{pageSize: s.pageSize, folders: folders}
}
