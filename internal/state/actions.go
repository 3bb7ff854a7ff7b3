package state

import (
	"github.com/nhle/webmail/internal/compose"
	"github.com/nhle/webmail/internal/model"
)

// Action is the closed set of folder-state transitions. The set is
// sealed by the unexported marker method; dispatching anything else is
// a caller bug and Apply fails loudly.
type Action interface {
	isAction()
}

// SetEmails atomically replaces a folder's loaded page. If the selected
// email no longer appears in the new set, the selection is cleared.
type SetEmails struct {
	Folder     model.Folder
	Emails     []model.Email
	TotalCount int
	Page       int
}

// SelectEmail selects the email with the given id, or clears the
// selection when the id is not on the loaded page.
type SelectEmail struct {
	Folder model.Folder
	ID     string
}

// AddEmail appends an email to a folder and bumps its total count.
// Appending matches server ordering; the next fetch re-establishes the
// authoritative order.
type AddEmail struct {
	Folder model.Folder
	Email  model.Email
}

// ToggleStar flips the starred flag of the matching email on the loaded
// page. It never changes folder membership by itself; removal from the
// starred view happens on the next fetch.
type ToggleStar struct {
	Folder model.Folder
	ID     string
}

// ReplyEmail signals that a compose session should be opened for the
// given source email and mode. It has no folder-state effect; it exists
// so every user intention flows through the same action log.
type ReplyEmail struct {
	Folder model.Folder
	Mode   compose.Mode
	Email  model.Email
}

func (SetEmails) isAction()   {}
func (SelectEmail) isAction() {}
func (AddEmail) isAction()    {}
func (ToggleStar) isAction()  {}
func (ReplyEmail) isAction()  {}
